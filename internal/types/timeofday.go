package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	ierr "github.com/flexprice/flexgym/internal/errors"
)

// TimeOfDay is a wall-clock time with minute precision, stored as minutes
// after midnight.
type TimeOfDay int

const timeOfDayLayout = "15:04"

// ParseTimeOfDay parses "HH:MM" (or "HH:MM:SS" as returned by postgres).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	layout := timeOfDayLayout
	if len(s) == len("15:04:05") {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHintf("Invalid time %q, expected HH:MM", s).
			Mark(ierr.ErrValidation)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// MustTimeOfDay is ParseTimeOfDay for constants and tests.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t < other
}

// Overlaps reports whether [start, end) intersects [otherStart, otherEnd).
func Overlaps(start, end, otherStart, otherEnd TimeOfDay) bool {
	return start < otherEnd && otherStart < end
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Scan implements the sql.Scanner interface for postgres TIME columns
func (t *TimeOfDay) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*t = TimeOfDay(v.Hour()*60 + v.Minute())
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", value)
	}
}

func (t *TimeOfDay) scanString(s string) error {
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements the driver.Valuer interface for TimeOfDay
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}
