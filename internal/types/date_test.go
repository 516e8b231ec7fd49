package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var ist = time.FixedZone("IST", 5*60*60+30*60)

func TestDate(t *testing.T) {
	got := Date(time.Date(2024, time.March, 10, 23, 45, 0, 0, ist))
	assert.Equal(t, NewDate(2024, time.March, 10), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{
			name:  "same day",
			start: NewDate(2024, time.January, 1),
			end:   NewDate(2024, time.January, 1),
			want:  0,
		},
		{
			name:  "thirty days",
			start: NewDate(2024, time.January, 1),
			end:   NewDate(2024, time.January, 31),
			want:  30,
		},
		{
			name:  "leap year february",
			start: NewDate(2024, time.February, 1),
			end:   NewDate(2024, time.March, 1),
			want:  29,
		},
		{
			name:  "end before start",
			start: NewDate(2024, time.January, 10),
			end:   NewDate(2024, time.January, 5),
			want:  -5,
		},
		{
			name:  "time of day ignored",
			start: time.Date(2024, time.January, 1, 22, 0, 0, 0, time.UTC),
			end:   time.Date(2024, time.January, 2, 1, 0, 0, 0, time.UTC),
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.start, tt.end))
		})
	}
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{
			name:   "simple month",
			start:  NewDate(2024, time.January, 15),
			months: 1,
			want:   NewDate(2024, time.February, 15),
		},
		{
			name:   "clamp to leap february",
			start:  NewDate(2024, time.January, 31),
			months: 1,
			want:   NewDate(2024, time.February, 29),
		},
		{
			name:   "clamp to non leap february",
			start:  NewDate(2023, time.January, 31),
			months: 1,
			want:   NewDate(2023, time.February, 28),
		},
		{
			name:   "clamp to thirty day month",
			start:  NewDate(2024, time.January, 31),
			months: 3,
			want:   NewDate(2024, time.April, 30),
		},
		{
			name:   "cross year",
			start:  NewDate(2024, time.November, 30),
			months: 3,
			want:   NewDate(2025, time.February, 28),
		},
		{
			name:   "days are never added",
			start:  NewDate(2024, time.March, 1),
			months: 1,
			want:   NewDate(2024, time.April, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonthsClamped(tt.start, tt.months))
		})
	}
}
