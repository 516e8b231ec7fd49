package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(570), tod)
	assert.Equal(t, "09:30", tod.String())

	tod, err = ParseTimeOfDay("18:05:00")
	require.NoError(t, err)
	assert.Equal(t, "18:05", tod.String())

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
}

func TestOverlaps(t *testing.T) {
	nine, ten, eleven := MustTimeOfDay("09:00"), MustTimeOfDay("10:00"), MustTimeOfDay("11:00")

	assert.True(t, Overlaps(nine, eleven, ten, eleven))
	assert.False(t, Overlaps(nine, ten, ten, eleven), "back to back sessions do not overlap")
	assert.True(t, Overlaps(nine, eleven, nine, ten))
}

func TestTimeOfDayJSON(t *testing.T) {
	b, err := json.Marshal(MustTimeOfDay("07:15"))
	require.NoError(t, err)
	assert.Equal(t, `"07:15"`, string(b))

	var tod TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"21:45"`), &tod))
	assert.Equal(t, MustTimeOfDay("21:45"), tod)
}
