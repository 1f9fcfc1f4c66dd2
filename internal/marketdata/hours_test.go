package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	_, err := ParseWindow("09:00", "15:30")
	assert.NoError(t, err)

	_, err = ParseWindow("9am", "15:30")
	assert.Error(t, err)

	_, err = ParseWindow("15:30", "09:00")
	assert.Error(t, err, "close before open must be rejected")

	_, err = ParseWindow("09:00", "09:00")
	assert.Error(t, err)
}

func TestWindowContains(t *testing.T) {
	w, err := ParseWindow("09:00", "15:30")
	require.NoError(t, err)

	at := func(h, m, s int) time.Time {
		return time.Date(2024, 6, 3, h, m, s, 0, time.UTC)
	}

	assert.False(t, w.Contains(at(8, 59, 59)))
	assert.True(t, w.Contains(at(9, 0, 0)))
	assert.True(t, w.Contains(at(12, 15, 0)))
	assert.True(t, w.Contains(at(15, 30, 59)), "the close minute is inclusive")
	assert.False(t, w.Contains(at(15, 31, 0)))
}
