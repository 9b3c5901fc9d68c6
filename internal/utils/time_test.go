package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseWorkDate(t *testing.T) {
	d, err := ParseWorkDate("2024-01-01")
	assert.NoError(t, err)
	assert.Equal(t, "2024-01-01", d)

	for _, bad := range []string{"", "2024-1-1", "2024-13-01", "01/01/2024", "2024-01-01T00:00:00Z"} {
		_, err := ParseWorkDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestDateOrToday(t *testing.T) {
	d, err := DateOrToday("")
	assert.NoError(t, err)
	assert.Equal(t, time.Now().Format(DateLayout), d)

	_, err = DateOrToday("yesterday")
	assert.Error(t, err)
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "", FormatTime(time.Time{}))

	ts := time.Date(2024, 1, 1, 9, 5, 0, 0, time.Local)
	assert.Equal(t, "09:05", FormatTime(ts))
}
