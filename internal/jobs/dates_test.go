package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"jobtracker/internal/errcode"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", FormatDate(d))

	for _, raw := range []string{"", "2024-2-1", "2023-02-29", "29.02.2024", "2024-02-29T00:00:00Z"} {
		_, err := ParseDate(raw)
		assert.Equal(t, errcode.InvalidInput, errcode.CodeOf(err), raw)
	}
}

func TestTodayAndDaysBetween(t *testing.T) {
	late := time.Date(2024, time.March, 15, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))
	assert.Equal(t, "2024-03-16", FormatDate(Today(late)))

	from, _ := ParseDate("2024-02-27")
	to, _ := ParseDate("2024-03-05")
	assert.Equal(t, 7, DaysBetween(from, to))
	assert.Equal(t, -7, DaysBetween(to, from))
	assert.Equal(t, 0, DaysBetween(from, datatypes.Date(time.Time(from).Add(5*time.Hour))))
}

func TestFormatDatePtr(t *testing.T) {
	assert.Nil(t, FormatDatePtr(nil))
	d, _ := ParseDate("2024-01-01")
	require.NotNil(t, FormatDatePtr(&d))
	assert.Equal(t, "2024-01-01", *FormatDatePtr(&d))
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStatus("Applied")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Must be one of: bookmark, applied, interview, accepted, rejected")
}
