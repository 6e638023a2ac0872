package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyAt_Next(t *testing.T) {
	s := DailyAt(8, 0, time.UTC)

	before := time.Date(2026, 3, 10, 7, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), s.Next(before))

	exactly := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), s.Next(exactly))

	endOfMonth := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC), s.Next(endOfMonth))
}

func TestDailyAt_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	s := DailyAt(9, 0, tokyo)

	// 23:30 UTC is 08:30 the next morning in Tokyo
	from := time.Date(2026, 6, 1, 23, 30, 0, 0, time.UTC)
	next := s.Next(from)

	assert.Equal(t, time.Date(2026, 6, 2, 9, 0, 0, 0, tokyo), next)
	assert.Equal(t, 30*time.Minute, next.Sub(from))
}

func TestParseDailyAt(t *testing.T) {
	s, err := ParseDailyAt("10:15", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "daily at 10:15 UTC", s.String())

	_, err = ParseDailyAt("25:00", time.UTC)
	assert.Error(t, err)
}

func TestZodiacSign(t *testing.T) {
	cases := []struct {
		month time.Month
		day   int
		sign  string
	}{
		{time.January, 19, "Capricorn"},
		{time.January, 20, "Aquarius"},
		{time.February, 18, "Aquarius"},
		{time.February, 19, "Pisces"},
		{time.March, 20, "Pisces"},
		{time.March, 21, "Aries"},
		{time.April, 20, "Taurus"},
		{time.May, 21, "Gemini"},
		{time.June, 21, "Cancer"},
		{time.July, 22, "Cancer"},
		{time.July, 23, "Leo"},
		{time.August, 23, "Virgo"},
		{time.September, 23, "Libra"},
		{time.October, 23, "Scorpio"},
		{time.November, 21, "Scorpio"},
		{time.November, 22, "Sagittarius"},
		{time.December, 21, "Sagittarius"},
		{time.December, 22, "Capricorn"},
	}
	for _, tc := range cases {
		birth := time.Date(1990, tc.month, tc.day, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, tc.sign, ZodiacSign(birth), birth.Format("Jan 2"))
	}
}
