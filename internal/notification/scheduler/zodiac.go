package scheduler

import "time"

// zodiacBounds lists, per month, the first day belonging to the next sign
var zodiacBounds = [12]struct {
	cutoff int
	before string
	after  string
}{
	time.January - 1:   {20, "Capricorn", "Aquarius"},
	time.February - 1:  {19, "Aquarius", "Pisces"},
	time.March - 1:     {21, "Pisces", "Aries"},
	time.April - 1:     {20, "Aries", "Taurus"},
	time.May - 1:       {21, "Taurus", "Gemini"},
	time.June - 1:      {21, "Gemini", "Cancer"},
	time.July - 1:      {23, "Cancer", "Leo"},
	time.August - 1:    {23, "Leo", "Virgo"},
	time.September - 1: {23, "Virgo", "Libra"},
	time.October - 1:   {23, "Libra", "Scorpio"},
	time.November - 1:  {22, "Scorpio", "Sagittarius"},
	time.December - 1:  {22, "Sagittarius", "Capricorn"},
}

// ZodiacSign returns the western sun sign for a birth date
func ZodiacSign(birth time.Time) string {
	b := zodiacBounds[birth.Month()-1]
	if birth.Day() < b.cutoff {
		return b.before
	}
	return b.after
}
