package scheduler

import (
	"fmt"
	"time"

	"astro-backend/pkg/config"
)

// Schedule determines when a recurring job fires next
type Schedule interface {
	Next(from time.Time) time.Time
	String() string
}

type dailySchedule struct {
	hour   int
	minute int
	loc    *time.Location
}

func (s dailySchedule) Next(from time.Time) time.Time {
	local := from.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.hour, s.minute, 0, 0, s.loc)
	}
	return next
}

func (s dailySchedule) String() string {
	return fmt.Sprintf("daily at %02d:%02d %s", s.hour, s.minute, s.loc)
}

// DailyAt fires once a day at hour:minute in loc; a nil loc means UTC
func DailyAt(hour, minute int, loc *time.Location) Schedule {
	if loc == nil {
		loc = time.UTC
	}
	return dailySchedule{hour: hour, minute: minute, loc: loc}
}

// ParseDailyAt builds a daily schedule from an HH:MM clock time
func ParseDailyAt(clock string, loc *time.Location) (Schedule, error) {
	hour, minute, err := config.ParseClock(clock)
	if err != nil {
		return nil, err
	}
	return DailyAt(hour, minute, loc), nil
}
