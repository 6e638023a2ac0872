package scheduler

import (
	"context"
	"fmt"
	"time"

	"astro-backend/internal/notification/domain"
)

// ContentContext describes the audience a piece of content is generated for
type ContentContext struct {
	Date time.Time
	// Sign is the zodiac sign of the audience; empty for a generic audience
	Sign string
}

// Content is the title, body and payload of one scheduled notification
type Content struct {
	Title string
	Body  string
	Data  map[string]interface{}
}

// ContentSource supplies horoscope, moon phase and transit texts
type ContentSource interface {
	ContentFor(ctx context.Context, category domain.Category, cc ContentContext) (Content, error)
}

// PlaceholderContent returns fixed texts until an astrology data provider is connected
type PlaceholderContent struct{}

func (PlaceholderContent) ContentFor(_ context.Context, category domain.Category, cc ContentContext) (Content, error) {
	date := cc.Date.Format("2006-01-02")

	switch category {
	case domain.CategoryDailyHoroscope:
		if cc.Sign == "" {
			return Content{
				Title: "Your Daily Horoscope",
				Body:  "Add your birth date to get a horoscope written for your sign.",
				Data:  map[string]interface{}{"date": date},
			}, nil
		}
		return Content{
			Title: fmt.Sprintf("Daily Horoscope for %s", cc.Sign),
			Body:  "Your daily horoscope prediction here",
			Data:  map[string]interface{}{"sign": cc.Sign, "date": date},
		}, nil
	case domain.CategoryMoonPhase:
		return Content{
			Title: "Moon Phase Update",
			Body:  "Today is a Full Moon. A good time to release what no longer serves you.",
			Data:  map[string]interface{}{"phase": "Full Moon", "date": date},
		}, nil
	case domain.CategoryPlanetaryTransit:
		return Content{
			Title: "Planetary Transit Alert",
			Body:  "Mercury is in conjunction. Expect lively conversations.",
			Data:  map[string]interface{}{"planet": "Mercury", "aspect": "Conjunction", "date": date},
		}, nil
	}
	return Content{}, fmt.Errorf("no scheduled content for category %q", category)
}
