package domain

import "fmt"

// Category classifies a notification for preference gating
type Category string

const (
	CategoryGeneral          Category = "general"
	CategoryMessages         Category = "messages"
	CategoryFollowing        Category = "following"
	CategoryReadings         Category = "readings"
	CategoryPromotions       Category = "promotions"
	CategoryDailyHoroscope   Category = "daily_horoscope"
	CategoryMoonPhase        Category = "moon_phase"
	CategoryPlanetaryTransit Category = "planetary_transit"
)

// Categories lists every known category
var Categories = []Category{
	CategoryGeneral,
	CategoryMessages,
	CategoryFollowing,
	CategoryReadings,
	CategoryPromotions,
	CategoryDailyHoroscope,
	CategoryMoonPhase,
	CategoryPlanetaryTransit,
}

// ParseCategory converts a wire value into a Category. An empty string yields fallback.
func ParseCategory(s string, fallback Category) (Category, error) {
	if s == "" {
		return fallback, nil
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown notification type %q", s)
}
