package domain

import "time"

// Preferences holds a user's notification opt-ins
type Preferences struct {
	UserID            string    `json:"userId" gorm:"primaryKey"`
	Enabled           bool      `json:"enabled" gorm:"not null"`
	Messages          bool      `json:"messages" gorm:"not null"`
	Following         bool      `json:"following" gorm:"not null"`
	Readings          bool      `json:"readings" gorm:"not null"`
	Promotions        bool      `json:"promotions" gorm:"not null"`
	DailyHoroscope    bool      `json:"dailyHoroscope" gorm:"not null"`
	MoonPhases        bool      `json:"moonPhases" gorm:"not null"`
	PlanetaryTransits bool      `json:"planetaryTransits" gorm:"not null"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (Preferences) TableName() string {
	return "notification_preferences"
}

// DefaultPreferences is what a user without a stored row receives:
// everything on except promotions.
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:            userID,
		Enabled:           true,
		Messages:          true,
		Following:         true,
		Readings:          true,
		Promotions:        false,
		DailyHoroscope:    true,
		MoonPhases:        true,
		PlanetaryTransits: true,
	}
}

// CategoryEnabled reports the per-category flag, ignoring the global switch.
// General notifications have no flag of their own.
func (p *Preferences) CategoryEnabled(c Category) bool {
	switch c {
	case CategoryGeneral:
		return true
	case CategoryMessages:
		return p.Messages
	case CategoryFollowing:
		return p.Following
	case CategoryReadings:
		return p.Readings
	case CategoryPromotions:
		return p.Promotions
	case CategoryDailyHoroscope:
		return p.DailyHoroscope
	case CategoryMoonPhase:
		return p.MoonPhases
	case CategoryPlanetaryTransit:
		return p.PlanetaryTransits
	}
	return false
}

// Allows reports whether a notification of category c may be sent
func (p *Preferences) Allows(c Category) bool {
	return p.Enabled && p.CategoryEnabled(c)
}

// CategoryColumn returns the preference column gating c, or "" for categories without one
func CategoryColumn(c Category) string {
	switch c {
	case CategoryMessages:
		return "messages"
	case CategoryFollowing:
		return "following"
	case CategoryReadings:
		return "readings"
	case CategoryPromotions:
		return "promotions"
	case CategoryDailyHoroscope:
		return "daily_horoscope"
	case CategoryMoonPhase:
		return "moon_phases"
	case CategoryPlanetaryTransit:
		return "planetary_transits"
	}
	return ""
}
