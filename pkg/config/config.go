package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string          `mapstructure:"port"`
	DatabaseURL string          `mapstructure:"database_url"`
	DB          DatabaseConfig  `mapstructure:"db"`
	Redis       RedisConfig     `mapstructure:"redis"`
	JWTSecret   string          `mapstructure:"jwt_secret"`
	Log         LogConfig       `mapstructure:"log"`
	Expo        ExpoConfig      `mapstructure:"expo"`
	APNs        APNsConfig      `mapstructure:"apns"`
	Scheduler   SchedulerConfig `mapstructure:"scheduler"`
	Schedule    ScheduleConfig  `mapstructure:"schedule"`
	FanOut      FanOutConfig    `mapstructure:"fanout"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// RedisConfig is optional; an empty Addr disables every Redis-backed feature
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ExpoConfig struct {
	AccessToken string `mapstructure:"access_token"`
	BaseURL     string `mapstructure:"base_url"`
}

type APNsConfig struct {
	KeyPath    string `mapstructure:"key_path"`
	KeyID      string `mapstructure:"key_id"`
	TeamID     string `mapstructure:"team_id"`
	BundleID   string `mapstructure:"bundle_id"`
	Production bool   `mapstructure:"production"`
}

type SchedulerConfig struct {
	Timezone string `mapstructure:"timezone"`
	Enabled  bool   `mapstructure:"enabled"`
}

// ScheduleConfig holds the daily trigger times as HH:MM
type ScheduleConfig struct {
	Horoscope        string `mapstructure:"horoscope"`
	MoonPhase        string `mapstructure:"moon_phase"`
	PlanetaryTransit string `mapstructure:"planetary_transit"`
}

type FanOutConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Load reads .env, an optional config file at path, then the environment.
// Environment variables win over the file, the file over defaults.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "astro")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt_secret", "your-secret-key-change-in-production")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("expo.access_token", "")
	v.SetDefault("expo.base_url", "")

	v.SetDefault("apns.key_path", "")
	v.SetDefault("apns.key_id", "")
	v.SetDefault("apns.team_id", "")
	v.SetDefault("apns.bundle_id", "")
	v.SetDefault("apns.production", false)

	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("schedule.horoscope", "08:00")
	v.SetDefault("schedule.moon_phase", "09:00")
	v.SetDefault("schedule.planetary_transit", "10:00")

	v.SetDefault("fanout.concurrency", 8)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configuration the service cannot start with.
// Missing APNs material is allowed; the native adapter runs disabled.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid config: PORT must be between 1 and 65535, got %q", c.Port)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("invalid config: JWT_SECRET must not be empty")
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("invalid config: SCHEDULER_TIMEZONE %q: %w", c.Scheduler.Timezone, err)
	}
	for name, clock := range map[string]string{
		"SCHEDULE_HOROSCOPE":         c.Schedule.Horoscope,
		"SCHEDULE_MOON_PHASE":        c.Schedule.MoonPhase,
		"SCHEDULE_PLANETARY_TRANSIT": c.Schedule.PlanetaryTransit,
	} {
		if _, _, err := ParseClock(clock); err != nil {
			return fmt.Errorf("invalid config: %s: %w", name, err)
		}
	}
	if c.FanOut.Concurrency <= 0 {
		return fmt.Errorf("invalid config: FANOUT_CONCURRENCY must be positive")
	}
	return nil
}

// DSN returns DATABASE_URL when set, otherwise a DSN assembled from the DB_* keys
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode,
	)
}

// Location returns the scheduler time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseClock parses a 24-hour HH:MM clock time
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("clock time %q is not HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("clock time %q has an invalid hour", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock time %q has an invalid minute", s)
	}
	return hour, minute, nil
}
