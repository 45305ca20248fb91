package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// scheduleExpr mirrors the format accepted by the settings API.
var scheduleExpr = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	MongoDB    MongoDBConfig
	Auth       AuthConfig
	NightCheck NightCheckConfig
	WhatsApp   WhatsAppConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string `envconfig:"APP_PORT" default:"8080" validate:"required,numeric"`
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json console"`
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string `envconfig:"MONGODB_URI" validate:"required"`
	DBName string `envconfig:"MONGODB_DB_NAME" default:"farmtrack" validate:"required"`
}

// AuthConfig holds the shared secret used to verify bearer tokens.
type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET" validate:"required,min=16"`
}

// NightCheckConfig holds scheduler-related settings.
type NightCheckConfig struct {
	DefaultSchedule string `envconfig:"NIGHT_CHECK_DEFAULT" default:"21:00"`
	// Timeout bounds a scheduled run. Zero lets slow storage delay the run instead.
	Timeout time.Duration `envconfig:"NIGHT_CHECK_TIMEOUT" default:"0s"`
	// Timezone overrides the process local zone when set. Empty keeps the host zone.
	Timezone string `envconfig:"TIMEZONE"`
}

// WhatsAppConfig contains credentials for relaying barn-check alerts through the
// Meta WhatsApp Cloud API. The relay is disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken    string `envconfig:"WHATSAPP_TOKEN"`
	PhoneNumberID  string `envconfig:"WHATSAPP_PHONE_NUMBER_ID"`
	BaseURL        string `envconfig:"WHATSAPP_BASE_URL" default:"https://graph.facebook.com"`
	APIVersion     string `envconfig:"WHATSAPP_API_VERSION" default:"v20.0"`
	AlertRecipient string `envconfig:"WHATSAPP_ALERT_RECIPIENT"`
}

// Enabled reports whether enough credentials are present to relay alerts.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccessToken != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate performs the cross-field checks struct tags cannot express.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if !scheduleExpr.MatchString(c.NightCheck.DefaultSchedule) {
		return fmt.Errorf("NIGHT_CHECK_DEFAULT must be HH:MM, got %q", c.NightCheck.DefaultSchedule)
	}

	if c.NightCheck.Timeout < 0 {
		return errors.New("NIGHT_CHECK_TIMEOUT must not be negative")
	}

	if tz := strings.TrimSpace(c.NightCheck.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("TIMEZONE %q: %w", tz, err)
		}
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided when WHATSAPP_TOKEN is set")
		case c.WhatsApp.AlertRecipient == "":
			return errors.New("WHATSAPP_ALERT_RECIPIENT must be provided when WHATSAPP_TOKEN is set")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	return nil
}

// ApplyTimezone replaces the process local zone when a timezone is configured.
// Both the cron engine and the calendar-date helpers read time.Local, so this
// must run before the scheduler is constructed.
func (c *Config) ApplyTimezone() error {
	tz := strings.TrimSpace(c.NightCheck.Timezone)
	if tz == "" {
		return nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", tz, err)
	}
	time.Local = loc
	return nil
}
