package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every runtime setting of the API process.
type Config struct {
	Port        string
	Env         string
	CORSOrigins string

	DatabaseURL   string
	DBAutoMigrate bool

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPHost     string
	SMTPPort     int
	EmailUser    string
	EmailPass    string
	MailTimezone string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	DocumentFolder      string

	VideoAppID     string
	VideoAppSecret string
	VideoTokenTTL  time.Duration

	EnforceScheduleOverlap bool
	ReminderLead           time.Duration
	NoShowGrace            time.Duration
}

// Load reads the .env file (if any) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file. Using environment variables directly.")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		Env:         strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBAutoMigrate: getBool("DB_AUTO_MIGRATE", true),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 10*time.Minute),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		EmailUser:    os.Getenv("EMAIL_USER"),
		EmailPass:    os.Getenv("EMAIL_PASS"),
		MailTimezone: getEnv("MAIL_TIMEZONE", "UTC"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		DocumentFolder:      getEnv("DOCUMENT_FOLDER", "consultant-documents"),

		VideoAppID:     os.Getenv("VIDEO_APP_ID"),
		VideoAppSecret: os.Getenv("VIDEO_APP_SECRET"),
		VideoTokenTTL:  getSeconds("VIDEO_TOKEN_TTL", 2400*time.Second),

		EnforceScheduleOverlap: getBool("ENFORCE_SCHEDULE_OVERLAP", true),
		ReminderLead:           getDuration("REMINDER_LEAD", time.Hour),
		NoShowGrace:            getDuration("NO_SHOW_GRACE", 30*time.Minute),
	}

	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.JWTSecret = "dev_secret_key"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool { return c.Env == EnvDevelopment }

func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

func (c *Config) MailEnabled() bool { return c.SMTPHost != "" }

func (c *Config) StorageEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func (c *Config) validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must not be shorter than ACCESS_TOKEN_TTL"))
	}
	if c.VideoTokenTTL <= 0 {
		errs = append(errs, errors.New("VIDEO_TOKEN_TTL must be positive"))
	}
	if _, err := time.LoadLocation(c.MailTimezone); err != nil {
		errs = append(errs, fmt.Errorf("MAIL_TIMEZONE: %w", err))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// getSeconds accepts either a bare number of seconds or a Go duration string.
func getSeconds(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
