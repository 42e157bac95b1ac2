package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Email    EmailConfig
	Code     CodeConfig
	Admin    AdminConfig
}

type AppConfig struct {
	Name      string
	Port      string
	Debug     bool
	LogPath   string
	SecretKey string
}

type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
	Migrate  bool
}

// DSN returns a URL form connection string usable by both pgx and golang-migrate.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type JWTConfig struct {
	Issuer      string
	ExpiryHours int
}

// TTL is zero when tokens never expire.
func (c JWTConfig) TTL() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

type CodeConfig struct {
	TTL time.Duration
}

// AdminConfig names the superuser seeded at startup. Both empty disables seeding.
type AdminConfig struct {
	Username string
	Email    string
}

func (c AdminConfig) Enabled() bool {
	return c.Username != "" || c.Email != ""
}

func LoadConfig() (*Config, error) {
	// .env is optional, real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_NAME", "review-catalog")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_MIGRATE", true)
	viper.SetDefault("JWT_ISSUER", "review-catalog")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("CONFIRMATION_CODE_TTL_MINUTES", 60)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("EMAIL_FROM", "noreply@review-catalog.local")
	viper.SetDefault("EMAIL_TIMEOUT_SECONDS", 5)
	viper.SetDefault("HTTP_READ_TIMEOUT_SECONDS", 10)
	viper.SetDefault("HTTP_WRITE_TIMEOUT_SECONDS", 15)
	viper.SetDefault("HTTP_SHUTDOWN_TIMEOUT_SECONDS", 10)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	config := &Config{
		App: AppConfig{
			Name:      viper.GetString("APP_NAME"),
			Port:      viper.GetString("PORT"),
			Debug:     viper.GetBool("DEBUG"),
			LogPath:   viper.GetString("LOG_PATH"),
			SecretKey: viper.GetString("SECRET_KEY"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     seconds("HTTP_READ_TIMEOUT_SECONDS"),
			WriteTimeout:    seconds("HTTP_WRITE_TIMEOUT_SECONDS"),
			ShutdownTimeout: seconds("HTTP_SHUTDOWN_TIMEOUT_SECONDS"),
			AllowedOrigins:  splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
			Migrate:  viper.GetBool("DB_MIGRATE"),
		},
		JWT: JWTConfig{
			Issuer:      viper.GetString("JWT_ISSUER"),
			ExpiryHours: viper.GetInt("JWT_EXPIRY_HOURS"),
		},
		Email: EmailConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASSWORD"),
			From:     viper.GetString("EMAIL_FROM"),
			Timeout:  seconds("EMAIL_TIMEOUT_SECONDS"),
		},
		Code: CodeConfig{
			TTL: time.Duration(viper.GetInt("CONFIRMATION_CODE_TTL_MINUTES")) * time.Minute,
		},
		Admin: AdminConfig{
			Username: strings.TrimSpace(viper.GetString("ADMIN_USERNAME")),
			Email:    strings.TrimSpace(viper.GetString("ADMIN_EMAIL")),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.App.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if len(c.App.SecretKey) < 32 {
		return errors.New("SECRET_KEY must be at least 32 characters")
	}
	if c.JWT.ExpiryHours < 0 {
		return errors.New("JWT_EXPIRY_HOURS must not be negative")
	}
	if c.Code.TTL <= 0 {
		return errors.New("CONFIRMATION_CODE_TTL_MINUTES must be positive")
	}
	if c.Admin.Enabled() && (c.Admin.Username == "" || c.Admin.Email == "") {
		return errors.New("ADMIN_USERNAME and ADMIN_EMAIL must be set together")
	}
	return nil
}

func seconds(key string) time.Duration {
	return time.Duration(viper.GetInt(key)) * time.Second
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
