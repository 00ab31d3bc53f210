package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	DSN string `yaml:"url"`
}

type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTTLMinutes  int    `yaml:"access_ttl_minutes"`
	RefreshTTLHours   int    `yaml:"refresh_ttl_hours"`
}

func (c JWTConfig) AccessTTL() time.Duration  { return time.Duration(c.AccessTTLMinutes) * time.Minute }
func (c JWTConfig) RefreshTTL() time.Duration { return time.Duration(c.RefreshTTLHours) * time.Hour }

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
}

type PasswordResetConfig struct {
	ValidityHours int  `yaml:"validity_hours"`
	ExposeToken   bool `yaml:"expose_token"` // development only: echo the raw token in the API response
}

func (c PasswordResetConfig) Validity() time.Duration {
	return time.Duration(c.ValidityHours) * time.Hour
}

type LoggerConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type MigrationsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	JWT           JWTConfig           `yaml:"jwt"`
	Email         EmailConfig         `yaml:"email"`
	PasswordReset PasswordResetConfig `yaml:"password_reset"`
	Logger        LoggerConfig        `yaml:"logger"`
	Migrations    MigrationsConfig    `yaml:"migrations"`
}

// LoadConfig reads config/config.yaml (or CONFIG_PATH), after loading a .env
// file if one is present. Secrets can be overridden via environment variables
// so they stay out of the YAML file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.SMTPPassword = v
	}

	cfg.applyDefaults()

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database url is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.JWT.AccessTTLMinutes == 0 {
		c.JWT.AccessTTLMinutes = 15
	}
	if c.JWT.RefreshTTLHours == 0 {
		c.JWT.RefreshTTLHours = 24
	}
	if c.PasswordReset.ValidityHours == 0 {
		c.PasswordReset.ValidityHours = 24
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Migrations.Path == "" {
		c.Migrations.Path = "migrations"
	}
}
