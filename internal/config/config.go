package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"autoshop/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App          AppConfig        `yaml:"app"`
	API          APIConfig        `yaml:"api"`
	Identity     IdentityConfig   `yaml:"identity"`
	Database     DatabaseConfig   `yaml:"database"`
	Backup       BackupConfig     `yaml:"backup"`
	Redis        RedisConfig      `yaml:"redis"`
	Session      SessionConfig    `yaml:"session"`
	Monitoring   MonitoringConfig `yaml:"monitoring"`
	Logging      LoggingConfig    `yaml:"logging"`
	Telegram     TelegramConfig   `yaml:"telegram"`
	Google       GoogleConfig     `yaml:"google"`
	FixturesPath string           `yaml:"fixtures_path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	// CookieSecure marks the client cookie Secure; enable behind TLS.
	CookieSecure bool `yaml:"cookie_secure"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool `yaml:"enabled"`
	Port       int  `yaml:"port"`
	Reflection bool `yaml:"reflection"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// IdentityConfig points at the hosted identity service. When URL or AnonKey
// is missing or still a template value the portal runs in local mode.
type IdentityConfig struct {
	URL           string        `yaml:"url"`
	AnonKey       string        `yaml:"anon_key"`
	OAuthProvider string        `yaml:"oauth_provider"`
	RedirectURL   string        `yaml:"redirect_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type BackupConfig struct {
	Enabled       bool          `yaml:"enabled"`
	StoragePath   string        `yaml:"storage_path"`
	Interval      time.Duration `yaml:"interval"`
	RetentionDays int           `yaml:"retention_days"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type SessionConfig struct {
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type TelegramConfig struct {
	BotToken     string  `yaml:"bot_token"`
	ManagerChats []int64 `yaml:"manager_chats"`
	Debug        bool    `yaml:"debug"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional in containers where the environment is injected directly
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.API.HTTP.Port <= 0 || c.API.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.API.HTTP.Port)
	}

	if c.Identity.IsConfigured() {
		u, err := url.Parse(c.Identity.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("identity url %q is not an absolute url", c.Identity.URL)
		}
	}

	if c.Telegram.BotToken != "" && !isPlaceholder(c.Telegram.BotToken) && len(c.Telegram.ManagerChats) == 0 {
		return errors.New("telegram bot token set but no manager_chats configured")
	}

	return nil
}

// IsConfigured reports whether the remote identity service can be used.
// The decision is taken once at startup; see auth.NewBackend.
func (c IdentityConfig) IsConfigured() bool {
	if strings.TrimSpace(c.URL) == "" || strings.TrimSpace(c.AnonKey) == "" {
		return false
	}
	return !isPlaceholder(c.URL) && !isPlaceholder(c.AnonKey)
}

func isPlaceholder(v string) bool {
	lower := strings.ToLower(v)
	return strings.Contains(lower, "placeholder") || strings.Contains(lower, "your_")
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "autoshop"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Identity.OAuthProvider == "" {
		c.Identity.OAuthProvider = "google"
	}
	if c.Identity.Timeout == 0 {
		c.Identity.Timeout = 15 * time.Second
	}
	if c.Backup.Enabled {
		if c.Backup.StoragePath == "" {
			c.Backup.StoragePath = "data/backups"
		}
		if c.Backup.Interval == 0 {
			c.Backup.Interval = 24 * time.Hour
		}
	}
	if c.Session.KeyPrefix == "" {
		c.Session.KeyPrefix = "autoshop"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = models.DefaultRecordTTL * time.Second
	}
}
