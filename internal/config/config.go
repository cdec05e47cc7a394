package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix          = "MEDIMATCH"
	minSecretKeyLength = 32
)

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

type Config struct {
	SecretKey string          `mapstructure:"secret_key"`
	Timezone  string          `mapstructure:"timezone"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	I18n      I18nConfig      `mapstructure:"i18n"`
	Mail      MailConfig      `mapstructure:"mail"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Report    ReportConfig    `mapstructure:"report"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

type ServerConfig struct {
	Port         int  `mapstructure:"port"`
	CookieSecure bool `mapstructure:"cookie_secure"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type KnowledgeConfig struct {
	// Path is empty for the embedded knowledge base.
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

type I18nConfig struct {
	DefaultLanguage string `mapstructure:"default_language"`
	LocalesDir      string `mapstructure:"locales_dir"`
}

type MailConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	From            string        `mapstructure:"from"`
	RatePerMinute   int           `mapstructure:"rate_per_minute"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

func (mail MailConfig) Enabled() bool {
	return strings.TrimSpace(mail.Host) != ""
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AdminConfig struct {
	// TokenHash is a bcrypt hash; empty disables admin endpoints.
	TokenHash string `mapstructure:"token_hash"`
}

type ReportConfig struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// Load reads an optional .env file, an optional config.yaml and MEDIMATCH_*
// environment variables, in increasing order of precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/medimatch/")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.SecretKey = strings.TrimSpace(cfg.SecretKey)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("secret_key", "")
	v.SetDefault("timezone", "UTC")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cookie_secure", false)

	v.SetDefault("database.path", "data/medimatch.db")

	v.SetDefault("knowledge.path", "")
	v.SetDefault("knowledge.watch", false)

	v.SetDefault("i18n.default_language", "en")
	v.SetDefault("i18n.locales_dir", "")

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.rate_per_minute", 30)
	v.SetDefault("mail.breaker_failures", 3)
	v.SetDefault("mail.timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("admin.token_hash", "")

	v.SetDefault("report.token_ttl", "24h")

	v.SetDefault("cache.size", 256)
}

// Validate checks settings that cannot be defaulted safely.
func (cfg Config) Validate() error {
	if err := validateSecretKey(cfg.SecretKey); err != nil {
		return err
	}
	if err := validatePort(cfg.Server.Port); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Database.Path) == "" {
		return errors.New("database.path is required")
	}
	if cfg.Knowledge.Watch && strings.TrimSpace(cfg.Knowledge.Path) == "" {
		return errors.New("knowledge.watch requires knowledge.path")
	}
	if cfg.Report.TokenTTL <= 0 {
		return fmt.Errorf("report.token_ttl must be positive, got %s", cfg.Report.TokenTTL)
	}
	if cfg.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative, got %d", cfg.Cache.Size)
	}
	if cfg.Mail.Enabled() {
		if err := validatePort(cfg.Mail.Port); err != nil {
			return fmt.Errorf("mail: %w", err)
		}
		if strings.TrimSpace(cfg.Mail.From) == "" {
			return errors.New("mail.from is required when mail.host is set")
		}
		if cfg.Mail.RatePerMinute <= 0 {
			return fmt.Errorf("mail.rate_per_minute must be positive, got %d", cfg.Mail.RatePerMinute)
		}
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC.
func (cfg Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(cfg.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return location, nil
}

func validateSecretKey(secret string) error {
	if secret == "" {
		return errors.New("secret_key is required")
	}
	if _, insecure := insecureSecretKeys[strings.ToLower(secret)]; insecure {
		return errors.New("secret_key uses an insecure placeholder value")
	}
	if len(secret) < minSecretKeyLength {
		return fmt.Errorf("secret_key must be at least %d characters", minSecretKeyLength)
	}
	return nil
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %s", strconv.Itoa(port))
	}
	return nil
}
