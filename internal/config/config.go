package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "fallback-secret-key-for-dev-only"

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// AMQPConfig holds the event broker settings. An empty URL disables publishing.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// BudgetConfig holds the budget pace and alert thresholds, in percent.
type BudgetConfig struct {
	PaceBand    float64 `mapstructure:"pace_band"`
	WarningPct  float64 `mapstructure:"warning_pct"`
	DangerPct   float64 `mapstructure:"danger_pct"`
	ExceededPct float64 `mapstructure:"exceeded_pct"`
}

// Config holds application configuration
type Config struct {
	Env        string `mapstructure:"env"`
	Port       string `mapstructure:"port"`
	LogLevel   string `mapstructure:"log_level"`
	CORSOrigin string `mapstructure:"cors_origin"`

	Database DatabaseConfig `mapstructure:"db"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
	Budget   BudgetConfig   `mapstructure:"budget"`
}

var (
	appConfig *Config
	mu        sync.Mutex
)

// Load reads configuration from a .env file (if present) and the
// environment. Nested keys map to upper-cased env names joined by
// underscores, e.g. db.host -> DB_HOST, jwt.expires_in -> JWT_EXPIRES_IN.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	mu.Lock()
	appConfig = &c
	mu.Unlock()
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "")
	v.SetDefault("cors_origin", "*")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "fintrack")
	v.SetDefault("db.password", "fintrack")
	v.SetDefault("db.name", "fintrack")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("jwt.secret", devJWTSecret)
	v.SetDefault("jwt.expires_in", "168h")
	v.SetDefault("jwt.issuer", "fintrack-api")

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "fintrack.events")

	v.SetDefault("budget.pace_band", 5)
	v.SetDefault("budget.warning_pct", 80)
	v.SetDefault("budget.danger_pct", 90)
	v.SetDefault("budget.exceeded_pct", 100)
}

func (c *Config) validate() error {
	if c.JWT.ExpiresIn <= 0 {
		return errors.New("jwt.expires_in must be positive")
	}
	if c.Env == "production" && c.JWT.Secret == devJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	b := c.Budget
	if !(b.WarningPct <= b.DangerPct && b.DangerPct <= b.ExceededPct) {
		return fmt.Errorf("budget thresholds must be ordered: warning %.0f, danger %.0f, exceeded %.0f",
			b.WarningPct, b.DangerPct, b.ExceededPct)
	}
	return nil
}

// Get returns the loaded configuration, loading it on first use.
func Get() *Config {
	mu.Lock()
	c := appConfig
	mu.Unlock()
	if c != nil {
		return c
	}

	c, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return c
}
