package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Billing  BillingConfig
	AI       AIConfig
	LogLevel string
}

type ServerConfig struct {
	Port              string
	Env               string
	BaseURL           string
	AllowedOrigins    []string
	JWTSecret         string
	JWTExpiration     time.Duration
	AllowRegistration bool
	// SeedAdmin* creates the first admin on boot when no such user exists
	SeedAdminEmail    string
	SeedAdminPassword string
}

type DatabaseConfig struct {
	Driver       string // mysql, postgres, sqlite
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type BillingConfig struct {
	CommitMode        string
	StockPolicy       string
	TimeZone          string
	Location          *time.Location
	LowStockThreshold int
}

type AIConfig struct {
	GeminiAPIKey string
	Model        string
}

const (
	CommitModeTransactional = "transactional"
	CommitModeOverwrite     = "overwrite"

	StockPolicyAllow  = "allow"
	StockPolicyClamp  = "clamp"
	StockPolicyReject = "reject"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("JWT_EXPIRATION_HOURS", 24)
	v.SetDefault("ALLOW_REGISTRATION", false)

	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("DB_MAX_IDLE_CONNS", 25)
	v.SetDefault("DB_LOG_LEVEL", "warn")

	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("COMMIT_MODE", CommitModeTransactional)
	v.SetDefault("STOCK_POLICY", StockPolicyReject)
	v.SetDefault("STORE_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("LOW_STOCK_THRESHOLD", 3)

	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash-001")
	v.SetDefault("LOG_LEVEL", "info")
}

// Load reads .env (if any) and the process environment. Environment wins.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	v.BindEnv("SERVER_PORT", "SERVER_PORT", "PORT")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:              v.GetString("SERVER_PORT"),
			Env:               v.GetString("SERVER_ENV"),
			BaseURL:           v.GetString("BASE_URL"),
			AllowedOrigins:    splitList(v.GetString("CORS_ORIGINS")),
			JWTSecret:         v.GetString("JWT_SECRET"),
			JWTExpiration:     time.Duration(v.GetInt("JWT_EXPIRATION_HOURS")) * time.Hour,
			AllowRegistration: v.GetBool("ALLOW_REGISTRATION"),
			SeedAdminEmail:    v.GetString("SEED_ADMIN_EMAIL"),
			SeedAdminPassword: v.GetString("SEED_ADMIN_PASSWORD"),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:          v.GetString("DB_DSN"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			LogLevel:     v.GetString("DB_LOG_LEVEL"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("REDIS_ADDRESS"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Billing: BillingConfig{
			CommitMode:        strings.ToLower(v.GetString("COMMIT_MODE")),
			StockPolicy:       strings.ToLower(v.GetString("STOCK_POLICY")),
			TimeZone:          v.GetString("STORE_TIMEZONE"),
			LowStockThreshold: v.GetInt("LOW_STOCK_THRESHOLD"),
		},
		AI: AIConfig{
			GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
			Model:        v.GetString("GEMINI_MODEL"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Billing.CommitMode {
	case CommitModeTransactional, CommitModeOverwrite:
	default:
		return fmt.Errorf("unsupported COMMIT_MODE %q", c.Billing.CommitMode)
	}

	switch c.Billing.StockPolicy {
	case StockPolicyAllow, StockPolicyClamp, StockPolicyReject:
	default:
		return fmt.Errorf("unsupported STOCK_POLICY %q", c.Billing.StockPolicy)
	}

	loc, err := time.LoadLocation(c.Billing.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid STORE_TIMEZONE %q: %w", c.Billing.TimeZone, err)
	}
	c.Billing.Location = loc

	if c.Server.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required when SERVER_ENV=%s", c.Server.Env)
		}
		c.Server.JWTSecret = "dev_only_secret_key_for_pos_billing"
	}
	if c.Server.JWTExpiration <= 0 {
		c.Server.JWTExpiration = 24 * time.Hour
	}
	if c.Billing.LowStockThreshold < 0 {
		c.Billing.LowStockThreshold = 0
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env != "development" && c.Server.Env != "test"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
