package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string
	Env            string
	AllowedOrigin  string
	DatabaseURL    string
	MigrateOnStart bool
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	AuthSecret     string
	AuthIssuer     string
	OverridePIN    string
	IdempotencyTTL time.Duration
	DemoCompanyID  string
	Log            LogConfig
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// Load reads an optional config.toml and lets environment variables override
// it. Nested keys map to env names by replacing dots, so log.level is LOG_LEVEL.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/importledger")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	applyDefaults(v)

	cfg := Config{
		Port:           v.GetString("port"),
		Env:            strings.ToLower(strings.TrimSpace(v.GetString("app.env"))),
		AllowedOrigin:  v.GetString("allowed.origin"),
		DatabaseURL:    strings.TrimSpace(v.GetString("database.url")),
		MigrateOnStart: v.GetBool("database.migrate"),
		RedisAddr:      strings.TrimSpace(v.GetString("redis.addr")),
		RedisPassword:  v.GetString("redis.password"),
		RedisDB:        v.GetInt("redis.db"),
		AuthSecret:     strings.TrimSpace(v.GetString("auth.secret")),
		AuthIssuer:     strings.TrimSpace(v.GetString("auth.issuer")),
		OverridePIN:    strings.TrimSpace(v.GetString("override.pin")),
		IdempotencyTTL: v.GetDuration("idempotency.ttl"),
		DemoCompanyID:  strings.TrimSpace(v.GetString("demo.company_id")),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("allowed.origin", "http://127.0.0.1:3000")
	v.SetDefault("database.migrate", false)
	v.SetDefault("redis.db", 0)
	v.SetDefault("idempotency.ttl", "24h")
	v.SetDefault("demo.company_id", "demo-company")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
	v.SetDefault("log.output", "stdout")
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("config: port must not be empty")
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("config: idempotency ttl must be positive, got %s", c.IdempotencyTTL)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("config: redis db must not be negative, got %d", c.RedisDB)
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// LogFormat falls back to JSON in production and console elsewhere.
func (c Config) LogFormat() string {
	if c.Log.Format != "" {
		return c.Log.Format
	}
	if c.IsProduction() {
		return "json"
	}
	return "console"
}
