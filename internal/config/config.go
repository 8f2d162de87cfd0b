package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Graph     GraphConfig
	Webhook   WebhookConfig
	Redis     RedisConfig
	Retention RetentionConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	Host     string
	User     string
	Password string
	Name     string
}

// DSN assembles a pgx connection string from the individual parts.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s", d.User, d.Password, d.Host, d.Name)
}

type GraphConfig struct {
	BaseURL       string
	APIVersion    string
	Token         string
	PhoneNumberID string
}

type WebhookConfig struct {
	VerifyToken string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	DedupTTL time.Duration
}

type RetentionConfig struct {
	// MaxAge zero disables the retention sweep.
	MaxAge        time.Duration
	SweepInterval time.Duration
}

func LoadAll() (cfg *Config, err error) {
	// The env accessors panic on missing/invalid values; collect them here
	// so callers get a plain error.
	defer func() {
		if r := recover(); r != nil {
			cfg = nil
			err = fmt.Errorf("config: %v", r)
		}
	}()

	cfg = &Config{
		Server: ServerConfig{
			Address: ":" + getEnv("PORT", "3000"),
		},
		Database: DatabaseConfig{
			Host:     mustEnv("HOST_DATABASE"),
			User:     mustEnv("USER_DATABASE"),
			Password: mustEnv("PWD_DATABASE"),
			Name:     mustEnv("NAME_DATABASE"),
		},
		Graph: GraphConfig{
			BaseURL:       getEnv("GRAPH_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getEnv("GRAPH_API_VERSION", "v22.0"),
			Token:         mustEnv("WHATSAPP_TOKEN"),
			PhoneNumberID: mustEnv("PHONE_NUMBER_ID"),
		},
		Webhook: WebhookConfig{
			VerifyToken: mustEnv("VERIFY_TOKEN"),
		},
		Redis: loadRedisConfig(),
		Retention: RetentionConfig{
			MaxAge:        time.Duration(getEnvInt("RETENTION_DAYS", 0)) * 24 * time.Hour,
			SweepInterval: time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 3600)) * time.Second,
		},
	}

	validate(cfg)
	return cfg, nil
}

func loadRedisConfig() RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvInt("REDIS_DB", 0),
		DedupTTL: time.Duration(getEnvInt("DEDUP_TTL_SECONDS", 86400)) * time.Second,
	}
}

func validate(cfg *Config) {
	if cfg.Retention.MaxAge < 0 {
		panic("RETENTION_DAYS must be >= 0")
	}
	if cfg.Retention.SweepInterval <= 0 {
		panic("SWEEP_INTERVAL_SECONDS must be > 0")
	}
	if cfg.Redis.Enabled && cfg.Redis.DedupTTL <= 0 {
		panic("DEDUP_TTL_SECONDS must be > 0")
	}
}

func mustEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("missing required env var: %s", key))
	}
	return val
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("invalid int for env %s: %s", key, v))
	}
	return i
}
