package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string `validate:"required"`
	ServerPort  int    `validate:"min=1,max=65535"`
	LogLevel    string `validate:"oneof=debug info warn error"`

	DatabaseURL string `validate:"required"`
	AutoMigrate bool

	JWTSecret []byte        `validate:"required,min=16"`
	AccessTTL time.Duration `validate:"gt=0"`

	KafkaBrokers     []string
	CartEventsTopic  string `validate:"required_with=KafkaBrokers"`
	ProductSource    string `validate:"oneof=db es"`
	ESURL            string `validate:"required_if=ProductSource es"`
	ESUser           string
	ESPassword       string
	ESProductIndex   string `validate:"required_if=ProductSource es"`
	PruneScope       string `validate:"oneof=cart global"`
	SeedAdminUser    string
	SeedAdminPass    string `validate:"required_with=SeedAdminUser"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "shoppingcart"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    strings.ToLower(EnvDefault("LOG_LEVEL", "info")),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		AutoMigrate: EnvBoolDefault("AUTO_MIGRATE", true),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),
		AccessTTL: EnvDurationDefault("ACCESS_TTL", 15*time.Minute),

		KafkaBrokers:    CSV(os.Getenv("KAFKA_BROKERS")),
		CartEventsTopic: EnvDefault("CART_EVENTS_TOPIC", "cart_events"),
		ProductSource:   EnvDefault("PRODUCT_SOURCE", "db"),
		ESURL:           os.Getenv("ES_URL"),
		ESUser:          os.Getenv("ES_USER"),
		ESPassword:      os.Getenv("ES_PASSWORD"),
		ESProductIndex:  EnvDefault("ES_PRODUCT_INDEX", "products"),
		PruneScope:      EnvDefault("PRUNE_SCOPE", "cart"),
		SeedAdminUser:   os.Getenv("SEED_ADMIN_USERNAME"),
		SeedAdminPass:   os.Getenv("SEED_ADMIN_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
