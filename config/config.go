package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// C holds the loaded configuration for the process.
var C *Config

type Config struct {
	Port           string
	Mongo          MongoConfig
	JWTSecret      string
	AllowedOrigins []string
	Pricing        PricingConfig
}

type MongoConfig struct {
	URI string
	DB  string
}

type PricingConfig struct {
	ServiceFeeRate float64 // fraction of the subtotal, e.g. 0.05
	ServiceFeeCap  float64 // absolute cap on the service fee, 0 = uncapped
}

// Load reads .env (if present) and environment variables into C.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file loaded, using environment")
	}

	cfg := &Config{
		Port: GetEnv("PORT", "3000"),
		Mongo: MongoConfig{
			URI: GetEnv("MONGODB_URI", "mongodb://localhost:27017"),
			DB:  GetEnv("MONGODB_DB", "mealmart"),
		},
		JWTSecret:      GetEnv("JWT_SECRET", ""),
		AllowedOrigins: splitOrigins(GetEnv("ALLOWED_ORIGINS", "*")),
		Pricing: PricingConfig{
			ServiceFeeRate: getEnvFloat("SERVICE_FEE_RATE", 0.05),
			ServiceFeeCap:  getEnvFloat("SERVICE_FEE_CAP", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	C = cfg
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	if c.Mongo.DB == "" {
		return fmt.Errorf("MONGODB_DB is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Pricing.ServiceFeeRate < 0 || c.Pricing.ServiceFeeRate >= 1 {
		return fmt.Errorf("SERVICE_FEE_RATE must be in [0, 1)")
	}
	return nil
}

// GetEnv retrieves an environment variable with a fallback.
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Invalid value for %s, using default: %v", key, err)
		return fallback
	}
	return f
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
