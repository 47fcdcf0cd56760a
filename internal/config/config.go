package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

type Config struct {
	Port                      string
	AllowedOrigin             string
	StoreBackend              string
	DatabaseURL               string
	MongoURI                  string
	MongoDatabase             string
	RedisAddr                 string
	RedisPassword             string
	RedisDB                   int
	DashboardCacheTTLSeconds  int
	TaxRate                   float64
	Timezone                  string
	StockAlertIntervalMinutes int
	AuthSecret                string
	OwnerUsername             string
	OwnerPassword             string
	AccessTokenTTLMinutes     int
	LogLevel                  string
	SeedDemoData              bool
}

// LoadDotEnv reads an optional .env file. Variables already set in the
// environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheTTL := getPositiveInt("DASHBOARD_CACHE_TTL_SECONDS", 30)
	tokenTTL := getPositiveInt("ACCESS_TOKEN_TTL_MINUTES", 480)

	alertInterval, err := strconv.Atoi(getEnv("STOCK_ALERT_INTERVAL_MINUTES", "60"))
	if err != nil || alertInterval < 0 {
		alertInterval = 60
	}
	taxRate, err := strconv.ParseFloat(getEnv("TAX_RATE", "0.10"), 64)
	if err != nil || taxRate < 0 {
		taxRate = 0.10
	}
	seed, _ := strconv.ParseBool(getEnv("SEED_DEMO_DATA", "false"))

	cfg := Config{
		Port:                      getEnv("PORT", "8080"),
		AllowedOrigin:             getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		MongoURI:                  os.Getenv("MONGO_URI"),
		MongoDatabase:             getEnv("MONGO_DATABASE", "stockbook"),
		RedisAddr:                 os.Getenv("REDIS_ADDR"),
		RedisPassword:             os.Getenv("REDIS_PASSWORD"),
		RedisDB:                   redisDB,
		DashboardCacheTTLSeconds:  cacheTTL,
		TaxRate:                   taxRate,
		Timezone:                  getEnv("TIMEZONE", "Local"),
		StockAlertIntervalMinutes: alertInterval,
		AuthSecret:                strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		OwnerUsername:             getEnv("OWNER_USERNAME", "owner"),
		OwnerPassword:             os.Getenv("OWNER_PASSWORD"),
		AccessTokenTTLMinutes:     tokenTTL,
		LogLevel:                  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		SeedDemoData:              seed,
	}
	cfg.StoreBackend = resolveBackend(strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND"))), cfg)

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c Config) DashboardCacheTTL() time.Duration {
	return time.Duration(c.DashboardCacheTTLSeconds) * time.Second
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

// StockAlertInterval is zero when the periodic scan is disabled.
func (c Config) StockAlertInterval() time.Duration {
	return time.Duration(c.StockAlertIntervalMinutes) * time.Minute
}

func resolveBackend(explicit string, c Config) string {
	switch explicit {
	case BackendMemory, BackendPostgres, BackendMongo:
		return explicit
	}
	switch {
	case c.DatabaseURL != "":
		return BackendPostgres
	case c.MongoURI != "":
		return BackendMongo
	default:
		return BackendMemory
	}
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getPositiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
