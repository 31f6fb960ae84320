package config

import (
	"errors"  // Validation errors
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For durations

	"github.com/joho/godotenv"   // For loading .env files
	"github.com/sirupsen/logrus" // Logger setup
)

// MinBcryptCost is the lowest accepted bcrypt work factor
const MinBcryptCost = 12

// Config holds the application configuration
type Config struct {
	AppPort     string        // Application port
	DBDriver    string        // Database driver: mysql, postgres or sqlite
	DBUser      string        // Database user
	DBPassword  string        // Database password
	DBHost      string        // Database host
	DBPort      string        // Database port
	DBName      string        // Database name
	DatabaseDSN string        // Full DSN, overrides the individual DB_* parts
	JWTSecret   string        // JWT secret key
	JWTTTL      time.Duration // Session token lifetime
	BcryptCost  int           // bcrypt work factor
	RedisAddr   string        // Redis server address, empty disables caching
	RedisPass   string        // Redis password
	RedisDB     int           // Redis database number
	CacheTTL    time.Duration // TTL of cached catalog reads
	FrontendURL string        // Allowed CORS origin
	LogLevel    string        // logrus level name
	IsProd      bool          // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	cost, err := strconv.Atoi(os.Getenv("BCRYPT_COST"))
	if err != nil || cost < MinBcryptCost {
		cost = MinBcryptCost
	}
	return &Config{
		AppPort:     getenv("APP_PORT", "5000"),
		DBDriver:    getenv("DB_DRIVER", "mysql"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBHost:      getenv("DB_HOST", "localhost"),
		DBPort:      os.Getenv("DB_PORT"),
		DBName:      os.Getenv("DB_NAME"),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTTTL:      getDuration("JWT_TTL", 7*24*time.Hour),
		BcryptCost:  cost,
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RedisPass:   os.Getenv("REDIS_PASS"),
		RedisDB:     redisDB,
		CacheTTL:    getDuration("CACHE_TTL", 60*time.Second),
		FrontendURL: getenv("FRONTEND_URL", "http://localhost:3000"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		IsProd:      os.Getenv("IS_PROD") == "true", // Is production environment
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

// Validate reports settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProd && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes in production")
	}
	return nil
}

// ConfigureLogging sets the logrus formatter and level. Production logs are JSON.
func (c *Config) ConfigureLogging() {
	if c.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
