package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	Port          string
	Environment   string
	IsProduction  bool
	Debug         bool
	DBDriver      string
	DatabaseURL   string
	SQLitePath    string
	RunMigrations bool
	EnableDBCheck bool
	StaticDir     string

	// CORS
	FrontendURLs []string

	// Vision API
	GeminiAPIKey       string
	GeminiModelDetect  string
	GeminiModelExtract string
	MaxImageSize       int64

	// Credit system
	InitialCredits       int64
	CreditsPerExtraction int64
	CreditsPerDetection  int64
	LedgerLockTimeout    time.Duration
	LedgerWriteTimeout   time.Duration

	// Rate limiting
	RateLimit string // ulule/limiter formatted rate, e.g. "60-M"
	RedisURL  string

	// Auth
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string
	AdminTokenHash    string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENVIRONMENT", EnvDevelopment)
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("SQLITE_PATH", "smartlensocr.db")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("STATIC_DIR", "")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL_DETECT", "gemini-2.0-flash")
	v.SetDefault("GEMINI_MODEL_EXTRACT", "gemini-2.0-flash")
	v.SetDefault("MAX_IMAGE_SIZE", 20*1024*1024)
	v.SetDefault("INITIAL_CREDITS", 5)
	v.SetDefault("CREDITS_PER_EXTRACTION", 1)
	v.SetDefault("CREDITS_PER_DETECTION", 0)
	v.SetDefault("LEDGER_LOCK_TIMEOUT", "5s")
	v.SetDefault("LEDGER_WRITE_TIMEOUT", "10s")
	v.SetDefault("RATE_LIMIT", "60-M")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRY_DURATION", "24h")
	v.SetDefault("JWT_ISSUER", "smartlens-backend")
	v.SetDefault("ADMIN_TOKEN_HASH", "")

	// Actual environment variables override .env values and defaults.
	v.AutomaticEnv()

	cfg := &Config{}

	cfg.Port = v.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8000"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.Environment = strings.ToLower(strings.TrimSpace(v.GetString("ENVIRONMENT")))
	switch cfg.Environment {
	case EnvDevelopment, EnvProduction, EnvTesting:
	default:
		log.Printf("Warning: Invalid value for ENVIRONMENT ('%s'). Defaulting to %s.\n", cfg.Environment, EnvDevelopment)
		cfg.Environment = EnvDevelopment
	}
	cfg.IsProduction = cfg.Environment == EnvProduction
	cfg.Debug = cfg.Environment == EnvDevelopment

	cfg.DBDriver = strings.ToLower(v.GetString("DB_DRIVER"))
	cfg.DatabaseURL = v.GetString("PGSQL_URL")
	cfg.SQLitePath = v.GetString("SQLITE_PATH")
	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL must be set when DB_DRIVER is %s", DriverPostgres)
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH must be set when DB_DRIVER is %s", DriverSQLite)
		}
	case DriverMemory:
		log.Println("Warning: DB_DRIVER=memory keeps credits in process memory only.")
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	cfg.RunMigrations = v.GetBool("RUN_MIGRATIONS")
	cfg.EnableDBCheck = v.GetBool("ENABLE_DB_CHECK")
	cfg.StaticDir = v.GetString("STATIC_DIR")

	cfg.FrontendURLs = splitList(v.GetString("FRONTEND_URL"))

	cfg.GeminiAPIKey = v.GetString("GEMINI_API_KEY")
	if cfg.GeminiAPIKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set. OCR endpoints will not function.")
	}
	cfg.GeminiModelDetect = v.GetString("GEMINI_MODEL_DETECT")
	cfg.GeminiModelExtract = v.GetString("GEMINI_MODEL_EXTRACT")
	cfg.MaxImageSize = v.GetInt64("MAX_IMAGE_SIZE")
	if cfg.MaxImageSize <= 0 {
		return nil, fmt.Errorf("MAX_IMAGE_SIZE must be positive, got %d", cfg.MaxImageSize)
	}

	cfg.InitialCredits = v.GetInt64("INITIAL_CREDITS")
	cfg.CreditsPerExtraction = v.GetInt64("CREDITS_PER_EXTRACTION")
	cfg.CreditsPerDetection = v.GetInt64("CREDITS_PER_DETECTION")
	if cfg.InitialCredits < 0 || cfg.CreditsPerExtraction < 0 || cfg.CreditsPerDetection < 0 {
		return nil, fmt.Errorf("credit settings must not be negative")
	}
	cfg.LedgerLockTimeout = parseDuration(v, "LEDGER_LOCK_TIMEOUT", 5*time.Second)
	cfg.LedgerWriteTimeout = parseDuration(v, "LEDGER_WRITE_TIMEOUT", 10*time.Second)

	cfg.RateLimit = v.GetString("RATE_LIMIT")
	cfg.RedisURL = v.GetString("REDIS_URL")

	cfg.JWTSecret = v.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "insecure-development-secret-change-me"
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTExpiryDuration = parseDuration(v, "JWT_EXPIRY_DURATION", 24*time.Hour)
	cfg.JWTIssuer = v.GetString("JWT_ISSUER")
	cfg.AdminTokenHash = v.GetString("ADMIN_TOKEN_HASH")
	if cfg.AdminTokenHash == "" {
		log.Println("Warning: ADMIN_TOKEN_HASH not set. Admin credit routes are disabled.")
	}

	return cfg, nil
}

// parseDuration reads a duration key, falling back to def with a warning when it is invalid.
func parseDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
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
