package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/connectfour/backend/internal/domain"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

type Config struct {
	Port           string
	StoreBackend   string
	ArchiveBackend string

	RedisURL      string
	RedisPassword string

	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int

	MongoURI      string
	MongoDatabase string

	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	FrontendURL    string

	MovePolicy    domain.Policy
	BotDifficulty string
	BotDelay      time.Duration
	MoveRetries   int

	CleanupInterval time.Duration
	FinishedGameTTL time.Duration
	InviteTTL       time.Duration

	LogLevel string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE_BACKEND", BackendMemory)
	v.SetDefault("ARCHIVE_BACKEND", BackendMemory)
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 25)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "connectfour")
	v.SetDefault("JWT_SECRET", "your-secret-key-change-this-in-production")
	v.SetDefault("TOKEN_TTL_HOURS", 24*7)
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("MOVE_POLICY", string(domain.GravityDrop))
	v.SetDefault("BOT_DIFFICULTY", "hard")
	v.SetDefault("BOT_DELAY_MS", 500)
	v.SetDefault("MOVE_RETRIES", 3)
	v.SetDefault("CLEANUP_INTERVAL_MINUTES", 10)
	v.SetDefault("FINISHED_GAME_TTL_MINUTES", 60)
	v.SetDefault("INVITE_TTL_MINUTES", 30)
	v.SetDefault("LOG_LEVEL", "info")
}

// LoadConfig reads an optional .env file and then the process environment.
// Environment variables win over .env values.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	policy, err := domain.ParsePolicy(v.GetString("MOVE_POLICY"))
	if err != nil {
		return nil, fmt.Errorf("MOVE_POLICY: %w", err)
	}

	cfg := &Config{
		Port:                 v.GetString("PORT"),
		StoreBackend:         strings.ToLower(v.GetString("STORE_BACKEND")),
		ArchiveBackend:       strings.ToLower(v.GetString("ARCHIVE_BACKEND")),
		RedisURL:             v.GetString("REDIS_URL"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		DBMaxOpenConns:       v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:       v.GetInt("DB_MAX_IDLE_CONNS"),
		DBConnMaxLifetimeMin: v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES"),
		MongoURI:             v.GetString("MONGO_URI"),
		MongoDatabase:        v.GetString("MONGO_DATABASE"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		TokenTTL:             time.Duration(v.GetInt("TOKEN_TTL_HOURS")) * time.Hour,
		FrontendURL:          v.GetString("FRONTEND_URL"),
		MovePolicy:           policy,
		BotDifficulty:        strings.ToLower(v.GetString("BOT_DIFFICULTY")),
		BotDelay:             time.Duration(v.GetInt("BOT_DELAY_MS")) * time.Millisecond,
		MoveRetries:          v.GetInt("MOVE_RETRIES"),
		CleanupInterval:      time.Duration(v.GetInt("CLEANUP_INTERVAL_MINUTES")) * time.Minute,
		FinishedGameTTL:      time.Duration(v.GetInt("FINISHED_GAME_TTL_MINUTES")) * time.Minute,
		InviteTTL:            time.Duration(v.GetInt("INVITE_TTL_MINUTES")) * time.Minute,
		LogLevel:             v.GetString("LOG_LEVEL"),
	}

	// Build allowed origins list (Frontend URL + Localhost + CSV values)
	origins := append([]string{cfg.FrontendURL, "http://localhost:5173"}, strings.Split(v.GetString("ALLOWED_ORIGINS"), ",")...)
	seen := make(map[string]bool)
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.StoreBackend)
	}

	switch c.ArchiveBackend {
	case BackendMemory, BackendMongo:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when ARCHIVE_BACKEND=%s", BackendPostgres)
		}
	default:
		return fmt.Errorf("ARCHIVE_BACKEND must be one of memory, postgres, mongo, got %q", c.ArchiveBackend)
	}

	if _, ok := domain.BotNames[c.BotDifficulty]; !ok {
		return fmt.Errorf("BOT_DIFFICULTY must be easy or hard, got %q", c.BotDifficulty)
	}
	if c.MoveRetries < 0 {
		return fmt.Errorf("MOVE_RETRIES must not be negative")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}
