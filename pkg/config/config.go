package config

import (
	"errors"
	"io/fs"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Session store backends.
const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	AppName   string

	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Cache    CacheConfig
	Table    TableConfig
	Export   ExportConfig
	CORS     CORSConfig
	Log      LogConfig
	Seed     SeedConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig controls the server-side session and its cookie.
type SessionConfig struct {
	Store      string
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
	MemorySize int
}

// CacheConfig governs the list page cache.
type CacheConfig struct {
	Enabled  bool
	UsersTTL time.Duration
}

// TableConfig holds defaults shared by the users table on every surface.
type TableConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	SearchDebounce  time.Duration
}

// ExportConfig limits list exports.
type ExportConfig struct {
	MaxRows int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SeedConfig is only read by the seeder.
type SeedConfig struct {
	Password string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.AppName = v.GetString("APP_NAME")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	store := strings.ToLower(v.GetString("SESSION_STORE"))
	if store != SessionStoreRedis {
		store = SessionStoreMemory
	}
	cfg.Session = SessionConfig{
		Store:      store,
		Secret:     v.GetString("SESSION_SECRET"),
		TTL:        parseDuration(v.GetString("SESSION_TTL"), 7*24*time.Hour),
		CookieName: CookieName(cfg.AppName),
		Secure:     cfg.Env == EnvProduction,
		MemorySize: v.GetInt("SESSION_MEMORY_SIZE"),
	}

	cfg.Cache = CacheConfig{
		Enabled:  v.GetBool("CACHE_ENABLED"),
		UsersTTL: parseDuration(v.GetString("USERS_CACHE_TTL"), 3*time.Minute),
	}

	cfg.Table = TableConfig{
		DefaultPageSize: v.GetInt("TABLE_DEFAULT_PAGE_SIZE"),
		MaxPageSize:     v.GetInt("TABLE_MAX_PAGE_SIZE"),
		SearchDebounce:  parseDuration(v.GetString("TABLE_SEARCH_DEBOUNCE"), 500*time.Millisecond),
	}
	if cfg.Table.DefaultPageSize <= 0 {
		cfg.Table.DefaultPageSize = 10
	}
	if cfg.Table.MaxPageSize < cfg.Table.DefaultPageSize {
		cfg.Table.MaxPageSize = cfg.Table.DefaultPageSize
	}

	cfg.Export = ExportConfig{MaxRows: v.GetInt("EXPORT_MAX_ROWS")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Seed = SeedConfig{Password: v.GetString("SEED_PASSWORD")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("APP_NAME", "Incident Report")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "incident_report")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_STORE", SessionStoreMemory)
	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("SESSION_MEMORY_SIZE", 10000)

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("USERS_CACHE_TTL", "3m")

	v.SetDefault("TABLE_DEFAULT_PAGE_SIZE", 10)
	v.SetDefault("TABLE_MAX_PAGE_SIZE", 100)
	v.SetDefault("TABLE_SEARCH_DEBOUNCE", "500ms")
	v.SetDefault("EXPORT_MAX_ROWS", 1000)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SEED_PASSWORD", "password123")
}

var cookieUnsafe = regexp.MustCompile(`[^a-z0-9]`)

// CookieName derives the session cookie name from the application name.
func CookieName(appName string) string {
	name := cookieUnsafe.ReplaceAllString(strings.ToLower(appName), "_")
	if name == "" {
		name = "app"
	}
	return name + "_session"
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
