package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Google   GoogleConfig
	Storage  StorageConfig
	Rooms    RoomsConfig
	CORS     CORSConfig
	Log      LogConfig
	Drive    DriveConfig
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
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig governs issued session tokens.
type SessionConfig struct {
	Secret     string
	CookieName string
	Expiration time.Duration
}

// GoogleConfig carries the OAuth client credentials for the Drive provider.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	Timeout      time.Duration
}

// StorageConfig locates imported file content on disk.
type StorageConfig struct {
	Dir string
}

// RoomsConfig holds room-level authorization settings. PublicRoomID designates
// the single room readable by unauthenticated callers. AllowEmailParam enables
// the ?email= identity fallback and is refused outside development.
type RoomsConfig struct {
	PublicRoomID    string
	AllowEmailParam bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DriveConfig tunes remote listing behaviour.
type DriveConfig struct {
	ListCacheTTL time.Duration
}

// SeedConfig controls the optional demo room bootstrap.
type SeedConfig struct {
	Enabled  bool
	RoomName string
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Session = SessionConfig{
		Secret:     v.GetString("SESSION_SECRET"),
		CookieName: v.GetString("SESSION_COOKIE_NAME"),
		Expiration: parseDuration(v.GetString("SESSION_EXPIRATION"), 24*time.Hour),
	}

	cfg.Google = GoogleConfig{
		ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		RedirectURI:  v.GetString("GOOGLE_REDIRECT_URI"),
		Scopes:       splitAndTrim(v.GetString("GOOGLE_SCOPES")),
		Timeout:      parseDuration(v.GetString("GOOGLE_HTTP_TIMEOUT"), 30*time.Second),
	}

	cfg.Storage = StorageConfig{
		Dir: v.GetString("STORAGE_DIR"),
	}

	allowEmailParam := v.GetBool("ROOMS_ALLOW_EMAIL_PARAM")
	if cfg.Env == EnvProduction {
		allowEmailParam = false
	}
	cfg.Rooms = RoomsConfig{
		PublicRoomID:    v.GetString("ROOMS_PUBLIC_ROOM_ID"),
		AllowEmailParam: allowEmailParam,
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Drive = DriveConfig{
		ListCacheTTL: parseDuration(v.GetString("DRIVE_LIST_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Seed = SeedConfig{
		Enabled:  v.GetBool("DEMO_SEED"),
		RoomName: v.GetString("SEED_ROOM_NAME"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "dataroom")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_SECRET", "dev_secret")
	v.SetDefault("SESSION_COOKIE_NAME", "dr_session")
	v.SetDefault("SESSION_EXPIRATION", "24h")

	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URI", "")
	v.SetDefault("GOOGLE_SCOPES", "https://www.googleapis.com/auth/drive.readonly,openid,email,profile")
	v.SetDefault("GOOGLE_HTTP_TIMEOUT", "30s")

	v.SetDefault("STORAGE_DIR", "./storage")

	v.SetDefault("ROOMS_PUBLIC_ROOM_ID", "")
	v.SetDefault("ROOMS_ALLOW_EMAIL_PARAM", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DRIVE_LIST_CACHE_TTL", "2m")

	v.SetDefault("DEMO_SEED", false)
	v.SetDefault("SEED_ROOM_NAME", "Demo Room")
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
