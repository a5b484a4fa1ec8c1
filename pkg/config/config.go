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

// Storage drivers for rendered cards.
const (
	StorageDriverFS = "fs"
	StorageDriverS3 = "s3"
)

// Dispatch log drivers.
const (
	DispatchLogMemory   = "memory"
	DispatchLogPostgres = "postgres"
	DispatchLogSQLite   = "sqlite"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Timezone  string

	Database    DatabaseConfig
	Redis       RedisConfig
	Cache       CacheConfig
	JWT         JWTConfig
	Auth        AuthConfig
	CORS        CORSConfig
	Log         LogConfig
	Roster      RosterConfig
	Notify      NotifyConfig
	Card        CardConfig
	CardStorage CardStorageConfig
	DispatchLog DispatchLogConfig
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

// CacheConfig toggles caching of birthday projections.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthConfig guards mutating endpoints behind a single operator account.
type AuthConfig struct {
	Enabled              bool
	OperatorUsername     string
	OperatorPasswordHash string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RosterConfig locates the personnel spreadsheet export.
type RosterConfig struct {
	SpreadsheetID string
	SheetName     string
	CSVURL        string
	CSVFile       string
	ColumnsFile   string
	FetchTimeout  time.Duration
}

// NotifyConfig configures the e-mail webhook and the dispatch loop.
type NotifyConfig struct {
	WebhookURL  string
	EmailDomain string
	ItemDelay   time.Duration
	Timeout     time.Duration
}

// CardConfig holds the signature and wording used on rendered cards.
type CardConfig struct {
	CommanderName string
	CommanderRank string
	City          string
	UnitName      string
	Corporation   string
	JPEGQuality   int
	Scale         int
}

// CardStorageConfig controls where exported cards are kept.
type CardStorageConfig struct {
	Driver          string
	Dir             string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PathStyle     bool
	S3AccessKeyID   string
	S3SecretKey     string
}

// DispatchLogConfig selects where notification runs are recorded.
type DispatchLogConfig struct {
	Driver     string
	SQLitePath string
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Timezone = v.GetString("APP_TIMEZONE")

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

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Auth = AuthConfig{
		Enabled:              v.GetBool("ENABLE_AUTH"),
		OperatorUsername:     v.GetString("OPERATOR_USERNAME"),
		OperatorPasswordHash: v.GetString("OPERATOR_PASSWORD_HASH"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Roster = RosterConfig{
		SpreadsheetID: v.GetString("ROSTER_SPREADSHEET_ID"),
		SheetName:     v.GetString("ROSTER_SHEET_NAME"),
		CSVURL:        v.GetString("ROSTER_CSV_URL"),
		CSVFile:       v.GetString("ROSTER_CSV_FILE"),
		ColumnsFile:   v.GetString("ROSTER_COLUMNS_FILE"),
		FetchTimeout:  parseDuration(v.GetString("ROSTER_FETCH_TIMEOUT"), 30*time.Second),
	}

	cfg.Notify = NotifyConfig{
		WebhookURL:  v.GetString("NOTIFY_WEBHOOK_URL"),
		EmailDomain: v.GetString("NOTIFY_EMAIL_DOMAIN"),
		ItemDelay:   parseDuration(v.GetString("NOTIFY_ITEM_DELAY"), 400*time.Millisecond),
		Timeout:     parseDuration(v.GetString("NOTIFY_TIMEOUT"), 30*time.Second),
	}

	cfg.Card = CardConfig{
		CommanderName: v.GetString("CARD_COMMANDER_NAME"),
		CommanderRank: v.GetString("CARD_COMMANDER_RANK"),
		City:          v.GetString("CARD_CITY"),
		UnitName:      v.GetString("CARD_UNIT_NAME"),
		Corporation:   v.GetString("CARD_CORPORATION"),
		JPEGQuality:   v.GetInt("CARD_JPEG_QUALITY"),
		Scale:         v.GetInt("CARD_SCALE"),
	}

	cfg.CardStorage = CardStorageConfig{
		Driver:          strings.ToLower(v.GetString("CARDS_STORAGE_DRIVER")),
		Dir:             v.GetString("CARDS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("CARDS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("CARDS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("CARDS_CLEANUP_INTERVAL"), time.Hour),
		S3Bucket:        v.GetString("CARDS_S3_BUCKET"),
		S3Region:        v.GetString("CARDS_S3_REGION"),
		S3Endpoint:      v.GetString("CARDS_S3_ENDPOINT"),
		S3PathStyle:     v.GetBool("CARDS_S3_PATH_STYLE"),
		S3AccessKeyID:   v.GetString("CARDS_S3_ACCESS_KEY_ID"),
		S3SecretKey:     v.GetString("CARDS_S3_SECRET_ACCESS_KEY"),
	}

	cfg.DispatchLog = DispatchLogConfig{
		Driver:     strings.ToLower(v.GetString("DISPATCH_LOG_DRIVER")),
		SQLitePath: v.GetString("DISPATCH_LOG_SQLITE_PATH"),
	}

	return cfg
}

// Location resolves the configured timezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("APP_TIMEZONE", "America/Sao_Paulo")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "aniversariantes")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "bm-aniversariantes-api")
	v.SetDefault("ENABLE_AUTH", false)
	v.SetDefault("OPERATOR_USERNAME", "operador")
	v.SetDefault("OPERATOR_PASSWORD_HASH", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ROSTER_SPREADSHEET_ID", "1Xni2knjWjqzRmjUKSNUqQ-Wzi7PYDBvbGn6XRpD-ptI")
	v.SetDefault("ROSTER_SHEET_NAME", "ANIVERSARIANTES")
	v.SetDefault("ROSTER_CSV_URL", "")
	v.SetDefault("ROSTER_CSV_FILE", "")
	v.SetDefault("ROSTER_COLUMNS_FILE", "")
	v.SetDefault("ROSTER_FETCH_TIMEOUT", "30s")

	v.SetDefault("NOTIFY_WEBHOOK_URL", "")
	v.SetDefault("NOTIFY_EMAIL_DOMAIN", "bombeiros.mg.gov.br")
	v.SetDefault("NOTIFY_ITEM_DELAY", "400ms")
	v.SetDefault("NOTIFY_TIMEOUT", "30s")

	v.SetDefault("CARD_COMMANDER_NAME", "Danilo Bruner Lopes Barbosa")
	v.SetDefault("CARD_COMMANDER_RANK", "Cap BM")
	v.SetDefault("CARD_CITY", "Governador Valadares")
	v.SetDefault("CARD_UNIT_NAME", "1ª Cia. Operacional")
	v.SetDefault("CARD_CORPORATION", "Corpo de Bombeiros Militar de Minas Gerais")
	v.SetDefault("CARD_JPEG_QUALITY", 80)
	v.SetDefault("CARD_SCALE", 2)

	v.SetDefault("CARDS_STORAGE_DRIVER", StorageDriverFS)
	v.SetDefault("CARDS_STORAGE_DIR", "./cards")
	v.SetDefault("CARDS_SIGNED_URL_SECRET", "dev_cards_secret")
	v.SetDefault("CARDS_SIGNED_URL_TTL", "24h")
	v.SetDefault("CARDS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("CARDS_S3_BUCKET", "")
	v.SetDefault("CARDS_S3_REGION", "us-east-1")
	v.SetDefault("CARDS_S3_ENDPOINT", "")
	v.SetDefault("CARDS_S3_PATH_STYLE", false)
	v.SetDefault("CARDS_S3_ACCESS_KEY_ID", "")
	v.SetDefault("CARDS_S3_SECRET_ACCESS_KEY", "")

	v.SetDefault("DISPATCH_LOG_DRIVER", DispatchLogMemory)
	v.SetDefault("DISPATCH_LOG_SQLITE_PATH", "./data/dispatch.db")
}

func isMissingFile(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "no such file")
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
