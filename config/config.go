package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Nutritionix NutritionixConfig `mapstructure:"nutritionix"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Auth        AuthConfig        `mapstructure:"auth"`
	AWS         AWSConfig         `mapstructure:"aws"`
	Matching    MatchingConfig    `mapstructure:"matching"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Timezone       string   `mapstructure:"timezone"` // calendar used for tracker dates
	MaxUploadMB    int64    `mapstructure:"max_upload_mb"`
}

// NutritionixConfig holds Nutritionix API configuration
type NutritionixConfig struct {
	AppID    string        `mapstructure:"app_id"`
	AppKey   string        `mapstructure:"app_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timezone string        `mapstructure:"timezone"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Configured reports whether API credentials are present
func (c NutritionixConfig) Configured() bool {
	return c.AppID != "" && c.AppKey != ""
}

// CacheConfig holds resolution cache configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // "memory" or "none"
	TTL  time.Duration `mapstructure:"ttl"`
}

// StorageConfig selects the tracker repository
type StorageConfig struct {
	Type          string `mapstructure:"type"` // "memory", "sqlite", "postgres" or "mongo"
	SQLitePath    string `mapstructure:"sqlite_path"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// AWSConfig holds settings for Rekognition classification and S3 image storage
type AWSConfig struct {
	Region          string  `mapstructure:"region"`
	AccessKeyID     string  `mapstructure:"access_key_id"`
	SecretAccessKey string  `mapstructure:"secret_access_key"`
	Bucket          string  `mapstructure:"bucket"`
	PublicURL       string  `mapstructure:"public_url"`
	Rekognition     bool    `mapstructure:"rekognition"`
	MaxLabels       int     `mapstructure:"max_labels"`
	MinConfidence   float64 `mapstructure:"min_confidence"`
}

// MatchingConfig holds label matching configuration
type MatchingConfig struct {
	MinConfidence       float64 `mapstructure:"min_confidence"`
	EnableFuzzyMatching bool    `mapstructure:"enable_fuzzy_matching"`
	EnableDebugLogging  bool    `mapstructure:"enable_debug_logging"`
}

// RateLimitConfig holds rate limiting configuration, in requests per minute
type RateLimitConfig struct {
	PerIP       int `mapstructure:"per_ip"`
	Nutritionix int `mapstructure:"nutritionix"`
}

// Load loads configuration from an optional .env file, environment variables and
// config files
func Load() (*Config, error) {
	cfg, _, err := load()
	return cfg, err
}

// Watch re-reads the config file whenever it changes and passes the new configuration
// to onChange. Invalid edits are logged and ignored. Without a config file Watch is a no-op.
func Watch(onChange func(*Config)) error {
	_, v, err := load()
	if err != nil {
		return err
	}
	if v.ConfigFileUsed() == "" {
		return nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		log.Printf("[Config] %s changed, reloading", e.Name)

		cfg, err := decode(v)
		if err != nil {
			log.Printf("[Config] Ignoring invalid configuration: %v", err)
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

func load() (*Config, *viper.Viper, error) {
	if err := loadEnvFile(); err != nil {
		return nil, nil, err
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/nutrisnap/")

	// Environment variable settings: NUTRISNAP_SERVER_PORT -> server.port
	v.SetEnvPrefix("NUTRISNAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// loadEnvFile loads ./.env when present. Variables already set in the environment
// are not overridden.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default so that
// AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.timezone", "Local")
	v.SetDefault("server.max_upload_mb", 10)

	// Nutritionix defaults
	v.SetDefault("nutritionix.app_id", "")
	v.SetDefault("nutritionix.app_key", "")
	v.SetDefault("nutritionix.base_url", "https://trackapi.nutritionix.com")
	v.SetDefault("nutritionix.timezone", "US/Eastern")
	v.SetDefault("nutritionix.timeout", "10s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "24h")

	// Storage defaults
	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.sqlite_path", "./data/nutrisnap.db")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.mongo_uri", "")
	v.SetDefault("storage.mongo_database", "user_db")

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")

	// AWS defaults
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.access_key_id", "")
	v.SetDefault("aws.secret_access_key", "")
	v.SetDefault("aws.bucket", "")
	v.SetDefault("aws.public_url", "")
	v.SetDefault("aws.rekognition", false)
	v.SetDefault("aws.max_labels", 10)
	v.SetDefault("aws.min_confidence", 60)

	// Matching defaults
	v.SetDefault("matching.min_confidence", 60)
	v.SetDefault("matching.enable_fuzzy_matching", true)
	v.SetDefault("matching.enable_debug_logging", false)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.nutritionix", 60)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Environment == "production" && config.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required in production (set NUTRISNAP_AUTH_JWT_SECRET)")
	}

	if _, err := config.Location(); err != nil {
		return fmt.Errorf("unknown server timezone %q: %w", config.Server.Timezone, err)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "none" {
		return fmt.Errorf("cache type must be 'memory' or 'none', got: %s", config.Cache.Type)
	}

	switch config.Storage.Type {
	case "memory":
	case "sqlite":
		if config.Storage.SQLitePath == "" {
			return fmt.Errorf("SQLite path is required when storage type is 'sqlite'")
		}
	case "postgres":
		if config.Storage.PostgresDSN == "" {
			return fmt.Errorf("Postgres DSN is required when storage type is 'postgres'")
		}
	case "mongo":
		if config.Storage.MongoURI == "" {
			return fmt.Errorf("Mongo URI is required when storage type is 'mongo'")
		}
	default:
		return fmt.Errorf("storage type must be 'memory', 'sqlite', 'postgres' or 'mongo', got: %s", config.Storage.Type)
	}

	if (config.AWS.Rekognition || config.AWS.Bucket != "") && config.AWS.Region == "" {
		return fmt.Errorf("AWS region is required when Rekognition or S3 is enabled")
	}

	if config.Nutritionix.Timeout <= 0 {
		return fmt.Errorf("nutritionix timeout must be positive, got: %s", config.Nutritionix.Timeout)
	}

	return nil
}

// Location returns the timezone tracker dates are computed in
func (c *Config) Location() (*time.Location, error) {
	if c.Server.Timezone == "" || c.Server.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Server.Timezone)
}
