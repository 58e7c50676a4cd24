package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration structure
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Storage  StorageConfig  `json:"storage"`
	Uploads  UploadsConfig  `json:"uploads"`
	Cache    CacheConfig    `json:"cache"`
	App      AppConfig      `json:"app"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	BaseRoute string `json:"baseRoute"`
	WebDomain string `json:"webDomain"`
	Debug     bool   `json:"debug"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Postgres PostgreSQLConfig `json:"postgres"`
}

// PostgreSQLConfig holds PostgreSQL-specific configuration
type PostgreSQLConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	Database        string        `json:"database"`
	SSLMode         string        `json:"sslMode"`
	MaxOpenConns    int           `json:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
}

// StorageConfig holds cold-storage destination configuration.
// Provider selects the destination backend for assembled files and
// manifests: "drive" (resumable HTTP API) or "r2" (S3-compatible).
type StorageConfig struct {
	Provider string      `json:"provider"`
	Drive    DriveConfig `json:"drive"`
	R2       R2Config    `json:"r2"`
}

// DriveConfig holds settings for the resumable cold-storage API.
type DriveConfig struct {
	BaseURL           string `json:"baseUrl"`
	UploadBaseURL     string `json:"uploadBaseUrl"`
	TokenURL          string `json:"tokenUrl"`
	AccessToken       string `json:"accessToken"`
	RefreshToken      string `json:"refreshToken"`
	ClientID          string `json:"clientId"`
	ClientSecret      string `json:"clientSecret"`
	ServiceAccount    string `json:"serviceAccount"`
	ServiceAccountKey string `json:"serviceAccountKey"`
}

// R2Config holds S3-compatible storage configuration
type R2Config struct {
	AccountID       string `json:"accountId"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	BucketName      string `json:"bucketName"`
	Endpoint        string `json:"endpoint"`
	Region          string `json:"region"`
	PublicURL       string `json:"publicUrl"`
}

// UploadsConfig holds chunk-buffer and transfer tuning
type UploadsConfig struct {
	SessionRetention time.Duration `json:"sessionRetention"`
	MaxChunkBytes    int64         `json:"maxChunkBytes"`
	PutTimeout       time.Duration `json:"putTimeout"`
	MaxPutAttempts   int           `json:"maxPutAttempts"`
	BackoffBase      time.Duration `json:"backoffBase"`
	BackoffCap       time.Duration `json:"backoffCap"`
	DedupeCacheTTL   time.Duration `json:"dedupeCacheTtl"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Enabled bool          `json:"enabled"`
	Backend string        `json:"backend"`
	Prefix  string        `json:"prefix"`
	TTL     time.Duration `json:"ttl"`
	Redis   RedisConfig   `json:"redis"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Address      string        `json:"address"`
	Password     string        `json:"password"`
	Database     int           `json:"database"`
	PoolSize     int           `json:"poolSize"`
	MinIdleConns int           `json:"minIdleConns"`
	MaxConnAge   time.Duration `json:"maxConnAge"`
}

// AppConfig holds application-related configuration
type AppConfig struct {
	Name      string `json:"name"`
	OrgName   string `json:"orgName"`
	WebDomain string `json:"webDomain"`
}

// LoadFromEnv loads configuration from the environment.
// Precedence: explicit environment variables, then .env file values,
// then hardcoded defaults.
func LoadFromEnv() (*Config, error) {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	var loadErr error
	for _, envPath := range envPaths {
		loadErr = godotenv.Load(envPath)
		if loadErr == nil {
			break
		}
	}
	if loadErr != nil {
		// Not an error: containers usually carry real env vars.
		fmt.Println("INFO: .env file not found, using environment variables and defaults.")
	}

	config := &Config{
		Server: ServerConfig{
			Host:      getEnvOrDefault("HOST", "localhost"),
			Port:      getEnvAsInt("SERVER_PORT", 8080),
			BaseRoute: getEnvOrDefault("BASE_ROUTE", "/api"),
			WebDomain: getEnvOrDefault("WEB_DOMAIN", "http://localhost:3000"),
			Debug:     getEnvAsBool("DEBUG", false),
		},
		Database: DatabaseConfig{
			Postgres: PostgreSQLConfig{
				Host:            getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:            getEnvAsInt("POSTGRES_PORT", 5432),
				Username:        getEnvOrDefault("POSTGRES_USERNAME", ""),
				Password:        getEnvOrDefault("POSTGRES_PASSWORD", ""),
				Database:        getEnvOrDefault("POSTGRES_DATABASE", "contentjoy"),
				SSLMode:         getEnvOrDefault("POSTGRES_SSL_MODE", "disable"),
				MaxOpenConns:    getEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    getEnvAsInt("POSTGRES_MAX_IDLE_CONNS", 25),
				ConnMaxLifetime: time.Duration(getEnvAsInt("POSTGRES_CONN_MAX_LIFETIME", 300)) * time.Second,
			},
		},
		Storage: StorageConfig{
			Provider: getEnvOrDefault("STORAGE_PROVIDER", "drive"),
			Drive: DriveConfig{
				BaseURL:           getEnvOrDefault("DRIVE_BASE_URL", "https://www.googleapis.com/drive/v3"),
				UploadBaseURL:     getEnvOrDefault("DRIVE_UPLOAD_BASE_URL", "https://www.googleapis.com/upload/drive/v3"),
				TokenURL:          getEnvOrDefault("DRIVE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
				AccessToken:       getEnvOrDefault("DRIVE_ACCESS_TOKEN", ""),
				RefreshToken:      getEnvOrDefault("DRIVE_REFRESH_TOKEN", ""),
				ClientID:          getEnvOrDefault("DRIVE_CLIENT_ID", ""),
				ClientSecret:      getEnvOrDefault("DRIVE_CLIENT_SECRET", ""),
				ServiceAccount:    getEnvOrDefault("DRIVE_SERVICE_ACCOUNT", ""),
				ServiceAccountKey: getEnvOrDefault("DRIVE_SERVICE_ACCOUNT_KEY", ""),
			},
			R2: R2Config{
				AccountID:       getEnvOrDefault("R2_ACCOUNT_ID", ""),
				AccessKeyID:     getEnvOrDefault("R2_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnvOrDefault("R2_SECRET_ACCESS_KEY", ""),
				BucketName:      getEnvOrDefault("R2_BUCKET_NAME", ""),
				Endpoint:        getEnvOrDefault("R2_ENDPOINT", ""),
				Region:          getEnvOrDefault("R2_REGION", "auto"),
				PublicURL:       getEnvOrDefault("R2_PUBLIC_URL", ""),
			},
		},
		Uploads: UploadsConfig{
			SessionRetention: getEnvAsDuration("UPLOAD_SESSION_RETENTION", 6*time.Hour),
			MaxChunkBytes:    getEnvAsInt64("UPLOAD_MAX_CHUNK_BYTES", 8*1024*1024),
			PutTimeout:       getEnvAsDuration("UPLOAD_PUT_TIMEOUT", 5*time.Minute),
			MaxPutAttempts:   getEnvAsInt("UPLOAD_MAX_PUT_ATTEMPTS", 5),
			BackoffBase:      getEnvAsDuration("UPLOAD_BACKOFF_BASE", 500*time.Millisecond),
			BackoffCap:       getEnvAsDuration("UPLOAD_BACKOFF_CAP", 8*time.Second),
			DedupeCacheTTL:   getEnvAsDuration("UPLOAD_DEDUPE_CACHE_TTL", time.Minute),
		},
		Cache: CacheConfig{
			Enabled: getEnvAsBool("CACHE_ENABLED", true),
			Backend: getEnvOrDefault("CACHE_BACKEND", "memory"),
			Prefix:  getEnvOrDefault("CACHE_PREFIX", "contentjoy:"),
			TTL:     getEnvAsDuration("CACHE_TTL", 15*time.Minute),
			Redis: RedisConfig{
				Address:      getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
				Password:     getEnvOrDefault("REDIS_PASSWORD", ""),
				Database:     getEnvAsInt("REDIS_DATABASE", 0),
				PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
				MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
				MaxConnAge:   time.Duration(getEnvAsInt("REDIS_MAX_CONN_AGE", 300)) * time.Second,
			},
		},
		App: AppConfig{
			Name:      getEnvOrDefault("APP_NAME", "ContentJoy"),
			OrgName:   getEnvOrDefault("ORG_NAME", "ContentJoy"),
			WebDomain: getEnvOrDefault("WEB_DOMAIN", "http://localhost:3000"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// LoadFromMap loads configuration from an in-memory map.
// This is the primary helper for testing configuration logic in isolation
// without manipulating global environment variables.
func LoadFromMap(envMap map[string]string) (*Config, error) {
	get := func(key, defaultValue string) string {
		if value, exists := envMap[key]; exists {
			return value
		}
		return defaultValue
	}

	getInt := func(key string, defaultValue int) int {
		if value, exists := envMap[key]; exists {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		return defaultValue
	}

	getInt64 := func(key string, defaultValue int64) int64 {
		if value, exists := envMap[key]; exists {
			if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
				return intValue
			}
		}
		return defaultValue
	}

	getBool := func(key string, defaultValue bool) bool {
		if value, exists := envMap[key]; exists {
			if boolValue, err := strconv.ParseBool(value); err == nil {
				return boolValue
			}
		}
		return defaultValue
	}

	getDuration := func(key string, defaultValue time.Duration) time.Duration {
		if value, exists := envMap[key]; exists {
			if duration, err := time.ParseDuration(value); err == nil {
				return duration
			}
		}
		return defaultValue
	}

	config := &Config{
		Server: ServerConfig{
			Host:      get("HOST", "localhost"),
			Port:      getInt("SERVER_PORT", 8080),
			BaseRoute: get("BASE_ROUTE", "/api"),
			WebDomain: get("WEB_DOMAIN", "http://localhost:3000"),
			Debug:     getBool("DEBUG", false),
		},
		Database: DatabaseConfig{
			Postgres: PostgreSQLConfig{
				Host:            get("POSTGRES_HOST", "localhost"),
				Port:            getInt("POSTGRES_PORT", 5432),
				Username:        get("POSTGRES_USERNAME", ""),
				Password:        get("POSTGRES_PASSWORD", ""),
				Database:        get("POSTGRES_DATABASE", "contentjoy"),
				SSLMode:         get("POSTGRES_SSL_MODE", "disable"),
				MaxOpenConns:    getInt("POSTGRES_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    getInt("POSTGRES_MAX_IDLE_CONNS", 25),
				ConnMaxLifetime: time.Duration(getInt("POSTGRES_CONN_MAX_LIFETIME", 300)) * time.Second,
			},
		},
		Storage: StorageConfig{
			Provider: get("STORAGE_PROVIDER", "drive"),
			Drive: DriveConfig{
				BaseURL:           get("DRIVE_BASE_URL", "https://www.googleapis.com/drive/v3"),
				UploadBaseURL:     get("DRIVE_UPLOAD_BASE_URL", "https://www.googleapis.com/upload/drive/v3"),
				TokenURL:          get("DRIVE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
				AccessToken:       get("DRIVE_ACCESS_TOKEN", ""),
				RefreshToken:      get("DRIVE_REFRESH_TOKEN", ""),
				ClientID:          get("DRIVE_CLIENT_ID", ""),
				ClientSecret:      get("DRIVE_CLIENT_SECRET", ""),
				ServiceAccount:    get("DRIVE_SERVICE_ACCOUNT", ""),
				ServiceAccountKey: get("DRIVE_SERVICE_ACCOUNT_KEY", ""),
			},
			R2: R2Config{
				AccountID:       get("R2_ACCOUNT_ID", ""),
				AccessKeyID:     get("R2_ACCESS_KEY_ID", ""),
				SecretAccessKey: get("R2_SECRET_ACCESS_KEY", ""),
				BucketName:      get("R2_BUCKET_NAME", ""),
				Endpoint:        get("R2_ENDPOINT", ""),
				Region:          get("R2_REGION", "auto"),
				PublicURL:       get("R2_PUBLIC_URL", ""),
			},
		},
		Uploads: UploadsConfig{
			SessionRetention: getDuration("UPLOAD_SESSION_RETENTION", 6*time.Hour),
			MaxChunkBytes:    getInt64("UPLOAD_MAX_CHUNK_BYTES", 8*1024*1024),
			PutTimeout:       getDuration("UPLOAD_PUT_TIMEOUT", 5*time.Minute),
			MaxPutAttempts:   getInt("UPLOAD_MAX_PUT_ATTEMPTS", 5),
			BackoffBase:      getDuration("UPLOAD_BACKOFF_BASE", 500*time.Millisecond),
			BackoffCap:       getDuration("UPLOAD_BACKOFF_CAP", 8*time.Second),
			DedupeCacheTTL:   getDuration("UPLOAD_DEDUPE_CACHE_TTL", time.Minute),
		},
		Cache: CacheConfig{
			Enabled: getBool("CACHE_ENABLED", true),
			Backend: get("CACHE_BACKEND", "memory"),
			Prefix:  get("CACHE_PREFIX", "contentjoy:"),
			TTL:     getDuration("CACHE_TTL", 15*time.Minute),
			Redis: RedisConfig{
				Address:      get("REDIS_ADDRESS", "localhost:6379"),
				Password:     get("REDIS_PASSWORD", ""),
				Database:     getInt("REDIS_DATABASE", 0),
				PoolSize:     getInt("REDIS_POOL_SIZE", 10),
				MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 5),
				MaxConnAge:   time.Duration(getInt("REDIS_MAX_CONN_AGE", 300)) * time.Second,
			},
		},
		App: AppConfig{
			Name:      get("APP_NAME", "ContentJoy"),
			OrgName:   get("ORG_NAME", "ContentJoy"),
			WebDomain: get("WEB_DOMAIN", "http://localhost:3000"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration for required fields
func (c *Config) Validate() error {
	var errors []string

	validProviders := []string{"drive", "r2"}
	if !contains(validProviders, c.Storage.Provider) {
		errors = append(errors, fmt.Sprintf("STORAGE_PROVIDER must be one of: %s", strings.Join(validProviders, ", ")))
	}

	if c.Storage.Provider == "r2" {
		if strings.TrimSpace(c.Storage.R2.AccessKeyID) == "" || strings.TrimSpace(c.Storage.R2.SecretAccessKey) == "" {
			errors = append(errors, "R2_ACCESS_KEY_ID and R2_SECRET_ACCESS_KEY are required when STORAGE_PROVIDER=r2")
		}
		if strings.TrimSpace(c.Storage.R2.BucketName) == "" {
			errors = append(errors, "R2_BUCKET_NAME is required when STORAGE_PROVIDER=r2")
		}
	}

	if c.Uploads.MaxPutAttempts < 1 {
		errors = append(errors, "UPLOAD_MAX_PUT_ATTEMPTS must be at least 1")
	}
	if c.Uploads.SessionRetention <= 0 {
		errors = append(errors, "UPLOAD_SESSION_RETENTION must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// Helper functions
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
