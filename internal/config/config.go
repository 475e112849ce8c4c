package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Storage   StorageConfig   `json:"storage"`
	GCS       GCSConfig       `json:"gcs"`
	Gotenberg GotenbergConfig `json:"gotenberg"`
	Data      DataConfig      `json:"data"`
	Session   SessionConfig   `json:"session"`
	Geocode   GeocodeConfig   `json:"geocode"`
	Log       LogConfig       `json:"log"`
}

type ServerConfig struct {
	Port         string   `json:"port"`
	Environment  string   `json:"environment"`
	BaseURL      string   `json:"base_url"`
	AllowOrigins []string `json:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
}

// StorageConfig picks where documents and photos are written. "gcs" is the
// deployed setting; "local" writes under LocalDir for development.
type StorageConfig struct {
	Driver     string `json:"driver"`
	LocalDir   string `json:"local_dir"`
	SigningKey string `json:"-"`
}

type GCSConfig struct {
	BucketName      string        `json:"bucket_name"`
	ProjectID       string        `json:"project_id"`
	CredentialsPath string        `json:"credentials_path"`
	SignedURLExpiry time.Duration `json:"signed_url_expiry"`
}

type GotenbergConfig struct {
	URL     string `json:"url"`
	Timeout string `json:"timeout"`
}

// DataConfig locates the CSV stores and the optional bank catalog override.
type DataConfig struct {
	Dir         string `json:"dir"`
	UsersCSV    string `json:"users_csv"`
	LogsCSV     string `json:"logs_csv"`
	BanksFile   string `json:"banks_file"`
	MaxUploadMB int64  `json:"max_upload_mb"`
}

type SessionConfig struct {
	TTL           time.Duration `json:"ttl"`
	SweepInterval time.Duration `json:"sweep_interval"`
}

type GeocodeConfig struct {
	BaseURL   string `json:"base_url"`
	UserAgent string `json:"user_agent"`
	Enabled   bool   `json:"enabled"`
}

type LogConfig struct {
	Level string `json:"level"`
}

// Enabled reports whether a database host was configured. Document records
// are optional; the CSV audit log is always written.
func (d *DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

func (d *DatabaseConfig) DSN() string {
	// Cloud SQL Unix socket support
	if len(d.Host) > 0 && d.Host[0] == '/' {
		return fmt.Sprintf("%s:%s@unix(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.DBName)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Failed to load .env file: %v, using system environment variables\n", err)
	}

	dataDir := getEnv("DATA_DIR", "data")
	port := getEnv("SERVER_PORT", "8080")

	config := &Config{
		Server: ServerConfig{
			Port:         port,
			Environment:  getEnv("ENVIRONMENT", "development"),
			BaseURL:      strings.TrimRight(getEnv("BASE_URL", "http://localhost:"+port), "/"),
			AllowOrigins: parseAllowOrigins(),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "spx_val"),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "gcs"),
			LocalDir:   getEnv("STORAGE_LOCAL_DIR", filepath.Join(dataDir, "objects")),
			SigningKey: os.Getenv("STORAGE_SIGNING_KEY"),
		},
		GCS: GCSConfig{
			BucketName:      getEnv("GCS_BUCKET_NAME", ""),
			ProjectID:       getEnv("GOOGLE_CLOUD_PROJECT", ""),
			CredentialsPath: getEnv("GCS_CREDENTIALS_PATH", ""),
			SignedURLExpiry: getDuration("GCS_SIGNED_URL_EXPIRY", 15*time.Minute),
		},
		Gotenberg: GotenbergConfig{
			URL:     getEnv("GOTENBERG_URL", "http://localhost:3000"),
			Timeout: getEnv("GOTENBERG_TIMEOUT", "30s"),
		},
		Data: DataConfig{
			Dir:         dataDir,
			UsersCSV:    getEnv("USERS_CSV", filepath.Join(dataDir, "users.csv")),
			LogsCSV:     getEnv("LOGS_CSV", filepath.Join(dataDir, "document_logs.csv")),
			BanksFile:   getEnv("BANKS_FILE", ""),
			MaxUploadMB: getInt64("MAX_UPLOAD_MB", 32),
		},
		Session: SessionConfig{
			TTL:           getDuration("SESSION_TTL", 12*time.Hour),
			SweepInterval: getDuration("SESSION_SWEEP_INTERVAL", time.Hour),
		},
		Geocode: GeocodeConfig{
			BaseURL:   getEnv("GEOCODE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getEnv("GEOCODE_USER_AGENT", "spx-val/1.0"),
			Enabled:   getEnv("GEOCODE_ENABLED", "true") == "true",
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", ""),
		},
	}

	switch config.Storage.Driver {
	case "gcs":
		if config.GCS.BucketName == "" {
			return nil, fmt.Errorf("GCS_BUCKET_NAME is required")
		}
	case "local":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", config.Storage.Driver)
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		fmt.Printf("Warning: invalid duration %s=%q, using %s\n", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var n int64
	if _, err := fmt.Sscanf(value, "%d", &n); err != nil || n <= 0 {
		fmt.Printf("Warning: invalid integer %s=%q, using %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func parseAllowOrigins() []string {
	if origins := os.Getenv("ALLOW_ORIGINS"); origins != "" {
		var allowOrigins []string
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				allowOrigins = append(allowOrigins, trimmed)
			}
		}
		return allowOrigins
	}

	// Fallback to individual FRONTEND_URL_* variables for backward compatibility
	var allowOrigins []string

	if url1 := getEnv("FRONTEND_URL_1", ""); url1 != "" {
		allowOrigins = append(allowOrigins, url1)
	}

	if url2 := getEnv("FRONTEND_URL_2", ""); url2 != "" {
		allowOrigins = append(allowOrigins, url2)
	}

	if len(allowOrigins) == 0 {
		allowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}
	}

	return allowOrigins
}
