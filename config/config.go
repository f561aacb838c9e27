package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Google Cloud project settings
	ProjectID string `json:"project_id"`
	Region    string `json:"region"`

	// Server settings (standalone mode only)
	ServerPort      string        `json:"server_port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	Debug           bool          `json:"debug"`

	// Default spoken/synthesis language
	LanguageCode string `json:"language_code"`

	Log       LogConfig       `json:"log"`
	Storage   StorageConfig   `json:"storage"`
	Models    ModelConfig     `json:"models"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

type LogConfig struct {
	Level        string `json:"level"`
	Format       string `json:"format"`
	Dir          string `json:"dir"`
	CloudEnabled bool   `json:"cloud_enabled"`
	CloudLogID   string `json:"cloud_log_id"`
}

type StorageConfig struct {
	// Backend is either "gcs" or "s3"
	Backend string `json:"backend"`
	Bucket  string `json:"bucket"`

	S3Endpoint      string `json:"s3_endpoint"`
	S3Region        string `json:"s3_region"`
	S3AccessKey     string `json:"-"`
	S3SecretKey     string `json:"-"`
	S3PublicBaseURL string `json:"s3_public_base_url"`
}

type ModelConfig struct {
	Speech          string `json:"speech"`
	TextEmbedding   string `json:"text_embedding"`
	MultiModal      string `json:"multi_modal"`
	Ranking         string `json:"ranking"`
	RankingLocation string `json:"ranking_location"`
	RankingConfig   string `json:"ranking_config"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
	BurstSize         int  `json:"burst_size"`
}

const (
	BackendGCS = "gcs"
	BackendS3  = "s3"
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	projectID := GetEnv("PROJECT_ID", "open-mmpa")
	region := GetEnv("REGION", "us-central1")

	cfg := &Config{
		ProjectID: projectID,
		Region:    region,

		ServerPort:      GetEnv("SERVER_PORT", "8080"),
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 310*time.Second),
		IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Debug:           getEnvAsBool("DEBUG", false),

		LanguageCode: GetEnv("LANGUAGE_CODE", "en-US"),

		Log: LogConfig{
			Level:        GetEnv("LOG_LEVEL", "info"),
			Format:       GetEnv("LOG_FORMAT", "json"),
			Dir:          GetEnv("LOG_DIR", ""),
			CloudEnabled: getEnvAsBool("CLOUD_LOGGING_ENABLED", false),
			CloudLogID:   GetEnv("CLOUD_LOG_ID", "open-mmpa-functions"),
		},

		Storage: StorageConfig{
			Backend:         strings.ToLower(GetEnv("STORAGE_BACKEND", BackendGCS)),
			Bucket:          GetEnv("STORAGE_BUCKET", fmt.Sprintf("%s.appspot.com", projectID)),
			S3Endpoint:      GetEnv("S3_ENDPOINT", ""),
			S3Region:        GetEnv("S3_REGION", "us-east-1"),
			S3AccessKey:     GetEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:     GetEnv("S3_SECRET_KEY", ""),
			S3PublicBaseURL: GetEnv("S3_PUBLIC_BASE_URL", ""),
		},

		Models: ModelConfig{
			Speech:          GetEnv("SPEECH_MODEL", "chirp"),
			TextEmbedding:   GetEnv("TEXT_EMBEDDING_MODEL", "text-embedding-004"),
			MultiModal:      GetEnv("MULTIMODAL_EMBEDDING_MODEL", "multimodalembedding@001"),
			Ranking:         GetEnv("RANKING_MODEL", "semantic-ranker-512@latest"),
			RankingLocation: GetEnv("RANKING_LOCATION", region),
			RankingConfig:   GetEnv("RANKING_CONFIG", "default_ranking_config"),
		},

		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", false),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
			BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return errors.New("project id is required")
	}
	if c.Region == "" {
		return errors.New("region is required")
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage bucket is required")
	}
	switch c.Storage.Backend {
	case BackendGCS:
	case BackendS3:
		if c.Storage.S3Endpoint == "" {
			return errors.New("s3 endpoint is required for the s3 storage backend")
		}
	default:
		return errors.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.ReadTimeout <= 0 {
		return errors.New("read timeout must be greater than 0")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write timeout must be greater than 0")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return errors.New("rate limit must be greater than 0 when enabled")
	}
	return nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid boolean, using default")
	}
	return defaultValue
}
