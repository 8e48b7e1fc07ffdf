package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	LogLevel           string

	// Workers bounds analyzer parallelism; 0 means one per CPU
	Workers int
	// AnalyzerProfile is an optional YAML file overlaid on the default analyzer config
	AnalyzerProfile string

	Redis RedisConfig
	NATS  NATSConfig
	Azure AzureConfig
	MinIO MinIOConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type NATSConfig struct {
	URL     string
	Subject string
}

type AzureConfig struct {
	AccountName string
	AccountKey  string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether enough settings are present to build a client
func (c RedisConfig) Enabled() bool { return strings.TrimSpace(c.Addr) != "" }
func (c NATSConfig) Enabled() bool  { return strings.TrimSpace(c.URL) != "" }
func (c AzureConfig) Enabled() bool {
	return c.AccountName != "" && c.AccountKey != ""
}
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv reads the environment (and CONFIG_FILE, when set) on top of defaults
func LoadFromEnv() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Host:               v.GetString("host"),
		Port:               v.GetString("port"),
		RequestTimeout:     v.GetDuration("request_timeout"),
		ImageFetchTimeout:  v.GetDuration("image_fetch_timeout"),
		AnalysisTimeout:    v.GetDuration("analysis_timeout"),
		MaxRequestBodySize: v.GetInt64("max_request_body_size"),
		LogLevel:           strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		Workers:            v.GetInt("workers"),
		AnalyzerProfile:    strings.TrimSpace(v.GetString("analyzer_profile")),
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
			TTL:      v.GetDuration("cache_ttl"),
		},
		NATS: NATSConfig{
			URL:     v.GetString("nats_url"),
			Subject: v.GetString("nats_subject"),
		},
		Azure: AzureConfig{
			AccountName: v.GetString("azure_account_name"),
			AccountKey:  v.GetString("azure_account_key"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("minio_endpoint"),
			AccessKey: v.GetString("minio_access_key"),
			SecretKey: v.GetString("minio_secret_key"),
			Bucket:    v.GetString("minio_bucket"),
			UseSSL:    v.GetBool("minio_use_ssl"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", "8080")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("image_fetch_timeout", 15*time.Second)
	v.SetDefault("analysis_timeout", 20*time.Second)
	v.SetDefault("max_request_body_size", 20*1024*1024) // 20MB, above the 15MB upload limit
	v.SetDefault("log_level", "info")
	v.SetDefault("workers", 0)
	v.SetDefault("analyzer_profile", "")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", 24*time.Hour)

	v.SetDefault("nats_url", "")
	v.SetDefault("nats_subject", "suitability.events")

	v.SetDefault("azure_account_name", "")
	v.SetDefault("azure_account_key", "")

	v.SetDefault("minio_endpoint", "")
	v.SetDefault("minio_access_key", "")
	v.SetDefault("minio_secret_key", "")
	v.SetDefault("minio_bucket", "")
	v.SetDefault("minio_use_ssl", true)
}

// Validate checks ranges of the loaded values
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	if c.Workers < 0 {
		return fmt.Errorf("WORKERS must be >= 0 (got %d)", c.Workers)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL: %q", c.LogLevel)
	}
	if c.Redis.Enabled() && c.Redis.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be > 0 (got %s)", c.Redis.TTL)
	}
	if c.NATS.Enabled() && strings.TrimSpace(c.NATS.Subject) == "" {
		return fmt.Errorf("NATS_SUBJECT must be set when NATS_URL is configured")
	}
	return nil
}
