package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Queue    QueueConfig
	FileDrop FileDropConfig
	Firebase FirebaseConfig
	App      AppConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	CORSOrigins []string
	// RateLimit is the sustained requests/second allowed per client on the ingress routes.
	RateLimit float64
	RateBurst int
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type QueueConfig struct {
	Driver       string
	Topic        string
	Group        string
	Consumer     string
	MaxAttempts  int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
	KafkaBrokers []string
	AMQPURL      string
}

type FileDropConfig struct {
	Driver          string
	Dir             string
	Bucket          string
	Endpoint        string
	Region          string
	IncomingPrefix  string
	ProcessedPrefix string
	FailedPrefix    string
	Schedule        string
	Importer        string
	ClaimTTL        time.Duration
}

type FirebaseConfig struct {
	CredentialsPath string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

const (
	QueueMemory = "memory"
	QueueRedis  = "redis"
	QueueKafka  = "kafka"
	QueueAMQP   = "amqp"

	FileDropLocal = "local"
	FileDropS3    = "s3"
	FileDropGCS   = "gcs"
)

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			GinMode:     v.GetString("GIN_MODE"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
			RateLimit:   v.GetFloat64("INGEST_RATE_LIMIT"),
			RateBurst:   v.GetInt("INGEST_RATE_BURST"),
		},
		Database: DatabaseConfig{
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt("DB_MAX_CONNS"),
			MinConns: v.GetInt("DB_MIN_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Queue: QueueConfig{
			Driver:       strings.ToLower(v.GetString("QUEUE_DRIVER")),
			Topic:        v.GetString("QUEUE_TOPIC"),
			Group:        v.GetString("QUEUE_GROUP"),
			Consumer:     v.GetString("QUEUE_CONSUMER"),
			MaxAttempts:  v.GetInt("QUEUE_MAX_ATTEMPTS"),
			BackoffBase:  v.GetDuration("QUEUE_BACKOFF_BASE"),
			BackoffMax:   v.GetDuration("QUEUE_BACKOFF_MAX"),
			KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
			AMQPURL:      v.GetString("AMQP_URL"),
		},
		FileDrop: FileDropConfig{
			Driver:          strings.ToLower(v.GetString("FILEDROP_DRIVER")),
			Dir:             v.GetString("FILEDROP_DIR"),
			Bucket:          v.GetString("FILEDROP_BUCKET"),
			Endpoint:        v.GetString("FILEDROP_ENDPOINT"),
			Region:          v.GetString("FILEDROP_REGION"),
			IncomingPrefix:  v.GetString("FILEDROP_INCOMING_PREFIX"),
			ProcessedPrefix: v.GetString("FILEDROP_PROCESSED_PREFIX"),
			FailedPrefix:    v.GetString("FILEDROP_FAILED_PREFIX"),
			Schedule:        v.GetString("FILEDROP_SCHEDULE"),
			Importer:        v.GetString("FILEDROP_IMPORTER"),
			ClaimTTL:        v.GetDuration("FILEDROP_CLAIM_TTL"),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		},
		App: AppConfig{
			Environment: v.GetString("APP_ENV"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			Version:     v.GetString("APP_VERSION"),
		},
	}

	if cfg.Queue.Consumer == "" {
		cfg.Queue.Consumer = defaultIdentity("consumer")
	}
	if cfg.FileDrop.Importer == "" {
		cfg.FileDrop.Importer = defaultIdentity("filedrop")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("INGEST_RATE_LIMIT", 20.0)
	v.SetDefault("INGEST_RATE_BURST", 40)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "floorplans")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("QUEUE_DRIVER", QueueRedis)
	v.SetDefault("QUEUE_TOPIC", "floorplan.customizations")
	v.SetDefault("QUEUE_GROUP", "customization-consumers")
	v.SetDefault("QUEUE_CONSUMER", "")
	v.SetDefault("QUEUE_MAX_ATTEMPTS", 5)
	v.SetDefault("QUEUE_BACKOFF_BASE", "500ms")
	v.SetDefault("QUEUE_BACKOFF_MAX", "30s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AMQP_URL", "")

	v.SetDefault("FILEDROP_DRIVER", FileDropLocal)
	v.SetDefault("FILEDROP_DIR", "data/filedrop")
	v.SetDefault("FILEDROP_BUCKET", "")
	v.SetDefault("FILEDROP_ENDPOINT", "")
	v.SetDefault("FILEDROP_REGION", "us-east-1")
	v.SetDefault("FILEDROP_INCOMING_PREFIX", "incoming/")
	v.SetDefault("FILEDROP_PROCESSED_PREFIX", "processed/")
	v.SetDefault("FILEDROP_FAILED_PREFIX", "failed/")
	v.SetDefault("FILEDROP_SCHEDULE", "@every 30s")
	v.SetDefault("FILEDROP_IMPORTER", "")
	v.SetDefault("FILEDROP_CLAIM_TTL", "10m")

	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "")

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_VERSION", "1.0.0")
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("DATABASE_URL or DB_HOST is required")
	}

	switch c.Queue.Driver {
	case QueueMemory, QueueRedis:
	case QueueKafka:
		if len(c.Queue.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when QUEUE_DRIVER=kafka")
		}
	case QueueAMQP:
		if c.Queue.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL is required when QUEUE_DRIVER=amqp")
		}
	default:
		return fmt.Errorf("unknown QUEUE_DRIVER %q", c.Queue.Driver)
	}
	if c.Queue.Topic == "" {
		return fmt.Errorf("QUEUE_TOPIC is required")
	}
	if c.Queue.MaxAttempts < 1 {
		return fmt.Errorf("QUEUE_MAX_ATTEMPTS must be at least 1")
	}

	switch c.FileDrop.Driver {
	case FileDropLocal:
		if c.FileDrop.Dir == "" {
			return fmt.Errorf("FILEDROP_DIR is required when FILEDROP_DRIVER=local")
		}
	case FileDropS3, FileDropGCS:
		if c.FileDrop.Bucket == "" {
			return fmt.Errorf("FILEDROP_BUCKET is required when FILEDROP_DRIVER=%s", c.FileDrop.Driver)
		}
	default:
		return fmt.Errorf("unknown FILEDROP_DRIVER %q", c.FileDrop.Driver)
	}

	return nil
}

// DSN returns DATABASE_URL when set, otherwise a postgres:// URL built from the DB_* parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultIdentity(prefix string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return prefix + "@" + host
}
