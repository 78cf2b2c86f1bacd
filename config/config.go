package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Otel      OtelConfig
	Analytics AnalyticsConfig
	Seed      SeedConfig
}

type ServerConfig struct {
	AppEnv          string
	HTTPPort        string
	GRPCPort        string
	Timezone        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// LoginRPS and LoginBurst throttle login attempts per client address. Zero disables.
	LoginRPS        float64
	LoginBurst      int
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
	SnapshotConns   int
}

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
}

// RedisConfig leaves Addr empty to run without the catalog cache and with an in-process training lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig leaves Brokers empty to disable order events.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type OtelConfig struct {
	Endpoint    string
	ServiceName string
	Insecure    bool
}

type AnalyticsConfig struct {
	ModelPath         string
	MinTrainingOrders int
	Trees             int
	MaxDepth          int
	MinLeaf           int
	Seed              int64
	RetrainEvery      int
	PeakLookbackDays  int
	LockTTL           time.Duration
}

type SeedConfig struct {
	MenuFile string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:          getEnv("APP_ENV", "dev"),
			HTTPPort:        getEnv("HTTP_PORT", ":8080"),
			GRPCPort:        getEnv("GRPC_PORT", ":8082"),
			Timezone:        getEnv("RESTAURANT_TIMEZONE", "Africa/Johannesburg"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
			LoginRPS:        getEnvFloat("LOGIN_RATE_PER_SECOND", 1),
			LoginBurst:      getEnvInt("LOGIN_RATE_BURST", 5),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			DSN:             getEnv("DB_DSN", "file:restaurant.db?_pragma=journal_mode(WAL)"),
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "restaurant"),
			Password:        getEnv("POSTGRES_PASSWORD", "restaurant"),
			DBName:          getEnv("POSTGRES_DB", "restaurant_pos"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
			SnapshotConns:   getEnvInt("DB_SNAPSHOT_CONNS", 4),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", "your-secret-key-change-this-in-prod"),
			TTL:       getEnvDuration("JWT_TTL", 12*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC_ORDERS", "orders.events"),
			GroupID: getEnv("KAFKA_GROUP_ANALYTICS", "analytics"),
		},
		Otel: OtelConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "restaurant-pos"),
			Insecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		},
		Analytics: AnalyticsConfig{
			ModelPath:         getEnv("MODEL_PATH", "demand_model.json"),
			MinTrainingOrders: getEnvInt("ANALYTICS_MIN_TRAINING_ORDERS", 10),
			Trees:             getEnvInt("ANALYTICS_TREES", 100),
			MaxDepth:          getEnvInt("ANALYTICS_MAX_DEPTH", 8),
			MinLeaf:           getEnvInt("ANALYTICS_MIN_LEAF", 2),
			Seed:              int64(getEnvInt("ANALYTICS_SEED", 42)),
			RetrainEvery:      getEnvInt("ANALYTICS_RETRAIN_EVERY", 10),
			PeakLookbackDays:  getEnvInt("ANALYTICS_PEAK_LOOKBACK_DAYS", 30),
			LockTTL:           getEnvDuration("ANALYTICS_LOCK_TTL", 2*time.Minute),
		},
		Seed: SeedConfig{
			MenuFile: getEnv("SEED_MENU_FILE", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return strings.Split(value, ",")
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
