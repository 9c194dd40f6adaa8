// Package config builds runtime configuration from the environment so main
// stays lean. Every knob has a development default; production overrides
// through TRUSTGRAPH_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr               string
	JWTVerificationKey string
	LogLevel           string
}

// Postgres captures the graph store connection. Empty URL means the in-memory
// store backs the service.
type Postgres struct {
	URL string
}

// RedisConfig captures the result cache connection. Empty URL means the
// in-memory cache backs the service.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures the graph changefeed subscription. Empty broker list
// disables the changefeed; invalidation then relies on local change signals.
type Kafka struct {
	Brokers []string
	GroupID string
	Topic   string
}

// Engine captures query evaluation overrides. Zero values defer to the
// engine's documented defaults.
type Engine struct {
	DecayFactor         float64
	InheritanceDiscount float64
	DefaultMaxDepth     int
	HardMaxDepth        int
	QueryTimeout        time.Duration
	CacheTTL            time.Duration
}

// Config is the full runtime configuration.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    RedisConfig
	Kafka    Kafka
	Engine   Engine
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Server: Server{
			Addr:               envOr("TRUSTGRAPH_ADDR", ":8080"),
			JWTVerificationKey: envOr("TRUSTGRAPH_JWT_KEY", "dev-secret-key-change-in-production"),
			LogLevel:           envOr("TRUSTGRAPH_LOG_LEVEL", "info"),
		},
		Postgres: Postgres{
			URL: os.Getenv("TRUSTGRAPH_POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("TRUSTGRAPH_REDIS_URL"),
			PoolSize:     envInt("TRUSTGRAPH_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("TRUSTGRAPH_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("TRUSTGRAPH_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("TRUSTGRAPH_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("TRUSTGRAPH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			GroupID: envOr("TRUSTGRAPH_KAFKA_GROUP", "trustgraph"),
			Topic:   envOr("TRUSTGRAPH_KAFKA_TOPIC", "trustgraph.graph-changes"),
		},
		Engine: Engine{
			DecayFactor:         envFloat("TRUSTGRAPH_DECAY_FACTOR", 0),
			InheritanceDiscount: envFloat("TRUSTGRAPH_INHERITANCE_DISCOUNT", 0),
			DefaultMaxDepth:     envInt("TRUSTGRAPH_DEFAULT_MAX_DEPTH", 0),
			HardMaxDepth:        envInt("TRUSTGRAPH_HARD_MAX_DEPTH", 0),
			QueryTimeout:        envDuration("TRUSTGRAPH_QUERY_TIMEOUT", 0),
			CacheTTL:            envDuration("TRUSTGRAPH_CACHE_TTL", 0),
		},
	}
	if brokers := os.Getenv("TRUSTGRAPH_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
