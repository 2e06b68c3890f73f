package config

import (
	"os"
	"strings"
)

// Server captures process-level configuration.
type Server struct {
	Addr            string
	DatabaseURL     string
	RedisURL        string
	KafkaBrokers    []string
	KafkaAuditTopic string
	LogLevel        string
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Empty DatabaseURL/RedisURL select the in-memory backends, which is the
// intended mode for local development and tests.
func FromEnv() Server {
	addr := os.Getenv("COALESCE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "coalesce.audit"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	return Server{
		Addr:            addr,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaBrokers:    brokers,
		KafkaAuditTopic: topic,
		LogLevel:        level,
	}
}
