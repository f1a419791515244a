package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime settings of the chat server.
type Config struct {
	HTTPAddr           string
	DatabaseURL        string // empty selects the in-memory stores
	ValkeyAddr         string // empty selects the in-process membership cache
	ValkeyPassword     string
	MembershipCacheTTL time.Duration
	JWTSecret          string // empty disables token checks
	AMQPURL            string // empty disables domain event publishing
	AMQPExchange       string
	CORSOrigins        []string
	WSSendBuffer       int
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ValkeyAddr:     os.Getenv("VALKEY_ADDR"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AMQPURL:        os.Getenv("AMQP_URL"),
		AMQPExchange:   getenv("AMQP_EXCHANGE", "scenyx.chat"),
		CORSOrigins:    splitList(getenv("CORS_ORIGINS", "http://127.0.0.1:5173")),
	}

	ttl := getenv("MEMBERSHIP_CACHE_TTL", "5m")
	d, err := time.ParseDuration(ttl)
	if err != nil || d <= 0 {
		return nil, fmt.Errorf("invalid MEMBERSHIP_CACHE_TTL %q: must be a positive duration", ttl)
	}
	cfg.MembershipCacheTTL = d

	buf := os.Getenv("WS_SEND_BUFFER")
	if buf == "" {
		cfg.WSSendBuffer = 256
	} else {
		n, err := strconv.Atoi(buf)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid WS_SEND_BUFFER %q: must be a positive integer", buf)
		}
		cfg.WSSendBuffer = n
	}

	if cfg.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET is not set, socket and API identities are not verified.")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
