package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the client reads from the environment.
type Config struct {
	ServerURL    string // REST base, e.g. http://localhost:8083
	SocketURL    string // websocket endpoint, e.g. ws://localhost:8083/ws
	Token        string // bearer credential; empty means REST-only mode
	UserID       string
	ChannelID    string // channel the CLI opens on start
	AMQPURL      string
	AMQPExchange string
	MetricsAddr  string
	OTLPEndpoint string
	Environment  string
	Debug        bool
}

// Load reads configuration from the environment, with an optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerURL:    getEnv("CHAT_SERVER_URL", "http://localhost:8083"),
		SocketURL:    getEnv("CHAT_SOCKET_URL", "ws://localhost:8083/ws"),
		Token:        getEnv("CHAT_TOKEN", ""),
		UserID:       getEnv("CHAT_USER_ID", ""),
		ChannelID:    getEnv("CHAT_CHANNEL_ID", ""),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "chat_client_events"),
		MetricsAddr:  getEnv("METRICS_ADDR", ""),
		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
		Environment:  getEnv("ENVIRONMENT", "development"),
		Debug:        getBoolEnv("CHAT_DEBUG", false),
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
