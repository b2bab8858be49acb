package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the dashboard needs.
type Config struct {
	Server   ServerConfig
	Channel  ChannelConfig
	Webhooks WebhookConfig
	Storage  StorageConfig
	Widget   WidgetConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	channel, err := loadChannelConfig()
	if err != nil {
		return nil, err
	}

	webhooks, err := loadWebhookConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Channel:  channel,
		Webhooks: webhooks,
		Storage:  loadStorageConfig(),
		Widget:   loadWidgetConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ChannelConfig describes the upstream real-time event channel.
type ChannelConfig struct {
	URL          string
	PingInterval time.Duration
}

func loadChannelConfig() (ChannelConfig, error) {
	pingSeconds, err := parseOptionalIntEnv("CHANNEL_PING_INTERVAL")
	if err != nil {
		return ChannelConfig{}, err
	}
	interval := 30 * time.Second
	if pingSeconds != nil {
		if *pingSeconds < 1 {
			return ChannelConfig{}, fmt.Errorf("CHANNEL_PING_INTERVAL must be positive, got %d", *pingSeconds)
		}
		interval = time.Duration(*pingSeconds) * time.Second
	}

	return ChannelConfig{
		URL:          getEnvOrDefault("CHANNEL_URL", "wss://travel-agi-backend.up.railway.app/events"),
		PingInterval: interval,
	}, nil
}

// WebhookConfig describes the two automation endpoints.
type WebhookConfig struct {
	StartLinkingURL string
	NotifyURL       string
	Timeout         time.Duration
}

func loadWebhookConfig() (WebhookConfig, error) {
	timeoutSeconds, err := parseOptionalIntEnv("WEBHOOK_TIMEOUT")
	if err != nil {
		return WebhookConfig{}, err
	}
	timeout := 30 * time.Second
	if timeoutSeconds != nil {
		if *timeoutSeconds < 1 {
			return WebhookConfig{}, fmt.Errorf("WEBHOOK_TIMEOUT must be positive, got %d", *timeoutSeconds)
		}
		timeout = time.Duration(*timeoutSeconds) * time.Second
	}

	start := strings.TrimSpace(os.Getenv("START_LINKING_WEBHOOK_URL"))
	notify := strings.TrimSpace(os.Getenv("NOTIFY_WEBHOOK_URL"))
	if start == "" {
		return WebhookConfig{}, fmt.Errorf("START_LINKING_WEBHOOK_URL is required")
	}
	if notify == "" {
		return WebhookConfig{}, fmt.Errorf("NOTIFY_WEBHOOK_URL is required")
	}

	return WebhookConfig{StartLinkingURL: start, NotifyURL: notify, Timeout: timeout}, nil
}

// StorageConfig describes the durable session state database.
type StorageConfig struct {
	Path string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{Path: getEnvOrDefault("STATE_DB_PATH", "dashboard.db")}
}

// WidgetConfig describes the embedded voice widget.
type WidgetConfig struct {
	AgentID string
}

func loadWidgetConfig() WidgetConfig {
	return WidgetConfig{AgentID: getEnvOrDefault("CONVAI_AGENT_ID", "agent_0201kadrz4f4ffyahjzxzt3d5abv")}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
