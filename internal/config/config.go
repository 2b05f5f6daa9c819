package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port            int
	LogLevel        string
	AnthropicAPIKey string
	AnthropicModel  string

	SalesforceInstanceURL  string
	SalesforceClientID     string
	SalesforceClientSecret string
	SalesforceRefreshToken string

	NatsURL       string
	NatsToken     string
	DatabaseURL   string
	SlackBotToken string
	SlackChannel  string
}

func Load() Config {
	return Config{
		Port:            envInt("SALESCRIBE_PORT", 8760),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("SALESCRIBE_MODEL", "claude-sonnet-4-20250514"),

		SalesforceInstanceURL:  envStr("SALESFORCE_INSTANCE_URL", ""),
		SalesforceClientID:     envStr("SALESFORCE_CLIENT_ID", ""),
		SalesforceClientSecret: envStr("SALESFORCE_CLIENT_SECRET", ""),
		SalesforceRefreshToken: envStr("SALESFORCE_REFRESH_TOKEN", ""),

		NatsURL:       envStr("NATS_URL", ""),
		NatsToken:     envStr("NATS_TOKEN", ""),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		SlackBotToken: envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:  envStr("SLACK_SALES_CHANNEL", ""),
	}
}

func envStr(key, fallback string) string {
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
