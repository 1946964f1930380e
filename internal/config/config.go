package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	TelegramToken string

	// REST backend the bot is a client of.
	APIBaseURL string

	// External identity provider (email/password sessions).
	AuthBaseURL string
	AuthAPIKey  string

	PaymentProvider string

	// Secret for signing payment return links.
	LinkSecret string

	HTTPAddr      string
	BasePublicURL string

	// Whether admins and creators may register for contests.
	AllowElevatedParticipation bool
}

func FromEnv() (Config, error) {
	var c Config
	c.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("API_BASE_URL")), "/")
	c.AuthBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("AUTH_BASE_URL")), "/")
	c.AuthAPIKey = strings.TrimSpace(os.Getenv("AUTH_API_KEY"))

	c.PaymentProvider = strings.TrimSpace(os.Getenv("PAYMENT_PROVIDER"))
	if c.PaymentProvider == "" {
		c.PaymentProvider = "checkout"
	}
	c.LinkSecret = strings.TrimSpace(os.Getenv("LINK_SECRET"))
	if c.LinkSecret == "" {
		c.LinkSecret = "change-me"
	}

	c.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	c.BasePublicURL = strings.TrimRight(strings.TrimSpace(os.Getenv("BASE_PUBLIC_URL")), "/")

	c.AllowElevatedParticipation = parseBool(os.Getenv("ALLOW_ELEVATED_PARTICIPATION"))

	if c.TelegramToken == "" {
		return c, fmt.Errorf("TELEGRAM_BOT_TOKEN is empty")
	}
	if c.APIBaseURL == "" {
		return c, fmt.Errorf("API_BASE_URL is empty")
	}
	if c.AuthBaseURL == "" {
		return c, fmt.Errorf("AUTH_BASE_URL is empty")
	}

	return c, nil
}

func parseBool(raw string) bool {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
