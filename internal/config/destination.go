package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Destination errors.
var (
	ErrRawWebhook         = errors.New("raw Discord webhook URLs are not supported, use a service URL like discord://<token>@<id>")
	ErrInvalidDestination = errors.New("invalid destination")
)

// ValidateDestination checks that raw is a notification service URL
// (discord://, slack://, tg://, generic+https://, ...).
// Plain http(s) endpoints are rejected. Errors never echo the URL since
// destinations usually embed credentials.
func ValidateDestination(raw string) error {
	if strings.HasPrefix(raw, "https://discord.com/api/webhooks/") ||
		strings.Contains(raw, "discordapp.com/api/webhooks") {
		return ErrRawWebhook
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: malformed URL", ErrInvalidDestination)
	}
	switch strings.ToLower(u.Scheme) {
	case "":
		return fmt.Errorf("%w: missing service scheme", ErrInvalidDestination)
	case "http", "https":
		return fmt.Errorf("%w: plain web URL, use generic+%s://", ErrInvalidDestination, u.Scheme)
	}
	return nil
}
