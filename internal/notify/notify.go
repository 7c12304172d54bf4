// Package notify delivers formatted notifications to destinations.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnsupportedDestination is returned when no transport handles a destination.
var ErrUnsupportedDestination = errors.New("unsupported destination")

// Message is a single notification.
type Message struct {
	Title          string
	Body           string
	DisablePreview bool
}

// Sender delivers a message to one destination.
type Sender interface {
	Send(ctx context.Context, destination string, msg Message) error
}

// Router picks a transport by destination scheme: tg:// goes to the
// Telegram bot, everything else to the service-URL transport.
type Router struct {
	telegram Sender
	service  Sender
}

// NewRouter creates a Router. telegram may be nil when no bot token is configured.
func NewRouter(telegram, service Sender) *Router {
	return &Router{telegram: telegram, service: service}
}

// Validate reports whether destination can be delivered by this router.
func (r *Router) Validate(destination string) error {
	_, err := r.route(destination)
	return err
}

// Send delivers msg to destination.
func (r *Router) Send(ctx context.Context, destination string, msg Message) error {
	s, err := r.route(destination)
	if err != nil {
		return err
	}
	return s.Send(ctx, destination, msg)
}

func (r *Router) route(destination string) (Sender, error) {
	u, err := url.Parse(destination)
	if err != nil || u.Scheme == "" {
		return nil, fmt.Errorf("%w: missing scheme", ErrUnsupportedDestination)
	}
	if strings.EqualFold(u.Scheme, TelegramScheme) {
		if r.telegram == nil {
			return nil, fmt.Errorf("%w: %s:// requires a telegram bot token", ErrUnsupportedDestination, TelegramScheme)
		}
		return r.telegram, nil
	}
	if r.service == nil {
		return nil, fmt.Errorf("%w: %s://", ErrUnsupportedDestination, u.Scheme)
	}
	return r.service, nil
}
