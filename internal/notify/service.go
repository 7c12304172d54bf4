package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/containrrr/shoutrrr"
	"github.com/containrrr/shoutrrr/pkg/types"
)

const titleParam = "title"

// Service sends notifications to shoutrrr service URLs
// (discord://, slack://, generic+https://, ...).
type Service struct {
	send func(destination, body string, params types.Params) error
}

// NewService creates a Service sender.
func NewService() *Service {
	return &Service{send: sendShoutrrr}
}

// Send delivers msg to destination. The call is abandoned when ctx is done.
func (s *Service) Send(ctx context.Context, destination string, msg Message) error {
	params := types.Params{}
	if msg.Title != "" {
		params[titleParam] = msg.Title
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.send(destination, msg.Body, params)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func sendShoutrrr(destination, body string, params types.Params) error {
	sender, err := shoutrrr.CreateSender(destination)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedDestination, err)
	}
	if err := errors.Join(sender.Send(body, &params)...); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}
