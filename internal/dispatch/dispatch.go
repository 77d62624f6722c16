// Package dispatch sends outgoing messages through Messages.app.
package dispatch

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrTimeout is returned when a send does not finish within its deadline.
	ErrTimeout = errors.New("send timed out")
	// ErrInvalidRecipient is returned for an empty recipient.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrEmptyMessage is returned for blank text.
	ErrEmptyMessage = errors.New("empty message")
)

// Sender delivers text to a recipient: a phone number, an email address,
// or a group chat identifier.
type Sender interface {
	Send(ctx context.Context, recipient, text string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, recipient, text string) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, recipient, text string) error {
	return f(ctx, recipient, text)
}

// Validate rejects sends that can never succeed.
func Validate(recipient, text string) error {
	if strings.TrimSpace(recipient) == "" {
		return ErrInvalidRecipient
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	return nil
}
