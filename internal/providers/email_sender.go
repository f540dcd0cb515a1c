package providers

import (
	"context"
	"errors"
	"time"
)

// ErrEmailNotConfigured is returned when no mail API key is set
var ErrEmailNotConfigured = errors.New("email service not configured")

// EmailSender delivers show invitations
type EmailSender interface {
	Send(ctx context.Context, to string, invite InviteContext) (*SendResult, error)
}

// InviteContext is the data rendered into an invite email.
// Empty fields are replaced by placeholders when rendering.
type InviteContext struct {
	FirstName   string
	Title       string
	StartTime   *time.Time
	Location    string
	Description string
	TicketURL   string
}

// SendResult reports the mail provider's answer
type SendResult struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
