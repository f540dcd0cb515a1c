package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"comedyuo/showsync/internal/logging"
)

const (
	defaultInviteTitle   = "Comedy Show"
	defaultInviteGuest   = "Guest"
	defaultInviteDate    = "Date TBA"
	defaultInviteTime    = "Time TBA"
	defaultInviteVenue   = "Venue TBA"
	inviteDateLayout     = "Monday, January 2, 2006"
	inviteTimeLayout     = "3:04 PM"
	sendGridMailEndpoint = "/v3/mail/send"
)

var inviteTemplate = template.Must(template.New("invite").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Inter, Arial; background-color: #feffff; margin: 0; padding: 0;">
  <table role="presentation" align="center" style="width: 600px; max-width: 600px; color: #444a5b;">
    <tr>
      <td align="center">
        <p style="font-size: 25px; color: #1a307a;"><strong>{{.Title}}</strong></p>
        <p style="font-size: 22px; color: #1a307a;">{{.Date}}</p>
      </td>
    </tr>
    <tr>
      <td align="center" style="font-size: 18px; line-height: 28px;">
        <p style="color: #1a307a;"><strong>Hi {{.FirstName}}!</strong></p>
        <p>You're invited to {{.Title}}<br />@<br /><b>{{.Location}}</b></p>
        <p>
          {{if .Description}}{{.Description}}<br /><br />{{end}}
          <strong>Event Details:</strong><br />
          {{.Date}}<br />
          Show time: {{.Time}}
        </p>
        <p style="padding: 30px;">
          <a href="{{.TicketURL}}" target="_blank"
             style="padding: 15px; color: white; background-color: #1a307a; border-radius: 5px; text-decoration: none;">
            GET YOUR TICKETS HERE
          </a>
        </p>
        <p style="font-size: 16px;">All lineups are a surprise!</p>
      </td>
    </tr>
  </table>
</body>
</html>
`))

// SendGridOptions configures a SendGridProvider
type SendGridOptions struct {
	APIKey            string
	BaseURL           string
	FromEmail         string
	TicketFallbackURL string
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// SendGridProvider sends invite emails through the SendGrid v3 mail API
type SendGridProvider struct {
	apiKey            string
	baseURL           string
	fromEmail         string
	ticketFallbackURL string
	client            *http.Client
}

var _ EmailSender = (*SendGridProvider)(nil)

func NewSendGridProvider(opts SendGridOptions) *SendGridProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.sendgrid.com"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &SendGridProvider{
		apiKey:            opts.APIKey,
		baseURL:           strings.TrimRight(opts.BaseURL, "/"),
		fromEmail:         opts.FromEmail,
		ticketFallbackURL: opts.TicketFallbackURL,
		client:            client,
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridPersonalization struct {
	To      []sendGridAddress `json:"to"`
	Subject string            `json:"subject"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridMail struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Content          []sendGridContent         `json:"content"`
}

// Send renders the invite and posts it to SendGrid. A non-2xx answer returns
// both the populated result and an error.
func (p *SendGridProvider) Send(ctx context.Context, to string, invite InviteContext) (*SendResult, error) {
	if p.apiKey == "" {
		return nil, ErrEmailNotConfigured
	}

	html, err := p.RenderInvite(invite)
	if err != nil {
		return nil, err
	}

	mail := sendGridMail{
		Personalizations: []sendGridPersonalization{{
			To:      []sendGridAddress{{Email: to}},
			Subject: InviteSubject(invite.Title),
		}},
		From:    sendGridAddress{Email: p.fromEmail},
		Content: []sendGridContent{{Type: "text/html", Value: html}},
	}

	payloadBytes, err := json.Marshal(mail)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mail: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+sendGridMailEndpoint, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send mail: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.Warn("SendGrid rejected invite", "status", resp.StatusCode, "to", to)
		result := &SendResult{
			Status:     "failed",
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
		return result, fmt.Errorf("sendgrid returned HTTP %d", resp.StatusCode)
	}

	return &SendResult{
		Status:     "sent",
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("Email sent successfully to %s", to),
	}, nil
}

// InviteSubject is the subject line for an invite to the given show
func InviteSubject(title string) string {
	if strings.TrimSpace(title) == "" {
		title = defaultInviteTitle
	}
	return fmt.Sprintf("%s - You're Invited!", title)
}

// RenderInvite renders the HTML body with placeholders for missing fields
func (p *SendGridProvider) RenderInvite(invite InviteContext) (string, error) {
	data := struct {
		FirstName   string
		Title       string
		Date        string
		Time        string
		Location    string
		Description string
		TicketURL   string
	}{
		FirstName:   orDefault(invite.FirstName, defaultInviteGuest),
		Title:       orDefault(invite.Title, defaultInviteTitle),
		Date:        defaultInviteDate,
		Time:        defaultInviteTime,
		Location:    orDefault(invite.Location, defaultInviteVenue),
		Description: invite.Description,
		TicketURL:   orDefault(invite.TicketURL, p.ticketFallbackURL),
	}
	if invite.StartTime != nil && !invite.StartTime.IsZero() {
		data.Date = invite.StartTime.UTC().Format(inviteDateLayout)
		data.Time = invite.StartTime.UTC().Format(inviteTimeLayout)
	}

	var buf bytes.Buffer
	if err := inviteTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render invite: %w", err)
	}
	return buf.String(), nil
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
