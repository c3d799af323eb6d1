package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rpupo63/reel-marketplace-backend/config"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultResendBaseURL = "https://api.resend.com"

// ResendEmailRequest represents the request payload for Resend API
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// ResendEmailResponse represents the response from Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// ResendErrorResponse represents an error response from Resend API
type ResendErrorResponse struct {
	Message string `json:"message"`
}

// EmailNotifier tells project participants about lifecycle events through Resend
type EmailNotifier struct {
	apiKey    string
	fromEmail string
	baseURL   string
	appURL    string
	client    *http.Client
	logger    zerolog.Logger
}

// NewEmailNotifier reads RESEND_API_KEY, RESEND_FROM_EMAIL, RESEND_BASE_URL and APP_URL.
// It fails when the key or sender is missing so callers can fall back to lifecycle.NopNotifier.
func NewEmailNotifier(cfg map[string]string) (*EmailNotifier, error) {
	apiKey := config.GetString(cfg, "RESEND_API_KEY", "")
	if apiKey == "" {
		return nil, errs.NewConfigError("RESEND_API_KEY", errs.ErrMissingRequiredField)
	}
	fromEmail := config.GetString(cfg, "RESEND_FROM_EMAIL", "")
	if fromEmail == "" {
		return nil, errs.NewConfigError("RESEND_FROM_EMAIL", errs.ErrMissingRequiredField)
	}

	return &EmailNotifier{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		baseURL:   strings.TrimRight(config.GetString(cfg, "RESEND_BASE_URL", defaultResendBaseURL), "/"),
		appURL:    strings.TrimRight(config.GetString(cfg, "APP_URL", ""), "/"),
		client:    &http.Client{Timeout: config.GetDuration(cfg, "RESEND_TIMEOUT_SECONDS", 10*time.Second)},
		logger:    log.With().Str("component", "email").Logger(),
	}, nil
}

// Notify implements lifecycle.Notifier
func (n *EmailNotifier) Notify(ctx context.Context, event lifecycle.Event) error {
	if event.Recipient == nil || event.Recipient.Email == "" {
		return nil
	}
	subject, body := n.render(event)
	return n.SendEmail(ctx, subject, body, []string{event.Recipient.Email})
}

func (n *EmailNotifier) render(event lifecycle.Event) (subject, body string) {
	title := html.EscapeString(event.Project.Title)

	switch event.Type {
	case lifecycle.EventClaimed:
		subject = fmt.Sprintf("An editor picked up %q", event.Project.Title)
		body = fmt.Sprintf("<p>An editor has claimed <strong>%s</strong> and started working on it.</p>", title)
	case lifecycle.EventVersionSubmitted:
		number := 0
		if event.Version != nil {
			number = event.Version.VersionNumber
		}
		subject = fmt.Sprintf("Version %d of %q is ready", number, event.Project.Title)
		body = fmt.Sprintf("<p>Version %d of <strong>%s</strong> is ready for review.</p>", number, title)
		if event.Version != nil && event.Version.EditorNotes != nil {
			body += fmt.Sprintf("<p>Editor notes: %s</p>", html.EscapeString(*event.Version.EditorNotes))
		}
	case lifecycle.EventApproved:
		subject = fmt.Sprintf("%q was approved", event.Project.Title)
		body = fmt.Sprintf("<p>The creator approved your edit of <strong>%s</strong>.</p>", title)
	case lifecycle.EventCancelled:
		subject = fmt.Sprintf("%q was cancelled", event.Project.Title)
		body = fmt.Sprintf("<p>The creator cancelled <strong>%s</strong>.</p>", title)
	default:
		subject = fmt.Sprintf("Update on %q", event.Project.Title)
		body = fmt.Sprintf("<p>There is an update on <strong>%s</strong>.</p>", title)
	}

	if n.appURL != "" {
		link := fmt.Sprintf("%s/project/%s", n.appURL, event.Project.ID)
		body += fmt.Sprintf(`<p><a href="%s">Open the project</a></p>`, html.EscapeString(link))
	}
	return subject, body
}

// SendEmail sends an HTML email through the Resend API
func (n *EmailNotifier) SendEmail(ctx context.Context, subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return errs.NewMissingRequiredFieldError("recipients")
	}

	payload := ResendEmailRequest{
		From:    n.fromEmail,
		To:      recipients,
		Subject: subject,
		Html:    body,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/emails", bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create Resend API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errs.NewServiceUnreachableError("resend", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Resend API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ResendErrorResponse
		if err := json.Unmarshal(bodyBytes, &errorResp); err == nil && errorResp.Message != "" {
			return errs.NewUpstreamRejectedError("resend", resp.StatusCode, errorResp.Message)
		}
		return errs.NewUpstreamRejectedError("resend", resp.StatusCode, string(bodyBytes))
	}

	var emailResponse ResendEmailResponse
	if err := json.Unmarshal(bodyBytes, &emailResponse); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to parse Resend email response, but email was sent")
	} else {
		n.logger.Info().Str("emailId", emailResponse.ID).Msg("Successfully sent email via Resend")
	}
	return nil
}
