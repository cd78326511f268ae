// Package notify delivers new-upload notifications to the mailer service.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// requestTimeout bounds one call to the mailer service.
const requestTimeout = 2 * time.Second

// templateNewUpload is the mailer template for new uploads.
const templateNewUpload = "new_upload"

// Mock logs notifications instead of sending them.
type Mock struct {
	logger *slog.Logger
}

// NewMock creates a Mock.
func NewMock(logger *slog.Logger) *Mock {
	return &Mock{logger: logger.With(slog.String("component", "mail"))}
}

// NewUpload logs the notification.
func (m *Mock) NewUpload(_ context.Context, url, email string) error {
	m.logger.Debug("new upload mail", slog.String("url", url), slog.String("email", email))
	m.logger.Info("[mock] new upload mail sent")
	return nil
}

// Mailer posts notifications to the mailer service.
type Mailer struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewMailer creates a Mailer that posts to endpoint.
func NewMailer(endpoint string, logger *slog.Logger) *Mailer {
	return &Mailer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: requestTimeout},
		logger:   logger.With(slog.String("component", "mail")),
	}
}

type mailRequest struct {
	URL      string `json:"url"`
	Email    string `json:"email"`
	Template string `json:"template"`
}

// NewUpload asks the mailer service to send the new_upload template to
// email. Any status other than 200, 201 or 202 is an error.
func (m *Mailer) NewUpload(ctx context.Context, url, email string) error {
	body, err := json.Marshal(mailRequest{URL: url, Email: email, Template: templateNewUpload})
	if err != nil {
		return fmt.Errorf("encode mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail request: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		m.logger.Info("new upload mail sent")
		m.logger.Debug("mailer response", slog.String("body", string(respBody)))
		return nil
	default:
		return fmt.Errorf("mailer responded %d: %s", resp.StatusCode, respBody)
	}
}

// Sender delivers new-upload notifications.
type Sender interface {
	NewUpload(ctx context.Context, url, email string) error
}

// New returns a Mock for mode "" or "mock", otherwise a Mailer posting to
// mode.
func New(mode string, logger *slog.Logger) Sender {
	if mode == "" || mode == "mock" {
		return NewMock(logger)
	}
	return NewMailer(mode, logger)
}
