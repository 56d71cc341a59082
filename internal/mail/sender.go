package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrPermanent marks a rejection that retrying cannot fix, such as a
// malformed recipient or a revoked API key.
var ErrPermanent = errors.New("permanent delivery failure")

type Email struct {
	To             string
	Subject        string
	HTML           string
	IdempotencyKey string
}

type Sender interface {
	Send(ctx context.Context, email Email) error
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// ResendSender delivers through the Resend HTTP API.
type ResendSender struct {
	apiKey string
	url    string
	from   string
	client *http.Client
}

func NewResendSender(apiKey, url, from string, client *http.Client) *ResendSender {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ResendSender{apiKey: apiKey, url: url, from: from, client: client}
}

func (s *ResendSender) Send(ctx context.Context, email Email) error {
	if s.apiKey == "" {
		return fmt.Errorf("%w: RESEND_API_KEY not configured", ErrPermanent)
	}

	body, err := json.Marshal(resendRequest{
		From:    s.from,
		To:      []string{email.To},
		Subject: email.Subject,
		HTML:    email.HTML,
	})
	if err != nil {
		return fmt.Errorf("encoding email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if email.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", email.IdempotencyKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out resendResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			slog.WarnContext(ctx, "resend accepted email but response was unreadable", "error", err)
			return nil
		}
		slog.DebugContext(ctx, "resend accepted email", "provider_message_id", out.ID)
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = fmt.Errorf("resend returned status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrPermanent, err)
	}
	return err
}
