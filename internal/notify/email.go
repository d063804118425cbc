// Package notify delivers customer-facing emails through the external email
// provider's HTTP API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quotegen/quote-service/internal/quote"
)

type EmailNotifier struct {
	serviceURL string
	from       string
	client     *http.Client
}

func NewEmailNotifier(serviceURL, from string) *EmailNotifier {
	return &EmailNotifier{
		serviceURL: serviceURL,
		from:       from,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (n *EmailNotifier) NotifyStatusChange(ctx context.Context, q *quote.Quote, change quote.StatusChange) error {
	subject, body := renderStatusEmail(q, change)

	payload, err := json.Marshal(sendRequest{
		From:    n.from,
		To:      q.Customer.Email,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("notify: failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.serviceURL+"/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: email provider request failed: %w", err)
	}
	defer func() {
		// Drain so the keep-alive connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: email provider returned status %d", resp.StatusCode)
	}

	log.Debug().Str("to", q.Customer.Email).Str("quote", q.Number).Msg("notify: status email dispatched")
	return nil
}

func renderStatusEmail(q *quote.Quote, change quote.StatusChange) (subject, body string) {
	switch change.ToStatus {
	case quote.StatusSent:
		subject = fmt.Sprintf("Your quote %s is ready", q.Number)
		body = fmt.Sprintf("Hi %s,\n\nQuote %s for %.2f %s is ready for your review.",
			q.Customer.Name, q.Number, q.Total, q.Currency)
	case quote.StatusAccepted:
		subject = fmt.Sprintf("Quote %s accepted", q.Number)
		body = fmt.Sprintf("Hi %s,\n\nThank you for accepting quote %s. We will be in touch shortly.",
			q.Customer.Name, q.Number)
	case quote.StatusRejected:
		subject = fmt.Sprintf("Quote %s declined", q.Number)
		body = fmt.Sprintf("Hi %s,\n\nQuote %s has been marked as declined.", q.Customer.Name, q.Number)
	default:
		subject = fmt.Sprintf("Quote %s updated", q.Number)
		body = fmt.Sprintf("Hi %s,\n\nQuote %s is now %s.", q.Customer.Name, q.Number, change.ToStatus)
	}
	if change.Comment != "" && change.ToStatus != quote.StatusRejected {
		body += "\n\n" + change.Comment
	}
	return subject, body
}

// Nop discards notifications; used when no email provider is configured.
type Nop struct{}

func (Nop) NotifyStatusChange(ctx context.Context, q *quote.Quote, change quote.StatusChange) error {
	log.Debug().Str("quote", q.Number).Str("to_status", string(change.ToStatus)).Msg("notify: no email provider configured, dropping notification")
	return nil
}
