package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotegen/quote-service/internal/quote"
)

func sampleQuote() *quote.Quote {
	return &quote.Quote{
		ID:       uuid.Must(uuid.NewV4()),
		Number:   "Q-ABCD1234",
		Status:   quote.StatusSent,
		Customer: quote.Customer{Name: "Acme Corp", Email: "buyer@acme.example"},
		Total:    194.40,
		Currency: "USD",
	}
}

func TestEmailNotifier_PostsToProvider(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/send", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewEmailNotifier(srv.URL, "quotes@quotegen.example")
	q := sampleQuote()
	change := quote.NewStatusChange(q.ID, quote.StatusDraft, quote.StatusSent, "u1", "Alice", "", nil)

	err := n.NotifyStatusChange(context.Background(), q, change)
	require.NoError(t, err)

	assert.Equal(t, "buyer@acme.example", got.To)
	assert.Equal(t, "quotes@quotegen.example", got.From)
	assert.Contains(t, got.Subject, "Q-ABCD1234")
	assert.Contains(t, got.Body, "Acme Corp")
}

func TestEmailNotifier_ReusesConnection(t *testing.T) {
	var remoteAddrs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remoteAddrs = append(remoteAddrs, r.RemoteAddr)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"queued"}`))
	}))
	defer srv.Close()

	n := NewEmailNotifier(srv.URL, "quotes@quotegen.example")
	q := sampleQuote()
	change := quote.NewStatusChange(q.ID, quote.StatusDraft, quote.StatusSent, "u1", "Alice", "", nil)

	require.NoError(t, n.NotifyStatusChange(context.Background(), q, change))
	require.NoError(t, n.NotifyStatusChange(context.Background(), q, change))

	// The response body is drained before close, so the second request
	// arrives on the same keep-alive connection.
	require.Len(t, remoteAddrs, 2)
	assert.Equal(t, remoteAddrs[0], remoteAddrs[1])
}

func TestEmailNotifier_ProviderErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewEmailNotifier(srv.URL, "quotes@quotegen.example")
	q := sampleQuote()
	change := quote.NewStatusChange(q.ID, quote.StatusDraft, quote.StatusSent, "u1", "Alice", "", nil)

	err := n.NotifyStatusChange(context.Background(), q, change)
	assert.Error(t, err)
}

func TestRenderStatusEmail(t *testing.T) {
	q := sampleQuote()

	tests := []struct {
		to          quote.QuoteStatus
		comment     string
		wantSubject string
		wantInBody  string
	}{
		{quote.StatusSent, "", "ready", "194.40 USD"},
		{quote.StatusAccepted, "", "accepted", "Thank you"},
		{quote.StatusRejected, "too expensive", "declined", "declined"},
		{quote.StatusConverted, "see order", "updated", "see order"},
	}

	for _, tt := range tests {
		change := quote.NewStatusChange(q.ID, quote.StatusSent, tt.to, "u1", "Alice", tt.comment, nil)
		subject, body := renderStatusEmail(q, change)
		assert.Contains(t, subject, tt.wantSubject, "status %s", tt.to)
		assert.Contains(t, body, tt.wantInBody, "status %s", tt.to)
	}
}
