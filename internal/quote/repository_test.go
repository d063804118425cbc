package quote

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestStatusUpdateQuery(t *testing.T) {
	id := uuid.Must(uuid.FromString("550e8400-e29b-41d4-a716-446655440000"))
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name            string
		newStatus       QuoteStatus
		rejectionReason string
		wantQuery       string
		wantArgs        []any
	}{
		{
			name:      "status without lifecycle column",
			newStatus: StatusPending,
			wantQuery: `UPDATE quotes SET status = $1, updated_at = $2 WHERE id = $3`,
			wantArgs:  []any{"pending", now, id},
		},
		{
			name:      "sent stamps sent_at through coalesce",
			newStatus: StatusSent,
			wantQuery: `UPDATE quotes SET status = $1, updated_at = $2, sent_at = COALESCE(sent_at, $2) WHERE id = $3`,
			wantArgs:  []any{"sent", now, id},
		},
		{
			name:      "accepted stamps accepted_at",
			newStatus: StatusAccepted,
			wantQuery: `UPDATE quotes SET status = $1, updated_at = $2, accepted_at = COALESCE(accepted_at, $2) WHERE id = $3`,
			wantArgs:  []any{"accepted", now, id},
		},
		{
			name:      "converted stamps converted_at",
			newStatus: StatusConverted,
			wantQuery: `UPDATE quotes SET status = $1, updated_at = $2, converted_at = COALESCE(converted_at, $2) WHERE id = $3`,
			wantArgs:  []any{"converted", now, id},
		},
		{
			name:            "rejected shifts id placeholder after the reason",
			newStatus:       StatusRejected,
			rejectionReason: "Price too high",
			wantQuery:       `UPDATE quotes SET status = $1, updated_at = $2, rejected_at = COALESCE(rejected_at, $2), rejection_reason = $3 WHERE id = $4`,
			wantArgs:        []any{"rejected", now, "Price too high", id},
		},
		{
			name:      "rejected with empty reason still writes the column",
			newStatus: StatusRejected,
			wantQuery: `UPDATE quotes SET status = $1, updated_at = $2, rejected_at = COALESCE(rejected_at, $2), rejection_reason = $3 WHERE id = $4`,
			wantArgs:  []any{"rejected", now, "", id},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := statusUpdateQuery(id, tt.newStatus, tt.rejectionReason, now)
			assert.Equal(t, tt.wantQuery, query, "Query should match")
			assert.Equal(t, tt.wantArgs, args, "Args should match")
		})
	}
}

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	host := os.Getenv("DB_HOST")
	if host != "" {
		connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, os.Getenv("DB_PORT"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"), os.Getenv("DB_SSLMODE"))

		var err error
		testDB, err = pgxpool.New(context.Background(), connStr)
		if err != nil {
			log.Fatalf("Failed to connect to test database: %v", err)
		}
	}

	exitCode := m.Run()

	if testDB != nil {
		testDB.Close()
	}

	os.Exit(exitCode)
}

func setupRepo(t *testing.T) Repository {
	if testDB == nil {
		t.Skip("DB_HOST not set, skipping database tests")
	}

	truncate := func() {
		_, err := testDB.Exec(context.Background(), "TRUNCATE TABLE quotes, quote_line_items, quote_status_history, activity_log")
		if err != nil {
			t.Fatalf("Failed to truncate tables: %v", err)
		}
	}
	truncate()
	t.Cleanup(truncate)

	return NewRepository(testDB)
}

func storedQuote(number string) *Quote {
	validUntil := time.Now().UTC().Add(14 * 24 * time.Hour)
	return &Quote{
		Number: number,
		Status: StatusDraft,
		Customer: Customer{
			Name:  "Acme Corp",
			Email: "buyer@acme.example",
		},
		Subtotal: 200.00,
		TaxTotal: 16.00,
		Total:    216.00,
		Currency: "USD",
		LineItems: []LineItem{
			{Name: "Widget", Quantity: 2, UnitPrice: 100.00, TaxRate: 8},
		},
		ValidUntil: &validUntil,
	}
}

func TestPostgresRepository_CreateAndGetQuote(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	q := storedQuote("Q-CREATE01")
	err := repo.CreateQuote(ctx, q)
	assert.NoError(t, err, "CreateQuote should not return an error")
	assert.NotEqual(t, uuid.Nil, q.ID, "CreateQuote should assign an id")

	got, err := repo.GetQuoteByID(ctx, q.ID)
	assert.NoError(t, err, "GetQuoteByID should not return an error")
	if assert.NotNil(t, got, "Retrieved quote should not be nil") {
		assert.Equal(t, q.Number, got.Number, "Number should match")
		assert.Equal(t, StatusDraft, got.Status, "Status should match")
		assert.Equal(t, q.Customer.Email, got.Customer.Email, "Customer email should match")
		assert.Len(t, got.LineItems, 1, "Line items should round-trip")
		assert.Nil(t, got.SentAt, "A fresh quote should have no sent_at")
	}
}

func TestPostgresRepository_CreateQuote_DuplicateNumber(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	err := repo.CreateQuote(ctx, storedQuote("Q-DUP00001"))
	assert.NoError(t, err, "First CreateQuote should not return an error")

	err = repo.CreateQuote(ctx, storedQuote("Q-DUP00001"))
	assert.ErrorIs(t, err, ErrDuplicateQuoteNumber, "Second CreateQuote with the same number should fail")
}

func TestPostgresRepository_UpdateQuoteStatus_StampsTimestampOnce(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	q := storedQuote("Q-STAMP001")
	err := repo.CreateQuote(ctx, q)
	assert.NoError(t, err, "CreateQuote should not return an error")

	err = repo.UpdateQuoteStatus(ctx, q.ID, StatusSent, "")
	assert.NoError(t, err, "First status update should not return an error")

	got, err := repo.GetQuoteByID(ctx, q.ID)
	assert.NoError(t, err, "GetQuoteByID should not return an error")
	if !assert.NotNil(t, got.SentAt, "sent_at should be stamped on first entry") {
		return
	}
	firstSentAt := *got.SentAt

	// Returning to the same status must keep the first recorded time.
	err = repo.UpdateQuoteStatus(ctx, q.ID, StatusSent, "")
	assert.NoError(t, err, "Second status update should not return an error")

	got, err = repo.GetQuoteByID(ctx, q.ID)
	assert.NoError(t, err, "GetQuoteByID should not return an error")
	if assert.NotNil(t, got.SentAt, "sent_at should still be set") {
		assert.Equal(t, firstSentAt, *got.SentAt, "sent_at should not be overwritten on re-entry")
	}
	assert.Nil(t, got.AcceptedAt, "accepted_at should stay unset")

	err = repo.UpdateQuoteStatus(ctx, q.ID, StatusAccepted, "")
	assert.NoError(t, err, "Accepting should not return an error")

	got, err = repo.GetQuoteByID(ctx, q.ID)
	assert.NoError(t, err, "GetQuoteByID should not return an error")
	assert.Equal(t, StatusAccepted, got.Status, "Status should be accepted")
	assert.NotNil(t, got.AcceptedAt, "accepted_at should be stamped")
	if assert.NotNil(t, got.SentAt, "sent_at should survive later transitions") {
		assert.Equal(t, firstSentAt, *got.SentAt, "sent_at should be unchanged after accepting")
	}
}

func TestPostgresRepository_UpdateQuoteStatus_RejectionReason(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	q := storedQuote("Q-REJECT01")
	err := repo.CreateQuote(ctx, q)
	assert.NoError(t, err, "CreateQuote should not return an error")

	err = repo.UpdateQuoteStatus(ctx, q.ID, StatusSent, "ignored outside rejection")
	assert.NoError(t, err, "Sending should not return an error")

	got, err := repo.GetQuoteByID(ctx, q.ID)
	assert.NoError(t, err, "GetQuoteByID should not return an error")
	assert.Empty(t, got.RejectionReason, "Non-rejected updates should not store a reason")

	err = repo.UpdateQuoteStatus(ctx, q.ID, StatusRejected, "Price too high")
	assert.NoError(t, err, "Rejecting should not return an error")

	got, err = repo.GetQuoteByID(ctx, q.ID)
	assert.NoError(t, err, "GetQuoteByID should not return an error")
	assert.Equal(t, StatusRejected, got.Status, "Status should be rejected")
	assert.Equal(t, "Price too high", got.RejectionReason, "Rejection reason should be stored")
	assert.NotNil(t, got.RejectedAt, "rejected_at should be stamped")
}

func TestPostgresRepository_UpdateQuoteStatus_NotFound(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	missing := uuid.Must(uuid.NewV4())
	err := repo.UpdateQuoteStatus(ctx, missing, StatusSent, "")
	assert.ErrorIs(t, err, ErrQuoteNotFound, "Updating a missing quote should report not found")
}
