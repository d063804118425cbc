package pdf

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotegen/quote-service/internal/quote"
)

func TestGenerator_Generate(t *testing.T) {
	validUntil := time.Now().AddDate(0, 1, 0)
	q := quote.Quote{
		ID:         uuid.Must(uuid.NewV4()),
		Number:     "Q-ABCD1234",
		Status:     quote.StatusDraft,
		Customer:   quote.Customer{Name: "Acme Corp", Email: "buyer@acme.example"},
		Currency:   "USD",
		ValidUntil: &validUntil,
		Terms:      "Net 30. Prices valid for 30 days.",
		CreatedAt:  time.Now(),
		LineItems: []quote.LineItem{
			{Name: "Widget", Quantity: 2, UnitPrice: 100, DiscountPercent: 10, TaxRate: 8},
			{Name: "A very long line item name that will not fit in the table column at all", Quantity: 1, UnitPrice: 9.99},
		},
		Subtotal:      189.99,
		TaxTotal:      15.20,
		ShippingTotal: 5,
		Total:         210.19,
	}

	data, err := New("QuoteGen").Generate(q)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestTrim(t *testing.T) {
	assert.Equal(t, "short", trim("short", 10))
	assert.Equal(t, "exactlyten", trim("exactlyten", 10))
	assert.Equal(t, "abcd...", trim("abcdefghij", 5))
}
