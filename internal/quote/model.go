package quote

import (
	"time"

	"github.com/gofrs/uuid"
)

type QuoteStatus string

const (
	StatusDraft     QuoteStatus = "draft"
	StatusPending   QuoteStatus = "pending"
	StatusSent      QuoteStatus = "sent"
	StatusViewed    QuoteStatus = "viewed"
	StatusAccepted  QuoteStatus = "accepted"
	StatusRejected  QuoteStatus = "rejected"
	StatusExpired   QuoteStatus = "expired"
	StatusConverted QuoteStatus = "converted"
)

func (s QuoteStatus) String() string {
	return string(s)
}

// Valid reports whether s is a member of the status enumeration.
func (s QuoteStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusSent, StatusViewed,
		StatusAccepted, StatusRejected, StatusExpired, StatusConverted:
		return true
	}
	return false
}

type Customer struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`
}

type LineItem struct {
	ID              uuid.UUID `json:"id" db:"id"`
	QuoteID         uuid.UUID `json:"quote_id" db:"quote_id"`
	ProductID       string    `json:"product_id,omitempty" db:"product_id"`
	Name            string    `json:"name" db:"name"`
	Quantity        float64   `json:"quantity" db:"quantity"`
	UnitPrice       float64   `json:"unit_price" db:"unit_price"`
	DiscountPercent float64   `json:"discount_percent" db:"discount_percent"`
	TaxRate         float64   `json:"tax_rate" db:"tax_rate"`
}

// Subtotal is quantity times unit price, before any discount.
func (li LineItem) Subtotal() float64 {
	return li.Quantity * li.UnitPrice
}

func (li LineItem) Discount() float64 {
	return li.Subtotal() * li.DiscountPercent / 100
}

// Taxable is the line subtotal net of the line discount.
func (li LineItem) Taxable() float64 {
	return li.Subtotal() - li.Discount()
}

func (li LineItem) Tax() float64 {
	return li.Taxable() * li.TaxRate / 100
}

func (li LineItem) Total() float64 {
	return li.Taxable() + li.Tax()
}

type Quote struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	Number          string      `json:"number" db:"number"`
	Status          QuoteStatus `json:"status" db:"status"`
	Customer        Customer    `json:"customer"`
	LineItems       []LineItem  `json:"line_items" db:"-"`
	Subtotal        float64     `json:"subtotal" db:"subtotal"`
	DiscountTotal   float64     `json:"discount_total" db:"discount_total"`
	TaxTotal        float64     `json:"tax_total" db:"tax_total"`
	ShippingTotal   float64     `json:"shipping_total" db:"shipping_total"`
	Total           float64     `json:"total" db:"total"`
	Currency        string      `json:"currency" db:"currency"`
	Terms           string      `json:"terms,omitempty" db:"terms"`
	Notes           string      `json:"notes,omitempty" db:"notes"`
	ValidUntil      *time.Time  `json:"valid_until,omitempty" db:"valid_until"`
	SentAt          *time.Time  `json:"sent_at,omitempty" db:"sent_at"`
	ViewedAt        *time.Time  `json:"viewed_at,omitempty" db:"viewed_at"`
	AcceptedAt      *time.Time  `json:"accepted_at,omitempty" db:"accepted_at"`
	RejectedAt      *time.Time  `json:"rejected_at,omitempty" db:"rejected_at"`
	ConvertedAt     *time.Time  `json:"converted_at,omitempty" db:"converted_at"`
	RejectionReason string      `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// StatusChange is one immutable audit entry for an accepted transition.
type StatusChange struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	QuoteID    uuid.UUID      `json:"quote_id" db:"quote_id"`
	FromStatus QuoteStatus    `json:"from_status" db:"from_status"`
	ToStatus   QuoteStatus    `json:"to_status" db:"to_status"`
	ActorID    string         `json:"actor_id" db:"actor_id"`
	ActorName  string         `json:"actor_name" db:"actor_name"`
	Comment    string         `json:"comment,omitempty" db:"comment"`
	Metadata   map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

type ActivityType string

const (
	ActivityQuoteCreated   ActivityType = "quote_created"
	ActivityQuoteSent      ActivityType = "quote_sent"
	ActivityQuoteViewed    ActivityType = "quote_viewed"
	ActivityQuoteAccepted  ActivityType = "quote_accepted"
	ActivityQuoteRejected  ActivityType = "quote_rejected"
	ActivityQuoteExpired   ActivityType = "quote_expired"
	ActivityQuoteConverted ActivityType = "quote_converted"
	ActivityStatusChanged  ActivityType = "status_changed"
)

// Activity is a best-effort log entry; losing one never fails a request.
type Activity struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	QuoteID   uuid.UUID    `json:"quote_id" db:"quote_id"`
	Type      ActivityType `json:"type" db:"activity_type"`
	ActorID   string       `json:"actor_id" db:"actor_id"`
	ActorName string       `json:"actor_name" db:"actor_name"`
	Detail    string       `json:"detail,omitempty" db:"detail"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}
