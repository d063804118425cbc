package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// Storage failure classes. The audit write is more critical than the quote
// mutation that follows it: a history failure aborts before the quote is
// touched, while a mutation failure after a committed history row leaves an
// inconsistency that is logged but not compensated.
var (
	ErrQuoteFetch   = errors.New("failed to fetch quote")
	ErrHistoryWrite = errors.New("failed to record status history")
	ErrQuoteUpdate  = errors.New("failed to update quote status")
)

// Notifier delivers customer-facing messages about a status change. Failures
// are treated as best-effort by the service.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, q *Quote, change StatusChange) error
}

// PDFGenerator renders a quote document.
type PDFGenerator interface {
	Generate(q Quote) ([]byte, error)
}

type StatusChangeInput struct {
	Status         QuoteStatus
	Comment        string
	Metadata       map[string]any
	NotifyCustomer bool
	ActorID        string
	ActorName      string
}

type Service interface {
	CreateQuote(ctx context.Context, form QuoteForm) (*Quote, error)
	GetQuote(ctx context.Context, id uuid.UUID) (*Quote, error)
	GetQuoteWithHistory(ctx context.Context, id uuid.UUID) (*Quote, []StatusChange, error)
	ListQuotes(ctx context.Context, filter ListFilter) ([]Quote, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, input StatusChangeInput) (*Quote, *StatusChange, error)
	RenderPDF(ctx context.Context, id uuid.UUID) ([]byte, error)
	ExpireStale(ctx context.Context) (int, error)
}

type service struct {
	repo     Repository
	notifier Notifier
	pdf      PDFGenerator
}

func NewService(repo Repository, notifier Notifier, pdf PDFGenerator) Service {
	return &service{
		repo:     repo,
		notifier: notifier,
		pdf:      pdf,
	}
}

func (s *service) CreateQuote(ctx context.Context, form QuoteForm) (*Quote, error) {
	if errs := ValidateQuoteForm(form); len(errs) > 0 {
		log.Warn().Int("field_count", len(errs)).Msg("service: rejected invalid quote form")
		return nil, &ValidationError{Fields: errs}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate quote id: %w", err)
	}

	calc := CalculateTotals(form.LineItems, form.DiscountTotal, form.TaxRate)

	currency := form.Currency
	if currency == "" {
		currency = "USD"
	}

	q := &Quote{
		ID:            id,
		Number:        "Q-" + strings.ToUpper(id.String()[:8]),
		Status:        StatusDraft,
		Customer:      form.Customer,
		LineItems:     form.LineItems,
		Subtotal:      calc.Subtotal,
		DiscountTotal: calc.DiscountTotal,
		TaxTotal:      calc.TaxTotal,
		ShippingTotal: round2(form.ShippingTotal),
		Total:         round2(calc.Total + form.ShippingTotal),
		Currency:      currency,
		Terms:         form.Terms,
		Notes:         form.Notes,
		ValidUntil:    form.ValidUntil,
	}

	if err := s.repo.CreateQuote(ctx, q); err != nil {
		if errors.Is(err, ErrDuplicateQuoteNumber) {
			return nil, ErrDuplicateQuoteNumber
		}
		log.Error().Err(err).Msg("service: failed to create quote in repository")
		return nil, fmt.Errorf("service: failed to create quote: %w", err)
	}

	s.recordActivity(ctx, Activity{
		QuoteID:   q.ID,
		Type:      ActivityQuoteCreated,
		ActorID:   "system",
		ActorName: "System",
		Detail:    fmt.Sprintf("quote %s created", q.Number),
	})

	log.Info().Stringer("quote_id", q.ID).Str("number", q.Number).Msg("service: quote created")

	return q, nil
}

func (s *service) GetQuote(ctx context.Context, id uuid.UUID) (*Quote, error) {
	q, err := s.repo.GetQuoteByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrQuoteNotFound) {
			return nil, ErrQuoteNotFound
		}
		log.Error().Err(err).Stringer("quote_id", id).Msg("service: failed to fetch quote")
		return nil, fmt.Errorf("%w: %v", ErrQuoteFetch, err)
	}
	return q, nil
}

func (s *service) GetQuoteWithHistory(ctx context.Context, id uuid.UUID) (*Quote, []StatusChange, error) {
	q, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.repo.ListStatusChanges(ctx, id)
	if err != nil {
		log.Error().Err(err).Stringer("quote_id", id).Msg("service: failed to fetch status history")
		return nil, nil, fmt.Errorf("%w: %v", ErrQuoteFetch, err)
	}

	return q, history, nil
}

func (s *service) ListQuotes(ctx context.Context, filter ListFilter) ([]Quote, error) {
	quotes, err := s.repo.ListQuotes(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list quotes")
		return nil, fmt.Errorf("%w: %v", ErrQuoteFetch, err)
	}
	return quotes, nil
}

// ChangeStatus runs the full transition: validate, write the audit record,
// mutate the quote, then fire best-effort side effects. The transition commits
// fully (status + audit record) or is rejected before any write.
func (s *service) ChangeStatus(ctx context.Context, id uuid.UUID, input StatusChangeInput) (*Quote, *StatusChange, error) {
	current, err := s.repo.GetQuoteByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrQuoteNotFound) {
			return nil, nil, ErrQuoteNotFound
		}
		log.Error().Err(err).Stringer("quote_id", id).Msg("service: failed to fetch quote for status change")
		return nil, nil, fmt.Errorf("%w: %v", ErrQuoteFetch, err)
	}

	if err := ValidateTransition(current.Status, input.Status); err != nil {
		log.Warn().
			Stringer("quote_id", id).
			Str("from", string(current.Status)).
			Str("to", string(input.Status)).
			Msg("service: invalid status transition attempt")
		return nil, nil, err
	}

	change := NewStatusChange(id, current.Status, input.Status, input.ActorID, input.ActorName, input.Comment, input.Metadata)

	if err := s.repo.InsertStatusChange(ctx, change); err != nil {
		log.Error().Err(err).Stringer("quote_id", id).Msg("service: failed to write status history, aborting transition")
		return nil, nil, fmt.Errorf("%w: %v", ErrHistoryWrite, err)
	}

	rejectionReason := ""
	if input.Status == StatusRejected {
		rejectionReason = input.Comment
	}

	if err := s.repo.UpdateQuoteStatus(ctx, id, input.Status, rejectionReason); err != nil {
		// History is already committed; there is no compensating delete.
		log.Error().Err(err).
			Stringer("quote_id", id).
			Stringer("history_id", change.ID).
			Msg("service: quote mutation failed after history write, data may be inconsistent")
		return nil, nil, fmt.Errorf("%w: %v", ErrQuoteUpdate, err)
	}

	updated, err := s.repo.GetQuoteByID(ctx, id)
	if err != nil {
		log.Warn().Err(err).Stringer("quote_id", id).Msg("service: failed to re-read quote after status change")
		updated = current
		updated.Status = input.Status
		updated.RejectionReason = rejectionReason
	}

	if input.NotifyCustomer && ShouldNotifyCustomer(input.Status) && s.notifier != nil {
		if err := s.notifier.NotifyStatusChange(ctx, updated, change); err != nil {
			log.Warn().Err(err).Stringer("quote_id", id).Msg("service: customer notification failed")
		}
	}

	s.recordActivity(ctx, Activity{
		QuoteID:   id,
		Type:      ActivityTypeForStatus(input.Status),
		ActorID:   input.ActorID,
		ActorName: input.ActorName,
		Detail:    fmt.Sprintf("status changed from %s to %s", change.FromStatus, change.ToStatus),
	})

	log.Info().
		Stringer("quote_id", id).
		Str("from", string(change.FromStatus)).
		Str("to", string(change.ToStatus)).
		Str("actor", input.ActorID).
		Msg("service: quote status changed")

	return updated, &change, nil
}

func (s *service) RenderPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	q, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.pdf == nil {
		return nil, errors.New("service: no pdf generator configured")
	}

	data, err := s.pdf.Generate(*q)
	if err != nil {
		log.Error().Err(err).Stringer("quote_id", id).Msg("service: pdf generation failed")
		return nil, fmt.Errorf("service: failed to render quote pdf: %w", err)
	}
	return data, nil
}

// ExpireStale moves every sent or viewed quote past its validity window to
// expired, through the same transition path as a manual change. Individual
// failures are logged and skipped.
func (s *service) ExpireStale(ctx context.Context) (int, error) {
	ids, err := s.repo.ListExpirable(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("service: failed to list expirable quotes: %w", err)
	}

	expired := 0
	for _, id := range ids {
		_, _, err := s.ChangeStatus(ctx, id, StatusChangeInput{
			Status:    StatusExpired,
			Comment:   "validity window elapsed",
			ActorID:   "system",
			ActorName: "System",
		})
		if err != nil {
			log.Warn().Err(err).Stringer("quote_id", id).Msg("service: failed to expire quote")
			continue
		}
		expired++
	}

	if expired > 0 {
		log.Info().Int("count", expired).Msg("service: expired stale quotes")
	}

	return expired, nil
}

// recordActivity is best-effort: a failed write is logged, never propagated.
func (s *service) recordActivity(ctx context.Context, activity Activity) {
	activity.ID = uuid.Must(uuid.NewV4())
	activity.CreatedAt = time.Now().UTC()
	if err := s.repo.InsertActivity(ctx, activity); err != nil {
		log.Warn().Err(err).Stringer("quote_id", activity.QuoteID).Msg("service: failed to write activity log entry")
	}
}
