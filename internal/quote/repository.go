package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrQuoteNotFound        = errors.New("quote not found")
	ErrDuplicateQuoteNumber = errors.New("quote number already exists")
)

type ListFilter struct {
	Status  QuoteStatus
	Page    int
	PerPage int
}

type Repository interface {
	CreateQuote(ctx context.Context, q *Quote) error
	GetQuoteByID(ctx context.Context, id uuid.UUID) (*Quote, error)
	ListQuotes(ctx context.Context, filter ListFilter) ([]Quote, error)
	UpdateQuoteStatus(ctx context.Context, id uuid.UUID, newStatus QuoteStatus, rejectionReason string) error
	InsertStatusChange(ctx context.Context, change StatusChange) error
	ListStatusChanges(ctx context.Context, quoteID uuid.UUID) ([]StatusChange, error)
	InsertActivity(ctx context.Context, activity Activity) error
	ListExpirable(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const quoteColumns = `
	id, number, status,
	customer_name, customer_email, customer_phone,
	subtotal, discount_total, tax_total, shipping_total, total, currency,
	terms, notes, valid_until,
	sent_at, viewed_at, accepted_at, rejected_at, converted_at,
	rejection_reason, created_at, updated_at`

func (r *postgresRepository) CreateQuote(ctx context.Context, q *Quote) (err error) {
	if q.ID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate quote id: %w", genErr)
		}
		q.ID = genID
	}

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("quote_id", q.ID).Msg("repository: failed to rollback create quote")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now

	insertQuote := `
		INSERT INTO quotes (
			id, number, status,
			customer_name, customer_email, customer_phone,
			subtotal, discount_total, tax_total, shipping_total, total, currency,
			terms, notes, valid_until, rejection_reason, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = tx.Exec(ctx, insertQuote,
		q.ID,
		q.Number,
		string(q.Status),
		q.Customer.Name,
		q.Customer.Email,
		q.Customer.Phone,
		q.Subtotal,
		q.DiscountTotal,
		q.TaxTotal,
		q.ShippingTotal,
		q.Total,
		q.Currency,
		q.Terms,
		q.Notes,
		q.ValidUntil,
		q.RejectionReason,
		q.CreatedAt,
		q.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateQuoteNumber
		}
		return fmt.Errorf("repository: failed to insert quote: %w", err)
	}

	insertItem := `
		INSERT INTO quote_line_items (id, quote_id, product_id, name, quantity, unit_price, discount_percent, tax_rate, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for i := range q.LineItems {
		item := &q.LineItems[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate line item id: %w", genErr)
			return err
		}
		item.ID = itemID
		item.QuoteID = q.ID

		_, err = tx.Exec(ctx, insertItem,
			item.ID,
			item.QuoteID,
			item.ProductID,
			item.Name,
			item.Quantity,
			item.UnitPrice,
			item.DiscountPercent,
			item.TaxRate,
			i,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert line item for quote %s: %w", q.ID, err)
		}
	}

	return nil
}

func (r *postgresRepository) GetQuoteByID(ctx context.Context, id uuid.UUID) (*Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`

	var q Quote
	err := r.db.QueryRow(ctx, query, id).Scan(
		&q.ID,
		&q.Number,
		&q.Status,
		&q.Customer.Name,
		&q.Customer.Email,
		&q.Customer.Phone,
		&q.Subtotal,
		&q.DiscountTotal,
		&q.TaxTotal,
		&q.ShippingTotal,
		&q.Total,
		&q.Currency,
		&q.Terms,
		&q.Notes,
		&q.ValidUntil,
		&q.SentAt,
		&q.ViewedAt,
		&q.AcceptedAt,
		&q.RejectedAt,
		&q.ConvertedAt,
		&q.RejectionReason,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("repository: failed to select quote %s: %w", id, err)
	}

	itemsQuery := `
		SELECT id, quote_id, product_id, name, quantity, unit_price, discount_percent, tax_rate
		FROM quote_line_items
		WHERE quote_id = $1
		ORDER BY position
	`
	rows, err := r.db.Query(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query line items for quote %s: %w", id, err)
	}
	defer rows.Close()

	items := make([]LineItem, 0)
	for rows.Next() {
		var item LineItem
		err := rows.Scan(
			&item.ID,
			&item.QuoteID,
			&item.ProductID,
			&item.Name,
			&item.Quantity,
			&item.UnitPrice,
			&item.DiscountPercent,
			&item.TaxRate,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan line item for quote %s: %w", id, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating line items for quote %s: %w", id, err)
	}

	q.LineItems = items

	return &q, nil
}

func (r *postgresRepository) ListQuotes(ctx context.Context, filter ListFilter) ([]Quote, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := `SELECT ` + quoteColumns + ` FROM quotes`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, perPage, (page-1)*perPage)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]Quote, 0)
	for rows.Next() {
		var q Quote
		err := rows.Scan(
			&q.ID,
			&q.Number,
			&q.Status,
			&q.Customer.Name,
			&q.Customer.Email,
			&q.Customer.Phone,
			&q.Subtotal,
			&q.DiscountTotal,
			&q.TaxTotal,
			&q.ShippingTotal,
			&q.Total,
			&q.Currency,
			&q.Terms,
			&q.Notes,
			&q.ValidUntil,
			&q.SentAt,
			&q.ViewedAt,
			&q.AcceptedAt,
			&q.RejectedAt,
			&q.ConvertedAt,
			&q.RejectionReason,
			&q.CreatedAt,
			&q.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan quote row: %w", err)
		}
		q.LineItems = make([]LineItem, 0)
		quotes = append(quotes, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating quotes: %w", err)
	}

	return quotes, nil
}

// statusUpdateQuery builds the UPDATE for a status change. The lifecycle
// timestamp column is set through COALESCE so only the first entry into a
// status records a time, and rejection_reason is written only when moving to
// rejected (which shifts the id placeholder from $3 to $4).
func statusUpdateQuery(id uuid.UUID, newStatus QuoteStatus, rejectionReason string, now time.Time) (string, []any) {
	query := `UPDATE quotes SET status = $1, updated_at = $2`
	args := []any{string(newStatus), now}

	if col, ok := TimestampColumn(newStatus); ok {
		query += fmt.Sprintf(`, %s = COALESCE(%s, $2)`, col, col)
	}
	if newStatus == StatusRejected {
		query += `, rejection_reason = $3 WHERE id = $4`
		args = append(args, rejectionReason, id)
	} else {
		query += ` WHERE id = $3`
		args = append(args, id)
	}

	return query, args
}

// UpdateQuoteStatus sets the new status and stamps the matching lifecycle
// timestamp column only when it is still NULL, so re-entering a status never
// overwrites the first recorded time. The rejection reason is stored only when
// moving to rejected.
func (r *postgresRepository) UpdateQuoteStatus(ctx context.Context, id uuid.UUID, newStatus QuoteStatus, rejectionReason string) error {
	query, args := statusUpdateQuery(id, newStatus, rejectionReason, time.Now().UTC())

	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		log.Error().Err(err).Stringer("quote_id", id).Str("new_status", string(newStatus)).Msg("repository: failed to update quote status")
		return fmt.Errorf("repository: failed to update status for quote %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrQuoteNotFound
	}

	return nil
}

func (r *postgresRepository) InsertStatusChange(ctx context.Context, change StatusChange) error {
	query := `
		INSERT INTO quote_status_history (id, quote_id, from_status, to_status, actor_id, actor_name, comment, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		change.ID,
		change.QuoteID,
		string(change.FromStatus),
		string(change.ToStatus),
		change.ActorID,
		change.ActorName,
		change.Comment,
		change.Metadata,
		change.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert status change for quote %s: %w", change.QuoteID, err)
	}
	return nil
}

// ListStatusChanges returns a quote's history newest first.
func (r *postgresRepository) ListStatusChanges(ctx context.Context, quoteID uuid.UUID) ([]StatusChange, error) {
	query := `
		SELECT id, quote_id, from_status, to_status, actor_id, actor_name, comment, metadata, created_at
		FROM quote_status_history
		WHERE quote_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query status history for quote %s: %w", quoteID, err)
	}
	defer rows.Close()

	changes := make([]StatusChange, 0)
	for rows.Next() {
		var change StatusChange
		err := rows.Scan(
			&change.ID,
			&change.QuoteID,
			&change.FromStatus,
			&change.ToStatus,
			&change.ActorID,
			&change.ActorName,
			&change.Comment,
			&change.Metadata,
			&change.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan status change for quote %s: %w", quoteID, err)
		}
		changes = append(changes, change)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating status history for quote %s: %w", quoteID, err)
	}

	return changes, nil
}

func (r *postgresRepository) InsertActivity(ctx context.Context, activity Activity) error {
	query := `
		INSERT INTO activity_log (id, quote_id, activity_type, actor_id, actor_name, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		activity.ID,
		activity.QuoteID,
		string(activity.Type),
		activity.ActorID,
		activity.ActorName,
		activity.Detail,
		activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert activity for quote %s: %w", activity.QuoteID, err)
	}
	return nil
}

// ListExpirable finds quotes still awaiting a customer decision whose validity
// window has passed.
func (r *postgresRepository) ListExpirable(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM quotes
		WHERE status IN ($1, $2) AND valid_until IS NOT NULL AND valid_until < $3
	`
	rows, err := r.db.Query(ctx, query, string(StatusSent), string(StatusViewed), now)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query expirable quotes: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repository: failed to scan expirable quote id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating expirable quotes: %w", err)
	}

	return ids, nil
}
