package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"checkout-risk-gateway/internal/core/domain"
	"checkout-risk-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EventRepo implements ports.EventRepository over the checkout_events
// table. Events are append-only: there is no update or delete path.
type EventRepo struct {
	pool Pool
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(pool Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

const eventColumns = `id, user_id, ip_address, device_fingerprint, total_amount, item_count,
		has_digital_product, payment_method, country, is_new_user,
		rule_risk, ai_risk, final_risk, decision, ai_reason,
		detected_country, location_mismatch, created_at`

// Insert appends one checkout event.
func (r *EventRepo) Insert(ctx context.Context, e *domain.CheckoutEvent) error {
	query := `INSERT INTO checkout_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.Attempt.UserID, e.Attempt.IPAddress, e.Attempt.DeviceFingerprint,
		e.Attempt.TotalAmount, e.Attempt.ItemCount, e.Attempt.HasDigitalProduct,
		e.Attempt.PaymentMethod, e.Attempt.Country, e.Attempt.IsNewUser,
		e.RuleRisk, e.AiRisk, e.FinalRisk, e.Decision, e.AiReason,
		e.DetectedCountry, e.LocationMismatch, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkout event: %w", err)
	}
	return nil
}

// CountRecent counts events since the given time where the IP address
// matches, or the user ID matches when one is provided. A nil user ID
// compares against NULL and never matches, leaving the IP as the only
// identity signal for anonymous attempts.
func (r *EventRepo) CountRecent(ctx context.Context, ip string, userID *string, since time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM checkout_events
		WHERE created_at >= $1 AND (ip_address = $2 OR user_id = $3)`

	var count int64
	if err := r.pool.QueryRow(ctx, query, since, ip, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count recent events: %w", err)
	}
	return count, nil
}

// GetByID fetches a single event by UUID. Returns nil when not found.
func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CheckoutEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM checkout_events WHERE id = $1`

	e, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get checkout event: %w", err)
	}
	return e, nil
}

// List fetches recent events, newest first, optionally filtered by IP
// address and/or user ID.
func (r *EventRepo) List(ctx context.Context, params ports.EventListParams) ([]domain.CheckoutEvent, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.IPAddress != nil {
		conditions = append(conditions, fmt.Sprintf("ip_address = $%d", argIdx))
		args = append(args, *params.IPAddress)
		argIdx++
	}
	if params.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, *params.UserID)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s FROM checkout_events %s ORDER BY created_at DESC LIMIT $%d`,
		eventColumns, where, argIdx)
	args = append(args, params.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list checkout events: %w", err)
	}
	defer rows.Close()

	var events []domain.CheckoutEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkout event row: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkout event rows: %w", err)
	}
	return events, nil
}

// scanEvent scans a single row into a CheckoutEvent.
func scanEvent(row pgx.Row) (*domain.CheckoutEvent, error) {
	e := &domain.CheckoutEvent{}
	err := row.Scan(
		&e.ID, &e.Attempt.UserID, &e.Attempt.IPAddress, &e.Attempt.DeviceFingerprint,
		&e.Attempt.TotalAmount, &e.Attempt.ItemCount, &e.Attempt.HasDigitalProduct,
		&e.Attempt.PaymentMethod, &e.Attempt.Country, &e.Attempt.IsNewUser,
		&e.RuleRisk, &e.AiRisk, &e.FinalRisk, &e.Decision, &e.AiReason,
		&e.DetectedCountry, &e.LocationMismatch, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}
