package ports

import (
	"context"
	"time"

	"checkout-risk-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// EventRepository defines persistence operations for checkout events.
// Insert is the event recorder's write path; CountRecent is the velocity
// guard's read path over the same table, which is what creates the
// feedback loop between past decisions and future ones.
type EventRepository interface {
	Insert(ctx context.Context, event *domain.CheckoutEvent) error
	// CountRecent counts events since the given time where the IP address
	// matches, or the user ID matches when one is provided.
	CountRecent(ctx context.Context, ip string, userID *string, since time.Time) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CheckoutEvent, error)
	List(ctx context.Context, params EventListParams) ([]domain.CheckoutEvent, error)
}

// EventListParams holds filters for listing checkout events.
type EventListParams struct {
	IPAddress *string
	UserID    *string
	Limit     int
}
