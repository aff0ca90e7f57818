package integration

import (
	"context"
	"sync"
	"time"

	"checkout-risk-gateway/internal/core/domain"
	"checkout-risk-gateway/internal/core/ports"

	"github.com/google/uuid"
)

// --- In-Memory Event Repo ---

// inMemoryEventRepo mirrors the matching semantics of the PostgreSQL repo:
// CountRecent matches on IP or user ID, a nil user ID never matches, and
// List returns newest first.
type inMemoryEventRepo struct {
	mu     sync.RWMutex
	events []domain.CheckoutEvent
}

func newInMemoryEventRepo() *inMemoryEventRepo {
	return &inMemoryEventRepo{}
}

func (r *inMemoryEventRepo) Insert(ctx context.Context, e *domain.CheckoutEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

func (r *inMemoryEventRepo) CountRecent(ctx context.Context, ip string, userID *string, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, e := range r.events {
		if e.CreatedAt.Before(since) {
			continue
		}
		if e.Attempt.IPAddress == ip {
			count++
			continue
		}
		if userID != nil && e.Attempt.UserID != nil && *e.Attempt.UserID == *userID {
			count++
		}
	}
	return count, nil
}

func (r *inMemoryEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CheckoutEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.events {
		if r.events[i].ID == id {
			e := r.events[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (r *inMemoryEventRepo) List(ctx context.Context, params ports.EventListParams) ([]domain.CheckoutEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.CheckoutEvent
	for i := len(r.events) - 1; i >= 0; i-- {
		e := r.events[i]
		if params.IPAddress != nil && e.Attempt.IPAddress != *params.IPAddress {
			continue
		}
		if params.UserID != nil && (e.Attempt.UserID == nil || *e.Attempt.UserID != *params.UserID) {
			continue
		}
		out = append(out, e)
		if params.Limit > 0 && len(out) >= params.Limit {
			break
		}
	}
	return out, nil
}
