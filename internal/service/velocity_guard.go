package service

import (
	"context"
	"fmt"
	"time"

	"checkout-risk-gateway/internal/core/ports"
	"checkout-risk-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// VelocityReason is the fixed human-readable reason recorded on attempts
// the velocity guard blocks.
const VelocityReason = "Too many checkout attempts from this identity in the last hour"

// VelocityGuard short-circuits the pipeline when the same identity has made
// too many attempts within the lookback window. It reads the same event
// store the recorder writes to, so every evaluated attempt tightens the
// budget for the next one.
type VelocityGuard struct {
	events    ports.EventRepository
	threshold int64
	window    time.Duration
	log       zerolog.Logger
}

// NewVelocityGuard creates a VelocityGuard with the given burst threshold
// and lookback window.
func NewVelocityGuard(events ports.EventRepository, threshold int64, window time.Duration, log zerolog.Logger) *VelocityGuard {
	return &VelocityGuard{
		events:    events,
		threshold: threshold,
		window:    window,
		log:       log,
	}
}

// Check reports whether the identity (IP address, or account when known)
// has exhausted its attempt budget. A count query failure is returned as an
// event-store error: the guard fails closed, because a fraud control that
// silently disarms when its data source is down is worse than a failed
// request.
func (g *VelocityGuard) Check(ctx context.Context, ip string, userID *string) (bool, error) {
	since := time.Now().UTC().Add(-g.window)

	count, err := g.events.CountRecent(ctx, ip, userID, since)
	if err != nil {
		return false, apperror.ErrEventStoreFailure(fmt.Errorf("velocity count: %w", err))
	}

	if count >= g.threshold {
		g.log.Warn().
			Str("ip", ip).
			Int64("count", count).
			Int64("threshold", g.threshold).
			Dur("window", g.window).
			Msg("velocity guard tripped")
		return true, nil
	}

	return false, nil
}
