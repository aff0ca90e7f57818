package geoip

import (
	"context"
	"time"

	"checkout-risk-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// CachedProvider wraps a GeoProvider with a shared country cache. Wrapping
// both providers with the same cache means a hit recorded by one serves
// subsequent lookups regardless of which provider resolved it.
type CachedProvider struct {
	delegate ports.GeoProvider
	cache    ports.CountryCache
	ttl      time.Duration
	log      zerolog.Logger
}

// NewCachedProvider wraps a provider with cache-aside lookups.
func NewCachedProvider(delegate ports.GeoProvider, cache ports.CountryCache, ttl time.Duration, log zerolog.Logger) *CachedProvider {
	return &CachedProvider{delegate: delegate, cache: cache, ttl: ttl, log: log}
}

// Lookup consults the cache first, falling back to the delegate. Cache
// failures are logged and ignored; the lookup still goes through.
func (p *CachedProvider) Lookup(ctx context.Context, ip string) (string, error) {
	if cached, err := p.cache.Get(ctx, ip); err != nil {
		p.log.Warn().Err(err).Str("ip", ip).Msg("geo cache read failed")
	} else if cached != "" {
		return cached, nil
	}

	country, err := p.delegate.Lookup(ctx, ip)
	if err != nil {
		return "", err
	}

	if err := p.cache.Set(ctx, ip, country, p.ttl); err != nil {
		p.log.Warn().Err(err).Str("ip", ip).Msg("geo cache write failed")
	}
	return country, nil
}

// Name identifies the underlying provider in logs.
func (p *CachedProvider) Name() string {
	return p.delegate.Name()
}
