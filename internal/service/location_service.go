package service

import (
	"context"
	"strings"

	"checkout-risk-gateway/internal/core/domain"
	"checkout-risk-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// localAddresses are development/internal origins exempt from lookup.
var localAddresses = map[string]bool{
	"127.0.0.1": true,
	"::1":       true,
	"localhost": true,
}

// LocationService implements ports.LocationChecker over an ordered list of
// geolocation providers, tried primary first. The check is strictly
// fail-open: no provider failure, timeout, or malformed payload ever blocks
// an order on its own, and no error escapes to the caller.
type LocationService struct {
	providers []ports.GeoProvider
	log       zerolog.Logger
}

// NewLocationService creates a LocationService. Providers are consulted in
// the order given.
func NewLocationService(log zerolog.Logger, providers ...ports.GeoProvider) *LocationService {
	return &LocationService{providers: providers, log: log}
}

// Check resolves the attempt's network origin and compares it to the
// declared country. A panic anywhere in the provider chain degrades to the
// ERROR sentinel instead of escaping to the pipeline.
func (s *LocationService) Check(ctx context.Context, ip string, declaredCountry string) (verdict domain.LocationVerdict) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("ip", ip).Msg("location check panicked")
			verdict = domain.LocationVerdict{IsMismatch: false, DetectedCountry: domain.CountryError}
		}
	}()

	if localAddresses[ip] {
		s.log.Debug().Str("ip", ip).Msg("skipping location check for local address")
		return domain.LocationVerdict{IsMismatch: false, DetectedCountry: strings.ToUpper(declaredCountry)}
	}

	for _, p := range s.providers {
		code, err := p.Lookup(ctx, ip)
		if err != nil {
			s.log.Warn().Err(err).Str("provider", p.Name()).Str("ip", ip).Msg("geolocation lookup failed, trying next provider")
			continue
		}

		detected := formatCountry(code)
		if detected == domain.CountryUnknown {
			s.log.Warn().Str("provider", p.Name()).Str("ip", ip).Msg("geolocation returned empty country")
			continue
		}

		mismatch := !strings.EqualFold(detected, declaredCountry)
		s.log.Debug().
			Str("provider", p.Name()).
			Str("ip", ip).
			Str("detected", detected).
			Str("declared", declaredCountry).
			Bool("mismatch", mismatch).
			Msg("geolocation resolved")
		return domain.LocationVerdict{IsMismatch: mismatch, DetectedCountry: detected}
	}

	s.log.Error().Str("ip", ip).Msg("all geolocation providers failed")
	return domain.LocationVerdict{IsMismatch: false, DetectedCountry: domain.CountryAPIError}
}

// formatCountry normalizes a provider country code to strictly two upper
// case letters.
func formatCountry(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.CountryUnknown
	}
	if len(code) > 2 {
		code = code[:2]
	}
	return code
}
