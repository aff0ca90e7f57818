package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// IPWhoisProvider implements ports.GeoProvider against the ipwho.is API.
// It serves as the fallback when the primary provider fails.
type IPWhoisProvider struct {
	baseURL    string
	httpClient HTTPClient
}

// NewIPWhoisProvider creates an ipwho.is-backed geolocation provider.
func NewIPWhoisProvider(baseURL string, httpClient HTTPClient) *IPWhoisProvider {
	return &IPWhoisProvider{baseURL: baseURL, httpClient: httpClient}
}

type ipwhoisResponse struct {
	Success     bool   `json:"success"`
	CountryCode string `json:"country_code"`
	Message     string `json:"message"`
}

// Lookup resolves an IP address via GET {base}/{ip}.
func (p *IPWhoisProvider) Lookup(ctx context.Context, ip string) (string, error) {
	url := fmt.Sprintf("%s/%s", p.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("ipwhois request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ipwhois lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ipwhois lookup: unexpected status %d", resp.StatusCode)
	}

	var body ipwhoisResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("ipwhois decode: %w", err)
	}
	if !body.Success {
		return "", fmt.Errorf("ipwhois lookup failed: %s", body.Message)
	}
	if body.CountryCode == "" {
		return "", fmt.Errorf("ipwhois lookup: empty country code")
	}
	return body.CountryCode, nil
}

// Name identifies the provider in logs.
func (p *IPWhoisProvider) Name() string {
	return "ipwhois"
}
