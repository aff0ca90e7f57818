package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// IPAPIProvider implements ports.GeoProvider against the ipapi.co API.
type IPAPIProvider struct {
	baseURL    string
	httpClient HTTPClient
}

// NewIPAPIProvider creates an ipapi.co-backed geolocation provider.
func NewIPAPIProvider(baseURL string, httpClient HTTPClient) *IPAPIProvider {
	return &IPAPIProvider{baseURL: baseURL, httpClient: httpClient}
}

type ipapiResponse struct {
	CountryCode string `json:"country_code"`
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
}

// Lookup resolves an IP address via GET {base}/{ip}/json/.
func (p *IPAPIProvider) Lookup(ctx context.Context, ip string) (string, error) {
	url := fmt.Sprintf("%s/%s/json/", p.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("ipapi request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ipapi lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ipapi lookup: unexpected status %d", resp.StatusCode)
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("ipapi decode: %w", err)
	}
	if body.Error {
		return "", fmt.Errorf("ipapi lookup failed: %s", body.Reason)
	}
	if body.CountryCode == "" {
		return "", fmt.Errorf("ipapi lookup: empty country code")
	}
	return body.CountryCode, nil
}

// Name identifies the provider in logs.
func (p *IPAPIProvider) Name() string {
	return "ipapi"
}
