// Package geoip provides IP-to-country resolution backed by public
// geolocation APIs, with a Redis-backed caching layer.
package geoip

import "net/http"

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
