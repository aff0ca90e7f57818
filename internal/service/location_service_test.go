package service

import (
	"context"
	"errors"
	"testing"

	"checkout-risk-gateway/internal/core/domain"
	"checkout-risk-gateway/internal/core/ports"
	"checkout-risk-gateway/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestLocationService_LocalAddressesSkipLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No Lookup expectation: a provider call would fail the test.
	provider := mocks.NewMockGeoProvider(ctrl)
	svc := NewLocationService(zerolog.Nop(), provider)

	for _, ip := range []string{"127.0.0.1", "::1", "localhost"} {
		verdict := svc.Check(context.Background(), ip, "VN")
		assert.False(t, verdict.IsMismatch, "ip %s", ip)
		assert.Equal(t, "VN", verdict.DetectedCountry, "ip %s", ip)
	}
}

func TestLocationService_PrimarySuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	primary := mocks.NewMockGeoProvider(ctrl)
	secondary := mocks.NewMockGeoProvider(ctrl)
	svc := NewLocationService(zerolog.Nop(), primary, secondary)

	primary.EXPECT().Lookup(gomock.Any(), "203.0.113.7").Return("us", nil)
	primary.EXPECT().Name().Return("ipapi").AnyTimes()
	// Secondary must not be consulted when the primary succeeds.

	verdict := svc.Check(context.Background(), "203.0.113.7", "IN")
	assert.True(t, verdict.IsMismatch)
	assert.Equal(t, "US", verdict.DetectedCountry, "code must be normalized to upper case")
}

func TestLocationService_CaseInsensitiveMatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	primary := mocks.NewMockGeoProvider(ctrl)
	svc := NewLocationService(zerolog.Nop(), primary)

	primary.EXPECT().Lookup(gomock.Any(), "203.0.113.7").Return("US", nil)
	primary.EXPECT().Name().Return("ipapi").AnyTimes()

	verdict := svc.Check(context.Background(), "203.0.113.7", "us")
	assert.False(t, verdict.IsMismatch)
	assert.Equal(t, "US", verdict.DetectedCountry)
}

func TestLocationService_SecondaryFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	primary := mocks.NewMockGeoProvider(ctrl)
	secondary := mocks.NewMockGeoProvider(ctrl)
	svc := NewLocationService(zerolog.Nop(), primary, secondary)

	primary.EXPECT().Lookup(gomock.Any(), "203.0.113.7").Return("", errors.New("503"))
	primary.EXPECT().Name().Return("ipapi").AnyTimes()
	secondary.EXPECT().Lookup(gomock.Any(), "203.0.113.7").Return("de", nil)
	secondary.EXPECT().Name().Return("ipwhois").AnyTimes()

	verdict := svc.Check(context.Background(), "203.0.113.7", "DE")
	assert.False(t, verdict.IsMismatch)
	assert.Equal(t, "DE", verdict.DetectedCountry)
}

// Both providers failing must fail open: non-mismatch with the API_ERROR
// sentinel, never an error or a block.
func TestLocationService_AllProvidersFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	primary := mocks.NewMockGeoProvider(ctrl)
	secondary := mocks.NewMockGeoProvider(ctrl)
	svc := NewLocationService(zerolog.Nop(), primary, secondary)

	primary.EXPECT().Lookup(gomock.Any(), "203.0.113.7").Return("", errors.New("timeout"))
	primary.EXPECT().Name().Return("ipapi").AnyTimes()
	secondary.EXPECT().Lookup(gomock.Any(), "203.0.113.7").Return("", errors.New("timeout"))
	secondary.EXPECT().Name().Return("ipwhois").AnyTimes()

	verdict := svc.Check(context.Background(), "203.0.113.7", "VN")
	assert.False(t, verdict.IsMismatch)
	assert.Equal(t, domain.CountryAPIError, verdict.DetectedCountry)
}

func TestLocationService_EmptyCountryTreatedAsFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	primary := mocks.NewMockGeoProvider(ctrl)
	secondary := mocks.NewMockGeoProvider(ctrl)
	svc := NewLocationService(zerolog.Nop(), primary, secondary)

	primary.EXPECT().Lookup(gomock.Any(), "203.0.113.7").Return("  ", nil)
	primary.EXPECT().Name().Return("ipapi").AnyTimes()
	secondary.EXPECT().Lookup(gomock.Any(), "203.0.113.7").Return("FR", nil)
	secondary.EXPECT().Name().Return("ipwhois").AnyTimes()

	verdict := svc.Check(context.Background(), "203.0.113.7", "FR")
	assert.False(t, verdict.IsMismatch)
	assert.Equal(t, "FR", verdict.DetectedCountry)
}

func TestLocationService_LongCodeTruncated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	primary := mocks.NewMockGeoProvider(ctrl)
	svc := NewLocationService(zerolog.Nop(), primary)

	primary.EXPECT().Lookup(gomock.Any(), "203.0.113.7").Return("USA", nil)
	primary.EXPECT().Name().Return("ipapi").AnyTimes()

	verdict := svc.Check(context.Background(), "203.0.113.7", "US")
	assert.Equal(t, "US", verdict.DetectedCountry)
	assert.False(t, verdict.IsMismatch)
}

// A panicking provider resolves to the ERROR sentinel instead of crashing
// the pipeline.
func TestLocationService_PanicFailsOpen(t *testing.T) {
	svc := NewLocationService(zerolog.Nop(), panickingProvider{})

	verdict := svc.Check(context.Background(), "203.0.113.7", "VN")
	assert.False(t, verdict.IsMismatch)
	assert.Equal(t, domain.CountryError, verdict.DetectedCountry)
}

type panickingProvider struct{}

func (panickingProvider) Lookup(context.Context, string) (string, error) { panic("malformed payload") }
func (panickingProvider) Name() string                                   { return "panicking" }

var _ ports.GeoProvider = panickingProvider{}
