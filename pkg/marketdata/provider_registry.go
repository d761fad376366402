package marketdata

import (
	"slices"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/provider"
)

// ProviderInfo contains metadata about a market data provider. DailyAppend
// marks providers whose end-of-day records carry every field the daily append
// validates.
type ProviderInfo struct {
	Name          string              `json:"name"`
	DisplayName   string              `json:"displayName"`
	Description   string              `json:"description"`
	RequiresAuth  bool                `json:"requiresAuth"`
	Granularities []types.Granularity `json:"granularities"`
	Splits        bool                `json:"splits"`
	DailyAppend   bool                `json:"dailyAppend"`
}

// Supports reports whether the provider serves bars of granularity g.
func (p ProviderInfo) Supports(g types.Granularity) bool {
	return slices.Contains(p.Granularities, g)
}

var dailyOnly = []types.Granularity{types.GranularityOneDay}

// providerRegistry holds metadata about all supported providers.
var providerRegistry = map[provider.ProviderType]ProviderInfo{
	provider.ProviderFMP: {
		Name:          string(provider.ProviderFMP),
		DisplayName:   "Financial Modeling Prep",
		Description:   "Historical intraday charts and full daily price history for US equities and ETFs",
		RequiresAuth:  true,
		Granularities: types.Granularities(),
		DailyAppend:   true,
	},
	provider.ProviderPolygon: {
		Name:          string(provider.ProviderPolygon),
		DisplayName:   "Polygon.io",
		Description:   "US stock market aggregates and reference data, including splits",
		RequiresAuth:  true,
		Granularities: types.Granularities(),
		Splits:        true,
	},
	provider.ProviderAlphaVantage: {
		Name:          string(provider.ProviderAlphaVantage),
		DisplayName:   "Alpha Vantage",
		Description:   "Daily time series for global equities",
		RequiresAuth:  true,
		Granularities: dailyOnly,
	},
	provider.ProviderYahoo: {
		Name:          string(provider.ProviderYahoo),
		DisplayName:   "Yahoo Finance",
		Description:   "Daily chart data through the public Yahoo Finance API",
		RequiresAuth:  false,
		Granularities: dailyOnly,
	},
}

// GetSupportedProviders returns the names of all supported providers, sorted.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	slices.Sort(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[provider.ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return info, nil
}
