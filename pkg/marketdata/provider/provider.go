package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderFMP          ProviderType = "fmp"
	ProviderPolygon      ProviderType = "polygon"
	ProviderAlphaVantage ProviderType = "alphavantage"
	ProviderYahoo        ProviderType = "yahoo"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRetryWait = time.Second
)

type OnDownloadProgress = func(current float64, total float64, message string)

// Fetcher retrieves the bars of one ticker for one inclusive date range.
//
// Implementations return bars in ascending date order. A range with no data
// yields an empty slice and a nil error. Transport and payload failures are
// returned as coded errors (ErrCodeMarketDataFetchFailed, ErrCodeMarketDataParseFailed).
// The context cancels the outbound call.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string, granularity types.Granularity, r types.DateRange) ([]types.Bar, error)
}

// Config carries what a provider needs to talk to its API.
type Config struct {
	APIKey string
	// BaseURL overrides the provider endpoint. Empty means the public one.
	BaseURL string
	Timeout time.Duration
	// RetryCount is the number of extra attempts on 429 and 5xx responses.
	RetryCount int
	RetryWait  time.Duration
	// RequestsPerMinute paces outbound calls across goroutines. 0 disables pacing.
	RequestsPerMinute int
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}

	return c.Timeout
}

func (c Config) retryWait() time.Duration {
	if c.RetryWait <= 0 {
		return defaultRetryWait
	}

	return c.RetryWait
}

// NewFetcher creates a fetcher based on the provider type.
func NewFetcher(providerType ProviderType, config Config) (Fetcher, error) {
	switch providerType {
	case ProviderFMP:
		client, err := NewFMPClient(config)
		if err != nil {
			return nil, err
		}

		return client, nil
	case ProviderPolygon:
		client, err := NewPolygonClient(config.APIKey)
		if err != nil {
			return nil, err
		}

		return client, nil
	case ProviderAlphaVantage:
		client, err := NewAlphaVantageClient(config)
		if err != nil {
			return nil, err
		}

		return client, nil
	case ProviderYahoo:
		return NewYahooClient(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}
