package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

// DefaultFMPBaseURL is the Financial Modeling Prep v3 API root.
const DefaultFMPBaseURL = "https://financialmodelingprep.com/api/v3"

// maxErrorBody bounds how much of a failed response body ends up in an error.
const maxErrorBody = 256

// FMPClient fetches historical bars from Financial Modeling Prep.
type FMPClient struct {
	http    *resty.Client
	apiKey  string
	limiter *rate.Limiter
}

type fmpErrorBody struct {
	ErrorMessage string `json:"Error Message"`
}

type fmpDailyBody struct {
	Symbol     string      `json:"symbol"`
	Historical []types.Bar `json:"historical"`
}

// NewFMPClient creates a Financial Modeling Prep client. The User-Agent is
// picked once per client.
func NewFMPClient(config Config) (*FMPClient, error) {
	if config.APIKey == "" {
		return nil, errors.New(errors.ErrCodeMissingCredential, "fmp provider requires an API key")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultFMPBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(config.timeout()).
		SetHeader("User-Agent", randomUserAgent()).
		SetHeader("Accept", "application/json").
		SetRetryCount(config.RetryCount).
		SetRetryWaitTime(config.retryWait()).
		SetRetryMaxWaitTime(config.retryWait() * 8).
		AddRetryCondition(retryOnThrottleOrServerError)

	return &FMPClient{
		http:    client,
		apiKey:  config.APIKey,
		limiter: newLimiter(config.RequestsPerMinute),
	}, nil
}

// Fetch requests bars for ticker over r. Intraday granularities use the
// historical-chart endpoint, 1day uses historical-price-full.
func (c *FMPClient) Fetch(ctx context.Context, ticker string, granularity types.Granularity, r types.DateRange) ([]types.Bar, error) {
	if !granularity.IsValid() {
		return nil, errors.Newf(errors.ErrCodeUnsupportedGranularity, "unsupported granularity %q", granularity)
	}

	if err := waitLimiter(ctx, c.limiter); err != nil {
		return nil, err
	}

	req := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"granularity": string(granularity),
			"ticker":      ticker,
		}).
		SetQueryParams(map[string]string{
			"from":   r.Start.Format(types.DateLayout),
			"to":     r.End.Format(types.DateLayout),
			"apikey": c.apiKey,
		})

	path := "/historical-chart/{granularity}/{ticker}"
	if granularity == types.GranularityOneDay {
		path = "/historical-price-full/{ticker}"
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "fmp %s %s %s", ticker, granularity, r)
	}

	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "fmp %s %s %s: http %d: %s",
			ticker, granularity, r, resp.StatusCode(), truncate(resp.Body()))
	}

	bars, err := decodeFMP(granularity, resp.Body())
	if err != nil {
		return nil, errors.Wrapf(errors.GetCode(err), err, "fmp %s %s %s", ticker, granularity, r)
	}

	// FMP answers newest first.
	if len(bars) > 1 && bars[0].Date > bars[len(bars)-1].Date {
		bars = types.Series(bars).Reverse()
	}

	return bars, nil
}

func decodeFMP(granularity types.Granularity, body []byte) ([]types.Bar, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '{' {
		var apiErr fmpErrorBody
		if err := json.Unmarshal(trimmed, &apiErr); err == nil && apiErr.ErrorMessage != "" {
			return nil, errors.New(errors.ErrCodeMarketDataFetchFailed, apiErr.ErrorMessage)
		}
	}

	if granularity == types.GranularityOneDay && trimmed[0] == '{' {
		var daily fmpDailyBody
		if err := json.Unmarshal(trimmed, &daily); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "decode historical-price-full", err)
		}

		return daily.Historical, nil
	}

	var bars []types.Bar
	if err := json.Unmarshal(trimmed, &bars); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "decode historical-chart", err)
	}

	return bars, nil
}

func retryOnThrottleOrServerError(resp *resty.Response, err error) bool {
	if err != nil || resp == nil {
		return false
	}

	return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}

func waitLimiter(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}

	if err := limiter.Wait(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "waiting for request slot", err)
	}

	return nil
}

func truncate(body []byte) string {
	if len(body) <= maxErrorBody {
		return string(body)
	}

	return string(body[:maxErrorBody]) + "..."
}
