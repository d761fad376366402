package provider

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

const DefaultAlphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageClient fetches daily bars from Alpha Vantage. Only 1day is served.
type AlphaVantageClient struct {
	http    *resty.Client
	apiKey  string
	limiter *rate.Limiter
}

type alphaVantageDay struct {
	Open   decimal.Decimal `json:"1. open"`
	High   decimal.Decimal `json:"2. high"`
	Low    decimal.Decimal `json:"3. low"`
	Close  decimal.Decimal `json:"4. close"`
	Volume decimal.Decimal `json:"5. volume"`
}

type alphaVantageBody struct {
	Series       map[string]alphaVantageDay `json:"Time Series (Daily)"`
	Note         string                     `json:"Note"`
	Information  string                     `json:"Information"`
	ErrorMessage string                     `json:"Error Message"`
}

func NewAlphaVantageClient(config Config) (*AlphaVantageClient, error) {
	if config.APIKey == "" {
		return nil, errors.New(errors.ErrCodeMissingCredential, "alphavantage provider requires an API key")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultAlphaVantageBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(config.timeout()).
		SetHeader("Accept", "application/json").
		SetRetryCount(config.RetryCount).
		SetRetryWaitTime(config.retryWait()).
		AddRetryCondition(retryOnThrottleOrServerError)

	return &AlphaVantageClient{
		http:    client,
		apiKey:  config.APIKey,
		limiter: newLimiter(config.RequestsPerMinute),
	}, nil
}

// Fetch downloads the full daily history of ticker and keeps the days inside r.
func (c *AlphaVantageClient) Fetch(ctx context.Context, ticker string, granularity types.Granularity, r types.DateRange) ([]types.Bar, error) {
	if granularity != types.GranularityOneDay {
		return nil, errors.Newf(errors.ErrCodeUnsupportedGranularity, "alphavantage serves 1day only, got %q", granularity)
	}

	if err := waitLimiter(ctx, c.limiter); err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function":   "TIME_SERIES_DAILY",
			"symbol":     ticker,
			"outputsize": "full",
			"apikey":     c.apiKey,
		}).
		Get("/query")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "alphavantage %s %s", ticker, r)
	}

	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "alphavantage %s %s: http %d: %s",
			ticker, r, resp.StatusCode(), truncate(resp.Body()))
	}

	var body alphaVantageBody
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "alphavantage %s %s", ticker, r)
	}

	if msg := firstNonEmpty(body.ErrorMessage, body.Note, body.Information); msg != "" {
		return nil, errors.Newf(errors.ErrCodeMarketDataFetchFailed, "alphavantage %s: %s", ticker, msg)
	}

	bars := make([]types.Bar, 0, len(body.Series))

	for date, day := range body.Series {
		t, err := types.ParseDay(date)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "alphavantage date", err)
		}

		if !r.Contains(t) {
			continue
		}

		bar := types.NewBar(date,
			day.Open.InexactFloat64(),
			day.High.InexactFloat64(),
			day.Low.InexactFloat64(),
			day.Close.InexactFloat64(),
		).WithVolume(day.Volume.InexactFloat64())

		bars = append(bars, bar)
	}

	slices.SortFunc(bars, func(a, b types.Bar) int {
		return strings.Compare(a.Date, b.Date)
	})

	return bars, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
