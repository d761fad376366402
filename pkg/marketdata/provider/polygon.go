package provider

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

const (
	polygonAggsLimit   = 50000
	polygonSplitsLimit = 1000
)

// PolygonIterator is the subset of the polygon list iterator the client uses.
type PolygonIterator[T any] interface {
	Next() bool
	Item() T
	Err() error
}

// PolygonAPIClient abstracts the polygon REST endpoints so tests can stub them.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonIterator[models.Agg]
	ListSplits(ctx context.Context, params *models.ListSplitsParams, options ...models.RequestOption) PolygonIterator[models.Split]
}

type polygonAPI struct {
	client *polygon.Client
}

func (a *polygonAPI) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonIterator[models.Agg] {
	return a.client.ListAggs(ctx, params, options...)
}

func (a *polygonAPI) ListSplits(ctx context.Context, params *models.ListSplitsParams, options ...models.RequestOption) PolygonIterator[models.Split] {
	return a.client.ListSplits(ctx, params, options...)
}

// PolygonClient fetches aggregates and split history from polygon.io.
type PolygonClient struct {
	apiClient PolygonAPIClient
}

func NewPolygonClient(apiKey string) (*PolygonClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingCredential, "polygon provider requires an API key")
	}

	return NewPolygonClientWithAPI(&polygonAPI{client: polygon.New(apiKey)}), nil
}

// NewPolygonClientWithAPI creates a client on top of an existing API implementation.
func NewPolygonClientWithAPI(api PolygonAPIClient) *PolygonClient {
	return &PolygonClient{apiClient: api}
}

// Fetch lists adjusted aggregates for ticker over r in ascending order. Bar
// dates are formatted the way FMP labels them, in UTC.
func (c *PolygonClient) Fetch(ctx context.Context, ticker string, granularity types.Granularity, r types.DateRange) ([]types.Bar, error) {
	if !granularity.IsValid() {
		return nil, errors.Newf(errors.ErrCodeUnsupportedGranularity, "unsupported granularity %q", granularity)
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: granularity.Multiplier(),
		Timespan:   granularity.Timespan(),
		From:       models.Millis(r.Start),
		To:         models.Millis(r.End.AddDate(0, 0, 1).Add(-time.Millisecond)),
	}.WithAdjusted(true).WithOrder(models.Asc).WithLimit(polygonAggsLimit)

	iter := c.apiClient.ListAggs(ctx, params)

	var bars []types.Bar

	for iter.Next() {
		agg := iter.Item()
		date := time.Time(agg.Timestamp).UTC().Format(granularity.DateLayout())

		bar := types.NewBar(date, agg.Open, agg.High, agg.Low, agg.Close).WithVolume(agg.Volume)
		if agg.VWAP != 0 {
			bar = bar.WithVWAP(agg.VWAP)
		}

		bars = append(bars, bar)
	}

	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "polygon %s %s %s", ticker, granularity, r)
	}

	return bars, nil
}

// Splits returns the split history of ticker, newest first.
func (c *PolygonClient) Splits(ctx context.Context, ticker string) ([]types.Split, error) {
	if ticker == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "ticker is required")
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListSplitsParams{
		TickerEQ: &ticker,
	}.WithOrder(models.Desc).WithLimit(polygonSplitsLimit)

	iter := c.apiClient.ListSplits(ctx, params)

	var splits []types.Split

	for iter.Next() {
		s := iter.Item()
		splits = append(splits, types.Split{
			Ticker:        s.Ticker,
			ExecutionDate: time.Time(s.ExecutionDate).Format(types.DateLayout),
			SplitFrom:     s.SplitFrom,
			SplitTo:       s.SplitTo,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "polygon splits %s", ticker)
	}

	return splits, nil
}
