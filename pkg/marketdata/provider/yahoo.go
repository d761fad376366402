package provider

import (
	"context"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

// ChartIterator is the subset of the finance-go chart iterator the client uses.
type ChartIterator interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

// ChartSource opens a chart query.
type ChartSource func(params *chart.Params) ChartIterator

// YahooClient fetches daily bars through the Yahoo Finance chart API.
type YahooClient struct {
	chart ChartSource
}

func NewYahooClient() *YahooClient {
	return NewYahooClientWithSource(func(params *chart.Params) ChartIterator {
		return chart.Get(params)
	})
}

// NewYahooClientWithSource creates a client reading from source instead of the live API.
func NewYahooClientWithSource(source ChartSource) *YahooClient {
	return &YahooClient{chart: source}
}

// Fetch returns the daily bars of ticker inside r. The chart API has no
// context support, so ctx is only checked before the call and between bars.
func (c *YahooClient) Fetch(ctx context.Context, ticker string, granularity types.Granularity, r types.DateRange) ([]types.Bar, error) {
	if granularity != types.GranularityOneDay {
		return nil, errors.Newf(errors.ErrCodeUnsupportedGranularity, "yahoo serves 1day only, got %q", granularity)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "yahoo request cancelled", err)
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := &chart.Params{
		Symbol:   ticker,
		Interval: datetime.OneDay,
		Start:    toDatetime(r.Start),
		End:      toDatetime(r.End.AddDate(0, 0, 1)),
	}

	iter := c.chart(params)

	var bars []types.Bar

	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "yahoo request cancelled", err)
		}

		b := iter.Bar()
		day := time.Unix(int64(b.Timestamp), 0).UTC()

		if !r.Contains(day) {
			continue
		}

		bar := types.NewBar(day.Format(types.DateLayout),
			b.Open.InexactFloat64(),
			b.High.InexactFloat64(),
			b.Low.InexactFloat64(),
			b.Close.InexactFloat64(),
		).WithVolume(float64(b.Volume)).WithAdjClose(b.AdjClose.InexactFloat64())

		bars = append(bars, bar)
	}

	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "yahoo %s %s", ticker, r)
	}

	return bars, nil
}

func toDatetime(t time.Time) *datetime.Datetime {
	return &datetime.Datetime{
		Year:  t.Year(),
		Month: int(t.Month()),
		Day:   t.Day(),
	}
}
