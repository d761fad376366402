package provider

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// mockPolygonAPIClient implements PolygonAPIClient for testing.
type mockPolygonAPIClient struct {
	aggs       *mockPolygonIterator[models.Agg]
	splits     *mockPolygonIterator[models.Split]
	aggParams  *models.ListAggsParams
	splitParam *models.ListSplitsParams
}

func (m *mockPolygonAPIClient) ListAggs(_ context.Context, params *models.ListAggsParams, _ ...models.RequestOption) PolygonIterator[models.Agg] {
	m.aggParams = params

	return m.aggs
}

func (m *mockPolygonAPIClient) ListSplits(_ context.Context, params *models.ListSplitsParams, _ ...models.RequestOption) PolygonIterator[models.Split] {
	m.splitParam = params

	return m.splits
}

// mockPolygonIterator replays a fixed list of items.
type mockPolygonIterator[T any] struct {
	items []T
	index int
	err   error
}

func (m *mockPolygonIterator[T]) Next() bool {
	if m.index < len(m.items) {
		m.index++

		return true
	}

	return false
}

func (m *mockPolygonIterator[T]) Item() T {
	if m.index > 0 && m.index <= len(m.items) {
		return m.items[m.index-1]
	}

	var zero T

	return zero
}

func (m *mockPolygonIterator[T]) Err() error {
	return m.err
}

type PolygonClientTestSuite struct {
	suite.Suite
}

func TestPolygonClientSuite(t *testing.T) {
	suite.Run(t, new(PolygonClientTestSuite))
}

func (suite *PolygonClientTestSuite) TestNewPolygonClient() {
	client, err := NewPolygonClient("test-api-key")
	suite.Require().NoError(err)
	suite.NotNil(client.apiClient)

	client, err = NewPolygonClient("")
	suite.Nil(client)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingCredential))
}

func (suite *PolygonClientTestSuite) TestFetchFourHourBars() {
	ts := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	api := &mockPolygonAPIClient{
		aggs: &mockPolygonIterator[models.Agg]{items: []models.Agg{
			{Timestamp: models.Millis(ts), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100, VWAP: 1.2},
			{Timestamp: models.Millis(ts.Add(4 * time.Hour)), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 200},
		}},
	}

	client := NewPolygonClientWithAPI(api)
	bars, err := client.Fetch(context.Background(), "SPY", types.GranularityFourHours, mustRange("2024-01-02", "2024-01-02"))
	suite.Require().NoError(err)

	suite.Equal("SPY", api.aggParams.Ticker)
	suite.Equal(4, api.aggParams.Multiplier)
	suite.Equal(models.Hour, api.aggParams.Timespan)
	suite.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.Time(api.aggParams.From))
	suite.True(time.Time(api.aggParams.To).Before(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)))

	suite.Require().Len(bars, 2)
	suite.Equal("2024-01-02 08:00:00", bars[0].Date)
	suite.Equal("2024-01-02 12:00:00", bars[1].Date)
	suite.True(bars[0].Has(types.FieldVWAP))
	suite.False(bars[1].Has(types.FieldVWAP))
	suite.Equal(200.0, *bars[1].Volume)
}

func (suite *PolygonClientTestSuite) TestFetchDailyUsesDateLabel() {
	api := &mockPolygonAPIClient{
		aggs: &mockPolygonIterator[models.Agg]{items: []models.Agg{
			{Timestamp: models.Millis(time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)), Open: 1, High: 1, Low: 1, Close: 1},
		}},
	}

	bars, err := NewPolygonClientWithAPI(api).Fetch(context.Background(), "SPY", types.GranularityOneDay, mustRange("2024-01-02", "2024-01-02"))
	suite.Require().NoError(err)
	suite.Require().Len(bars, 1)
	suite.Equal("2024-01-02", bars[0].Date)
	suite.Equal(models.Day, api.aggParams.Timespan)
}

func (suite *PolygonClientTestSuite) TestFetchEmptyAndError() {
	api := &mockPolygonAPIClient{aggs: &mockPolygonIterator[models.Agg]{}}

	bars, err := NewPolygonClientWithAPI(api).Fetch(context.Background(), "SPY", types.GranularityOneDay, mustRange("2024-01-06", "2024-01-06"))
	suite.NoError(err)
	suite.Empty(bars)

	api.aggs = &mockPolygonIterator[models.Agg]{err: fmt.Errorf("rate limited")}
	bars, err = NewPolygonClientWithAPI(api).Fetch(context.Background(), "SPY", types.GranularityOneDay, mustRange("2024-01-06", "2024-01-06"))
	suite.Nil(bars)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
}

func (suite *PolygonClientTestSuite) TestSplits() {
	api := &mockPolygonAPIClient{
		splits: &mockPolygonIterator[models.Split]{items: []models.Split{
			{Ticker: "NVDA", ExecutionDate: models.Date(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)), SplitFrom: 1, SplitTo: 10},
			{Ticker: "NVDA", ExecutionDate: models.Date(time.Date(2021, 7, 20, 0, 0, 0, 0, time.UTC)), SplitFrom: 1, SplitTo: 4},
		}},
	}

	splits, err := NewPolygonClientWithAPI(api).Splits(context.Background(), "NVDA")
	suite.Require().NoError(err)
	suite.Equal("NVDA", *api.splitParam.TickerEQ)
	suite.Require().Len(splits, 2)
	suite.Equal("2024-06-10", splits[0].ExecutionDate)
	suite.Equal(10.0, splits[0].Ratio())

	_, err = NewPolygonClientWithAPI(api).Splits(context.Background(), "")
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}
