package marketdata

import (
	"context"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rxtech-lab/argo-ingest/internal/logger"
	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/store"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/writer"
)

// LastRunFile is the run report written at the data directory root after a daily run.
const LastRunFile = ".lastrun.json"

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	Provider provider.ProviderType `validate:"required,oneof=fmp polygon alphavantage yahoo"`
	// Format is the encoding of backfilled series. Empty means json.
	Format writer.Format `validate:"omitempty,oneof=json csv parquet"`
	// Concurrency bounds how many tickers a daily run works on at once.
	Concurrency int `validate:"min=1"`
}

// BackfillParams holds the parameters for a historical download.
type BackfillParams struct {
	InstrumentType string            `validate:"required"`
	Ticker         string            `validate:"required"`
	Granularity    types.Granularity `validate:"required"`
	StartDate      time.Time         `validate:"required"`
	EndDate        time.Time         `validate:"required"`
}

func (p BackfillParams) key() types.SeriesKey {
	return types.SeriesKey{InstrumentType: p.InstrumentType, Granularity: p.Granularity, Ticker: p.Ticker}
}

// BackfillResult describes the series a backfill wrote.
type BackfillResult struct {
	Key  types.SeriesKey
	Path string
	Bars int
}

// RunReport summarizes one daily run.
type RunReport struct {
	ID         uuid.UUID             `json:"id"`
	Provider   provider.ProviderType `json:"provider"`
	Date       string                `json:"date"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Counts     map[OutcomeStatus]int `json:"counts"`
	Outcomes   []Outcome             `json:"outcomes"`
}

// Failed returns the outcomes that are errors.
func (r RunReport) Failed() []Outcome {
	var failed []Outcome

	for _, o := range r.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}

	return failed
}

// SplitSource is implemented by fetchers that also serve split history.
type SplitSource interface {
	Splits(ctx context.Context, ticker string) ([]types.Split, error)
}

// Client ties a fetcher and a store together into backfill and daily update runs.
type Client struct {
	config    ClientConfig
	info      ProviderInfo
	fetcher   provider.Fetcher
	store     store.Store
	encoder   writer.SeriesEncoder
	assembler *Assembler
	appender  *Appender
	log       *logger.Logger
}

// NewClient creates a new market data client with the given configuration.
// onProgress receives backfill chunk progress and may be nil.
func NewClient(
	config ClientConfig,
	fetcher provider.Fetcher,
	seriesStore store.Store,
	log *logger.Logger,
	onProgress provider.OnDownloadProgress,
) (*Client, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	if fetcher == nil || seriesStore == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "client needs a fetcher and a store")
	}

	info, err := GetProviderInfo(string(config.Provider))
	if err != nil {
		return nil, err
	}

	encoder, err := writer.New(config.Format)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		config:    config,
		info:      info,
		fetcher:   fetcher,
		store:     seriesStore,
		encoder:   encoder,
		assembler: NewAssembler(fetcher, log, onProgress),
		appender:  NewAppender(fetcher, seriesStore, log),
		log:       log,
	}, nil
}

// Backfill downloads the full history described by params and replaces the
// series file with it.
//
// When the download stops part way, the bars already gathered are saved and
// the download error is returned alongside the result.
func (c *Client) Backfill(ctx context.Context, params BackfillParams) (BackfillResult, error) {
	result := BackfillResult{Key: params.key()}

	if err := validator.New().Struct(params); err != nil {
		return result, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid backfill parameters", err)
	}

	if !c.info.Supports(params.Granularity) {
		return result, errors.Newf(errors.ErrCodeUnsupportedGranularity,
			"%s does not serve %s bars", c.info.DisplayName, params.Granularity)
	}

	c.log.Info("Backfill started",
		zap.String("series", result.Key.String()),
		zap.String("start", params.StartDate.Format(types.DateLayout)),
		zap.String("end", params.EndDate.Format(types.DateLayout)),
	)

	series, fetchErr := c.assembler.Assemble(ctx, params.Ticker, params.Granularity, params.StartDate, params.EndDate)
	// Nothing gathered: keep whatever file is already there.
	if len(series) == 0 {
		if fetchErr != nil {
			return result, fetchErr
		}

		c.log.Warn("Backfill found no data, series left unchanged",
			zap.String("series", result.Key.String()),
			zap.String("start", params.StartDate.Format(types.DateLayout)),
			zap.String("end", params.EndDate.Format(types.DateLayout)),
		)

		return result, nil
	}

	path, err := c.store.Save(result.Key, series, c.encoder)
	if err != nil {
		return result, err
	}

	result.Path = path
	result.Bars = len(series)

	if fetchErr != nil {
		c.log.Warn("Backfill incomplete, partial series saved",
			zap.String("series", result.Key.String()),
			zap.String("path", path),
			zap.Int("bars", result.Bars),
			zap.Error(fetchErr),
		)

		return result, fetchErr
	}

	c.log.Info("Backfill finished",
		zap.String("series", result.Key.String()),
		zap.String("path", path),
		zap.Int("bars", result.Bars),
	)

	return result, nil
}

// RunDaily appends the bar of date to every series in keys.
//
// Tickers are processed concurrently, up to the configured concurrency. The
// granularities of one ticker are processed in order. A failing series never
// stops the others; its outcome carries the reason. The report is also written
// to LastRunFile. RunDaily returns an error only when the provider cannot
// serve daily appends or that write fails.
func (c *Client) RunDaily(ctx context.Context, keys []types.SeriesKey, date time.Time) (RunReport, error) {
	if !c.info.DailyAppend {
		return RunReport{}, errors.Newf(errors.ErrCodeInvalidProvider,
			"%s does not serve the end-of-day records daily updates append", c.info.DisplayName)
	}

	report := RunReport{
		ID:        uuid.New(),
		Provider:  c.config.Provider,
		Date:      types.Day(date).Format(types.DateLayout),
		StartedAt: time.Now().UTC(),
		Counts:    make(map[OutcomeStatus]int),
	}

	c.log.Info("Daily run started",
		zap.String("run_id", report.ID.String()),
		zap.String("date", report.Date),
		zap.Int("series", len(keys)),
	)

	groups := groupByTicker(keys)
	results := make([][]Outcome, len(groups))

	var g errgroup.Group

	g.SetLimit(c.config.Concurrency)

	for i, group := range groups {
		g.Go(func() error {
			outcomes := make([]Outcome, 0, len(group))
			for _, key := range group {
				outcomes = append(outcomes, c.appender.AppendOneDay(ctx, key, date))
			}

			results[i] = outcomes

			return nil
		})
	}

	_ = g.Wait()

	for _, outcomes := range results {
		for _, o := range outcomes {
			report.Outcomes = append(report.Outcomes, o)
			report.Counts[o.Status]++
		}
	}

	report.FinishedAt = time.Now().UTC()

	c.log.Info("Daily run finished",
		zap.String("run_id", report.ID.String()),
		zap.Int("appended", report.Counts[OutcomeAppended]),
		zap.Int("no_data", report.Counts[OutcomeNoData]),
		zap.Int("failed", len(report.Failed())),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)

	if _, err := c.store.WriteJSON(LastRunFile, report); err != nil {
		return report, err
	}

	return report, nil
}

// Splits downloads the split history of ticker and stores it as splits/{ticker}.json.
func (c *Client) Splits(ctx context.Context, ticker string) ([]types.Split, string, error) {
	source, ok := c.fetcher.(SplitSource)
	if !ok || !c.info.Splits {
		return nil, "", errors.Newf(errors.ErrCodeInvalidProvider, "%s does not serve split history", c.info.DisplayName)
	}

	splits, err := source.Splits(ctx, ticker)
	if err != nil {
		return nil, "", err
	}

	if splits == nil {
		splits = []types.Split{}
	}

	path, err := c.store.WriteJSON(filepath.Join("splits", ticker+".json"), splits)
	if err != nil {
		return splits, "", err
	}

	c.log.Info("Splits saved", zap.String("ticker", ticker), zap.Int("splits", len(splits)), zap.String("path", path))

	return splits, path, nil
}

// groupByTicker splits keys into per-ticker groups, keeping the first-seen
// order of tickers and the order of keys inside each group.
func groupByTicker(keys []types.SeriesKey) [][]types.SeriesKey {
	index := make(map[string]int)

	var groups [][]types.SeriesKey

	for _, key := range keys {
		id := key.InstrumentType + "/" + key.Ticker

		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, nil)
		}

		groups[i] = append(groups[i], key)
	}

	return groups
}
