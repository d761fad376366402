package marketdata

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-ingest/internal/logger"
	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/store"
)

// OutcomeStatus is the result of one single-day append.
type OutcomeStatus string

const (
	OutcomeAppended               OutcomeStatus = "appended"
	OutcomeNoData                 OutcomeStatus = "no_data"
	OutcomeSchemaMismatch         OutcomeStatus = "schema_mismatch"
	OutcomeUnsupportedGranularity OutcomeStatus = "unsupported_granularity"
	OutcomeFetchFailed            OutcomeStatus = "fetch_failed"
	OutcomePersistenceFailed      OutcomeStatus = "persistence_failed"
)

// Outcome records what happened to one ticker, granularity and date.
type Outcome struct {
	InstrumentType string            `json:"instrument_type"`
	Ticker         string            `json:"ticker"`
	Granularity    types.Granularity `json:"granularity"`
	Date           string            `json:"date"`
	Status         OutcomeStatus     `json:"status"`
	Reason         string            `json:"reason,omitempty"`
	Missing        []string          `json:"missing,omitempty"`
}

// Failed reports whether the outcome is an error. no_data is not one.
func (o Outcome) Failed() bool {
	return o.Status != OutcomeAppended && o.Status != OutcomeNoData
}

// Appender keeps an existing series current by adding one day at a time.
type Appender struct {
	fetcher provider.Fetcher
	store   store.Store
	log     *logger.Logger
}

func NewAppender(fetcher provider.Fetcher, seriesStore store.Store, log *logger.Logger) *Appender {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Appender{
		fetcher: fetcher,
		store:   seriesStore,
		log:     log,
	}
}

// AppendOneDay fetches date for key, validates the single record and appends it
// to the series file. The file is written only when the outcome is appended.
// Failures are logged and reported through the outcome, never returned.
func (a *Appender) AppendOneDay(ctx context.Context, key types.SeriesKey, date time.Time) Outcome {
	r := types.SingleDay(date)
	outcome := Outcome{
		InstrumentType: key.InstrumentType,
		Ticker:         key.Ticker,
		Granularity:    key.Granularity,
		Date:           r.Start.Format(types.DateLayout),
	}

	fields := []zap.Field{
		zap.String("series", key.String()),
		zap.String("date", outcome.Date),
	}

	bars, err := a.fetcher.Fetch(ctx, key.Ticker, key.Granularity, r)
	if err != nil {
		outcome.Status = OutcomeFetchFailed
		outcome.Reason = err.Error()
		a.log.Error("fetch failed", append(fields, zap.Error(err))...)

		return outcome
	}

	if len(bars) == 0 {
		outcome.Status = OutcomeNoData
		outcome.Reason = "no data available"
		a.log.Info("no data available", fields...)

		return outcome
	}

	result := ValidateSchema(key.Granularity, bars)

	switch result.Status {
	case SchemaUnsupported:
		outcome.Status = OutcomeUnsupportedGranularity
		outcome.Reason = result.Reason
		a.log.Warn("unsupported granularity", append(fields, zap.String("reason", result.Reason))...)

		return outcome
	case SchemaInvalid:
		outcome.Status = OutcomeSchemaMismatch
		outcome.Reason = result.Reason
		outcome.Missing = result.Missing
		a.log.Error("schema mismatch",
			append(fields, zap.String("reason", result.Reason), zap.Any("payload", bars))...)

		return outcome
	case SchemaValid:
	}

	if err := a.store.Append(key, bars[0]); err != nil {
		outcome.Status = OutcomePersistenceFailed
		outcome.Reason = err.Error()
		a.log.Error("append failed", append(fields, zap.Error(err))...)

		return outcome
	}

	outcome.Status = OutcomeAppended
	a.log.Info("appended", fields...)

	return outcome
}
