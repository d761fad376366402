package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-ingest/internal/config"
	"github.com/rxtech-lab/argo-ingest/internal/logger"
	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/inspect"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/store"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/writer"
)

// session is what every config-driven command starts from.
type session struct {
	cfg    *config.Config
	log    *logger.Logger
	client *marketdata.Client
}

func (s *session) close() {
	_ = s.log.Sync()
}

func openSession(cmd *cli.Command, onProgress provider.OnDownloadProgress) (*session, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if err := applyOverrides(cfg, cmd.String("provider"), cmd.String("log-level"), cmd.String("format")); err != nil {
		return nil, err
	}

	var outputs []string
	if cfg.LogFile != "" {
		outputs = append(outputs, cfg.LogFile)
	}

	log, err := logger.NewLoggerWithLevel(cfg.LogLevel, outputs...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "create logger", err)
	}

	fetcher, err := provider.NewFetcher(cfg.Provider, cfg.ProviderConfig())
	if err != nil {
		return nil, err
	}

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		Provider:    cfg.Provider,
		Format:      writer.Format(cfg.OutputFormat),
		Concurrency: cfg.Concurrency,
	}, fetcher, store.NewFileStore(cfg.DataDir), log, onProgress)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, log: log, client: client}, nil
}

// applyOverrides replaces config values with the non-empty command line ones
// and validates the result again.
func applyOverrides(cfg *config.Config, providerName, logLevel, format string) error {
	if providerName == "" && logLevel == "" && format == "" {
		return nil
	}

	if providerName != "" {
		cfg.Provider = provider.ProviderType(providerName)
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if format != "" {
		cfg.OutputFormat = format
	}

	return cfg.Validate()
}

func backfillAction(ctx context.Context, cmd *cli.Command) error {
	progress := newProgress(cmd.Root().ErrWriter)

	s, err := openSession(cmd, progress.update)
	if err != nil {
		return err
	}
	defer s.close()

	keys, err := backfillKeys(s.cfg, cmd.String("ticker"), cmd.String("type"), cmd.String("granularity"))
	if err != nil {
		return err
	}

	start, end, err := backfillWindow(s.cfg, flagDate(cmd, "start"), flagDate(cmd, "end"), time.Now())
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	failed := 0

	for _, key := range keys {
		result, err := s.client.Backfill(ctx, marketdata.BackfillParams{
			InstrumentType: key.InstrumentType,
			Ticker:         key.Ticker,
			Granularity:    key.Granularity,
			StartDate:      start,
			EndDate:        end,
		})
		progress.finish()

		switch {
		case result.Path != "":
			fmt.Fprintf(out, "%s: %d bars -> %s\n", key, result.Bars, result.Path)
		case err == nil:
			fmt.Fprintf(out, "%s: no data, series unchanged\n", key)
		}

		if err != nil {
			failed++

			s.log.Error("Backfill failed", zap.String("series", key.String()), zap.Error(err))
			fmt.Fprintf(out, "%s: %v\n", key, err)

			if ctx.Err() != nil {
				break
			}
		}
	}

	if failed > 0 {
		return errors.Newf(errors.ErrCodeMarketDataFetchFailed, "%d of %d backfills failed", failed, len(keys))
	}

	return nil
}

// backfillKeys resolves the series a backfill covers. A ticker missing from
// the config needs an explicit instrument type.
func backfillKeys(cfg *config.Config, ticker, instrumentType, granularity string) ([]types.SeriesKey, error) {
	granularities := cfg.Granularities

	if granularity != "" {
		g, err := types.ParseGranularity(granularity)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnsupportedGranularity, "invalid --granularity", err)
		}

		granularities = []types.Granularity{g}
	}

	if ticker == "" {
		var keys []types.SeriesKey

		for _, key := range cfg.SeriesKeys() {
			if granularity == "" || key.Granularity == granularities[0] {
				keys = append(keys, key)
			}
		}

		if len(keys) == 0 {
			return nil, errors.Newf(errors.ErrCodeMissingParameter, "no configured series at %s, pass --ticker and --type", granularity)
		}

		return keys, nil
	}

	if instrumentType == "" {
		configured, ok := cfg.InstrumentType(ticker)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeMissingParameter, "%s is not configured, pass --type", ticker)
		}

		instrumentType = configured
	}

	keys := make([]types.SeriesKey, 0, len(granularities))
	for _, g := range granularities {
		keys = append(keys, types.SeriesKey{InstrumentType: instrumentType, Granularity: g, Ticker: ticker})
	}

	return keys, nil
}

// backfillWindow picks the flag value, then the config value. The end falls
// back to yesterday; the start has no fallback.
func backfillWindow(cfg *config.Config, start, end optional.Option[time.Time], now time.Time) (time.Time, time.Time, error) {
	start = start.Or(cfg.Backfill.Start)
	end = end.Or(cfg.Backfill.End)

	if start.IsNone() {
		return time.Time{}, time.Time{}, errors.New(errors.ErrCodeMissingParameter, "no start date: pass --start or set backfill.start")
	}

	return types.Day(start.Unwrap()), types.Day(end.TakeOr(yesterday(now))), nil
}

func dailyAction(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	date := flagDate(cmd, "date").TakeOr(yesterday(time.Now()))

	report, err := s.client.RunDaily(ctx, s.cfg.SeriesKeys(), date)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	fmt.Fprintf(out, "run %s for %s: %d appended, %d without data, %d failed\n",
		report.ID, report.Date, report.Counts[marketdata.OutcomeAppended], report.Counts[marketdata.OutcomeNoData], len(report.Failed()))

	for _, o := range report.Failed() {
		fmt.Fprintf(out, "  %s/%s/%s: %s: %s\n", o.InstrumentType, o.Granularity, o.Ticker, o.Status, o.Reason)
	}

	if failed := len(report.Failed()); failed > 0 {
		return errors.Newf(errors.ErrCodeMarketDataFetchFailed, "%d of %d series failed", failed, len(report.Outcomes))
	}

	return nil
}

func inspectAction(ctx context.Context, cmd *cli.Command) error {
	level := cmd.String("log-level")
	if level == "" {
		level = "warn"
	}

	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid --log-level", err)
	}
	defer func() { _ = log.Sync() }()

	inspector, err := inspect.NewInspector(log)
	if err != nil {
		return err
	}
	defer inspector.Close()

	path := cmd.String("file")

	stats, err := inspector.Stats(ctx, path)
	if err != nil {
		return err
	}

	out := map[string]any{"stats": stats}

	from, to := flagString(cmd, "from"), flagString(cmd, "to")
	if from.IsSome() || to.IsSome() {
		bars, err := inspector.Bars(ctx, path, from, to)
		if err != nil {
			return err
		}

		out["bars"] = bars
	}

	return printJSON(cmd.Root().Writer, out)
}

func splitsAction(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	splits, path, err := s.client.Splits(ctx, cmd.String("ticker"))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "%d splits -> %s\n", len(splits), path)

	return nil
}

func providersAction(_ context.Context, cmd *cli.Command) error {
	w := tabwriter.NewWriter(cmd.Root().Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDISPLAY NAME\tAUTH\tSPLITS\tDAILY\tGRANULARITIES")

	for _, name := range marketdata.GetSupportedProviders() {
		info, err := marketdata.GetProviderInfo(name)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%t\t%v\n",
			info.Name, info.DisplayName, info.RequiresAuth, info.Splits, info.DailyAppend, info.Granularities)
	}

	return w.Flush()
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	schema, err := config.Schema()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, schema)

	return err
}

func yesterday(now time.Time) time.Time {
	return types.Day(now).AddDate(0, 0, -1)
}

func flagDate(cmd *cli.Command, name string) optional.Option[time.Time] {
	if !cmd.IsSet(name) {
		return optional.None[time.Time]()
	}

	return optional.Some(cmd.Timestamp(name))
}

func flagString(cmd *cli.Command, name string) optional.Option[string] {
	if v := cmd.String(name); v != "" {
		return optional.Some(v)
	}

	return optional.None[string]()
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
