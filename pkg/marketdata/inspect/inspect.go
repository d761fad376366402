package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-ingest/internal/logger"
	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

const (
	rawViewName = "series_raw"
	viewName    = "series"
)

// SeriesStats summarizes one series file.
type SeriesStats struct {
	Path          string `json:"path"`
	Rows          int64  `json:"rows"`
	DistinctDates int64  `json:"distinct_dates"`
	// Duplicates counts rows sharing a date with an earlier row, typically
	// bars repeated at chunk boundaries.
	Duplicates int64  `json:"duplicates"`
	FirstDate  string `json:"first_date"`
	LastDate   string `json:"last_date"`
}

// Inspector runs read-only queries over series files with an in-memory DuckDB.
type Inspector struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType
}

func NewInspector(log *logger.Logger) (*Inspector, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to open DuckDB connection", err)
	}

	return &Inspector{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

func (i *Inspector) Close() error {
	return i.db.Close()
}

// Stats counts rows, distinct dates and boundary duplicates of the file at path.
// An empty series, such as the "[]" written for a backfill without data, has
// zero stats.
func (i *Inspector) Stats(ctx context.Context, path string) (SeriesStats, error) {
	empty, err := i.open(ctx, path)
	if err != nil {
		return SeriesStats{}, err
	}

	if empty {
		return SeriesStats{Path: path}, nil
	}

	query, args, err := i.sq.
		Select("COUNT(*)", "COUNT(DISTINCT date)", "COALESCE(MIN(date), '')", "COALESCE(MAX(date), '')").
		From(viewName).
		ToSql()
	if err != nil {
		return SeriesStats{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build stats query", err)
	}

	stats := SeriesStats{Path: path}

	err = i.db.QueryRowContext(ctx, query, args...).Scan(&stats.Rows, &stats.DistinctDates, &stats.FirstDate, &stats.LastDate)
	if err != nil {
		return SeriesStats{}, errors.Wrapf(errors.ErrCodeQueryFailed, err, "stats for %s", path)
	}

	stats.Duplicates = stats.Rows - stats.DistinctDates

	i.log.Debug("series stats", zap.String("path", path), zap.Int64("rows", stats.Rows))

	return stats, nil
}

// Bars returns the OHLC bars of the file at path with dates inside [from, to],
// ascending. Unset bounds are open.
func (i *Inspector) Bars(ctx context.Context, path string, from, to optional.Option[string]) (types.Series, error) {
	empty, err := i.open(ctx, path)
	if err != nil {
		return nil, err
	}

	if empty {
		return types.Series{}, nil
	}

	builder := i.sq.
		Select("date", "CAST(open AS DOUBLE)", "CAST(high AS DOUBLE)", "CAST(low AS DOUBLE)", "CAST(close AS DOUBLE)").
		From(viewName).
		OrderBy("date")

	if from.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"date": from.Unwrap()})
	}

	if to.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"date": to.Unwrap()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build bars query", err)
	}

	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "bars for %s", path)
	}
	defer rows.Close()

	var series types.Series

	for rows.Next() {
		var (
			date                   string
			open, high, low, close float64
		)

		if err := rows.Scan(&date, &open, &high, &low, &close); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		series = append(series, types.NewBar(date, open, high, low, close))
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	return series, nil
}

// open points the series view at path and reports whether the file holds no
// bars. The date column is exposed as text so daily and intraday labels
// compare the same way.
func (i *Inspector) open(ctx context.Context, path string) (bool, error) {
	reader, err := readerFor(path)
	if err != nil {
		return false, err
	}

	// DuckDB cannot bind a table function argument in a view, so the quoted path is inlined.
	query := fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS SELECT * FROM %s('%s')`,
		rawViewName, reader, strings.ReplaceAll(path, "'", "''"))

	if _, err := i.db.ExecContext(ctx, query); err != nil {
		return false, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read %s", path)
	}

	hasDate, err := i.hasDateColumn(ctx)
	if err != nil {
		return false, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read columns of %s", path)
	}

	// An empty JSON array carries no columns at all.
	if !hasDate {
		var rows int64
		if err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+rawViewName).Scan(&rows); err != nil {
			return false, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to count rows of %s", path)
		}

		if rows == 0 {
			i.log.Debug("empty series", zap.String("path", path))

			return true, nil
		}

		return false, errors.Newf(errors.ErrCodeQueryFailed, "%s has no date column", path)
	}

	query = fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS
		SELECT * REPLACE (CAST(date AS VARCHAR) AS date) FROM %s`, viewName, rawViewName)

	if _, err := i.db.ExecContext(ctx, query); err != nil {
		return false, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read %s", path)
	}

	return false, nil
}

func (i *Inspector) hasDateColumn(ctx context.Context) (bool, error) {
	rows, err := i.db.QueryContext(ctx, "SELECT * FROM "+rawViewName+" LIMIT 0")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return false, err
	}

	return slices.Contains(columns, "date"), nil
}

func readerFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "read_json_auto", nil
	case ".csv":
		return "read_csv_auto", nil
	case ".parquet":
		return "read_parquet", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported series file %s", path)
	}
}
