package writer

import (
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

// ParquetEncoder writes the series as a single parquet file.
type ParquetEncoder struct{}

func (ParquetEncoder) Encode(w io.Writer, series types.Series) error {
	pw := parquet.NewGenericWriter[row](w)

	if _, err := pw.Write(toRows(series)); err != nil {
		_ = pw.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "encode parquet series", err)
	}

	if err := pw.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "close parquet writer", err)
	}

	return nil
}

func (ParquetEncoder) Extension() string {
	return string(FormatParquet)
}
