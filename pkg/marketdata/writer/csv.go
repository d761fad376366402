package writer

import (
	"io"

	"github.com/gocarina/gocsv"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

// CSVEncoder writes one header line followed by one line per bar.
type CSVEncoder struct{}

func (CSVEncoder) Encode(w io.Writer, series types.Series) error {
	if err := gocsv.Marshal(toRows(series), w); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "encode csv series", err)
	}

	return nil
}

func (CSVEncoder) Extension() string {
	return string(FormatCSV)
}
