package writer

import (
	"io"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

// Format names an on-disk series encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// SeriesEncoder defines how a series is written to a destination.
type SeriesEncoder interface {
	// Encode writes the whole series to w.
	Encode(w io.Writer, series types.Series) error
	// Extension returns the file extension without the dot.
	Extension() string
}

// Formats lists the supported encodings.
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatParquet}
}

// New creates the encoder for format.
func New(format Format) (SeriesEncoder, error) {
	switch format {
	case FormatJSON, "":
		return JSONEncoder{}, nil
	case FormatCSV:
		return CSVEncoder{}, nil
	case FormatParquet:
		return ParquetEncoder{}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported output format: %s", format)
	}
}
