package writer

import (
	"encoding/json"
	"io"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

// JSONEncoder writes the series as a single compact JSON array, the layout
// the incremental appender reads back.
type JSONEncoder struct{}

func (JSONEncoder) Encode(w io.Writer, series types.Series) error {
	if series == nil {
		series = types.Series{}
	}

	data, err := json.Marshal(series)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "encode json series", err)
	}

	if _, err := w.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "write json series", err)
	}

	return nil
}

func (JSONEncoder) Extension() string {
	return string(FormatJSON)
}
