package marketdata

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-ingest/internal/logger"
	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/provider"
)

// Assembler downloads a full history by chunking the requested span and
// fetching each chunk in order. Calls for one Assemble run are sequential.
type Assembler struct {
	fetcher    provider.Fetcher
	log        *logger.Logger
	onProgress provider.OnDownloadProgress
}

// NewAssembler creates an assembler. onProgress may be nil.
func NewAssembler(fetcher provider.Fetcher, log *logger.Logger, onProgress provider.OnDownloadProgress) *Assembler {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Assembler{
		fetcher:    fetcher,
		log:        log,
		onProgress: onProgress,
	}
}

// Assemble returns every bar of ticker between start and end, ascending.
// Bars at chunk boundaries are not deduplicated.
//
// When a chunk fails, or ctx is cancelled, the bars gathered from earlier
// chunks are returned together with the error.
func (a *Assembler) Assemble(ctx context.Context, ticker string, granularity types.Granularity, start, end time.Time) (types.Series, error) {
	ranges, err := ChunkList(start, end, granularity)
	if err != nil {
		return nil, err
	}

	total := float64(len(ranges))
	message := fmt.Sprintf("Downloading %s %s", ticker, granularity)

	var series types.Series

	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			return series, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "assemble %s %s stopped before %s", ticker, granularity, r)
		}

		bars, err := a.fetcher.Fetch(ctx, ticker, granularity, r)
		if err != nil {
			a.log.Warn("chunk fetch failed",
				zap.String("ticker", ticker),
				zap.String("granularity", string(granularity)),
				zap.String("range", r.String()),
				zap.Int("bars_so_far", len(series)),
				zap.Error(err),
			)

			return series, errors.Wrapf(errors.GetCode(err), err, "assemble %s %s chunk %s", ticker, granularity, r)
		}

		series = append(series, bars...)

		a.log.Debug("chunk fetched",
			zap.String("ticker", ticker),
			zap.String("range", r.String()),
			zap.Int("bars", len(bars)),
		)

		if a.onProgress != nil {
			a.onProgress(float64(i+1), total, message)
		}
	}

	return series, nil
}
