package marketdata

import (
	"iter"
	"time"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

// Chunk partitions [start, end] into contiguous, non-overlapping sub-ranges no
// wider than the interval cap of g. Each chunk ends cap days after it starts
// (clamped to end) and the next one starts the following day.
//
// start and end are truncated to UTC calendar days. start after end is
// rejected before any range is produced.
func Chunk(start, end time.Time, g types.Granularity) (iter.Seq[types.DateRange], error) {
	if !g.IsValid() {
		return nil, errors.Newf(errors.ErrCodeUnsupportedGranularity, "unsupported granularity %q", g)
	}

	first, last := types.Day(start), types.Day(end)
	if first.After(last) {
		return nil, errors.Newf(errors.ErrCodeInvalidDateRange,
			"start %s is after end %s", first.Format(types.DateLayout), last.Format(types.DateLayout))
	}

	interval := g.IntervalCap()

	return func(yield func(types.DateRange) bool) {
		if first.Equal(last) {
			yield(types.DateRange{Start: first, End: last})

			return
		}

		for from := first; !from.After(last); {
			to := from.AddDate(0, 0, interval)
			if to.After(last) {
				to = last
			}

			if !yield(types.DateRange{Start: from, End: to}) {
				return
			}

			from = to.AddDate(0, 0, 1)
		}
	}, nil
}

// ChunkList collects the ranges Chunk would yield.
func ChunkList(start, end time.Time, g types.Granularity) ([]types.DateRange, error) {
	seq, err := Chunk(start, end, g)
	if err != nil {
		return nil, err
	}

	var ranges []types.DateRange
	for r := range seq {
		ranges = append(ranges, r)
	}

	return ranges, nil
}
