package types

import "path/filepath"

// SeriesKey names one on-disk series: one file per instrument type,
// granularity and ticker.
type SeriesKey struct {
	InstrumentType string
	Granularity    Granularity
	Ticker         string
}

// RelPath returns {instrument_type}/{granularity}/{ticker}.{ext}. The
// granularity directory uses the short alias (1d, 4h), matching the layout the
// daily downloader has always written.
func (k SeriesKey) RelPath(ext string) string {
	return filepath.Join(k.InstrumentType, k.Granularity.Short(), k.Ticker+"."+ext)
}

func (k SeriesKey) String() string {
	return k.InstrumentType + "/" + string(k.Granularity) + "/" + k.Ticker
}
