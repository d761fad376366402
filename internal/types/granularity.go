package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/polygon-io/client-go/rest/models"
)

// Granularity is the bar width of a series. Values are the tokens Financial
// Modeling Prep uses in its historical-chart path.
type Granularity string

const (
	GranularityOneMinute      Granularity = "1min"
	GranularityFiveMinutes    Granularity = "5min"
	GranularityFifteenMinutes Granularity = "15min"
	GranularityThirtyMinutes  Granularity = "30min"
	GranularityOneHour        Granularity = "1hour"
	GranularityFourHours      Granularity = "4hour"
	GranularityOneDay         Granularity = "1day"
)

const (
	// IntradayIntervalCap is the widest span, in days, requested per intraday call.
	IntradayIntervalCap = 60
	// DailyIntervalCap is the widest span, in days, requested per daily call (~5 years).
	DailyIntervalCap = 360 * 5
)

var shortGranularities = map[string]Granularity{
	"1m":  GranularityOneMinute,
	"5m":  GranularityFiveMinutes,
	"15m": GranularityFifteenMinutes,
	"30m": GranularityThirtyMinutes,
	"1h":  GranularityOneHour,
	"4h":  GranularityFourHours,
	"1d":  GranularityOneDay,
}

// Granularities lists every supported granularity, finest first.
func Granularities() []Granularity {
	return []Granularity{
		GranularityOneMinute,
		GranularityFiveMinutes,
		GranularityFifteenMinutes,
		GranularityThirtyMinutes,
		GranularityOneHour,
		GranularityFourHours,
		GranularityOneDay,
	}
}

// ParseGranularity accepts both the long provider tokens (1day, 4hour) and the
// short aliases (1d, 4h).
func ParseGranularity(s string) (Granularity, error) {
	token := strings.TrimSpace(s)
	if g, ok := shortGranularities[token]; ok {
		return g, nil
	}

	g := Granularity(strings.ToLower(token))
	if g.IsValid() {
		return g, nil
	}

	return "", fmt.Errorf("unknown granularity %q", s)
}

// IsValid reports whether g is one of the supported granularities.
func (g Granularity) IsValid() bool {
	for _, known := range Granularities() {
		if g == known {
			return true
		}
	}

	return false
}

// IsIntraday reports whether bars of this granularity are finer than a day.
func (g Granularity) IsIntraday() bool {
	return g.IsValid() && g != GranularityOneDay
}

// IntervalCap returns the chunk width in days used when splitting a request
// span for this granularity.
func (g Granularity) IntervalCap() int {
	if g == GranularityOneDay {
		return DailyIntervalCap
	}

	return IntradayIntervalCap
}

// Short returns the compact alias, e.g. "1d" for 1day.
func (g Granularity) Short() string {
	for short, long := range shortGranularities {
		if long == g {
			return short
		}
	}

	return string(g)
}

// Multiplier returns the polygon aggregate multiplier for g.
func (g Granularity) Multiplier() int {
	switch g {
	case GranularityFiveMinutes:
		return 5
	case GranularityFifteenMinutes:
		return 15
	case GranularityThirtyMinutes:
		return 30
	case GranularityFourHours:
		return 4
	default:
		return 1
	}
}

// Timespan returns the polygon aggregate timespan for g.
func (g Granularity) Timespan() models.Timespan {
	switch g {
	case GranularityOneMinute, GranularityFiveMinutes, GranularityFifteenMinutes, GranularityThirtyMinutes:
		return models.Minute
	case GranularityOneHour, GranularityFourHours:
		return models.Hour
	default:
		return models.Day
	}
}

// Duration returns the width of one bar.
func (g Granularity) Duration() time.Duration {
	switch g {
	case GranularityOneMinute, GranularityFiveMinutes, GranularityFifteenMinutes, GranularityThirtyMinutes:
		return time.Duration(g.Multiplier()) * time.Minute
	case GranularityOneHour, GranularityFourHours:
		return time.Duration(g.Multiplier()) * time.Hour
	default:
		return 24 * time.Hour
	}
}

// DateLayout is the layout providers use for the bar date label.
func (g Granularity) DateLayout() string {
	if g.IsIntraday() {
		return "2006-01-02 15:04:05"
	}

	return DateLayout
}
