package types

import (
	"encoding/json"
	"time"
)

// Bar field names as they appear in provider payloads and series files.
const (
	FieldDate             = "date"
	FieldOpen             = "open"
	FieldHigh             = "high"
	FieldLow              = "low"
	FieldClose            = "close"
	FieldAdjClose         = "adjClose"
	FieldVolume           = "volume"
	FieldUnadjustedVolume = "unadjustedVolume"
	FieldChange           = "change"
	FieldChangePercent    = "changePercent"
	FieldVWAP             = "vwap"
	FieldLabel            = "label"
	FieldChangeOverTime   = "changeOverTime"
)

// Bar is one observation for one ticker. Intraday bars carry the OHLC fields,
// date and usually volume; daily bars add adjusted close and change metrics.
//
// A Bar decoded from JSON remembers which keys the payload actually carried
// (see Has), so a zero price can be told apart from a missing one.
type Bar struct {
	Date             string   `json:"date"`
	Open             float64  `json:"open"`
	High             float64  `json:"high"`
	Low              float64  `json:"low"`
	Close            float64  `json:"close"`
	AdjClose         *float64 `json:"adjClose,omitempty"`
	Volume           *float64 `json:"volume,omitempty"`
	UnadjustedVolume *float64 `json:"unadjustedVolume,omitempty"`
	Change           *float64 `json:"change,omitempty"`
	ChangePercent    *float64 `json:"changePercent,omitempty"`
	VWAP             *float64 `json:"vwap,omitempty"`
	Label            *string  `json:"label,omitempty"`
	ChangeOverTime   *float64 `json:"changeOverTime,omitempty"`

	present map[string]struct{}
}

// Series is an ascending sequence of bars for one ticker.
type Series []Bar

// NewBar builds an OHLC bar in code. All five base fields are marked present.
func NewBar(date string, open, high, low, close float64) Bar {
	b := Bar{Date: date, Open: open, High: high, Low: low, Close: close}
	b.mark(FieldDate, FieldOpen, FieldHigh, FieldLow, FieldClose)

	return b
}

// WithVolume sets the volume and marks it present.
func (b Bar) WithVolume(v float64) Bar {
	b.Volume = &v
	b.mark(FieldVolume)

	return b
}

// WithAdjClose sets the adjusted close and marks it present.
func (b Bar) WithAdjClose(v float64) Bar {
	b.AdjClose = &v
	b.mark(FieldAdjClose)

	return b
}

// WithVWAP sets the volume weighted average price and marks it present.
func (b Bar) WithVWAP(v float64) Bar {
	b.VWAP = &v
	b.mark(FieldVWAP)

	return b
}

// DailyMetrics are the fields end-of-day bars carry on top of OHLC and volume.
type DailyMetrics struct {
	AdjClose         float64
	UnadjustedVolume float64
	Change           float64
	ChangePercent    float64
	VWAP             float64
	Label            string
	ChangeOverTime   float64
}

// WithDailyMetrics sets every end-of-day field and marks them present.
func (b Bar) WithDailyMetrics(m DailyMetrics) Bar {
	b.AdjClose = &m.AdjClose
	b.UnadjustedVolume = &m.UnadjustedVolume
	b.Change = &m.Change
	b.ChangePercent = &m.ChangePercent
	b.VWAP = &m.VWAP
	b.Label = &m.Label
	b.ChangeOverTime = &m.ChangeOverTime
	b.mark(FieldAdjClose, FieldUnadjustedVolume, FieldChange, FieldChangePercent, FieldVWAP, FieldLabel, FieldChangeOverTime)

	return b
}

// Has reports whether field was present (and not null) in the decoded payload,
// or was set through one of the constructors.
func (b Bar) Has(field string) bool {
	_, ok := b.present[field]

	return ok
}

// Fields returns the number of fields marked present.
func (b Bar) Fields() int {
	return len(b.present)
}

// Time parses the date label using the layout of g.
func (b Bar) Time(g Granularity) (time.Time, error) {
	return time.ParseInLocation(g.DateLayout(), b.Date, time.UTC)
}

// UnmarshalJSON decodes the bar and records which keys were present.
func (b *Bar) UnmarshalJSON(data []byte) error {
	type plain Bar

	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*b = Bar(p)
	b.present = make(map[string]struct{}, len(raw))

	for key, value := range raw {
		if string(value) == "null" {
			continue
		}

		b.present[key] = struct{}{}
	}

	return nil
}

func (b *Bar) mark(fields ...string) {
	next := make(map[string]struct{}, len(b.present)+len(fields))
	for k := range b.present {
		next[k] = struct{}{}
	}

	for _, f := range fields {
		next[f] = struct{}{}
	}

	b.present = next
}

// Reverse returns a copy of s in the opposite order.
func (s Series) Reverse() Series {
	out := make(Series, len(s))
	for i, bar := range s {
		out[len(s)-1-i] = bar
	}

	return out
}
