package writer

import "github.com/rxtech-lab/argo-ingest/internal/types"

// row is the flat, tabular shape of a bar used by the csv and parquet encoders.
// Optional fields stay nil when the bar did not carry them.
type row struct {
	Date             string   `csv:"date"             parquet:"date"`
	Open             float64  `csv:"open"             parquet:"open"`
	High             float64  `csv:"high"             parquet:"high"`
	Low              float64  `csv:"low"              parquet:"low"`
	Close            float64  `csv:"close"            parquet:"close"`
	AdjClose         *float64 `csv:"adjClose"         parquet:"adjClose,optional"`
	Volume           *float64 `csv:"volume"           parquet:"volume,optional"`
	UnadjustedVolume *float64 `csv:"unadjustedVolume" parquet:"unadjustedVolume,optional"`
	Change           *float64 `csv:"change"           parquet:"change,optional"`
	ChangePercent    *float64 `csv:"changePercent"    parquet:"changePercent,optional"`
	VWAP             *float64 `csv:"vwap"             parquet:"vwap,optional"`
	Label            *string  `csv:"label"            parquet:"label,optional"`
	ChangeOverTime   *float64 `csv:"changeOverTime"   parquet:"changeOverTime,optional"`
}

func toRows(series types.Series) []row {
	rows := make([]row, len(series))
	for i, bar := range series {
		rows[i] = row{
			Date:             bar.Date,
			Open:             bar.Open,
			High:             bar.High,
			Low:              bar.Low,
			Close:            bar.Close,
			AdjClose:         bar.AdjClose,
			Volume:           bar.Volume,
			UnadjustedVolume: bar.UnadjustedVolume,
			Change:           bar.Change,
			ChangePercent:    bar.ChangePercent,
			VWAP:             bar.VWAP,
			Label:            bar.Label,
			ChangeOverTime:   bar.ChangeOverTime,
		}
	}

	return rows
}
