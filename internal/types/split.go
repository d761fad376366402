package types

// Split is one stock split event as reported by the reference data provider.
type Split struct {
	Ticker        string  `json:"ticker"`
	ExecutionDate string  `json:"execution_date"`
	SplitFrom     float64 `json:"split_from"`
	SplitTo       float64 `json:"split_to"`
}

// Ratio returns the number of new shares per old share.
func (s Split) Ratio() float64 {
	if s.SplitFrom == 0 {
		return 0
	}

	return s.SplitTo / s.SplitFrom
}
