package mocks

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-ingest/internal/types"
)

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 100

	series := gen.Generate(config)

	if len(series) != 100 {
		t.Errorf("expected 100 bars, got %d", len(series))
	}

	// Verify dates are ascending and one day apart
	for i := 1; i < len(series); i++ {
		prev, err := series[i-1].Time(config.Granularity)
		if err != nil {
			t.Fatalf("bad date at index %d: %v", i-1, err)
		}

		cur, err := series[i].Time(config.Granularity)
		if err != nil {
			t.Fatalf("bad date at index %d: %v", i, err)
		}

		if cur.Sub(prev) != 24*time.Hour {
			t.Errorf("unexpected spacing at index %d: %v", i, cur.Sub(prev))
		}
	}

	// Verify OHLC values are positive and High >= Low
	for i, b := range series {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			t.Errorf("invalid OHLC values at index %d: O=%f H=%f L=%f C=%f",
				i, b.Open, b.High, b.Low, b.Close)
		}

		if b.High < b.Low {
			t.Errorf("High < Low at index %d: H=%f L=%f", i, b.High, b.Low)
		}
	}

	// Daily bars carry every end-of-day field
	if series[0].Fields() != 13 {
		t.Errorf("expected 13 fields on a daily bar, got %d", series[0].Fields())
	}

	if *series[0].Label != "January 01, 24" {
		t.Errorf("unexpected label %q", *series[0].Label)
	}
}

func TestDataGenerator_Intraday(t *testing.T) {
	gen := NewDataGenerator(7)
	config := DefaultConfig()
	config.Granularity = types.GranularityFourHours
	config.Count = 3

	series := gen.Generate(config)

	want := []string{"2024-01-01 00:00:00", "2024-01-01 04:00:00", "2024-01-01 08:00:00"}
	for i, date := range want {
		if series[i].Date != date {
			t.Errorf("expected date %s at index %d, got %s", date, i, series[i].Date)
		}
	}

	if series[0].Has(types.FieldAdjClose) {
		t.Error("intraday bars must not carry end-of-day fields")
	}
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	// Same seed should produce same results
	gen1 := NewDataGenerator(42)
	gen2 := NewDataGenerator(42)

	config := DefaultConfig()
	config.Count = 10

	data1 := gen1.Generate(config)
	data2 := gen2.Generate(config)

	for i := range data1 {
		if data1[i].Close != data2[i].Close {
			t.Errorf("data not reproducible at index %d: got %f and %f",
				i, data1[i].Close, data2[i].Close)
		}
	}
}

func TestDataGenerator_Different_Seeds(t *testing.T) {
	gen1 := NewDataGenerator(42)
	gen2 := NewDataGenerator(123)

	config := DefaultConfig()
	config.Count = 10

	data1 := gen1.Generate(config)
	data2 := gen2.Generate(config)

	sameCount := 0
	for i := range data1 {
		if data1[i].Close == data2[i].Close {
			sameCount++
		}
	}

	if sameCount == len(data1) {
		t.Error("different seeds produced identical data")
	}
}

func TestGenerateTickers(t *testing.T) {
	tickers := []string{"SPY", "QQQ", "DIA"}
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Count = 20

	out := gen.GenerateTickers(tickers, config)

	for _, ticker := range tickers {
		if len(out[ticker]) != config.Count {
			t.Errorf("expected %d bars for %s, got %d", config.Count, ticker, len(out[ticker]))
		}
	}
}

func TestGenerateDays(t *testing.T) {
	series := GenerateDays(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 5)

	if len(series) != 5 {
		t.Fatalf("expected 5 bars, got %d", len(series))
	}

	if series[0].Date != "2024-03-01" || series[4].Date != "2024-03-05" {
		t.Errorf("unexpected dates %s..%s", series[0].Date, series[4].Date)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Granularity != types.GranularityOneDay {
		t.Errorf("expected default granularity 1day, got %s", config.Granularity)
	}

	if config.InitialPrice != 100.0 {
		t.Errorf("expected default initial price 100.0, got %f", config.InitialPrice)
	}
}
