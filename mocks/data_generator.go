package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-ingest/internal/types"
)

// dailyLabelLayout renders dates the way FMP labels end-of-day bars, e.g. "November 01, 24".
const dailyLabelLayout = "January 02, 06"

// DataGenerator generates realistic bar series for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how a series is generated.
type GeneratorConfig struct {
	// Start is the time of the first bar
	Start time.Time
	// Granularity sets both the bar spacing and the date label layout
	Granularity types.Granularity
	// Count is the number of bars to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical move per bar)
	Volatility float64
	// Trend is the drift factor (-0.01 to 0.01 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a daily configuration starting 2024-01-01.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Start:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Granularity:    types.GranularityOneDay,
		Count:          250,
		InitialPrice:   100.0,
		Volatility:     0.01,
		Trend:          0.0,
		VolumeBase:     1_000_000,
		VolumeVariance: 0.3,
	}
}

// Generate creates an ascending series following a geometric Brownian motion.
// Daily series carry every end-of-day field, so single bars pass schema validation.
func (g *DataGenerator) Generate(config GeneratorConfig) types.Series {
	series := make(types.Series, config.Count)
	currentPrice := config.InitialPrice
	firstClose := 0.0
	current := config.Start
	step := config.Granularity.Duration()

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normal sample
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		close := open * (1 + config.Volatility*z + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension

		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bar := types.NewBar(
			current.Format(config.Granularity.DateLayout()),
			roundToDecimals(open, 4),
			roundToDecimals(high, 4),
			roundToDecimals(low, 4),
			roundToDecimals(close, 4),
		).WithVolume(math.Round(volume))

		if config.Granularity == types.GranularityOneDay {
			if i == 0 {
				firstClose = close
			}

			change := close - open
			bar = bar.WithDailyMetrics(types.DailyMetrics{
				AdjClose:         roundToDecimals(close, 4),
				UnadjustedVolume: math.Round(volume),
				Change:           roundToDecimals(change, 4),
				ChangePercent:    roundToDecimals(change/open*100, 5),
				VWAP:             roundToDecimals((high+low+close)/3, 4),
				Label:            current.Format(dailyLabelLayout),
				ChangeOverTime:   roundToDecimals(close/firstClose-1, 7),
			})
		}

		series[i] = bar

		currentPrice = close
		current = current.Add(step)
	}

	return series
}

// GenerateTickers generates one series per ticker, varying price and volatility.
func (g *DataGenerator) GenerateTickers(tickers []string, baseConfig GeneratorConfig) map[string]types.Series {
	out := make(map[string]types.Series, len(tickers))

	for _, ticker := range tickers {
		config := baseConfig
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		out[ticker] = g.Generate(config)
	}

	return out
}

// GenerateDays returns count daily bars starting at start with a fixed seed.
func GenerateDays(start time.Time, count int) types.Series {
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Start = start
	config.Count = count

	return gen.Generate(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
