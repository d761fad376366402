package marketdata

import (
	"encoding/json"
	"testing"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

const fullDailyRecord = `{
	"date": "2024-11-01", "open": 571.32, "high": 575.55, "low": 570.62, "close": 571.04,
	"adjClose": 571.04, "volume": 45667533, "unadjustedVolume": 45667533,
	"change": -0.28, "changePercent": -0.04901, "vwap": 572.4,
	"label": "November 01, 24", "changeOverTime": -0.0004901
}`

type SchemaTestSuite struct {
	suite.Suite
}

func TestSchemaSuite(t *testing.T) {
	suite.Run(t, new(SchemaTestSuite))
}

func decodeBar(s string) types.Bar {
	var bar types.Bar
	if err := json.Unmarshal([]byte(s), &bar); err != nil {
		panic(err)
	}

	return bar
}

func (suite *SchemaTestSuite) TestValidRecords() {
	tests := []struct {
		name        string
		granularity types.Granularity
		record      string
	}{
		{"full daily", types.GranularityOneDay, fullDailyRecord},
		{"four hour", types.GranularityFourHours, `{"date":"2024-11-01 12:00:00","open":1,"low":0,"high":2,"close":1.5,"volume":10}`},
		{"four hour zero prices", types.GranularityFourHours, `{"date":"2024-11-01 12:00:00","open":0,"low":0,"high":0,"close":0}`},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			result := ValidateSchema(tc.granularity, []types.Bar{decodeBar(tc.record)})
			suite.Equal(SchemaValid, result.Status)
			suite.True(result.Valid())
			suite.Empty(result.Missing)
			suite.NoError(result.Err())
		})
	}
}

func (suite *SchemaTestSuite) TestMissingDailyField() {
	record := `{"date":"2024-11-01","open":1,"high":2,"low":0.5,"close":1.5,"adjClose":1.5,"volume":10,
		"unadjustedVolume":10,"change":0.1,"changePercent":0.2,"label":"November 01, 24","changeOverTime":0.01}`

	result := ValidateSchema(types.GranularityOneDay, []types.Bar{decodeBar(record)})
	suite.Equal(SchemaInvalid, result.Status)
	suite.Equal([]string{types.FieldVWAP}, result.Missing)
	suite.Contains(result.Reason, "vwap")
	suite.True(errors.HasCode(result.Err(), errors.ErrCodeSchemaMismatch))
}

func (suite *SchemaTestSuite) TestNullCountsAsMissing() {
	result := ValidateSchema(types.GranularityFourHours, []types.Bar{
		decodeBar(`{"date":"2024-11-01 12:00:00","open":1,"low":null,"high":2,"close":1.5}`),
	})
	suite.Equal(SchemaInvalid, result.Status)
	suite.Equal([]string{types.FieldLow}, result.Missing)
}

func (suite *SchemaTestSuite) TestRecordCount() {
	bar := decodeBar(fullDailyRecord)

	tests := []struct {
		name string
		bars []types.Bar
	}{
		{"none", nil},
		{"two", []types.Bar{bar, bar}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			for _, g := range []types.Granularity{types.GranularityOneDay, types.GranularityFourHours, types.GranularityOneMinute} {
				result := ValidateSchema(g, tc.bars)
				suite.Equal(SchemaInvalid, result.Status, string(g))
				suite.Contains(result.Reason, "exactly one record")
			}
		})
	}
}

func (suite *SchemaTestSuite) TestUnsupportedGranularities() {
	bar := decodeBar(fullDailyRecord)

	for _, g := range []types.Granularity{
		types.GranularityOneMinute,
		types.GranularityFiveMinutes,
		types.GranularityFifteenMinutes,
		types.GranularityThirtyMinutes,
		types.GranularityOneHour,
	} {
		suite.Run(string(g), func() {
			result := ValidateSchema(g, []types.Bar{bar})
			suite.Equal(SchemaUnsupported, result.Status)
			suite.Equal("unsupported", result.Status.String())
			suite.True(errors.HasCode(result.Err(), errors.ErrCodeUnsupportedGranularity))
		})
	}
}

func (suite *SchemaTestSuite) TestRequiredFieldsIsACopy() {
	fields := RequiredFields(types.GranularityOneDay)
	suite.Len(fields, 13)

	fields[0] = "mutated"
	suite.Equal(types.FieldDate, RequiredFields(types.GranularityOneDay)[0])
	suite.Len(RequiredFields(types.GranularityFourHours), 5)
	suite.Empty(RequiredFields(types.GranularityOneHour))
}
