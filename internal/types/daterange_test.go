package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type DateRangeTestSuite struct {
	suite.Suite
}

func TestDateRangeSuite(t *testing.T) {
	suite.Run(t, new(DateRangeTestSuite))
}

func (suite *DateRangeTestSuite) TestParseDay() {
	d, err := ParseDay("2024-01-31")
	suite.Require().NoError(err)
	suite.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDay("01/31/2024")
	suite.Error(err)
}

func (suite *DateRangeTestSuite) TestDayTruncates() {
	t := time.Date(2024, 3, 5, 17, 45, 0, 0, time.UTC)
	suite.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Day(t))
}

func (suite *DateRangeTestSuite) TestSingleDay() {
	r := SingleDay(time.Date(2024, 11, 1, 8, 0, 0, 0, time.UTC))
	suite.Equal(r.Start, r.End)
	suite.Equal(1, r.Days())
	suite.Equal("2024-11-01..2024-11-01", r.String())
}

func (suite *DateRangeTestSuite) TestContains() {
	r := DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	suite.Equal(10, r.Days())
	suite.True(r.Contains(time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC)))
	suite.False(r.Contains(time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)))
}

func (suite *DateRangeTestSuite) TestSeriesKeyRelPath() {
	key := SeriesKey{InstrumentType: "etfs", Granularity: GranularityOneDay, Ticker: "SPY"}
	suite.Equal("etfs/1d/SPY.json", key.RelPath("json"))
	suite.Equal("etfs/1day/SPY", key.String())
}
