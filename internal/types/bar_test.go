package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BarTestSuite struct {
	suite.Suite
}

func TestBarSuite(t *testing.T) {
	suite.Run(t, new(BarTestSuite))
}

func (suite *BarTestSuite) TestUnmarshalRecordsPresentFields() {
	var bar Bar
	err := json.Unmarshal([]byte(`{"date":"2024-11-01","open":0,"high":1.5,"low":0.5,"close":1,"adjClose":null,"label":"November 01, 24"}`), &bar)
	suite.Require().NoError(err)

	suite.True(bar.Has(FieldOpen), "zero valued fields are still present")
	suite.True(bar.Has(FieldLabel))
	suite.False(bar.Has(FieldAdjClose), "null counts as absent")
	suite.False(bar.Has(FieldVolume))
	suite.Equal(6, bar.Fields())
	suite.Equal("November 01, 24", *bar.Label)
}

func (suite *BarTestSuite) TestMarshalOmitsAbsentOptionalFields() {
	bar := NewBar("2024-11-01 09:30:00", 1, 2, 0.5, 1.5).WithVolume(1000)

	data, err := json.Marshal(bar)
	suite.Require().NoError(err)
	suite.JSONEq(`{"date":"2024-11-01 09:30:00","open":1,"high":2,"low":0.5,"close":1.5,"volume":1000}`, string(data))
}

func (suite *BarTestSuite) TestBuildersDoNotShareState() {
	base := NewBar("2024-11-01", 1, 1, 1, 1)
	withVolume := base.WithVolume(10)

	suite.False(base.Has(FieldVolume))
	suite.True(withVolume.Has(FieldVolume))
	suite.Nil(base.Volume)
}

func (suite *BarTestSuite) TestTime() {
	daily := NewBar("2024-11-01", 1, 1, 1, 1)
	t, err := daily.Time(GranularityOneDay)
	suite.Require().NoError(err)
	suite.Equal(time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), t)

	intraday := NewBar("2024-11-01 12:00:00", 1, 1, 1, 1)
	t, err = intraday.Time(GranularityFourHours)
	suite.Require().NoError(err)
	suite.Equal(12, t.Hour())
}

func (suite *BarTestSuite) TestSeriesReverse() {
	s := Series{NewBar("D3", 3, 3, 3, 3), NewBar("D2", 2, 2, 2, 2), NewBar("D1", 1, 1, 1, 1)}
	r := s.Reverse()

	suite.Equal([]string{"D1", "D2", "D3"}, []string{r[0].Date, r[1].Date, r[2].Date})
	suite.Equal("D3", s[0].Date, "input is not modified")
}

func (suite *BarTestSuite) TestWithDailyMetricsMarksAllFields() {
	bar := NewBar("2024-11-01", 1, 2, 0.5, 1.5).WithVolume(10).WithDailyMetrics(DailyMetrics{
		AdjClose: 1.5,
		Label:    "November 01, 24",
	})

	suite.Equal(13, bar.Fields())
	suite.Equal("November 01, 24", *bar.Label)
	suite.Equal(0.0, *bar.Change)
}
