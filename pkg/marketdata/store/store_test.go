package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/writer"
)

type FileStoreTestSuite struct {
	suite.Suite
	root  string
	store *FileStore
	key   types.SeriesKey
}

func TestFileStoreSuite(t *testing.T) {
	suite.Run(t, new(FileStoreTestSuite))
}

func (suite *FileStoreTestSuite) SetupTest() {
	suite.root = suite.T().TempDir()
	suite.store = NewFileStore(suite.root)
	suite.key = types.SeriesKey{InstrumentType: "etfs", Granularity: types.GranularityOneDay, Ticker: "SPY"}
}

func (suite *FileStoreTestSuite) seed(content string) string {
	path := suite.store.Path(suite.key)
	suite.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	return path
}

func (suite *FileStoreTestSuite) TestPath() {
	suite.Equal(filepath.Join(suite.root, "etfs", "1d", "SPY.json"), suite.store.Path(suite.key))
	suite.Equal(suite.root, suite.store.Root())
}

func (suite *FileStoreTestSuite) TestSaveAndLoad() {
	series := types.Series{
		types.NewBar("2024-01-02", 1, 2, 0.5, 1.5),
		types.NewBar("2024-01-03", 1.5, 2.5, 1, 2).WithVolume(10),
	}

	path, err := suite.store.Save(suite.key, series, writer.JSONEncoder{})
	suite.Require().NoError(err)
	suite.Equal(suite.store.Path(suite.key), path)

	loaded, err := suite.store.Load(suite.key)
	suite.Require().NoError(err)
	suite.Require().Len(loaded, 2)
	suite.Equal("2024-01-03", loaded[1].Date)
	suite.True(loaded[1].Has(types.FieldVolume))

	entries, err := os.ReadDir(filepath.Dir(path))
	suite.Require().NoError(err)
	suite.Len(entries, 1, "temporary files must not be left behind")
}

func (suite *FileStoreTestSuite) TestSaveUsesEncoderExtension() {
	path, err := suite.store.Save(suite.key, types.Series{types.NewBar("2024-01-02", 1, 1, 1, 1)}, writer.CSVEncoder{})
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(suite.root, "etfs", "1d", "SPY.csv"), path)
	suite.FileExists(path)
}

func (suite *FileStoreTestSuite) TestAppendKeepsExistingBytes() {
	existing := `{"date": "2024-01-02", "open": 1.0, "high": 2, "low": 0.5, "close": 1.5, "extra": "kept"}`
	path := suite.seed("[" + existing + "]")

	suite.Require().NoError(suite.store.Append(suite.key, types.NewBar("2024-01-03", 1.5, 2.5, 1, 2)))

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Contains(string(data), existing)

	var elements []map[string]any
	suite.Require().NoError(json.Unmarshal(data, &elements))
	suite.Require().Len(elements, 2)
	suite.Equal("2024-01-03", elements[1]["date"])
}

func (suite *FileStoreTestSuite) TestAppendToEmptyArray() {
	suite.seed("[]")

	suite.Require().NoError(suite.store.Append(suite.key, types.NewBar("2024-01-03", 1, 1, 1, 1)))

	loaded, err := suite.store.Load(suite.key)
	suite.Require().NoError(err)
	suite.Len(loaded, 1)
}

func (suite *FileStoreTestSuite) TestAppendFailures() {
	tests := []struct {
		name    string
		content *string
	}{
		{"missing file", nil},
		{"malformed file", ptr(`[{"date": "2024-01-02"`)},
		{"not an array", ptr(`{"historical": []}`)},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.SetupTest()

			if tc.content != nil {
				suite.seed(*tc.content)
			}

			err := suite.store.Append(suite.key, types.NewBar("2024-01-03", 1, 1, 1, 1))
			suite.True(errors.HasCode(err, errors.ErrCodePersistenceFailed))

			if tc.content != nil {
				data, readErr := os.ReadFile(suite.store.Path(suite.key))
				suite.Require().NoError(readErr)
				suite.Equal(*tc.content, string(data))
			} else {
				suite.NoFileExists(suite.store.Path(suite.key))
			}
		})
	}
}

func (suite *FileStoreTestSuite) TestConcurrentAppendsAreSerialized() {
	suite.seed("[]")

	const writers = 32

	var wg sync.WaitGroup

	for i := range writers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			bar := types.NewBar(fmt.Sprintf("2024-02-%02d", i%28+1), float64(i), 1, 1, 1)
			suite.NoError(suite.store.Append(suite.key, bar))
		}()
	}

	wg.Wait()

	loaded, err := suite.store.Load(suite.key)
	suite.Require().NoError(err)
	suite.Len(loaded, writers)
	suite.Len(suite.store.locks, 1)
}

func (suite *FileStoreTestSuite) TestWriteJSON() {
	path, err := suite.store.WriteJSON(filepath.Join("splits", "NVDA.json"), []types.Split{
		{Ticker: "NVDA", ExecutionDate: "2024-06-10", SplitFrom: 1, SplitTo: 10},
	})
	suite.Require().NoError(err)

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Contains(string(data), `"execution_date": "2024-06-10"`)
}

func ptr(s string) *string {
	return &s
}
