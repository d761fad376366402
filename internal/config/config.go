// Package config reads the ingest configuration: a YAML file for what to
// download and where, plus provider credentials taken from the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"slices"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/internal/version"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"github.com/rxtech-lab/argo-ingest/pkg/marketdata/provider"
)

// Environment variables holding provider credentials.
const (
	EnvFMPAPIKey          = "FMP_API_KEY"
	EnvPolygonAPIKey      = "POLYGON_API_KEY"
	EnvAlphaVantageAPIKey = "ALPHAVANTAGE_API_KEY"
)

const (
	DefaultDataDir     = "data"
	DefaultConcurrency = 4
	DefaultRetryCount  = 3
	DefaultTimeout     = 30 * time.Second
)

// Config is created once at startup and passed to constructors.
type Config struct {
	Version           string                `yaml:"version" json:"version,omitempty" jsonschema:"title=Version,description=Tool version the file was written for"`
	DataDir           string                `yaml:"data_dir" json:"data_dir" validate:"required" jsonschema:"title=Data Directory,default=data"`
	LogLevel          string                `yaml:"log_level" json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	LogFile           string                `yaml:"log_file" json:"log_file,omitempty" jsonschema:"title=Log File,description=Extra file receiving the JSON log lines"`
	Provider          provider.ProviderType `yaml:"provider" json:"provider" validate:"required,oneof=fmp polygon alphavantage yahoo" jsonschema:"enum=fmp,enum=polygon,enum=alphavantage,enum=yahoo"`
	BaseURL           string                `yaml:"base_url" json:"base_url,omitempty" validate:"omitempty,url" jsonschema:"title=Base URL,description=Overrides the provider endpoint"`
	OutputFormat      string                `yaml:"output_format" json:"output_format,omitempty" validate:"omitempty,oneof=json csv parquet" jsonschema:"enum=json,enum=csv,enum=parquet"`
	Concurrency       int                   `yaml:"concurrency" json:"concurrency,omitempty" validate:"min=1,max=64" jsonschema:"minimum=1,maximum=64"`
	RequestsPerMinute int                   `yaml:"requests_per_minute" json:"requests_per_minute,omitempty" validate:"min=0" jsonschema:"minimum=0"`
	RetryCount        int                   `yaml:"retry_count" json:"retry_count,omitempty" validate:"min=0,max=10" jsonschema:"minimum=0,maximum=10"`
	Timeout           time.Duration         `yaml:"timeout" json:"timeout,omitempty"`
	// Instruments maps an instrument type (etfs, stocks) to its tickers.
	Instruments   map[string][]string `yaml:"instruments" json:"instruments" validate:"required,min=1,dive,keys,required,endkeys,required,min=1,dive,required"`
	Granularities []types.Granularity `yaml:"granularities" json:"granularities" validate:"required,min=1"`
	Backfill      BackfillConfig      `yaml:"backfill" json:"backfill,omitempty"`

	Credentials Credentials `yaml:"-" json:"-"`
}

// BackfillConfig bounds the history downloaded by the backfill command.
type BackfillConfig struct {
	Start optional.Option[time.Time] `yaml:"start" json:"start,omitempty" jsonschema:"title=Start,description=First day to download"`
	End   optional.Option[time.Time] `yaml:"end" json:"end,omitempty" jsonschema:"title=End,description=Last day to download (yesterday when unset)"`
}

// Credentials are read from the environment, never from the config file.
type Credentials struct {
	FMPAPIKey          string
	PolygonAPIKey      string
	AlphaVantageAPIKey string
}

// UnmarshalYAML implements custom unmarshaling for BackfillConfig
func (b *BackfillConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Start *time.Time `yaml:"start"`
		End   *time.Time `yaml:"end"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Start != nil {
		b.Start = optional.Some(types.Day(*raw.Start))
	}

	if raw.End != nil {
		b.End = optional.Some(types.Day(*raw.End))
	}

	return nil
}

// Load reads the config file at path. Credentials come from the environment,
// after loading .env.
func Load(path string) (*Config, error) {
	LoadDotenv()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "read config %s", path)
	}

	return Parse(data, os.Getenv)
}

// Parse decodes, defaults and validates a config document. getenv supplies credentials.
func Parse(data []byte, getenv func(string) string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "decode config", err)
	}

	cfg.applyDefaults()

	cfg.Credentials = Credentials{
		FMPAPIKey:          getenv(EnvFMPAPIKey),
		PolygonAPIKey:      getenv(EnvPolygonAPIKey),
		AlphaVantageAPIKey: getenv(EnvAlphaVantageAPIKey),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Provider == "" {
		c.Provider = provider.ProviderFMP
	}

	if c.OutputFormat == "" {
		c.OutputFormat = "json"
	}

	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}

	if c.RetryCount == 0 {
		c.RetryCount = DefaultRetryCount
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks field constraints, normalizes granularity aliases and
// makes sure the selected provider has a credential.
func (c *Config) Validate() error {
	if err := version.CheckConfigCompatibility(version.GetVersion(), c.Version); err != nil {
		return err
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	for i, g := range c.Granularities {
		parsed, err := types.ParseGranularity(string(g))
		if err != nil {
			return errors.Wrap(errors.ErrCodeUnsupportedGranularity, "invalid configuration", err)
		}

		c.Granularities[i] = parsed
	}

	if start, end := c.Backfill.Start, c.Backfill.End; start.IsSome() && end.IsSome() && start.Unwrap().After(end.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidDateRange, "backfill start %s is after end %s",
			start.Unwrap().Format(types.DateLayout), end.Unwrap().Format(types.DateLayout))
	}

	if c.ProviderConfig().APIKey == "" && c.Provider != provider.ProviderYahoo {
		return errors.Newf(errors.ErrCodeMissingCredential, "provider %s requires %s to be set", c.Provider, c.credentialEnv())
	}

	return nil
}

// ProviderConfig returns the fetcher settings for the selected provider.
func (c *Config) ProviderConfig() provider.Config {
	cfg := provider.Config{
		BaseURL:           c.BaseURL,
		Timeout:           c.Timeout,
		RetryCount:        c.RetryCount,
		RequestsPerMinute: c.RequestsPerMinute,
	}

	switch c.Provider {
	case provider.ProviderFMP:
		cfg.APIKey = c.Credentials.FMPAPIKey
	case provider.ProviderPolygon:
		cfg.APIKey = c.Credentials.PolygonAPIKey
	case provider.ProviderAlphaVantage:
		cfg.APIKey = c.Credentials.AlphaVantageAPIKey
	case provider.ProviderYahoo:
	}

	return cfg
}

func (c *Config) credentialEnv() string {
	switch c.Provider {
	case provider.ProviderPolygon:
		return EnvPolygonAPIKey
	case provider.ProviderAlphaVantage:
		return EnvAlphaVantageAPIKey
	default:
		return EnvFMPAPIKey
	}
}

// SeriesKeys lists every configured series: each ticker at each granularity,
// sorted by instrument type, then ticker, then granularity order.
func (c *Config) SeriesKeys() []types.SeriesKey {
	instrumentTypes := make([]string, 0, len(c.Instruments))
	for t := range c.Instruments {
		instrumentTypes = append(instrumentTypes, t)
	}

	sort.Strings(instrumentTypes)

	var keys []types.SeriesKey

	for _, t := range instrumentTypes {
		tickers := slices.Clone(c.Instruments[t])
		sort.Strings(tickers)

		for _, ticker := range tickers {
			for _, g := range c.Granularities {
				keys = append(keys, types.SeriesKey{InstrumentType: t, Granularity: g, Ticker: ticker})
			}
		}
	}

	return keys
}

// InstrumentType returns the configured instrument type of ticker.
func (c *Config) InstrumentType(ticker string) (string, bool) {
	for t, tickers := range c.Instruments {
		if slices.Contains(tickers, ticker) {
			return t, true
		}
	}

	return "", false
}

// Schema returns the JSON schema of the config file.
func Schema() (string, error) {
	reflector := jsonschema.Reflector{
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t {
			case reflect.TypeOf(optional.Option[time.Time]{}):
				return &jsonschema.Schema{Type: "string", Format: "date"}
			case reflect.TypeOf(time.Duration(0)):
				return &jsonschema.Schema{Type: "string", Description: "Go duration, e.g. 30s"}
			case reflect.TypeOf(types.Granularity("")):
				enum := make([]any, 0, len(types.Granularities()))
				for _, g := range types.Granularities() {
					enum = append(enum, string(g))
				}

				return &jsonschema.Schema{Type: "string", Enum: enum}
			}

			return nil
		},
	}

	//nolint:exhaustruct // Empty struct is intentional for schema generation
	schema := reflector.Reflect(&Config{})
	schema.Title = "argo-ingest-config"
	schema.Description = "Configuration file of the argo-ingest command"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal config schema: %w", err)
	}

	return string(data), nil
}
