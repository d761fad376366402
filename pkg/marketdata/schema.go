package marketdata

import (
	"fmt"
	"strings"

	"github.com/rxtech-lab/argo-ingest/internal/types"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

// SchemaStatus is the verdict of ValidateSchema.
type SchemaStatus int

const (
	SchemaInvalid SchemaStatus = iota
	SchemaValid
	SchemaUnsupported
)

func (s SchemaStatus) String() string {
	switch s {
	case SchemaValid:
		return "valid"
	case SchemaUnsupported:
		return "unsupported"
	default:
		return "invalid"
	}
}

// requiredFields lists, per granularity, the keys a single-day record must carry.
var requiredFields = map[types.Granularity][]string{
	types.GranularityOneDay: {
		types.FieldDate,
		types.FieldOpen,
		types.FieldHigh,
		types.FieldLow,
		types.FieldClose,
		types.FieldAdjClose,
		types.FieldVolume,
		types.FieldUnadjustedVolume,
		types.FieldChange,
		types.FieldChangePercent,
		types.FieldVWAP,
		types.FieldLabel,
		types.FieldChangeOverTime,
	},
	types.GranularityFourHours: {
		types.FieldDate,
		types.FieldOpen,
		types.FieldLow,
		types.FieldHigh,
		types.FieldClose,
	},
}

// ValidationResult describes why a fetched record was accepted or rejected.
type ValidationResult struct {
	Status  SchemaStatus
	Missing []string
	Reason  string
}

// Valid reports whether the record passed.
func (r ValidationResult) Valid() bool {
	return r.Status == SchemaValid
}

// Err converts a failed result into a coded error; nil when valid.
func (r ValidationResult) Err() error {
	switch r.Status {
	case SchemaValid:
		return nil
	case SchemaUnsupported:
		return errors.New(errors.ErrCodeUnsupportedGranularity, r.Reason)
	default:
		return errors.New(errors.ErrCodeSchemaMismatch, r.Reason)
	}
}

// ValidateSchema checks the result of a single-day fetch: exactly one bar,
// carrying every field required for g. Only 1day and 4hour have a schema;
// other granularities report SchemaUnsupported.
func ValidateSchema(g types.Granularity, bars []types.Bar) ValidationResult {
	if len(bars) != 1 {
		return ValidationResult{
			Status: SchemaInvalid,
			Reason: fmt.Sprintf("expected exactly one record, got %d", len(bars)),
		}
	}

	fields, ok := requiredFields[g]
	if !ok {
		return ValidationResult{
			Status: SchemaUnsupported,
			Reason: fmt.Sprintf("no schema for granularity %q", g),
		}
	}

	var missing []string

	for _, field := range fields {
		if !bars[0].Has(field) {
			missing = append(missing, field)
		}
	}

	if len(missing) > 0 {
		return ValidationResult{
			Status:  SchemaInvalid,
			Missing: missing,
			Reason:  "missing fields: " + strings.Join(missing, ", "),
		}
	}

	return ValidationResult{Status: SchemaValid}
}

// RequiredFields returns the field names checked for g, or nil if g has no schema.
func RequiredFields(g types.Granularity) []string {
	fields := requiredFields[g]
	out := make([]string, len(fields))
	copy(out, fields)

	return out
}
