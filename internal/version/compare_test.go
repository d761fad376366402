package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

func TestCheckConfigCompatibility(t *testing.T) {
	tests := []struct {
		name          string
		toolVersion   string
		configVersion string
		expectError   bool
		errorContains string
	}{
		{
			name:          "exact match",
			toolVersion:   "0.3.0",
			configVersion: "0.3.0",
		},
		{
			name:          "patch differs",
			toolVersion:   "0.3.4",
			configVersion: "0.3.1",
		},
		{
			name:          "older config minor",
			toolVersion:   "0.3.0",
			configVersion: "0.1.0",
		},
		{
			name:          "v prefix on both",
			toolVersion:   "v0.3.0",
			configVersion: "v0.3.0",
		},
		{
			name:          "config without version",
			toolVersion:   "0.3.0",
			configVersion: "",
		},
		{
			name:          "tool is main",
			toolVersion:   "main",
			configVersion: "9.9.9",
		},
		{
			name:          "config is main",
			toolVersion:   "0.3.0",
			configVersion: "main",
		},
		{
			name:          "newer config minor",
			toolVersion:   "0.3.0",
			configVersion: "0.4.0",
			expectError:   true,
			errorContains: "config requires 0.4.x or newer",
		},
		{
			name:          "major differs",
			toolVersion:   "1.0.0",
			configVersion: "0.3.0",
			expectError:   true,
			errorContains: "major version mismatch",
		},
		{
			name:          "invalid config version",
			toolVersion:   "0.3.0",
			configVersion: "not-a-version",
			expectError:   true,
			errorContains: "invalid config version",
		},
		{
			name:          "invalid tool version",
			toolVersion:   "dev-build",
			configVersion: "0.3.0",
			expectError:   true,
			errorContains: "invalid tool version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckConfigCompatibility(tt.toolVersion, tt.configVersion)

			if tt.expectError {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}
