package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/rxtech-lab/argo-ingest/pkg/errors"
)

// CheckConfigCompatibility checks that a config file written for configVersion
// can be read by a tool at toolVersion.
//
// Compatibility Rules:
//   - An empty config version, or "main" on either side, skips the check
//   - Major versions must match exactly
//   - The config minor version must not be newer than the tool's
//   - Patch versions are ignored
//
// Examples:
//   - Tool 0.3.0, Config 0.3.0 -> OK
//   - Tool 0.3.2, Config 0.2.0 -> OK (older config)
//   - Tool 0.3.0, Config 0.4.0 -> ERROR (config needs a newer tool)
//   - Tool 1.0.0, Config 0.3.0 -> ERROR (major differs)
func CheckConfigCompatibility(toolVersion, configVersion string) error {
	toolVersion = strings.TrimPrefix(toolVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if configVersion == "" || toolVersion == "main" || configVersion == "main" {
		return nil
	}

	tool, err := semver.NewVersion(toolVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid tool version '%s'", toolVersion)
	}

	config, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid config version '%s'", configVersion)
	}

	if tool.Major() != config.Major() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"major version mismatch: tool is %d.x.x but config requires %d.x.x", tool.Major(), config.Major())
	}

	if config.Minor() > tool.Minor() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"config requires %d.%d.x or newer, tool is %s", config.Major(), config.Minor(), tool.String())
	}

	return nil
}
