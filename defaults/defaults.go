// Package defaults defines the validated configuration defaults of
// keyfinder and a helper to load a user config file over them.
package defaults

import (
	"os"

	e "github.com/pkg/errors"
	"github.com/sahib/config"
)

// CurrentVersion is the current version of keyfinder's config layout.
const CurrentVersion = 0

// Defaults is the default validation for keyfinder.
var Defaults = config.DefaultMapping{
	"recover": config.DefaultMapping{
		"threads": config.DefaultEntry{
			Default:      1,
			NeedsRestart: false,
			Docs:         "Number of workers for the middle-subkey histogram pass.",
			Validator:    config.IntRangeValidator(1, 256),
		},
		"heur3": config.DefaultEntry{
			Default:      false,
			NeedsRestart: false,
			Docs:         "Also run paths with 3 active S-boxes. More accurate, ~10x slower.",
		},
		"heur4": config.DefaultEntry{
			Default:      false,
			NeedsRestart: false,
			Docs:         "Also run paths with 4 active S-boxes. Best accuracy, slowest.",
		},
	},
	"log": config.DefaultMapping{
		"level": config.DefaultEntry{
			Default:      "warning",
			NeedsRestart: false,
			Docs:         "Log level name (debug, info, warning, error). Validated only; the command line tool takes its log level from --verbose, not from this value.",
			Validator: config.EnumValidator(
				"debug", "info", "warning", "error",
			),
		},
	},
}

// Open loads the config file at path, validated against Defaults.
func Open(path string) (*config.Config, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, e.Wrap(err, "failed to open config")
	}

	defer fd.Close()

	cfg, err := config.Open(config.NewYamlDecoder(fd), Defaults, config.StrictnessPanic)
	if err != nil {
		return nil, e.Wrap(err, "failed to parse config")
	}

	return cfg, nil
}

// OpenEmpty returns a config with pure defaults.
func OpenEmpty() (*config.Config, error) {
	return config.Open(nil, Defaults, config.StrictnessPanic)
}
