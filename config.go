package pdftakeoff

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config controls snapping, detection and measurement behavior.
type Config struct {
	// Snap configures the snap resolver (default: DefaultSnapOptions())
	Snap SnapOptions `yaml:"snap"`

	// Ortho configures the orthogonal constraint (default: DefaultOrthoOptions())
	Ortho OrthoOptions `yaml:"ortho"`

	// Detection configures raster line detection (default: DefaultDetectorConfig())
	Detection DetectorConfig `yaml:"detection"`

	// DuplicateClickRadius is the distance in pixels within which a click on
	// an already placed in-progress point is ignored (default: 10)
	DuplicateClickRadius float64 `yaml:"duplicateClickRadius"`

	// EnableMetricsLogging logs detection timing and line counts (default: false)
	EnableMetricsLogging bool `yaml:"enableMetricsLogging"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Snap:                 DefaultSnapOptions(),
		Ortho:                DefaultOrthoOptions(),
		Detection:            DefaultDetectorConfig(),
		DuplicateClickRadius: 10,
	}
}

// LoadConfig reads a YAML file and overlays it onto DefaultConfig. Fields
// absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrap(err, "failed to read config file")
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return config, nil
}
