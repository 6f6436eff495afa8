package providers

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of the providers.yaml catalogue.
type Loader struct {
	filePath string
}

// NewLoader creates a catalogue loader for the given file.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the providers.yaml file.
func (l *Loader) Load() (Config, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read providers file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse providers yaml: %w", err)
	}

	if len(config.Providers) == 0 {
		return Config{}, fmt.Errorf("no providers defined in %s", l.filePath)
	}

	return config, nil
}
