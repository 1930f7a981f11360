package experiment

import (
	"fmt"
	"os"

	"github.com/san-kum/loopsim/internal/config"
)

// Resolve turns a preset name or a YAML file path into a config. Presets
// win when a file of the same name also exists.
func Resolve(nameOrPath string) (*config.Config, error) {
	if nameOrPath == "" {
		return config.DefaultConfig(), nil
	}
	if cfg := config.GetPreset(nameOrPath); cfg != nil {
		return cfg, nil
	}
	if _, err := os.Stat(nameOrPath); err != nil {
		return nil, fmt.Errorf("%s is neither a preset (%v) nor a readable file: %w", nameOrPath, config.ListPresets(), err)
	}
	return config.Load(nameOrPath)
}
