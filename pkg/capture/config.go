package capture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfigFile reads options from a YAML file. Fields missing from the file
// keep their defaults.
//
//	driver: rod
//	timeout: 30s
//	idle_time: 500ms
//	user_agent: "Mozilla/5.0 ..."
//	stealth: true
func LoadConfigFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("capture: read config: %w", err)
	}

	opts := NewOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("capture: parse config %s: %w", path, err)
	}

	opts.applyDefaults()
	return opts, nil
}
