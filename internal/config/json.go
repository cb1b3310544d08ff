package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// parseJSON reads and decodes the JSON configuration file at jsonFilePath.
// The file uses the same shape as [Config]; unknown keys are ignored so a
// host can keep engine settings inside a larger settings document.
func parseJSON(jsonFilePath string) (*Config, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	cfg := new(Config)
	if err := json.NewDecoder(jsonFile).Decode(cfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	return cfg, nil
}
