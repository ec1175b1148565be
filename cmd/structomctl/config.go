package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".structom.yaml"

// Config is the project-level `.structom.yaml`: Metadata and Enums are
// the defaults used when --metadata/--enums are not given on the command
// line.
type Config struct {
	Metadata bool   `yaml:"metadata"`
	Enums    bool   `yaml:"enums"`
	Format   string `yaml:"format"` // decoded but not read by any command; the output format comes from --to or the output file's extension
}

func defaultConfig() Config {
	return Config{Metadata: true, Enums: true, Format: "obj"}
}

// loadConfig searches --config, then ./.structom.yaml, then
// $HOME/.structom.yaml, returning defaultConfig() if none exist.
func loadConfig(explicit string) (Config, error) {
	cfg := defaultConfig()

	candidates := []string{}
	if explicit != "" {
		candidates = append(candidates, explicit)
	} else {
		candidates = append(candidates, defaultConfigFile)
		if home, err := os.UserHomeDir(); err == nil {
			candidates = append(candidates, filepath.Join(home, defaultConfigFile))
		}
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if explicit != "" && path == explicit {
				return cfg, err
			}
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	return cfg, nil
}
