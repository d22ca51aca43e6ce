// Package config loads the one piece of required startup configuration
// (spec §6: the node's simulated id) plus optional ambient settings, the
// way encodeous-nylon/state/config.go loads LocalCfg: an optional YAML
// file, unmarshalled with github.com/goccy/go-yaml, then validated.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// NodeConfig is a single node's startup configuration.
type NodeConfig struct {
	Id      string `yaml:"id"`
	Host    string `yaml:"host,omitempty"`
	LogPath string `yaml:"log_path,omitempty"`

	Heartbeat bool `yaml:"heartbeat,omitempty"`
}

// Load reads and parses a YAML node config file. A missing path is not an
// error: callers may supply the node id directly on the command line
// instead, per spec §6.
func Load(path string) (NodeConfig, error) {
	var cfg NodeConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects a blank node id, the one value spec §6 requires.
func (c NodeConfig) Validate() error {
	if c.Id == "" {
		return fmt.Errorf("node id must not be empty")
	}
	return nil
}
