package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_MissingPathReturnsZeroValue(t *testing.T) {
	cfg, err := Load("")
	assert.NoError(t, err)
	assert.Empty(t, cfg.Id)
}

func TestLoad_ParsesYaml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("id: 1.1.1.1\nheartbeat: true\n"), 0o644))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "1.1.1.1", cfg.Id)
	assert.True(t, cfg.Heartbeat)
}

func TestValidate_RejectsEmptyId(t *testing.T) {
	assert.Error(t, NodeConfig{}.Validate())
	assert.NoError(t, NodeConfig{Id: "1.1.1.1"}.Validate())
}
