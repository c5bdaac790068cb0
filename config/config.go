// Package config loads the format-time geometry a volume is created with:
// total block count, block size, and max inode count, either from a YAML
// file or from one of a handful of named presets.
package config

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Geometry is the subset of layout.ComputeLayout's inputs a user picks at
// format time. It is intentionally decoupled from the layout package so
// config has no dependency on the on-disk format.
type Geometry struct {
	Name        string `yaml:"name"`
	TotalBlocks int    `yaml:"total_blocks"`
	BlockSize   int    `yaml:"block_size"`
	MaxInodes   int    `yaml:"max_inodes"`
}

func (g Geometry) Validate() error {
	if g.TotalBlocks <= 0 {
		return fmt.Errorf("total_blocks must be positive, got %d", g.TotalBlocks)
	}
	if g.BlockSize <= 0 {
		return fmt.Errorf("block_size must be positive, got %d", g.BlockSize)
	}
	if g.MaxInodes <= 0 {
		return fmt.Errorf("max_inodes must be positive, got %d", g.MaxInodes)
	}
	return nil
}

// Load reads a Geometry from a YAML document.
func Load(r io.Reader) (Geometry, error) {
	var g Geometry
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&g); err != nil {
		return Geometry{}, err
	}
	return g, g.Validate()
}

// LoadFile reads a Geometry from a YAML file on disk.
func LoadFile(path string) (Geometry, error) {
	file, err := os.Open(path)
	if err != nil {
		return Geometry{}, err
	}
	defer file.Close()
	return Load(file)
}

//go:embed presets.yaml
var presetsRawYAML string

var presets map[string]Geometry

func init() {
	var list []Geometry
	if err := yaml.Unmarshal([]byte(presetsRawYAML), &list); err != nil {
		panic(err)
	}
	presets = make(map[string]Geometry, len(list))
	for _, g := range list {
		presets[g.Name] = g
	}
}

// Preset returns a named, built-in geometry such as "small" or "large".
func Preset(name string) (Geometry, error) {
	g, ok := presets[name]
	if !ok {
		return Geometry{}, fmt.Errorf("no predefined geometry named %q", name)
	}
	return g, nil
}
