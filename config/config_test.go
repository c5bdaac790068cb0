package config_test

import (
	"strings"
	"testing"

	"github.com/kfoss/blockfs/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidGeometry(t *testing.T) {
	doc := "name: custom\ntotal_blocks: 128\nblock_size: 512\nmax_inodes: 32\n"
	g, err := config.Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 128, g.TotalBlocks)
	assert.Equal(t, 512, g.BlockSize)
	assert.Equal(t, 32, g.MaxInodes)
}

func TestLoad_RejectsNonPositiveFields(t *testing.T) {
	doc := "name: bad\ntotal_blocks: 0\nblock_size: 512\nmax_inodes: 32\n"
	_, err := config.Load(strings.NewReader(doc))
	assert.Error(t, err)
}

func TestPreset_KnownAndUnknownNames(t *testing.T) {
	g, err := config.Preset("tiny")
	require.NoError(t, err)
	assert.Equal(t, 64, g.TotalBlocks)

	_, err = config.Preset("does-not-exist")
	assert.Error(t, err)
}
