package inode_test

import (
	"testing"

	"github.com/kfoss/blockfs/device"
	"github.com/kfoss/blockfs/inode"
	"github.com/kfoss/blockfs/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

func TestNewTable_AllUnused(t *testing.T) {
	tbl := inode.NewTable(8)
	for _, in := range tbl.Inodes {
		assert.True(t, in.IsUnused())
	}
}

func TestAllocateInode_ReturnsSmallestFreeIndex(t *testing.T) {
	tbl := inode.NewTable(4)
	require.NoError(t, tbl.Set(0, layout.Inode{Kind: layout.KindDirectory}))

	idx, err := tbl.AllocateInode()
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestAllocateInode_Full(t *testing.T) {
	tbl := inode.NewTable(2)
	require.NoError(t, tbl.Set(0, layout.Inode{Kind: layout.KindFile}))
	require.NoError(t, tbl.Set(1, layout.Inode{Kind: layout.KindFile}))

	_, err := tbl.AllocateInode()
	assert.Error(t, err)
}

func TestTable_WriteReadRoundTrip(t *testing.T) {
	const blockSize = 64
	const totalBlocks = 16
	const maxInodes = 8

	backing := make([]byte, totalBlocks*blockSize)
	stream := bytesextra.NewReadWriteSeeker(backing)
	dev := device.OpenStream(stream, totalBlocks, blockSize)

	sb := layout.NewSuperblock(totalBlocks, blockSize, maxInodes)

	tbl := inode.NewTable(maxInodes)
	require.NoError(t, tbl.Set(0, layout.Inode{Kind: layout.KindDirectory, IndexBlock: sb.DataRegionStart}))
	require.NoError(t, tbl.WriteToDisk(dev, &sb))

	reloaded, err := inode.ReadFromDisk(dev, &sb, maxInodes)
	require.NoError(t, err)
	assert.Equal(t, tbl.Inodes, reloaded.Inodes)
}
