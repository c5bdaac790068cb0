package bitmap_test

import (
	"testing"

	"github.com/kfoss/blockfs/bitmap"
	"github.com/kfoss/blockfs/device"
	"github.com/kfoss/blockfs/errors"
	"github.com/kfoss/blockfs/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

func newTestDevice(t *testing.T, totalBlocks, blockSize int) *device.Device {
	t.Helper()
	backing := make([]byte, totalBlocks*blockSize)
	stream := bytesextra.NewReadWriteSeeker(backing)
	return device.OpenStream(stream, totalBlocks, blockSize)
}

func TestInitializeBitmap_ReservesGivenBlocks(t *testing.T) {
	a := bitmap.NewAllocator(16)
	a.InitializeBitmap([]int{0, 1, 2})

	assert.False(t, a.IsFree(0))
	assert.False(t, a.IsFree(1))
	assert.False(t, a.IsFree(2))
	assert.True(t, a.IsFree(3))
	assert.True(t, a.IsFree(15))
}

func TestAllocateBlock_ScansAscendingAndPersists(t *testing.T) {
	dev := newTestDevice(t, 16, 64)
	sb := layout.NewSuperblock(16, 64, 8)
	a := bitmap.NewAllocator(16)
	// 8 inodes * 12 bytes = 96 bytes -> the inode table spans two 64-byte blocks.
	a.InitializeBitmap([]int{0, int(sb.InodeTableStart), int(sb.InodeTableStart) + 1, int(sb.FreeBitmapStart), int(sb.DataRegionStart)})

	block, err := a.AllocateBlock(dev, &sb)
	require.NoError(t, err)
	assert.EqualValues(t, sb.DataRegionStart+1, block)
	assert.False(t, a.IsFree(block))

	// Reload from disk and confirm the allocation was persisted.
	reloaded := bitmap.NewAllocator(16)
	require.NoError(t, reloaded.ReadFromDisk(dev, &sb))
	assert.False(t, reloaded.IsFree(block))
	assert.True(t, reloaded.IsFree(block+1))
}

func TestAllocateBlock_NoSpace(t *testing.T) {
	dev := newTestDevice(t, 4, 64)
	sb := layout.NewSuperblock(4, 64, 1)
	a := bitmap.NewAllocator(4)
	a.InitializeBitmap([]int{0, 1, 2, 3})

	_, err := a.AllocateBlock(dev, &sb)
	assert.ErrorIs(t, err, errors.ErrNoSpace)
}

func TestMarkUsedAndMarkFree_BoundsChecked(t *testing.T) {
	a := bitmap.NewAllocator(4)
	a.InitializeBitmap(nil)

	assert.Error(t, a.MarkUsed(-1))
	assert.Error(t, a.MarkUsed(4))
	assert.NoError(t, a.MarkUsed(0))
	assert.False(t, a.IsFree(0))

	assert.NoError(t, a.MarkFree(0))
	assert.True(t, a.IsFree(0))
}
