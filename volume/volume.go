// Package volume implements the namespace operations and volume lifecycle
// on top of the device, bitmap, inode, and directory layers: format, mount,
// path-based create/read/write/search, and the open-file handle table.
package volume

import (
	"github.com/kfoss/blockfs/bitmap"
	"github.com/kfoss/blockfs/device"
	"github.com/kfoss/blockfs/errors"
	"github.com/kfoss/blockfs/inode"
	"github.com/kfoss/blockfs/layout"
)

// State is the volume's lifecycle stage: Closed -> Open -> Mounted.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateMounted
)

// Volume ties the block device to the in-memory metadata (superblock,
// inode table, free-space bitmap) and the open-file handle table. It is
// not safe for concurrent use -- the filesystem is single-threaded and
// synchronous per spec.
type Volume struct {
	dev       *device.Device
	maxInodes int
	state     State

	superblock layout.Superblock
	table      *inode.Table
	alloc      *bitmap.Allocator

	openFiles []openFileEntry
}

// New wraps an already-open device. maxInodes is fixed for the lifetime of
// the volume and must match the value used to format the image.
func New(dev *device.Device, maxInodes int) *Volume {
	return &Volume{dev: dev, maxInodes: maxInodes, state: StateOpen}
}

// Superblock returns a copy of the in-memory superblock. Only meaningful
// once mounted.
func (v *Volume) Superblock() layout.Superblock {
	return v.superblock
}

// MaxInodes returns the fixed inode count this volume was constructed with.
func (v *Volume) MaxInodes() int {
	return v.maxInodes
}

// InodeTable returns a read-only snapshot of the inode table.
func (v *Volume) InodeTable() []layout.Inode {
	if v.table == nil {
		return nil
	}
	snapshot := make([]layout.Inode, len(v.table.Inodes))
	copy(snapshot, v.table.Inodes)
	return snapshot
}

// IsBlockFree reports whether blockNumber is currently marked free in the
// volume's bitmap. Used by consistency checking to confirm that every block
// an inode references is actually marked allocated.
func (v *Volume) IsBlockFree(blockNumber int) bool {
	if v.alloc == nil {
		return true
	}
	return v.alloc.IsFree(blockNumber)
}

// IsDirectoryInode reports whether the inode at index is a Directory.
func (v *Volume) IsDirectoryInode(index int) bool {
	if v.table == nil {
		return false
	}
	in, err := v.table.Get(index)
	return err == nil && in.IsDirectory()
}

// Initialize formats a fresh image: it writes the superblock, a zeroed
// inode table with slot 0 configured as the root directory, an empty root
// directory block, and the initial free-space bitmap. Legal only while the
// device is open and the volume has not yet been mounted or formatted.
func (v *Volume) Initialize() errors.DriverError {
	if v.state == StateMounted {
		return errors.ErrAlreadyMounted
	}
	if v.state != StateOpen || !v.dev.IsOpen() {
		return errors.ErrNotOpen
	}

	sb := layout.NewSuperblock(v.dev.TotalBlocks, v.dev.BlockSize, v.maxInodes)

	table := inode.NewTable(v.maxInodes)
	rootEntry := layout.Inode{
		Kind:       layout.KindDirectory,
		IndexBlock: sb.DataRegionStart,
		Size:       0,
	}
	if err := table.Set(int(layout.RootInodeIndex), rootEntry); err != nil {
		return errors.AsDriverError(err)
	}

	emptyRootBlock := layout.NewEmptyDirectoryBlock(int(sb.BlockSize))
	if err := v.dev.WriteBlock(int(sb.DataRegionStart), emptyRootBlock); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}

	sbBlock, err := sb.MarshalBlock(int(sb.BlockSize))
	if err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	if err := v.dev.WriteBlock(0, sbBlock); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}

	if err := table.WriteToDisk(v.dev, &sb); err != nil {
		return errors.AsDriverError(err)
	}

	alloc := bitmap.NewAllocator(int(sb.TotalBlocks))
	reserved := reservedBlocks(&sb)
	alloc.InitializeBitmap(reserved)
	if err := alloc.WriteToDisk(v.dev, &sb); err != nil {
		return errors.AsDriverError(err)
	}

	v.superblock = sb
	v.table = table
	v.alloc = alloc
	v.state = StateMounted
	return nil
}

// Mount reads block 0, verifies the magic number, then loads the inode
// table and the free-space bitmap into memory using the offsets recorded
// in the superblock.
func (v *Volume) Mount() errors.DriverError {
	if v.state == StateMounted {
		return errors.ErrAlreadyMounted
	}
	if v.state != StateOpen || !v.dev.IsOpen() {
		return errors.ErrNotOpen
	}

	block0 := make([]byte, v.dev.BlockSize)
	if err := v.dev.ReadBlock(0, block0); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}

	sb, err := layout.UnmarshalBlock(block0)
	if err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	if !sb.IsValid() {
		return errors.ErrInvalidMagic
	}

	table, err := inode.ReadFromDisk(v.dev, &sb, v.maxInodes)
	if err != nil {
		return errors.AsDriverError(err)
	}

	alloc := bitmap.NewAllocator(int(sb.TotalBlocks))
	if err := alloc.ReadFromDisk(v.dev, &sb); err != nil {
		return errors.AsDriverError(err)
	}

	v.superblock = sb
	v.table = table
	v.alloc = alloc
	v.state = StateMounted
	return nil
}

// Close releases the underlying device. It is the caller's responsibility
// to call this exactly once the volume is no longer needed.
func (v *Volume) Close() errors.DriverError {
	v.state = StateClosed
	return errors.AsDriverError(v.dev.Close())
}

func reservedBlocks(sb *layout.Superblock) []int {
	reserved := []int{0}
	for i := 0; i < int(sb.InodeTableBlocks); i++ {
		reserved = append(reserved, int(sb.InodeTableStart)+i)
	}
	for i := 0; i < int(sb.FreeBitmapBlocks); i++ {
		reserved = append(reserved, int(sb.FreeBitmapStart)+i)
	}
	reserved = append(reserved, int(sb.DataRegionStart))
	return reserved
}

func (v *Volume) requireMounted() errors.DriverError {
	if v.state != StateMounted {
		return errors.ErrNotMounted
	}
	return nil
}
