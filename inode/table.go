// Package inode implements the fixed-length inode table: an in-memory
// array of inodes mirrored to a contiguous run of blocks, rewritten to disk
// after every mutation.
package inode

import (
	"github.com/kfoss/blockfs/device"
	"github.com/kfoss/blockfs/errors"
	"github.com/kfoss/blockfs/layout"
)

// Table is the fixed-length array of inodes for one volume.
type Table struct {
	Inodes []layout.Inode
}

// NewTable returns a table of maxInodes entries, all Unused.
func NewTable(maxInodes int) *Table {
	inodes := make([]layout.Inode, maxInodes)
	for i := range inodes {
		inodes[i] = layout.NewUnusedInode()
	}
	return &Table{Inodes: inodes}
}

// Get returns the inode at index, or an error if index is out of range.
func (t *Table) Get(index int) (layout.Inode, error) {
	if index < 0 || index >= len(t.Inodes) {
		return layout.Inode{}, errors.ErrInvalidArgument.WithMessage("inode index out of range")
	}
	return t.Inodes[index], nil
}

// Set replaces the inode at index.
func (t *Table) Set(index int, value layout.Inode) error {
	if index < 0 || index >= len(t.Inodes) {
		return errors.ErrInvalidArgument.WithMessage("inode index out of range")
	}
	t.Inodes[index] = value
	return nil
}

// AllocateInode returns the smallest index whose slot is Unused, without
// marking it used -- callers are expected to immediately Set it to the new
// inode's value.
func (t *Table) AllocateInode() (int, error) {
	for i, in := range t.Inodes {
		if in.IsUnused() {
			return i, nil
		}
	}
	return 0, errors.ErrNoSpace.WithMessage("inode table is full")
}

// WriteToDisk transfers the table as one contiguous byte run, padded to
// InodeTableBlocks*BlockSize, starting at sb.InodeTableStart.
func (t *Table) WriteToDisk(dev *device.Device, sb *layout.Superblock) error {
	blockSize := int(sb.BlockSize)
	totalBytes := int(sb.InodeTableBlocks) * blockSize

	buffer := make([]byte, totalBytes)
	copy(buffer, layout.MarshalInodeTable(t.Inodes))

	for i := 0; i < int(sb.InodeTableBlocks); i++ {
		start := i * blockSize
		if err := dev.WriteBlock(int(sb.InodeTableStart)+i, buffer[start:start+blockSize]); err != nil {
			return err
		}
	}
	return nil
}

// ReadFromDisk reloads the table from its on-disk blocks. maxInodes must
// match the value the volume was formatted with.
func ReadFromDisk(dev *device.Device, sb *layout.Superblock, maxInodes int) (*Table, error) {
	blockSize := int(sb.BlockSize)
	buffer := make([]byte, int(sb.InodeTableBlocks)*blockSize)

	for i := 0; i < int(sb.InodeTableBlocks); i++ {
		chunk := make([]byte, blockSize)
		if err := dev.ReadBlock(int(sb.InodeTableStart)+i, chunk); err != nil {
			return nil, err
		}
		copy(buffer[i*blockSize:], chunk)
	}

	inodes, err := layout.UnmarshalInodeTable(buffer, maxInodes)
	if err != nil {
		return nil, errors.ErrIOFailed.WrapError(err)
	}
	return &Table{Inodes: inodes}, nil
}
