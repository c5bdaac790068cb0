// Package directory encodes directory contents as a fixed-size slot array
// inside a single block and implements add/find/list over that block.
package directory

import (
	"github.com/kfoss/blockfs/device"
	"github.com/kfoss/blockfs/errors"
	"github.com/kfoss/blockfs/inode"
	"github.com/kfoss/blockfs/layout"
)

// Entry is one resolved, non-empty directory slot.
type Entry struct {
	InodeIndex int32
	Name       string
}

func readBlock(dev *device.Device, sb *layout.Superblock, blockNumber int32) ([]byte, error) {
	buffer := make([]byte, int(sb.BlockSize))
	if err := dev.ReadBlock(int(blockNumber), buffer); err != nil {
		return nil, errors.ErrIOFailed.WrapError(err)
	}
	return buffer, nil
}

func requireDirectory(table *inode.Table, dirInodeIndex int) (layout.Inode, error) {
	dirInode, err := table.Get(dirInodeIndex)
	if err != nil {
		return layout.Inode{}, err
	}
	if !dirInode.IsDirectory() {
		return layout.Inode{}, errors.ErrNotADirectory
	}
	return dirInode, nil
}

// FindEntry linearly scans the directory's block for name, returning the
// matching inode index or layout.NoInode if none match. Name comparison is
// byte-exact over the name field with trailing NULs ignored.
func FindEntry(
	dev *device.Device,
	sb *layout.Superblock,
	table *inode.Table,
	dirInodeIndex int,
	name string,
) (int32, error) {
	dirInode, err := requireDirectory(table, dirInodeIndex)
	if err != nil {
		return layout.NoInode, err
	}

	block, err := readBlock(dev, sb, dirInode.IndexBlock)
	if err != nil {
		return layout.NoInode, err
	}

	for _, entry := range layout.UnmarshalDirectoryBlock(block) {
		if !entry.IsEmpty() && entry.NameString() == name {
			return entry.InodeIndex, nil
		}
	}
	return layout.NoInode, nil
}

// AddEntry writes (childInodeIndex, name) into the first empty slot of the
// directory's block, then increments the directory inode's Size and
// persists both the block and the inode table. The caller is responsible
// for checking name uniqueness first via FindEntry.
func AddEntry(
	dev *device.Device,
	sb *layout.Superblock,
	table *inode.Table,
	dirInodeIndex int,
	childInodeIndex int32,
	name string,
) error {
	dirInode, err := requireDirectory(table, dirInodeIndex)
	if err != nil {
		return err
	}

	block, err := readBlock(dev, sb, dirInode.IndexBlock)
	if err != nil {
		return err
	}

	entries := layout.UnmarshalDirectoryBlock(block)
	slot := -1
	for i, entry := range entries {
		if entry.IsEmpty() {
			slot = i
			break
		}
	}
	if slot == -1 {
		return errors.ErrDirectoryFull
	}

	entries[slot] = layout.NewDirectoryEntry(childInodeIndex, name)
	newBlock := layout.MarshalDirectoryBlock(entries, int(sb.BlockSize))
	if err := dev.WriteBlock(int(dirInode.IndexBlock), newBlock); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}

	dirInode.Size++
	if err := table.Set(dirInodeIndex, dirInode); err != nil {
		return err
	}
	return table.WriteToDisk(dev, sb)
}

// ListEntries returns every non-empty slot of the directory's block, in
// on-disk order.
func ListEntries(
	dev *device.Device,
	sb *layout.Superblock,
	table *inode.Table,
	dirInodeIndex int,
) ([]Entry, error) {
	dirInode, err := requireDirectory(table, dirInodeIndex)
	if err != nil {
		return nil, err
	}

	block, err := readBlock(dev, sb, dirInode.IndexBlock)
	if err != nil {
		return nil, err
	}

	var results []Entry
	for _, entry := range layout.UnmarshalDirectoryBlock(block) {
		if !entry.IsEmpty() {
			results = append(results, Entry{InodeIndex: entry.InodeIndex, Name: entry.NameString()})
		}
	}
	return results, nil
}
