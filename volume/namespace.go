package volume

import (
	"strings"

	"github.com/kfoss/blockfs/directory"
	"github.com/kfoss/blockfs/errors"
	"github.com/kfoss/blockfs/layout"
	"github.com/kfoss/blockfs/pathutil"
)

// DirectoryEntry is one resolved, non-empty slot of a listed directory.
type DirectoryEntry struct {
	InodeIndex int
	Name       string
}

// resolvePath walks components from the root, requiring every component
// but the last to name a Directory. It returns the inode index the full
// path resolves to.
func (v *Volume) resolvePath(path string) (int, errors.DriverError) {
	return v.resolveComponents(pathutil.SplitPath(path))
}

func (v *Volume) resolveComponents(components []string) (int, errors.DriverError) {
	current := int(layout.RootInodeIndex)
	for i, name := range components {
		idx, err := directory.FindEntry(v.dev, &v.superblock, v.table, current, name)
		if err != nil {
			return 0, errors.AsDriverError(err)
		}
		if idx == layout.NoInode {
			return 0, errors.ErrNotFound
		}
		if i < len(components)-1 {
			in, err := v.table.Get(int(idx))
			if err != nil {
				return 0, errors.AsDriverError(err)
			}
			if !in.IsDirectory() {
				return 0, errors.ErrNotADirectory
			}
		}
		current = int(idx)
	}
	return current, nil
}

// resolveParent splits path into its parent directory's inode index and the
// final path component (the name to create, find, or remove).
func (v *Volume) resolveParent(path string) (int, string, errors.DriverError) {
	components := pathutil.SplitPath(path)
	if len(components) == 0 {
		return 0, "", errors.ErrInvalidArgument.WithMessage("path has no name component")
	}

	leaf := components[len(components)-1]
	parent, err := v.resolveComponents(components[:len(components)-1])
	if err != nil {
		return 0, "", err
	}
	return parent, leaf, nil
}

func (v *Volume) createNamed(path string, kind layout.InodeKind, initialBlock []byte) errors.DriverError {
	if err := v.requireMounted(); err != nil {
		return err
	}

	parent, leaf, err := v.resolveParent(path)
	if err != nil {
		return err
	}

	existing, findErr := directory.FindEntry(v.dev, &v.superblock, v.table, parent, leaf)
	if findErr != nil {
		return errors.AsDriverError(findErr)
	}
	if existing != layout.NoInode {
		return errors.ErrExists
	}

	childIndex, allocErr := v.table.AllocateInode()
	if allocErr != nil {
		return errors.AsDriverError(allocErr)
	}

	blockNumber, blockErr := v.alloc.AllocateBlock(v.dev, &v.superblock)
	if blockErr != nil {
		return errors.AsDriverError(blockErr)
	}
	if err := v.dev.WriteBlock(blockNumber, initialBlock); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}

	newInode := layout.Inode{Kind: kind, IndexBlock: int32(blockNumber), Size: 0}
	if err := v.table.Set(childIndex, newInode); err != nil {
		return errors.AsDriverError(err)
	}
	if err := v.table.WriteToDisk(v.dev, &v.superblock); err != nil {
		return errors.AsDriverError(err)
	}

	return errors.AsDriverError(directory.AddEntry(v.dev, &v.superblock, v.table, parent, int32(childIndex), leaf))
}

// CreateFile creates an empty regular file at path. The parent directory
// must already exist and must not already contain an entry with this name.
func (v *Volume) CreateFile(path string) errors.DriverError {
	blockSize := int(v.superblock.BlockSize)
	return v.createNamed(path, layout.KindFile, layout.NewEmptyIndexBlock(blockSize))
}

// CreateDirectory creates an empty directory at path.
func (v *Volume) CreateDirectory(path string) errors.DriverError {
	blockSize := int(v.superblock.BlockSize)
	return v.createNamed(path, layout.KindDirectory, layout.NewEmptyDirectoryBlock(blockSize))
}

// ListDirectoryEntries returns every entry of the directory at path, in
// on-disk order.
func (v *Volume) ListDirectoryEntries(path string) ([]DirectoryEntry, errors.DriverError) {
	if err := v.requireMounted(); err != nil {
		return nil, err
	}

	index, err := v.resolvePath(path)
	if err != nil {
		return nil, err
	}
	return v.ListDirectoryEntriesByIndex(index)
}

// ListDirectoryEntriesByIndex is the inode-indexed counterpart to
// ListDirectoryEntries, used by consistency-checking tools that walk the
// inode table directly rather than resolving paths.
func (v *Volume) ListDirectoryEntriesByIndex(index int) ([]DirectoryEntry, errors.DriverError) {
	in, err := v.table.Get(index)
	if err != nil {
		return nil, errors.AsDriverError(err)
	}
	if !in.IsDirectory() {
		return nil, errors.ErrNotADirectory
	}

	raw, err := directory.ListEntries(v.dev, &v.superblock, v.table, index)
	if err != nil {
		return nil, errors.AsDriverError(err)
	}

	results := make([]DirectoryEntry, len(raw))
	for i, entry := range raw {
		results[i] = DirectoryEntry{InodeIndex: int(entry.InodeIndex), Name: entry.Name}
	}
	return results, nil
}

// ReadIndexBlock returns the raw bytes of the index block belonging to the
// inode at index, whatever its kind.
func (v *Volume) ReadIndexBlock(index int) ([]byte, errors.DriverError) {
	in, err := v.table.Get(index)
	if err != nil {
		return nil, errors.AsDriverError(err)
	}
	buffer := make([]byte, int(v.superblock.BlockSize))
	if err := v.dev.ReadBlock(int(in.IndexBlock), buffer); err != nil {
		return nil, errors.ErrIOFailed.WrapError(err)
	}
	return buffer, nil
}

// Search walks the entire namespace in pre-order from the root and returns
// the absolute path of every entry whose name contains pattern as a
// substring.
func (v *Volume) Search(pattern string) ([]string, errors.DriverError) {
	if err := v.requireMounted(); err != nil {
		return nil, err
	}

	var results []string
	var walk func(dirIndex int, dirPath string) errors.DriverError
	walk = func(dirIndex int, dirPath string) errors.DriverError {
		entries, err := directory.ListEntries(v.dev, &v.superblock, v.table, dirIndex)
		if err != nil {
			return errors.AsDriverError(err)
		}
		for _, entry := range entries {
			fullPath := pathutil.Join(dirPath, entry.Name)
			if strings.Contains(entry.Name, pattern) {
				results = append(results, fullPath)
			}

			childInode, err := v.table.Get(int(entry.InodeIndex))
			if err != nil {
				return errors.AsDriverError(err)
			}
			if childInode.IsDirectory() {
				if err := walk(int(entry.InodeIndex), fullPath); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(int(layout.RootInodeIndex), "/"); err != nil {
		return nil, err
	}
	return results, nil
}
