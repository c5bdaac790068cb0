// Package diag implements offline consistency checking and reporting for a
// mounted volume: the bitmap/inode/directory invariants a healthy image
// must satisfy, and a CSV export of the inode table for external tooling.
package diag

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/kfoss/blockfs/layout"
	"github.com/kfoss/blockfs/volume"
)

// Report summarizes one consistency pass over a mounted volume.
type Report struct {
	InodesChecked     int
	BlocksReferenced  int
	DirectoriesWalked int
	ViolationsFound   int
}

// CheckConsistency walks the in-memory inode table and every directory it
// finds, verifying:
//   - no two inodes reference the same index block (no aliasing)
//   - every index block and every data block an inode references is
//     actually marked used in the free-space bitmap
//   - no two files reference the same data block from their index block
//   - a directory's recorded Size matches the number of live entries in
//     its block
//   - every entry in a directory points at an inode index that actually
//     exists in the table
//   - a file's recorded Size is consistent with the count of allocated
//     (non -1) entries in its index block
//
// All violations found are accumulated and returned together via
// go-multierror rather than failing fast on the first one.
func CheckConsistency(vol *volume.Volume) (*Report, error) {
	sb := vol.Superblock()
	inodes := vol.InodeTable()
	report := &Report{}

	var result *multierror.Error
	seenIndexBlocks := map[int32]int{}
	dataBlockOwner := map[int32]int{}

	for index, in := range inodes {
		if in.IsUnused() {
			continue
		}
		report.InodesChecked++

		if in.IndexBlock == layout.NoBlock {
			continue
		}
		if owner, ok := seenIndexBlocks[in.IndexBlock]; ok {
			result = multierror.Append(result, fmt.Errorf(
				"inode %d and inode %d both reference index block %d", owner, index, in.IndexBlock))
		} else {
			seenIndexBlocks[in.IndexBlock] = index
		}
		if vol.IsBlockFree(int(in.IndexBlock)) {
			result = multierror.Append(result, fmt.Errorf(
				"inode %d: index block %d is marked free in the bitmap", index, in.IndexBlock))
		}
		report.BlocksReferenced++

		switch {
		case in.IsDirectory():
			report.DirectoriesWalked++
			entries, err := vol.ListDirectoryEntriesByIndex(index)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("inode %d: listing entries: %w", index, err))
				continue
			}
			if int(in.Size) != len(entries) {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d: directory size %d does not match %d live entries", index, in.Size, len(entries)))
			}
			for _, entry := range entries {
				if entry.InodeIndex < 0 || entry.InodeIndex >= len(inodes) {
					result = multierror.Append(result, fmt.Errorf(
						"inode %d: entry %q references out-of-range inode %d", index, entry.Name, entry.InodeIndex))
				}
			}

		case in.IsFile():
			indexBlock, err := vol.ReadIndexBlock(index)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("inode %d: reading index block: %w", index, err))
				continue
			}
			pointers := layout.ReadIndexBlockEntries(indexBlock)
			allocated := 0
			for _, p := range pointers {
				if p == layout.NoBlock {
					continue
				}
				allocated++
				if vol.IsBlockFree(int(p)) {
					result = multierror.Append(result, fmt.Errorf(
						"inode %d: data block %d is marked free in the bitmap", index, p))
				}
				if owner, ok := dataBlockOwner[p]; ok {
					result = multierror.Append(result, fmt.Errorf(
						"inode %d and inode %d both reference data block %d", owner, index, p))
				} else {
					dataBlockOwner[p] = index
				}
			}
			expected := 0
			if in.Size > 0 {
				expected = (int(in.Size) + int(sb.BlockSize) - 1) / int(sb.BlockSize)
			}
			if allocated < expected {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d: size %d needs %d blocks but only %d are allocated", index, in.Size, expected, allocated))
			}
		}
	}

	if result != nil {
		report.ViolationsFound = len(result.Errors)
		return report, result.ErrorOrNil()
	}
	return report, nil
}
