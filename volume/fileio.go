package volume

import (
	"github.com/kfoss/blockfs/errors"
	"github.com/kfoss/blockfs/layout"
)

// WriteFile replaces fd's entire contents with data. Payloads larger than
// layout.MaxFileSize are silently truncated to fit the single index block,
// matching the fixed-geometry limit spec.md places on regular files. Data
// blocks are allocated lazily and written before the index block that
// references them, and the index block before the inode that references
// that.
func (v *Volume) WriteFile(fd int, data []byte) errors.DriverError {
	if err := v.requireMounted(); err != nil {
		return err
	}
	entry, err := v.lookupFd(fd)
	if err != nil {
		return err
	}

	in, tableErr := v.table.Get(entry.inodeIndex)
	if tableErr != nil {
		return errors.AsDriverError(tableErr)
	}

	blockSize := int(v.superblock.BlockSize)
	maxSize := layout.MaxFileSize(blockSize)
	if int64(len(data)) > maxSize {
		data = data[:maxSize]
	}

	indexBlock := make([]byte, blockSize)
	if err := v.dev.ReadBlock(int(in.IndexBlock), indexBlock); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	pointers := layout.ReadIndexBlockEntries(indexBlock)

	neededBlocks := 0
	if len(data) > 0 {
		neededBlocks = (len(data) + blockSize - 1) / blockSize
	}

	for i := 0; i < neededBlocks; i++ {
		if pointers[i] == layout.NoBlock {
			blockNumber, allocErr := v.alloc.AllocateBlock(v.dev, &v.superblock)
			if allocErr != nil {
				return errors.AsDriverError(allocErr)
			}
			pointers[i] = int32(blockNumber)
			layout.WriteIndexBlockEntry(indexBlock, i, int32(blockNumber))
		}

		chunk := make([]byte, blockSize)
		start := i * blockSize
		end := start + blockSize
		if end > len(data) {
			end = len(data)
		}
		copy(chunk, data[start:end])

		if err := v.dev.WriteBlock(int(pointers[i]), chunk); err != nil {
			return errors.ErrIOFailed.WrapError(err)
		}
	}

	if err := v.dev.WriteBlock(int(in.IndexBlock), indexBlock); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}

	in.Size = int32(len(data))
	if err := v.table.Set(entry.inodeIndex, in); err != nil {
		return errors.AsDriverError(err)
	}
	return errors.AsDriverError(v.table.WriteToDisk(v.dev, &v.superblock))
}

// ReadFile returns fd's full contents as written. It stops reading early,
// without error, if it reaches an unallocated index entry before the
// inode's recorded size -- a file whose tail was never written out.
func (v *Volume) ReadFile(fd int) ([]byte, errors.DriverError) {
	if err := v.requireMounted(); err != nil {
		return nil, err
	}
	entry, err := v.lookupFd(fd)
	if err != nil {
		return nil, err
	}

	in, tableErr := v.table.Get(entry.inodeIndex)
	if tableErr != nil {
		return nil, errors.AsDriverError(tableErr)
	}

	blockSize := int(v.superblock.BlockSize)
	indexBlock := make([]byte, blockSize)
	if err := v.dev.ReadBlock(int(in.IndexBlock), indexBlock); err != nil {
		return nil, errors.ErrIOFailed.WrapError(err)
	}
	pointers := layout.ReadIndexBlockEntries(indexBlock)

	size := int(in.Size)
	blocksNeeded := 0
	if size > 0 {
		blocksNeeded = (size + blockSize - 1) / blockSize
	}

	out := make([]byte, 0, size)
	for i := 0; i < blocksNeeded; i++ {
		if pointers[i] == layout.NoBlock {
			break
		}
		chunk := make([]byte, blockSize)
		if err := v.dev.ReadBlock(int(pointers[i]), chunk); err != nil {
			return nil, errors.ErrIOFailed.WrapError(err)
		}
		remaining := size - len(out)
		if remaining > blockSize {
			remaining = blockSize
		}
		out = append(out, chunk[:remaining]...)
	}
	return out, nil
}
