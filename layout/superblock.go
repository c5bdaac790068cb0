package layout

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/noxer/bytewriter"
)

// Superblock is the fixed-size record stored at block 0 of the image. It
// carries the magic number and the offsets needed to locate every other
// region without recomputing geometry from scratch.
type Superblock struct {
	Magic            uint32
	TotalBlocks      int32
	BlockSize        int32
	InodeTableStart  int32
	InodeTableBlocks int32
	FreeBitmapStart  int32
	FreeBitmapBlocks int32
	DataRegionStart  int32
	RootInodeIndex   int32
}

// Layout describes where each region of the image begins, derived from
// the total block count, block size, and inode count.
type Layout struct {
	InodeTableStart  int32
	InodeTableBlocks int32
	FreeBitmapStart  int32
	FreeBitmapBlocks int32
	DataRegionStart  int32
}

// ComputeLayout lays out the inode table, bitmap, and data region
// immediately after the superblock (block 0), in that order, using ceiling
// division as spec.md §6 requires.
func ComputeLayout(totalBlocks, blockSize, maxInodes int) Layout {
	inodeTableBytes := maxInodes * InodeSize
	inodeTableBlocks := ceilDiv(inodeTableBytes, blockSize)
	inodeTableStart := 1 // block 0 is the superblock

	freeBitmapBlocks := ceilDiv(totalBlocks, blockSize*8)
	freeBitmapStart := inodeTableStart + inodeTableBlocks

	dataRegionStart := freeBitmapStart + freeBitmapBlocks

	return Layout{
		InodeTableStart:  int32(inodeTableStart),
		InodeTableBlocks: int32(inodeTableBlocks),
		FreeBitmapStart:  int32(freeBitmapStart),
		FreeBitmapBlocks: int32(freeBitmapBlocks),
		DataRegionStart:  int32(dataRegionStart),
	}
}

// NewSuperblock builds a Superblock for a freshly formatted image of the
// given geometry.
func NewSuperblock(totalBlocks, blockSize, maxInodes int) Superblock {
	l := ComputeLayout(totalBlocks, blockSize, maxInodes)
	return Superblock{
		Magic:            MagicNumber,
		TotalBlocks:      int32(totalBlocks),
		BlockSize:        int32(blockSize),
		InodeTableStart:  l.InodeTableStart,
		InodeTableBlocks: l.InodeTableBlocks,
		FreeBitmapStart:  l.FreeBitmapStart,
		FreeBitmapBlocks: l.FreeBitmapBlocks,
		DataRegionStart:  l.DataRegionStart,
		RootInodeIndex:   RootInodeIndex,
	}
}

// MarshalBlock writes the superblock into a buffer exactly `blockSize`
// bytes long, zero-padded after the record.
func (sb *Superblock) MarshalBlock(blockSize int) ([]byte, error) {
	if blockSize < SuperblockSize {
		return nil, fmt.Errorf("block size %d too small for a %d-byte superblock", blockSize, SuperblockSize)
	}

	buffer := make([]byte, blockSize)
	writer := bytewriter.New(buffer)

	fields := []int32{
		sb.TotalBlocks,
		sb.BlockSize,
		sb.InodeTableStart,
		sb.InodeTableBlocks,
		sb.FreeBitmapStart,
		sb.FreeBitmapBlocks,
		sb.DataRegionStart,
		sb.RootInodeIndex,
	}

	if err := binary.Write(writer, binary.LittleEndian, sb.Magic); err != nil {
		return nil, err
	}
	for _, field := range fields {
		if err := binary.Write(writer, binary.LittleEndian, field); err != nil {
			return nil, err
		}
	}
	return buffer, nil
}

// UnmarshalBlock reads a Superblock from the first SuperblockSize bytes of
// buffer.
func UnmarshalBlock(buffer []byte) (Superblock, error) {
	if len(buffer) < SuperblockSize {
		return Superblock{}, fmt.Errorf("buffer too small: need %d bytes, got %d", SuperblockSize, len(buffer))
	}

	reader := bytes.NewReader(buffer[:SuperblockSize])
	var sb Superblock

	fields := []*int32{
		&sb.TotalBlocks,
		&sb.BlockSize,
		&sb.InodeTableStart,
		&sb.InodeTableBlocks,
		&sb.FreeBitmapStart,
		&sb.FreeBitmapBlocks,
		&sb.DataRegionStart,
		&sb.RootInodeIndex,
	}

	if err := binary.Read(reader, binary.LittleEndian, &sb.Magic); err != nil {
		return Superblock{}, err
	}
	for _, field := range fields {
		if err := binary.Read(reader, binary.LittleEndian, field); err != nil {
			return Superblock{}, err
		}
	}
	return sb, nil
}

// IsValid reports whether the superblock carries our magic number.
func (sb *Superblock) IsValid() bool {
	return sb.Magic == MagicNumber
}
