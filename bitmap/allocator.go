// Package bitmap implements the free-space allocator: a single bit per
// block, 1 meaning free and 0 meaning used, persisted to its own run of
// blocks on every mutation.
package bitmap

import (
	"github.com/boljen/go-bitmap"
	"github.com/kfoss/blockfs/device"
	"github.com/kfoss/blockfs/errors"
	"github.com/kfoss/blockfs/layout"
)

// Allocator owns the free-block bitmap and knows how to persist it.
type Allocator struct {
	bits        bitmap.Bitmap
	totalBlocks int
}

// NewAllocator creates an allocator for a device with totalBlocks blocks.
// Every bit starts cleared (used); call InitializeBitmap to mark the
// reserved regions and free the rest, or ReadFromDisk to load an existing
// bitmap.
func NewAllocator(totalBlocks int) *Allocator {
	return &Allocator{
		bits:        bitmap.New(totalBlocks),
		totalBlocks: totalBlocks,
	}
}

// InitializeBitmap sets every bit to free, then clears the bits for block 0,
// the inode table blocks, the bitmap's own blocks, and the root directory's
// data block -- every block a freshly formatted image already uses.
func (a *Allocator) InitializeBitmap(reservedBlocks []int) {
	for i := 0; i < a.totalBlocks; i++ {
		a.bits.Set(i, true)
	}
	for _, b := range reservedBlocks {
		a.bits.Set(b, false)
	}
}

func (a *Allocator) checkBounds(b int) error {
	if b < 0 || b >= a.totalBlocks {
		return errors.ErrInvalidArgument.WithMessage("block number out of range")
	}
	return nil
}

// MarkUsed clears the bit for block b (marks it used).
func (a *Allocator) MarkUsed(b int) error {
	if err := a.checkBounds(b); err != nil {
		return err
	}
	a.bits.Set(b, false)
	return nil
}

// MarkFree sets the bit for block b (marks it free). The filesystem core
// never calls this in normal operation -- blocks are never released per
// spec.md §3 -- but the allocator itself supports it for completeness and
// for consistency-repair tooling.
func (a *Allocator) MarkFree(b int) error {
	if err := a.checkBounds(b); err != nil {
		return err
	}
	a.bits.Set(b, true)
	return nil
}

// IsFree reports whether block b is currently marked free.
func (a *Allocator) IsFree(b int) bool {
	if b < 0 || b >= a.totalBlocks {
		return false
	}
	return a.bits.Get(b)
}

// AllocateBlock scans blocks in ascending order and returns the first free
// one, marking it used and persisting the bitmap before returning.
func (a *Allocator) AllocateBlock(dev *device.Device, sb *layout.Superblock) (int, error) {
	for i := 0; i < a.totalBlocks; i++ {
		if a.bits.Get(i) {
			a.bits.Set(i, false)
			if err := a.WriteToDisk(dev, sb); err != nil {
				// Roll the in-memory bit back; the allocation never took
				// effect on disk.
				a.bits.Set(i, true)
				return 0, err
			}
			return i, nil
		}
	}
	return 0, errors.ErrNoSpace
}

// WriteToDisk transfers the entire bitmap region to disk, block-aligned,
// starting at sb.FreeBitmapStart.
func (a *Allocator) WriteToDisk(dev *device.Device, sb *layout.Superblock) error {
	raw := a.bits.Data(false)
	blockSize := int(sb.BlockSize)

	for i := 0; i < int(sb.FreeBitmapBlocks); i++ {
		chunk := make([]byte, blockSize)
		start := i * blockSize
		end := start + blockSize
		if start < len(raw) {
			if end > len(raw) {
				end = len(raw)
			}
			copy(chunk, raw[start:end])
		}
		if err := dev.WriteBlock(int(sb.FreeBitmapStart)+i, chunk); err != nil {
			return err
		}
	}
	return nil
}

// ReadFromDisk loads the bitmap region from disk into memory.
func (a *Allocator) ReadFromDisk(dev *device.Device, sb *layout.Superblock) error {
	blockSize := int(sb.BlockSize)
	raw := make([]byte, int(sb.FreeBitmapBlocks)*blockSize)

	for i := 0; i < int(sb.FreeBitmapBlocks); i++ {
		chunk := make([]byte, blockSize)
		if err := dev.ReadBlock(int(sb.FreeBitmapStart)+i, chunk); err != nil {
			return err
		}
		copy(raw[i*blockSize:], chunk)
	}

	byteLen := (a.totalBlocks + 7) / 8
	if byteLen > len(raw) {
		byteLen = len(raw)
	}
	a.bits = bitmap.Bitmap(raw[:byteLen])
	return nil
}
