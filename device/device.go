// Package device implements the raw block-addressed storage layer: a
// fixed-count, fixed-size array of blocks backed by a regular host file (or,
// for tests, any seekable in-memory stream). It knows nothing about
// superblocks, inodes, or directories -- only how to read and write whole
// blocks by number.
package device

import (
	"io"
	"os"

	"github.com/kfoss/blockfs/errors"
)

// Device is a fixed-geometry block device. It does not cache; every
// ReadBlock/WriteBlock call maps to exactly one positioned I/O operation.
type Device struct {
	BlockSize   int
	TotalBlocks int

	stream io.ReadWriteSeeker
	closer io.Closer
	open   bool
}

// Open opens or creates the backing file at path for read+write. If the
// file is newly created or smaller than TotalBlocks*BlockSize, it is
// extended with zero bytes until it reaches exactly that size. A
// pre-existing file larger than the target size is left untouched.
func Open(path string, totalBlocks, blockSize int) (*Device, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.ErrIOFailed.WrapError(err)
	}

	if err := extendToSize(file, int64(totalBlocks)*int64(blockSize)); err != nil {
		file.Close()
		return nil, err
	}

	return &Device{
		BlockSize:   blockSize,
		TotalBlocks: totalBlocks,
		stream:      file,
		closer:      file,
		open:        true,
	}, nil
}

// OpenStream wraps an already-sized, seekable stream as a Device. It is
// used by tests to back a Device with an in-memory buffer instead of a
// host file; the stream is assumed to already be exactly
// totalBlocks*blockSize bytes long.
func OpenStream(stream io.ReadWriteSeeker, totalBlocks, blockSize int) *Device {
	dev := &Device{
		BlockSize:   blockSize,
		TotalBlocks: totalBlocks,
		stream:      stream,
		open:        true,
	}
	if closer, ok := stream.(io.Closer); ok {
		dev.closer = closer
	}
	return dev
}

func extendToSize(file *os.File, desiredSize int64) error {
	info, err := file.Stat()
	if err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}

	currentSize := info.Size()
	if currentSize >= desiredSize {
		return nil
	}

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}

	zeros := make([]byte, 64*1024)
	remaining := desiredSize - currentSize
	for remaining > 0 {
		chunk := int64(len(zeros))
		if remaining < chunk {
			chunk = remaining
		}
		n, err := file.Write(zeros[:chunk])
		if err != nil {
			return errors.ErrIOFailed.WrapError(err)
		}
		remaining -= int64(n)
	}
	return nil
}

func (d *Device) checkBounds(n int) error {
	if !d.open {
		return errors.ErrNotOpen
	}
	if n < 0 || n >= d.TotalBlocks {
		return errors.ErrInvalidArgument.WithMessage("block number out of range")
	}
	return nil
}

// ReadBlock transfers exactly BlockSize bytes from block n into buffer,
// which must be at least BlockSize bytes long.
func (d *Device) ReadBlock(n int, buffer []byte) error {
	if err := d.checkBounds(n); err != nil {
		return err
	}
	if len(buffer) < d.BlockSize {
		return errors.ErrInvalidArgument.WithMessage("buffer smaller than block size")
	}

	offset := int64(n) * int64(d.BlockSize)
	if _, err := d.stream.Seek(offset, io.SeekStart); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}

	if _, err := io.ReadFull(d.stream, buffer[:d.BlockSize]); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// WriteBlock transfers exactly BlockSize bytes from data to block n.
func (d *Device) WriteBlock(n int, data []byte) error {
	if err := d.checkBounds(n); err != nil {
		return err
	}
	if len(data) < d.BlockSize {
		return errors.ErrInvalidArgument.WithMessage("buffer smaller than block size")
	}

	offset := int64(n) * int64(d.BlockSize)
	if _, err := d.stream.Seek(offset, io.SeekStart); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}

	if _, err := d.stream.Write(data[:d.BlockSize]); err != nil {
		return errors.ErrIOFailed.WrapError(err)
	}
	return nil
}

// IsOpen reports whether the device is usable for I/O.
func (d *Device) IsOpen() bool {
	return d.open
}

// Close flushes pending writes and releases the underlying handle. It is
// idempotent.
func (d *Device) Close() error {
	if !d.open {
		return nil
	}
	d.open = false

	if syncer, ok := d.stream.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			return errors.ErrIOFailed.WrapError(err)
		}
	}
	if d.closer != nil {
		if err := d.closer.Close(); err != nil {
			return errors.ErrIOFailed.WrapError(err)
		}
	}
	return nil
}
