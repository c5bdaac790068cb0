// Error kinds surfaced by the block filesystem core. These are plain string
// constants rather than syscall.Errno values because the volume has no
// relationship to the host OS's error namespace -- it's a filesystem inside
// a single backing file, not a mounted OS volume.

package errors

import (
	"fmt"
)

type BlockfsError string

const ErrNotOpen = BlockfsError("device is not open")
const ErrNotMounted = BlockfsError("volume is not mounted")
const ErrAlreadyMounted = BlockfsError("volume is already mounted")
const ErrIOFailed = BlockfsError("block device I/O failed")
const ErrNoSpace = BlockfsError("no space left on device")
const ErrNotFound = BlockfsError("no such file or directory")
const ErrNotADirectory = BlockfsError("not a directory")
const ErrNotAFile = BlockfsError("not a file")
const ErrExists = BlockfsError("entry already exists")
const ErrInvalidFd = BlockfsError("invalid file descriptor")
const ErrInvalidMagic = BlockfsError("not a block filesystem image")
const ErrInvalidArgument = BlockfsError("invalid argument")
const ErrDirectoryFull = BlockfsError("directory has no free slot")

func (e BlockfsError) Error() string {
	return string(e)
}

func (e BlockfsError) WithMessage(message string) DriverError {
	return volumeFault{
		detail: fmt.Sprintf("%s: %s", string(e), message),
		cause:  e,
	}
}

func (e BlockfsError) WrapError(err error) DriverError {
	return volumeFault{
		detail: fmt.Sprintf("%s: %s", string(e), err.Error()),
		cause:  err,
	}
}
