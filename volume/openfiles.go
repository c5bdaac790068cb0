package volume

import "github.com/kfoss/blockfs/errors"

// openFileEntry is one slot in the volume's open-file handle table.
type openFileEntry struct {
	inodeIndex int
	inUse      bool
}

// OpenFile resolves path to a File inode and returns a new file descriptor
// for it. The same file may be opened more than once; each call returns an
// independent fd.
func (v *Volume) OpenFile(path string) (int, errors.DriverError) {
	if err := v.requireMounted(); err != nil {
		return 0, err
	}

	index, err := v.resolvePath(path)
	if err != nil {
		return 0, err
	}
	in, tableErr := v.table.Get(index)
	if tableErr != nil {
		return 0, errors.AsDriverError(tableErr)
	}
	if !in.IsFile() {
		return 0, errors.ErrNotAFile
	}

	for fd, entry := range v.openFiles {
		if !entry.inUse {
			v.openFiles[fd] = openFileEntry{inodeIndex: index, inUse: true}
			return fd, nil
		}
	}
	v.openFiles = append(v.openFiles, openFileEntry{inodeIndex: index, inUse: true})
	return len(v.openFiles) - 1, nil
}

// CloseFile returns ErrInvalidFd rather than succeeding silently on an
// already-closed or out-of-range fd.
func (v *Volume) CloseFile(fd int) errors.DriverError {
	if _, err := v.lookupFd(fd); err != nil {
		return err
	}
	v.openFiles[fd].inUse = false
	return nil
}

func (v *Volume) lookupFd(fd int) (openFileEntry, errors.DriverError) {
	if fd < 0 || fd >= len(v.openFiles) || !v.openFiles[fd].inUse {
		return openFileEntry{}, errors.ErrInvalidFd
	}
	return v.openFiles[fd], nil
}
