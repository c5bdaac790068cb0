package layout

import (
	"bytes"
	"encoding/binary"
)

// Inode is the fixed-size metadata record for one namespace object.
type Inode struct {
	Kind       InodeKind
	_          [3]byte // padding, keeps the record a stable 12 bytes
	IndexBlock int32
	Size       int32
}

// NewUnusedInode returns the zero-value inode: Kind Unused, no index block,
// size 0.
func NewUnusedInode() Inode {
	return Inode{Kind: KindUnused, IndexBlock: NoBlock, Size: 0}
}

func (inode *Inode) IsUnused() bool {
	return inode.Kind == KindUnused
}

func (inode *Inode) IsDirectory() bool {
	return inode.Kind == KindDirectory
}

func (inode *Inode) IsFile() bool {
	return inode.Kind == KindFile
}

// Marshal serializes the inode into a fixed InodeSize-byte record.
func (inode *Inode) Marshal() []byte {
	buffer := make([]byte, InodeSize)
	buffer[0] = byte(inode.Kind)
	binary.LittleEndian.PutUint32(buffer[4:8], uint32(inode.IndexBlock))
	binary.LittleEndian.PutUint32(buffer[8:12], uint32(inode.Size))
	return buffer
}

// UnmarshalInode reads one InodeSize-byte record.
func UnmarshalInode(record []byte) Inode {
	return Inode{
		Kind:       InodeKind(record[0]),
		IndexBlock: int32(binary.LittleEndian.Uint32(record[4:8])),
		Size:       int32(binary.LittleEndian.Uint32(record[8:12])),
	}
}

// MarshalInodeTable serializes a slice of inodes as one contiguous byte
// run, with no padding between records.
func MarshalInodeTable(inodes []Inode) []byte {
	buffer := make([]byte, len(inodes)*InodeSize)
	for i := range inodes {
		copy(buffer[i*InodeSize:(i+1)*InodeSize], inodes[i].Marshal())
	}
	return buffer
}

// UnmarshalInodeTable reads `count` contiguous inode records from buffer.
func UnmarshalInodeTable(buffer []byte, count int) ([]Inode, error) {
	if len(buffer) < count*InodeSize {
		return nil, bytes.ErrTooLarge
	}

	inodes := make([]Inode, count)
	for i := 0; i < count; i++ {
		inodes[i] = UnmarshalInode(buffer[i*InodeSize : (i+1)*InodeSize])
	}
	return inodes, nil
}
