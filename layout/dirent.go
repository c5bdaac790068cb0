package layout

import (
	"bytes"
	"encoding/binary"
)

// DirectoryEntry is the fixed 60-byte record binding a name to an inode
// index inside a directory's block. An empty slot has InodeIndex == NoInode.
type DirectoryEntry struct {
	InodeIndex int32
	Name       [DirentNameFieldSize]byte
}

// NewDirectoryEntry builds an entry for the given inode, truncating name to
// DirentNameCapacity bytes and NUL-terminating it.
func NewDirectoryEntry(inodeIndex int32, name string) DirectoryEntry {
	entry := DirectoryEntry{InodeIndex: inodeIndex}
	raw := []byte(name)
	if len(raw) > DirentNameCapacity {
		raw = raw[:DirentNameCapacity]
	}
	copy(entry.Name[:], raw)
	return entry
}

// EmptyDirectoryEntry returns a slot with no entry in it.
func EmptyDirectoryEntry() DirectoryEntry {
	return DirectoryEntry{InodeIndex: NoInode}
}

func (entry *DirectoryEntry) IsEmpty() bool {
	return entry.InodeIndex == NoInode
}

// NameString returns the entry's name with the trailing NUL padding
// stripped.
func (entry *DirectoryEntry) NameString() string {
	end := bytes.IndexByte(entry.Name[:], 0)
	if end == -1 {
		end = len(entry.Name)
	}
	return string(entry.Name[:end])
}

// Marshal serializes the entry into a fixed DirentSize-byte record.
func (entry *DirectoryEntry) Marshal() []byte {
	buffer := make([]byte, DirentSize)
	binary.LittleEndian.PutUint32(buffer[:4], uint32(entry.InodeIndex))
	copy(buffer[4:], entry.Name[:])
	return buffer
}

// UnmarshalDirectoryEntry reads one DirentSize-byte record.
func UnmarshalDirectoryEntry(record []byte) DirectoryEntry {
	var entry DirectoryEntry
	entry.InodeIndex = int32(binary.LittleEndian.Uint32(record[:4]))
	copy(entry.Name[:], record[4:DirentSize])
	return entry
}

// MarshalDirectoryBlock serializes the full slot array for one directory
// block.
func MarshalDirectoryBlock(entries []DirectoryEntry, blockSize int) []byte {
	buffer := make([]byte, blockSize)
	for i, entry := range entries {
		record := entry.Marshal()
		copy(buffer[i*DirentSize:(i+1)*DirentSize], record)
	}
	return buffer
}

// UnmarshalDirectoryBlock reads every slot out of one directory block.
func UnmarshalDirectoryBlock(buffer []byte) []DirectoryEntry {
	count := EntriesPerBlock(len(buffer))
	entries := make([]DirectoryEntry, count)
	for i := 0; i < count; i++ {
		entries[i] = UnmarshalDirectoryEntry(buffer[i*DirentSize : (i+1)*DirentSize])
	}
	return entries
}

// NewEmptyDirectoryBlock returns a block-sized buffer encoding an all-empty
// directory (every slot's InodeIndex == NoInode).
func NewEmptyDirectoryBlock(blockSize int) []byte {
	count := EntriesPerBlock(blockSize)
	entries := make([]DirectoryEntry, count)
	for i := range entries {
		entries[i] = EmptyDirectoryEntry()
	}
	return MarshalDirectoryBlock(entries, blockSize)
}

// NewEmptyIndexBlock returns a block-sized buffer encoding a file index
// block with every entry set to NoBlock.
func NewEmptyIndexBlock(blockSize int) []byte {
	count := IndexEntriesPerBlock(blockSize)
	buffer := make([]byte, blockSize)
	for i := 0; i < count; i++ {
		binary.LittleEndian.PutUint32(buffer[i*IndexBlockEntrySize:], uint32(NoBlock))
	}
	return buffer
}

// ReadIndexBlockEntries unpacks the data-block pointers from a file's
// index block.
func ReadIndexBlockEntries(buffer []byte) []int32 {
	count := IndexEntriesPerBlock(len(buffer))
	entries := make([]int32, count)
	for i := 0; i < count; i++ {
		entries[i] = int32(binary.LittleEndian.Uint32(buffer[i*IndexBlockEntrySize:]))
	}
	return entries
}

// WriteIndexBlockEntry updates one data-block pointer in place inside a
// buffer already holding a serialized index block.
func WriteIndexBlockEntry(buffer []byte, index int, blockNumber int32) {
	binary.LittleEndian.PutUint32(buffer[index*IndexBlockEntrySize:], uint32(blockNumber))
}
