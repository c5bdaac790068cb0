package volume_test

import (
	"testing"

	"github.com/kfoss/blockfs/device"
	"github.com/kfoss/blockfs/errors"
	"github.com/kfoss/blockfs/volume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

const testBlockSize = 512
const testTotalBlocks = 64
const testMaxInodes = 16

func newStreamDevice(t *testing.T) *device.Device {
	t.Helper()
	backing := make([]byte, testTotalBlocks*testBlockSize)
	stream := bytesextra.NewReadWriteSeeker(backing)
	return device.OpenStream(stream, testTotalBlocks, testBlockSize)
}

func newFormattedVolume(t *testing.T) *volume.Volume {
	t.Helper()
	vol := volume.New(newStreamDevice(t), testMaxInodes)
	require.NoError(t, vol.Initialize())
	return vol
}

func TestFormatAndRemount_PreservesNamespace(t *testing.T) {
	backing := make([]byte, testTotalBlocks*testBlockSize)
	stream := bytesextra.NewReadWriteSeeker(backing)

	dev1 := device.OpenStream(stream, testTotalBlocks, testBlockSize)
	vol1 := volume.New(dev1, testMaxInodes)
	require.NoError(t, vol1.Initialize())
	require.NoError(t, vol1.CreateDirectory("/docs"))
	require.NoError(t, vol1.CreateFile("/docs/readme.txt"))

	fd, err := vol1.OpenFile("/docs/readme.txt")
	require.NoError(t, err)
	require.NoError(t, vol1.WriteFile(fd, []byte("hello world")))
	require.NoError(t, vol1.CloseFile(fd))
	require.NoError(t, vol1.Close())

	dev2 := device.OpenStream(stream, testTotalBlocks, testBlockSize)
	vol2 := volume.New(dev2, testMaxInodes)
	require.NoError(t, vol2.Mount())

	entries, err := vol2.ListDirectoryEntries("/docs")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "readme.txt", entries[0].Name)

	fd2, err := vol2.OpenFile("/docs/readme.txt")
	require.NoError(t, err)
	data, err := vol2.ReadFile(fd2)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestCreateDirectory_NestedPaths(t *testing.T) {
	vol := newFormattedVolume(t)

	require.NoError(t, vol.CreateDirectory("/a"))
	require.NoError(t, vol.CreateDirectory("/a/b"))
	require.NoError(t, vol.CreateFile("/a/b/cat.txt"))

	entries, err := vol.ListDirectoryEntries("/a/b")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cat.txt", entries[0].Name)
}

func TestWriteThenReadFile_LargeFile_SpansMultipleBlocks(t *testing.T) {
	vol := newFormattedVolume(t)
	require.NoError(t, vol.CreateFile("/big.bin"))

	fd, err := vol.OpenFile("/big.bin")
	require.NoError(t, err)

	payload := make([]byte, 3000)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	require.NoError(t, vol.WriteFile(fd, payload))

	readBack, err := vol.ReadFile(fd)
	require.NoError(t, err)
	assert.Equal(t, payload, readBack)
}

func TestSearch_MatchesSubstringAcrossNamespace(t *testing.T) {
	vol := newFormattedVolume(t)
	require.NoError(t, vol.CreateDirectory("/a"))
	require.NoError(t, vol.CreateDirectory("/a/b"))
	require.NoError(t, vol.CreateFile("/a/b/cat.txt"))
	require.NoError(t, vol.CreateFile("/a/b/dog.txt"))
	require.NoError(t, vol.CreateFile("/a/file_cat.log"))

	matches, err := vol.Search("cat")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/a/b/cat.txt", "/a/file_cat.log"}, matches)
}

func TestCreateFile_DuplicateName_Rejected(t *testing.T) {
	vol := newFormattedVolume(t)
	require.NoError(t, vol.CreateFile("/x.txt"))

	err := vol.CreateFile("/x.txt")
	assert.ErrorIs(t, err, errors.ErrExists)
}

func TestMount_ForeignImage_FailsWithInvalidMagic(t *testing.T) {
	backing := make([]byte, testTotalBlocks*testBlockSize)
	stream := bytesextra.NewReadWriteSeeker(backing)
	dev := device.OpenStream(stream, testTotalBlocks, testBlockSize)

	vol := volume.New(dev, testMaxInodes)
	err := vol.Mount()
	assert.ErrorIs(t, err, errors.ErrInvalidMagic)
}

func TestOpenFile_NonExistentPath_NotFound(t *testing.T) {
	vol := newFormattedVolume(t)
	_, err := vol.OpenFile("/missing.txt")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestOpenFile_OnDirectory_NotAFile(t *testing.T) {
	vol := newFormattedVolume(t)
	require.NoError(t, vol.CreateDirectory("/dir"))
	_, err := vol.OpenFile("/dir")
	assert.ErrorIs(t, err, errors.ErrNotAFile)
}

func TestCloseFile_InvalidFd_Rejected(t *testing.T) {
	vol := newFormattedVolume(t)
	assert.ErrorIs(t, vol.CloseFile(99), errors.ErrInvalidFd)
}

func TestCreateFile_MissingParentDirectory_NotFound(t *testing.T) {
	vol := newFormattedVolume(t)
	err := vol.CreateFile("/missing/child.txt")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}
