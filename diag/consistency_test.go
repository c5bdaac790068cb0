package diag_test

import (
	"strings"
	"testing"

	"github.com/kfoss/blockfs/device"
	"github.com/kfoss/blockfs/diag"
	"github.com/kfoss/blockfs/volume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

func newMountedVolume(t *testing.T) *volume.Volume {
	t.Helper()
	backing := make([]byte, 64*512)
	stream := bytesextra.NewReadWriteSeeker(backing)
	dev := device.OpenStream(stream, 64, 512)
	vol := volume.New(dev, 16)
	require.NoError(t, vol.Initialize())
	return vol
}

func TestCheckConsistency_FreshlyFormattedVolume_IsClean(t *testing.T) {
	vol := newMountedVolume(t)

	report, err := diag.CheckConsistency(vol)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ViolationsFound)
	assert.Equal(t, 1, report.InodesChecked) // root directory only
}

func TestCheckConsistency_PopulatedVolume_IsClean(t *testing.T) {
	vol := newMountedVolume(t)
	require.NoError(t, vol.CreateDirectory("/a"))
	require.NoError(t, vol.CreateFile("/a/note.txt"))

	fd, err := vol.OpenFile("/a/note.txt")
	require.NoError(t, err)
	require.NoError(t, vol.WriteFile(fd, []byte("some contents")))
	require.NoError(t, vol.CloseFile(fd))

	report, err := diag.CheckConsistency(vol)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ViolationsFound)
	assert.Equal(t, 3, report.InodesChecked) // root, /a, /a/note.txt
}

func TestWriteInodeReport_ProducesOneRowPerSlot(t *testing.T) {
	vol := newMountedVolume(t)
	require.NoError(t, vol.CreateFile("/x.txt"))

	var buf strings.Builder
	require.NoError(t, diag.WriteInodeReport(vol, &buf))

	rows, err := diag.ReadInodeReport(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Len(t, rows, vol.MaxInodes())

	assert.Equal(t, "directory", rows[0].Kind)
	assert.Equal(t, "file", rows[1].Kind)
}
