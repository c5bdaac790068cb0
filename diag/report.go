package diag

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/kfoss/blockfs/volume"
)

// InodeRow is one CSV row of an inode table export. Field names double as
// the CSV header via gocsv's struct tags.
type InodeRow struct {
	Index      int    `csv:"index"`
	Kind       string `csv:"kind"`
	IndexBlock int32  `csv:"index_block"`
	Size       int32  `csv:"size"`
}

// WriteInodeReport writes every inode in the volume's table as a CSV row
// to w, one row per slot including Unused ones.
func WriteInodeReport(vol *volume.Volume, w io.Writer) error {
	inodes := vol.InodeTable()
	rows := make([]*InodeRow, len(inodes))
	for i, in := range inodes {
		rows[i] = &InodeRow{
			Index:      i,
			Kind:       in.Kind.String(),
			IndexBlock: in.IndexBlock,
			Size:       in.Size,
		}
	}
	return gocsv.Marshal(rows, w)
}

// ReadInodeReport parses a CSV inode report previously produced by
// WriteInodeReport, e.g. for comparing two snapshots of the same image.
func ReadInodeReport(r io.Reader) ([]InodeRow, error) {
	var rows []InodeRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
