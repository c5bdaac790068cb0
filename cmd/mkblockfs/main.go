// Command mkblockfs formats and inspects block filesystem image files.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kfoss/blockfs/config"
	"github.com/kfoss/blockfs/device"
	"github.com/kfoss/blockfs/diag"
	"github.com/kfoss/blockfs/layout"
	"github.com/kfoss/blockfs/volume"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Usage: "Format and inspect block filesystem image files",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create and format a new image file",
				Action:    formatImage,
				ArgsUsage: "IMAGE_FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "preset", Value: "small", Usage: "named geometry preset"},
					&cli.StringFlag{Name: "geometry-file", Usage: "YAML geometry file, overrides --preset"},
				},
			},
			{
				Name:      "fsck",
				Usage:     "Check an existing image for consistency",
				Action:    checkImage,
				ArgsUsage: "IMAGE_FILE",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "max-inodes", Required: true, Usage: "inode count the image was formatted with"},
				},
			},
			{
				Name:      "report",
				Usage:     "Print the inode table of an image as CSV",
				Action:    reportImage,
				ArgsUsage: "IMAGE_FILE",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "max-inodes", Required: true, Usage: "inode count the image was formatted with"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "mkblockfs: %s\n", err)
		os.Exit(1)
	}
}

func loadGeometry(context *cli.Context) (config.Geometry, error) {
	if path := context.String("geometry-file"); path != "" {
		return config.LoadFile(path)
	}
	return config.Preset(context.String("preset"))
}

func formatImage(context *cli.Context) error {
	if context.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument: IMAGE_FILE")
	}
	geometry, err := loadGeometry(context)
	if err != nil {
		return err
	}

	dev, err := device.Open(context.Args().First(), geometry.TotalBlocks, geometry.BlockSize)
	if err != nil {
		return err
	}

	vol := volume.New(dev, geometry.MaxInodes)
	if err := vol.Initialize(); err != nil {
		vol.Close()
		return err
	}
	return vol.Close()
}

// peekGeometry reads just enough of an image's superblock to know how to
// reopen it as a properly sized Device -- mounting needs the real block
// size and block count up front, not the host file's raw byte length.
func peekGeometry(path string) (totalBlocks, blockSize int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	header := make([]byte, layout.SuperblockSize)
	if _, err := io.ReadFull(file, header); err != nil {
		return 0, 0, err
	}

	sb, err := layout.UnmarshalBlock(header)
	if err != nil {
		return 0, 0, err
	}
	if !sb.IsValid() {
		return 0, 0, fmt.Errorf("not a block filesystem image")
	}
	return int(sb.TotalBlocks), int(sb.BlockSize), nil
}

func openExistingVolume(context *cli.Context) (*volume.Volume, error) {
	if context.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one argument: IMAGE_FILE")
	}
	maxInodes := context.Int("max-inodes")
	path := context.Args().First()

	totalBlocks, blockSize, err := peekGeometry(path)
	if err != nil {
		return nil, err
	}

	dev, err := device.Open(path, totalBlocks, blockSize)
	if err != nil {
		return nil, err
	}

	vol := volume.New(dev, maxInodes)
	if err := vol.Mount(); err != nil {
		dev.Close()
		return nil, err
	}
	return vol, nil
}

func checkImage(context *cli.Context) error {
	vol, err := openExistingVolume(context)
	if err != nil {
		return err
	}
	defer vol.Close()

	report, err := diag.CheckConsistency(vol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "found %d consistency violation(s):\n%s\n", report.ViolationsFound, err)
		os.Exit(2)
	}
	fmt.Printf("clean: %d inodes checked, %d blocks referenced\n", report.InodesChecked, report.BlocksReferenced)
	return nil
}

func reportImage(context *cli.Context) error {
	vol, err := openExistingVolume(context)
	if err != nil {
		return err
	}
	defer vol.Close()

	return diag.WriteInodeReport(vol, os.Stdout)
}
