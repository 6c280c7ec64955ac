// Command mkfs-simplefs formats a fresh simplefs image: the thin,
// one-shot driver of spec.md §6 and §8 scenario 1, writing the exact
// bytes mount expects to find. Grounded on original_source/mkfs-simplefs.c
// for the step-by-step diagnostic narration and on the teacher's
// examples/create-iso-from-folder/main.go for the check(err)/log.Fatal
// driver shape — see DESIGN.md.
package main

import (
	"fmt"
	"os"

	"github.com/psankar/simplefs/backend/file"
	"github.com/psankar/simplefs/blockdev"
	"github.com/psankar/simplefs/filesystem/simplefs"
	"github.com/sirupsen/logrus"
)

func check(err error) {
	if err == nil {
		return
	}
	logrus.Fatal(err)
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: mkfs-simplefs <device>")
		os.Exit(1)
	}
	devicePath := os.Args[1]
	logrus.SetOutput(os.Stdout)

	// The device or backing file must already exist and be large enough
	// to hold at least simplefs.MinImageBlocks blocks, matching the
	// original driver's plain open(O_RDWR) of a pre-sized target.
	storage, err := file.OpenFromPath(devicePath, false)
	check(err)
	defer storage.Close()

	info, err := storage.Stat()
	check(err)
	totalBlocks := uint64(info.Size()) / simplefs.BlockSize
	if totalBlocks < simplefs.MinImageBlocks {
		logrus.Fatalf("mkfs-simplefs: %s is too small: holds %d blocks, need at least %d", devicePath, totalBlocks, simplefs.MinImageBlocks)
	}

	dev := blockdev.New(storage)
	check(simplefs.Format(dev, totalBlocks, logrus.StandardLogger()))

	logrus.WithFields(logrus.Fields{
		"device": devicePath,
		"blocks": totalBlocks,
	}).Info("mkfs-simplefs: image formatted successfully")
}
