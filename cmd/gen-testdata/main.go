package main

import (
	"encoding/base64"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// Writes a set of media fixtures for manual testing of the range routes:
// a large sparse recording, a short clip, still images and an audio file.
func main() {
	outDir := flag.String("out", "media-tmp", "Output directory")
	size := flag.String("size", "10MB", "size of the large sparse recording")
	flag.Parse()

	bigSize, err := humanize.ParseBytes(*size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid size: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		panic(err)
	}

	must(createRecording(filepath.Join(*outDir, "big.mp4"), int64(bigSize)))
	must(createRecording(filepath.Join(*outDir, "short.mp4"), 500))
	must(createImages(*outDir))
	must(createAudio(filepath.Join(*outDir, "tone.mp3")))

	fmt.Printf("Test data generated in %s (big.mp4 is %s, sparse)\n", *outDir, humanize.Bytes(bigSize))
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// createRecording writes an mp4 "ftyp" box and extends the file to size
// without allocating the rest.
func createRecording(path string, size int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	box := make([]byte, 24)
	binary.BigEndian.PutUint32(box[0:4], 24)
	copy(box[4:8], "ftyp")
	copy(box[8:12], "isom")
	binary.BigEndian.PutUint32(box[12:16], 0x200)
	copy(box[16:20], "isom")
	copy(box[20:24], "mp41")
	if size < int64(len(box)) {
		box = box[:size]
	}
	if _, err := f.Write(box); err != nil {
		return err
	}
	return f.Truncate(size)
}

func createImages(root string) error {
	// PNG (Minimal 1x1 Red Pixel)
	png, _ := base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg==")
	if err := os.WriteFile(filepath.Join(root, "pixel.png"), png, 0644); err != nil {
		return err
	}

	// JPG
	jpg, _ := base64.StdEncoding.DecodeString("/9j/4AAQSkZJRgABAQEASABIAAD/2wBDAP//////////////////////////////////////////////////////////////////////////////////////wgALCAABAAEBAREA/8QAFBABAAAAAAAAAAAAAAAAAAAAAP/aAAgBAQABPxA=")
	return os.WriteFile(filepath.Join(root, "snapshot.jpg"), jpg, 0644)
}

// createAudio writes an empty ID3v2 tag followed by a silent MPEG frame header.
func createAudio(path string) error {
	data := []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 0, 0xff, 0xfb, 0x90, 0x64}
	data = append(data, make([]byte, 413)...)
	return os.WriteFile(path, data, 0644)
}
