package main

import (
	"crypto/md5"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/RaaVoo/Ravo/internal/media"
)

// Hashes exactly the bytes the media server would send for a Range header,
// to compare against what a client received.
func main() {
	rangeHeader := flag.String("range", "", `Range header value, e.g. "bytes=2000000-"`)
	window := flag.String("window", "1MiB", "chunk window applied to open-ended ranges (0 = none)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: md5-util [-range bytes=A-B] [-window 1MiB] <file>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	w, err := humanize.ParseBytes(*window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid window: %v\n", err)
		os.Exit(1)
	}

	file, err := media.Probe(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	br, ok, err := media.ParseRange(*rangeHeader, file.Size, media.Window(w))
	if err != nil {
		fmt.Fprintf(os.Stderr, "416 %s: %v\n", media.UnsatisfiedRange(file.Size), err)
		os.Exit(1)
	}
	if !ok {
		br = media.ByteRange{Start: 0, End: file.Size - 1}
	}

	f, err := os.Open(file.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	h := md5.New()
	n, err := io.Copy(h, io.NewSectionReader(f, br.Start, br.Length()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing file: %v\n", err)
		os.Exit(1)
	}

	if ok {
		fmt.Printf("%x  %s (%d bytes)\n", h.Sum(nil), br.ContentRange(file.Size), n)
		return
	}
	fmt.Printf("%x  %d bytes\n", h.Sum(nil), n)
}
