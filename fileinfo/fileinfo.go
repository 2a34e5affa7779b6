// Package fileinfo computes the size, line count and digests of files.
// All functions are pure apart from reading the file.
package fileinfo

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Measurement holds everything derived from a single read of a file.
type Measurement struct {
	Size       int64
	Lines      int
	Checksum   string // sha256, hex encoded
	FastHash   uint64 // xxhash for quick equality checks
	ModifiedAt time.Time
	Content    []byte
}

// SizeOf returns the size of the file in bytes.
func SizeOf(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// LineCount returns the number of lines in the file.
func LineCount(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return CountLines(data), nil
}

// Checksum returns the hex-encoded sha256 digest of the file.
func Checksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ChecksumBytes(data), nil
}

// Measure reads the file once and derives all values from that read.
func Measure(path string) (Measurement, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Measurement{}, err
	}
	if info.IsDir() {
		return Measurement{}, fmt.Errorf("%s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Measurement{}, err
	}
	return Measurement{
		Size:       int64(len(data)),
		Lines:      CountLines(data),
		Checksum:   ChecksumBytes(data),
		FastHash:   xxhash.Sum64(data),
		ModifiedAt: info.ModTime(),
		Content:    data,
	}, nil
}

// CountLines counts lines the way a line reader does: a trailing newline does
// not start a new line, and empty content has zero lines.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// ChecksumBytes returns the hex-encoded sha256 digest of data.
func ChecksumBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FastHash returns the xxhash of data.
func FastHash(data []byte) uint64 {
	return xxhash.Sum64(data)
}
