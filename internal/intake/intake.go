// Package intake validates and reads ROM images before they reach the grid.
package intake

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"

	"romhex/internal/grid"
)

var (
	ErrNoFile    = errors.New("no file selected")
	ErrExtension = errors.New("unsupported file extension")
	ErrTooLarge  = errors.New("file too large")
)

type Options struct {
	Extensions []string
	MaxSize    int
}

func DefaultOptions() Options {
	return Options{
		Extensions: []string{".gb", ".gbc", ".hex"},
		MaxSize:    grid.MaxSize,
	}
}

type File struct {
	Path       string
	Data       []byte
	ExportName string
}

// Validate checks a file's name and size before it is read.
func Validate(name string, size int64, opts Options) error {
	if name == "" {
		return ErrNoFile
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !allowed(ext, opts.Extensions) {
		return fmt.Errorf("%w: %q", ErrExtension, ext)
	}
	if size == 0 {
		return grid.ErrEmptyInput
	}
	limit := int64(opts.MaxSize)
	if ext == ".hex" {
		// The decoded payload is checked again after decoding.
		limit = hexTextLimit(opts.MaxSize)
	}
	if size > limit {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, size, limit)
	}
	return nil
}

// hexTextLimit bounds the text size of an Intel HEX file whose payload fits
// in maxSize bytes: two characters per byte plus record framing.
func hexTextLimit(maxSize int) int64 {
	return int64(maxSize)*3 + 1024
}

func allowed(ext string, exts []string) bool {
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// Read validates and loads the file at path.
func Read(path string, opts Options) (*File, error) {
	if path == "" {
		return nil, ErrNoFile
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNoFile, path)
	}
	if err := Validate(path, info.Size(), opts); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	data := raw
	if strings.EqualFold(filepath.Ext(path), ".hex") {
		data, err = decodeIntelHex(raw, opts.MaxSize)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
		}
	}

	return &File{
		Path:       path,
		Data:       data,
		ExportName: ExportName(path),
	}, nil
}

// decodeIntelHex flattens the records into an image starting at address 0.
// Gaps are filled with 0xFF, the value of erased ROM.
func decodeIntelHex(raw []byte, maxSize int) ([]byte, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(bytes.NewReader(raw)); err != nil {
		return nil, err
	}

	var end uint32
	for _, seg := range mem.GetDataSegments() {
		if e := seg.Address + uint32(len(seg.Data)); e > end {
			end = e
		}
	}
	if end == 0 {
		return nil, grid.ErrEmptyInput
	}
	if end > uint32(maxSize) {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, end, maxSize)
	}
	return mem.ToBinary(0, end, 0xFF), nil
}

// ExportName derives the suggested export name from the loaded file:
// "tetris.gb" becomes "tetris-modified". Dots left in the base name are
// dropped.
func ExportName(path string) string {
	parts := strings.Split(filepath.Base(path), ".")
	if len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, "") + "-modified"
}
