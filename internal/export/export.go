// Package export writes edited ROM images back to disk.
package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"
)

type Format int

const (
	FormatBinary Format = iota
	FormatIntelHex
)

func (f Format) String() string {
	switch f {
	case FormatIntelHex:
		return "ihex"
	default:
		return "bin"
	}
}

// ParseFormat maps a config value to a Format. Unknown values fall back to
// FormatBinary.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ihex", "hex", "intelhex":
		return FormatIntelHex
	default:
		return FormatBinary
	}
}

type Options struct {
	Extension    string
	HexExtension string
	FallbackName string
}

func DefaultOptions() Options {
	return Options{
		Extension:    ".gb",
		HexExtension: ".hex",
		FallbackName: "modified_ROM.gb",
	}
}

// FileName builds the download name from the user's text. Blank text yields
// the fallback name.
func FileName(userText string, format Format, opts Options) string {
	name := strings.TrimSpace(userText)
	if name == "" {
		if format == FormatIntelHex {
			return strings.TrimSuffix(opts.FallbackName, filepath.Ext(opts.FallbackName)) + opts.HexExtension
		}
		return opts.FallbackName
	}
	if format == FormatIntelHex {
		return name + opts.HexExtension
	}
	return name + opts.Extension
}

// Write stores data at path in the given format.
func Write(path string, data []byte, format Format) error {
	if format == FormatBinary {
		return os.WriteFile(path, data, 0644)
	}

	mem := gohex.NewMemory()
	if err := mem.AddBinary(0, data); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	mem.DumpIntelHex(w, 16)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write intel hex: %w", err)
	}
	return f.Close()
}
