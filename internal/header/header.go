// Package header reads the Game Boy cartridge header at 0x0100-0x014F.
package header

import (
	"errors"
	"fmt"
	"strings"
)

const (
	titleStart     = 0x134
	titleEnd       = 0x144
	cgbFlag        = 0x143
	sgbFlag        = 0x146
	cartType       = 0x147
	romSize        = 0x148
	ramSize        = 0x149
	destination    = 0x14A
	oldLicensee    = 0x14B
	version        = 0x14C
	headerChecksum = 0x14D
	globalChecksum = 0x14E

	// Size is the number of bytes an image needs to carry a full header.
	Size = 0x150
)

var ErrTooShort = errors.New("image too short for a cartridge header")

type Header struct {
	Title          string
	CGB            byte
	SGB            byte
	CartType       byte
	ROMSize        byte
	RAMSize        byte
	Destination    byte
	OldLicensee    byte
	Version        byte
	HeaderChecksum byte
	GlobalChecksum uint16

	computed byte
}

var cartTypes = map[byte]string{
	0x00: "ROM ONLY",
	0x01: "MBC1",
	0x02: "MBC1+RAM",
	0x03: "MBC1+RAM+BATTERY",
	0x05: "MBC2",
	0x06: "MBC2+BATTERY",
	0x08: "ROM+RAM",
	0x09: "ROM+RAM+BATTERY",
	0x0B: "MMM01",
	0x0C: "MMM01+RAM",
	0x0D: "MMM01+RAM+BATTERY",
	0x0F: "MBC3+TIMER+BATTERY",
	0x10: "MBC3+TIMER+RAM+BATTERY",
	0x11: "MBC3",
	0x12: "MBC3+RAM",
	0x13: "MBC3+RAM+BATTERY",
	0x19: "MBC5",
	0x1A: "MBC5+RAM",
	0x1B: "MBC5+RAM+BATTERY",
	0x1C: "MBC5+RUMBLE",
	0x1D: "MBC5+RUMBLE+RAM",
	0x1E: "MBC5+RUMBLE+RAM+BATTERY",
	0x20: "MBC6",
	0x22: "MBC7+SENSOR+RUMBLE+RAM+BATTERY",
	0xFC: "POCKET CAMERA",
	0xFD: "BANDAI TAMA5",
	0xFE: "HuC3",
	0xFF: "HuC1+RAM+BATTERY",
}

var ramSizes = map[byte]int{
	0x00: 0,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// Parse decodes the header of a ROM image.
func Parse(data []byte) (Header, error) {
	if len(data) < Size {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrTooShort, len(data))
	}

	h := Header{
		CGB:            data[cgbFlag],
		SGB:            data[sgbFlag],
		CartType:       data[cartType],
		ROMSize:        data[romSize],
		RAMSize:        data[ramSize],
		Destination:    data[destination],
		OldLicensee:    data[oldLicensee],
		Version:        data[version],
		HeaderChecksum: data[headerChecksum],
		GlobalChecksum: uint16(data[globalChecksum])<<8 | uint16(data[globalChecksum+1]),
	}

	// CGB titles lose their last byte to the CGB flag.
	end := titleEnd
	if h.CGB&0x80 != 0 {
		end = cgbFlag
	}
	h.Title = cleanTitle(data[titleStart:end])

	var x byte
	for _, b := range data[titleStart:headerChecksum] {
		x = x - b - 1
	}
	h.computed = x

	return h, nil
}

func cleanTitle(raw []byte) string {
	var b strings.Builder
	for _, c := range raw {
		if c == 0 {
			break
		}
		if c < 0x20 || c > 0x7E {
			b.WriteByte('.')
			continue
		}
		b.WriteByte(c)
	}
	return strings.TrimSpace(b.String())
}

func (h Header) CartTypeName() string {
	if name, ok := cartTypes[h.CartType]; ok {
		return name
	}
	return fmt.Sprintf("unknown (%02X)", h.CartType)
}

// ROMBytes is the ROM size declared by the header, or -1 when the code is
// not a known size.
func (h Header) ROMBytes() int {
	if h.ROMSize > 0x08 {
		return -1
	}
	return 32 * 1024 << h.ROMSize
}

func (h Header) RAMBytes() int {
	if n, ok := ramSizes[h.RAMSize]; ok {
		return n
	}
	return -1
}

func (h Header) Japanese() bool {
	return h.Destination == 0x00
}

// HeaderChecksumOK verifies the stored header checksum against bytes
// 0x0134-0x014C. The checksum is never rewritten.
func (h Header) HeaderChecksumOK() bool {
	return h.computed == h.HeaderChecksum
}

func (h Header) ComputedChecksum() byte {
	return h.computed
}
