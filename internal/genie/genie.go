// Package genie decodes Game Boy Game Genie codes and applies them to a
// loaded grid.
//
// A code has the form VVA-AAA[-CHC]: VV is the new value, the address is
// built from the digits in the order 6,3,4,5 with digit 6 inverted, and the
// optional third group carries the compare value XORed with 0xBA and rotated
// left by two. H is not used by the decoder.
package genie

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"romhex/internal/grid"
)

// ROMEnd is the first address past the fixed ROM area a code may patch.
const ROMEnd = 0x8000

var (
	ErrFormat          = errors.New("malformed Game Genie code")
	ErrAddressRange    = errors.New("code address outside the ROM")
	ErrCompareMismatch = errors.New("compare value does not match")
)

type Code struct {
	Value      byte
	Address    uint16
	Compare    byte
	HasCompare bool

	h byte
}

// Parse decodes a six or nine digit code. Dashes and spaces are ignored.
func Parse(s string) (Code, error) {
	clean := strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(s))
	if len(clean) != 6 && len(clean) != 9 {
		return Code{}, fmt.Errorf("%w: %q", ErrFormat, s)
	}

	d := make([]byte, len(clean))
	for i := 0; i < len(clean); i++ {
		n, err := strconv.ParseUint(clean[i:i+1], 16, 8)
		if err != nil {
			return Code{}, fmt.Errorf("%w: %q", ErrFormat, s)
		}
		d[i] = byte(n)
	}

	c := Code{
		Value:   d[0]<<4 | d[1],
		Address: uint16(d[5]^0xF)<<12 | uint16(d[2])<<8 | uint16(d[3])<<4 | uint16(d[4]),
	}
	if len(d) == 9 {
		enc := d[6]<<4 | d[8]
		c.Compare = bits.RotateLeft8(enc, -2) ^ 0xBA
		c.HasCompare = true
		c.h = d[7]
	}
	return c, nil
}

// String encodes the code back into its dashed form.
func (c Code) String() string {
	d := []byte{
		c.Value >> 4,
		c.Value & 0xF,
		byte(c.Address>>8) & 0xF,
		byte(c.Address>>4) & 0xF,
		byte(c.Address) & 0xF,
		byte(c.Address>>12) ^ 0xF,
	}
	if c.HasCompare {
		enc := bits.RotateLeft8(c.Compare^0xBA, 2)
		d = append(d, enc>>4, c.h&0xF, enc&0xF)
	}

	var b strings.Builder
	for i, n := range d {
		if i > 0 && i%3 == 0 {
			b.WriteByte('-')
		}
		b.WriteString(strings.ToUpper(strconv.FormatUint(uint64(n), 16)))
	}
	return b.String()
}

// Apply writes the code's value into g as one committed edit.
func Apply(g *grid.Grid, c Code) (grid.CommitResult, error) {
	addr := int(c.Address)
	if addr >= ROMEnd || addr >= g.Len() {
		return grid.CommitResult{}, fmt.Errorf("%w: %04X", ErrAddressRange, addr)
	}
	if c.HasCompare {
		cur, _ := g.Cell(addr)
		if cur.Value != c.Compare {
			return grid.CommitResult{}, fmt.Errorf("%w: %04X holds %s, code expects %s",
				ErrCompareMismatch, addr, grid.FormatByte(cur.Value), grid.FormatByte(c.Compare))
		}
	}
	return g.Set(addr, c.Value)
}
