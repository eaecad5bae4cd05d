package grid

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	BytesPerRow = 16
	MaxSize     = 32768
)

var (
	ErrEmptyInput        = errors.New("empty input")
	ErrNonHex            = errors.New("cell input is not a hex byte")
	ErrIncomplete        = errors.New("cell input is empty")
	ErrOutOfRangeAddress = errors.New("address out of range")
)

var cellPattern = regexp.MustCompile(`^[0-9A-Fa-f]{0,2}$`)

// Cell is one editable byte of the grid.
type Cell struct {
	Offset int
	Value  byte
	Dirty  bool
}

// Row is up to BytesPerRow contiguous cells. The last row of a grid whose
// length is not a multiple of BytesPerRow is short.
type Row struct {
	Index int
	Label string
	ID    string
	Cells []Cell
}

type CommitResult struct {
	Offset   int
	Value    byte
	Previous byte
	Dirty    bool
}

// Text is the committed two-character display text of the cell.
func (r CommitResult) Text() string {
	return FormatByte(r.Value)
}

type session struct {
	previous byte
}

// Grid holds one loaded ROM image. A Grid is replaced wholesale when a new
// file is loaded; it never merges with a previous one.
type Grid struct {
	original []byte
	cells    []Cell
	sessions map[int]session
}

func Load(data []byte) (*Grid, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	g := &Grid{
		original: make([]byte, len(data)),
		cells:    make([]Cell, len(data)),
		sessions: make(map[int]session),
	}
	copy(g.original, data)
	for i, b := range data {
		g.cells[i] = Cell{Offset: i, Value: b}
	}
	return g, nil
}

// FormatByte returns the two-character uppercase hex form of v.
func FormatByte(v byte) string {
	return fmt.Sprintf("%02X", v)
}

// ValidateDraft reports whether raw may stay in a cell while it is being
// edited. Empty and single-digit drafts are fine.
func ValidateDraft(raw string) error {
	if !cellPattern.MatchString(raw) {
		return fmt.Errorf("%w: %q", ErrNonHex, raw)
	}
	return nil
}

// ParseCellInput turns committed cell text into a byte. Input longer than two
// digits is rejected rather than clamped.
func ParseCellInput(raw string) (byte, error) {
	if err := ValidateDraft(raw); err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, ErrIncomplete
	}

	text := strings.ToUpper(raw)
	if len(text) < 2 {
		text = "0" + text
	}
	v, err := strconv.ParseUint(text, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNonHex, raw)
	}
	return byte(v), nil
}

func (g *Grid) Len() int {
	return len(g.cells)
}

func (g *Grid) RowCount() int {
	return (len(g.cells) + BytesPerRow - 1) / BytesPerRow
}

func (g *Grid) Cell(offset int) (Cell, bool) {
	if offset < 0 || offset >= len(g.cells) {
		return Cell{}, false
	}
	return g.cells[offset], true
}

// Original returns the load-time value at offset.
func (g *Grid) Original(offset int) (byte, bool) {
	if offset < 0 || offset >= len(g.original) {
		return 0, false
	}
	return g.original[offset], true
}

func (g *Grid) Row(index int) (Row, bool) {
	if index < 0 || index >= g.RowCount() {
		return Row{}, false
	}

	start := index * BytesPerRow
	end := start + BytesPerRow
	if end > len(g.cells) {
		end = len(g.cells)
	}
	label, id := AddressLabel(index)
	cells := make([]Cell, end-start)
	copy(cells, g.cells[start:end])
	return Row{Index: index, Label: label, ID: id, Cells: cells}, true
}

func (g *Grid) Rows() []Row {
	rows := make([]Row, 0, g.RowCount())
	for i := 0; i < g.RowCount(); i++ {
		row, _ := g.Row(i)
		rows = append(rows, row)
	}
	return rows
}

// BeginEdit opens an edit session on the cell. The previous value is
// captured only on the first call of a session.
func (g *Grid) BeginEdit(offset int) error {
	if offset < 0 || offset >= len(g.cells) {
		return fmt.Errorf("%w: offset %d", ErrOutOfRangeAddress, offset)
	}
	if _, ok := g.sessions[offset]; !ok {
		g.sessions[offset] = session{previous: g.cells[offset].Value}
	}
	return nil
}

func (g *Grid) Editing(offset int) bool {
	_, ok := g.sessions[offset]
	return ok
}

func (g *Grid) CancelEdit(offset int) {
	delete(g.sessions, offset)
}

// Commit ends the edit session on the cell with raw as its final text. A
// cell is dirty when the committed value differs from the value it had when
// the session began. Rejected input leaves the cell untouched.
func (g *Grid) Commit(offset int, raw string) (CommitResult, error) {
	if err := g.BeginEdit(offset); err != nil {
		return CommitResult{}, err
	}
	s := g.sessions[offset]
	delete(g.sessions, offset)

	v, err := ParseCellInput(raw)
	if err != nil {
		return CommitResult{}, err
	}

	c := &g.cells[offset]
	c.Value = v
	c.Dirty = v != s.previous

	return CommitResult{
		Offset:   offset,
		Value:    v,
		Previous: s.previous,
		Dirty:    c.Dirty,
	}, nil
}

// Set commits v to the cell as a single edit session.
func (g *Grid) Set(offset int, v byte) (CommitResult, error) {
	if err := g.BeginEdit(offset); err != nil {
		return CommitResult{}, err
	}
	return g.Commit(offset, FormatByte(v))
}

// Serialize returns the current cell values as a new buffer.
func (g *Grid) Serialize() []byte {
	out := make([]byte, len(g.cells))
	for i, c := range g.cells {
		out[i] = c.Value
	}
	return out
}

func (g *Grid) DirtyCount() int {
	n := 0
	for _, c := range g.cells {
		if c.Dirty {
			n++
		}
	}
	return n
}

// Modified reports whether any cell differs from the loaded image.
func (g *Grid) Modified() bool {
	for i, c := range g.cells {
		if c.Value != g.original[i] {
			return true
		}
	}
	return false
}

// AddressLabel returns the display label and the anchor id of a row. The
// label replaces the last digit of the id with an underscore.
func AddressLabel(row int) (label, id string) {
	id = fmt.Sprintf("%04X", row*BytesPerRow)
	return id[:len(id)-1] + "_", id
}

// ParseAddress parses a hex address, with an optional "0x" or "$" prefix.
func ParseAddress(s string) (int, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s = s[2:]
	case strings.HasPrefix(s, "$"):
		s = s[1:]
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrOutOfRangeAddress, s)
	}
	return int(v), nil
}

// NavigateToAddress returns the id of the row one line above the address,
// so that a scrolled-to address stays visible below the top edge.
func NavigateToAddress(addr string) (string, error) {
	v, err := ParseAddress(addr)
	if err != nil {
		return "", err
	}
	v -= BytesPerRow
	if v < 0 {
		return "", fmt.Errorf("%w: %s", ErrOutOfRangeAddress, addr)
	}
	key := fmt.Sprintf("%04X", v)
	return key[:len(key)-1] + "0", nil
}

// RowForKey resolves a row id such as "00F0" to its row index.
func (g *Grid) RowForKey(key string) (int, error) {
	v, err := strconv.ParseUint(key, 16, 32)
	if err != nil || v%BytesPerRow != 0 {
		return 0, fmt.Errorf("%w: %q", ErrOutOfRangeAddress, key)
	}
	row := int(v) / BytesPerRow
	if row >= g.RowCount() {
		return 0, fmt.Errorf("%w: %q", ErrOutOfRangeAddress, key)
	}
	return row, nil
}
