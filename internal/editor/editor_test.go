package editor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"romhex/internal/config"
	"romhex/internal/export"
	"romhex/internal/genie"
	"romhex/internal/grid"
	"romhex/internal/header"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(runes(string(r)))
	}
}

func writeROM(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// drain runs cmd and feeds its message back into the model until no command
// is left.
func drain(m *Model, cmd tea.Cmd) {
	for cmd != nil {
		_, cmd = m.Update(cmd())
	}
}

func newLoadedModel(t *testing.T, data []byte) *Model {
	t.Helper()
	path := writeROM(t, "test.gb", data)

	m, err := NewModel(config.DefaultConfig(), []string{path})
	if err != nil {
		t.Fatal(err)
	}
	m.configPath = filepath.Join(t.TempDir(), "romhex.toml")
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	drain(m, m.Init())

	if m.grid == nil {
		t.Fatalf("grid not loaded: %s", m.statusMsg)
	}
	return m
}

func seq(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

func TestNewModelRejectsSeveralFiles(t *testing.T) {
	if _, err := NewModel(nil, []string{"a.gb", "b.gb"}); err == nil {
		t.Error("expected an error for two files")
	}
}

func TestHexDigitStartsEdit(t *testing.T) {
	m := newLoadedModel(t, seq(32))

	m.Update(runes("a"))
	if !m.editing || m.draft != "a" {
		t.Fatalf("expected edit session with draft %q, got %v %q", "a", m.editing, m.draft)
	}
	if !m.grid.Editing(0) {
		t.Error("expected grid edit session on offset 0")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	c, _ := m.grid.Cell(0)
	if c.Value != 0x0A || !c.Dirty {
		t.Errorf("expected dirty 0x0A, got %+v", c)
	}
	if m.editing {
		t.Error("edit session still open after commit")
	}
}

func TestEnterEditsCurrentText(t *testing.T) {
	m := newLoadedModel(t, seq(32))
	m.setCursor(5)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.draft != "05" {
		t.Fatalf("expected draft %q, got %q", "05", m.draft)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})

	c, _ := m.grid.Cell(5)
	if c.Value != 0x05 || c.Dirty {
		t.Errorf("expected clean 0x05, got %+v", c)
	}
}

func TestArrowCommitsEdit(t *testing.T) {
	m := newLoadedModel(t, seq(32))

	typeText(m, "ff")
	m.Update(tea.KeyMsg{Type: tea.KeyRight})

	if c, _ := m.grid.Cell(0); c.Value != 0xFF {
		t.Errorf("expected 0xFF, got %02X", c.Value)
	}
	if m.cursor != 1 {
		t.Errorf("expected cursor 1, got %d", m.cursor)
	}
}

func TestNonHexRejected(t *testing.T) {
	m := newLoadedModel(t, seq(32))
	m.setCursor(3)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	typeText(m, "G1")
	if m.draft != "G1" {
		t.Fatalf("expected draft G1, got %q", m.draft)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	c, _ := m.grid.Cell(3)
	if c.Value != 0x03 || c.Dirty {
		t.Errorf("rejected input changed the cell: %+v", c)
	}
	if !m.statusErr || !strings.Contains(m.statusMsg, "G1") {
		t.Errorf("expected an error status, got %q", m.statusMsg)
	}
}

func TestEscCancelsEdit(t *testing.T) {
	m := newLoadedModel(t, seq(32))

	typeText(m, "7")
	m.Update(tea.KeyMsg{Type: tea.KeyEscape})

	if m.editing || m.grid.Editing(0) {
		t.Error("expected edit session to be cancelled")
	}
	if c, _ := m.grid.Cell(0); c.Value != 0x00 {
		t.Errorf("cancel changed the cell: %02X", c.Value)
	}
}

func TestCursorClamped(t *testing.T) {
	m := newLoadedModel(t, seq(17))

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlEnd})
	if m.cursor != 16 {
		t.Errorf("expected cursor 16, got %d", m.cursor)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 16 {
		t.Errorf("expected cursor to stay at 16, got %d", m.cursor)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlHome})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("expected cursor 0, got %d", m.cursor)
	}
}

func TestSupersededLoadIgnored(t *testing.T) {
	m := newLoadedModel(t, seq(16))
	first := writeROM(t, "first.gb", []byte{0x11, 0x11})
	second := writeROM(t, "second.gb", []byte{0x22, 0x22, 0x22})

	stale := m.loadFile(first)
	latest := m.loadFile(second)

	drain(m, latest)
	drain(m, stale)

	if m.grid.Len() != 3 {
		t.Fatalf("expected the latest load to win, got %d bytes", m.grid.Len())
	}
	if filepath.Base(m.file.Path) != "second.gb" {
		t.Errorf("unexpected file %s", m.file.Path)
	}
}

func TestReloadReplacesGrid(t *testing.T) {
	m := newLoadedModel(t, seq(32))
	typeText(m, "aa")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	// Leave a second edit open across the reload.
	typeText(m, "b")

	drain(m, m.loadFile(writeROM(t, "other.gb", seq(20))))

	if m.grid.Modified() || m.grid.DirtyCount() != 0 {
		t.Error("edits carried over into the new grid")
	}
	if m.editing || m.draft != "" || m.grid.Editing(0) {
		t.Error("edit session carried over into the new grid")
	}
	if c, _ := m.grid.Cell(0); c.Value != 0x00 {
		t.Errorf("expected the new file's byte at 0000, got %02X", c.Value)
	}
	if m.cursor != 0 || m.exportInput != "other-modified" {
		t.Errorf("unexpected state after reload: cursor %d, export %q", m.cursor, m.exportInput)
	}
}

func TestLoadFailureReported(t *testing.T) {
	m := newLoadedModel(t, seq(16))
	drain(m, m.loadFile(writeROM(t, "big.gb", make([]byte, grid.MaxSize+1))))

	if !m.statusErr {
		t.Error("expected an error status")
	}
	if m.grid.Len() != 16 {
		t.Error("failed load replaced the grid")
	}
}

func TestHeaderReadAfterRowsBuilt(t *testing.T) {
	data := make([]byte, 0x8000)
	copy(data[0x134:], "TETRIS")
	path := writeROM(t, "tetris.gb", data)

	m, err := NewModel(config.DefaultConfig(), []string{path})
	if err != nil {
		t.Fatal(err)
	}
	_, cmd := m.Update(m.Init()())
	if m.header != nil {
		t.Fatal("header read before rows were built")
	}
	msg, ok := cmd().(rowsBuiltMsg)
	if !ok || msg.rows != 0x800 {
		t.Fatalf("expected rowsBuiltMsg with 2048 rows, got %+v", msg)
	}
	m.Update(msg)

	if m.header == nil || m.header.Title != "TETRIS" {
		t.Fatalf("expected header with title TETRIS, got %+v", m.header)
	}
}

// cartridge returns a 32 KiB image with title and a valid header checksum.
func cartridge(t *testing.T, title string) []byte {
	t.Helper()
	data := make([]byte, 0x8000)
	copy(data[0x134:], title)
	h, err := header.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	data[0x14D] = h.ComputedChecksum()
	return data
}

func TestHeaderRefreshedAfterCommit(t *testing.T) {
	m := newLoadedModel(t, cartridge(t, "TETRIS"))
	if m.header == nil || !m.header.HeaderChecksumOK() {
		t.Fatalf("expected a valid header, got %+v", m.header)
	}

	m.setCursor(0x134)
	typeText(m, "58")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.header.Title != "XETRIS" {
		t.Errorf("expected title XETRIS, got %q", m.header.Title)
	}
	if m.header.HeaderChecksumOK() {
		t.Error("expected a header checksum mismatch after editing the title")
	}
}

func TestHeaderRefreshedAfterGenie(t *testing.T) {
	m := newLoadedModel(t, cartridge(t, "TETRIS"))
	code := genie.Code{Value: 'A', Address: 0x135}

	m.Update(runes("p"))
	typeText(m, code.String())
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.header.Title != "TATRIS" {
		t.Errorf("expected title TATRIS, got %q", m.header.Title)
	}
}

func TestHeaderMissingOnSmallImage(t *testing.T) {
	m := newLoadedModel(t, seq(32))
	if m.header != nil || m.headerErr == nil {
		t.Error("expected a header error for a 32 byte image")
	}
}

func TestGoto(t *testing.T) {
	m := newLoadedModel(t, make([]byte, 0x800))

	m.Update(runes("g"))
	if m.view != ViewGoto {
		t.Fatal("expected goto view")
	}
	typeText(m, "0100")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.cursor != 0x100 {
		t.Errorf("expected cursor 0x100, got %X", m.cursor)
	}
	if m.scrollY != 0x0F {
		t.Errorf("expected row 0x0F at the top, got %X", m.scrollY)
	}
}

func TestGotoMissingAddress(t *testing.T) {
	m := newLoadedModel(t, seq(32))

	m.Update(runes("g"))
	typeText(m, "0100")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if !m.statusErr || m.cursor != 0 {
		t.Errorf("expected an error and unchanged cursor, got %q, %d", m.statusMsg, m.cursor)
	}
}

func TestGotoFirstRow(t *testing.T) {
	m := newLoadedModel(t, seq(32))

	m.Update(runes("g"))
	typeText(m, "5")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.cursor != 5 || m.scrollY != 0 || m.statusErr {
		t.Errorf("unexpected goto result: cursor %d, scroll %d, %q", m.cursor, m.scrollY, m.statusMsg)
	}
}

func TestExport(t *testing.T) {
	m := newLoadedModel(t, seq(17))
	m.setCursor(16)
	typeText(m, "ee")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m.Update(runes("x"))
	if m.view != ViewExport || m.exportInput != "test-modified" {
		t.Fatalf("unexpected export state: %v %q", m.view, m.exportInput)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.statusErr {
		t.Fatalf("export failed: %s", m.statusMsg)
	}

	out, err := os.ReadFile(filepath.Join(filepath.Dir(m.file.Path), "test-modified.gb"))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 17 || out[16] != 0xEE || out[15] != 0x0F {
		t.Errorf("unexpected export: % X", out)
	}
}

func TestExportRemembersFormat(t *testing.T) {
	m := newLoadedModel(t, seq(4))
	m.Update(runes("x"))
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.statusErr {
		t.Fatalf("export failed: %s", m.statusMsg)
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(m.file.Path), "test-modified.hex")); err != nil {
		t.Errorf("expected Intel HEX export: %v", err)
	}
	cfg, err := config.LoadFile(m.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Export.Format != export.FormatIntelHex.String() {
		t.Errorf("expected saved format ihex, got %q", cfg.Export.Format)
	}
}

func TestExportFallbackName(t *testing.T) {
	m := newLoadedModel(t, seq(4))
	m.Update(runes("x"))
	for range "test-modified" {
		m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if _, err := os.Stat(filepath.Join(filepath.Dir(m.file.Path), "modified_ROM.gb")); err != nil {
		t.Errorf("expected fallback file: %v", err)
	}
}

func TestGeniePatch(t *testing.T) {
	m := newLoadedModel(t, make([]byte, 0x200))

	m.Update(runes("p"))
	typeText(m, "3E1-50F")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.view != ViewMain {
		t.Fatalf("expected main view, status %q", m.statusMsg)
	}
	if c, _ := m.grid.Cell(0x150); c.Value != 0x3E || !c.Dirty {
		t.Errorf("expected dirty 0x3E at 0150, got %+v", c)
	}
	if m.cursor != 0x150 {
		t.Errorf("expected cursor at 0150, got %X", m.cursor)
	}
}

func TestGenieOutOfRange(t *testing.T) {
	m := newLoadedModel(t, make([]byte, 0x100))

	m.Update(runes("p"))
	typeText(m, "3E1-50F")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.view != ViewGenie || !m.statusErr {
		t.Errorf("expected to stay in the genie view with an error, got %v %q", m.view, m.statusMsg)
	}
}

func TestQuit(t *testing.T) {
	m := newLoadedModel(t, seq(16))

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestQuitConfirmWhenModified(t *testing.T) {
	m := newLoadedModel(t, seq(16))
	typeText(m, "1")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	_, cmd := m.Update(runes("q"))
	if cmd != nil || m.view != ViewConfirmQuit {
		t.Fatal("expected quit confirmation")
	}
	m.Update(runes("n"))
	if m.view != ViewMain {
		t.Error("expected main view after declining")
	}
}

func TestQuitAfterExport(t *testing.T) {
	m := newLoadedModel(t, seq(32))
	typeText(m, "ff")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m.Update(runes("x"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.statusErr {
		t.Fatalf("export failed: %s", m.statusMsg)
	}

	_, cmd := m.Update(runes("q"))
	if cmd == nil || m.view == ViewConfirmQuit {
		t.Fatal("expected quit without confirmation after export")
	}

	// A later edit needs confirming again.
	m.view = ViewMain
	m.setCursor(1)
	typeText(m, "ee")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if _, cmd := m.Update(runes("q")); cmd != nil || m.view != ViewConfirmQuit {
		t.Error("expected quit confirmation for edits after the export")
	}
}

func TestViewShowsOriginalValue(t *testing.T) {
	m := newLoadedModel(t, seq(16))
	m.setCursor(3)
	typeText(m, "aa")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if out := m.View(); !strings.Contains(out, "(was 03)") {
		t.Errorf("view missing original value:\n%s", out)
	}
	m.setCursor(4)
	if out := m.View(); strings.Contains(out, "(was ") {
		t.Errorf("unchanged byte shows an original value:\n%s", out)
	}
}

func TestViewShortLastRow(t *testing.T) {
	m := newLoadedModel(t, seq(17))
	out := m.View()

	for _, want := range []string{"000_", "001_", "0F", "10", "test.gb"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "002_") {
		t.Error("view rendered a row past the end")
	}
}

func TestHelpView(t *testing.T) {
	m := newLoadedModel(t, seq(16))
	m.Update(runes("h"))
	if m.view != ViewHelp {
		t.Fatal("expected help view")
	}
	if out := m.View(); !strings.Contains(out, "go to address") {
		t.Errorf("help missing bindings:\n%s", out)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if m.view != ViewMain {
		t.Error("expected main view")
	}
}

func TestBrowserOpensROM(t *testing.T) {
	path := writeROM(t, "pick.gb", seq(8))
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewModel(config.DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	m.browserPath = filepath.Dir(path)
	m.loadBrowserItems()

	var names []string
	for _, item := range m.browserItems {
		names = append(names, item.Name())
	}
	if strings.Contains(strings.Join(names, ","), "notes.txt") {
		t.Errorf("browser lists unsupported files: %v", names)
	}

	for i, item := range m.browserItems {
		if item.Name() == "pick.gb" {
			m.browserIndex = i
		}
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(m, cmd)

	if m.grid == nil || m.grid.Len() != 8 {
		t.Fatal("expected pick.gb to be loaded")
	}
}
