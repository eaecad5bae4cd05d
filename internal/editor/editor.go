package editor

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"romhex/internal/config"
	"romhex/internal/export"
	"romhex/internal/genie"
	"romhex/internal/grid"
	"romhex/internal/header"
	"romhex/internal/intake"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type View int

const (
	ViewMain View = iota
	ViewHelp
	ViewGoto
	ViewExport
	ViewGenie
	ViewOpen
	ViewConfirmQuit
)

const maxActivity = 200

// fileLoadedMsg carries the result of an asynchronous file read. seq
// identifies the request; only the latest one is applied.
type fileLoadedMsg struct {
	seq  uint64
	file *intake.File
	err  error
}

// rowsBuiltMsg signals that the row layout for a freshly loaded grid is
// complete and derived panels may read from it.
type rowsBuiltMsg struct {
	seq  uint64
	rows int
}

type rowLabel struct {
	label string
	id    string
}

type Model struct {
	grid      *grid.Grid
	file      *intake.File
	exported  []byte
	rows      []rowLabel
	header    *header.Header
	headerErr error

	cursor  int
	scrollY int
	editing bool
	draft   string

	view   View
	width  int
	height int
	config *config.Config
	// configPath receives the export format chosen in the export dialog.
	configPath string
	styles *config.Styles
	keys   KeyMap
	help   help.Model

	// File loads
	loadSeq uint64
	loading string
	pending string

	// Goto dialog state
	gotoInput string

	// Export dialog state
	exportInput  string
	exportFormat export.Format

	// Game Genie dialog state
	genieInput string

	// File browser state
	browserPath  string
	browserItems []os.DirEntry
	browserIndex int

	activity  []string
	statusMsg string
	statusErr bool
}

func NewModel(cfg *config.Config, files []string) (*Model, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if len(files) > 1 {
		return nil, fmt.Errorf("one ROM at a time, got %d files", len(files))
	}

	m := &Model{
		view:         ViewMain,
		config:       cfg,
		configPath:   config.ConfigPath(),
		styles:       config.NewStyles(&cfg.Theme),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		exportFormat: export.ParseFormat(cfg.Export.Format),
	}

	if len(files) == 0 {
		m.openBrowser()
	} else {
		m.pending = files[0]
	}

	return m, nil
}

func (m *Model) Init() tea.Cmd {
	if m.pending == "" {
		return nil
	}
	path := m.pending
	m.pending = ""
	return m.loadFile(path)
}

// loadFile starts reading path in the background. Starting a new load
// supersedes any load still in flight.
func (m *Model) loadFile(path string) tea.Cmd {
	m.loadSeq++
	seq := m.loadSeq
	m.loading = path
	opts := m.config.IntakeOptions()
	m.logf("loading %s", path)

	return func() tea.Msg {
		f, err := intake.Read(path, opts)
		return fileLoadedMsg{seq: seq, file: f, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ensureCursorVisible()
		return m, nil

	case fileLoadedMsg:
		return m.handleFileLoaded(msg)

	case rowsBuiltMsg:
		return m.handleRowsBuilt(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleFileLoaded(msg fileLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.loadSeq {
		log.Printf("discarding superseded load %d (latest %d)", msg.seq, m.loadSeq)
		return m, nil
	}
	m.loading = ""

	if msg.err != nil {
		m.setError(fmt.Sprintf("Cannot open file: %v", msg.err))
		m.logf("load failed: %v", msg.err)
		return m, nil
	}

	g, err := grid.Load(msg.file.Data)
	if err != nil {
		m.setError(fmt.Sprintf("Cannot open %s: %v", filepath.Base(msg.file.Path), err))
		m.logf("load failed: %v", err)
		return m, nil
	}

	if m.grid != nil && m.grid.Modified() {
		m.logf("discarded %d edited bytes of %s", m.grid.DirtyCount(), filepath.Base(m.file.Path))
	}

	m.grid = g
	m.file = msg.file
	m.exported = nil
	m.header = nil
	m.headerErr = nil
	m.cursor = 0
	m.scrollY = 0
	m.editing = false
	m.draft = ""
	m.exportInput = msg.file.ExportName
	m.view = ViewMain
	m.logf("loaded %s (%d bytes)", filepath.Base(msg.file.Path), g.Len())

	return m, m.buildRows(msg.seq)
}

// buildRows lays out the address column for the current grid and reports
// completion with a rowsBuiltMsg.
func (m *Model) buildRows(seq uint64) tea.Cmd {
	m.rows = make([]rowLabel, m.grid.RowCount())
	for i := range m.rows {
		label, id := grid.AddressLabel(i)
		m.rows[i] = rowLabel{label: label, id: id}
	}
	n := len(m.rows)
	return func() tea.Msg {
		return rowsBuiltMsg{seq: seq, rows: n}
	}
}

func (m *Model) handleRowsBuilt(msg rowsBuiltMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.loadSeq || m.grid == nil {
		return m, nil
	}

	if err := m.readHeader(); err != nil {
		m.logf("%d rows, no cartridge header: %v", msg.rows, err)
		return m, nil
	}
	m.logf("%d rows, title %q, %s", msg.rows, m.header.Title, m.header.CartTypeName())
	m.checkHeaderChecksum()
	return m, nil
}

// readHeader parses the cartridge header from the current grid contents.
func (m *Model) readHeader() error {
	h, err := header.Parse(m.grid.Serialize())
	if err != nil {
		m.header = nil
		m.headerErr = err
		return err
	}
	m.header = &h
	m.headerErr = nil
	return nil
}

func (m *Model) checkHeaderChecksum() {
	if m.header != nil && !m.header.HeaderChecksumOK() {
		m.logf("header checksum %02X does not match computed %02X", m.header.HeaderChecksum, m.header.ComputedChecksum())
	}
}

// byteChanged re-reads the header panel when a commit landed inside it.
func (m *Model) byteChanged(res grid.CommitResult) {
	if res.Value == res.Previous || res.Offset >= header.Size {
		return
	}
	if m.readHeader() == nil {
		m.checkHeaderChecksum()
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""
	m.statusErr = false

	switch m.view {
	case ViewHelp:
		return m.handleHelpKey(msg)
	case ViewGoto:
		return m.handleGotoKey(msg)
	case ViewExport:
		return m.handleExportKey(msg)
	case ViewGenie:
		return m.handleGenieKey(msg)
	case ViewOpen:
		return m.handleOpenKey(msg)
	case ViewConfirmQuit:
		return m.handleConfirmQuitKey(msg)
	default:
		if m.editing {
			return m.handleEditKey(msg)
		}
		return m.handleMainKey(msg)
	}
}

func (m *Model) handleMainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.tryQuit()
	case key.Matches(msg, m.keys.Help):
		m.view = ViewHelp
		return m, nil
	case key.Matches(msg, m.keys.Open):
		m.openBrowser()
		return m, nil
	}

	if m.grid == nil {
		return m, nil
	}

	switch {
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && isHexChar(string(msg.Runes)):
		m.startEdit(string(msg.Runes))
	case key.Matches(msg, m.keys.Edit):
		c, _ := m.grid.Cell(m.cursor)
		m.startEdit(grid.FormatByte(c.Value))
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-grid.BytesPerRow)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(grid.BytesPerRow)
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.visibleRows() * grid.BytesPerRow)
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.visibleRows() * grid.BytesPerRow)
	case key.Matches(msg, m.keys.RowStart):
		m.setCursor(m.cursor / grid.BytesPerRow * grid.BytesPerRow)
	case key.Matches(msg, m.keys.RowEnd):
		m.setCursor(m.cursor/grid.BytesPerRow*grid.BytesPerRow + grid.BytesPerRow - 1)
	case key.Matches(msg, m.keys.Top):
		m.setCursor(0)
	case key.Matches(msg, m.keys.Bottom):
		m.setCursor(m.grid.Len() - 1)
	case key.Matches(msg, m.keys.Goto):
		m.view = ViewGoto
		m.gotoInput = ""
	case key.Matches(msg, m.keys.Export):
		m.view = ViewExport
	case key.Matches(msg, m.keys.Genie):
		m.view = ViewGenie
		m.genieInput = ""
	}

	return m, nil
}

func (m *Model) startEdit(initial string) {
	if err := m.grid.BeginEdit(m.cursor); err != nil {
		m.setError(err.Error())
		return
	}
	m.editing = true
	m.draft = initial
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.grid.CancelEdit(m.cursor)
		m.editing = false
		m.draft = ""
	case key.Matches(msg, m.keys.Commit):
		m.commitEdit()
	case key.Matches(msg, m.keys.Up):
		m.commitEdit()
		m.moveCursor(-grid.BytesPerRow)
	case key.Matches(msg, m.keys.Down):
		m.commitEdit()
		m.moveCursor(grid.BytesPerRow)
	case key.Matches(msg, m.keys.Left):
		m.commitEdit()
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Right):
		m.commitEdit()
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Erase):
		if r := []rune(m.draft); len(r) > 0 {
			m.draft = string(r[:len(r)-1])
		}
	case msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace:
		m.draft += string(msg.Runes)
	}
	return m, nil
}

// commitEdit ends the edit session on the cursor cell.
func (m *Model) commitEdit() {
	if !m.editing {
		return
	}
	raw := m.draft
	m.editing = false
	m.draft = ""

	res, err := m.grid.Commit(m.cursor, raw)
	switch {
	case errors.Is(err, grid.ErrIncomplete):
		m.statusMsg = "Empty input, byte unchanged"
	case errors.Is(err, grid.ErrNonHex):
		m.setError(fmt.Sprintf("Invalid hex byte %q at %04X", raw, m.cursor))
		m.logf("rejected %q at %04X", raw, m.cursor)
	case err != nil:
		m.setError(err.Error())
	case res.Value != res.Previous:
		m.logf("%04X: %s -> %s", res.Offset, grid.FormatByte(res.Previous), res.Text())
		m.byteChanged(res)
	}
}

func (m *Model) moveCursor(delta int) {
	m.setCursor(m.cursor + delta)
}

func (m *Model) setCursor(pos int) {
	if m.grid == nil {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if last := m.grid.Len() - 1; pos > last {
		pos = last
	}
	m.cursor = pos
	m.ensureCursorVisible()
}

func (m *Model) ensureCursorVisible() {
	if m.grid == nil {
		return
	}
	visRows := m.visibleRows()
	cursorRow := m.cursor / grid.BytesPerRow

	if cursorRow < m.scrollY {
		m.scrollY = cursorRow
	} else if cursorRow >= m.scrollY+visRows {
		m.scrollY = cursorRow - visRows + 1
	}
}

func (m *Model) visibleRows() int {
	// Legend, file line, column header, header panel, log panel and status.
	rows := m.height - 8 - m.logRows()
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *Model) logRows() int {
	if m.config.LogRows < 0 {
		return 0
	}
	return m.config.LogRows
}

// unexported reports whether the grid holds edits that no export has
// written yet.
func (m *Model) unexported() bool {
	if m.grid == nil || !m.grid.Modified() {
		return false
	}
	return m.exported == nil || !bytes.Equal(m.exported, m.grid.Serialize())
}

func (m *Model) tryQuit() (tea.Model, tea.Cmd) {
	if m.unexported() {
		m.view = ViewConfirmQuit
		return m, nil
	}
	return m, tea.Quit
}

func (m *Model) handleHelpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel, m.keys.Help) {
		m.view = ViewMain
	}
	return m, nil
}

func (m *Model) handleGotoKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.view = ViewMain
	case tea.KeyEnter:
		m.doGoto()
		m.view = ViewMain
	case tea.KeyBackspace:
		if len(m.gotoInput) > 0 {
			m.gotoInput = m.gotoInput[:len(m.gotoInput)-1]
		}
	default:
		char := msg.String()
		if len(char) == 1 && (isHexChar(char) || char == "x" || char == "X" || char == "$") {
			m.gotoInput += char
		}
	}
	return m, nil
}

// doGoto scrolls so that the row above the requested address is at the top
// of the grid and puts the cursor on the address.
func (m *Model) doGoto() {
	if m.grid == nil || m.gotoInput == "" {
		return
	}

	addr, err := grid.ParseAddress(m.gotoInput)
	if err != nil || addr >= m.grid.Len() {
		m.setError(fmt.Sprintf("No such address: %s", m.gotoInput))
		return
	}

	rowKey, err := grid.NavigateToAddress(m.gotoInput)
	row := 0
	if err == nil {
		row, err = m.grid.RowForKey(rowKey)
	}
	if err != nil {
		// Addresses in the first row have no row above them.
		log.Printf("goto %s: %v", m.gotoInput, err)
		row = 0
	}

	m.cursor = addr
	m.scrollY = row
	m.ensureCursorVisible()
}

func (m *Model) handleExportKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.view = ViewMain
	case key.Matches(msg, m.keys.ToggleFormat):
		if m.exportFormat == export.FormatBinary {
			m.exportFormat = export.FormatIntelHex
		} else {
			m.exportFormat = export.FormatBinary
		}
	case msg.Type == tea.KeyEnter:
		if err := m.doExport(); err != nil {
			m.setError(fmt.Sprintf("Export failed: %v", err))
			m.logf("export failed: %v", err)
			return m, nil
		}
		m.view = ViewMain
	case msg.Type == tea.KeyBackspace:
		if r := []rune(m.exportInput); len(r) > 0 {
			m.exportInput = string(r[:len(r)-1])
		}
	case msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace:
		m.exportInput += string(msg.Runes)
	}
	return m, nil
}

// doExport writes the current grid next to the loaded file.
func (m *Model) doExport() error {
	if m.grid == nil {
		return errors.New("no ROM loaded")
	}
	name := export.FileName(m.exportInput, m.exportFormat, m.config.ExportOptions())
	path := filepath.Join(filepath.Dir(m.file.Path), name)
	data := m.grid.Serialize()

	if err := export.Write(path, data, m.exportFormat); err != nil {
		return err
	}
	m.exported = data
	m.rememberFormat()
	m.statusMsg = fmt.Sprintf("Exported %d bytes to %s", len(data), path)
	m.logf("exported %s (%s, %d edited)", name, m.exportFormat, m.grid.DirtyCount())
	return nil
}

// rememberFormat stores the last used export format in the config file.
func (m *Model) rememberFormat() {
	format := m.exportFormat.String()
	if format == m.config.Export.Format {
		return
	}
	m.config.Export.Format = format
	if m.configPath == "" {
		return
	}
	if err := m.config.SaveFile(m.configPath); err != nil {
		m.logf("cannot save config: %v", err)
	}
}

func (m *Model) handleGenieKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.view = ViewMain
	case tea.KeyEnter:
		m.doGenie()
	case tea.KeyBackspace:
		if len(m.genieInput) > 0 {
			m.genieInput = m.genieInput[:len(m.genieInput)-1]
		}
	default:
		char := msg.String()
		if len(char) == 1 && (isHexChar(char) || char == "-") {
			m.genieInput += char
		}
	}
	return m, nil
}

func (m *Model) doGenie() {
	if m.grid == nil {
		return
	}
	code, err := genie.Parse(m.genieInput)
	if err != nil {
		m.setError(err.Error())
		return
	}
	res, err := genie.Apply(m.grid, code)
	if err != nil {
		m.setError(err.Error())
		m.logf("code %s not applied: %v", code, err)
		return
	}

	m.view = ViewMain
	m.setCursor(res.Offset)
	m.statusMsg = fmt.Sprintf("Applied %s", code)
	m.logf("code %s: %04X %s -> %s", code, res.Offset, grid.FormatByte(res.Previous), res.Text())
	m.byteChanged(res)
}

func (m *Model) handleConfirmQuitKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return m, tea.Quit
	case "n", "N", "esc":
		m.view = ViewMain
	case "x", "X":
		m.view = ViewExport
	}
	return m, nil
}

func (m *Model) setError(msg string) {
	m.statusMsg = msg
	m.statusErr = true
}

// logf appends to the activity panel and the process log.
func (m *Model) logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	log.Print(line)
	m.activity = append(m.activity, line)
	if len(m.activity) > maxActivity {
		m.activity = m.activity[len(m.activity)-maxActivity:]
	}
}

func isHexChar(s string) bool {
	if len(s) != 1 {
		return false
	}
	c := s[0]
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
