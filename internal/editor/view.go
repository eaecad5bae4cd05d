package editor

import (
	"fmt"
	"path/filepath"
	"strings"

	"romhex/internal/export"
	"romhex/internal/grid"
	"romhex/internal/header"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.renderLegend())
	b.WriteString("\n")

	switch m.view {
	case ViewHelp:
		b.WriteString(m.renderHelp())
	case ViewGoto:
		b.WriteString(m.renderGoto())
	case ViewExport:
		b.WriteString(m.renderExport())
	case ViewGenie:
		b.WriteString(m.renderGenie())
	case ViewOpen:
		b.WriteString(m.renderOpen())
	case ViewConfirmQuit:
		b.WriteString(m.renderMainView())
		b.WriteString("\n")
		b.WriteString(m.renderDialog("Unexported edits. Quit anyway? (Y)es/(N)o/e(X)port"))
	default:
		b.WriteString(m.renderMainView())
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString(m.styles.Error.Render(m.statusMsg))
		} else {
			b.WriteString(m.statusMsg)
		}
	}

	return b.String()
}

func (m *Model) renderLegend() string {
	hl := func(text string, highlightIdx int) string {
		var result strings.Builder
		for i, ch := range text {
			if i == highlightIdx {
				result.WriteString(m.styles.LegendHighlight.Render(string(ch)))
			} else {
				result.WriteString(m.styles.Legend.Render(string(ch)))
			}
		}
		return result.String()
	}

	items := []string{hl("Quit", 0), hl("Help", 0), hl("Open", 0)}

	switch {
	case m.view == ViewMain && m.editing:
		items = append(items,
			m.styles.LegendHighlight.Render("ENTER")+m.styles.Legend.Render(" Commit"),
			m.styles.LegendHighlight.Render("ESC")+m.styles.Legend.Render(" Cancel"))
	case m.view == ViewMain && m.grid != nil:
		items = append(items, hl("Goto", 0), hl("eXport", 1), hl("Patch", 0))
	case m.view != ViewMain:
		items = append(items, m.styles.LegendHighlight.Render("ESC")+m.styles.Legend.Render(" Back"))
	}

	legend := strings.Join(items, m.styles.Legend.Render(" | "))
	return m.styles.Legend.Width(m.width).Render(legend)
}

func (m *Model) renderMainView() string {
	var b strings.Builder

	if m.grid == nil {
		if m.loading != "" {
			b.WriteString(fmt.Sprintf("\nLoading %s...\n", filepath.Base(m.loading)))
		} else {
			b.WriteString("\nNo ROM loaded. Press O to open a file.\n")
		}
		return b.String()
	}

	b.WriteString(m.renderFileLine())
	b.WriteString("\n")
	b.WriteString(m.renderColumnHeader())
	b.WriteString("\n")
	b.WriteString(m.renderGrid())
	b.WriteString("\n")
	b.WriteString(m.renderHeaderPanel())
	if activity := m.renderActivity(); activity != "" {
		b.WriteString("\n")
		b.WriteString(activity)
	}

	return b.String()
}

func (m *Model) renderFileLine() string {
	name := filepath.Base(m.file.Path)
	if m.unexported() {
		name = m.styles.Modified.Render("*" + name)
	}
	line := fmt.Sprintf("%s  %d bytes  %d edited  cursor %04X", name, m.grid.Len(), m.grid.DirtyCount(), m.cursor)

	c, _ := m.grid.Cell(m.cursor)
	if orig, ok := m.grid.Original(m.cursor); ok && orig != c.Value {
		line += " (was " + grid.FormatByte(orig) + ")"
	}
	return line
}

func (m *Model) renderColumnHeader() string {
	cursorCol := m.cursor % grid.BytesPerRow

	var b strings.Builder
	b.WriteString(m.styles.ColumnHeader.Render(fmt.Sprintf("%-4s", "$")))
	b.WriteString("  ")
	for i := 0; i < grid.BytesPerRow; i++ {
		digit := fmt.Sprintf("%2X", i)
		if i == cursorCol {
			b.WriteString(m.styles.AddressMarker.Render(digit))
		} else {
			b.WriteString(m.styles.ColumnHeader.Render(digit))
		}
		b.WriteString(cellGap(i))
	}
	return b.String()
}

// cellGap is the spacing after column col; the two halves of a row are
// separated by an extra space.
func cellGap(col int) string {
	switch {
	case col == grid.BytesPerRow-1:
		return ""
	case col == grid.BytesPerRow/2-1:
		return "  "
	default:
		return " "
	}
}

func (m *Model) renderGrid() string {
	var lines []string
	visRows := m.visibleRows()
	cursorRow := m.cursor / grid.BytesPerRow

	for i := 0; i < visRows; i++ {
		row := m.scrollY + i
		if row >= len(m.rows) {
			break
		}

		label := m.rows[row].label
		if row == cursorRow {
			label = m.styles.AddressMarker.Render(label)
		} else {
			label = m.styles.Address.Render(label)
		}

		var line strings.Builder
		line.WriteString(label)
		line.WriteString("  ")
		for col := 0; col < grid.BytesPerRow; col++ {
			line.WriteString(m.renderCell(row*grid.BytesPerRow + col))
			line.WriteString(cellGap(col))
		}
		lines = append(lines, strings.TrimRight(line.String(), " "))
	}

	return strings.Join(lines, "\n")
}

// renderCell draws one byte. Offsets past the end of the image stay blank.
func (m *Model) renderCell(offset int) string {
	c, ok := m.grid.Cell(offset)
	if !ok {
		return "  "
	}

	if offset == m.cursor && m.editing {
		text := fmt.Sprintf("%2s", m.draft)
		if grid.ValidateDraft(m.draft) != nil {
			return m.styles.EditingInvalid.Render(text)
		}
		return m.styles.Editing.Render(text)
	}

	text := grid.FormatByte(c.Value)
	switch {
	case offset == m.cursor:
		return m.styles.Cursor.Render(text)
	case c.Dirty:
		return m.styles.Dirty.Render(text)
	case offset >= 0x100 && offset < header.Size:
		return m.styles.HeaderField.Render(text)
	default:
		return m.styles.Normal.Render(text)
	}
}

func (m *Model) renderHeaderPanel() string {
	label := m.styles.HeaderLabel.Render
	value := m.styles.HeaderValue.Render

	if m.headerErr != nil {
		return label("Header: ") + value(m.headerErr.Error())
	}
	if m.header == nil {
		return label("Header: ") + value("-")
	}

	h := m.header
	var b strings.Builder
	b.WriteString(label("Title: ") + value(h.Title))
	b.WriteString("  " + label("Type: ") + value(h.CartTypeName()))
	b.WriteString("  " + label("ROM: ") + value(formatSize(h.ROMBytes())))
	b.WriteString("  " + label("RAM: ") + value(formatSize(h.RAMBytes())))
	b.WriteString("\n")

	b.WriteString(label("Header checksum: ") + value(grid.FormatByte(h.HeaderChecksum)))
	if h.HeaderChecksumOK() {
		b.WriteString(" " + m.styles.ChecksumOK.Render("ok"))
	} else {
		b.WriteString(" " + m.styles.ChecksumBad.Render("expected "+grid.FormatByte(h.ComputedChecksum())))
	}
	b.WriteString("  " + label("Global: ") + value(fmt.Sprintf("%04X", h.GlobalChecksum)))
	b.WriteString("  " + label("Version: ") + value(grid.FormatByte(h.Version)))
	region := "non-Japanese"
	if h.Japanese() {
		region = "Japanese"
	}
	b.WriteString("  " + label("Region: ") + value(region))

	return b.String()
}

func formatSize(n int) string {
	switch {
	case n < 0:
		return "?"
	case n == 0:
		return "none"
	case n < 1024*1024:
		return fmt.Sprintf("%d KiB", n/1024)
	default:
		return fmt.Sprintf("%d MiB", n/(1024*1024))
	}
}

func (m *Model) renderActivity() string {
	n := m.logRows()
	if n == 0 || len(m.activity) == 0 {
		return ""
	}
	start := len(m.activity) - n
	if start < 0 {
		start = 0
	}
	return m.styles.Log.Render(strings.Join(m.activity[start:], "\n"))
}

func (m *Model) renderHelp() string {
	m.help.ShowAll = true
	var b strings.Builder
	b.WriteString("\nHELP - romhex\n")
	b.WriteString("=============\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n\nEdited bytes are highlighted; the header area is shaded.\n")
	b.WriteString("Press ESC or H to close this help screen.\n")
	return b.String()
}

func (m *Model) renderGoto() string {
	var b strings.Builder
	b.WriteString("\nGOTO ADDRESS\n")
	b.WriteString("============\n\n")
	b.WriteString("Address: ")
	b.WriteString(m.gotoInput)
	b.WriteString("_\n\n")
	b.WriteString("(Hex, optional 0x or $ prefix)\n")
	b.WriteString("\nPress Enter to go, ESC to close\n")
	return b.String()
}

func (m *Model) renderExport() string {
	var b strings.Builder
	b.WriteString("\nEXPORT ROM\n")
	b.WriteString("==========\n\n")
	b.WriteString("Name: ")
	b.WriteString(m.exportInput)
	b.WriteString("_\n")
	b.WriteString(fmt.Sprintf("Format: %s (TAB to toggle)\n\n", m.exportFormat))
	opts := m.config.ExportOptions()
	b.WriteString(m.styles.Disabled.Render("Writes " + export.FileName(m.exportInput, m.exportFormat, opts)))
	b.WriteString("\n\nPress Enter to export, ESC to cancel\n")
	return b.String()
}

func (m *Model) renderGenie() string {
	var b strings.Builder
	b.WriteString("\nGAME GENIE\n")
	b.WriteString("==========\n\n")
	b.WriteString("Code: ")
	b.WriteString(m.genieInput)
	b.WriteString("_\n\n")
	b.WriteString("(ABC-DEF or ABC-DEF-GHI)\n")
	b.WriteString("\nPress Enter to apply, ESC to close\n")
	return b.String()
}

func (m *Model) renderOpen() string {
	var b strings.Builder
	b.WriteString("\nOPEN ROM\n")
	b.WriteString("========\n\n")
	b.WriteString("Path: ")
	b.WriteString(m.browserPath)
	b.WriteString("\n\n")

	visibleItems := 15
	startIdx := 0
	if m.browserIndex >= visibleItems {
		startIdx = m.browserIndex - visibleItems + 1
	}

	for i := startIdx; i < len(m.browserItems) && i < startIdx+visibleItems; i++ {
		item := m.browserItems[i]
		prefix := "  "
		if i == m.browserIndex {
			prefix = "> "
		}
		name := item.Name()
		if item.IsDir() {
			name += "/"
		}
		b.WriteString(fmt.Sprintf("%s%s\n", prefix, name))
	}

	return b.String()
}

func (m *Model) renderDialog(message string) string {
	return m.styles.Border.Render(lipgloss.NewStyle().Padding(1, 1).Render(message))
}
