package editor

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) openBrowser() {
	m.view = ViewOpen
	if m.browserPath == "" {
		if m.file != nil {
			m.browserPath = filepath.Dir(m.file.Path)
		} else {
			cwd, _ := os.Getwd()
			m.browserPath = cwd
		}
	}
	m.browserIndex = 0
	m.loadBrowserItems()
}

func (m *Model) handleOpenKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		if m.grid != nil {
			m.view = ViewMain
		}
	case tea.KeyUp:
		if m.browserIndex > 0 {
			m.browserIndex--
		}
	case tea.KeyDown:
		if m.browserIndex < len(m.browserItems)-1 {
			m.browserIndex++
		}
	case tea.KeyEnter:
		return m.handleBrowserEnter()
	default:
		if s := msg.String(); s == "q" || s == "ctrl+c" {
			return m.tryQuit()
		}
	}
	return m, nil
}

func (m *Model) handleBrowserEnter() (tea.Model, tea.Cmd) {
	if m.browserIndex >= len(m.browserItems) {
		return m, nil
	}

	item := m.browserItems[m.browserIndex]
	path := filepath.Join(m.browserPath, item.Name())
	if item.IsDir() {
		m.browserPath = filepath.Clean(path)
		m.browserIndex = 0
		m.loadBrowserItems()
		return m, nil
	}

	m.view = ViewMain
	return m, m.loadFile(path)
}

// loadBrowserItems lists directories and files with an accepted extension.
func (m *Model) loadBrowserItems() {
	entries, err := os.ReadDir(m.browserPath)
	if err != nil {
		m.browserItems = nil
		m.setError(err.Error())
		return
	}

	exts := m.config.IntakeOptions().Extensions
	var dirs, files []os.DirEntry
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, e)
		} else if hasExtension(e.Name(), exts) {
			files = append(files, e)
		}
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name() < dirs[j].Name() })
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	m.browserItems = make([]os.DirEntry, 0, len(dirs)+len(files)+1)
	if m.browserPath != "/" {
		m.browserItems = append(m.browserItems, &parentDirEntry{})
	}
	m.browserItems = append(m.browserItems, dirs...)
	m.browserItems = append(m.browserItems, files...)
}

func hasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

type parentDirEntry struct{}

func (p *parentDirEntry) Name() string               { return ".." }
func (p *parentDirEntry) IsDir() bool                { return true }
func (p *parentDirEntry) Type() os.FileMode          { return os.ModeDir }
func (p *parentDirEntry) Info() (os.FileInfo, error) { return nil, nil }
