package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"

	"romhex/internal/export"
	"romhex/internal/intake"
)

type Theme struct {
	CursorBackground   string `toml:"cursor_background"`
	EditingBackground  string `toml:"editing_background"`
	DirtyColor         string `toml:"dirty_color"`
	AddressColor       string `toml:"address_color"`
	AddressMarker      string `toml:"address_marker_background"`
	LegendBackground   string `toml:"legend_background"`
	LegendHighlight    string `toml:"legend_highlight"`
	BorderColor        string `toml:"border_color"`
	ModifiedColor      string `toml:"modified_color"`
	DisabledColor      string `toml:"disabled_color"`
	ErrorColor         string `toml:"error_color"`
	ChecksumOKColor    string `toml:"checksum_ok_color"`
	ChecksumBadColor   string `toml:"checksum_bad_color"`
	HeaderHighlight    string `toml:"header_highlight"`
	HeaderHighlightOff bool   `toml:"header_highlight_off"`
}

type Intake struct {
	Extensions []string `toml:"extensions"`
	MaxSize    int      `toml:"max_size"`
}

type Export struct {
	Extension    string `toml:"extension"`
	HexExtension string `toml:"hex_extension"`
	FallbackName string `toml:"fallback_name"`
	Format       string `toml:"format"`
}

type Config struct {
	LogFile string `toml:"log_file"`
	LogRows int    `toml:"log_rows"`
	Theme   Theme  `toml:"theme"`
	Intake  Intake `toml:"intake"`
	Export  Export `toml:"export"`
}

func DefaultConfig() *Config {
	in := intake.DefaultOptions()
	out := export.DefaultOptions()
	return &Config{
		LogRows: 4,
		Theme: Theme{
			CursorBackground:  "#0000FF",
			EditingBackground: "#FFFF00",
			DirtyColor:        "#FF5555",
			AddressColor:      "#888888",
			AddressMarker:     "#000080",
			LegendBackground:  "#0000FF",
			LegendHighlight:   "#FF0000",
			BorderColor:       "#0000FF",
			ModifiedColor:     "#FF0000",
			DisabledColor:     "#666666",
			ErrorColor:        "#FF5555",
			ChecksumOKColor:   "#55FF55",
			ChecksumBadColor:  "#FF5555",
			HeaderHighlight:   "#004444",
		},
		Intake: Intake{
			Extensions: in.Extensions,
			MaxSize:    in.MaxSize,
		},
		Export: Export{
			Extension:    out.Extension,
			HexExtension: out.HexExtension,
			FallbackName: out.FallbackName,
			Format:       export.FormatBinary.String(),
		},
	}
}

func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "romhex.toml"
	}
	return filepath.Join(home, ".config", "romhex", "romhex.toml")
}

func Load() (*Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads path over the defaults. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c *Config) SaveFile(path string) error {
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}

func (c *Config) IntakeOptions() intake.Options {
	opts := intake.DefaultOptions()
	if len(c.Intake.Extensions) > 0 {
		opts.Extensions = c.Intake.Extensions
	}
	if c.Intake.MaxSize > 0 {
		opts.MaxSize = c.Intake.MaxSize
	}
	return opts
}

func (c *Config) ExportOptions() export.Options {
	opts := export.DefaultOptions()
	if c.Export.Extension != "" {
		opts.Extension = c.Export.Extension
	}
	if c.Export.HexExtension != "" {
		opts.HexExtension = c.Export.HexExtension
	}
	if c.Export.FallbackName != "" {
		opts.FallbackName = c.Export.FallbackName
	}
	return opts
}

type Styles struct {
	Cursor          lipgloss.Style
	Editing         lipgloss.Style
	EditingInvalid  lipgloss.Style
	Dirty           lipgloss.Style
	Address         lipgloss.Style
	AddressMarker   lipgloss.Style
	ColumnHeader    lipgloss.Style
	Legend          lipgloss.Style
	LegendHighlight lipgloss.Style
	Border          lipgloss.Style
	Modified        lipgloss.Style
	Disabled        lipgloss.Style
	Error           lipgloss.Style
	Normal          lipgloss.Style
	HeaderLabel     lipgloss.Style
	HeaderValue     lipgloss.Style
	HeaderField     lipgloss.Style
	ChecksumOK      lipgloss.Style
	ChecksumBad     lipgloss.Style
	Log             lipgloss.Style
}

// NewStyles builds the render styles with the default renderer.
func NewStyles(theme *Theme) *Styles {
	return NewStylesWithRenderer(lipgloss.DefaultRenderer(), theme)
}

func NewStylesWithRenderer(r *lipgloss.Renderer, theme *Theme) *Styles {
	headerField := r.NewStyle()
	if !theme.HeaderHighlightOff {
		headerField = headerField.Background(lipgloss.Color(theme.HeaderHighlight))
	}

	return &Styles{
		Cursor: r.NewStyle().
			Background(lipgloss.Color(theme.CursorBackground)).
			Foreground(lipgloss.Color("#FFFFFF")),
		Editing: r.NewStyle().
			Background(lipgloss.Color(theme.EditingBackground)).
			Foreground(lipgloss.Color("#000000")),
		EditingInvalid: r.NewStyle().
			Background(lipgloss.Color(theme.ErrorColor)).
			Foreground(lipgloss.Color("#000000")),
		Dirty: r.NewStyle().
			Foreground(lipgloss.Color(theme.DirtyColor)).
			Bold(true),
		Address: r.NewStyle().
			Foreground(lipgloss.Color(theme.AddressColor)),
		AddressMarker: r.NewStyle().
			Background(lipgloss.Color(theme.AddressMarker)).
			Foreground(lipgloss.Color("#FFFFFF")),
		ColumnHeader: r.NewStyle().
			Foreground(lipgloss.Color(theme.AddressColor)).
			Bold(true),
		Legend: r.NewStyle().
			Background(lipgloss.Color(theme.LegendBackground)).
			Foreground(lipgloss.Color("#FFFFFF")),
		LegendHighlight: r.NewStyle().
			Background(lipgloss.Color(theme.LegendBackground)).
			Foreground(lipgloss.Color(theme.LegendHighlight)).
			Bold(true),
		Border: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.BorderColor)).
			Padding(0, 1),
		Modified: r.NewStyle().
			Foreground(lipgloss.Color(theme.ModifiedColor)),
		Disabled: r.NewStyle().
			Foreground(lipgloss.Color(theme.DisabledColor)),
		Error: r.NewStyle().
			Foreground(lipgloss.Color(theme.ErrorColor)),
		Normal: r.NewStyle(),
		HeaderLabel: r.NewStyle().
			Foreground(lipgloss.Color("#888888")),
		HeaderValue: r.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")),
		HeaderField: headerField,
		ChecksumOK: r.NewStyle().
			Foreground(lipgloss.Color(theme.ChecksumOKColor)),
		ChecksumBad: r.NewStyle().
			Foreground(lipgloss.Color(theme.ChecksumBadColor)),
		Log: r.NewStyle().
			Foreground(lipgloss.Color(theme.DisabledColor)),
	}
}
