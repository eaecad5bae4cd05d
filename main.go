package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"romhex/internal/config"
	"romhex/internal/editor"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	files := os.Args[1:]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s: %v, using defaults\n", config.ConfigPath(), err)
		cfg = config.DefaultConfig()
	}

	logFile := cfg.LogFile
	if logFile == "" && os.Getenv("ROMHEX_DEBUG") != "" {
		logFile = "romhex.log"
	}
	if logFile != "" {
		f, err := tea.LogToFile(logFile, "romhex")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	model, err := editor.NewModel(cfg, files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
