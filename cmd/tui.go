package main

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/learnx/internal/shared"
)

// useFileLogger redirects logs to ~/.learnx/logs/<name>.log so they don't interfere with TUI rendering.
func (r *Runner) useFileLogger(name string) error {
	path := shared.HomePath("logs", name+".log")
	fileLogger, err := shared.NewFileLogger(path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	r.logger.Info("tui started", "log", filepath.Base(path))
	return nil
}

func (r *Runner) runProgram(model tea.Model) error {
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
