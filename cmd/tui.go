package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/setsvm/novi/internal/shared"
	"github.com/setsvm/novi/internal/ui"
)

// tuiLogPath is where logs go while the terminal UI owns the screen.
var tuiLogPath = filepath.Join("tmp", "novi-tui.log")

// TUI launches the interactive terminal content browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	w, err := r.signedIn(cmd)
	if err != nil {
		return err
	}
	defer w.Close()

	model := ui.NewModel(ctx, w.API, ui.Options{
		WebURL: siteURL(config.Server),
		Logger: fileLogger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
