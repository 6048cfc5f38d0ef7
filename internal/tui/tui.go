package tui

import (
	"context"
	"os"

	"halo-cli/internal/export"
	"halo-cli/internal/model"
	"halo-cli/internal/widget"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Options configures the interactive TUI.
type Options struct {
	Defaults  []model.Default
	Clipboard export.Clipboard
	Archive   widget.Archiver
	Logger    *zap.Logger
}

// Run starts the interactive self-assessment and blocks until the user quits or
// ctx is cancelled. The widget is disposed before Run returns.
func Run(ctx context.Context, opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()

	if opts.Clipboard == nil {
		opts.Clipboard = export.SystemClipboard{Terminal: os.Stderr}
	}

	m := newAppModel(ctx, opts)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if fm, ok := final.(appModel); ok {
		if fm.w != nil {
			fm.w.Close()
		}
		if err == nil {
			err = fm.err
		}
	}
	return err
}
