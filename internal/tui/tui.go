package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Run starts the interactive dashboard and blocks until the user quits.
func Run(opts Options) error {
	if opts.Board == nil {
		return errors.New("tui: missing board")
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference()

	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())

	// Notifications can fire inside Update (our own mutations), where a
	// blocking Send would deadlock the event loop.
	unsub := opts.Board.Subscribe(func() {
		go p.Send(boardChangedMsg{})
	})
	defer unsub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if opts.Dir != "" {
		go func() {
			if err := opts.Board.Watch(ctx, opts.Dir); err != nil {
				opts.Log.Warn("board watcher stopped", zap.Error(err))
			}
		}()
	}

	_, err := p.Run()
	return err
}
