// Package tui is the interactive front end over an engine.Engine.
package tui

import (
	"context"
	"errors"

	"groupsync/internal/engine"

	tea "github.com/charmbracelet/bubbletea"
)

// Run blocks until the user quits or ctx is cancelled. Pending edits are left
// to the caller to flush.
func Run(ctx context.Context, e *engine.Engine) error {
	p := tea.NewProgram(newModel(ctx, e), tea.WithAltScreen(), tea.WithContext(ctx))
	cancel := e.OnCommitted(func(res engine.CommitResult) {
		p.Send(committedMsg{res: res})
	})
	defer cancel()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
