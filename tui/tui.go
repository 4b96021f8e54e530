// Package tui is the terminal player bar: it mirrors the session and turns keys into session commands.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vidora/vidora/mediasession"
	"github.com/vidora/vidora/session"
	"github.com/vidora/vidora/strategy"
	"github.com/vidora/vidora/video"
)

// Controller is the part of the session the player bar drives.
type Controller interface {
	mediasession.Target

	SwitchToPiP()
	SwitchToModal()
	Minimize()
	Hide()
	GoToIndex(i int)
	SetOverride(s strategy.Strategy)
	Snapshot() session.Snapshot
	Subscribe() (<-chan session.Snapshot, func())
}

type Options struct {
	// Items is the queue the session was opened with, listed for jumping.
	Items []video.Item
	// Inline renders without the alternate screen.
	Inline bool
}

// Run blocks until the user quits or the session ends. Quitting closes the session.
func Run(c Controller, options *Options) error {
	bubble := newBubble(c, options)

	var opts []tea.ProgramOption
	if !options.Inline {
		opts = append(opts, tea.WithAltScreen())
	}

	_, err := tea.NewProgram(bubble, opts...).Run()
	bubble.unsubscribe()
	return err
}
