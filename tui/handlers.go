package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vidora/vidora/session"
)

// refreshInterval redraws the playhead between snapshots, since time updates
// from the backend are not published on every tick.
const refreshInterval = 500 * time.Millisecond

type (
	snapshotMsg     session.Snapshot
	unsubscribedMsg struct{}
	refreshMsg      time.Time
)

func (b *statefulBubble) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-b.snapshots
		if !ok {
			return unsubscribedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (b *statefulBubble) refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// position is the playhead shown in the bar, read live while something plays.
func (b *statefulBubble) position() (current, total float64) {
	current, total = b.snap.Position, b.snap.Duration
	if !b.snap.Open() || b.snap.Switching {
		return
	}
	if t := b.controller.CurrentTime(); t > 0 {
		current = t
	}
	if d := b.controller.Duration(); d > 0 {
		total = d
	}
	return
}

func (b *statefulBubble) togglePlayback() {
	if b.snap.Playing {
		b.controller.Pause()
	} else {
		b.controller.Play()
	}
	b.snap.Playing = !b.snap.Playing
}
