package tui

import (
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vidora/vidora/session"
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
	case snapshotMsg:
		previous := b.snap
		b.snap = session.Snapshot(msg)
		if !b.snap.Open() && previous.Open() {
			return b, tea.Quit
		}
		if previous.Index != b.snap.Index || previous.Open() != b.snap.Open() {
			b.refreshQueue()
		}
		return b, b.waitForSnapshot()
	case unsubscribedMsg:
		return b, tea.Quit
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			b.controller.Close()
			return b, tea.Quit
		}
	}

	switch b.state {
	case queueState:
		return b.updateQueue(msg)
	default:
		return b.updatePlayer(msg)
	}
}

func (b *statefulBubble) updatePlayer(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		return b, b.refresh()
	case tea.KeyMsg:
		switch {
		case bubblesKey.Matches(msg, b.keymap.quit):
			b.controller.Close()
			return b, tea.Quit
		case bubblesKey.Matches(msg, b.keymap.playPause):
			b.togglePlayback()
		case bubblesKey.Matches(msg, b.keymap.seekBack):
			b.controller.Seek(-seekStep)
		case bubblesKey.Matches(msg, b.keymap.seekForward):
			b.controller.Seek(seekStep)
		case bubblesKey.Matches(msg, b.keymap.next):
			b.controller.PlayNext()
		case bubblesKey.Matches(msg, b.keymap.previous):
			b.controller.PlayPrevious()
		case bubblesKey.Matches(msg, b.keymap.modal):
			b.controller.SwitchToModal()
		case bubblesKey.Matches(msg, b.keymap.pip):
			b.controller.SwitchToPiP()
		case bubblesKey.Matches(msg, b.keymap.minimize):
			b.controller.Minimize()
		case bubblesKey.Matches(msg, b.keymap.cycleStrategy):
			b.controller.SetOverride(nextOverride(b.snap.Override))
		case bubblesKey.Matches(msg, b.keymap.queue):
			if len(b.options.Items) > 0 {
				b.queueC.Select(b.snap.Index)
				b.setState(queueState)
			}
		case bubblesKey.Matches(msg, b.keymap.showHelp):
			b.helpC.ShowAll = !b.helpC.ShowAll
		}
	}

	return b, nil
}

func (b *statefulBubble) updateQueue(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		return b, b.refresh()
	case tea.KeyMsg:
		if b.queueC.FilterState() == list.Filtering {
			break
		}

		switch {
		case bubblesKey.Matches(msg, b.keymap.confirm):
			if item, ok := b.queueC.SelectedItem().(*listItem); ok {
				b.controller.GoToIndex(item.index)
			}
			b.setState(playerState)
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.back) && b.queueC.FilterState() == list.Unfiltered:
			b.setState(playerState)
			return b, nil
		}
	}

	var cmd tea.Cmd
	b.queueC, cmd = b.queueC.Update(msg)
	return b, cmd
}
