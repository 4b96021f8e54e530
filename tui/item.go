package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/vidora/vidora/icon"
	"github.com/vidora/vidora/style"
	"github.com/vidora/vidora/util"
	"github.com/vidora/vidora/video"
)

// listItem is one queue entry in the jump list.
type listItem struct {
	index   int
	item    video.Item
	current bool
}

func (t *listItem) getMark() string {
	if !t.current {
		return ""
	}
	return lipgloss.NewStyle().Bold(true).Foreground(style.Accent).Render(icon.Get(icon.Play))
}

func (t *listItem) Title() string {
	title := fmt.Sprintf("%d. %s", t.index+1, t.item.DisplayTitle())
	if mark := t.getMark(); mark != "" {
		title = mark + " " + title
	}
	return title
}

func (t *listItem) Description() string {
	desc := string(t.item.Platform)
	if t.item.Channel != "" {
		desc += " · " + t.item.Channel
	}
	if t.item.Duration > 0 {
		desc += " · " + util.Timestamp(t.item.Duration)
	}
	if t.item.IsAudio() {
		desc += " " + icon.Get(icon.Audio)
	}
	return style.Faint(desc)
}

func (t *listItem) FilterValue() string {
	return t.item.DisplayTitle()
}
