package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vidora/vidora/icon"
	"github.com/vidora/vidora/player"
	"github.com/vidora/vidora/strategy"
	"github.com/vidora/vidora/style"
	"github.com/vidora/vidora/util"
)

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

func (b *statefulBubble) View() string {
	switch b.state {
	case queueState:
		return b.viewQueue()
	default:
		return b.viewPlayer()
	}
}

func (b *statefulBubble) viewQueue() string {
	return listExtraPaddingStyle.Render(b.queueC.View())
}

func (b *statefulBubble) viewPlayer() string {
	snap := b.snap
	if !snap.Open() {
		return b.renderLines(true, []string{
			style.Title("Vidora"),
			"",
			style.Faint("Nothing is playing"),
		})
	}

	item := snap.Item
	lines := []string{
		style.Title("Now Playing") + " " + modeIcon(snap.Mode) + " " + strategyBadge(snap.Strategy, snap.Override),
		"",
		style.Ellipsize(style.Bold(item.DisplayTitle()), b.width),
	}

	if item.Channel != "" {
		lines = append(lines, style.Ellipsize(style.Fg(style.Subtext)(item.Channel), b.width))
	}

	lines = append(lines, "", b.viewProgress())

	var status []string
	if snap.Length > 1 {
		status = append(status, fmt.Sprintf("%d/%d", snap.Index+1, snap.Length))
	}
	if snap.Switching {
		status = append(status, icon.Get(icon.Progress)+" switching")
	}
	if len(status) > 0 {
		lines = append(lines, "", style.Faint(strings.Join(status, "  ")))
	}

	return b.renderLines(true, lines)
}

func (b *statefulBubble) viewProgress() string {
	current, total := b.position()

	playback := icon.Get(icon.Pause)
	if b.snap.Playing {
		playback = icon.Get(icon.Play)
	}

	clock := util.Timestamp(current)
	if total > 0 {
		clock += " / " + util.Timestamp(total)
	}

	var ratio float64
	if total > 0 {
		ratio = util.Clamp(current/total, 0, 1)
	}

	bar := b.progressC.ViewAs(ratio)
	return fmt.Sprintf("%s %s\n%s", playback, clock, bar)
}

func modeIcon(mode player.Mode) string {
	switch mode {
	case player.Modal:
		return icon.Get(icon.Modal)
	case player.PiP:
		return icon.Get(icon.PiP)
	case player.Minimized:
		return icon.Get(icon.Minimized)
	default:
		return ""
	}
}

// strategyBadge shows the active strategy; a pinned one is marked with an asterisk.
func strategyBadge(active, override strategy.Strategy) string {
	if active == "" {
		return ""
	}

	name := active.String()
	if override != "" {
		name += "*"
	}
	return style.Tag(style.Base, style.StrategyColor(active.String()))(name)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	l := strings.Join(lines, "\n")
	h := lipgloss.Height(l)
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}
