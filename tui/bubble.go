package tui

import (
	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/vidora/vidora/session"
	"github.com/vidora/vidora/strategy"
	"github.com/vidora/vidora/style"
)

// seekStep is how far the arrow keys move the playhead, in seconds.
const seekStep = 10

// overrideCycle is the order the strategy key walks through. The empty strategy means automatic.
var overrideCycle = append([]strategy.Strategy{""}, strategy.Precedence...)

type statefulBubble struct {
	state  state
	keymap *statefulKeymap

	controller  Controller
	snapshots   <-chan session.Snapshot
	unsubscribe func()
	snap        session.Snapshot

	// components
	queueC    list.Model
	progressC progress.Model
	helpC     help.Model

	width, height int

	options *Options
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	xx, yy := listExtraPaddingStyle.GetFrameSize()

	listWidth := width - xx
	listHeight := height - yy

	b.queueC.SetSize(listWidth, listHeight)
	b.queueC.Help.Width = listWidth

	b.progressC.Width = width - x

	b.width = width - x
	b.height = height - y
	b.helpC.Width = listWidth
}

// nextOverride returns the strategy after current in overrideCycle.
func nextOverride(current strategy.Strategy) strategy.Strategy {
	_, i, ok := lo.FindIndexOf(overrideCycle, func(s strategy.Strategy) bool {
		return s == current
	})
	if !ok {
		return overrideCycle[0]
	}
	return overrideCycle[(i+1)%len(overrideCycle)]
}

// refreshQueue rebuilds the jump list so the current entry is marked.
func (b *statefulBubble) refreshQueue() {
	items := make([]list.Item, len(b.options.Items))
	for i, item := range b.options.Items {
		items[i] = &listItem{
			index:   i,
			item:    item,
			current: b.snap.Open() && i == b.snap.Index,
		}
	}
	b.queueC.SetItems(items)
}

func newBubble(c Controller, options *Options) *statefulBubble {
	snapshots, unsubscribe := c.Subscribe()

	bubble := &statefulBubble{
		keymap:      newStatefulKeymap(),
		controller:  c,
		snapshots:   snapshots,
		unsubscribe: unsubscribe,
		snap:        c.Snapshot(),
		options:     options,
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(style.Accent).
		Foreground(style.Accent).
		Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(style.Text)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

	bubble.queueC = list.New([]list.Item{}, delegate, 0, 0)
	bubble.queueC.KeyMap = bubble.keymap.forList()
	bubble.queueC.AdditionalShortHelpKeys = bubble.keymap.ShortHelp
	bubble.queueC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
		return bubble.keymap.FullHelp()[0]
	}
	bubble.queueC.Title = "Queue"
	bubble.queueC.Styles.Title = lipgloss.NewStyle().Foreground(style.Base).Background(style.Accent).Padding(0, 1)
	bubble.queueC.Styles.NoItems = paddingStyle
	bubble.queueC.SetShowPagination(false)
	bubble.queueC.SetShowStatusBar(false)

	bubble.helpC = help.New()
	bubble.progressC = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	bubble.setState(playerState)
	bubble.refreshQueue()

	return bubble
}
