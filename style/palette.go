package style

import "github.com/charmbracelet/lipgloss"

var (
	Base    = lipgloss.Color("#1e1e2e")
	Text    = lipgloss.Color("#cdd6f4")
	Subtext = lipgloss.Color("#a6adc8")
	Overlay = lipgloss.Color("#6c7086")
	Surface = lipgloss.Color("#313244")

	Mauve    = lipgloss.Color("#cba6f7")
	Red      = lipgloss.Color("#f38ba8")
	Peach    = lipgloss.Color("#fab387")
	Yellow   = lipgloss.Color("#f9e2af")
	Green    = lipgloss.Color("#a6e3a1")
	Teal     = lipgloss.Color("#94e2d5")
	Blue     = lipgloss.Color("#89b4fa")
	Lavender = lipgloss.Color("#b4befe")

	Purple = Mauve
	Accent = Mauve
)

// StrategyColor maps a playback strategy name to its badge color in the player bar.
func StrategyColor(name string) lipgloss.Color {
	switch name {
	case "audio":
		return Teal
	case "direct_stream":
		return Green
	case "platform_api":
		return Blue
	case "generic_embed":
		return Peach
	default:
		return Overlay
	}
}
