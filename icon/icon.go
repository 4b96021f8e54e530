// Package icon renders status symbols in the variant chosen by icons.variant.
package icon

import (
	"github.com/spf13/viper"
	"github.com/vidora/vidora/key"
)

const (
	emoji = "emoji"
	nerd  = "nerd"
	plain = "plain"
)

// AvailableVariants lists the supported icon variants.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain}
}

type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Play
	Pause
	Modal
	PiP
	Minimized
	Audio
	Link
)

type def struct {
	emoji, nerd, plain string
}

var icons = map[Icon]def{
	Success:   {"✅", "", "✓"},
	Fail:      {"❌", "", "✗"},
	Progress:  {"⏳", "", "…"},
	Play:      {"▶️", "", ">"},
	Pause:     {"⏸️", "", "||"},
	Modal:     {"🖥️", "", "[M]"},
	PiP:       {"🪟", "", "[P]"},
	Minimized: {"🔽", "", "[_]"},
	Audio:     {"🎧", "", "~"},
	Link:      {"🔗", "", "->"},
}

// Get renders i in the configured variant; unknown variants render nothing.
func Get(i Icon) string {
	d, ok := icons[i]
	if !ok {
		return ""
	}

	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	default:
		return ""
	}
}
