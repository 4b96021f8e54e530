package cmd

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
	"github.com/vidora/vidora/constant"
	"github.com/vidora/vidora/icon"
	"github.com/vidora/vidora/key"
	"github.com/vidora/vidora/style"
)

// checkPlayer warns when mpv is missing. Playback still works through the
// browser, so this never exits.
func checkPlayer() {
	path := viper.GetString(key.PlayerMpvPath)
	if _, err := exec.LookPath(path); err != nil {
		printMissingDependency(path)
	}
}

func printMissingDependency(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case constant.Darwin:
		installCmd = "brew install mpv"
	case constant.Linux:
		installCmd = "sudo apt install mpv"
	case constant.Windows:
		installCmd = "scoop install mpv"
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.Peach).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.Peach).Render(fmt.Sprintf("%s Missing player", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf(
		"'%s' was not found in your PATH.\nEverything will open in the browser instead.", dep,
	))

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.Accent).Bold(true).Render(installCmd))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			body,
			suggestion,
		),
	))
}
