package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/samber/mo"
	"github.com/vidora/vidora/constant"
	"github.com/vidora/vidora/control"
	"github.com/vidora/vidora/log"
)

// BrowserMounter hands embeds and outbound links to the system browser.
// The page plays on its own; vidora has no handle on it.
type BrowserMounter struct {
	// Open launches the URL. Defaults to the platform's opener.
	Open func(url string) error
}

func (b BrowserMounter) Mount(_ context.Context, req Request, emit Emit) (Instance, error) {
	target := req.Target()
	if target == "" {
		return nil, errors.New("nothing to open in the browser")
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return nil, fmt.Errorf("refusing to open non-web target %q", target)
	}

	open := b.Open
	if open == nil {
		open = OpenURL
	}

	if err := open(target); err != nil {
		return nil, fmt.Errorf("open browser: %w", err)
	}

	log.With(log.Fields{
		"component": "browser",
		"platform":  req.Item.Platform,
		"videoId":   req.Item.VideoID,
		"strategy":  req.Strategy,
	}).Info("opened in browser")

	go emit(Event{Kind: EventReady})
	return browserInstance{}, nil
}

type browserInstance struct{}

func (browserInstance) Control() mo.Option[control.Backend] {
	return mo.None[control.Backend]()
}

func (browserInstance) Background() bool { return true }
func (browserInstance) Close() error     { return nil }

// OpenURL starts the system's default handler for the input without waiting for it.
func OpenURL(input string) error {
	cmd, ok := opener(input)
	if !ok {
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	return cmd.Start()
}

func opener(input string) (*exec.Cmd, bool) {
	switch runtime.GOOS {
	case constant.Windows:
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", input), true
	case constant.Darwin:
		return exec.Command("open", input), true
	case constant.Linux:
		return exec.Command("xdg-open", input), true
	case constant.Android:
		return exec.Command("termux-open", input), true
	default:
		return nil, false
	}
}
