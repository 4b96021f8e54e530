// Package player mounts the concrete backends that render a video: mpv for
// streams and platform players, the system browser for embeds and outbound links.
package player

import (
	"context"
	"fmt"

	"github.com/samber/mo"
	"github.com/vidora/vidora/control"
	"github.com/vidora/vidora/embed"
	"github.com/vidora/vidora/strategy"
	"github.com/vidora/vidora/video"
)

// Mode is the presentation surface of a session.
type Mode string

const (
	Closed    Mode = "closed"
	Modal     Mode = "modal"
	PiP       Mode = "pip"
	Minimized Mode = "minimized"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case Modal, PiP, Minimized:
		return m, nil
	default:
		return "", fmt.Errorf("unknown player mode %q, expected modal, pip or minimized", s)
	}
}

// Request is everything a backend needs to render one item.
type Request struct {
	Item     video.Item
	Strategy strategy.Strategy
	Stream   *video.StreamInfo
	Embed    embed.Config
	Mode     Mode
	// Start is the position to resume from, in seconds.
	Start float64
}

// PageURL is the item's canonical page.
func (r Request) PageURL() string {
	if r.Item.URL != "" {
		return r.Item.URL
	}
	return embed.PageURL(r.Item.Platform, r.Item.VideoID)
}

// Target is the URL or path the strategy opens.
func (r Request) Target() string {
	switch r.Strategy {
	case strategy.Audio:
		if a := r.Stream.BestAudio(); a != "" {
			return a
		}
		return r.PageURL()
	case strategy.DirectStream:
		if r.Stream.HasStream() {
			return r.Stream.StreamURL
		}
		return ""
	case strategy.PlatformAPI:
		return r.PageURL()
	case strategy.GenericEmbed:
		return r.Embed.EmbedURL
	default:
		return r.PageURL()
	}
}

type EventKind int

const (
	// EventReady fires once the backend can accept seeks.
	EventReady EventKind = iota
	EventEnded
	EventError
	EventTime
	EventPlayState
	// EventExit means the backend went away on its own, e.g. its window was closed.
	EventExit
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	case EventTime:
		return "time"
	case EventPlayState:
		return "play-state"
	case EventExit:
		return "exit"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind     EventKind
	Position float64
	Duration float64
	Playing  bool
	Err      error
}

// Emit delivers backend events. It may be called from any goroutine.
type Emit func(Event)

// Instance is one mounted backend.
type Instance interface {
	// Control is the handle to register with the control bus, if the backend can be controlled.
	Control() mo.Option[control.Backend]
	// Background reports whether playback continues without a visible surface.
	Background() bool
	Close() error
}

type Mounter interface {
	Mount(ctx context.Context, req Request, emit Emit) (Instance, error)
}

type MounterFunc func(ctx context.Context, req Request, emit Emit) (Instance, error)

func (f MounterFunc) Mount(ctx context.Context, req Request, emit Emit) (Instance, error) {
	return f(ctx, req, emit)
}

// Mux sends each strategy to the backend that renders it.
type Mux struct {
	// Native renders audio, direct streams and platform players.
	Native Mounter
	// Browser renders generic embeds and outbound links.
	Browser Mounter
}

func (m Mux) Mount(ctx context.Context, req Request, emit Emit) (Instance, error) {
	var target Mounter
	switch req.Strategy {
	case strategy.Audio, strategy.DirectStream, strategy.PlatformAPI:
		target = m.Native
	default:
		target = m.Browser
	}

	if target == nil {
		return nil, fmt.Errorf("no backend for strategy %s", req.Strategy)
	}
	return target.Mount(ctx, req, emit)
}

// NewDefault is the mux over mpv and the system browser.
func NewDefault(opts MPVOptions) Mux {
	return Mux{
		Native:  MPVMounter{Options: opts},
		Browser: BrowserMounter{},
	}
}
