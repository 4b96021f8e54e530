// Package mediasession mirrors playback to the operating system's media controls
// and forwards the commands they send back to the player.
package mediasession

import (
	"time"
)

type Status string

const (
	Playing Status = "Playing"
	Paused  Status = "Paused"
	Stopped Status = "Stopped"
)

// Metadata describes the item shown by the OS controls.
type Metadata struct {
	TrackID string
	Title   string
	Artist  string
	Album   string
	ArtURL  string
	URL     string
	Length  time.Duration
}

type CommandKind int

const (
	CmdPlay CommandKind = iota
	CmdPause
	CmdPlayPause
	CmdStop
	CmdNext
	CmdPrevious
	CmdSeek
	CmdSeekTo
)

func (k CommandKind) String() string {
	switch k {
	case CmdPlay:
		return "play"
	case CmdPause:
		return "pause"
	case CmdPlayPause:
		return "play-pause"
	case CmdStop:
		return "stop"
	case CmdNext:
		return "next"
	case CmdPrevious:
		return "previous"
	case CmdSeek:
		return "seek"
	case CmdSeekTo:
		return "seek-to"
	default:
		return "unknown"
	}
}

// Command is an inbound request from the OS controls.
// Seconds is the offset for CmdSeek and the position for CmdSeekTo.
type Command struct {
	Kind    CommandKind
	Seconds float64
}

// Surface is an OS media-control endpoint.
type Surface interface {
	SetMetadata(Metadata) error
	SetStatus(Status) error
	SetPosition(seconds float64) error
	// OnCommand installs the handler for inbound commands.
	OnCommand(func(Command))
	Close() error
}

// Noop is the surface used where no media controls exist. Every call succeeds and does nothing.
type Noop struct{}

func (Noop) SetMetadata(Metadata) error { return nil }
func (Noop) SetStatus(Status) error     { return nil }
func (Noop) SetPosition(float64) error  { return nil }
func (Noop) OnCommand(func(Command))    {}
func (Noop) Close() error               { return nil }
