// Package strategy picks how a video is rendered.
//
// Selection is a pure function of the item, the resolved stream, the embed
// capability, a pinned override and the strategies already found unusable
// for the current item. The order is total:
//
//  1. A pinned override, if its precondition holds and it is not unusable.
//  2. The first strategy in precedence order whose precondition holds and
//     which is not unusable: audio, direct_stream, platform_api,
//     generic_embed, unembeddable.
//
// unembeddable always holds and is never skipped, so selection always
// produces a strategy.
package strategy

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vidora/vidora/embed"
	"github.com/vidora/vidora/video"
)

type Strategy string

const (
	Audio        Strategy = "audio"
	DirectStream Strategy = "direct_stream"
	PlatformAPI  Strategy = "platform_api"
	GenericEmbed Strategy = "generic_embed"
	Unembeddable Strategy = "unembeddable"
)

// Precedence lists strategies from most to least preferred.
var Precedence = []Strategy{Audio, DirectStream, PlatformAPI, GenericEmbed, Unembeddable}

// Parse validates a strategy name.
func Parse(s string) (Strategy, error) {
	st := Strategy(s)
	if !lo.Contains(Precedence, st) {
		return "", fmt.Errorf("unknown strategy %q, expected one of %v", s, Precedence)
	}
	return st, nil
}

func (s Strategy) String() string {
	return string(s)
}

// Input is everything selection depends on.
type Input struct {
	Item   video.Item
	Stream *video.StreamInfo
	Embed  embed.Config
	// Override is the strategy pinned by the user, if any.
	Override mo.Option[Strategy]
	// Unusable holds strategies whose backend failed for this item.
	Unusable map[Strategy]bool
}

// NewInput fills the embed capability from the item.
func NewInput(item video.Item, stream *video.StreamInfo) Input {
	return Input{
		Item:   item,
		Stream: stream,
		Embed:  embed.Resolve(item.Platform, item.VideoID),
	}
}

// Holds reports whether the precondition of s is met.
func (in Input) Holds(s Strategy) bool {
	switch s {
	case Audio:
		return in.Item.IsAudio() && (in.Stream.HasAudio() || video.CapabilitiesOf(in.Item.Platform).ControlAPI)
	case DirectStream:
		return in.Stream.HasStream()
	case PlatformAPI:
		return video.CapabilitiesOf(in.Item.Platform).ControlAPI
	case GenericEmbed:
		return in.Embed.SupportsEmbed
	case Unembeddable:
		return true
	default:
		return false
	}
}

func (in Input) usable(s Strategy) bool {
	return s == Unembeddable || !in.Unusable[s]
}

// Select resolves the strategy for in.
func Select(in Input) Strategy {
	if o, ok := in.Override.Get(); ok && in.usable(o) && in.Holds(o) {
		return o
	}

	for _, s := range Precedence {
		if in.usable(s) && in.Holds(s) {
			return s
		}
	}

	return Unembeddable
}

// Candidates lists every strategy that could be selected, in the order
// Select would try them.
func Candidates(in Input) []Strategy {
	var out []Strategy
	if o, ok := in.Override.Get(); ok && in.usable(o) && in.Holds(o) {
		out = append(out, o)
	}

	for _, s := range Precedence {
		if in.usable(s) && in.Holds(s) && !lo.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
