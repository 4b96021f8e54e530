package video

import (
	"sort"

	"github.com/samber/lo"
)

// Capabilities describe what a platform allows regardless of the specific video.
type Capabilities struct {
	// AudioOnly platforms always play through the audio backend.
	AudioOnly bool
	// DirectStream platforms can be resolved to a media URL.
	DirectStream bool
	// ControlAPI platforms expose a first-party player that reports end of playback.
	ControlAPI bool
}

var capabilities = map[Platform]Capabilities{
	YouTube:     {DirectStream: true, ControlAPI: true},
	Vimeo:       {DirectStream: true, ControlAPI: true},
	Dailymotion: {DirectStream: true, ControlAPI: true},
	Twitch:      {DirectStream: true},
	SoundCloud:  {AudioOnly: true, DirectStream: true, ControlAPI: true},
	Bandcamp:    {AudioOnly: true, DirectStream: true},
	Bilibili:    {DirectStream: true},
	Rumble:      {DirectStream: true},
	TikTok:      {DirectStream: true},
	Streamable:  {DirectStream: true},
	Instagram:   {},
	Local:       {DirectStream: true},
}

// CapabilitiesOf returns the zero value for unknown platforms.
func CapabilitiesOf(p Platform) Capabilities {
	return capabilities[p]
}

// Known reports whether p is a supported platform.
func Known(p Platform) bool {
	_, ok := capabilities[p]
	return ok
}

// Platforms lists supported platforms in alphabetical order.
func Platforms() []Platform {
	ps := lo.Keys(capabilities)
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
	return ps
}
