// Package control routes play, pause and seek to whichever playback backend is mounted.
//
// Backends are a tagged variant: a Backend carries its Kind and only the
// handle meaningful for that kind. The bus switches on the tag.
package control

// Kind tags a backend. Higher kinds win when several are registered.
type Kind int

const (
	None Kind = iota
	AudioElement
	NativeElement
	PlatformPlayer
)

func (k Kind) String() string {
	switch k {
	case AudioElement:
		return "audio"
	case NativeElement:
		return "native"
	case PlatformPlayer:
		return "platform_api"
	default:
		return "none"
	}
}

// Element is a media element: a native video surface or an audio-only output.
type Element interface {
	Play() error
	Pause() error
	SetCurrentTime(seconds float64) error
	CurrentTime() (float64, error)
	Duration() (float64, error)
}

// PlatformAPI is a first-party player handle such as an iframe API object.
type PlatformAPI interface {
	PlayVideo() error
	PauseVideo() error
	SeekTo(seconds float64, allowSeekAhead bool) error
	GetCurrentTime() (float64, error)
	GetDuration() (float64, error)
}

// Backend is one registered backend. Exactly one of Element and API is set,
// matching Kind.
type Backend struct {
	Kind    Kind
	Element Element
	API     PlatformAPI
}

func Native(e Element) Backend {
	return Backend{Kind: NativeElement, Element: e}
}

func Audio(e Element) Backend {
	return Backend{Kind: AudioElement, Element: e}
}

func Platform(api PlatformAPI) Backend {
	return Backend{Kind: PlatformPlayer, API: api}
}

func (b Backend) valid() bool {
	switch b.Kind {
	case AudioElement, NativeElement:
		return b.Element != nil
	case PlatformPlayer:
		return b.API != nil
	default:
		return false
	}
}
