package control

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/vidora/vidora/log"
	"github.com/vidora/vidora/util"
)

// Bus exposes one play/pause/seek surface over the registered backends.
// With nothing registered every operation is a no-op returning zero values.
type Bus struct {
	mu    sync.RWMutex
	slots map[Kind]slot
	seq   uint64
	log   *logrus.Entry
}

type slot struct {
	id      uint64
	backend Backend
}

func NewBus() *Bus {
	return &Bus{
		slots: make(map[Kind]slot),
		log:   log.Component("control"),
	}
}

// Register installs b in its kind's slot and returns the func that removes it.
// Unregistering is idempotent and never removes a later registration.
func (bus *Bus) Register(b Backend) (unregister func()) {
	if !b.valid() {
		return func() {}
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.seq++
	id := bus.seq
	bus.slots[b.Kind] = slot{id: id, backend: b}

	return func() {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		if s, ok := bus.slots[b.Kind]; ok && s.id == id {
			delete(bus.slots, b.Kind)
		}
	}
}

// Reset drops every registration.
func (bus *Bus) Reset() {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.slots = make(map[Kind]slot)
}

// Active returns the kind commands are routed to.
func (bus *Bus) Active() Kind {
	b, ok := bus.active()
	if !ok {
		return None
	}
	return b.Kind
}

func (bus *Bus) active() (Backend, bool) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, k := range []Kind{PlatformPlayer, NativeElement, AudioElement} {
		if s, ok := bus.slots[k]; ok {
			return s.backend, true
		}
	}
	return Backend{}, false
}

func (bus *Bus) Play() {
	b, ok := bus.active()
	if !ok {
		return
	}

	var err error
	switch b.Kind {
	case PlatformPlayer:
		err = b.API.PlayVideo()
	case NativeElement, AudioElement:
		err = b.Element.Play()
	}
	bus.report("play", b.Kind, err)
}

func (bus *Bus) Pause() {
	b, ok := bus.active()
	if !ok {
		return
	}

	var err error
	switch b.Kind {
	case PlatformPlayer:
		err = b.API.PauseVideo()
	case NativeElement, AudioElement:
		err = b.Element.Pause()
	}
	bus.report("pause", b.Kind, err)
}

// Seek moves by offset seconds relative to the current position.
func (bus *Bus) Seek(offset float64) {
	if _, ok := bus.active(); !ok {
		return
	}
	bus.SeekTo(bus.CurrentTime() + offset)
}

// SeekTo moves to an absolute position, clamped to the known duration.
func (bus *Bus) SeekTo(seconds float64) {
	b, ok := bus.active()
	if !ok {
		return
	}

	if d := bus.Duration(); d > 0 {
		seconds = util.Clamp(seconds, 0, d)
	} else if seconds < 0 {
		seconds = 0
	}

	var err error
	switch b.Kind {
	case PlatformPlayer:
		err = b.API.SeekTo(seconds, true)
	case NativeElement, AudioElement:
		err = b.Element.SetCurrentTime(seconds)
	}
	bus.report("seek", b.Kind, err)
}

func (bus *Bus) CurrentTime() float64 {
	b, ok := bus.active()
	if !ok {
		return 0
	}

	var (
		t   float64
		err error
	)
	switch b.Kind {
	case PlatformPlayer:
		t, err = b.API.GetCurrentTime()
	case NativeElement, AudioElement:
		t, err = b.Element.CurrentTime()
	}
	if err != nil {
		bus.report("current time", b.Kind, err)
		return 0
	}
	return t
}

func (bus *Bus) Duration() float64 {
	b, ok := bus.active()
	if !ok {
		return 0
	}

	var (
		d   float64
		err error
	)
	switch b.Kind {
	case PlatformPlayer:
		d, err = b.API.GetDuration()
	case NativeElement, AudioElement:
		d, err = b.Element.Duration()
	}
	if err != nil {
		bus.report("duration", b.Kind, err)
		return 0
	}
	return d
}

func (bus *Bus) report(op string, kind Kind, err error) {
	if err != nil {
		bus.log.WithField("backend", kind.String()).WithError(err).Warn(op + " failed")
	}
}
