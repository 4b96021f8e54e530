package mediasession

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/vidora/vidora/constant"
	"github.com/vidora/vidora/log"
)

const (
	mprisPath   dbus.ObjectPath = "/org/mpris/MediaPlayer2"
	mprisRoot                   = "org.mpris.MediaPlayer2"
	mprisPlayer                 = "org.mpris.MediaPlayer2.Player"
	noTrack     dbus.ObjectPath = "/org/mpris/MediaPlayer2/TrackList/NoTrack"
)

// Open connects the MPRIS surface on the D-Bus session bus.
// Anywhere the bus is unavailable it returns Noop.
func Open() Surface {
	s, err := NewMPRIS()
	if err != nil {
		log.Component("mediasession").WithError(err).Info("media controls unavailable")
		return Noop{}
	}
	return s
}

// MPRIS publishes org.mpris.MediaPlayer2 on the session bus.
type MPRIS struct {
	conn  *dbus.Conn
	props *prop.Properties

	mu      sync.Mutex
	handler func(Command)
	trackID dbus.ObjectPath

	log *logrus.Entry
}

func NewMPRIS() (*MPRIS, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	m := &MPRIS{conn: conn, trackID: noTrack, log: log.Component("mpris")}
	if err := m.export(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return m, nil
}

func (m *MPRIS) export() error {
	name := mprisRoot + "." + constant.Vidora

	reply, err := m.conn.RequestName(name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", name)
	}

	root := &mprisRootObject{}
	player := &mprisPlayerObject{m: m}

	if err := m.conn.Export(root, mprisPath, mprisRoot); err != nil {
		return err
	}
	if err := m.conn.Export(player, mprisPath, mprisPlayer); err != nil {
		return err
	}

	m.props, err = prop.Export(m.conn, mprisPath, prop.Map{
		mprisRoot: {
			"CanQuit":             ro(false),
			"CanRaise":            ro(false),
			"HasTrackList":        ro(false),
			"Identity":            ro(constant.Vidora),
			"SupportedUriSchemes": ro([]string{}),
			"SupportedMimeTypes":  ro([]string{}),
		},
		mprisPlayer: {
			"PlaybackStatus": emit(string(Stopped)),
			"LoopStatus":     ro("None"),
			"Rate":           ro(1.0),
			"Shuffle":        ro(false),
			"Metadata":       emit(map[string]dbus.Variant{"mpris:trackid": dbus.MakeVariant(noTrack)}),
			"Volume":         ro(1.0),
			"Position":       {Value: int64(0), Writable: false, Emit: prop.EmitFalse},
			"MinimumRate":    ro(1.0),
			"MaximumRate":    ro(1.0),
			"CanGoNext":      ro(true),
			"CanGoPrevious":  ro(true),
			"CanPlay":        ro(true),
			"CanPause":       ro(true),
			"CanSeek":        ro(true),
			"CanControl":     ro(true),
		},
	})
	if err != nil {
		return fmt.Errorf("export properties: %w", err)
	}

	node := &introspect.Node{
		Name: string(mprisPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       mprisRoot,
				Methods:    introspect.Methods(root),
				Properties: m.props.Introspection(mprisRoot),
			},
			{
				Name:       mprisPlayer,
				Methods:    introspect.Methods(player),
				Properties: m.props.Introspection(mprisPlayer),
				Signals: []introspect.Signal{{
					Name: "Seeked",
					Args: []introspect.Arg{{Name: "Position", Type: "x"}},
				}},
			},
		},
	}
	return m.conn.Export(introspect.NewIntrospectable(node), mprisPath, "org.freedesktop.DBus.Introspectable")
}

func ro(v any) *prop.Prop {
	return &prop.Prop{Value: v, Writable: false, Emit: prop.EmitConst}
}

func emit(v any) *prop.Prop {
	return &prop.Prop{Value: v, Writable: false, Emit: prop.EmitTrue}
}

func micros(seconds float64) int64 {
	return int64(seconds * 1e6)
}

func (m *MPRIS) SetMetadata(md Metadata) error {
	track := noTrack
	if md.TrackID != "" {
		track = dbus.ObjectPath("/org/" + constant.Vidora + "/track/" + sanitizePath(md.TrackID))
	}

	m.mu.Lock()
	m.trackID = track
	m.mu.Unlock()

	meta := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(track),
		"xesam:title":   dbus.MakeVariant(md.Title),
	}
	if md.Artist != "" {
		meta["xesam:artist"] = dbus.MakeVariant([]string{md.Artist})
	}
	if md.Album != "" {
		meta["xesam:album"] = dbus.MakeVariant(md.Album)
	}
	if md.ArtURL != "" {
		meta["mpris:artUrl"] = dbus.MakeVariant(md.ArtURL)
	}
	if md.URL != "" {
		meta["xesam:url"] = dbus.MakeVariant(md.URL)
	}
	if md.Length > 0 {
		meta["mpris:length"] = dbus.MakeVariant(md.Length.Microseconds())
	}

	return m.set(mprisPlayer, "Metadata", meta)
}

func (m *MPRIS) SetStatus(s Status) error {
	return m.set(mprisPlayer, "PlaybackStatus", string(s))
}

func (m *MPRIS) SetPosition(seconds float64) error {
	return m.set(mprisPlayer, "Position", micros(seconds))
}

// set updates a property locally. The exported Set method would reject read-only properties.
func (m *MPRIS) set(iface, name string, v any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("set %s.%s: %v", iface, name, r)
		}
	}()

	m.props.SetMust(iface, name, v)
	return nil
}

func (m *MPRIS) OnCommand(h func(Command)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

func (m *MPRIS) dispatch(c Command) {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()

	m.log.WithField("command", c.Kind.String()).Debug("inbound")
	if h != nil {
		h(c)
	}
}

func (m *MPRIS) Close() error {
	_, _ = m.conn.ReleaseName(mprisRoot + "." + constant.Vidora)
	return m.conn.Close()
}

// sanitizePath keeps the characters allowed in a D-Bus object path element.
func sanitizePath(s string) string {
	out := lo.Map([]rune(s), func(r rune, _ int) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	})
	return string(out)
}

type mprisRootObject struct{}

func (mprisRootObject) Raise() *dbus.Error { return nil }
func (mprisRootObject) Quit() *dbus.Error  { return nil }

type mprisPlayerObject struct {
	m *MPRIS
}

func (p *mprisPlayerObject) Next() *dbus.Error {
	p.m.dispatch(Command{Kind: CmdNext})
	return nil
}

func (p *mprisPlayerObject) Previous() *dbus.Error {
	p.m.dispatch(Command{Kind: CmdPrevious})
	return nil
}

func (p *mprisPlayerObject) Pause() *dbus.Error {
	p.m.dispatch(Command{Kind: CmdPause})
	return nil
}

func (p *mprisPlayerObject) PlayPause() *dbus.Error {
	p.m.dispatch(Command{Kind: CmdPlayPause})
	return nil
}

func (p *mprisPlayerObject) Stop() *dbus.Error {
	p.m.dispatch(Command{Kind: CmdStop})
	return nil
}

func (p *mprisPlayerObject) Play() *dbus.Error {
	p.m.dispatch(Command{Kind: CmdPlay})
	return nil
}

// Seek takes a relative offset in microseconds.
func (p *mprisPlayerObject) Seek(offset int64) *dbus.Error {
	p.m.dispatch(Command{Kind: CmdSeek, Seconds: float64(offset) / 1e6})
	return nil
}

// SetPosition is ignored unless trackID names the current track.
func (p *mprisPlayerObject) SetPosition(trackID dbus.ObjectPath, position int64) *dbus.Error {
	p.m.mu.Lock()
	current := p.m.trackID
	p.m.mu.Unlock()

	if trackID != current || position < 0 {
		return nil
	}

	p.m.dispatch(Command{Kind: CmdSeekTo, Seconds: float64(position) / 1e6})
	_ = p.m.conn.Emit(mprisPath, mprisPlayer+".Seeked", position)
	return nil
}

func (p *mprisPlayerObject) OpenUri(string) *dbus.Error {
	return nil
}
