package player

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vidora/vidora/constant"
	"github.com/vidora/vidora/control"
	"github.com/vidora/vidora/key"
	"github.com/vidora/vidora/log"
	"github.com/vidora/vidora/strategy"
)

const (
	socketWaitRetries = 20
	socketWaitDelay   = 150 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

type MPVOptions struct {
	Path        string
	PipGeometry string
}

func MPVOptionsFromConfig() MPVOptions {
	return MPVOptions{
		Path:        viper.GetString(key.PlayerMpvPath),
		PipGeometry: viper.GetString(key.PlayerPipGeometry),
	}
}

// MPVMounter starts one mpv process per mount.
type MPVMounter struct {
	Options MPVOptions
}

func (m MPVMounter) Mount(ctx context.Context, req Request, emit Emit) (Instance, error) {
	p := &MPV{opts: m.Options, kind: kindOf(req.Strategy)}
	if err := p.start(ctx, req, emit); err != nil {
		return nil, err
	}
	return p, nil
}

func kindOf(s strategy.Strategy) control.Kind {
	switch s {
	case strategy.Audio:
		return control.AudioElement
	case strategy.PlatformAPI:
		return control.PlatformPlayer
	default:
		return control.NativeElement
	}
}

// MPV is a mounted mpv process driven over JSON IPC.
type MPV struct {
	opts   MPVOptions
	kind   control.Kind
	ipc    *ipc
	events *listener
	cmd    *exec.Cmd
	exited chan struct{}
	closed atomic.Bool
	log    *logrus.Entry
}

func (m *MPV) start(ctx context.Context, req Request, emit Emit) error {
	socket, err := socketPath()
	if err != nil {
		return err
	}

	args, err := buildArgs(req, m.opts, socket)
	if err != nil {
		return err
	}

	bin := m.opts.Path
	if bin == "" {
		bin = "mpv"
	}

	m.log = log.With(log.Fields{
		"component": "mpv",
		"platform":  req.Item.Platform,
		"videoId":   req.Item.VideoID,
		"strategy":  req.Strategy,
	})

	m.cmd = exec.Command(bin, args...)
	detach(m.cmd)

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	m.exited = make(chan struct{})
	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(ctx, socket); err != nil {
		select {
		case <-m.exited:
		default:
			m.log.Warn("killing mpv: socket never became ready")
			_ = terminate(m.cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	m.ipc = &ipc{socket: socket}
	m.events = newListener(socket, emit, m.log)
	if err := m.events.start(); err != nil {
		_ = m.Close()
		return err
	}

	go func() {
		<-m.exited
		m.events.stop()
		_ = os.Remove(socket)
		if !m.closed.Load() {
			emit(Event{Kind: EventExit})
		}
	}()

	m.log.Info("mpv started")
	return nil
}

func socketPath() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate socket name: %w", err)
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%x.sock", constant.Vidora, b)), nil
}

func (m *MPV) waitForSocket(ctx context.Context, socket string) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.exited:
			return errors.New("mpv exited before socket was ready")
		case <-time.After(socketWaitDelay):
		}

		if conn, err := net.Dial("unix", socket); err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", socket, socketWaitRetries)
}

// buildArgs assembles the mpv command line. Only the socket, window and
// media options are passed so the user's mpv.conf still applies.
func buildArgs(req Request, opts MPVOptions, socket string) ([]string, error) {
	target, err := sanitizeMediaTarget(req.Target())
	if err != nil {
		return nil, fmt.Errorf("invalid media target: %w", err)
	}

	title := sanitizeTitle(req.Item.DisplayTitle())
	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--idle=yes",
		"--keep-open=no",
		"--input-ipc-server=" + socket,
		"--force-media-title=" + title,
		"--title=" + title,
	}

	if req.Strategy == strategy.Audio {
		args = append(args, "--no-video", "--force-window=no")
	} else {
		args = append(args, "--force-window=yes")
		switch req.Mode {
		case PiP:
			geometry := opts.PipGeometry
			if geometry == "" {
				geometry = "480x270-32-32"
			}
			args = append(args, "--geometry="+geometry, "--ontop", "--border=no")
		case Minimized:
			args = append(args, "--window-minimized=yes")
		}
	}

	if req.Start > 0 {
		args = append(args, "--start="+strconv.FormatFloat(req.Start, 'f', 1, 64))
	}

	if req.Stream != nil {
		if h := headerFields(req.Stream.Headers); h != "" {
			args = append(args, "--http-header-fields="+h)
		}
		if req.Strategy == strategy.DirectStream && req.Stream.AudioURL != "" && req.Stream.AudioURL != target {
			if audio, err := sanitizeMediaTarget(req.Stream.AudioURL); err == nil {
				args = append(args, "--audio-file="+audio)
			}
		}
	}

	if req.Strategy == strategy.PlatformAPI || (req.Strategy == strategy.Audio && !req.Stream.HasAudio()) {
		args = append(args, "--ytdl=yes")
	}

	return append(args, "--", target), nil
}

func headerFields(headers map[string]string) string {
	if len(headers) == 0 {
		return ""
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, k+": "+strings.ReplaceAll(headers[k], ",", "%2C"))
	}
	return strings.Join(fields, ",")
}

// sanitizeMediaTarget accepts http(s) URLs and local paths, nothing that could read as a flag.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", errors.New("empty URL")
	}
	if strings.ContainsAny(l, "\x00\n\r") {
		return "", errors.New("invalid control characters in URL")
	}
	if strings.HasPrefix(l, "-") {
		return "", errors.New("url must not start with '-'")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		case "file":
			return filepath.Clean(u.Path), nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

func sanitizeTitle(title string) string {
	r := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "")
	return strings.TrimSpace(r.Replace(title))
}

func (m *MPV) Control() mo.Option[control.Backend] {
	switch m.kind {
	case control.PlatformPlayer:
		return mo.Some(control.Platform(platformHandle{m}))
	case control.AudioElement:
		return mo.Some(control.Audio(m))
	default:
		return mo.Some(control.Native(m))
	}
}

// Background is true: mpv owns its window and keeps playing when the host is hidden.
func (m *MPV) Background() bool {
	return true
}

func (m *MPV) Play() error {
	_, err := m.ipc.call("set_property", "pause", false)
	return err
}

func (m *MPV) Pause() error {
	_, err := m.ipc.call("set_property", "pause", true)
	return err
}

func (m *MPV) SetCurrentTime(seconds float64) error {
	_, err := m.ipc.call("seek", seconds, "absolute")
	return err
}

func (m *MPV) CurrentTime() (float64, error) {
	return m.float("time-pos")
}

func (m *MPV) Duration() (float64, error) {
	return m.float("duration")
}

func (m *MPV) float(name string) (float64, error) {
	data, err := m.ipc.call("get_property", name)
	if err != nil {
		return 0, err
	}

	v, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}
	return v, nil
}

// Close quits mpv, killing it if it does not exit in time. It does not emit EventExit.
func (m *MPV) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}

	if m.ipc != nil {
		_, _ = m.ipc.call("quit")
	}

	select {
	case <-m.exited:
	case <-time.After(quitTimeout):
		_ = terminate(m.cmd)
	}

	if m.events != nil {
		m.events.stop()
	}
	return nil
}

// platformHandle exposes mpv under the platform player API when it renders a page URL.
type platformHandle struct {
	m *MPV
}

func (h platformHandle) PlayVideo() error  { return h.m.Play() }
func (h platformHandle) PauseVideo() error { return h.m.Pause() }

func (h platformHandle) SeekTo(seconds float64, allowSeekAhead bool) error {
	mode := "absolute"
	if !allowSeekAhead {
		mode = "absolute+keyframes"
	}
	_, err := h.m.ipc.call("seek", seconds, mode)
	return err
}

func (h platformHandle) GetCurrentTime() (float64, error) { return h.m.CurrentTime() }
func (h platformHandle) GetDuration() (float64, error)    { return h.m.Duration() }
