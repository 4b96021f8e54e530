package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// timeThrottle bounds how often position updates are emitted.
const timeThrottle = 250 * time.Millisecond

var observed = []string{"time-pos", "pause", "duration"}

// listener holds a persistent IPC connection and turns mpv events into player events.
type listener struct {
	socket string
	emit   Emit
	log    *logrus.Entry

	conn net.Conn
	once sync.Once

	mu       sync.Mutex
	ready    bool
	ended    bool
	duration float64
	lastTime time.Time
	now      func() time.Time
}

func newListener(socket string, emit Emit, log *logrus.Entry) *listener {
	return &listener{socket: socket, emit: emit, log: log, now: time.Now}
}

// start subscribes to the observed properties on a dedicated connection.
// Observers are per connection, so they are registered on the one we read.
func (l *listener) start() error {
	conn, err := net.Dial("unix", l.socket)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for i, name := range observed {
		payload, _ := json.Marshal(ipcRequest{Command: []any{"observe_property", i + 1, name}})
		if _, err := conn.Write(append(payload, '\n')); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	l.conn = conn
	go l.read()
	return nil
}

func (l *listener) stop() {
	l.once.Do(func() {
		if l.conn != nil {
			_ = l.conn.Close()
		}
	})
}

func (l *listener) read() {
	scanner := bufio.NewScanner(l.conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for scanner.Scan() {
		l.handle(scanner.Bytes())
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		l.log.WithError(err).Debug("event listener stopped")
	}
}

type mpvEvent struct {
	Event     string `json:"event"`
	Name      string `json:"name"`
	Data      any    `json:"data"`
	Reason    string `json:"reason"`
	FileError string `json:"file_error"`
}

func (l *listener) handle(line []byte) {
	var ev mpvEvent
	if err := json.Unmarshal(line, &ev); err != nil || ev.Event == "" {
		return
	}

	switch ev.Event {
	case "file-loaded":
		l.markReady()

	case "end-file":
		switch ev.Reason {
		case "eof":
			l.mu.Lock()
			first := !l.ended
			l.ended = true
			d := l.duration
			l.mu.Unlock()

			if first {
				l.emit(Event{Kind: EventEnded, Position: d, Duration: d})
			}
		case "error":
			reason := ev.FileError
			if reason == "" {
				reason = "unknown"
			}
			l.emit(Event{Kind: EventError, Err: fmt.Errorf("mpv could not play the file: %s", reason)})
		}

	case "property-change":
		l.property(ev.Name, ev.Data)
	}
}

// markReady emits EventReady the first time the file is known to be loaded.
func (l *listener) markReady() {
	l.mu.Lock()
	first := !l.ready
	l.ready = true
	d := l.duration
	l.mu.Unlock()

	if first {
		l.emit(Event{Kind: EventReady, Duration: d})
	}
}

func (l *listener) property(name string, data any) {
	switch name {
	case "duration":
		// observe_property replies with the current value, so a file that
		// loaded before we connected still shows up here.
		if d, ok := data.(float64); ok {
			l.mu.Lock()
			l.duration = d
			l.mu.Unlock()
			l.markReady()
		}

	case "pause":
		if paused, ok := data.(bool); ok {
			l.emit(Event{Kind: EventPlayState, Playing: !paused})
		}

	case "time-pos":
		pos, ok := data.(float64)
		if !ok {
			return
		}

		l.mu.Lock()
		now := l.now()
		if now.Sub(l.lastTime) < timeThrottle {
			l.mu.Unlock()
			return
		}
		l.lastTime = now
		d := l.duration
		l.mu.Unlock()

		l.emit(Event{Kind: EventTime, Position: pos, Duration: d})
	}
}
