package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vidora/vidora/constant"
	"github.com/vidora/vidora/key"
	"github.com/vidora/vidora/style"
)

// Field is a single registered configuration entry.
type Field struct {
	Key         string
	Value       any
	Description string
	// Min and Max bound int fields when Max > Min.
	Min, Max int
}

// Pretty renders the field for `vidora config info`.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable bound to this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Vidora + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// Check reports whether v is an acceptable value for the field.
func (f *Field) Check(v any) error {
	n, ok := v.(int)
	if !ok || f.Max <= f.Min {
		return nil
	}
	if n < f.Min || n > f.Max {
		return fmt.Errorf("%s must be between %d and %d, got %d", f.Key, f.Min, f.Max, n)
	}
	return nil
}

func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        reflect.TypeOf(f.Value).String(),
	})
}

// Default holds every registered field by key.
var Default = make(map[string]Field)

// EnvExposed lists keys bound to environment variables.
var EnvExposed []string

func register(k string, v any, desc string, bounds ...int) {
	if _, exists := Default[k]; exists {
		panic("duplicate config key: " + k)
	}

	f := Field{Key: k, Value: v, Description: desc}
	if len(bounds) == 2 {
		f.Min, f.Max = bounds[0], bounds[1]
	}

	Default[k] = f
	EnvExposed = append(EnvExposed, k)
}

func init() {
	register(key.BackendURL, "", "Base URL of the sync backend.\nLeave empty to resolve streams locally and keep progress in the offline library")
	register(key.BackendTimeout, 30, "Timeout in seconds for a single backend request", 1, 600)

	register(key.StreamTTL, 5*60*60, "Seconds a resolved stream stays valid in the cache.\nAn earlier upstream expiry always wins", 60, 24*60*60)
	register(key.StreamCapacity, 50, "Maximum number of stream descriptors kept in the cache", 1, 10_000)
	register(key.StreamPrefetchCount, 3, "Number of upcoming queue items to resolve ahead of time", 0, 20)
	register(key.StreamResolveTimeout, 10, "Seconds to wait for a stream before falling back to another strategy", 1, 120)
	register(key.StreamYtdlp, true, "Resolve streams locally with yt-dlp when the backend cannot")

	register(key.ProgressLocalInterval, 3, "Seconds between local progress saves", 1, 60)
	register(key.ProgressRemoteInterval, 15, "Seconds between remote progress syncs", 1, 600)
	register(key.ProgressLocalMinDelta, 2, "Minimum position change in seconds before a local save", 0, 60)
	register(key.ProgressRemoteMinDelta, 5, "Minimum position change in seconds before a remote sync", 0, 600)
	register(key.ProgressWatchedThreshold, 90, "Percentage of the duration after which a video is marked as watched (1-100)", 1, 100)

	register(key.PlayerDefaultMode, "modal", "Presentation mode used when opening a video.\nAvailable options are: modal, pip")
	register(key.PlayerReadyTimeout, 15, "Seconds to wait for a player to report ready before a mode switch settles anyway", 1, 120)
	register(key.PlayerMpvPath, "mpv", "Path to the mpv executable")
	register(key.PlayerPipGeometry, "480x270-32-32", "mpv window geometry used for picture-in-picture")

	register(key.EmbedParentHost, "localhost", "Parent host sent to platforms that require one for embeds (twitch)")

	register(key.MediaSessionEnable, true, "Expose playback to the OS media controls (MPRIS on Linux)")
	register(key.MediaSessionPositionInterval, 1, "Seconds between position updates sent to the OS media controls", 1, 60)

	register(key.LibraryEnable, true, "Use the offline library for local files and offline progress")

	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")

	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, plain, nerd (nerd-font required)")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"purple":   style.Fg(style.Purple),
	"blue":     style.Fg(style.Blue),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(style.Green)(b)
			}
			return style.Fg(style.Red)(b)
		case string:
			if value == "" {
				return style.Faint(`""`)
			}
			return style.Fg(style.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
