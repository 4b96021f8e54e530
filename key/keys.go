// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Sync Backend - the remote service that resolves streams and durably stores progress.
const (
	BackendURL     = "backend.url"
	BackendTimeout = "backend.timeout"
)

// Stream Resolution - these keys govern the stream info cache and its resolvers.
const (
	StreamTTL            = "stream.ttl"
	StreamCapacity       = "stream.capacity"
	StreamPrefetchCount  = "stream.prefetch_count"
	StreamResolveTimeout = "stream.resolve_timeout"
	StreamYtdlp          = "stream.ytdlp"
)

// Progress Tracking - cadences and thresholds for local and remote progress persistence.
const (
	ProgressLocalInterval    = "progress.local_interval"
	ProgressRemoteInterval   = "progress.remote_interval"
	ProgressLocalMinDelta    = "progress.local_min_delta"
	ProgressRemoteMinDelta   = "progress.remote_min_delta"
	ProgressWatchedThreshold = "progress.watched_threshold"
)

// Playback.
const (
	PlayerDefaultMode  = "player.default_mode"
	PlayerReadyTimeout = "player.ready_timeout"
	PlayerMpvPath      = "player.mpv_path"
	PlayerPipGeometry  = "player.pip_geometry"
)

const (
	EmbedParentHost = "embed.parent_host"
)

// OS media controls.
const (
	MediaSessionEnable           = "mediasession.enable"
	MediaSessionPositionInterval = "mediasession.position_interval"
)

const (
	LibraryEnable = "library.enable"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)

const (
	IconsVariant = "icons.variant"
)
