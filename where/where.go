// Package where resolves the filesystem locations vidora reads and writes.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/vidora/vidora/constant"
	"github.com/vidora/vidora/filesystem"
)

// EnvConfigPath overrides the configuration directory.
const EnvConfigPath = "VIDORA_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config is the configuration directory: $VIDORA_CONFIG_PATH, or the user config dir.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Vidora))
}

// Cache is the directory for data that can be rebuilt at any time.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Vidora))
}

// Logs is the directory holding daily log files.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Streams is the persistent tier of the stream info cache.
func Streams() string {
	return filepath.Join(Cache(), "streams.json")
}

// Progress is the local progress store.
func Progress() string {
	return filepath.Join(Config(), "progress.json")
}

// Library is the offline library database.
func Library() string {
	return filepath.Join(Config(), "library.db")
}

// Temp is a scratch directory for player sockets and similar transient files.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Vidora))
}
