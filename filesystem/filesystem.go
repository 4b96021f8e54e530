// Package filesystem holds the swappable afero backend every vidora package reads and writes through.
//
// Tests switch it to an in-memory filesystem so caches, progress records and config never touch the disk.
package filesystem

import (
	"io"
	"os"
	"sync"

	"github.com/spf13/afero"
)

var (
	mu      sync.RWMutex
	backend = afero.Afero{Fs: afero.NewOsFs()}
)

// API returns the active filesystem.
func API() afero.Afero {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetOsFs restores the native filesystem.
func SetOsFs() {
	SetFs(afero.NewOsFs())
}

// SetMemMapFs switches to a volatile in-memory filesystem.
func SetMemMapFs() {
	SetFs(afero.NewMemMapFs())
}

// SetFs switches to fs.
func SetFs(fs afero.Fs) {
	mu.Lock()
	defer mu.Unlock()
	backend = afero.Afero{Fs: fs}
}

// GacheFs lets gache caches persist through the active backend.
type GacheFs struct{}

func (GacheFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return API().OpenFile(name, flag, perm)
}

func (GacheFs) MkdirAll(path string, perm os.FileMode) error {
	return API().MkdirAll(path, perm)
}
