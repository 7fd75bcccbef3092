package records

import (
	"path/filepath"
	"sync"

	"github.com/renaissanceio/renio/filesystem"
)

// DefaultFile is the name of the records file under the data directory.
const DefaultFile = "attendees.bin"

var shared struct {
	sync.Mutex
	path  string
	opts  []Opt
	store *Store
}

// DefaultPath is the records file under ~/.renio.
func DefaultPath() string {
	return filepath.Join(filesystem.GetUserHomeDirectory(), ".renio", DefaultFile)
}

// SetSharedPath configures the file used by the next Shared call that has to open the store.
// An already open shared store is not affected until ResetShared.
func SetSharedPath(path string, opts ...Opt) {
	shared.Lock()
	defer shared.Unlock()
	shared.path = path
	shared.opts = opts
}

// Shared returns the process wide store, opening it on first use.
// A failed open is not cached and is retried by the next call.
func Shared() (*Store, error) {
	shared.Lock()
	defer shared.Unlock()
	if shared.store != nil {
		return shared.store, nil
	}
	path := shared.path
	if path == "" {
		path = DefaultPath()
	}
	store, err := Open(path, shared.opts...)
	if err != nil {
		return nil, err
	}
	shared.store = store
	return store, nil
}

// ResetShared drops the process wide store without saving it.
func ResetShared() {
	shared.Lock()
	defer shared.Unlock()
	shared.store = nil
}
