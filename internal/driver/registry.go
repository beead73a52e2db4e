package driver

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/xtxerr/swath/internal/errors"
)

// Format binds a format's description to the constructor of its per-stream
// state.
type Format struct {
	Info Info
	New  func(opts Options) Driver
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Format)
)

// Register makes a format available by name and by numeric ID.
// It panics if the name or ID is already registered, like database/sql.
func Register(f Format) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if f.New == nil {
		panic("driver: Register format " + f.Info.Name + " without constructor")
	}
	for _, existing := range registry {
		if existing.Info.Name == f.Info.Name || existing.Info.ID == f.Info.ID {
			panic(fmt.Sprintf("driver: Register called twice for format %s (%d)", f.Info.Name, f.Info.ID))
		}
	}
	registry[f.Info.Name] = f
}

// Lookup finds a format by name or by its numeric ID written as a string.
func Lookup(name string) (Format, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if f, ok := registry[name]; ok {
		return f, nil
	}
	if id, err := strconv.Atoi(name); err == nil {
		for _, f := range registry {
			if f.Info.ID == id {
				return f, nil
			}
		}
	}
	return Format{}, fmt.Errorf("format %q: %w", name, errors.ErrUnknownFormat)
}

// Formats returns the registered formats ordered by ID.
func Formats() []Info {
	registryMu.RLock()
	defer registryMu.RUnlock()

	infos := make([]Info, 0, len(registry))
	for _, f := range registry {
		infos = append(infos, f.Info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// Writable reports whether the format can write records.
func (f Format) Writable() bool {
	d := f.New(DefaultOptions())
	defer d.Close()
	_, ok := d.(Inserter)
	return ok
}
