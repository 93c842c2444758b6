package adapter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Engine describes a SQL engine a table can be loaded into.
type Engine struct {
	Name        string
	Description string
	New         func(*slog.Logger) Adapter
}

type engineRegistry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

var engines = &engineRegistry{engines: make(map[string]Engine)}

// Register makes an engine available by name. Engines register themselves
// from init; registering a name twice panics.
func Register(e Engine) {
	engines.mu.Lock()
	defer engines.mu.Unlock()
	if _, dup := engines.engines[e.Name]; dup {
		panic("adapter: engine registered twice: " + e.Name)
	}
	engines.engines[e.Name] = e
}

func lookup(name string) (Engine, bool) {
	engines.mu.RLock()
	defer engines.mu.RUnlock()
	e, ok := engines.engines[strings.ToLower(name)]
	return e, ok
}

// NewAdapter creates an adapter for cfg.Type without connecting it.
// A nil logger discards output.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("engine type not specified")
	}
	e, ok := lookup(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return e.New(logger.With("engine", e.Name)), nil
}

// Engines returns the registered engines sorted by name.
func Engines() []Engine {
	engines.mu.RLock()
	defer engines.mu.RUnlock()
	out := make([]Engine, 0, len(engines.engines))
	for _, e := range engines.engines {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListAdapters returns the registered engine names, sorted.
func ListAdapters() []string {
	var names []string
	for _, e := range Engines() {
		names = append(names, e.Name)
	}
	return names
}

// IsRegistered reports whether name is a registered engine.
func IsRegistered(name string) bool {
	_, ok := lookup(name)
	return ok
}

// UnknownAdapterError is returned when an unknown engine is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown engine type %q\nAvailable engines: %s\nHint: Check engine.type in leapask.yaml",
		e.Type, strings.Join(e.Available, ", "))
}
