package store

import "fmt"

// New builds a store for the configured backend kind. The path is only
// used by the sqlite backend.
func New(kind, path string) (Store, error) {
	switch kind {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if path == "" {
			return nil, fmt.Errorf("sqlite store requires a database path")
		}
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", kind)
	}
}
