package store

import "fmt"

// NewStore returns an uninitialized store of the given kind.
func NewStore(kind, dsn string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}
