package ports

import "go.trai.ch/kiln/internal/core/domain"

// LockStore defines the interface for persisting resolution snapshots.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type LockStore interface {
	// Get retrieves the lockfile recorded for a profile.
	// Returns nil, nil if not found.
	Get(profile string) (*domain.Lockfile, error)
	// Put stores the lockfile under its profile.
	Put(lock domain.Lockfile) error
}

// LockStoreFactory opens the lockfile kept beside a manifest.
type LockStoreFactory interface {
	// ForDir returns the store for the manifest directory dir.
	ForDir(dir string) LockStore
}
