// Package shm provides a stage provider backed by System V shared memory
// segments. Segments are keyed by the stage key, survive process exit until
// explicitly removed, and can be attached by multiple processes at once,
// which makes this the provider of choice for arenas shared between a
// storage engine and its tooling.
package shm

import "sync"

// Provider attaches System V shared memory segments.
type Provider struct {
	// perm is the permission word passed to shmget when creating segments.
	perm int

	mu   sync.Mutex
	maps map[uint32][]byte
}

// New returns a provider creating segments with 0600 permissions.
func New() *Provider {
	return &Provider{
		perm: 0o600,
		maps: make(map[uint32][]byte),
	}
}
