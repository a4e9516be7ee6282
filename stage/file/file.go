// Package file provides a stage provider backed by one memory-mapped file per
// stage. Files are named from the stage key, so the same key reattaches to
// the same stage after a process restart. Mappings are shared and writable:
// stores through the returned buffer land in the page cache and reach disk on
// Flush or normal writeback.
package file

import (
	"fmt"
	"path/filepath"
	"sync"
)

// Provider maps stage files under a root directory.
type Provider struct {
	dir string

	mu   sync.Mutex
	maps map[uint32][]byte
}

// New returns a provider storing stage files under dir. The directory must
// already exist; the provider does not create it.
func New(dir string) *Provider {
	return &Provider{
		dir:  dir,
		maps: make(map[uint32][]byte),
	}
}

// Path returns the backing file path for a stage key.
func (p *Provider) Path(key uint32) string {
	return filepath.Join(p.dir, fmt.Sprintf("stage-%08x.arn", key))
}
