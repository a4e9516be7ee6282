package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/internal/layout"
	"github.com/joshuapare/arenakit/stage/file"
)

// ctrlFileName is the control block file kept alongside the stage files in an
// arena directory.
const ctrlFileName = "arena.ctl"

func ctrlPath(dir string) string {
	return filepath.Join(dir, ctrlFileName)
}

// readCtrl loads and sanity-checks the persisted control block of an arena
// directory.
func readCtrl(dir string) ([]byte, layout.Header, error) {
	b, err := os.ReadFile(ctrlPath(dir))
	if err != nil {
		return nil, layout.Header{}, fmt.Errorf("failed to read control block: %w", err)
	}
	h, err := layout.Parse(b)
	if err != nil {
		return nil, layout.Header{}, err
	}
	if err := h.ValidateSanity(); err != nil {
		return nil, layout.Header{}, err
	}
	return b, h, nil
}

// writeCtrl persists the control block back into the arena directory.
func writeCtrl(dir string, b []byte) error {
	return os.WriteFile(ctrlPath(dir), b, 0o644)
}

// openArena resumes the arena persisted in dir, using the geometry recorded in
// its control block and the supplied process-local flags.
func openArena(dir string, flags uint32) (*arena.Arena, *file.Provider, []byte, layout.Header, error) {
	ctrl, h, err := readCtrl(dir)
	if err != nil {
		return nil, nil, nil, layout.Header{}, err
	}
	p := file.New(dir)
	a, err := arena.Resume(ctrl, p, h.KeyBase, h.ElementSize, h.StageCapacity, h.MaxStages, flags)
	if err != nil {
		return nil, nil, nil, layout.Header{}, err
	}
	return a, p, ctrl, h, nil
}
