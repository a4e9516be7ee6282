//go:build unix

package main

import (
	"os"
	"path/filepath"
	"testing"
)

// resetFlags restores the command flag variables to known values between
// subtests, since cobra flag vars are package globals.
func resetFlags() {
	quiet = false
	verbose = false
	jsonOut = false

	createConfig = ""
	createKeyBase = 0xA4000000
	createElementSize = 32
	createCapacity = 64
	createMaxStages = 4
	createZero = false

	fillCount = 100
	fillWorkers = 2
	fillFreeEvery = 3
}

func TestCreateInfoFillRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "arena")

	resetFlags()
	output, err := captureOutput(t, func() error {
		return runCreate(newCreateCmd(), []string{dir})
	})
	if err != nil {
		t.Fatalf("runCreate() error = %v", err)
	}
	assertContains(t, output, []string{"Created arena", "32 bytes", "64 elements"})

	if _, err := os.Stat(ctrlPath(dir)); err != nil {
		t.Fatalf("control block not written: %v", err)
	}

	output, err = captureOutput(t, func() error {
		return runInfo([]string{dir})
	})
	if err != nil {
		t.Fatalf("runInfo() error = %v", err)
	}
	assertContains(t, output, []string{"Stages Attached: 1", "Stage Files:"})

	// One worker with the free landing on the last iteration leaves exactly
	// one slot on the free list, which the follow-up info must report.
	fillWorkers = 1
	fillFreeEvery = 100
	output, err = captureOutput(t, func() error {
		return runFill([]string{dir})
	})
	if err != nil {
		t.Fatalf("runFill() error = %v", err)
	}
	assertContains(t, output, []string{"Workload complete", "Allocs: 100"})

	// The workload's state must have been written back.
	output, err = captureOutput(t, func() error {
		return runInfo([]string{dir})
	})
	if err != nil {
		t.Fatalf("runInfo() after fill error = %v", err)
	}
	assertContains(t, output, []string{"Free List Head:"})
}

func TestCreateRejectsExisting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "arena")

	resetFlags()
	if _, err := captureOutput(t, func() error {
		return runCreate(newCreateCmd(), []string{dir})
	}); err != nil {
		t.Fatalf("runCreate() error = %v", err)
	}

	if _, err := captureOutput(t, func() error {
		return runCreate(newCreateCmd(), []string{dir})
	}); err == nil {
		t.Fatal("runCreate() on existing arena should fail")
	}
}

func TestCreateRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name string
		mut  func()
	}{
		{"element size below minimum", func() { createElementSize = 8 }},
		{"stage capacity over maximum", func() { createCapacity = 1 << 29 }},
		{"max stages over maximum", func() { createMaxStages = 1000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			tt.mut()
			dir := filepath.Join(t.TempDir(), "arena")
			if _, err := captureOutput(t, func() error {
				return runCreate(newCreateCmd(), []string{dir})
			}); err == nil {
				t.Fatal("runCreate() should reject bad geometry")
			}
		})
	}
}

func TestInfoJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "arena")

	resetFlags()
	if _, err := captureOutput(t, func() error {
		return runCreate(newCreateCmd(), []string{dir})
	}); err != nil {
		t.Fatalf("runCreate() error = %v", err)
	}

	jsonOut = true
	output, err := captureOutput(t, func() error {
		return runInfo([]string{dir})
	})
	if err != nil {
		t.Fatalf("runInfo() error = %v", err)
	}
	assertJSON(t, output)
	assertContains(t, output, []string{"\"StageCount\": 1"})
}

func TestCreateFromConfig(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "arena")
	cfgPath := filepath.Join(tmp, "arena.toml")

	cfg := `key_base = 2751463424
element_size = 48
stage_capacity = 32
max_stages = 2
zero_on_alloc = true
`
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	resetFlags()
	createConfig = cfgPath
	output, err := captureOutput(t, func() error {
		return runCreate(newCreateCmd(), []string{dir})
	})
	if err != nil {
		t.Fatalf("runCreate() error = %v", err)
	}
	assertContains(t, output, []string{"48 bytes", "32 elements"})
}
