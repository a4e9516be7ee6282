package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/stage/file"
	"github.com/spf13/cobra"
)

var (
	createConfig      string
	createKeyBase     uint32
	createElementSize uint32
	createCapacity    uint32
	createMaxStages   uint32
	createZero        bool
)

func init() {
	cmd := newCreateCmd()
	cmd.Flags().StringVar(&createConfig, "config", "", "TOML file with arena geometry")
	cmd.Flags().Uint32Var(&createKeyBase, "key-base", 0xA4000000, "Base key for stage files")
	cmd.Flags().Uint32Var(&createElementSize, "element-size", 64, "Element size in bytes")
	cmd.Flags().Uint32Var(&createCapacity, "stage-capacity", 1<<16, "Elements per stage")
	cmd.Flags().Uint32Var(&createMaxStages, "max-stages", 8, "Maximum number of stages")
	cmd.Flags().BoolVar(&createZero, "zero-on-alloc", false, "Zero-fill slots on allocation")
	rootCmd.AddCommand(cmd)
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <dir>",
		Short: "Create a new file-backed arena",
		Long: `The create command initializes a fresh arena in a directory: a control
block file plus the first stage file. Geometry can come from flags or from a
TOML config file; explicit flags override the config.

Example:
  arenactl create /var/lib/myapp/index
  arenactl create ./scratch --element-size 128 --stage-capacity 4096
  arenactl create ./scratch --config arena.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, args)
		},
	}
	return cmd
}

// arenaConfig is the TOML shape accepted by --config.
type arenaConfig struct {
	KeyBase       uint32 `toml:"key_base"`
	ElementSize   uint32 `toml:"element_size"`
	StageCapacity uint32 `toml:"stage_capacity"`
	MaxStages     uint32 `toml:"max_stages"`
	ZeroOnAlloc   bool   `toml:"zero_on_alloc"`
}

func runCreate(cmd *cobra.Command, args []string) error {
	dir := args[0]

	cfg := arenaConfig{
		KeyBase:       createKeyBase,
		ElementSize:   createElementSize,
		StageCapacity: createCapacity,
		MaxStages:     createMaxStages,
		ZeroOnAlloc:   createZero,
	}

	if createConfig != "" {
		printVerbose("Reading config: %s\n", createConfig)
		if _, err := toml.DecodeFile(createConfig, &cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
		// Explicit flags beat the config file.
		if cmd.Flags().Changed("key-base") {
			cfg.KeyBase = createKeyBase
		}
		if cmd.Flags().Changed("element-size") {
			cfg.ElementSize = createElementSize
		}
		if cmd.Flags().Changed("stage-capacity") {
			cfg.StageCapacity = createCapacity
		}
		if cmd.Flags().Changed("max-stages") {
			cfg.MaxStages = createMaxStages
		}
		if cmd.Flags().Changed("zero-on-alloc") {
			cfg.ZeroOnAlloc = createZero
		}
	}

	if err := validateGeometry(cfg); err != nil {
		return err
	}

	if _, err := os.Stat(ctrlPath(dir)); err == nil {
		return fmt.Errorf("arena already exists at %s", ctrlPath(dir))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var flags uint32 = arena.FlagBigLock
	if cfg.ZeroOnAlloc {
		flags |= arena.FlagZeroOnAlloc
	}

	ctrl := make([]byte, arena.Sizeof())
	a := arena.Init(ctrl, file.New(dir),
		cfg.KeyBase, cfg.ElementSize, cfg.StageCapacity, cfg.MaxStages, flags)
	if err := a.Detach(); err != nil {
		return fmt.Errorf("failed to detach: %w", err)
	}
	if err := writeCtrl(dir, ctrl); err != nil {
		return fmt.Errorf("failed to write control block: %w", err)
	}

	printInfo("Created arena in %s\n", dir)
	printInfo("  Element size: %d bytes\n", cfg.ElementSize)
	printInfo("  Stage capacity: %d elements\n", cfg.StageCapacity)
	printInfo("  Max stages: %d\n", cfg.MaxStages)
	printVerbose("  Key base: %#x\n", cfg.KeyBase)
	return nil
}

// validateGeometry rejects configurations Init would refuse, so the command
// fails with an error instead of a panic.
func validateGeometry(cfg arenaConfig) error {
	if cfg.ElementSize < arena.MinElementSize {
		return fmt.Errorf("element size %d too small (min %d)", cfg.ElementSize, arena.MinElementSize)
	}
	if cfg.StageCapacity > arena.MaxStageCapacity {
		return fmt.Errorf("stage capacity %d too large (max %d)", cfg.StageCapacity, arena.MaxStageCapacity)
	}
	if cfg.MaxStages > arena.MaxStages {
		return fmt.Errorf("max stages %d too large (max %d)", cfg.MaxStages, arena.MaxStages)
	}
	capacity := cfg.StageCapacity
	if capacity == 0 {
		capacity = arena.MaxStageCapacity
	}
	if size := uint64(capacity) * uint64(cfg.ElementSize); size > 0xFFFFFFFF {
		return fmt.Errorf("stage size %d too large (max %d)", size, uint64(0xFFFFFFFF))
	}
	return nil
}
