// Package cli implements the boardsnap command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ecadlab/boardsnap/pkg/buildinfo"
	"github.com/ecadlab/boardsnap/pkg/cache"
	"github.com/ecadlab/boardsnap/pkg/config"
	"github.com/ecadlab/boardsnap/pkg/git"
	"github.com/ecadlab/boardsnap/pkg/kicad"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "boardsnap"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	cfg config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "boardsnap",
		Short:        "Boardsnap compares KiCad project snapshots visually",
		Long:         `Boardsnap compares the design files of a KiCad project across points in time — the live directory, zip backups, and git history — and renders per-sheet and per-layer image diffs.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				c.SetLogLevel(log.DebugLevel)
			}
			cfg, err := c.loadConfig(configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/boardsnap/config.toml)")

	// Register all subcommands
	root.AddCommand(c.timelineCommand())
	root.AddCommand(c.diffCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.backupCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file, falling back to the per-user default path.
func (c *CLI) loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadDefault()
}

// =============================================================================
// Tool Client Factories
// =============================================================================

// gitClient builds the git client from configuration.
func (c *CLI) gitClient() *git.Client {
	return git.NewClient(c.cfg.Git)
}

// kicadClient discovers kicad-cli, answering from the persistent probe cache
// when possible, and applies configured timeouts.
func (c *CLI) kicadClient(ctx context.Context, store cache.Cache) (*kicad.Client, error) {
	kc, err := kicad.Discover(ctx, c.cfg.KicadCLI, store)
	if err != nil {
		return nil, err
	}
	kc.ProbeTimeout = c.cfg.ProbeTimeout()
	kc.ExportTimeout = c.cfg.ExportTimeout()
	c.Logger.Debug("kicad-cli discovered", "path", kc.Path, "version", kc.Version)
	return kc, nil
}

// newToolCache opens the persistent cache for tool output: layer listings and
// version probes.
func newToolCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/boardsnap/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// projectDirArg resolves the project directory from an optional positional
// argument, defaulting to the current directory.
func projectDirArg(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	return filepath.Abs(dir)
}
