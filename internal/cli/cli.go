// Package cli implements the geotape command-line interface.
//
// The CLI composes operation configurations into transforms and applies
// them to images and their annotations. It is built on cobra and logs
// through charmbracelet/log; the same logger is installed as the geotape
// library logger, so --verbose also shows composition steps.
//
// # Commands
//
//   - compose: print the matrix and output canvas for a configuration
//   - apply: warp images and annotations with the composed transform
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gogpu/geotape"
)

const appName = "geotape"

// Version is reported by --version. It is overridden at build time with
// -ldflags "-X github.com/gogpu/geotape/internal/cli.Version=...".
var Version = "dev"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a CLI that logs to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "geotape composes geometric augmentations into one transform",
		Long:         `geotape resolves an augmentation configuration into an ordered operation tape and folds it into a single 3x3 matrix, then applies that matrix to images and annotations.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			geotape.SetLogger(slog.New(c.Logger))
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.composeCommand())
	root.AddCommand(c.applyCommand())
	return root
}

// Execute runs the root command with ctx.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.RootCommand()
	if args != nil {
		root.SetArgs(args)
	}
	return root.ExecuteContext(ctx)
}
