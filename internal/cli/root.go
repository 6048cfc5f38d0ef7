package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"halo-cli/internal/archive"
	"halo-cli/internal/config"
	"halo-cli/internal/format"
	"halo-cli/internal/logging"
	"halo-cli/internal/model"
	"halo-cli/internal/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	Variant      string
	DefaultsPath string
	ArchivePath  string
	PrettyJSON   bool
	Format       string
	Debug        bool
	LogFile      string

	log *zap.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "halo",
		Short:        "Divine H.A.L.O. self-assessment (TUI, web UI, snapshots)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI with the six default functions
  halo

  # Start with the ten-function set, or your own list
  halo --variant ten
  halo --defaults ./functions.yaml

  # Serve the browser UI
  halo web --addr 127.0.0.1:3336

  # Print a snapshot without opening a UI
  halo snapshot --stage "Sales & Growth=3" --note "Sales & Growth=new channel live" --format text
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if app.log != nil {
			_ = app.log.Sync()
		}
	}

	cmd.PersistentFlags().StringVar(&app.Variant, "variant", envOr("HALO_VARIANT", config.VariantSix), "Built-in default set ("+strings.Join(config.Variants(), "|")+")")
	cmd.PersistentFlags().StringVar(&app.DefaultsPath, "defaults", envOr("HALO_DEFAULTS", ""), "YAML or JSON file with the default functions (overrides --variant)")
	cmd.PersistentFlags().StringVar(&app.ArchivePath, "archive", envOr("HALO_ARCHIVE", ""), "SQLite file (or directory) recording exported snapshots; empty disables the archive")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("HALO_FORMAT", "json"), "Output format ("+strings.Join(format.Formats(), "|")+")")
	cmd.PersistentFlags().BoolVar(&app.Debug, "debug", envBool("HALO_DEBUG"), "Development logging: debug level, and internal consistency errors panic")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", envOr("HALO_LOG_FILE", ""), "Append logs to this file")

	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newDefaultsCmd(app))
	cmd.AddCommand(newSnapshotCmd(app))
	cmd.AddCommand(newArchiveCmd(app))
	cmd.AddCommand(newWebCmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	defaults, err := loadDefaults(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	// Log lines on stderr would tear the alternate screen.
	log, err := appLogger(app, true)
	if err != nil {
		return writeErr(cmd, err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	arch, err := openArchive(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	if arch != nil {
		defer arch.Close()
	}

	opts := tui.Options{Defaults: defaults, Logger: log}
	if arch != nil {
		opts.Archive = arch
	}
	return tui.Run(ctx, opts)
}

func loadDefaults(app *App) ([]model.Default, error) {
	return config.Options{Variant: app.Variant, DefaultsPath: app.DefaultsPath}.Resolve()
}

// appLogger builds the process logger once. Interactive front ends discard logs
// unless --log-file is set.
func appLogger(app *App, interactive bool) (*zap.Logger, error) {
	if app.log != nil {
		return app.log, nil
	}
	log, err := logging.New(logging.Options{Debug: app.Debug, File: app.LogFile, Discard: interactive})
	if err != nil {
		return nil, err
	}
	app.log = log
	return log, nil
}

// openArchive returns nil when no archive is configured.
func openArchive(ctx context.Context, app *App) (*archive.Archive, error) {
	p := strings.TrimSpace(app.ArchivePath)
	if p == "" {
		return nil, nil
	}
	return archive.Open(ctx, p)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

var errNoArchive = errors.New("no archive configured (use --archive or HALO_ARCHIVE)")
