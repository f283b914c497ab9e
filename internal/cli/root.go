package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/patientbook/internal/config"
	"github.com/roach88/patientbook/internal/engine"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	DataFile   string
	ConfigPath string

	// ConfigDir is searched for patientbook.yaml and .env. Empty means the
	// working directory.
	ConfigDir string

	// LookupEnv overrides environment lookup (for testing).
	// If nil, defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// EngineOptions are applied after the CLI's own when opening the engine
	// (for testing).
	EngineOptions []engine.Option

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the patientbook CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patientbook",
		Short: "patientbook - patient record keeping",
		Long: `Keep patient records in a single local data file.

Records can be added, edited, searched and exported; likely duplicates are
grouped for review; other data files or CSV/JSON exports can be merged in
without serial number collisions; and the data file can be backed up and
restored.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			slog.SetDefault(opts.logger)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DataFile, "data", "", "path to the patient data file (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file (default ./patientbook.yaml if present)")

	// Add subcommands
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewRenameCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDupsCommand(opts))
	cmd.AddCommand(NewDismissCommand(opts))
	cmd.AddCommand(NewUndismissCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewPhotoCommand(opts))
	cmd.AddCommand(NewInfoCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newLogger configures logging based on the verbose flag.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Errors and verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// loadConfig merges the config sources and applies the global flags.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		Path:      o.ConfigPath,
		Dir:       o.ConfigDir,
		LookupEnv: o.LookupEnv,
	})
	if err != nil {
		return config.Config{}, fmt.Errorf("%w: %w", errConfig, err)
	}
	if o.DataFile != "" {
		cfg.DataFile = o.DataFile
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, fmt.Errorf("%w: %w", errConfig, err)
	}
	return cfg, nil
}

// openEngine loads the config and the data file it names.
func (o *RootOptions) openEngine() (*engine.Engine, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	engineOpts := append([]engine.Option{engine.WithLogger(logger)}, o.EngineOptions...)
	return engine.Open(cfg, engineOpts...)
}
