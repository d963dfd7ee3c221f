package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ajramos/courrier/internal/config"
	"github.com/ajramos/courrier/internal/services"
	"github.com/ajramos/courrier/internal/tui"
	"github.com/ajramos/courrier/internal/version"
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every command
type rootOptions struct {
	configPath string
	backend    string
	storePath  string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "courrier: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "courrier",
		Short: "Registre du courrier arrivé et départ",
		Long: `Courrier keeps the incoming and outgoing mail registers of an office.
Without a subcommand it opens the terminal interface; the subcommands give
scriptable access to the same registry.`,
		Version:      version.GetVersionString(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd.Context(), opts)
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to JSON configuration file (default: ~/.config/courrier/config.json, or $COURRIER_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "Storage backend override: sqlite, file or memory")
	cmd.PersistentFlags().StringVar(&opts.storePath, "store", "", "Storage path override (SQLite file or JSON directory)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr instead of the log file")
	cmd.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newUpdateCmd(opts),
		newStatusCmd(opts),
		newRemoveCmd(opts),
		newStatsCmd(opts),
		newWatchCmd(opts),
		newThemesCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// resolveConfig loads the configuration and applies the flag overrides
func resolveConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := loadConfig(getConfigPath(opts.configPath))
	if err != nil {
		return nil, err
	}
	if opts.backend != "" {
		switch opts.backend {
		case config.BackendSQLite, config.BackendFile, config.BackendMemory:
			cfg.Storage.Backend = opts.backend
		default:
			return nil, fmt.Errorf("unknown storage backend %q", opts.backend)
		}
	}
	if opts.storePath != "" {
		cfg.Storage.Path = opts.storePath
	}
	return cfg, nil
}

// withEnv opens the registry for the duration of fn
func withEnv(ctx context.Context, opts *rootOptions, watch bool, fn func(*env) error) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	logger, logFile := openLogger(cfg, opts.verbose)
	e, err := openEnv(ctx, cfg, logger, watch)
	if err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return err
	}
	e.logFile = logFile
	defer e.Close()
	return fn(e)
}

func runUI(ctx context.Context, opts *rootOptions) error {
	return withEnv(ctx, opts, true, func(e *env) error {
		app := tui.NewApp(ctx, e.cfg, e.registry, newThemeService(e.cfg), e.logger)
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				app.Stop()
			case <-done:
			}
		}()
		return app.Run()
	})
}

func newThemeService(cfg *config.Config) *services.ThemeServiceImpl {
	return services.NewThemeService(config.DefaultThemesDir(), expandPath(cfg.Layout.CustomThemeDir))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetDetailedVersionString())
			return nil
		},
	}
}
