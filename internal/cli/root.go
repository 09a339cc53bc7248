// Package cli provides the command-line interface for cloudsave.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cloudsave/internal/api"
	"cloudsave/internal/config"
	"cloudsave/internal/logging"
	"cloudsave/internal/tasks"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// Version information - set by main package at startup
var (
	Version   = "v0.1.0-dev"
	BuildTime = "unknown"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cloudsave",
		Short: "Browse cloud drive shares and save them into your own tree",
		Long: `cloudsave ` + Version + ` - Built: ` + BuildTime + `
Navigate your cloud drive and shared links from the terminal, stage
files while browsing a share, and have the provider copy them into a
folder of your own - no download round trip.

Scheduled save tasks replay a share periodically and pick up new files
as they appear.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLogger("cli")
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Version = Version + " (" + BuildTime + ")"

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	// Create a context that can be cancelled by signals
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newShareCmd())
	rootCmd.AddCommand(newFoldersCmd())
	rootCmd.AddCommand(newSaveCmd())
	rootCmd.AddCommand(newTasksCmd())
	rootCmd.AddCommand(newTemplatesCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewLogger("cli")
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// loadConfig loads the configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// newProvider loads config, validates it and builds the provider client.
func newProvider() (api.Provider, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w (run 'cloudsave config' to set up)", err)
	}
	provider, err := api.NewProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	return provider, cfg, nil
}

// openTaskStore opens the task store next to the config file.
func openTaskStore() (*tasks.Store, error) {
	path, err := config.DefaultTasksPath()
	if err != nil {
		return nil, err
	}
	return tasks.NewStore(path)
}
