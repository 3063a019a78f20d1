// Package main provides the varkit command-line tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "varkit",
		Short:         "varkit - VCF decoding and indexed retrieval",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(newViewCmd(&verbose))
	root.AddCommand(newQueryCmd(&verbose))
	root.AddCommand(newExportCmd(&verbose))
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("varkit version %s (%s) built %s\n", version, commit, date)
			return nil
		},
	}
}

func initConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil // no home dir, run with defaults
	}
	viper.SetConfigFile(filepath.Join(home, ".varkit.yaml"))
	// a missing config file is fine; flags and defaults apply
	_ = viper.ReadInConfig()
	return nil
}

// newLogger builds the CLI logger: production config, console-friendly,
// debug level when verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
