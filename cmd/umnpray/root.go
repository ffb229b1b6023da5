package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/umnpray/umnpray/internal/config"
	"github.com/umnpray/umnpray/internal/consent"
	"github.com/umnpray/umnpray/internal/logger"
)

var exit = os.Exit

var (
	verbose     bool
	consentFile string
	flagConfig  = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "umnpray",
	Short: "Find prayer spaces at the University of Minnesota",
	Long: `umnpray lists campus prayer spaces with their amenities and can sort
them by walking distance from a position you give it.

Configuration comes from .env and the environment, same as the server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger.SetupWriter(cmd.ErrOrStderr(), level, os.Getenv("LOG_FORMAT"))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&consentFile, "consent-file", "", "Where the distance-sort preference is kept (default in the user config dir)")
	pf.String("spaces-file", "", "Spaces JSON file (overrides SPACES_FILE)")
	pf.String("server", "", "Resolve walking distances through a umnpray server instead of Google directly")

	flagConfig.BindPFlag("SPACES_FILE", pf.Lookup("spaces-file"))
}

// loadConfig reads the environment with command-line overrides applied
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg := config.LoadWith(flagConfig)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger.L(), nil
}

func consentStore() (*consent.FileStore, error) {
	path := consentFile
	if path == "" {
		var err error
		if path, err = consent.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return consent.NewFileStore(path), nil
}
