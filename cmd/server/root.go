// cmd/server/root.go
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Corphon/StandfmAI/internal/app"
	"github.com/Corphon/StandfmAI/internal/config"
)

type serverFlags struct {
	configPath string
	port       string
	debug      bool
}

func newRootCommand() *cobra.Command {
	flags := &serverFlags{}

	rootCmd := &cobra.Command{
		Use:           "standfm-ai",
		Short:         "stand.fm episode assistant server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return serve(cmd, cfg)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	rootCmd.Flags().StringVarP(&flags.port, "port", "p", "", "Listen port (overrides config and PORT)")
	rootCmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug mode")

	rootCmd.AddCommand(newCheckConfigCommand(flags))
	return rootCmd
}

// load reads configuration and applies command line overrides.
func (f *serverFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if f.port != "" {
		if _, err := strconv.Atoi(f.port); err != nil {
			return nil, fmt.Errorf("invalid port %q", f.port)
		}
		cfg.Server.Port = f.port
	}
	if cmd.Flags().Changed("debug") {
		cfg.Server.DebugMode = f.debug
	}
	return cfg, nil
}

func serve(cmd *cobra.Command, cfg *config.Config) error {
	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer application.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://localhost:%s\n", cfg.Server.Port)
	return application.Run(cmd.Context())
}

func newCheckConfigCommand(flags *serverFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate configuration and print the effective settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "port:                %s\n", cfg.Server.Port)
			fmt.Fprintf(out, "max upload (MB):     %d\n", cfg.Server.MaxUploadMB)
			fmt.Fprintf(out, "generation provider: %s (%s)\n", cfg.Providers.GenerationProvider, cfg.Providers.GenerationModel)
			fmt.Fprintf(out, "transcription model: %s\n", cfg.Providers.TranscriptionModel)
			fmt.Fprintf(out, "storage:             %s at %s\n", cfg.Storage.Driver, cfg.Storage.DataDir)
			fmt.Fprintf(out, "mock mode:           %t\n", cfg.MockMode())
			return nil
		},
	}
}
