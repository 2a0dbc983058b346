package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"b24serve/src/internal/domain"
	"b24serve/src/internal/service"
)

var Version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg domain.Config

	cmd := &cobra.Command{
		Use:           "b24serve",
		Short:         "Serve the current app directory with permissive CORS for iframe development",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cfg.Debug)

			root, err := domain.ResolveRoot()
			if err != nil {
				log.Errorf("Could not resolve serving directory: %v", err)
				return err
			}

			cfg.Version = Version
			cfg.Port = domain.DefaultPort
			cfg.Root = root

			orchestrator := service.CreateOrchestrator(&domain.Context{Config: cfg}, cmd.OutOrStdout())
			if err := orchestrator.Run(); err != nil {
				log.Errorf("Error running orchestrator: %v", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cfg.LiveReload, "live-reload", false, "reload open pages when files change")
	cmd.Flags().StringVar(&cfg.OnChange, "on-change", "", "shell command to re-run when files change")
	cmd.PersistentFlags().BoolVar(&cfg.Debug, "debug", false, "enable verbose logging")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "b24serve "+Version)
		},
	})
	return cmd
}

func setupLogging(debug bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
