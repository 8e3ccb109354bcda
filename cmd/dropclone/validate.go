package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamczapla/dropclone/pkg/configuration"
	"github.com/adamczapla/dropclone/pkg/logging"
)

func validateMain(command *cobra.Command, arguments []string) error {
	if rootConfiguration.config == "" {
		return fmt.Errorf("no configuration file specified (use --config or DROPCLONE_CONFIG)")
	}

	logger := logging.New(rootConfiguration.debug)
	channels := logging.NewRegistry(logger)
	configLogger := channels.Get(logging.ChannelConfig)

	config, err := configuration.Load(rootConfiguration.config)
	if err != nil {
		return err
	}

	entries, err := config.Compile(configLogger.Warnf)
	if err != nil {
		return err
	}

	fmt.Printf("configuration valid: %d entr", len(entries))
	if len(entries) == 1 {
		fmt.Println("y")
	} else {
		fmt.Println("ies")
	}
	for _, entry := range entries {
		fmt.Printf("  %s -> %s\n", entry.SourceDirectory, entry.DestinationDirectory)
	}
	return nil
}

var validateCommand = &cobra.Command{
	Use:   "validate",
	Short: "Parse and validate the configuration file without running any sync ticks",
	RunE:  validateMain,
}
