package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/adamczapla/dropclone/pkg/configuration"
	"github.com/adamczapla/dropclone/pkg/core"
	"github.com/adamczapla/dropclone/pkg/logging"
)

var errRequiredConfig = errors.New("no configuration file specified (use --config or DROPCLONE_CONFIG)")

var runConfiguration struct {
	interval time.Duration
}

func runMain(command *cobra.Command, arguments []string) error {
	if rootConfiguration.config == "" {
		return errRequiredConfig
	}

	logger := logging.New(rootConfiguration.debug)
	channels := logging.NewRegistry(logger)
	configLogger := channels.Get(logging.ChannelConfig)
	syncLogger := channels.Get(logging.ChannelSync)
	managerLogger := channels.Get(logging.ChannelManager)

	config, err := configuration.Load(rootConfiguration.config)
	if err != nil {
		return err
	}

	entries, err := config.Compile(configLogger.Warnf)
	if err != nil {
		return err
	}

	managers := make([]*core.CloneManager, 0, len(entries))
	for _, entry := range entries {
		managers = append(managers, core.NewCloneManager(entry, syncLogger))
	}
	managerLogger.Printf("loaded %d clone entries from %s", len(managers), rootConfiguration.config)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(runConfiguration.interval)
	defer ticker.Stop()

	tick(managers, managerLogger)
	for {
		select {
		case <-ticker.C:
			tick(managers, managerLogger)
		case <-interrupt:
			managerLogger.Printf("received interrupt, stopping")
			return nil
		}
	}
}

// tick runs one synchronization pass over every configured manager,
// catching and logging errors per entry so that one failing entry never
// stops the rest from being driven.
func tick(managers []*core.CloneManager, logger *logging.Logger) {
	start := time.Now()
	for _, manager := range managers {
		if err := manager.Sync(); err != nil {
			logger.Errorf("sync failed for %s: %v", manager.Entry().SourceDirectory, err)
			continue
		}
	}
	logger.Debugf("tick completed, started %s", humanize.Time(start))
}

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the tick loop, synchronizing every configured entry on an interval",
	RunE:  runMain,
}

func init() {
	runCommand.Flags().DurationVarP(&runConfiguration.interval, "interval", "i", 10*time.Second, "Interval between synchronization ticks")
}
