package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const dropcloneVersion = "0.1.0"

func rootMain(command *cobra.Command, arguments []string) {
	if rootConfiguration.version {
		fmt.Println(dropcloneVersion)
		return
	}
	command.Help()
}

var rootCommand = &cobra.Command{
	Use:   "dropclone",
	Short: "dropclone mirrors configured source directories into destination directories",
	Run:   rootMain,
}

var rootConfiguration struct {
	help    bool
	version bool
	debug   bool
	config  string
}

func init() {
	// .env is optional: a missing file is not an error, only a malformed one.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	flags := rootCommand.PersistentFlags()
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.BoolVarP(&rootConfiguration.debug, "debug", "d", false, "Enable debug logging")
	flags.StringVarP(&rootConfiguration.config, "config", "c", os.Getenv("DROPCLONE_CONFIG"), "Path to the dropclone configuration file")

	rootCommand.Flags().BoolVarP(&rootConfiguration.version, "version", "V", false, "Show version information")

	cobra.EnableCommandSorting = false
	cobra.MousetrapHelpText = ""

	rootCommand.AddCommand(
		runCommand,
		validateCommand,
	)
}
