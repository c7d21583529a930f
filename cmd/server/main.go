/*
main.go - Application entry point

PURPOSE:
  Command tree for the solar engine. Every subcommand reads the same
  configuration (config.yaml plus SOLAR_* environment variables).

COMMANDS:
  serve          Start the HTTP API with graceful shutdown
  migrate        Apply pending schema migrations and print the version
  units import   Load tenant directory records from a YAML file
  seed           Load a demo scenario into its demo tenant

EXAMPLES:
  # Run with the default config search path
  ./solar serve

  # In-memory database with demo scenario routes
  SOLAR_DATABASE_PATH=":memory:" ./solar serve --demo

  # Register units then seed a demo tenant
  ./solar units import units.yaml
  ./solar seed operating-plant

SEE ALSO:
  - app.go: Component wiring shared by the commands
  - config/config.go: Settings and defaults
*/
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "solar",
		Short:        "Solar plant lifecycle and production analytics engine",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: ./config.yaml or ./configs/config.yaml)")

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newUnitsCommand(),
		newSeedCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
