package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/solar-engine/logger"
	"github.com/warp/solar-engine/store/sqlite"
	"github.com/warp/solar-engine/tenant"
)

func newUnitsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "units",
		Short: "Tenant directory tools",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import units from a YAML file",
		Long: `Upsert tenant directory records. The file is either a list of units
or a document with a "units:" key:

  units:
    - id: unit-1
      name: Fortaleza
      segments: [solar, retail]`,
		Args: cobra.ExactArgs(1),
		RunE: runUnitsImport,
	})
	return cmd
}

func runUnitsImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.WithComponent("units")

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	units, err := tenant.ParseUnits(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := tenant.ImportUnits(cmd.Context(), store, units)
	if err != nil {
		return err
	}
	log.Info("units imported", "file", args[0], "count", n)
	return nil
}
