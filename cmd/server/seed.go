package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warp/solar-engine/demo"
)

func newSeedCommand() *cobra.Command {
	ids := make([]string, 0, len(demo.Scenarios()))
	for _, s := range demo.Scenarios() {
		ids = append(ids, s.ID)
	}
	return &cobra.Command{
		Use:       "seed <scenario>",
		Short:     "Load a demo scenario",
		Long:      fmt.Sprintf("Rebuild a demo tenant (demo-<scenario>) from scratch.\n\nScenarios: %s", strings.Join(ids, ", ")),
		Args:      cobra.ExactArgs(1),
		ValidArgs: ids,
		RunE:      runSeed,
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	t, err := a.demo.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	a.log.Info("scenario loaded", "scenario", args[0], "tenant", t)
	return nil
}
