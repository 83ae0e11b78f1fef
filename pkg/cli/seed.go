package cli

import (
	"fmt"

	"github.com/jordanlanch/salescrm/pkg/store"
	"github.com/spf13/cobra"
)

func (a *App) seedCommand() *cobra.Command {
	var (
		leads int
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the workspace with generated sample records",
		Long: "Generates leads, one deal per lead and an activity and event for every\n" +
			"other lead, then creates them for the current user. The same --seed\n" +
			"produces the same records.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if leads < 1 {
				return fmt.Errorf("--leads must be at least 1")
			}
			ds := store.Generate(store.GeneratorConfig{
				Seed:    seed,
				OwnerID: a.ws.OwnerID(),
				Leads:   leads,
				Now:     a.clock(),
			})

			n, err := store.Seed(cmd.Context(), a.collections, a.ws.OwnerID(), ds)
			if err != nil {
				return err
			}
			if err := a.ws.Load(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d leads, %d deals, %d activities, %d events\n",
				n.Leads, n.Deals, n.Activities, n.Events)
			fmt.Fprintf(cmd.OutOrStdout(), "Workspace now has %d leads\n", len(a.ws.Leads()))
			return nil
		},
	}
	cmd.Flags().IntVar(&leads, "leads", 10, "number of leads to generate")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	return cmd
}
