package cli

import (
	"fmt"
	"strconv"

	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/pipeline"
	"github.com/spf13/cobra"
)

func (a *App) dealsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deals",
		Short: "List, add and move deals",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List deals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deals := a.ws.Deals()
			t := newTable(fmt.Sprintf("Deals (%d)", len(deals)), "ID", "TITLE", "LEAD", "STAGE", "VALUE", "CLOSE")
			for _, d := range deals {
				t.add(d.ID, d.Title, a.ws.LeadLabel(d.LeadID, pipeline.UnknownLead), pipeline.Label(d.Stage), money(d.Value), d.ExpectedCloseDate)
			}
			t.render(cmd.OutOrStdout())
			return nil
		},
	}

	var draft models.Deal
	var value string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a deal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if value != "" {
				v, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return fmt.Errorf("invalid value %q", value)
				}
				draft.Value = v
			}
			res, err := a.ws.DealMutations.Create(cmd.Context(), draft)
			if err != nil {
				return failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created deal %s (%s)\n", res.ID, res.Entity.Title)
			return nil
		},
	}
	add.Flags().StringVar(&draft.Title, "title", "", "deal title")
	add.Flags().StringVar(&draft.LeadID, "lead", "", "lead id")
	add.Flags().StringVar((*string)(&draft.Stage), "stage", string(models.DealStageProspect), "pipeline stage")
	add.Flags().StringVar(&draft.ExpectedCloseDate, "close", "", "expected close date (YYYY-MM-DD)")
	add.Flags().StringVar(&value, "value", "", "deal value")
	_ = add.MarkFlagRequired("title")

	move := &cobra.Command{
		Use:   "move <deal-id> <stage>",
		Short: "Move a deal to another pipeline stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to := models.DealStage(args[1])
			moved, err := a.ws.Pipeline.Move(cmd.Context(), args[0], to)
			if err != nil {
				return failure(err)
			}
			if !moved {
				fmt.Fprintf(cmd.OutOrStdout(), "Deal %s is already in %s\n", args[0], pipeline.Label(to))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved deal %s to %s\n", args[0], pipeline.Label(to))
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a deal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.ws.DealMutations.Delete(cmd.Context(), args[0]); err != nil {
				return failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted deal %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, move, remove)
	return cmd
}

func (a *App) pipelineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline",
		Short: "Show the deal pipeline by stage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			board := a.ws.Board()
			out := cmd.OutOrStdout()
			for _, col := range board.Columns {
				t := newTable(fmt.Sprintf("%s (%d) %s", col.Label, col.Count(), money(col.Value)), "ID", "TITLE", "LEAD", "VALUE")
				for _, card := range col.Cards {
					t.add(card.Deal.ID, card.Deal.Title, card.LeadLabel, money(card.Deal.Value))
				}
				t.render(out)
			}
			return nil
		},
	}
}
