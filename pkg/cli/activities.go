package cli

import (
	"fmt"

	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/workspace"
	"github.com/spf13/cobra"
)

func (a *App) activitiesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activities",
		Short: "Log activities and tick them off",
	}

	var typ, done string
	list := &cobra.Command{
		Use:   "list",
		Short: "List activities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := workspace.DoneFilter(done)
			switch filter {
			case workspace.DoneAll, workspace.DonePending, workspace.DoneCompleted:
			default:
				return fmt.Errorf("invalid --done %q: use all, pending or completed", done)
			}

			now := a.clock()
			activities := a.ws.FilterActivities(models.ActivityType(typ), filter)
			t := newTable(fmt.Sprintf("Activities (%d)", len(activities)), "", "ID", "TYPE", "TITLE", "LEAD", "SCHEDULED")
			for _, act := range activities {
				scheduled := when(act.ScheduledAt)
				if act.Overdue(now) {
					scheduled += " (overdue)"
				}
				t.add(check(act.Completed), act.ID, string(act.Type), act.Title, a.ws.LeadLabel(act.LeadID, workspace.NoLead), scheduled)
			}
			t.render(cmd.OutOrStdout())
			return nil
		},
	}
	list.Flags().StringVar(&typ, "type", "", "only activities of this type")
	list.Flags().StringVar(&done, "done", string(workspace.DoneAll), "all, pending or completed")

	var draft models.Activity
	var at string
	add := &cobra.Command{
		Use:   "add",
		Short: "Log an activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if at != "" {
				t, err := parseTime(at, a.loc)
				if err != nil {
					return err
				}
				draft.ScheduledAt = &t
			}
			res, err := a.ws.ActivityMutations.Create(cmd.Context(), draft)
			if err != nil {
				return failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged activity %s (%s)\n", res.ID, res.Entity.Title)
			return nil
		},
	}
	add.Flags().StringVar((*string)(&draft.Type), "type", string(models.ActivityNote), "activity type")
	add.Flags().StringVar(&draft.Title, "title", "", "title")
	add.Flags().StringVar(&draft.Description, "description", "", "description")
	add.Flags().StringVar(&draft.LeadID, "lead", "", "lead id")
	add.Flags().StringVar(&at, "at", "", "scheduled time")
	_ = add.MarkFlagRequired("title")

	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip an activity between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var current *models.Activity
			for _, act := range a.ws.Activities() {
				if act.ID == args[0] {
					current = &act
					break
				}
			}
			if current == nil {
				return fmt.Errorf("activity %s not found", args[0])
			}

			res, err := a.ws.ActivityMutations.Update(cmd.Context(), args[0], models.CompletionPatch(!current.Completed))
			if err != nil {
				return failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", check(res.Entity.Completed), res.Entity.Title)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.ws.ActivityMutations.Delete(cmd.Context(), args[0]); err != nil {
				return failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted activity %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, toggle, remove)
	return cmd
}
