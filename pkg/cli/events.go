package cli

import (
	"fmt"
	"time"

	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/workspace"
	"github.com/spf13/cobra"
)

func (a *App) eventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show and schedule calendar events",
	}

	var day string
	list := &cobra.Command{
		Use:   "list",
		Short: "List events by start time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			events := a.ws.Events()
			title := fmt.Sprintf("Events (%d)", len(events))
			if day != "" {
				d, err := time.ParseInLocation("2006-01-02", day, a.loc)
				if err != nil {
					return fmt.Errorf("invalid --day %q: use YYYY-MM-DD", day)
				}
				events = a.ws.EventsOn(d)
				title = fmt.Sprintf("Events on %s (%d)", d.Format("Mon Jan 2"), len(events))
			}

			t := newTable(title, "ID", "START", "END", "TYPE", "TITLE", "LEAD")
			for _, e := range events {
				t.add(e.ID, when(&e.StartTime), e.EndTime.Format("15:04"), string(e.EventType), e.Title, a.ws.LeadLabel(e.LeadID, workspace.NoLead))
			}
			t.render(cmd.OutOrStdout())
			return nil
		},
	}
	list.Flags().StringVar(&day, "day", "", "only events starting on this date (YYYY-MM-DD)")

	var draft models.CalendarEvent
	var start string
	var duration time.Duration
	add := &cobra.Command{
		Use:   "add",
		Short: "Schedule an event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := parseTime(start, a.loc)
			if err != nil {
				return err
			}
			draft.StartTime = st
			draft.EndTime = st.Add(duration)

			res, err := a.ws.EventMutations.Create(cmd.Context(), draft)
			if err != nil {
				return failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled event %s (%s)\n", res.ID, res.Entity.Title)
			return nil
		},
	}
	add.Flags().StringVar(&draft.Title, "title", "", "title")
	add.Flags().StringVar(&draft.Description, "description", "", "description")
	add.Flags().StringVar(&draft.LeadID, "lead", "", "lead id")
	add.Flags().StringVar((*string)(&draft.EventType), "type", string(models.EventMeeting), "event type")
	add.Flags().StringVar(&start, "start", "", "start time")
	add.Flags().DurationVar(&duration, "duration", time.Hour, "event length")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("start")

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.ws.EventMutations.Delete(cmd.Context(), args[0]); err != nil {
				return failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted event %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}
