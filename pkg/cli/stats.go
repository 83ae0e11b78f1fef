package cli

import (
	"fmt"
	"strconv"

	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/workspace"
	"github.com/spf13/cobra"
)

func (a *App) statsCommand() *cobra.Command {
	var server bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Dashboard counters and upcoming work",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var stats models.DashboardStats
			if server {
				if a.remote == nil {
					return fmt.Errorf("--server needs the API; drop --demo")
				}
				s, err := a.remote.Stats(cmd.Context())
				if err != nil {
					return err
				}
				stats = s
			} else {
				stats = a.ws.Stats(a.clock())
			}

			out := cmd.OutOrStdout()
			t := newTable("Dashboard", "METRIC", "VALUE")
			t.add("Total leads", strconv.Itoa(stats.TotalLeads))
			t.add("New leads this week", strconv.Itoa(stats.NewLeadsThisWeek))
			t.add("Total deals", strconv.Itoa(stats.TotalDeals))
			t.add("Pipeline value", money(stats.TotalPipelineValue))
			t.add("Won deals", strconv.Itoa(stats.WonDeals))
			t.add("Won value", money(stats.WonValue))
			t.add("Activities this week", strconv.Itoa(stats.ActivitiesThisWeek))
			t.add("Upcoming events", strconv.Itoa(stats.UpcomingEvents))
			t.render(out)

			pending := newTable("Next up", "", "TITLE", "LEAD", "SCHEDULED")
			for _, act := range a.ws.PendingActivities(5) {
				pending.add(check(act.Completed), act.Title, a.ws.LeadLabel(act.LeadID, workspace.NoLead), when(act.ScheduledAt))
			}
			pending.render(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&server, "server", false, "ask the API for the counters instead of computing them locally")
	return cmd
}
