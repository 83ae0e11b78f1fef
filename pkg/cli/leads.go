package cli

import (
	"fmt"
	"strconv"

	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/spf13/cobra"
)

func (a *App) leadsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List, add and remove leads",
	}

	var search, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List leads, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			leads := a.ws.FilterLeads(search, models.LeadStatus(status))
			t := newTable(fmt.Sprintf("Leads (%d)", len(leads)), "ID", "NAME", "COMPANY", "STATUS", "VALUE", "PHONE")
			for _, l := range leads {
				t.add(l.ID, l.FullName(), l.Company, string(l.Status), money(l.EstimatedValue), l.Phone)
			}
			t.render(cmd.OutOrStdout())
			return nil
		},
	}
	list.Flags().StringVarP(&search, "search", "s", "", "match name, company or email")
	list.Flags().StringVar(&status, "status", "", "only leads with this status")

	var draft models.Lead
	var value string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a lead",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if value != "" {
				v, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return fmt.Errorf("invalid value %q", value)
				}
				draft.EstimatedValue = v
			}
			res, err := a.ws.LeadMutations.Create(cmd.Context(), draft)
			if err != nil {
				return failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created lead %s (%s)\n", res.ID, res.Entity.FullName())
			return nil
		},
	}
	add.Flags().StringVar(&draft.FirstName, "first", "", "first name")
	add.Flags().StringVar(&draft.LastName, "last", "", "last name")
	add.Flags().StringVar(&draft.Email, "email", "", "email address")
	add.Flags().StringVar(&draft.Phone, "phone", "", "phone number")
	add.Flags().StringVar(&draft.Company, "company", "", "company")
	add.Flags().StringVar(&draft.JobTitle, "title", "", "job title")
	add.Flags().StringVar(&draft.Source, "source", "", "lead source")
	add.Flags().StringVar((*string)(&draft.Status), "status", string(models.LeadStatusNew), "lead status")
	add.Flags().StringVar(&value, "value", "", "estimated value")
	_ = add.MarkFlagRequired("first")

	setStatus := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change a lead's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := models.LeadStatus(args[1])
			if _, err := a.ws.LeadMutations.Update(cmd.Context(), args[0], models.LeadPatch{Status: &st}); err != nil {
				return failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Lead %s is now %s\n", args[0], st)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.ws.LeadMutations.Delete(cmd.Context(), args[0]); err != nil {
				return failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted lead %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, setStatus, remove)
	return cmd
}
