package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"stepgen/pkg/domain"
)

func (c *cli) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded simulation runs",
	}
	var query domain.HistoryQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.openSession(cmd.Context(), serviceNeeds{history: true})
			if err != nil {
				return err
			}
			defer s.Close()
			entries, err := s.svc.History(cmd.Context(), query)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tRUN\tNAME\tCOMMANDS\tERRORS\tHALTED\tCREATED")
			for _, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%t\t%s\n",
					e.ID, e.RunID, e.Name, e.CommandCount, e.ErrorCount, e.Halted, e.CreatedAt.UTC().Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	f := list.Flags()
	f.StringVar(&query.Name, "name", "", "only runs of this protocol name")
	f.StringVar(&query.ContentHash, "hash", "", "only runs of this protocol content hash")
	f.StringVar(&query.EngineVersion, "engine", "", "only runs made by this engine version")
	cmd.AddCommand(list)
	return cmd
}
