package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRoomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List rooms on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := api().Rooms(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list.Rooms) == 0 {
				fmt.Fprintln(out, "no rooms")
				return nil
			}

			fmt.Fprintf(out, "%-20s %8s %8s %8s %9s\n", "ROOM", "CLIENTS", "EVENTS", "EVICTED", "LAST")
			for _, r := range list.Rooms {
				last := "-"
				if r.LastEventTS > 0 {
					last = time.UnixMilli(r.LastEventTS).Local().Format("15:04:05")
				}
				fmt.Fprintf(out, "%-20s %8d %8d %8d %9s\n", r.Name, r.Clients, r.EventCount, r.Evicted, last)
			}
			return nil
		},
	}
}
