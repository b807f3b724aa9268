package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the users connected to a room",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRoom(); err != nil {
				return err
			}
			list, err := api().Users(cmd.Context(), flagRoom)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list.Users) == 0 {
				fmt.Fprintf(out, "nobody in %s\n", list.Room)
				return nil
			}
			for _, u := range list.Users {
				fmt.Fprintf(out, "%-30s %s\n", u.Username, u.ID)
			}
			return nil
		},
	}
}
