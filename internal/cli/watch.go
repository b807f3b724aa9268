package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kingoftheravens/fliwr.io/internal/protocol"
	"github.com/kingoftheravens/fliwr.io/internal/wsclient"
)

func newWatchCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a room's canvas and presence live via WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRoom(); err != nil {
				return err
			}
			name := flagName
			if name == "" {
				name = "watcher"
			}
			if _, err := wsclient.WSURL(flagServer); err != nil {
				return err
			}

			format := formatColor
			if noColor {
				format = formatPlain
			}

			conn := wsclient.NewConn(flagServer, flagRoom, name)
			go conn.Run(cmd.Context())
			fmt.Fprintf(os.Stderr, "watching room %q as %q (Ctrl+C to stop)\n", flagRoom, name)

			out := cmd.OutOrStdout()
			for msg := range conn.Events() {
				switch msg.Type {
				case protocol.TypeHistory:
					fmt.Fprintf(out, "--- history: %d events ---\n", len(msg.Events))
					for _, ev := range msg.Events {
						fmt.Fprintln(out, format(ev))
					}
				case protocol.TypeUsers:
					fmt.Fprintln(out, formatUsers(msg.Users))
				case protocol.TypeDraw, protocol.TypeClear:
					fmt.Fprintln(out, format(msg.AsEvent()))
				}
			}
			fmt.Fprintln(os.Stderr, "disconnected")
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output (useful for piping/logging)")

	return cmd
}
