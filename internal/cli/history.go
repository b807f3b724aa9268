package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kingoftheravens/fliwr.io/internal/protocol"
)

func newHistoryCmd() *cobra.Command {
	var (
		format string
		latest int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print a room's drawing history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRoom(); err != nil {
				return err
			}
			if format != "plain" && format != "json" {
				return fmt.Errorf("unknown format %q (use plain or json)", format)
			}

			hist, err := api().History(cmd.Context(), flagRoom)
			if err != nil {
				return err
			}
			if latest > 0 && latest < len(hist.Events) {
				hist.Events = hist.Events[len(hist.Events)-latest:]
				hist.Count = len(hist.Events)
			}

			return printHistory(cmd.OutOrStdout(), hist, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "plain", "output format: plain, json")
	cmd.Flags().IntVar(&latest, "latest", 0, "only print the N most recent events")

	return cmd
}

func printHistory(w io.Writer, hist *protocol.HistoryResponse, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(hist)
	}

	if len(hist.Events) == 0 {
		fmt.Fprintln(w, "no events")
		return nil
	}
	for _, ev := range hist.Events {
		fmt.Fprintln(w, formatPlain(ev))
	}
	return nil
}
