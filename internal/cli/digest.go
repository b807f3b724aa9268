package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingoftheravens/fliwr.io/internal/synopsis"
)

func newDigestCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Save a markdown summary of a room's canvas",
		Long: `Fetches the room's history and presence and writes a markdown digest:
contributors, colors, canvas extent and a timeline of strokes and clears.
An existing file is appended to.

Examples:
  fliwr digest -r demo                    # Write fliwr-digest.md
  fliwr digest -r demo -o notes.md        # Custom output file
  fliwr digest -r demo -o -               # Print to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireRoom(); err != nil {
				return err
			}

			client := api()
			hist, err := client.History(cmd.Context(), flagRoom)
			if err != nil {
				return err
			}
			users, err := client.Users(cmd.Context(), flagRoom)
			if err != nil {
				return err
			}

			content := synopsis.Build(flagRoom, hist.Events, users.Users, time.Now())
			if outputFile == "-" {
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			}

			if err := writeDigestFile(outputFile, content); err != nil {
				return fmt.Errorf("write %s: %w", outputFile, err)
			}
			fmt.Fprintf(os.Stderr, "wrote digest of %d events to %s\n", hist.Count, outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "fliwr-digest.md", "output file path (- for stdout)")

	return cmd
}

func writeDigestFile(path, content string) error {
	// If file exists, append with a separator.
	if existing, err := os.ReadFile(path); err == nil {
		content = string(existing) + "\n\n---\n\n" + content
	}
	return os.WriteFile(path, []byte(content), 0644)
}
