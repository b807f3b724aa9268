package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingoftheravens/fliwr.io/internal/protocol"
	"github.com/kingoftheravens/fliwr.io/internal/wsclient"
)

const joinTimeout = 10 * time.Second

// withSession joins the room from the global flags, runs fn and leaves.
func withSession(ctx context.Context, fn func(*wsclient.Session) error) error {
	if err := requireRoom(); err != nil {
		return err
	}
	joinCtx, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()

	s, err := wsclient.Join(joinCtx, flagServer, flagRoom, flagName)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func newDrawCmd() *cobra.Command {
	var (
		color string
		width float64
	)

	cmd := &cobra.Command{
		Use:   "draw x,y [x,y ...]",
		Short: "Draw one stroke in a room",
		Long: `Joins the room, sends one stroke through the given points and leaves.

Examples:
  fliwr draw 10,10 200,10 200,200 -r demo
  fliwr draw "0,0 50,50" --color "#e91e63" --width 6`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := protocol.ParsePoints(args...)
			if err != nil {
				return err
			}
			if width <= 0 {
				return fmt.Errorf("width must be positive")
			}

			err = withSession(cmd.Context(), func(s *wsclient.Session) error {
				return s.Draw(points, color, width)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "drew %d points in %s\n", len(points), flagRoom)
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "#000000", "stroke color")
	cmd.Flags().Float64Var(&width, "width", 2, "stroke width in pixels")

	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear a room's canvas for everyone",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withSession(cmd.Context(), func(s *wsclient.Session) error {
				return s.Clear()
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "cleared %s\n", flagRoom)
			return nil
		},
	}
}
