package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
	"github.com/OpenTraceLab/circuitwire/pkg/pathfind"
	"github.com/OpenTraceLab/circuitwire/pkg/wiring"
)

var routeScript string

var routeCmd = &cobra.Command{
	Use:   "route <sx> <sy> <dx> <dy>",
	Short: "Route one wire path",
	Long: `Find the cheapest wire path between two grid points. With --script the
path avoids the components, ports and wires the script places.`,
	Args: cobra.ExactArgs(4),
	RunE: runRoute,
}

func init() {
	rootCmd.AddCommand(routeCmd)
	routeCmd.Flags().StringVar(&routeScript, "script", "", "board script placing obstacles")
}

func runRoute(cmd *cobra.Command, args []string) error {
	var coords [4]int
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid coordinate %q: %w", arg, err)
		}
		coords[i] = v
	}
	src := geom.Pt(coords[0], coords[1])
	dst := geom.Pt(coords[2], coords[3])

	var board *wiring.Board
	var err error
	if routeScript != "" {
		board, err = loadBoard(cmd, routeScript)
	} else {
		var cfg *wiring.Config
		if cfg, err = boardConfig(cmd); err == nil {
			board, err = wiring.NewBoard(cfg)
		}
	}
	if err != nil {
		return err
	}

	finder := pathfind.Finder{MaxExpansions: maxExpansions}
	path, err := finder.BestPath(cmd.Context(), src, dst, obstacles(board, src, dst))
	if err != nil {
		return fmt.Errorf("no route from %s to %s: %w", src, dst, err)
	}

	out := cmd.OutOrStdout()
	length := 0
	for _, w := range path {
		fmt.Fprintf(out, "%s\n", w)
		length += w.Length
	}
	fmt.Fprintf(out, "Segments: %d, length: %d\n", len(path), length)
	return nil
}

// obstacles blocks component footprints, ports, wire endpoints and wires
// running in the same direction. The endpoints of the route are always
// preferred.
func obstacles(board *wiring.Board, src, dst geom.Point) pathfind.ValidFunc {
	components := board.Components()
	// runs[p][0] marks a horizontal wire through p, runs[p][1] a vertical one.
	runs := make(map[geom.Point][2]bool)
	for _, w := range board.Wires() {
		for _, p := range w.Points() {
			r := runs[p]
			if w.Horizontal {
				r[0] = true
			} else {
				r[1] = true
			}
			runs[p] = r
		}
	}

	return func(x, y int, horizontal bool) pathfind.Preference {
		p := geom.Pt(x, y)
		if p == src || p == dst {
			return pathfind.Prefer
		}
		for _, c := range components {
			if c.Contains(p) {
				return pathfind.Invalid
			}
		}
		for _, c := range board.ConnectionsAt(x, y) {
			if c.IsPort() || c.Endpoint {
				return pathfind.Invalid
			}
		}
		if r := runs[p]; (horizontal && r[0]) || (!horizontal && r[1]) {
			return pathfind.Invalid
		}
		return pathfind.Valid
	}
}
