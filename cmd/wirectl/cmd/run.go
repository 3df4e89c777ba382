package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/circuitwire/pkg/script"
	"github.com/OpenTraceLab/circuitwire/pkg/wiring"
)

var runJSON bool

var runCmd = &cobra.Command{
	Use:   "run <script_file>",
	Short: "Run a board script and print the nets",
	Long: `Execute a board script and print every resulting net with its wires,
ports and bit widths. Nets joining ports of different widths are flagged.`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runJSON, "json", false, "export the netlist as JSON")
}

func runScript(cmd *cobra.Command, args []string) error {
	board, err := loadBoard(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runJSON {
		data, err := board.ExportJSON()
		if err != nil {
			return fmt.Errorf("error exporting netlist: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	showNets(out, board)
	return nil
}

// loadBoard builds a board and runs the script at path on it.
func loadBoard(cmd *cobra.Command, path string) (*wiring.Board, error) {
	cfg, err := boardConfig(cmd)
	if err != nil {
		return nil, err
	}
	board, err := wiring.NewBoard(cfg)
	if err != nil {
		return nil, err
	}

	parser, err := script.NewParser()
	if err != nil {
		return nil, err
	}
	s, err := parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("error parsing script: %w", err)
	}
	if err := script.NewRunner(board, cfg.Logger).Run(cmd.Context(), s); err != nil {
		return nil, fmt.Errorf("error running script: %w", err)
	}
	return board, nil
}

func showNets(out io.Writer, board *wiring.Board) {
	nets := board.Netlist()
	fmt.Fprintf(out, "Components: %d\n", len(board.Components()))
	fmt.Fprintf(out, "Nets: %d\n", len(nets))
	fmt.Fprintln(out)

	for _, n := range nets {
		fmt.Fprintf(out, "Net %d", n.ID)
		if !n.Valid {
			fmt.Fprintf(out, " (width mismatch: %v)", n.BitWidths)
		}
		fmt.Fprintln(out)
		if len(n.Ports) > 0 {
			fmt.Fprintf(out, "  Ports: %s\n", strings.Join(n.Ports, ", "))
		}
		for _, w := range n.Wires {
			fmt.Fprintf(out, "  Wire: %s\n", w)
		}
	}

	if err := board.LastError(); err != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Last error: %v\n", err)
	}
}
