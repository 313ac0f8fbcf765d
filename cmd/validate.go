package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/jurisprep/internal/skillgraph"
)

var validateCmd = &cobra.Command{
	Use:   "validate <curriculum.json>",
	Short: "Validate a curriculum file",
	Long: `Checks a curriculum file against the schema and the catalog
invariants: unique IDs, resolvable prerequisites, acyclic prerequisite
graph, and per-unit exam weights summing to 1.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := skillgraph.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("OK: %d units, %d skills.\n", len(g.Units()), len(g.AllSkills()))
		return nil
	},
}
