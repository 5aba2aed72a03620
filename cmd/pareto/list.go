package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shaigundersen/Optimization-Project/internal/problem"
	"github.com/shaigundersen/Optimization-Project/internal/scalarize"
	"github.com/shaigundersen/Optimization-Project/internal/solver"
)

var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "List the catalog problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVARIABLES\tCONSTRAINTS\tDESCRIPTION")
		for _, name := range problem.Names() {
			p, err := problem.Lookup(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", p.Name, len(p.Variables), len(p.Constraints), p.Description)
		}
		return w.Flush()
	},
}

var solversCmd = &cobra.Command{
	Use:   "solvers",
	Short: "List the registered solver backends",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range solver.Names() {
			fmt.Println(name)
		}
	},
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the scalarization strategies",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range scalarize.StrategyNames() {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.AddCommand(problemsCmd)
	rootCmd.AddCommand(solversCmd)
	rootCmd.AddCommand(strategiesCmd)
}
