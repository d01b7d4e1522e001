package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var passesCmd = &cobra.Command{
	Use:   "passes [step...]",
	Short: "Show the pass order a step schedule resolves to",
	Long: `Resolve step groups against their dependencies and print the pass order
they would run in. With no arguments, lists the known step groups.`,
	RunE: runPasses,
}

func runPasses(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		names := make([]string, 0, len(stepGroups))
		for name := range stepGroups {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	steps, err := resolveSteps(args)
	if err != nil {
		return err
	}
	for i, name := range scheduledPassNames(steps) {
		fmt.Fprintf(out, "%d. %s\n", i+1, name)
	}
	return nil
}
