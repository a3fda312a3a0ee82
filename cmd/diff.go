package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/versio-mono/versio/internal/mono"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare every project's current version against its prior release",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mono.Open(repoPath())
		if err != nil {
			return err
		}
		diffs, err := m.Diff()
		if err != nil {
			return err
		}
		for _, d := range diffs {
			mark := " "
			if d.Changed {
				mark = "*"
			}
			fmt.Printf("%s %d: %s  %s -> %s\n", mark, d.Id, d.Name, d.Previous, d.Current)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
