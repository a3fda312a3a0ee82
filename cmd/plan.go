package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/versio-mono/versio/internal/mono"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute and print each project's pending size increment",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mono.Open(repoPath())
		if err != nil {
			return err
		}
		p, err := m.Plan()
		if err != nil {
			return err
		}
		for _, proj := range m.Current.Config.Projects {
			incr, ok := p.Incrs[proj.Id]
			if !ok {
				continue
			}
			fmt.Printf("%d: %s -> %s (%d PRs)\n", proj.Id, proj.Name, incr.Size, len(incr.ChangeLog))
		}
		if len(p.Ineffective) > 0 {
			fmt.Printf("%d PRs touched no covered path\n", len(p.Ineffective))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
