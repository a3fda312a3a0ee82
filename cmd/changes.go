package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/versio-mono/versio/internal/mono"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "List the pull requests considered since the last release",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mono.Open(repoPath())
		if err != nil {
			return err
		}
		changes, err := m.Source.Changes(m.Repo, "HEAD", m.Current.Config.PrevTag())
		if err != nil {
			return err
		}
		for _, pr := range changes.Groups() {
			guess := ""
			if pr.BestGuess {
				guess = " (best guess)"
			}
			fmt.Printf("PR #%d closed %s%s\n", pr.Number, pr.ClosedAt.Format("2006-01-02"), guess)
			for _, c := range pr.IncludedCommits() {
				fmt.Printf("  %s %s\n", c.ID()[:min(8, len(c.ID()))], c.Summary())
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(changesCmd)
}
