package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/versio-mono/versio/internal/mono"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the manifest location, prev_tag, and branch",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mono.Open(repoPath())
		if err != nil {
			return err
		}
		branch, err := m.Repo.BranchName()
		if err != nil {
			branch = "<detached>"
		}
		fmt.Printf("manifest: %s\n", m.ManifestPath())
		fmt.Printf("prev_tag: %s\n", m.Current.Config.PrevTag())
		fmt.Printf("branch:   %s\n", branch)
		fmt.Printf("projects: %d\n", len(m.Current.Config.Projects))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
