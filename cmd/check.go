package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/versio-mono/versio/internal/mono"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the manifest and report every project it declares",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mono.Open(repoPath())
		if err != nil {
			return err
		}
		for _, p := range m.Current.Config.Projects {
			fmt.Printf("%d: %s\n", p.Id, p.Name)
		}
		fmt.Println("manifest is valid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
