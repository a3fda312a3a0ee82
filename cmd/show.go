package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/versio-mono/versio/internal/mono"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every project's id, name, and current version",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mono.Open(repoPath())
		if err != nil {
			return err
		}
		for _, p := range m.Current.Config.Projects {
			val, err := p.GetValue(m.Current.Source(), m.Tags)
			if err != nil {
				fmt.Printf("%d: %s = <error: %v>\n", p.Id, p.Name, err)
				continue
			}
			fmt.Printf("%d: %s = %s\n", p.Id, p.Name, val)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
