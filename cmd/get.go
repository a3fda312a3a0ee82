package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/versio-mono/versio/internal/mono"
)

var getCmd = &cobra.Command{
	Use:   "get <project>",
	Short: "Print a single project's current version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mono.Open(repoPath())
		if err != nil {
			return err
		}
		id, err := m.Current.Config.FindUnique(args[0])
		if err != nil {
			return err
		}
		p := m.Current.Config.Project(id)
		val, err := p.GetValue(m.Current.Source(), m.Tags)
		if err != nil {
			return err
		}
		fmt.Println(val)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
