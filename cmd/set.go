package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/versio-mono/versio/internal/mono"
	"github.com/versio-mono/versio/internal/state"
)

var forwardFlag bool

var setCmd = &cobra.Command{
	Use:   "set [version] [project]",
	Short: "Force a project's version to a specific value and commit the change",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mono.Open(repoPath())
		if err != nil {
			return err
		}
		sw := state.NewStateWrite(repoPath(), m.Repo)

		if forwardFlag {
			if len(args) == 0 {
				return fmt.Errorf("--forward requires a project name")
			}
			id, err := m.Current.Config.FindUnique(args[0])
			if err != nil {
				return err
			}
			if err := m.ForwardById(sw, id); err != nil {
				return err
			}
		} else {
			if len(args) == 0 {
				return fmt.Errorf("set requires a version, or --forward with a project name")
			}
			val := args[0]
			if len(args) == 2 {
				if err := m.SetByName(sw, args[1], val); err != nil {
					return err
				}
			} else {
				if err := m.SetByOnly(sw, val); err != nil {
					return err
				}
			}
		}

		if err := sw.Commit(m.Current.Config.PrevTag(), nil, nil); err != nil {
			return err
		}
		fmt.Println("version set")
		return nil
	},
}

func init() {
	setCmd.Flags().BoolVar(&forwardFlag, "forward", false, "accept the project's current on-disk version without applying a size increment")
	rootCmd.AddCommand(setCmd)
}
