package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/versio-mono/versio/internal/mono"
)

var (
	releaseAll    bool
	releaseDry    bool
	releasePause  bool
	releaseResume bool
	releaseAbort  bool
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Plan, write, and tag the next version for every project with a pending increment",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mono.Open(repoPath())
		if err != nil {
			return err
		}

		if releaseAbort {
			return m.Abort()
		}
		if releaseResume {
			_, err := m.Resume()
			if err != nil {
				return err
			}
			fmt.Println("resumed and completed release")
			return nil
		}

		result, err := m.Release(mono.ReleaseOptions{All: releaseAll, Dry: releaseDry, Pause: releasePause})
		if err != nil {
			return err
		}
		if result.Paused {
			fmt.Println("release paused; run `versio release --resume` to continue or `--abort` to cancel")
			return nil
		}
		var rows []string
		for id, ver := range result.Versions {
			proj := m.Current.Config.Project(id)
			name := fmt.Sprintf("%d", id)
			if proj != nil {
				name = proj.Name
			}
			rows = append(rows, fmt.Sprintf("%s -> %s", name, ver))
		}
		out, err := renderMarkdown(releaseSummaryMarkdown(rows))
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	releaseCmd.Flags().BoolVar(&releaseAll, "all", false, "tag every project, even those with no computed increment")
	releaseCmd.Flags().BoolVar(&releaseDry, "dry-run", false, "compute target versions without writing or committing")
	releaseCmd.Flags().BoolVar(&releasePause, "pause", false, "stage writes, then pause before committing and tagging")
	releaseCmd.Flags().BoolVar(&releaseResume, "resume", false, "resume a paused release")
	releaseCmd.Flags().BoolVar(&releaseAbort, "abort", false, "cancel a paused release")
	rootCmd.AddCommand(releaseCmd)
}
