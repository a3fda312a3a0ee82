package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/versio-mono/versio/internal/config"
	"github.com/versio-mono/versio/internal/mono"
)

var filesCmd = &cobra.Command{
	Use:   "files [project]",
	Short: "List the working-tree files each project covers",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mono.Open(repoPath())
		if err != nil {
			return err
		}

		if len(args) == 1 {
			id, err := m.Current.Config.FindUnique(args[0])
			if err != nil {
				return err
			}
			return listCovered(repoPath(), m.Current.Config.Project(id))
		}

		for _, p := range m.Current.Config.Projects {
			fmt.Printf("%s:\n", p.Name)
			if err := listCovered(repoPath(), p); err != nil {
				return err
			}
		}
		return nil
	},
}

func listCovered(root string, p *config.Project) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, ".git/") {
			return nil
		}
		ok, err := p.Covers(rel)
		if err != nil {
			return err
		}
		if ok {
			fmt.Println("  " + rel)
		}
		return nil
	})
}

func init() {
	rootCmd.AddCommand(filesCmd)
}
