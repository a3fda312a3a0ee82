package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/versio-mono/versio/internal/state"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
// PersistentPreRunE enforces the process-wide pausefile lock: every
// subcommand refuses to run while a release is paused, except `release`
// itself (which handles --resume/--abort explicitly).
var rootCmd = &cobra.Command{
	Use:   "versio",
	Short: "Plan and release versions across a monorepo's projects",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "release" {
			return nil
		}
		if state.PauseFileExists(repoPath()) {
			return fmt.Errorf("release is paused in %s; run `versio release --resume` or `--abort`", repoPath())
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	cobra.OnInitialize(initConfig)

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.versio.yaml)")
	rootCmd.PersistentFlags().StringP("repo", "r", cwd, "path to git repository")
	if err := rootCmd.MarkPersistentFlagDirname("repo"); err != nil {
		panic(err)
	}

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".versio")
	}

	viper.SetEnvPrefix("VERSIO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// repoPath returns the --repo flag value as given.
func repoPath() string {
	return viper.GetString("repo")
}
