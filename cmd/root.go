// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "devnotes",
	Short: "Collects GitHub activity into Obsidian daily notes.",
	Long: `devnotes collects GitHub activity (commits, pull requests, issues)
for a set of tracked repositories on a given date and merges a generated
Markdown summary into the matching daily-note file of an Obsidian vault.
Manually written note content is always preserved.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Persistent flags are available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "devnotes.json", "Path to the JSON config file")
}
