package commands

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "odb",
	Short: "Inspect and mutate a schema-aware object store",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "odb.snapshot", "path to the store's snapshot file")
}

// Execute runs the CLI, returning any error a subcommand surfaced.
func Execute() error {
	return rootCmd.Execute()
}
