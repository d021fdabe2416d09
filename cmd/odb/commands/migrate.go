package commands

import (
	"github.com/spf13/cobra"

	"github.com/ledgerwatch/odb/migrations"
)

var migrateCurrentVersion uint64

func init() {
	migrateCmd.Flags().Uint64Var(&migrateCurrentVersion, "current", 0, "schema version new writes target; pruning never removes it")
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run pending store-maintenance migrations (composite index backfill, deprecated-version pruning)",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		current := migrateCurrentVersion
		if current == 0 {
			current = s.latestVersion()
		}
		mc := migrations.Context{
			KV:             s.mem,
			Registry:       s.registry,
			FieldTypes:     s.ftypes,
			CurrentVersion: current,
		}
		if err := migrations.NewMigrator().Apply(s.ctx, mc); err != nil {
			return err
		}
		return s.save()
	},
}
