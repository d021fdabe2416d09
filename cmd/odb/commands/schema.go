package commands

import (
	"fmt"
	"io/ioutil"

	"github.com/spf13/cobra"

	"github.com/ledgerwatch/odb/log"
	"github.com/ledgerwatch/odb/schema"
)

var schemaInstallFile string

func init() {
	schemaInstallCmd.Flags().StringVar(&schemaInstallFile, "file", "", "path to a schema model JSON file")
	_ = schemaInstallCmd.MarkFlagRequired("file")
	schemaCmd.AddCommand(schemaInstallCmd, schemaListCmd)
	rootCmd.AddCommand(schemaCmd)
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage installed schema versions",
}

var schemaInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install a schema model, allocating a new version if it isn't already known",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := ioutil.ReadFile(schemaInstallFile)
		if err != nil {
			return err
		}
		model, err := schema.Decode(b)
		if err != nil {
			return err
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		tx, err := s.openTx(model, 0)
		if err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		log.Info("schema installed", "version", tx.Version().Number)
		fmt.Println(tx.Version().Number)
		return s.save()
	},
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed schema versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		for _, v := range s.registry.Versions() {
			fmt.Printf("%d\t%d object type(s)\n", v.Number, len(v.Model.ObjectTypes))
		}
		return nil
	},
}
