package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerwatch/odb/objid"
	"github.com/ledgerwatch/odb/schema"
)

var (
	objTypeSID  uint64
	objIDFlag   string
	objFieldSID uint64
	objValue    string
)

func init() {
	objectCreateCmd.Flags().Uint64Var(&objTypeSID, "type", 0, "object type storage-id")
	objectCreateCmd.Flags().StringVar(&objIDFlag, "id", "", "hex object id to create (optional, a random one is allocated otherwise)")

	objectGetCmd.Flags().StringVar(&objIDFlag, "id", "", "hex object id")
	objectGetCmd.Flags().Uint64Var(&objFieldSID, "field", 0, "field storage-id")
	_ = objectGetCmd.MarkFlagRequired("id")
	_ = objectGetCmd.MarkFlagRequired("field")

	objectSetCmd.Flags().StringVar(&objIDFlag, "id", "", "hex object id")
	objectSetCmd.Flags().Uint64Var(&objFieldSID, "field", 0, "field storage-id")
	objectSetCmd.Flags().StringVar(&objValue, "value", "", "new field value, in the field's encoding")
	_ = objectSetCmd.MarkFlagRequired("id")
	_ = objectSetCmd.MarkFlagRequired("field")
	_ = objectSetCmd.MarkFlagRequired("value")

	objectRmCmd.Flags().StringVar(&objIDFlag, "id", "", "hex object id")
	_ = objectRmCmd.MarkFlagRequired("id")

	objectCmd.AddCommand(objectCreateCmd, objectGetCmd, objectSetCmd, objectRmCmd)
	rootCmd.AddCommand(objectCmd)
}

var objectCmd = &cobra.Command{
	Use:   "object",
	Short: "Create, inspect and mutate individual objects",
}

var objectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an object of the given type",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		tx, err := s.openTx(nil, s.latestVersion())
		if err != nil {
			return err
		}
		var idOpt *objid.ObjID
		if objIDFlag != "" {
			id, err := parseObjID(objIDFlag)
			if err != nil {
				return err
			}
			idOpt = &id
		}
		id, _, err := tx.Create(idOpt, objTypeSID, tx.Version().Number)
		if err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		fmt.Println(id.String())
		return s.save()
	},
}

var objectGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Read a simple or counter field",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		tx, err := s.openTx(nil, s.latestVersion())
		if err != nil {
			return err
		}
		id, err := parseObjID(objIDFlag)
		if err != nil {
			return err
		}
		f, ok := fieldOf(tx, id, objFieldSID)
		if !ok {
			return fmt.Errorf("odb: unknown field %d", objFieldSID)
		}
		if f.Kind == schema.Counter {
			v, err := tx.ReadCounter(id, objFieldSID, true)
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		}
		v, err := tx.ReadSimple(id, objFieldSID, true)
		if err != nil {
			return err
		}
		fmt.Println(formatValue(v))
		return nil
	},
}

var objectSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Write a simple field",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		tx, err := s.openTx(nil, s.latestVersion())
		if err != nil {
			return err
		}
		id, err := parseObjID(objIDFlag)
		if err != nil {
			return err
		}
		f, ok := fieldOf(tx, id, objFieldSID)
		if !ok {
			return fmt.Errorf("odb: unknown field %d", objFieldSID)
		}
		v, err := parseValue(f.Encoding, objValue)
		if err != nil {
			return err
		}
		if err := tx.WriteSimple(id, objFieldSID, v, true); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		return s.save()
	},
}

var objectRmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Delete an object, cascading per its reference policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		tx, err := s.openTx(nil, s.latestVersion())
		if err != nil {
			return err
		}
		id, err := parseObjID(objIDFlag)
		if err != nil {
			return err
		}
		existed, err := tx.Delete(id)
		if err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		fmt.Println(existed)
		return s.save()
	},
}
