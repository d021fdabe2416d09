package commands

import (
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	idxFieldSID     uint64
	idxCompositeSID uint64
	idxWidths       string
)

func init() {
	indexDumpCmd.Flags().Uint64Var(&idxFieldSID, "field", 0, "indexed field storage-id")
	indexDumpCompositeCmd.Flags().Uint64Var(&idxCompositeSID, "composite", 0, "composite index storage-id")
	indexDumpCompositeCmd.Flags().StringVar(&idxWidths, "widths", "", "comma-separated byte width of each composite component")
	indexCmd.AddCommand(indexDumpCmd, indexDumpCompositeCmd)
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect index contents",
}

var indexDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump every entry of a simple (or indexed sub-field) index",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		tx, err := s.openTx(nil, s.latestVersion())
		if err != nil {
			return err
		}
		entries, err := tx.QuerySimpleIndex(idxFieldSID, nil)
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"value", "object id"})
		for _, e := range entries {
			table.Append([]string{formatValue(e.Value), e.ObjID.String()})
		}
		table.Render()
		return nil
	},
}

var indexDumpCompositeCmd = &cobra.Command{
	Use:   "dump-composite",
	Short: "Dump every entry of a composite index",
	RunE: func(cmd *cobra.Command, args []string) error {
		widths, err := parseWidths(idxWidths)
		if err != nil {
			return err
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		tx, err := s.openTx(nil, s.latestVersion())
		if err != nil {
			return err
		}
		entries, err := tx.QueryCompositeIndex(idxCompositeSID, widths)
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"values", "object id"})
		for _, e := range entries {
			parts := make([]string, len(e.Values))
			for i, v := range e.Values {
				parts[i] = formatValue(v)
			}
			table.Append([]string{strings.Join(parts, ", "), e.ObjID.String()})
		}
		table.Render()
		return nil
	},
}

func parseWidths(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
