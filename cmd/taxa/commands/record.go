package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/taxa/display"
	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/sym"
	"github.com/teranos/taxa/taxonomy"
)

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: sym.AX + " Return a full taxon record",
		Long: sym.AX + ` record - Return a full taxon record

Records print as {"taxid", "name", "rank", "parent_taxid"}.

Examples:
  taxa record --record 1              # {"taxid":1,"name":"root","rank":"no rank","parent_taxid":1}
  taxa record --parent 562            # the Escherichia record
  taxa record --common 9612 34199     # the Eukaryota record`,
		RunE: runRecord,
	}

	cmd.Flags().String("record", "", "Get the record of a taxid")
	cmd.Flags().String("parent", "", "Get the parent record")
	cmd.Flags().Bool("common", false, "Get the closest common parent record of two taxids given as arguments")
	cmd.MarkFlagsMutuallyExclusive("record", "parent", "common")
	return cmd
}

func runRecord(cmd *cobra.Command, args []string) error {
	selector, err := exactlyOne(cmd, "record", "parent", "common")
	if err != nil {
		return err
	}

	e, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	var rec taxonomy.Record
	switch selector {
	case "common":
		if err := argCount(selector, args, 2); err != nil {
			return err
		}
		ids, err := queryIDs(cmd, e, args...)
		if err != nil {
			return err
		}
		if rec, err = e.CommonAncestorRecord(ids[0], ids[1]); err != nil {
			return err
		}

	default:
		if len(args) > 0 {
			return errors.NewInvalidRequestError("--%s takes its taxid as the flag value; unexpected arguments %v", selector, args)
		}
		raw, _ := cmd.Flags().GetString(selector)
		id, err := queryID(cmd, e, raw)
		if err != nil {
			return err
		}
		if selector == "parent" {
			rec, err = e.ParentRecord(id)
		} else {
			rec, err = e.Record(id)
		}
		if err != nil {
			return err
		}
	}
	return display.OutputJSON(rec)
}
