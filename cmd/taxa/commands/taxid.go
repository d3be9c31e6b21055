package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/taxa/display"
	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/sym"
	"github.com/teranos/taxa/taxonomy"
)

func newTaxidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxid",
		Short: sym.AX + " Return a taxid",
		Long: sym.AX + ` taxid - Return a taxid

Exactly one selector is allowed per call.

Examples:
  taxa taxid --parent 2004          # 85012
  taxa taxid --genus 562            # 561
  taxa taxid --species 83333        # 562
  taxa taxid --superkingdom 562     # 2
  taxa taxid --parents-all 562      # [561, 543, ..., 1]
  taxa taxid --common 562 623       # 543`,
		RunE: runTaxid,
	}

	cmd.Flags().String("parent", "", "Get the parent taxid")
	cmd.Flags().String("genus", "", "Get the taxid of the genus")
	cmd.Flags().String("species", "", "Get the taxid of the species")
	cmd.Flags().String("superkingdom", "", "Get the taxid of the superkingdom (or domain)")
	cmd.Flags().String("parents-all", "", "Get every parent taxid, most specific first")
	cmd.Flags().Bool("common", false, "Get the closest common parent of two taxids given as arguments")
	cmd.MarkFlagsMutuallyExclusive("parent", "genus", "species", "superkingdom", "parents-all", "common")
	return cmd
}

func runTaxid(cmd *cobra.Command, args []string) error {
	selector, err := exactlyOne(cmd, "parent", "genus", "species", "superkingdom", "parents-all", "common")
	if err != nil {
		return err
	}

	e, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	if selector == "common" {
		if err := argCount(selector, args, 2); err != nil {
			return err
		}
		ids, err := queryIDs(cmd, e, args...)
		if err != nil {
			return err
		}
		anc, err := e.CommonAncestor(ids[0], ids[1])
		if err != nil {
			return err
		}
		return display.OutputJSON(anc.LCA)
	}

	if len(args) > 0 {
		return errors.NewInvalidRequestError("--%s takes its taxid as the flag value; unexpected arguments %v", selector, args)
	}
	raw, _ := cmd.Flags().GetString(selector)
	id, err := queryID(cmd, e, raw)
	if err != nil {
		return err
	}

	var result taxonomy.Taxid
	switch selector {
	case "parent":
		result, err = e.Parent(id)
	case "genus":
		result, err = e.GenusOf(id)
	case "species":
		result, err = e.SpeciesOf(id)
	case "superkingdom":
		result, err = e.SuperkingdomOf(id)
	case "parents-all":
		parents, err := e.Parents(id)
		if err != nil {
			return err
		}
		return display.OutputJSON(parents)
	}
	if err != nil {
		return err
	}
	return display.OutputJSON(result)
}
