package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/taxa/display"
	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/graph"
	"github.com/teranos/taxa/sym"
	"github.com/teranos/taxa/taxonomy"
)

// cladeFlags maps the shorthand membership flags to clade names
var cladeFlags = map[string]string{
	"is-archaea":   "archaea",
	"is-bacteria":  "bacteria",
	"is-eukaryote": "eukaryote",
	"is-virus":     "virus",
	"is-phage":     "phage",
}

var checkSelectors = []string{
	"levels-between", "graph", "is-archaea", "is-bacteria", "is-eukaryote",
	"is-virus", "is-phage", "is", "clades", "status",
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: sym.AX + " Check relationships, clade membership and status",
		Long: sym.AX + ` check - Check relationships, clade membership and status

Examples:
  taxa check --levels-between 562 9612   # {"left_levels_to_common_parent":26,...}
  taxa check --graph 562 623 9612        # Lineage tree of several taxa
  taxa check --graph 562 --json          # The same graph as nodes and links
  taxa check --is-archaea 2173           # true
  taxa check --is phage 2560487          # any configured clade
  taxa check --clades 9612               # ["eukaryote"]
  taxa check --status 12                 # {"isCurrent":false,"isDeleted":false,"isMerged":74109}`,
		RunE: runCheck,
	}

	cmd.Flags().Bool("levels-between", false, "Count the levels between two taxids given as arguments")
	cmd.Flags().Bool("graph", false, "Display the lineage tree of one or more taxids given as arguments")
	cmd.Flags().Bool("json", false, "With --graph, print the graph as JSON instead of a tree")
	cmd.Flags().String("is-archaea", "", "Check whether a taxid is an archaeon")
	cmd.Flags().String("is-bacteria", "", "Check whether a taxid is a bacterium")
	cmd.Flags().String("is-eukaryote", "", "Check whether a taxid is a eukaryote")
	cmd.Flags().String("is-virus", "", "Check whether a taxid is a virus")
	cmd.Flags().String("is-phage", "", "Check whether a taxid is a phage (Caudoviricetes)")
	cmd.Flags().String("is", "", "Check membership of the taxid argument in the named clade")
	cmd.Flags().String("clades", "", "List every configured clade containing a taxid")
	cmd.Flags().String("status", "", "Check whether a taxid is current, merged or deleted")
	cmd.MarkFlagsMutuallyExclusive(checkSelectors...)
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	selector, err := exactlyOne(cmd, checkSelectors...)
	if err != nil {
		return err
	}

	e, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	switch selector {
	case "levels-between":
		if err := argCount(selector, args, 2); err != nil {
			return err
		}
		ids, err := queryIDs(cmd, e, args...)
		if err != nil {
			return err
		}
		levels, err := e.LevelsBetween(ids[0], ids[1])
		if err != nil {
			return err
		}
		return display.OutputJSON(levels)

	case "graph":
		if err := argCount(selector, args, 0); err != nil {
			return err
		}
		ids, err := queryIDs(cmd, e, args...)
		if err != nil {
			return err
		}
		g, err := graph.Build(e, ids...)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return display.OutputJSON(g)
		}
		return graph.RenderTree(display.Stdout, g)

	case "is":
		if err := argCount(selector, args, 1); err != nil {
			return err
		}
		clade, _ := cmd.Flags().GetString(selector)
		return checkClade(cmd, e, clade, args[0])

	case "status":
		if len(args) > 0 {
			return errors.NewInvalidRequestError("--status takes its taxid as the flag value; unexpected arguments %v", args)
		}
		raw, _ := cmd.Flags().GetString(selector)
		// status reports merges rather than following them
		id, err := taxonomy.ParseTaxid(raw)
		if err != nil {
			return err
		}
		st, err := e.ResolveStatus(id)
		if err != nil {
			return err
		}
		return display.OutputJSON(st.Report())
	}

	if len(args) > 0 {
		return errors.NewInvalidRequestError("--%s takes its taxid as the flag value; unexpected arguments %v", selector, args)
	}
	raw, _ := cmd.Flags().GetString(selector)

	if selector == "clades" {
		id, err := queryID(cmd, e, raw)
		if err != nil {
			return err
		}
		clades, err := e.CladesOf(id)
		if err != nil {
			return err
		}
		return display.OutputJSON(clades)
	}
	return checkClade(cmd, e, cladeFlags[selector], raw)
}

func checkClade(cmd *cobra.Command, e *taxonomy.Engine, clade, raw string) error {
	id, err := queryID(cmd, e, raw)
	if err != nil {
		return err
	}
	member, err := e.IsClade(id, clade)
	if err != nil {
		return err
	}
	return display.OutputJSON(member)
}
