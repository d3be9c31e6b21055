// Package taxdump reads NCBI taxonomy dump files into a taxonomy.Snapshot.
//
// Dump files are line oriented. Fields are separated by "\t|\t" and every
// line ends in "\t|". Only the leading columns taxa needs are read; the
// rest are ignored so newer dumps with extra columns still parse.
package taxdump

import (
	"bufio"
	"io"
	"strings"

	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/taxonomy"
)

// File names inside an extracted dump.
const (
	NodesFile           = "nodes.dmp"
	FullNameLineageFile = "fullnamelineage.dmp"
	NamesFile           = "names.dmp"
	MergedFile          = "merged.dmp"
	DelNodesFile        = "delnodes.dmp"
)

const (
	fieldSep   = "\t|\t"
	lineSuffix = "\t|"

	scientificName = "scientific name"

	// fullnamelineage.dmp rows carry every ancestor name.
	maxLineBytes = 4 << 20
)

// Node is one row of nodes.dmp.
type Node struct {
	Taxid  taxonomy.Taxid
	Parent taxonomy.Taxid
	Rank   string
}

// lineError builds a malformed-input failure that names its location.
func lineError(file string, line int, format string, args ...interface{}) error {
	err := errors.NewInvalidRequestError(format, args...)
	return errors.Wrapf(err, "%s line %d", file, line)
}

// scanRows calls fn with the fields of each non-empty line. fn receives
// the 1-based line number for error reporting.
func scanRows(r io.Reader, file string, minFields int, fn func(line int, fields []string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r\n")
		if text == "" {
			continue
		}
		text = strings.TrimSuffix(text, lineSuffix)
		fields := strings.Split(text, fieldSep)
		if len(fields) < minFields {
			return lineError(file, line, "expected at least %d fields, got %d", minFields, len(fields))
		}
		if err := fn(line, fields); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrapf(err, "read %s after line %d", file, line)
	}
	return nil
}

func parseID(file string, line int, field, raw string) (taxonomy.Taxid, error) {
	id, err := taxonomy.ParseTaxid(raw)
	if err != nil {
		return 0, lineError(file, line, "bad %s %q", field, strings.TrimSpace(raw))
	}
	return id, nil
}

// ParseNodes reads nodes.dmp: taxid, parent taxid, rank.
func ParseNodes(r io.Reader) ([]Node, error) {
	var nodes []Node
	err := scanRows(r, NodesFile, 3, func(line int, f []string) error {
		id, err := parseID(NodesFile, line, "taxid", f[0])
		if err != nil {
			return err
		}
		parent, err := parseID(NodesFile, line, "parent taxid", f[1])
		if err != nil {
			return err
		}
		nodes = append(nodes, Node{Taxid: id, Parent: parent, Rank: strings.TrimSpace(f[2])})
		return nil
	})
	return nodes, err
}

// ParseLineageNames reads the taxid and scientific name columns of
// fullnamelineage.dmp. The lineage column is ignored.
func ParseLineageNames(r io.Reader) (map[taxonomy.Taxid]string, error) {
	names := make(map[taxonomy.Taxid]string)
	err := scanRows(r, FullNameLineageFile, 2, func(line int, f []string) error {
		id, err := parseID(FullNameLineageFile, line, "taxid", f[0])
		if err != nil {
			return err
		}
		names[id] = strings.TrimSpace(f[1])
		return nil
	})
	return names, err
}

// ParseNames reads names.dmp and keeps only rows whose class is
// "scientific name". Each taxid has exactly one.
func ParseNames(r io.Reader) (map[taxonomy.Taxid]string, error) {
	names := make(map[taxonomy.Taxid]string)
	err := scanRows(r, NamesFile, 4, func(line int, f []string) error {
		if strings.TrimSpace(f[3]) != scientificName {
			return nil
		}
		id, err := parseID(NamesFile, line, "taxid", f[0])
		if err != nil {
			return err
		}
		if _, dup := names[id]; dup {
			return lineError(NamesFile, line, "second scientific name for taxid %d", id)
		}
		names[id] = strings.TrimSpace(f[1])
		return nil
	})
	return names, err
}

// ParseMerged reads merged.dmp: old taxid, new taxid.
func ParseMerged(r io.Reader) ([]taxonomy.Merge, error) {
	var merged []taxonomy.Merge
	err := scanRows(r, MergedFile, 2, func(line int, f []string) error {
		oldID, err := parseID(MergedFile, line, "old taxid", f[0])
		if err != nil {
			return err
		}
		newID, err := parseID(MergedFile, line, "new taxid", f[1])
		if err != nil {
			return err
		}
		merged = append(merged, taxonomy.Merge{Old: oldID, New: newID})
		return nil
	})
	return merged, err
}

// ParseDeleted reads delnodes.dmp: one taxid per line.
func ParseDeleted(r io.Reader) ([]taxonomy.Taxid, error) {
	var deleted []taxonomy.Taxid
	err := scanRows(r, DelNodesFile, 1, func(line int, f []string) error {
		id, err := parseID(DelNodesFile, line, "taxid", f[0])
		if err != nil {
			return err
		}
		deleted = append(deleted, id)
		return nil
	})
	return deleted, err
}
