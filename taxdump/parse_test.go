package taxdump

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/taxonomy"
)

func TestParseNodes(t *testing.T) {
	in := "1\t|\t1\t|\tno rank\t|\t\t|\t8\t|\n" +
		"\n" +
		"562\t|\t561\t|\tspecies\t|\tEC\t|\t0\t|\t1\t|\n"

	nodes, err := ParseNodes(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Node{
		{Taxid: 1, Parent: 1, Rank: "no rank"},
		{Taxid: 562, Parent: 561, Rank: "species"},
	}, nodes)
}

func TestParseNodes_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"too few fields", "1\t|\t1\t|\n", "nodes.dmp line 1"},
		{"bad taxid", "1\t|\t1\t|\tno rank\t|\nabc\t|\t1\t|\tgenus\t|\n", "nodes.dmp line 2"},
		{"bad parent", "5\t|\t-1\t|\tgenus\t|\n", "parent taxid"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseNodes(strings.NewReader(tc.in))
			require.Error(t, err)
			assert.True(t, errors.IsInvalidRequestError(err))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseLineageNames(t *testing.T) {
	in := "1\t|\troot\t|\t\t|\n" +
		"562\t|\tEscherichia coli\t|\tcellular organisms; Bacteria; Escherichia; \t|\n"

	names, err := ParseLineageNames(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, map[taxonomy.Taxid]string{1: "root", 562: "Escherichia coli"}, names)
}

func TestParseNames(t *testing.T) {
	in := "562\t|\tBacillus coli\t|\t\t|\tsynonym\t|\n" +
		"562\t|\tEscherichia coli\t|\t\t|\tscientific name\t|\n" +
		"9612\t|\twolf\t|\t\t|\tgenbank common name\t|\n" +
		"9612\t|\tCanis lupus\t|\t\t|\tscientific name\t|\n"

	names, err := ParseNames(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, map[taxonomy.Taxid]string{562: "Escherichia coli", 9612: "Canis lupus"}, names)

	dup := in + "562\t|\tE. coli\t|\t\t|\tscientific name\t|\n"
	_, err = ParseNames(strings.NewReader(dup))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "names.dmp line 5")
}

func TestParseMergedAndDeleted(t *testing.T) {
	merged, err := ParseMerged(strings.NewReader("12\t|\t74109\t|\n30\t|\t29\t|\n"))
	require.NoError(t, err)
	assert.Equal(t, []taxonomy.Merge{{Old: 12, New: 74109}, {Old: 30, New: 29}}, merged)

	deleted, err := ParseDeleted(strings.NewReader("3400745\t|\n3467805\t|\n"))
	require.NoError(t, err)
	assert.Equal(t, []taxonomy.Taxid{3400745, 3467805}, deleted)

	_, err = ParseMerged(strings.NewReader("12\t|\n"))
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = ParseDeleted(strings.NewReader("3400745\t|\nx\t|\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delnodes.dmp line 2")
}

func TestParse_CRLF(t *testing.T) {
	deleted, err := ParseDeleted(strings.NewReader("3400745\t|\r\n3467805\t|\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []taxonomy.Taxid{3400745, 3467805}, deleted)
}
