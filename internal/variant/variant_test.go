package variant

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantKinds(t *testing.T) {
	tests := []struct {
		v    Variant
		kind Kind
		str  string
	}{
		{Substitution{Original: 'R', New: 'K'}, KindSubstitution, "R>K"},
		{Insertion{New: 'G'}, KindInsertion, "+G"},
		{Deletion{Removed: 'W'}, KindDeletion, "-W"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.v.Kind())
			assert.Equal(t, tt.str, tt.v.String())
		})
	}
}

func TestVariantJSON(t *testing.T) {
	out, err := json.Marshal(map[int]Variant{
		2: Substitution{Original: 'R', New: 'K'},
		5: Deletion{Removed: 'W'},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"2": {"type": "substitution", "original": "R", "new": "K"},
		"5": {"type": "deletion", "removed": "W"}
	}`, string(out))
}

func TestCount(t *testing.T) {
	sub, ins, del := Count(map[int]Variant{
		1: Substitution{Original: 'A', New: 'G'},
		2: Insertion{New: 'G'},
		4: Substitution{Original: 'D', New: 'E'},
	})
	assert.Equal(t, 2, sub)
	assert.Equal(t, 1, ins)
	assert.Equal(t, 0, del)
}

func TestPolicyConstruction(t *testing.T) {
	var be *BudgetError

	_, err := Generic(-1)
	assert.ErrorAs(t, err, &be)

	_, err = Specific(1, -2, 0, nil)
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "insertions", be.Name)

	_, err = Fixed(nil)
	assert.Error(t, err)

	p, err := Specific(2, 1, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, Budget{Sub: 2, Ins: 1, Del: 0, Total: 3}, p.Start())
	assert.True(t, p.Enabled())

	assert.False(t, NoVariants().Enabled())
	g, err := Generic(0)
	require.NoError(t, err)
	assert.False(t, g.Enabled())
}

func TestBudgetSpend(t *testing.T) {
	p, err := Generic(2)
	require.NoError(t, err)

	b := p.Start()
	b, ok := b.Spend(KindSubstitution)
	require.True(t, ok)
	b, ok = b.Spend(KindDeletion)
	require.True(t, ok)
	assert.Equal(t, 0, b.Total)

	after, ok := b.Spend(KindInsertion)
	assert.False(t, ok)
	assert.Equal(t, b, after, "failed spend leaves the budget untouched")

	s, err := Specific(1, 0, 1, nil)
	require.NoError(t, err)
	sb := s.Start()
	assert.True(t, sb.Can(KindSubstitution))
	assert.False(t, sb.Can(KindInsertion))
	sb, _ = sb.Spend(KindSubstitution)
	assert.False(t, sb.Can(KindSubstitution))
	assert.True(t, sb.Can(KindDeletion))
}

func TestBudgetCheckPanics(t *testing.T) {
	assert.Panics(t, func() { Budget{Sub: -1}.Check() })
	assert.NotPanics(t, func() { Budget{Total: 1}.Check() })
}

func TestPolicyAdmits(t *testing.T) {
	s, err := Specific(1, 1, 0, nil)
	require.NoError(t, err)
	assert.True(t, s.Admits(1, 1, 0))
	assert.False(t, s.Admits(2, 0, 0))
	assert.False(t, s.Admits(0, 0, 1))

	g, err := Generic(1)
	require.NoError(t, err)
	assert.True(t, g.Admits(0, 0, 1))
	assert.False(t, g.Admits(1, 0, 1))
}

func TestParseType(t *testing.T) {
	for _, tt := range []Type{None, GenericType, SpecificType, FixedType} {
		got, err := ParseType(strings.ToUpper(tt.String()))
		require.NoError(t, err)
		assert.Equal(t, tt, got)
	}
	_, err := ParseType("some")
	assert.Error(t, err)
}

func TestSubstitutionMatrix(t *testing.T) {
	var all *SubstitutionMatrix
	assert.True(t, all.Allows('A', 'G'))
	assert.False(t, all.Allows('A', 'A'))

	m, err := ParseSubstitutions("A>G, d>e")
	require.NoError(t, err)
	assert.True(t, m.Allows('A', 'G'))
	assert.True(t, m.Allows('D', 'E'))
	assert.False(t, m.Allows('G', 'A'))
	assert.Equal(t, 2, m.Len())

	for _, bad := range []string{"AG", "A>A", "A>1", "A>G,"} {
		_, err := ParseSubstitutions(bad)
		assert.Error(t, err, bad)
	}

	std, err := ParseSubstitutions("all")
	require.NoError(t, err)
	assert.Equal(t, 20*19, std.Len())
}

func TestSingleBaseSubstitutions(t *testing.T) {
	m := SingleBaseSubstitutions()

	// AAA (K) -> AGA (R)
	assert.True(t, m.Allows('K', 'R'))
	// GAT (D) -> GAA (E)
	assert.True(t, m.Allows('D', 'E'))
	// TGG (W) is two changes away from any F codon
	assert.False(t, m.Allows('W', 'F'))
	assert.Less(t, m.Len(), 20*19)

	byName, err := ParseSubstitutions("single-base")
	require.NoError(t, err)
	assert.Equal(t, m.Len(), byName.Len())
}

func TestParseFixedTable(t *testing.T) {
	input := strings.Join([]string{
		"# accession\tposition\toriginal\treplacement",
		"P1\t8\tR\tK",
		"",
		"P1\t3\t-\tG",
		"P2\t5\tw\t-",
	}, "\n")

	table, err := ParseFixedTable(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 2, table.MaxPerAccession())

	p1 := table.For("P1")
	require.Len(t, p1, 2)
	assert.Equal(t, 3, p1[0].Position, "entries sorted by position")
	assert.Equal(t, Insertion{New: 'G'}, p1[0].Variant())
	assert.Equal(t, Substitution{Original: 'R', New: 'K'}, p1[1].Variant())

	require.Len(t, table.SubstitutionsTo('K'), 1)
	assert.Empty(t, table.SubstitutionsTo('R'))
	require.Len(t, table.InsertionsOf('G'), 1)
	require.Len(t, table.Deletions(), 1)
	assert.Equal(t, Deletion{Removed: 'W'}, table.Deletions()[0].Variant())

	p, err := Fixed(table)
	require.NoError(t, err)
	assert.Equal(t, Budget{Sub: 2, Ins: 2, Del: 2, Total: 2}, p.Start())
	assert.False(t, p.AllowsSubstitution('R', 'K'), "fixed policies answer through the table")
}

func TestParseFixedTableErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"missing field", "P1\t3\tR", 1},
		{"bad position", "P1\tx\tR\tK", 1},
		{"zero position", "P1\t0\tR\tK", 1},
		{"two gaps", "P1\t3\t-\t-", 1},
		{"same residue", "P1\t3\tR\tR", 1},
		{"long residue", "P1\t3\tRR\tK", 1},
		{"error on later line", "P1\t3\tR\tK\nP1\t4\t*\tK", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixedTable(strings.NewReader(tt.input))
			var te *TableError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.line, te.Line)
		})
	}
}
