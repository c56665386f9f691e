package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		accession string
		residues  string
		wantErr   bool
		errType   interface{}
	}{
		{
			name:      "valid protein",
			accession: "P1",
			residues:  "MKTAYIAKQR",
		},
		{
			name:      "lowercase is normalized",
			accession: "P1",
			residues:  "mktayiakqr",
		},
		{
			name:      "wildcard and combinations",
			accession: "P1",
			residues:  "MKXBZJ",
		},
		{
			name:      "empty sequence",
			accession: "P1",
			residues:  "",
			wantErr:   true,
			errType:   &EmptySequenceError{},
		},
		{
			name:      "missing accession",
			accession: "",
			residues:  "MK",
			wantErr:   true,
			errType:   &MissingAccessionError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.accession, "", tt.residues)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errType != nil {
					assert.IsType(t, tt.errType, err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.residues), p.Len())
			assert.NoError(t, ValidateResidues(p.Residues))
		})
	}
}

func TestNewInvalidResidue(t *testing.T) {
	_, err := New("P1", "", "MK*R")
	require.Error(t, err)

	var invalid *InvalidResidueError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 2, invalid.Position)
	assert.Equal(t, '*', invalid.Found)
}

func TestMass(t *testing.T) {
	m, ok := Mass('G')
	require.True(t, ok)
	assert.InDelta(t, 57.02146, m, 1e-5)

	l, _ := Mass('L')
	i, _ := Mass('I')
	j, ok := Mass('J')
	require.True(t, ok)
	assert.Equal(t, l, i)
	assert.Equal(t, l, j)

	for _, r := range []byte("BXZ*") {
		_, ok := Mass(r)
		assert.False(t, ok, "residue %c", r)
	}
}

func TestPeptideMass(t *testing.T) {
	// PEPTIDE, monoisotopic neutral mass
	m, ok := PeptideMass("PEPTIDE")
	require.True(t, ok)
	assert.InDelta(t, 799.35996, m, 1e-4)

	withMod, ok := PeptideMass("PEPTIDE", 15.994915)
	require.True(t, ok)
	assert.InDelta(t, m+15.994915, withMod, 1e-9)

	_, ok = PeptideMass("PEPXIDE")
	assert.False(t, ok)
}

func TestCovers(t *testing.T) {
	tests := []struct {
		amb, r byte
		want   bool
	}{
		{'X', 'A', true},
		{'X', 'X', true},
		{'B', 'D', true},
		{'B', 'N', true},
		{'B', 'E', false},
		{'J', 'L', true},
		{'Z', 'Q', true},
		{'A', 'A', true},
		{'A', 'G', false},
	}

	for _, tt := range tests {
		t.Run(string([]byte{tt.amb, '/', tt.r}), func(t *testing.T) {
			assert.Equal(t, tt.want, Covers(tt.amb, tt.r))
		})
	}
}

func TestMembers(t *testing.T) {
	assert.Equal(t, []byte("DN"), Members('B'))
	assert.Equal(t, []byte("K"), Members('K'))
	assert.Len(t, Members('X'), 20)
	assert.True(t, IsCombination('Z'))
	assert.False(t, IsCombination('X'))
}

func TestReverse(t *testing.T) {
	p := MustNew("P1", "desc", "MKTAY")
	r := p.Reverse("P1_REVERSED")

	assert.Equal(t, "YATKM", r.Residues)
	assert.Equal(t, "P1_REVERSED", r.Accession)
	assert.True(t, r.Decoy)
	assert.Equal(t, "MKTAY", p.Residues)
}

func TestToFASTA(t *testing.T) {
	p := MustNew("P1", "Example protein", "MKTAY")
	assert.Equal(t, ">P1 Example protein\nMKTAY\n", p.ToFASTA())
}
