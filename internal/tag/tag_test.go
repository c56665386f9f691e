package tag

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizes(t *testing.T) {
	tests := []struct {
		name       string
		components []Component
		want       string
	}{
		{
			name:       "adds terminal gaps",
			components: []Component{Run("PEP")},
			want:       "<0>PEP<0>",
		},
		{
			name:       "sums adjacent gaps",
			components: []Component{MassGap{Value: 1.5}, MassGap{Value: 2}, Run("AK")},
			want:       "<3.5>AK<0>",
		},
		{
			name:       "joins adjacent runs",
			components: []Component{Run("AK"), Run(""), Run("tr"), MassGap{Value: 10}},
			want:       "<0>AKTR<10>",
		},
		{
			name:       "keeps alternation",
			components: []Component{MassGap{Value: 1}, Run("A"), MassGap{Value: 2}, Run("C"), MassGap{Value: 3}},
			want:       "<1>A<2>C<3>",
		},
		{
			name:       "gap only",
			components: []Component{MassGap{Value: 99}},
			want:       "<99>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg, err := New(tt.components...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tg.String())

			comps := tg.Components()
			_, first := comps[0].(MassGap)
			_, last := comps[len(comps)-1].(MassGap)
			assert.True(t, first && last)
		})
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name       string
		components []Component
	}{
		{"empty", nil},
		{"negative gap", []Component{MassGap{Value: -1}}},
		{"nan gap", []Component{MassGap{Value: math.NaN()}}},
		{"bad residue", []Component{ResidueRun{Residues: []Residue{{AA: '1'}}}}},
		{"nil component", []Component{nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.components...)
			var te *TagError
			assert.ErrorAs(t, err, &te)
		})
	}
}

func TestParse(t *testing.T) {
	tg, err := Parse("<120.0528> PEPT(Phosphorylation of T)ide <18.5>")
	require.NoError(t, err)

	assert.Equal(t, []float64{120.0528, 18.5}, tg.Gaps())
	runs := tg.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, "PEPTIDE", runs[0].Sequence())
	assert.Equal(t, "Phosphorylation of T", runs[0].Residues[3].ModID)
	assert.Equal(t, 7, tg.ResidueCount())
	assert.InDelta(t, 120.0528, tg.NTermGap(), 1e-12)
	assert.InDelta(t, 18.5, tg.CTermGap(), 1e-12)

	again, err := Parse(tg.String())
	require.NoError(t, err)
	assert.Equal(t, tg, again)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input  string
		offset int
	}{
		{"<12.5PEP", 0},
		{"<abc>PEP", 1},
		{"<-1>PEP", 1},
		{"(Oxidation)M", 0},
		{"PEP(Oxidation", 3},
		{"PEP()", 3},
		{"PE*P", 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			var te *TagError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.offset, te.Offset)
		})
	}
}

func TestMass(t *testing.T) {
	tg := MustNew(MassGap{Value: 100}, ResidueRun{Residues: []Residue{{AA: 'G'}, {AA: 'M', ModID: "ox"}}}, MassGap{Value: 1})
	m, ok := tg.Mass(func(id string) float64 {
		if id == "ox" {
			return 15.994915
		}
		return 0
	})
	require.True(t, ok)
	assert.InDelta(t, 100+57.02146372+131.04048508+15.994915+1, m, 1e-9)

	_, ok = MustNew(Run("AXA")).Mass(nil)
	assert.False(t, ok)
}
