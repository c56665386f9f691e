package search

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/aria-lang/pepmap-go/internal/corpus"
	"github.com/aria-lang/pepmap-go/internal/fmindex"
	"github.com/aria-lang/pepmap-go/internal/mapping"
	"github.com/aria-lang/pepmap-go/internal/modification"
	"github.com/aria-lang/pepmap-go/internal/sequence"
	"github.com/aria-lang/pepmap-go/internal/tag"
	"github.com/aria-lang/pepmap-go/internal/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildIndex takes accession, sequence pairs.
func buildIndex(t *testing.T, pairs ...string) *fmindex.Index {
	t.Helper()
	require.Zero(t, len(pairs)%2)
	var proteins []*sequence.Protein
	for i := 0; i < len(pairs); i += 2 {
		proteins = append(proteins, sequence.MustNew(pairs[i], "", pairs[i+1]))
	}
	c, err := corpus.Build(proteins)
	require.NoError(t, err)
	idx, err := fmindex.Build(context.Background(), c, fmindex.BuildOptions{SampleRate: 4})
	require.NoError(t, err)
	return idx
}

func newSearcher(t *testing.T, idx *fmindex.Index, configure func(*Settings)) *Searcher {
	t.Helper()
	settings := DefaultSettings()
	if configure != nil {
		configure(&settings)
	}
	s, err := New(idx, settings)
	require.NoError(t, err)
	return s
}

func mass(t *testing.T, residues string) float64 {
	t.Helper()
	m, ok := sequence.ResidueSum(residues)
	require.True(t, ok)
	return m
}

func catalog(t *testing.T, fixed, variable []string) *modification.Catalog {
	t.Helper()
	c, err := modification.DefaultLibrary().Catalog(fixed, variable)
	require.NoError(t, err)
	return c
}

type hit struct {
	Accession string
	Index     int
}

func hits(ms []mapping.PeptideProteinMapping) []hit {
	out := make([]hit, len(ms))
	for i, m := range ms {
		out[i] = hit{m.Accession, m.Index}
	}
	return out
}

const cam = "Carbamidomethylation of C"

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*Settings)
		tolerance bool
	}{
		{"zero tolerance", func(s *Settings) { s.Tolerance.Value = 0 }, true},
		{"negative tolerance", func(s *Settings) { s.Tolerance = Tolerance{Value: -5, Unit: PPM} }, true},
		{"infinite tolerance", func(s *Settings) { s.Tolerance.Value = math.Inf(1) }, true},
		{"limit x above one", func(s *Settings) { s.LimitX = 1.5 }, false},
		{"negative max paths", func(s *Settings) { s.MaxPaths = -1 }, false},
		{"negative budget", func(s *Settings) { s.Policy = variant.Policy{Type: variant.GenericType, MaxTotal: -1} }, false},
		{"bad catalog", func(s *Settings) {
			m := modification.MustNew("dup", 1, "C", 0, modification.Anywhere)
			s.Catalog = &modification.Catalog{Fixed: []modification.Modification{m}, Variable: []modification.Modification{m}}
		}, false},
	}

	idx := buildIndex(t, "P1", "MKT")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			tt.configure(&settings)
			_, err := New(idx, settings)
			require.Error(t, err)
			if tt.tolerance {
				var te *ToleranceError
				assert.ErrorAs(t, err, &te)
			}
		})
	}

	_, err := New(nil, DefaultSettings())
	assert.Error(t, err)
}

func TestParseNames(t *testing.T) {
	for _, m := range []MatchingType{StringMatching, AminoAcid, Indistinguishable} {
		got, err := ParseMatchingType(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMatchingType("fuzzy")
	assert.Error(t, err)

	u, err := ParseUnit("PPM")
	require.NoError(t, err)
	assert.Equal(t, PPM, u)
	_, err = ParseUnit("mmu")
	assert.Error(t, err)

	assert.InDelta(t, 0.005, Tolerance{Value: 5, Unit: PPM}.Of(1000), 1e-12)
	assert.InDelta(t, 0.02, Tolerance{Value: 0.02, Unit: Dalton}.Of(1000), 1e-12)
}

func TestMapPeptideRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	std := sequence.Standard()
	var pairs []string
	for i := 0; i < 12; i++ {
		var sb strings.Builder
		for j := 0; j < 40+rng.Intn(60); j++ {
			sb.WriteByte(std[rng.Intn(len(std))])
		}
		pairs = append(pairs, "PROT"+string(rune('A'+i)), sb.String())
	}
	idx := buildIndex(t, pairs...)
	s := newSearcher(t, idx, nil)

	for i := 0; i < len(pairs); i += 2 {
		acc, residues := pairs[i], pairs[i+1]
		for trial := 0; trial < 10; trial++ {
			n := 1 + rng.Intn(12)
			start := rng.Intn(len(residues) - n)
			peptide := residues[start : start+n]

			ms, err := s.MapPeptide(context.Background(), peptide)
			require.NoError(t, err)

			found := false
			for _, m := range ms {
				assert.Equal(t, peptide, m.Peptide)
				assert.Empty(t, m.Modifications)
				assert.Nil(t, m.Variants)
				if m.Accession == acc && m.Index == start {
					found = true
				}
			}
			assert.True(t, found, "%s at %s:%d", peptide, acc, start)
		}
	}
}

func TestMapPeptideNoMatch(t *testing.T) {
	idx := buildIndex(t, "P1", "MKTAYIAKQR")
	s := newSearcher(t, idx, nil)

	ms, err := s.MapPeptide(context.Background(), "WWW")
	require.NoError(t, err)
	assert.Empty(t, ms)

	_, err = s.MapPeptide(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = s.MapPeptide(context.Background(), "PEP1")
	var ie *sequence.InvalidResidueError
	assert.ErrorAs(t, err, &ie)
}

func TestScenarioWildcardAndSubstitution(t *testing.T) {
	idx := buildIndex(t,
		"OTHER", "MSSGKTAFTEAVL",
		"TEST_ACCESSION", "MKTECTQDRXRTAFTEAVLLPGSK",
	)
	s := newSearcher(t, idx, func(s *Settings) {
		s.Matching = AminoAcid
		s.Policy, _ = variant.Generic(1)
	})

	ms, err := s.MapPeptide(context.Background(), "ECTQDRGKTAFTEAVLLP")
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, mapping.PeptideProteinMapping{
		Peptide:   "ECTQDRXKTAFTEAVLLP",
		Accession: "TEST_ACCESSION",
		Index:     3,
		Variants:  map[int]variant.Variant{8: variant.Substitution{Original: 'R', New: 'K'}},
	}, ms[0])

	// the same query without a variant budget finds nothing
	strict := newSearcher(t, idx, func(s *Settings) { s.Matching = AminoAcid })
	ms, err = strict.MapPeptide(context.Background(), "ECTQDRGKTAFTEAVLLP")
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestScenarioRepeatedLiteral(t *testing.T) {
	idx := buildIndex(t, "P0", "MKW", "P1", "SSSASSSTSSS", "P2", "ASTA")
	s := newSearcher(t, idx, nil)

	ms, err := s.MapPeptide(context.Background(), "SSS")
	require.NoError(t, err)
	assert.Equal(t, []hit{{"P1", 0}, {"P1", 4}, {"P1", 8}}, hits(ms))
}

func TestMatchingTypes(t *testing.T) {
	idx := buildIndex(t, "P1", "PEPTLDEAKBRT")

	tests := []struct {
		name     string
		matching MatchingType
		query    string
		want     string
	}{
		{"string exact", StringMatching, "PEPTLDE", "PEPTLDE"},
		{"string no I/L", StringMatching, "PEPTIDE", ""},
		{"amino acid no I/L", AminoAcid, "PEPTIDE", ""},
		{"indistinguishable", Indistinguishable, "PEPTIDE", "PEPTLDE"},
		{"corpus combination", AminoAcid, "AKDRT", "AKBRT"},
		{"string no combination", StringMatching, "AKDRT", ""},
		{"query combination", AminoAcid, "PEPTLBE", "PEPTLDE"},
		{"query wildcard", AminoAcid, "PEPXLDE", "PEPTLDE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSearcher(t, idx, func(s *Settings) { s.Matching = tt.matching })
			ms, err := s.MapPeptide(context.Background(), tt.query)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Empty(t, ms)
				return
			}
			require.Len(t, ms, 1)
			assert.Equal(t, tt.want, ms[0].Peptide)
		})
	}
}

func TestWildcardQuota(t *testing.T) {
	idx := buildIndex(t, "P1", "AXCXDXEF")

	tests := []struct {
		name     string
		matching MatchingType
		limitX   float64
		query    string
		found    bool
	}{
		{"three wildcards over quota", AminoAcid, 0.25, "AGCGDGEF", false},
		{"three wildcards within quota", AminoAcid, 0.4, "AGCGDGEF", true},
		{"query X is not a wildcard use", AminoAcid, 0.25, "AGCGDXEF", true},
		{"string matching never uses wildcards", StringMatching, 1, "AGCGDGEF", false},
		{"zero quota", AminoAcid, 0, "AGCXDXEF", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSearcher(t, idx, func(s *Settings) {
				s.Matching = tt.matching
				s.LimitX = tt.limitX
			})
			ms, err := s.MapPeptide(context.Background(), tt.query)
			require.NoError(t, err)
			if !tt.found {
				assert.Empty(t, ms)
				return
			}
			require.Len(t, ms, 1)
			assert.Equal(t, "AXCXDXEF", ms[0].Peptide)
		})
	}
}

func TestVariantEdits(t *testing.T) {
	idx := buildIndex(t, "P1", "MKTAYIAKQRQISFVKSHFSRQ")
	generic, err := variant.Generic(1)
	require.NoError(t, err)
	onlyDeletions, err := variant.Specific(0, 0, 1, nil)
	require.NoError(t, err)
	kToR, err := variant.ParseSubstitutions("K>R")
	require.NoError(t, err)
	rToK, err := variant.ParseSubstitutions("R>K")
	require.NoError(t, err)
	subKR, err := variant.Specific(1, 0, 0, kToR)
	require.NoError(t, err)
	subRK, err := variant.Specific(1, 0, 0, rToK)
	require.NoError(t, err)

	tests := []struct {
		name   string
		policy variant.Policy
		query  string
		want   map[int]variant.Variant
		none   bool
	}{
		{
			name:   "insertion",
			policy: generic,
			query:  "MKTAYIGAKQR",
			want:   map[int]variant.Variant{7: variant.Insertion{New: 'G'}},
		},
		{
			name:   "deletion reported on the following site",
			policy: generic,
			query:  "MKTAYAKQR",
			want:   map[int]variant.Variant{6: variant.Deletion{Removed: 'I'}},
		},
		{
			name:   "substitution",
			policy: generic,
			query:  "MRTAYIAKQR",
			want:   map[int]variant.Variant{2: variant.Substitution{Original: 'K', New: 'R'}},
		},
		{name: "insertion outside budget kind", policy: onlyDeletions, query: "MKTAYIGAKQR", none: true},
		{
			name:   "deletion within budget kind",
			policy: onlyDeletions,
			query:  "MKTAYAKQR",
			want:   map[int]variant.Variant{6: variant.Deletion{Removed: 'I'}},
		},
		{
			name:   "substitution allowed by matrix",
			policy: subKR,
			query:  "MRTAYIAKQR",
			want:   map[int]variant.Variant{2: variant.Substitution{Original: 'K', New: 'R'}},
		},
		{name: "substitution outside matrix", policy: subRK, query: "MRTAYIAKQR", none: true},
		{name: "two edits over budget", policy: generic, query: "MRTAYIAKER", none: true},
		{name: "insertion at the first residue", policy: generic, query: "GMKTAYIAKQR", none: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSearcher(t, idx, func(s *Settings) { s.Policy = tt.policy })
			ms, err := s.MapPeptide(context.Background(), tt.query)
			require.NoError(t, err)
			if tt.none {
				assert.Empty(t, ms)
				return
			}
			require.Len(t, ms, 1)
			assert.Equal(t, "P1", ms[0].Accession)
			assert.Equal(t, 0, ms[0].Index)
			assert.Equal(t, strings.ToUpper(tt.query), ms[0].Peptide)
			assert.Equal(t, tt.want, ms[0].Variants)
		})
	}
}

func TestBudgetMonotonicity(t *testing.T) {
	idx := buildIndex(t,
		"P1", "MKTAYIAKQRQISFVKSHFSRQ",
		"P2", "MKTAYLAKQRQLSFVKSHFSRQ",
		"P3", "GSHMKTAYIAKQRW",
	)
	policies := []variant.Policy{}
	for _, caps := range [][3]int{{1, 0, 0}, {0, 1, 1}, {2, 1, 0}, {1, 1, 1}} {
		p, err := variant.Specific(caps[0], caps[1], caps[2], nil)
		require.NoError(t, err)
		policies = append(policies, p)
	}
	g, err := variant.Generic(2)
	require.NoError(t, err)
	policies = append(policies, g)

	queries := []string{"MKTAYIAKQR", "MKTAWIAKQR", "KTAYIGAKQ", "TAYAKQRQ", "MKTGYLAKER"}
	for _, p := range policies {
		s := newSearcher(t, idx, func(s *Settings) { s.Policy = p })
		for _, q := range queries {
			ms, err := s.MapPeptide(context.Background(), q)
			require.NoError(t, err)
			for _, m := range ms {
				sub, ins, del := variant.Count(m.Variants)
				assert.True(t, p.Admits(sub, ins, del), "%s under %s: %s", q, p, m)
			}
		}
	}
}

func TestFixedVariantPolicy(t *testing.T) {
	idx := buildIndex(t,
		"P1", "MKTAYIAKQRQISFVK",
		"P2", "GGMKTAYIAKQR",
	)
	table, err := variant.ParseFixedTable(strings.NewReader("P1\t5\tY\tW\nP1\t6\t-\tG\n"))
	require.NoError(t, err)
	policy, err := variant.Fixed(table)
	require.NoError(t, err)
	s := newSearcher(t, idx, func(s *Settings) { s.Policy = policy })

	t.Run("listed substitution", func(t *testing.T) {
		ms, err := s.MapPeptide(context.Background(), "MKTAWIAKQR")
		require.NoError(t, err)
		require.Len(t, ms, 1, "P2 holds the same stretch but the variant is pinned to P1")
		assert.Equal(t, "P1", ms[0].Accession)
		assert.Equal(t, map[int]variant.Variant{5: variant.Substitution{Original: 'Y', New: 'W'}}, ms[0].Variants)
	})

	t.Run("listed insertion", func(t *testing.T) {
		ms, err := s.MapPeptide(context.Background(), "MKTAYGIAKQR")
		require.NoError(t, err)
		require.Len(t, ms, 1)
		assert.Equal(t, map[int]variant.Variant{6: variant.Insertion{New: 'G'}}, ms[0].Variants)
	})

	t.Run("unlisted edit", func(t *testing.T) {
		ms, err := s.MapPeptide(context.Background(), "MKTAYIAKER")
		require.NoError(t, err)
		assert.Empty(t, ms)
	})

	t.Run("listed edit at another position", func(t *testing.T) {
		ms, err := s.MapPeptide(context.Background(), "KTAWIAK")
		require.NoError(t, err)
		require.Len(t, ms, 1)
		assert.Equal(t, 1, ms[0].Index)

		ms, err = s.MapPeptide(context.Background(), "QISFWK")
		require.NoError(t, err)
		assert.Empty(t, ms, "V>W is not listed")
	})
}

func TestFixedModificationIdempotence(t *testing.T) {
	idx := buildIndex(t, "P1", "MKTACYIAKQR", "P2", "GACYIW")
	plain := newSearcher(t, idx, nil)
	withCam := newSearcher(t, idx, func(s *Settings) { s.Catalog = catalog(t, []string{cam}, nil) })

	for _, q := range []string{"ACYIAK", "ACYI", "MKTA"} {
		a, err := plain.MapPeptide(context.Background(), q)
		require.NoError(t, err)
		b, err := withCam.MapPeptide(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, hits(a), hits(b), q)
		for _, m := range b {
			assert.Empty(t, m.Modifications)
		}
	}

	ms, err := withCam.MapPeptide(context.Background(), "ACYI")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, []mapping.ModificationSite{{Site: 2, ID: cam}}, ms[0].FixedModifications)
}

// scenarioTag builds the tag <ACDE + cam> GLPKNVQF <CH + cam> with the
// N-terminal gap scaled by factor.
func scenarioTag(t *testing.T, factor float64) *tag.Tag {
	camMass := modification.DefaultLibrary()[cam].Mass
	nGap := (mass(t, "ACDE") + camMass) * factor
	cGap := mass(t, "CH") + camMass
	return tag.MustNew(tag.MassGap{Value: nGap}, tag.Run("GLPKNVQF"), tag.MassGap{Value: cGap})
}

func TestScenarioTagWithFixedModification(t *testing.T) {
	idx := buildIndex(t,
		"P1", "MSTACDEGLPKNVQFCHWRS",
		"P2", "GLPKNVQFAAW",
	)
	cat := catalog(t, []string{cam}, nil)
	s := newSearcher(t, idx, func(s *Settings) {
		s.Catalog = cat
		s.Tolerance = Tolerance{Value: 5, Unit: PPM}
	})

	want := mapping.PeptideProteinMapping{
		Peptide:   "ACDEGLPKNVQFCH",
		Accession: "P1",
		Index:     3,
		FixedModifications: []mapping.ModificationSite{
			{Site: 2, ID: cam},
			{Site: 13, ID: cam},
		},
	}

	exact := scenarioTag(t, 1)
	ms, err := s.MapTag(context.Background(), exact)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, want, ms[0])

	t.Run("mass closure", func(t *testing.T) {
		total, ok := exact.Mass(nil)
		require.True(t, ok)
		got := mass(t, ms[0].Peptide)
		for _, f := range ms[0].FixedModifications {
			m, ok := cat.Lookup(f.ID)
			require.True(t, ok)
			got += m.Mass
		}
		assert.InDelta(t, total, got, Tolerance{Value: 5, Unit: PPM}.Of(total))
	})

	t.Run("shift beyond tolerance", func(t *testing.T) {
		ms, err := s.MapTag(context.Background(), scenarioTag(t, 1+5.1e-6))
		require.NoError(t, err)
		assert.Empty(t, ms)
	})

	t.Run("shift within tolerance", func(t *testing.T) {
		ms, err := s.MapTag(context.Background(), scenarioTag(t, 1+4.9e-6))
		require.NoError(t, err)
		require.Len(t, ms, 1)
		assert.Equal(t, want, ms[0])
	})

	t.Run("missing fixed modification mass", func(t *testing.T) {
		bare := tag.MustNew(tag.MassGap{Value: mass(t, "ACDE")}, tag.Run("GLPKNVQF"), tag.MassGap{Value: mass(t, "CH")})
		ms, err := s.MapTag(context.Background(), bare)
		require.NoError(t, err)
		assert.Empty(t, ms)
	})
}

func TestTagVariableModification(t *testing.T) {
	idx := buildIndex(t, "P1", "AGMPEPTIDER")
	s := newSearcher(t, idx, func(s *Settings) {
		s.Catalog = catalog(t, nil, []string{"Oxidation of M"})
	})

	oxidized := tag.MustNew(tag.MassGap{Value: mass(t, "GM") + 15.994915}, tag.Run("PEPTIDE"))
	ms, err := s.MapTag(context.Background(), oxidized)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "GMPEPTIDE", ms[0].Peptide)
	assert.Equal(t, 1, ms[0].Index)
	assert.Equal(t, []mapping.ModificationSite{{Site: 2, ID: "Oxidation of M"}}, ms[0].Modifications)

	plain := tag.MustNew(tag.MassGap{Value: mass(t, "GM")}, tag.Run("PEPTIDE"))
	ms, err = s.MapTag(context.Background(), plain)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Empty(t, ms[0].Modifications)
}

func TestTagDeclaredModification(t *testing.T) {
	idx := buildIndex(t, "P1", "AGMPEPTIDER")
	s := newSearcher(t, idx, func(s *Settings) {
		s.Catalog = catalog(t, nil, []string{"Phosphorylation of T", "Oxidation of M"})
	})

	tests := []struct {
		name    string
		tag     string
		peptide string
		mods    []mapping.ModificationSite
		unknown bool
	}{
		{
			name:    "accepting residue",
			tag:     "<0>PEPT(Phosphorylation of T)IDE<156.10111105>",
			peptide: "PEPTIDER",
			mods:    []mapping.ModificationSite{{Site: 4, ID: "Phosphorylation of T"}},
		},
		{name: "residue outside the pattern", tag: "<0>PEP(Oxidation of M)TIDE<0>"},
		{name: "not in the catalog", tag: "<0>PEPT(No such mod)IDE<0>", unknown: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg, err := tag.Parse(tt.tag)
			require.NoError(t, err)
			ms, err := s.MapTag(context.Background(), tg)
			if tt.unknown {
				var ce *modification.CatalogError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, "No such mod", ce.ID)
				assert.Empty(t, ms)
				return
			}
			require.NoError(t, err)
			if tt.peptide == "" {
				assert.Empty(t, ms)
				return
			}
			require.Len(t, ms, 1)
			assert.Equal(t, tt.peptide, ms[0].Peptide)
			assert.Equal(t, tt.mods, ms[0].Modifications)
		})
	}
}

func TestConsecutiveDeletions(t *testing.T) {
	idx := buildIndex(t, "P1", "MKTAYIAKQRQISFVK")
	generic, err := variant.Generic(2)
	require.NoError(t, err)
	twoDeletions, err := variant.Specific(0, 0, 2, nil)
	require.NoError(t, err)
	oneDeletion, err := variant.Specific(0, 0, 1, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		policy variant.Policy
		query  string
		want   map[int]variant.Variant
		none   bool
	}{
		{
			name:   "generic",
			policy: generic,
			query:  "MKTAAKQR",
			want:   map[int]variant.Variant{5: variant.Deletion{Removed: 'Y'}, 6: variant.Deletion{Removed: 'I'}},
		},
		{
			name:   "specific",
			policy: twoDeletions,
			query:  "MKTAAKQR",
			want:   map[int]variant.Variant{5: variant.Deletion{Removed: 'Y'}, 6: variant.Deletion{Removed: 'I'}},
		},
		{
			name:   "edit after the deletions",
			policy: generic,
			query:  "MKTAYAKER",
			want:   map[int]variant.Variant{6: variant.Deletion{Removed: 'I'}, 9: variant.Substitution{Original: 'Q', New: 'E'}},
		},
		{name: "over the deletion budget", policy: oneDeletion, query: "MKTAAKQR", none: true},
		{
			name:   "two insertions",
			policy: generic,
			query:  "MKTAYGGIAKQR",
			want:   map[int]variant.Variant{6: variant.Insertion{New: 'G'}, 7: variant.Insertion{New: 'G'}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSearcher(t, idx, func(s *Settings) { s.Policy = tt.policy })
			ms, err := s.MapPeptide(context.Background(), tt.query)
			require.NoError(t, err)
			if tt.none {
				assert.Empty(t, ms)
				return
			}
			require.Len(t, ms, 1)
			assert.Equal(t, 0, ms[0].Index)
			assert.Equal(t, tt.query, ms[0].Peptide)
			assert.Equal(t, tt.want, ms[0].Variants)
		})
	}
}

func TestTagInteriorGaps(t *testing.T) {
	idx := buildIndex(t, "P1", "MKTAYIAKQRQISFVK", "P2", "AKPEPXIDERG")
	wildcardMod := modification.MustNew("Residue of X", mass(t, "T"), "", 0, modification.Anywhere)
	withWildcardMod, err := modification.NewCatalog(nil, []modification.Modification{wildcardMod})
	require.NoError(t, err)
	generic, err := variant.Generic(1)
	require.NoError(t, err)
	ppm := Tolerance{Value: 10, Unit: PPM}

	run := tag.Run
	gap := func(residues string, shift float64) tag.MassGap {
		return tag.MassGap{Value: mass(t, residues) + shift}
	}

	tests := []struct {
		name      string
		configure func(*Settings)
		tag       *tag.Tag
		peptide   string
		index     int
		mods      []mapping.ModificationSite
		variants  map[int]variant.Variant
	}{
		{
			name:    "gap between two runs",
			tag:     tag.MustNew(run("TAY"), gap("IAK", 0), run("QRQ")),
			peptide: "TAYIAKQRQ",
			index:   2,
		},
		{
			name:    "two interior gaps",
			tag:     tag.MustNew(run("MK"), gap("TA", 0), run("YI"), gap("AKQ", 0), run("RQ")),
			peptide: "MKTAYIAKQRQ",
		},
		{
			name:      "wildcard without a modification",
			configure: func(s *Settings) { s.Matching = AminoAcid },
			tag:       tag.MustNew(run("PEP"), gap("T", 0), run("IDER")),
		},
		{
			name: "wildcard with a modification",
			configure: func(s *Settings) {
				s.Matching = AminoAcid
				s.Catalog = withWildcardMod
			},
			tag:     tag.MustNew(run("PEP"), gap("T", 0), run("IDER")),
			peptide: "PEPXIDER",
			index:   2,
			mods:    []mapping.ModificationSite{{Site: 4, ID: "Residue of X"}},
		},
		{
			name:      "substitution in a run",
			configure: func(s *Settings) { s.Policy = generic },
			tag:       tag.MustNew(gap("MK", 0), run("TAWIAKQR")),
			peptide:   "MKTAWIAKQR",
			variants:  map[int]variant.Variant{5: variant.Substitution{Original: 'Y', New: 'W'}},
		},
		{
			name:      "deletion in a run",
			configure: func(s *Settings) { s.Policy = generic },
			tag:       tag.MustNew(gap("MK", 0), run("TAIAKQR")),
			peptide:   "MKTAIAKQR",
			variants:  map[int]variant.Variant{5: variant.Deletion{Removed: 'Y'}},
		},
		{
			name:      "insertion in a run after an interior gap",
			configure: func(s *Settings) { s.Policy = generic },
			tag:       tag.MustNew(run("TAY"), gap("IA", 0), run("KGQRQ")),
			peptide:   "TAYIAKGQRQ",
			index:     2,
			variants:  map[int]variant.Variant{7: variant.Insertion{New: 'G'}},
		},
		{
			// 10 ppm of 312.2 Da is 0.0031 Da
			name:      "ppm shift within the tolerance of a heavy gap",
			configure: func(s *Settings) { s.Tolerance = ppm },
			tag:       tag.MustNew(run("TAY"), gap("IAK", 0.002), run("QRQ")),
			peptide:   "TAYIAKQRQ",
			index:     2,
		},
		{
			// 10 ppm of 113.1 Da is 0.0011 Da
			name:      "same shift beyond the tolerance of a light gap",
			configure: func(s *Settings) { s.Tolerance = ppm },
			tag:       tag.MustNew(run("TAY"), gap("I", 0.002), run("AKQRQ")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSearcher(t, idx, tt.configure)
			ms, err := s.MapTag(context.Background(), tt.tag)
			require.NoError(t, err)
			if tt.peptide == "" {
				assert.Empty(t, ms)
				return
			}
			require.Len(t, ms, 1)
			assert.Equal(t, tt.peptide, ms[0].Peptide)
			assert.Equal(t, tt.index, ms[0].Index)
			assert.Equal(t, tt.mods, ms[0].Modifications)
			assert.Equal(t, tt.variants, ms[0].Variants)
		})
	}
}

func TestProteinNTerminalModification(t *testing.T) {
	idx := buildIndex(t, "P1", "MKTAYIAK", "P2", "GGMKTAYIAKGG")
	s := newSearcher(t, idx, func(s *Settings) {
		s.Catalog = catalog(t, nil, []string{"Acetylation of protein N-term"})
	})

	tg := tag.MustNew(tag.MassGap{Value: mass(t, "MK") + 42.010565}, tag.Run("TAYIAK"))
	ms, err := s.MapTag(context.Background(), tg)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "P1", ms[0].Accession)
	assert.Equal(t, 0, ms[0].Index)
	assert.Equal(t, []mapping.ModificationSite{{Site: 1, ID: "Acetylation of protein N-term"}}, ms[0].Modifications)

	// without the acetyl mass both proteins match
	ms, err = s.MapTag(context.Background(), tag.MustNew(tag.MassGap{Value: mass(t, "MK")}, tag.Run("TAYIAK")))
	require.NoError(t, err)
	assert.Equal(t, []hit{{"P1", 0}, {"P2", 2}}, hits(ms))
}

func TestProteinCTerminalModification(t *testing.T) {
	idx := buildIndex(t, "P1", "PEPTIDEGK", "P2", "PEPTIDEGKR")
	amidation := "Amidation of the protein C-term"
	s := newSearcher(t, idx, func(s *Settings) {
		s.Catalog = catalog(t, nil, []string{amidation})
	})

	tg := tag.MustNew(tag.Run("PEPTIDE"), tag.MassGap{Value: mass(t, "GK") - 0.984016})
	ms, err := s.MapTag(context.Background(), tg)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "P1", ms[0].Accession)
	assert.Equal(t, "PEPTIDEGK", ms[0].Peptide)
	assert.Equal(t, []mapping.ModificationSite{{Site: 9, ID: amidation}}, ms[0].Modifications)
}

func TestDecoyMappings(t *testing.T) {
	targets := []*sequence.Protein{sequence.MustNew("P1", "", "MKTAYIAKQR")}
	c, err := corpus.Build(targets, corpus.ReverseDecoys(targets, "")...)
	require.NoError(t, err)
	idx, err := fmindex.Build(context.Background(), c, fmindex.BuildOptions{})
	require.NoError(t, err)
	s := newSearcher(t, idx, nil)

	ms, err := s.MapPeptide(context.Background(), "QKAIY")
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "P1_REVERSED", ms[0].Accession)
	assert.True(t, ms[0].Decoy)
}

func TestPathLimitAndCancellation(t *testing.T) {
	idx := buildIndex(t, "P1", "SSSASSSTSSS")

	limited := newSearcher(t, idx, func(s *Settings) { s.MaxPaths = 2 })
	_, err := limited.MapPeptide(context.Background(), "SSS")
	assert.ErrorIs(t, err, ErrPathLimit)

	s := newSearcher(t, idx, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.MapPeptide(ctx, "SSS")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.MapTag(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}
