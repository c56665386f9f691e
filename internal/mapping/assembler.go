package mapping

import (
	"math"
	"sort"

	"github.com/aria-lang/pepmap-go/internal/corpus"
	"github.com/aria-lang/pepmap-go/internal/fmindex"
	"github.com/aria-lang/pepmap-go/internal/modification"
	"github.com/aria-lang/pepmap-go/internal/variant"
)

// Step is one position of a search path, left to right.
type Step struct {
	// Residue is the resolved residue, zero for a deletion.
	Residue byte
	// Corpus is set when the step consumed a protein residue.
	Corpus bool
	// Wildcard is set when a corpus X stood in for a residue.
	Wildcard bool
	// Gap is set for residues resolved from a mass gap.
	Gap bool
	// ModID is a variable modification, or one declared on a tag residue.
	ModID string
	// Fixed lists, sorted, the fixed modifications counted in the mass of a
	// gap residue.
	Fixed   []string
	Variant variant.Variant
	// Pin ties the variant to a protein position under a fixed policy.
	Pin *variant.FixedVariant
}

// Path is a finished search path: its steps and the suffix-array rows where
// its corpus residues start.
type Path struct {
	Steps []Step
	Rows  fmindex.Interval
}

// Assembler turns search paths into mappings. It is safe for concurrent use.
type Assembler struct {
	index   *fmindex.Index
	catalog *modification.Catalog
	limitX  float64
}

// NewAssembler creates an assembler. catalog may be nil.
func NewAssembler(index *fmindex.Index, catalog *modification.Catalog, limitX float64) *Assembler {
	return &Assembler{index: index, catalog: catalog, limitX: limitX}
}

// WildcardQuota returns how many corpus wildcards a peptide of length n may
// use.
func (a *Assembler) WildcardQuota(n int) int {
	return int(math.Floor(a.limitX * float64(n)))
}

// Assemble adds one mapping per row of p that passes verification to c. It
// returns the number of mappings added.
func (a *Assembler) Assemble(p Path, c *Collector) int {
	peptide := make([]byte, 0, len(p.Steps))
	wildcards, corpusLen := 0, 0
	for _, s := range p.Steps {
		if s.Residue != 0 {
			peptide = append(peptide, s.Residue)
		}
		if s.Wildcard {
			wildcards++
		}
		if s.Corpus {
			corpusLen++
		}
	}
	if len(peptide) == 0 || wildcards > a.WildcardQuota(len(peptide)) {
		return 0
	}
	pep := string(peptide)

	var mods []ModificationSite
	var variants map[int]variant.Variant
	site, deleted := 0, 0
	for _, s := range p.Steps {
		if s.Residue != 0 {
			site++
		}
		if s.ModID != "" {
			mods = append(mods, ModificationSite{Site: site, ID: s.ModID})
		}
		if s.Variant == nil {
			continue
		}
		if variants == nil {
			variants = make(map[int]variant.Variant)
		}
		// edit sites count the deletions before them
		at := site + deleted
		if _, ok := s.Variant.(variant.Deletion); ok {
			deleted++
			at++
		}
		if _, dup := variants[at]; dup {
			panic("mapping: two variants on one site")
		}
		variants[at] = s.Variant
	}
	modification.SortSites(mods)

	added := 0
	for row := p.Rows.Lo; row < p.Rows.Hi; row++ {
		pos := a.index.Locate(row)
		entry, local, ok := a.index.Lookup(pos)
		if !ok {
			continue
		}
		protN := a.index.Preceding(row) == corpus.Separator
		protC := local+corpusLen == entry.Length
		class := func(i int) modification.PositionClass {
			return modification.PositionClass{
				PeptideNTerm: i == 0,
				PeptideCTerm: i == len(pep)-1,
				ProteinNTerm: i == 0 && protN,
				ProteinCTerm: i == len(pep)-1 && protC,
			}
		}

		fixed := a.catalog.Annotate(pep, class)
		if !a.verifyModifications(p.Steps, pep, class, fixed) || !verifyPins(p.Steps, entry, local) {
			continue
		}

		if c.Add(PeptideProteinMapping{
			Peptide:            pep,
			Accession:          entry.Accession,
			Index:              local,
			Modifications:      mods,
			FixedModifications: fixed,
			Variants:           variants,
			Decoy:              entry.Decoy,
		}) {
			added++
		}
	}
	return added
}

// verifyModifications checks the modifications of steps against the
// complete peptide. Every fixed modification sitting on a gap residue must
// have been counted in its mass and nothing else. Variable modifications,
// resolved in a gap or declared on a tag residue, must match their full
// pattern.
func (a *Assembler) verifyModifications(steps []Step, pep string, class func(int) modification.PositionClass, fixed []ModificationSite) bool {
	byID := make(map[int][]string)
	for _, f := range fixed {
		byID[f.Site] = append(byID[f.Site], f.ID)
	}

	site := 0
	for _, s := range steps {
		if s.Residue == 0 {
			continue
		}
		site++
		if s.Gap {
			want := byID[site]
			sort.Strings(want)
			if !equalIDs(want, s.Fixed) {
				return false
			}
		}
		if s.ModID == "" {
			continue
		}
		m, ok := a.catalog.Lookup(s.ModID)
		if !ok || !modification.MatchesWindow(m, pep, site-1, class(site-1)) {
			return false
		}
	}
	return true
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// verifyPins checks that every pinned variant lands on its listed protein
// position. An insertion is placed before the next protein residue.
func verifyPins(steps []Step, entry corpus.Entry, local int) bool {
	consumed := 0
	for _, s := range steps {
		if s.Pin != nil {
			if s.Pin.Accession != entry.Accession || s.Pin.Position != local+consumed+1 {
				return false
			}
		}
		if s.Corpus {
			consumed++
		}
	}
	return true
}
