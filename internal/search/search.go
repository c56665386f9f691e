// Package search maps peptides and sequence tags onto an FM-index.
//
// A query is consumed right to left. Residue runs extend the current
// suffix-array interval one residue at a time, branching into
// substitutions, insertions and deletions when the variant policy allows it.
// Mass gaps are resolved by a bounded depth-first search over residues and
// modifications whose summed mass falls within tolerance of the gap. The
// exploration uses an explicit frame stack, so query length never grows the
// goroutine stack.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/aria-lang/pepmap-go/internal/fmindex"
	"github.com/aria-lang/pepmap-go/internal/mapping"
	"github.com/aria-lang/pepmap-go/internal/modification"
	"github.com/aria-lang/pepmap-go/internal/sequence"
	"github.com/aria-lang/pepmap-go/internal/tag"
)

var (
	// ErrPathLimit is returned with the mappings found so far when a query
	// explores more frames than Settings.MaxPaths.
	ErrPathLimit = errors.New("search path limit reached")
	// ErrEmptyQuery is returned for an empty peptide or a nil tag.
	ErrEmptyQuery = errors.New("empty query")
)

// cancelCheckInterval is the number of popped frames between two context
// checks.
const cancelCheckInterval = 1024

// Searcher answers peptide and tag queries against one index. It is
// immutable and safe for concurrent use.
type Searcher struct {
	index     *fmindex.Index
	settings  Settings
	matcher   *modification.Matcher
	assembler *mapping.Assembler

	residues []byte
	masses   [26][]float64
	lightest float64
	maxPaths int
}

// New validates settings and prepares a searcher over index.
func New(index *fmindex.Index, settings Settings) (*Searcher, error) {
	if index == nil {
		return nil, errors.New("search: nil index")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	s := &Searcher{
		index:     index,
		settings:  settings,
		matcher:   settings.Catalog.Compile(),
		assembler: mapping.NewAssembler(index, settings.Catalog, settings.LimitX),
		lightest:  lightestStep(settings.Catalog),
		maxPaths:  settings.MaxPaths,
	}
	if s.maxPaths == 0 {
		s.maxPaths = DefaultMaxPaths
	}
	for _, c := range index.Symbols() {
		if !sequence.IsResidue(c) {
			continue
		}
		s.residues = append(s.residues, c)
		s.masses[c-'A'] = baseMasses(c)
	}
	return s, nil
}

// baseMasses returns the candidate literal masses of a corpus residue in a
// gap. Combination residues take the mass of each member; the wildcard has
// none of its own.
func baseMasses(c byte) []float64 {
	if c == sequence.Wildcard {
		return []float64{0}
	}
	if m, ok := sequence.Mass(c); ok {
		return []float64{m}
	}
	var out []float64
	for _, r := range sequence.Members(c) {
		if m, ok := sequence.Mass(r); ok {
			out = append(out, m)
		}
	}
	return out
}

// lightestStep bounds from below the mass a single gap residue can take.
func lightestStep(c *modification.Catalog) float64 {
	negAll, negX := 0.0, 0.0
	posX := math.Inf(1)
	if c != nil {
		for _, list := range [][]modification.Modification{c.Fixed, c.Variable} {
			for _, m := range list {
				if m.Mass < 0 {
					negAll += m.Mass
				}
				if !m.AcceptsResidue(sequence.Wildcard) {
					continue
				}
				if m.Mass < 0 {
					negX += m.Mass
				} else if m.Mass > 0 && m.Mass < posX {
					posX = m.Mass
				}
			}
		}
	}
	lightest := sequence.LightestResidueMass() + negAll
	if negX < 0 {
		lightest = math.Min(lightest, negX)
	} else if !math.IsInf(posX, 1) {
		lightest = math.Min(lightest, posX)
	}
	return lightest
}

// Index returns the searched index.
func (s *Searcher) Index() *fmindex.Index {
	return s.index
}

// Settings returns the searcher's settings.
func (s *Searcher) Settings() Settings {
	return s.settings
}

// MapPeptide returns every mapping of peptide. No match yields an empty
// result and a nil error. On ErrPathLimit or cancellation the mappings found
// so far are returned with the error.
func (s *Searcher) MapPeptide(ctx context.Context, peptide string) ([]mapping.PeptideProteinMapping, error) {
	p := strings.ToUpper(strings.TrimSpace(peptide))
	if p == "" {
		return nil, ErrEmptyQuery
	}
	if err := sequence.ValidateResidues(p); err != nil {
		return nil, fmt.Errorf("peptide %q: %w", peptide, err)
	}

	segs := []segment{{residues: tag.Run(p).Residues}}
	q := s.newQuery(segs, s.assembler.WildcardQuota(len(p)))
	err := q.run(ctx)
	return q.out.Results(), err
}

// MapTag returns every mapping of t. Errors behave as in MapPeptide. A
// modification declared on a tag residue must be in the catalog, otherwise a
// *modification.CatalogError is returned before searching.
func (s *Searcher) MapTag(ctx context.Context, t *tag.Tag) ([]mapping.PeptideProteinMapping, error) {
	if t == nil {
		return nil, ErrEmptyQuery
	}
	if err := s.checkDeclared(t); err != nil {
		return nil, err
	}
	// the peptide length is only known once gaps are resolved, so the
	// wildcard quota is left to the assembler
	q := s.newQuery(s.segments(t), -1)
	err := q.run(ctx)
	return q.out.Results(), err
}

func (s *Searcher) checkDeclared(t *tag.Tag) error {
	for _, c := range t.Components() {
		run, ok := c.(tag.ResidueRun)
		if !ok {
			continue
		}
		for _, r := range run.Residues {
			if r.ModID == "" {
				continue
			}
			if _, ok := s.settings.Catalog.Lookup(r.ModID); !ok {
				return &modification.CatalogError{ID: r.ModID, Reason: "declared on a tag residue but not in the catalog"}
			}
		}
	}
	return nil
}

// segment is a tag component in search order.
type segment struct {
	gap      bool
	mass     float64
	cTerm    bool
	nTerm    bool
	maxSteps int
	residues []tag.Residue
}

func (s *Searcher) segments(t *tag.Tag) []segment {
	comps := t.Components()
	segs := make([]segment, 0, len(comps))
	for i := len(comps) - 1; i >= 0; i-- {
		switch c := comps[i].(type) {
		case tag.MassGap:
			segs = append(segs, segment{
				gap:      true,
				mass:     c.Value,
				cTerm:    i == len(comps)-1,
				nTerm:    i == 0,
				maxSteps: s.maxGapSteps(c.Value),
			})
		case tag.ResidueRun:
			segs = append(segs, segment{residues: c.Residues})
		}
	}
	return segs
}

func (s *Searcher) maxGapSteps(mass float64) int {
	if s.lightest > 0 {
		return int((mass+s.settings.Tolerance.Of(mass))/s.lightest) + 1
	}
	return int(mass/sequence.LightestResidueMass()) + 8
}

func (s *Searcher) emptyGap(sg *segment) bool {
	return sg.mass <= s.settings.Tolerance.Of(sg.mass)
}
