package search

import (
	"context"
	"math"
	"sort"

	"github.com/aria-lang/pepmap-go/internal/fmindex"
	"github.com/aria-lang/pepmap-go/internal/mapping"
	"github.com/aria-lang/pepmap-go/internal/modification"
	"github.com/aria-lang/pepmap-go/internal/sequence"
	"github.com/aria-lang/pepmap-go/internal/tag"
	"github.com/aria-lang/pepmap-go/internal/variant"
)

// link is a persistent list of resolved steps. The head is the leftmost
// step; tails are shared between frames.
type link struct {
	step mapping.Step
	next *link
}

// residue returns the k-th resolved residue of the list, skipping
// deletions. It is the right context of a residue about to be prepended.
func (l *link) residue(k int) (byte, bool) {
	for ; l != nil; l = l.next {
		if l.step.Residue == 0 {
			continue
		}
		if k == 0 {
			return l.step.Residue, true
		}
		k--
	}
	return 0, false
}

// frame is one partial path on the work stack.
type frame struct {
	iv  fmindex.Interval
	seg int

	// run state: next residue index, counting down
	pos int
	// deletable is set when the previous step of the current run was a
	// plain match or a deletion, which is where a deletion may follow
	deletable bool

	// gap state
	remaining float64
	acc       float64
	steps     int

	budget    variant.Budget
	wildcards int
	// anchored is set when the path starts at a protein C-terminus
	anchored bool
	trail    *link
}

type query struct {
	s     *Searcher
	segs  []segment
	quota int
	stack []frame
	out   *mapping.Collector
	pops  int
}

func (s *Searcher) newQuery(segs []segment, quota int) *query {
	q := &query{s: s, segs: segs, quota: quota, out: mapping.NewCollector()}

	f := frame{iv: s.index.Full(), budget: s.settings.Policy.Start().Check()}
	first := &segs[0]
	if first.gap && !s.emptyGap(first) && s.matcher.Has(modification.ProteinCTerm) {
		anchored := f
		anchored.iv = s.index.SeparatorInterval()
		anchored.anchored = true
		q.enter(anchored, 0)

		f.iv = s.index.ResidueInterval()
	}
	q.enter(f, 0)
	return q
}

func (q *query) push(f frame) {
	q.stack = append(q.stack, f)
}

func (q *query) run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for len(q.stack) > 0 {
		q.pops++
		if q.pops%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if q.pops > q.s.maxPaths {
			return ErrPathLimit
		}

		f := q.stack[len(q.stack)-1]
		q.stack = q.stack[:len(q.stack)-1]
		if seg := &q.segs[f.seg]; seg.gap {
			q.gapStep(f, seg)
		} else {
			q.runStep(f, seg)
		}
	}
	return nil
}

// enter moves f to segment next, skipping empty gaps, and completes the
// path past the last segment.
func (q *query) enter(f frame, next int) {
	for ; next < len(q.segs); next++ {
		sg := &q.segs[next]
		f.seg = next
		if !sg.gap {
			f.pos = len(sg.residues) - 1
			f.deletable = false
			q.push(f)
			return
		}
		if !q.s.emptyGap(sg) {
			f.remaining, f.acc, f.steps = sg.mass, 0, 0
			q.push(f)
			return
		}
	}
	q.complete(f)
}

func (q *query) complete(f frame) {
	var steps []mapping.Step
	for l := f.trail; l != nil; l = l.next {
		steps = append(steps, l.step)
	}
	q.s.assembler.Assemble(mapping.Path{Steps: steps, Rows: f.iv}, q.out)
}

// matches reports whether corpus residue c matches query residue r, and
// whether c is a wildcard standing in for r.
func (s *Searcher) matches(c, r byte) (ok, wildcard bool) {
	if c == r {
		return true, false
	}
	if s.settings.Matching == StringMatching {
		return false, false
	}
	if c == sequence.Wildcard {
		return true, true
	}
	if sequence.Covers(c, r) || sequence.Covers(r, c) {
		return true, false
	}
	if s.settings.Matching == Indistinguishable && isIL(c) && isIL(r) {
		return true, false
	}
	return false, false
}

func isIL(r byte) bool {
	return r == 'I' || r == 'L' || r == 'J'
}

func (q *query) runStep(f frame, seg *segment) {
	if f.pos < 0 {
		q.enter(f, f.seg+1)
		return
	}
	qr := seg.residues[f.pos]
	idx := q.s.index

	for _, c := range q.s.residues {
		ok, wild := q.s.matches(c, qr.AA)
		if !ok {
			continue
		}
		iv, ok := idx.Extend(f.iv, c)
		if !ok {
			continue
		}
		g := f
		if wild {
			g.wildcards++
			if q.quota >= 0 && g.wildcards > q.quota {
				continue
			}
		}
		g.iv, g.pos, g.deletable = iv, f.pos-1, true
		g.trail = &link{
			step: mapping.Step{Residue: c, Corpus: true, Wildcard: wild, ModID: qr.ModID},
			next: f.trail,
		}
		q.push(g)
	}

	policy := q.s.settings.Policy
	if !policy.Enabled() || f.budget.Total == 0 {
		return
	}
	interior := f.pos > 0 && f.pos < len(seg.residues)-1
	if policy.Type == variant.FixedType {
		q.fixedEdits(f, qr, interior)
		return
	}

	if b, ok := f.budget.Spend(variant.KindSubstitution); ok {
		for _, c := range q.s.residues {
			if c == sequence.Wildcard {
				continue
			}
			if lit, _ := q.s.matches(c, qr.AA); lit || !policy.AllowsSubstitution(c, qr.AA) {
				continue
			}
			q.pushEdit(f, b, c, qr, variant.Substitution{Original: c, New: qr.AA}, nil)
		}
	}
	if b, ok := f.budget.Spend(variant.KindInsertion); ok && interior {
		q.pushEdit(f, b, 0, qr, variant.Insertion{New: qr.AA}, nil)
	}
	if b, ok := f.budget.Spend(variant.KindDeletion); ok && f.deletable {
		for _, c := range q.s.residues {
			q.pushEdit(f, b, c, qr, variant.Deletion{Removed: c}, nil)
		}
	}
}

// fixedEdits branches into the edits of a fixed variant table. Each edit is
// pinned to its protein position and checked when the path is assembled.
func (q *query) fixedEdits(f frame, qr tag.Residue, interior bool) {
	table := q.s.settings.Policy.Table

	if b, ok := f.budget.Spend(variant.KindSubstitution); ok {
		for _, fv := range table.SubstitutionsTo(qr.AA) {
			fv := fv
			q.pushEdit(f, b, fv.Original, qr, fv.Variant(), &fv)
		}
	}
	if b, ok := f.budget.Spend(variant.KindInsertion); ok && interior {
		for _, fv := range table.InsertionsOf(qr.AA) {
			fv := fv
			q.pushEdit(f, b, 0, qr, fv.Variant(), &fv)
		}
	}
	if b, ok := f.budget.Spend(variant.KindDeletion); ok && f.deletable {
		for _, fv := range table.Deletions() {
			fv := fv
			q.pushEdit(f, b, fv.Original, qr, fv.Variant(), &fv)
		}
	}
}

// pushEdit pushes the frame following an edit. c is the corpus residue the
// edit extends with, zero for an insertion.
func (q *query) pushEdit(f frame, b variant.Budget, c byte, qr tag.Residue, v variant.Variant, pin *variant.FixedVariant) {
	g := f
	g.budget = b
	g.deletable = false
	step := mapping.Step{Variant: v, Pin: pin}

	switch v.(type) {
	case variant.Substitution:
		iv, ok := q.s.index.Extend(f.iv, c)
		if !ok {
			return
		}
		g.iv, g.pos = iv, f.pos-1
		step.Residue, step.Corpus, step.ModID = qr.AA, true, qr.ModID
	case variant.Insertion:
		g.pos = f.pos - 1
		step.Residue, step.ModID = qr.AA, qr.ModID
	case variant.Deletion:
		iv, ok := q.s.index.Extend(f.iv, c)
		if !ok {
			return
		}
		g.iv, g.deletable = iv, true
		step.Corpus = true
	}
	g.trail = &link{step: step, next: f.trail}
	q.push(g)
}

// closeMode tells whether a gap residue closes the N-terminal gap.
type closeMode int

const (
	open closeMode = iota
	closePeptide
	closeProtein
)

// choice is one way of counting a gap residue: its total mass and the
// modifications making it up.
type choice struct {
	mass  float64
	fixed []string
	modID string
}

func (q *query) gapStep(f frame, seg *segment) {
	s := q.s
	modes := []closeMode{open}
	if seg.nTerm {
		modes = append(modes, closePeptide)
		if s.matcher.Has(modification.ProteinNTerm) {
			modes = append(modes, closeProtein)
		}
	}
	cFirst := seg.cTerm && f.steps == 0

	for _, c := range s.residues {
		bases := s.masses[c-'A']
		if len(bases) == 0 || (c == sequence.Wildcard && s.settings.Matching == StringMatching) {
			continue
		}
		iv, ok := s.index.Extend(f.iv, c)
		if !ok {
			continue
		}

		for _, mode := range modes {
			classes := []modification.TerminalClass{modification.Anywhere}
			if cFirst {
				classes = append(classes, modification.PeptideCTerm)
				if f.anchored {
					classes = append(classes, modification.ProteinCTerm)
				}
			}
			if mode != open {
				classes = append(classes, modification.PeptideNTerm)
			}
			if mode == closeProtein {
				classes = append(classes, modification.ProteinNTerm)
			}

			for _, ch := range s.choices(c, bases, f.trail.residue, classes, mode == closeProtein) {
				acc := f.acc + ch.mass
				rem := f.remaining - ch.mass
				tol := s.settings.Tolerance.Of(acc)
				if rem < -tol {
					continue
				}

				g := f
				g.iv, g.acc, g.remaining, g.steps = iv, acc, rem, f.steps+1
				if c == sequence.Wildcard {
					g.wildcards++
				}
				g.trail = &link{
					step: mapping.Step{
						Residue:  c,
						Corpus:   true,
						Wildcard: c == sequence.Wildcard,
						Gap:      true,
						ModID:    ch.modID,
						Fixed:    ch.fixed,
					},
					next: f.trail,
				}

				closed := math.Abs(rem) <= tol
				if mode != open {
					if closed {
						q.enter(g, f.seg+1)
					}
					continue
				}
				if closed && !seg.nTerm {
					q.enter(g, f.seg+1)
				}
				if rem > tol && (s.lightest <= 0 || rem >= s.lightest-tol) && g.steps < seg.maxSteps {
					q.push(g)
				}
			}
		}
	}
}

// choices enumerates the masses a gap residue c can take in the given
// terminal classes. Fixed modifications are mandatory, except those with
// left context, which are tried both ways and settled at assembly. At most
// one variable modification is added. A wildcard needs a non-zero
// modification mass. With needProteinN at least one protein N-terminal
// modification must be used.
func (s *Searcher) choices(c byte, bases []float64, right func(int) (byte, bool), classes []modification.TerminalClass, needProteinN bool) []choice {
	var (
		fixedMass   float64
		fixedIDs    []string
		fixedProtN  bool
		conditional []*modification.Modification
		variables   []*modification.Modification
	)
	for _, t := range classes {
		for _, m := range s.matcher.Fixed(t, c) {
			if !modification.RightContextOK(*m, right) {
				continue
			}
			if m.HasLeftContext() {
				conditional = append(conditional, m)
				continue
			}
			fixedMass += m.Mass
			fixedIDs = append(fixedIDs, m.ID)
			if t == modification.ProteinNTerm {
				fixedProtN = true
			}
		}
		for _, m := range s.matcher.Variable(t, c) {
			if modification.RightContextOK(*m, right) {
				variables = append(variables, m)
			}
		}
	}

	var out []choice
	for mask := 0; mask < 1<<len(conditional); mask++ {
		mass := fixedMass
		ids := append([]string(nil), fixedIDs...)
		protN := fixedProtN
		for i, m := range conditional {
			if mask&(1<<i) == 0 {
				continue
			}
			mass += m.Mass
			ids = append(ids, m.ID)
			protN = protN || m.Terminal == modification.ProteinNTerm
		}
		sort.Strings(ids)

		add := func(modMass float64, modID string, usesProtN bool) {
			if needProteinN && !usesProtN {
				return
			}
			if c == sequence.Wildcard && modMass == 0 {
				return
			}
			for _, b := range bases {
				out = append(out, choice{mass: b + modMass, fixed: ids, modID: modID})
			}
		}
		add(mass, "", protN)
		for _, v := range variables {
			add(mass+v.Mass, v.ID, protN || v.Terminal == modification.ProteinNTerm)
		}
	}
	return out
}
