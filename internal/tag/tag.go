// Package tag models de novo sequence tags: residue runs separated by
// unresolved mass gaps.
package tag

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aria-lang/pepmap-go/internal/sequence"
)

// TagError is returned for a malformed tag.
type TagError struct {
	Input  string
	Offset int
	Reason string
}

func (e *TagError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("invalid tag: %s", e.Reason)
	}
	return fmt.Sprintf("invalid tag %q at offset %d: %s", e.Input, e.Offset, e.Reason)
}

// Component is a MassGap or a ResidueRun.
type Component interface {
	isComponent()
}

// MassGap is an unresolved mass in Dalton: residue and modification masses,
// no water.
type MassGap struct {
	Value float64
}

// Residue is one amino acid of a run, possibly carrying a known
// modification.
type Residue struct {
	AA    byte
	ModID string
}

// ResidueRun is a stretch of resolved residues.
type ResidueRun struct {
	Residues []Residue
}

func (MassGap) isComponent()    {}
func (ResidueRun) isComponent() {}

// Run builds a residue run from plain letters.
func Run(residues string) ResidueRun {
	run := ResidueRun{Residues: make([]Residue, len(residues))}
	for i := 0; i < len(residues); i++ {
		run.Residues[i] = Residue{AA: residues[i]}
	}
	return run
}

// Sequence returns the residue letters of the run.
func (r ResidueRun) Sequence() string {
	b := make([]byte, len(r.Residues))
	for i, res := range r.Residues {
		b[i] = res.AA
	}
	return string(b)
}

// Tag alternates strictly between gaps and runs, starting and ending with a
// gap. It is immutable.
type Tag struct {
	components []Component
}

// New normalizes components into a tag. Adjacent gaps are summed, adjacent
// runs are joined, empty runs are dropped and zero gaps are added at both
// ends when missing.
func New(components ...Component) (*Tag, error) {
	var out []Component
	for _, c := range components {
		switch c := c.(type) {
		case MassGap:
			if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) || c.Value < 0 {
				return nil, &TagError{Reason: fmt.Sprintf("mass gap must be finite and non-negative, got %v", c.Value)}
			}
			if n := len(out); n > 0 {
				if prev, ok := out[n-1].(MassGap); ok {
					out[n-1] = MassGap{Value: prev.Value + c.Value}
					continue
				}
			}
			out = append(out, c)
		case ResidueRun:
			if len(c.Residues) == 0 {
				continue
			}
			residues := make([]Residue, len(c.Residues))
			for i, r := range c.Residues {
				aa := r.AA
				if aa >= 'a' && aa <= 'z' {
					aa -= 'a' - 'A'
				}
				if !sequence.IsResidue(aa) {
					return nil, &TagError{Reason: fmt.Sprintf("invalid residue %q", r.AA)}
				}
				residues[i] = Residue{AA: aa, ModID: r.ModID}
			}
			if n := len(out); n > 0 {
				if prev, ok := out[n-1].(ResidueRun); ok {
					joined := append(append([]Residue{}, prev.Residues...), residues...)
					out[n-1] = ResidueRun{Residues: joined}
					continue
				}
			}
			out = append(out, ResidueRun{Residues: residues})
		case nil:
			return nil, &TagError{Reason: "nil component"}
		default:
			return nil, &TagError{Reason: fmt.Sprintf("unknown component %T", c)}
		}
	}

	if len(out) == 0 {
		return nil, &TagError{Reason: "tag has no component"}
	}
	if _, ok := out[0].(MassGap); !ok {
		out = append([]Component{MassGap{}}, out...)
	}
	if _, ok := out[len(out)-1].(MassGap); !ok {
		out = append(out, MassGap{})
	}
	return &Tag{components: out}, nil
}

// MustNew is like New but panics on error.
func MustNew(components ...Component) *Tag {
	t, err := New(components...)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse reads the text form of a tag, for example
//
//	<120.0528>PEPT(Phosphorylation of T)IDE<0>
//
// Masses go in angle brackets and a modification identifier in parentheses
// follows the residue it sits on.
func Parse(s string) (*Tag, error) {
	var components []Component
	var run []Residue
	flush := func() {
		if len(run) > 0 {
			components = append(components, ResidueRun{Residues: run})
			run = nil
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
		case c == '<':
			end := strings.IndexByte(s[i:], '>')
			if end < 0 {
				return nil, &TagError{Input: s, Offset: i, Reason: "unterminated mass gap"}
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(s[i+1:i+end]), 64)
			if err != nil {
				return nil, &TagError{Input: s, Offset: i + 1, Reason: fmt.Sprintf("invalid mass %q", s[i+1:i+end])}
			}
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return nil, &TagError{Input: s, Offset: i + 1, Reason: "mass gap must be finite and non-negative"}
			}
			flush()
			components = append(components, MassGap{Value: v})
			i += end
		case c == '(':
			end := strings.IndexByte(s[i:], ')')
			if end < 0 {
				return nil, &TagError{Input: s, Offset: i, Reason: "unterminated modification"}
			}
			if len(run) == 0 {
				return nil, &TagError{Input: s, Offset: i, Reason: "modification without residue"}
			}
			id := strings.TrimSpace(s[i+1 : i+end])
			if id == "" {
				return nil, &TagError{Input: s, Offset: i, Reason: "empty modification"}
			}
			run[len(run)-1].ModID = id
			i += end
		case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z'):
			if c >= 'a' {
				c -= 'a' - 'A'
			}
			run = append(run, Residue{AA: c})
		default:
			return nil, &TagError{Input: s, Offset: i, Reason: fmt.Sprintf("unexpected %q", c)}
		}
	}
	flush()

	t, err := New(components...)
	if err != nil {
		if te, ok := err.(*TagError); ok {
			te.Input = s
		}
		return nil, err
	}
	return t, nil
}

// Components returns the alternating components. It must not be modified.
func (t *Tag) Components() []Component {
	return t.components
}

// Gaps returns the mass gap values from N- to C-terminus.
func (t *Tag) Gaps() []float64 {
	var gaps []float64
	for _, c := range t.components {
		if g, ok := c.(MassGap); ok {
			gaps = append(gaps, g.Value)
		}
	}
	return gaps
}

// Runs returns the residue runs from N- to C-terminus.
func (t *Tag) Runs() []ResidueRun {
	var runs []ResidueRun
	for _, c := range t.components {
		if r, ok := c.(ResidueRun); ok {
			runs = append(runs, r)
		}
	}
	return runs
}

// NTermGap returns the first gap.
func (t *Tag) NTermGap() float64 {
	return t.components[0].(MassGap).Value
}

// CTermGap returns the last gap.
func (t *Tag) CTermGap() float64 {
	return t.components[len(t.components)-1].(MassGap).Value
}

// ResidueCount returns the number of residues in all runs.
func (t *Tag) ResidueCount() int {
	n := 0
	for _, r := range t.Runs() {
		n += len(r.Residues)
	}
	return n
}

// Mass returns the summed gap and residue masses. mods resolves the mass of
// residue modifications; unknown identifiers count as zero. ok is false when a
// run holds a residue without defined mass.
func (t *Tag) Mass(mods func(id string) float64) (float64, bool) {
	total := 0.0
	for _, c := range t.components {
		switch c := c.(type) {
		case MassGap:
			total += c.Value
		case ResidueRun:
			for _, r := range c.Residues {
				m, ok := sequence.Mass(r.AA)
				if !ok {
					return 0, false
				}
				total += m
				if r.ModID != "" && mods != nil {
					total += mods(r.ModID)
				}
			}
		}
	}
	return total, true
}

// String returns the text form accepted by Parse.
func (t *Tag) String() string {
	var sb strings.Builder
	for _, c := range t.components {
		switch c := c.(type) {
		case MassGap:
			sb.WriteByte('<')
			sb.WriteString(strconv.FormatFloat(c.Value, 'f', -1, 64))
			sb.WriteByte('>')
		case ResidueRun:
			for _, r := range c.Residues {
				sb.WriteByte(r.AA)
				if r.ModID != "" {
					sb.WriteString("(" + r.ModID + ")")
				}
			}
		}
	}
	return sb.String()
}
