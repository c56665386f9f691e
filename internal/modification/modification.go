// Package modification describes post-translational modifications and
// decides where a modification may sit on a peptide.
//
// A modification has a mass delta, a specificity pattern with a target
// position, and a terminal class. Fixed modifications apply wherever their
// specificity is satisfied; variable modifications are optional. The
// catalog holding both lists is built once by the caller and passed to the
// search explicitly.
package modification

import (
	"fmt"
	"math"
	"strings"
)

// TerminalClass restricts a modification to a terminus.
type TerminalClass int

const (
	// Anywhere places no terminal restriction.
	Anywhere TerminalClass = iota
	// PeptideNTerm requires the first residue of the peptide.
	PeptideNTerm
	// PeptideCTerm requires the last residue of the peptide.
	PeptideCTerm
	// ProteinNTerm requires the first residue of the protein.
	ProteinNTerm
	// ProteinCTerm requires the last residue of the protein.
	ProteinCTerm
)

var terminalNames = map[TerminalClass]string{
	Anywhere:     "none",
	PeptideNTerm: "peptide-n-term",
	PeptideCTerm: "peptide-c-term",
	ProteinNTerm: "protein-n-term",
	ProteinCTerm: "protein-c-term",
}

func (t TerminalClass) String() string {
	if s, ok := terminalNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseTerminal parses the names produced by TerminalClass.String. The empty
// string means Anywhere.
func ParseTerminal(s string) (TerminalClass, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Anywhere, nil
	}
	for t, name := range terminalNames {
		if name == s {
			return t, nil
		}
	}
	return Anywhere, fmt.Errorf("unknown terminal class %q", s)
}

// IsNTerminal reports whether t is a peptide or protein N-terminal class.
func (t TerminalClass) IsNTerminal() bool {
	return t == PeptideNTerm || t == ProteinNTerm
}

// IsCTerminal reports whether t is a peptide or protein C-terminal class.
func (t TerminalClass) IsCTerminal() bool {
	return t == PeptideCTerm || t == ProteinCTerm
}

// PositionClass tells which termini a residue sits on.
type PositionClass struct {
	PeptideNTerm bool
	PeptideCTerm bool
	ProteinNTerm bool
	ProteinCTerm bool
}

// Internal is the position class of a residue away from every terminus.
var Internal = PositionClass{}

// Satisfies reports whether a residue in class pc may carry a modification
// of terminal class t.
func (pc PositionClass) Satisfies(t TerminalClass) bool {
	switch t {
	case Anywhere:
		return true
	case PeptideNTerm:
		return pc.PeptideNTerm
	case PeptideCTerm:
		return pc.PeptideCTerm
	case ProteinNTerm:
		return pc.ProteinNTerm
	case ProteinCTerm:
		return pc.ProteinCTerm
	default:
		return false
	}
}

// Modification is a mass-altering chemical modification.
type Modification struct {
	ID       string
	Mass     float64
	Pattern  *Pattern // nil accepts any residue
	Target   int      // pattern position of the modified residue
	Terminal TerminalClass
}

// New creates a validated modification. An empty pattern accepts any
// residue.
func New(id string, mass float64, pattern string, target int, terminal TerminalClass) (Modification, error) {
	m := Modification{ID: id, Mass: mass, Target: target, Terminal: terminal}
	if strings.TrimSpace(pattern) != "" {
		p, err := ParsePattern(pattern)
		if err != nil {
			return Modification{}, fmt.Errorf("modification %q: %w", id, err)
		}
		m.Pattern = p
	}
	if err := m.Validate(); err != nil {
		return Modification{}, err
	}
	return m, nil
}

// MustNew is like New but panics on error.
func MustNew(id string, mass float64, pattern string, target int, terminal TerminalClass) Modification {
	m, err := New(id, mass, pattern, target, terminal)
	if err != nil {
		panic(err)
	}
	return m
}

// Validate checks the modification definition.
func (m Modification) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("modification id cannot be empty")
	}
	if math.IsNaN(m.Mass) || math.IsInf(m.Mass, 0) {
		return fmt.Errorf("modification %q: mass must be finite", m.ID)
	}
	if _, ok := terminalNames[m.Terminal]; !ok {
		return fmt.Errorf("modification %q: unknown terminal class %d", m.ID, m.Terminal)
	}
	if m.Pattern == nil {
		if m.Target != 0 {
			return fmt.Errorf("modification %q: target %d without pattern", m.ID, m.Target)
		}
		return nil
	}
	if m.Target < 0 || m.Target >= m.Pattern.Len() {
		return fmt.Errorf("modification %q: target %d outside pattern %s", m.ID, m.Target, m.Pattern)
	}
	return nil
}

// HasContext reports whether the specificity spans more than one residue.
func (m Modification) HasContext() bool {
	return m.Pattern != nil && m.Pattern.Len() > 1
}

// HasLeftContext reports whether the pattern constrains residues before the
// modified one.
func (m Modification) HasLeftContext() bool {
	return m.Pattern != nil && m.Target > 0
}

// AcceptsResidue reports whether the modified residue may be r, ignoring
// context and termini.
func (m Modification) AcceptsResidue(r byte) bool {
	if m.Pattern == nil {
		return r >= 'A' && r <= 'Z'
	}
	return m.Pattern.Accepts(m.Target, r)
}

// IsApplicable reports whether m may sit on residue r in position class pc.
// Context residues of multi-residue patterns are not checked.
func IsApplicable(m Modification, r byte, pc PositionClass) bool {
	return pc.Satisfies(m.Terminal) && m.AcceptsResidue(r)
}

// MatchesWindow reports whether m may sit on peptide[site0] given the whole
// resolved peptide. Context positions outside the peptide do not match.
func MatchesWindow(m Modification, peptide string, site0 int, pc PositionClass) bool {
	if site0 < 0 || site0 >= len(peptide) || !IsApplicable(m, peptide[site0], pc) {
		return false
	}
	if !m.HasContext() {
		return true
	}
	return m.Pattern.MatchAt(peptide, site0, m.Target)
}

// RightContextOK checks the pattern positions after the target against the
// residues already resolved to the right of the modified residue. right(k)
// returns the k-th residue to the right (0 = adjacent) and false past the
// peptide end.
func RightContextOK(m Modification, right func(k int) (byte, bool)) bool {
	if !m.HasContext() {
		return true
	}
	for i := m.Target + 1; i < m.Pattern.Len(); i++ {
		r, ok := right(i - m.Target - 1)
		if !ok || !m.Pattern.Accepts(i, r) {
			return false
		}
	}
	return true
}

// String returns a short description of the modification.
func (m Modification) String() string {
	pattern := "X"
	if m.Pattern != nil {
		pattern = m.Pattern.String()
	}
	return fmt.Sprintf("%s (%+.6f on %s, %s)", m.ID, m.Mass, pattern, m.Terminal)
}
