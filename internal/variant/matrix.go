package variant

import (
	"fmt"
	"strings"

	"github.com/aria-lang/pepmap-go/internal/sequence"
)

// SubstitutionMatrix is an allow-list of residue substitutions. A nil matrix
// allows every substitution.
type SubstitutionMatrix struct {
	name    string
	allowed [26][26]bool
}

// NewSubstitutionMatrix returns an empty matrix.
func NewSubstitutionMatrix(name string) *SubstitutionMatrix {
	return &SubstitutionMatrix{name: name}
}

// Allow adds the substitution original -> replacement.
func (m *SubstitutionMatrix) Allow(original, replacement byte) {
	if !sequence.IsResidue(original) || !sequence.IsResidue(replacement) || original == replacement {
		return
	}
	m.allowed[original-'A'][replacement-'A'] = true
}

// Allows reports whether original may be replaced by replacement.
func (m *SubstitutionMatrix) Allows(original, replacement byte) bool {
	if original == replacement || !sequence.IsResidue(original) || !sequence.IsResidue(replacement) {
		return false
	}
	if m == nil {
		return true
	}
	return m.allowed[original-'A'][replacement-'A']
}

// Len returns the number of allowed substitutions.
func (m *SubstitutionMatrix) Len() int {
	if m == nil {
		return 26 * 25
	}
	n := 0
	for i := range m.allowed {
		for j := range m.allowed[i] {
			if m.allowed[i][j] {
				n++
			}
		}
	}
	return n
}

// Name returns the matrix name.
func (m *SubstitutionMatrix) Name() string {
	if m == nil {
		return "all"
	}
	return m.name
}

func (m *SubstitutionMatrix) String() string {
	return fmt.Sprintf("%s (%d substitutions)", m.Name(), m.Len())
}

// AllSubstitutions allows every pair of standard residues.
func AllSubstitutions() *SubstitutionMatrix {
	m := NewSubstitutionMatrix("all")
	std := sequence.Standard()
	for _, a := range std {
		for _, b := range std {
			m.Allow(a, b)
		}
	}
	return m
}

var codonTable = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',

	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',

	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',

	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

// SingleBaseSubstitutions allows the substitutions reachable by changing one
// nucleotide of a codon in the standard genetic code. Stop codons are
// skipped.
func SingleBaseSubstitutions() *SubstitutionMatrix {
	m := NewSubstitutionMatrix("single base")
	const bases = "ACGT"
	for codon, aa := range codonTable {
		if aa == '*' {
			continue
		}
		for i := 0; i < 3; i++ {
			for j := 0; j < len(bases); j++ {
				if codon[i] == bases[j] {
					continue
				}
				mutated := codon[:i] + string(bases[j]) + codon[i+1:]
				if other := codonTable[mutated]; other != '*' {
					m.Allow(aa, other)
				}
			}
		}
	}
	return m
}

// ParseSubstitutions parses a comma-separated list such as "A>G,D>E". The
// names "all" and "single-base" select the built-in matrices.
func ParseSubstitutions(s string) (*SubstitutionMatrix, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "all":
		return AllSubstitutions(), nil
	case "single-base", "single_base", "singlebase":
		return SingleBaseSubstitutions(), nil
	}

	m := NewSubstitutionMatrix("custom")
	for _, field := range strings.Split(s, ",") {
		field = strings.ToUpper(strings.TrimSpace(field))
		if len(field) != 3 || field[1] != '>' {
			return nil, fmt.Errorf("invalid substitution %q, expected X>Y", field)
		}
		a, b := field[0], field[2]
		if !sequence.IsResidue(a) || !sequence.IsResidue(b) || a == b {
			return nil, fmt.Errorf("invalid substitution %q", field)
		}
		m.Allow(a, b)
	}
	return m, nil
}
