// Package sequence provides protein sequence types with validation and the
// amino-acid alphabet used by the mapper.
//
// Residues are upper-case letters. Besides the 20 standard amino acids the
// alphabet accepts U and O, the combination residues B, J and Z, and the
// wildcard X.
package sequence

import (
	"fmt"
	"strings"
)

// Protein is a validated protein entry.
type Protein struct {
	Accession string
	Header    string
	Residues  string
	Decoy     bool
}

// New creates a new protein with validation. Residues are upper-cased.
func New(accession, header, residues string) (*Protein, error) {
	if len(accession) == 0 {
		return nil, &MissingAccessionError{}
	}

	normalized := strings.ToUpper(residues)
	if len(normalized) == 0 {
		return nil, &EmptySequenceError{Accession: accession}
	}

	if err := ValidateResidues(normalized); err != nil {
		return nil, fmt.Errorf("protein %s: %w", accession, err)
	}

	return &Protein{
		Accession: accession,
		Header:    header,
		Residues:  normalized,
	}, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(accession, header, residues string) *Protein {
	p, err := New(accession, header, residues)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of residues.
func (p *Protein) Len() int {
	return len(p.Residues)
}

// CountWildcards counts X residues.
func (p *Protein) CountWildcards() int {
	return strings.Count(p.Residues, string(Wildcard))
}

// Reverse returns a reversed copy of the protein under a new accession.
func (p *Protein) Reverse(accession string) *Protein {
	b := []byte(p.Residues)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return &Protein{
		Accession: accession,
		Header:    p.Header,
		Residues:  string(b),
		Decoy:     true,
	}
}

// ToFASTA returns the protein in FASTA format.
func (p *Protein) ToFASTA() string {
	var sb strings.Builder
	sb.WriteByte('>')
	sb.WriteString(p.Accession)
	if p.Header != "" {
		sb.WriteByte(' ')
		sb.WriteString(p.Header)
	}
	sb.WriteByte('\n')

	// 60 residues per line
	for i := 0; i < len(p.Residues); i += 60 {
		end := i + 60
		if end > len(p.Residues) {
			end = len(p.Residues)
		}
		sb.WriteString(p.Residues[i:end])
		sb.WriteByte('\n')
	}
	return sb.String()
}

// String returns a string representation of the protein.
func (p *Protein) String() string {
	return fmt.Sprintf(">%s\n%s", p.Accession, p.Residues)
}
