package sequence

import "fmt"

// SequenceError is the base error type for sequence operations.
type SequenceError interface {
	error
	IsSequenceError()
}

// EmptySequenceError is returned when a protein has no residues.
type EmptySequenceError struct {
	Accession string
}

func (e *EmptySequenceError) Error() string {
	if e.Accession != "" {
		return fmt.Sprintf("protein %s must have at least one residue", e.Accession)
	}
	return "sequence must have at least one residue"
}

func (e *EmptySequenceError) IsSequenceError() {}

// InvalidResidueError is returned when a character is not an amino-acid letter.
type InvalidResidueError struct {
	Position int
	Found    rune
}

func (e *InvalidResidueError) Error() string {
	return fmt.Sprintf("invalid residue '%c' at position %d", e.Found, e.Position)
}

func (e *InvalidResidueError) IsSequenceError() {}

// MissingAccessionError is returned when a protein has no accession.
type MissingAccessionError struct{}

func (e *MissingAccessionError) Error() string {
	return "protein accession cannot be empty"
}

func (e *MissingAccessionError) IsSequenceError() {}

// ValidateResidues checks that residues only contains upper-case letters.
func ValidateResidues(residues string) error {
	for i := 0; i < len(residues); i++ {
		if !IsResidue(residues[i]) {
			return &InvalidResidueError{Position: i, Found: rune(residues[i])}
		}
	}
	return nil
}

// IsResidue reports whether c is an upper-case amino-acid letter (A-Z).
func IsResidue(c byte) bool {
	return c >= 'A' && c <= 'Z'
}
