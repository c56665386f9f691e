package mapping

import (
	"github.com/aria-lang/pepmap-go/internal/sequence"
)

// MaxExpansions caps the concrete peptides one mapping expands into.
const MaxExpansions = 256

// ExpandCombinations replaces every mapping whose peptide holds a
// combination residue (B, J, Z) by one mapping per concrete peptide.
// Wildcards are kept. Mappings without combination residues pass through,
// as do those that would expand into more than MaxExpansions peptides;
// skipped counts the latter.
func ExpandCombinations(ms []PeptideProteinMapping) (out []PeptideProteinMapping, skipped int) {
	c := NewCollector()
	for _, m := range ms {
		peptides, ok := expand(m.Peptide, MaxExpansions)
		if !ok {
			skipped++
			c.Add(m)
			continue
		}
		for _, peptide := range peptides {
			e := m
			e.Peptide = peptide
			c.Add(e)
		}
	}
	return c.Results(), skipped
}

// expand returns the concrete peptides of peptide, or false when there are
// more than limit.
func expand(peptide string, limit int) ([]string, bool) {
	n := 1
	for i := 0; i < len(peptide); i++ {
		if sequence.IsCombination(peptide[i]) {
			n *= len(sequence.Members(peptide[i]))
			if n > limit {
				return nil, false
			}
		}
	}

	out := make([]string, 1, n)
	for i := 0; i < len(peptide); i++ {
		r := peptide[i]
		members := []byte{r}
		if sequence.IsCombination(r) {
			members = sequence.Members(r)
		}
		next := make([]string, 0, len(out)*len(members))
		for _, prefix := range out {
			for _, m := range members {
				next = append(next, prefix+string(m))
			}
		}
		out = next
	}
	return out, true
}
