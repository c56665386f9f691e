// Package mapping holds the peptide-to-protein mapping records produced by a
// search and the assembler turning search paths into them.
package mapping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aria-lang/pepmap-go/internal/modification"
	"github.com/aria-lang/pepmap-go/internal/variant"
)

// ModificationSite is a modification on a 1-based peptide site.
type ModificationSite = modification.Site

// PeptideProteinMapping places a resolved peptide on a protein.
type PeptideProteinMapping struct {
	// Peptide is the resolved sequence. Corpus wildcards stay X.
	Peptide   string `json:"peptide"`
	Accession string `json:"accession"`
	// Index is the 0-based offset of the first residue in the protein.
	Index int `json:"index"`
	// Modifications are the variable modifications, including those
	// declared on tag residues.
	Modifications []ModificationSite `json:"modifications,omitempty"`
	// FixedModifications are the fixed modifications sitting on the peptide.
	FixedModifications []ModificationSite `json:"fixedModifications,omitempty"`
	// Variants maps 1-based sites to edits. Sites number the resolved
	// residues and the deletions together in peptide order: a deletion
	// takes the site the next residue would have had and shifts the edits
	// after it by one. Nil when no edit was used.
	Variants map[int]variant.Variant `json:"variants,omitempty"`
	Decoy    bool                    `json:"decoy,omitempty"`
}

// VariantSites returns the sites of Variants in ascending order.
func (m PeptideProteinMapping) VariantSites() []int {
	sites := make([]int, 0, len(m.Variants))
	for site := range m.Variants {
		sites = append(sites, site)
	}
	sort.Ints(sites)
	return sites
}

// key identifies a mapping for de-duplication. Fixed modifications follow
// from the other fields and are left out.
func (m PeptideProteinMapping) key() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\x00%d\x00%s\x00", m.Accession, m.Index, m.Peptide)
	for _, s := range m.Modifications {
		fmt.Fprintf(&sb, "%d:%s;", s.Site, s.ID)
	}
	sb.WriteByte(0)
	for _, site := range m.VariantSites() {
		v := m.Variants[site]
		fmt.Fprintf(&sb, "%d:%s:%s;", site, v.Kind(), v)
	}
	return sb.String()
}

func (m PeptideProteinMapping) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s:%d", m.Peptide, m.Accession, m.Index)
	for _, s := range m.Modifications {
		fmt.Fprintf(&sb, " %s@%d", s.ID, s.Site)
	}
	for _, site := range m.VariantSites() {
		fmt.Fprintf(&sb, " %s@%d", m.Variants[site], site)
	}
	return sb.String()
}

// Less orders mappings by accession, offset, peptide and then the remaining
// identifying fields.
func Less(a, b PeptideProteinMapping) bool {
	if a.Accession != b.Accession {
		return a.Accession < b.Accession
	}
	if a.Index != b.Index {
		return a.Index < b.Index
	}
	if a.Peptide != b.Peptide {
		return a.Peptide < b.Peptide
	}
	return a.key() < b.key()
}

// Sort orders mappings with Less.
func Sort(ms []PeptideProteinMapping) {
	sort.SliceStable(ms, func(i, j int) bool { return Less(ms[i], ms[j]) })
}

// AccessionSummary counts the mappings of one accession.
type AccessionSummary struct {
	Accession string `json:"accession"`
	Mappings  int    `json:"mappings"`
	Offsets   []int  `json:"offsets"`
	Variants  int    `json:"variants"`
	Decoy     bool   `json:"decoy,omitempty"`
}

// Summary groups mappings per accession in accession order. Offsets are
// distinct and ascending.
func Summary(ms []PeptideProteinMapping) []AccessionSummary {
	byAcc := make(map[string]*AccessionSummary)
	seen := make(map[string]map[int]bool)
	for _, m := range ms {
		s, ok := byAcc[m.Accession]
		if !ok {
			s = &AccessionSummary{Accession: m.Accession, Decoy: m.Decoy}
			byAcc[m.Accession] = s
			seen[m.Accession] = make(map[int]bool)
		}
		s.Mappings++
		if len(m.Variants) > 0 {
			s.Variants++
		}
		if !seen[m.Accession][m.Index] {
			seen[m.Accession][m.Index] = true
			s.Offsets = append(s.Offsets, m.Index)
		}
	}

	out := make([]AccessionSummary, 0, len(byAcc))
	for _, s := range byAcc {
		sort.Ints(s.Offsets)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Accession < out[j].Accession })
	return out
}
