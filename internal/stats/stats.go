// Package stats provides summaries of protein collections and of the index
// built over them.
package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aria-lang/pepmap-go/internal/fmindex"
	"github.com/aria-lang/pepmap-go/internal/sequence"
)

// ProteinStats represents statistics for a single protein.
type ProteinStats struct {
	Accession    string
	Length       int
	Mass         float64
	HasMass      bool
	Wildcards    int
	Combinations int
	Composition  map[byte]int
}

// FromProtein calculates statistics for a protein. Mass is the neutral
// monoisotopic mass, only set when every residue has a defined mass.
func FromProtein(p *sequence.Protein) *ProteinStats {
	s := &ProteinStats{
		Accession:   p.Accession,
		Length:      p.Len(),
		Composition: make(map[byte]int),
	}
	for i := 0; i < len(p.Residues); i++ {
		r := p.Residues[i]
		s.Composition[r]++
		switch {
		case r == sequence.Wildcard:
			s.Wildcards++
		case sequence.IsCombination(r):
			s.Combinations++
		}
	}
	s.Mass, s.HasMass = sequence.PeptideMass(p.Residues)
	return s
}

func (s *ProteinStats) String() string {
	mass := "undefined"
	if s.HasMass {
		mass = fmt.Sprintf("%.4f Da", s.Mass)
	}
	return fmt.Sprintf(`ProteinStats {
  accession: %s
  length: %d
  mass: %s
  wildcards: %d, combinations: %d
}`, s.Accession, s.Length, mass, s.Wildcards, s.Combinations)
}

// ProteinSetStats represents aggregated statistics for a set of proteins.
type ProteinSetStats struct {
	Count          int
	Decoys         int
	TotalResidues  int
	MinLength      int
	MaxLength      int
	MeanLength     float64
	MedianLength   int
	N50            int
	TotalWildcards int
}

// FromProteins calculates statistics for a collection of proteins.
func FromProteins(proteins []*sequence.Protein) (*ProteinSetStats, error) {
	if len(proteins) == 0 {
		return nil, fmt.Errorf("protein list cannot be empty")
	}

	lengths := make([]int, len(proteins))
	s := &ProteinSetStats{Count: len(proteins)}
	for i, p := range proteins {
		lengths[i] = p.Len()
		s.TotalWildcards += p.CountWildcards()
		if p.Decoy {
			s.Decoys++
		}
	}
	s.summarize(lengths)
	return s, nil
}

func (s *ProteinSetStats) summarize(lengths []int) {
	sorted := make([]int, len(lengths))
	copy(sorted, lengths)
	sort.Ints(sorted)

	for _, l := range sorted {
		s.TotalResidues += l
	}
	s.MinLength = sorted[0]
	s.MaxLength = sorted[len(sorted)-1]
	s.MeanLength = float64(s.TotalResidues) / float64(len(sorted))

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		s.MedianLength = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		s.MedianLength = sorted[mid]
	}

	// N50: length where half of all residues sit in proteins at least as long
	half := s.TotalResidues / 2
	running := 0
	s.N50 = sorted[len(sorted)-1]
	for i := len(sorted) - 1; i >= 0; i-- {
		running += sorted[i]
		if running >= half {
			s.N50 = sorted[i]
			break
		}
	}
}

func (s *ProteinSetStats) String() string {
	return fmt.Sprintf(`ProteinSetStats {
  count: %d (decoys: %d)
  total residues: %d
  length range: %d - %d
  mean length: %.1f
  median length: %d
  N50: %d
  wildcards: %d
}`, s.Count, s.Decoys, s.TotalResidues, s.MinLength, s.MaxLength,
		s.MeanLength, s.MedianLength, s.N50, s.TotalWildcards)
}

// IndexStats describes an FM-index and the proteins it holds.
type IndexStats struct {
	Proteins   ProteinSetStats
	TextLength int
	Alphabet   string
	SampleRate int
	SizeBytes  int
}

// FromIndex calculates statistics for an index.
func FromIndex(idx *fmindex.Index) (*IndexStats, error) {
	entries := idx.Corpus().Entries()
	if len(entries) == 0 {
		return nil, fmt.Errorf("index holds no protein")
	}

	set := ProteinSetStats{Count: len(entries)}
	lengths := make([]int, len(entries))
	for i, e := range entries {
		lengths[i] = e.Length
		if e.Decoy {
			set.Decoys++
		}
	}
	set.summarize(lengths)
	set.TotalWildcards = idx.Count(sequence.Wildcard)

	var alphabet strings.Builder
	for _, c := range idx.Symbols() {
		if sequence.IsResidue(c) {
			alphabet.WriteByte(c)
		}
	}

	return &IndexStats{
		Proteins:   set,
		TextLength: idx.Len(),
		Alphabet:   alphabet.String(),
		SampleRate: idx.SampleRate(),
		SizeBytes:  idx.SizeBytes(),
	}, nil
}

func (s *IndexStats) String() string {
	return fmt.Sprintf(`IndexStats {
  text length: %d
  alphabet: %s
  sample rate: %d
  size: %d bytes
}
%s`, s.TextLength, s.Alphabet, s.SampleRate, s.SizeBytes, s.Proteins.String())
}

// LengthHistogram represents a length histogram for proteins.
type LengthHistogram struct {
	Bins      []int
	MinLength int
	MaxLength int
	BinWidth  int
	NumBins   int
}

// NewLengthHistogram creates a length histogram from proteins.
func NewLengthHistogram(proteins []*sequence.Protein, numBins int) (*LengthHistogram, error) {
	if len(proteins) == 0 {
		return nil, fmt.Errorf("protein list cannot be empty")
	}
	if numBins <= 0 {
		return nil, fmt.Errorf("numBins must be positive")
	}

	minLen, maxLen := proteins[0].Len(), proteins[0].Len()
	for _, p := range proteins {
		if p.Len() < minLen {
			minLen = p.Len()
		}
		if p.Len() > maxLen {
			maxLen = p.Len()
		}
	}

	binWidth := (maxLen - minLen) / numBins
	if binWidth < 1 {
		binWidth = 1
	}

	bins := make([]int, numBins)
	for _, p := range proteins {
		i := (p.Len() - minLen) / binWidth
		if i >= numBins {
			i = numBins - 1
		}
		bins[i]++
	}

	return &LengthHistogram{
		Bins:      bins,
		MinLength: minLen,
		MaxLength: maxLen,
		BinWidth:  binWidth,
		NumBins:   numBins,
	}, nil
}

func (h *LengthHistogram) String() string {
	var sb strings.Builder
	sb.WriteString("Length Histogram:\n")
	for i := 0; i < h.NumBins; i++ {
		start := h.MinLength + i*h.BinWidth
		end := start + h.BinWidth
		count := h.Bins[i]
		fmt.Fprintf(&sb, "%5d-%5d: %s (%d)\n", start, end, strings.Repeat("#", count/5), count)
	}
	return sb.String()
}
