// Package fmindex provides an FM-index over the Burrows-Wheeler Transform of
// a protein corpus.
//
// The index answers one-symbol backward extensions of suffix-array intervals
// in amortized constant time through checkpointed occurrence tables, and
// recovers text positions from a sampled suffix array by LF-mapping. It is
// immutable after Build and safe for concurrent readers.
package fmindex

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/aria-lang/pepmap-go/internal/corpus"
)

const (
	// occRate is the BWT row distance between two occurrence checkpoints.
	occRate = 64
	// DefaultSampleRate keeps the suffix array entry of every 16th text position.
	DefaultSampleRate = 16
)

// Interval is a half-open range [Lo, Hi) of suffix-array rows.
type Interval struct {
	Lo, Hi int
}

// Len returns the number of rows in the interval.
func (iv Interval) Len() int {
	if iv.Hi <= iv.Lo {
		return 0
	}
	return iv.Hi - iv.Lo
}

// Empty reports whether no suffix lies in the interval.
func (iv Interval) Empty() bool {
	return iv.Hi <= iv.Lo
}

// BuildOptions configures index construction.
type BuildOptions struct {
	// SampleRate is the suffix array sampling distance; 0 uses DefaultSampleRate.
	SampleRate int
	// Progress, when set, is called after each construction stage.
	Progress func(stage string, done, total int)
}

// Build stages reported through BuildOptions.Progress.
const (
	StageSuffixArray = "suffix array"
	StageTransform   = "burrows-wheeler transform"
	StageRank        = "rank tables"
	StageSamples     = "suffix samples"
	stageCount       = 4
)

// Index is an FM-index over a corpus.
type Index struct {
	corpus *corpus.Corpus
	n      int

	bwt     []byte
	code    [256]int8
	symbols []byte
	c       [256]int
	totals  [256]int
	occ     []uint32

	sampleRate  int
	sampled     []uint64
	sampledRank []uint32
	samples     []int32

	residueStart int
}

// Build constructs the index for c. Construction is a single-threaded batch
// step; ctx is checked between stages and during suffix sorting.
func Build(ctx context.Context, c *corpus.Corpus, opts BuildOptions) (*Index, error) {
	if c == nil || c.Len() == 0 {
		return nil, corpus.ErrEmptyCorpus
	}
	if opts.SampleRate < 0 {
		return nil, fmt.Errorf("sample rate must be non-negative, got %d", opts.SampleRate)
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = DefaultSampleRate
	}
	report := func(stage string, done int) {
		if opts.Progress != nil {
			opts.Progress(stage, done, stageCount)
		}
	}

	text := c.Text()
	sa, err := suffixArray(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("building suffix array: %w", err)
	}
	report(StageSuffixArray, 1)

	idx := &Index{
		corpus:     c,
		n:          len(text),
		sampleRate: opts.SampleRate,
	}
	idx.transform(text, sa)
	report(StageTransform, 2)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx.buildRanks()
	report(StageRank, 3)

	idx.buildSamples(sa)
	report(StageSamples, 4)

	idx.mustAgree()
	return idx, nil
}

func (idx *Index) transform(text []byte, sa []int32) {
	idx.bwt = make([]byte, idx.n)
	for i, pos := range sa {
		if pos == 0 {
			idx.bwt[i] = text[idx.n-1]
		} else {
			idx.bwt[i] = text[pos-1]
		}
		idx.totals[text[i]]++
	}

	for i := range idx.code {
		idx.code[i] = -1
	}
	sum := 0
	for b := 0; b < 256; b++ {
		if idx.totals[b] == 0 {
			continue
		}
		idx.code[b] = int8(len(idx.symbols))
		idx.symbols = append(idx.symbols, byte(b))
		idx.c[b] = sum
		sum += idx.totals[b]
	}
	idx.residueStart = idx.totals[corpus.Terminator] + idx.totals[corpus.Separator]
}

func (idx *Index) buildRanks() {
	sigma := len(idx.symbols)
	checkpoints := idx.n/occRate + 1
	idx.occ = make([]uint32, checkpoints*sigma)

	running := make([]uint32, sigma)
	for i := 0; i < idx.n; i++ {
		if i%occRate == 0 {
			copy(idx.occ[(i/occRate)*sigma:], running)
		}
		running[idx.code[idx.bwt[i]]]++
	}
	if idx.n%occRate == 0 {
		copy(idx.occ[(idx.n/occRate)*sigma:], running)
	}
}

func (idx *Index) buildSamples(sa []int32) {
	words := (idx.n + 63) / 64
	idx.sampled = make([]uint64, words)
	idx.sampledRank = make([]uint32, words)
	idx.samples = make([]int32, 0, idx.n/idx.sampleRate+1)

	for row, pos := range sa {
		if int(pos)%idx.sampleRate == 0 {
			idx.sampled[row/64] |= 1 << uint(row%64)
			idx.samples = append(idx.samples, pos)
		}
	}
	total := uint32(0)
	for w := range idx.sampled {
		idx.sampledRank[w] = total
		total += uint32(bits.OnesCount64(idx.sampled[w]))
	}
}

// mustAgree panics when the rank tables disagree with the BWT they were
// derived from.
func (idx *Index) mustAgree() {
	for _, s := range idx.symbols {
		if got := idx.rank(s, idx.n); got != idx.totals[s] {
			panic(fmt.Sprintf("fmindex: rank(%q, n) = %d, BWT holds %d", s, got, idx.totals[s]))
		}
	}
}

// rank counts occurrences of symbol s in bwt[0:i].
func (idx *Index) rank(s byte, i int) int {
	code := idx.code[s]
	if code < 0 {
		return 0
	}
	cp := i / occRate
	count := int(idx.occ[cp*len(idx.symbols)+int(code)])
	for j := cp * occRate; j < i; j++ {
		if idx.bwt[j] == s {
			count++
		}
	}
	return count
}

// Full returns the interval covering every suffix.
func (idx *Index) Full() Interval {
	return Interval{Lo: 0, Hi: idx.n}
}

// SeparatorInterval returns the rows whose suffix starts with a separator or
// the terminator. Extending it matches text that ends at a protein C-terminus.
func (idx *Index) SeparatorInterval() Interval {
	return Interval{Lo: 0, Hi: idx.residueStart}
}

// ResidueInterval returns the rows whose suffix starts with a residue.
// Extending it matches text not followed by a protein C-terminus.
func (idx *Index) ResidueInterval() Interval {
	return Interval{Lo: idx.residueStart, Hi: idx.n}
}

// Extend narrows iv to the suffixes preceded by symbol s. ok is false when
// iv is empty or no suffix matches.
func (idx *Index) Extend(iv Interval, s byte) (Interval, bool) {
	if iv.Empty() || idx.code[s] < 0 {
		return Interval{}, false
	}
	base := idx.c[s]
	next := Interval{
		Lo: base + idx.rank(s, iv.Lo),
		Hi: base + idx.rank(s, iv.Hi),
	}
	return next, !next.Empty()
}

// LF maps a row to the row of the suffix one position to its left.
func (idx *Index) LF(row int) int {
	s := idx.bwt[row]
	return idx.c[s] + idx.rank(s, row)
}

// Preceding returns the text symbol immediately left of the suffix at row.
func (idx *Index) Preceding(row int) byte {
	return idx.bwt[row]
}

// Locate returns the text position of the suffix at row.
func (idx *Index) Locate(row int) int {
	steps := 0
	for !idx.isSampled(row) {
		row = idx.LF(row)
		steps++
	}
	w := row / 64
	mask := uint64(1)<<uint(row%64) - 1
	i := idx.sampledRank[w] + uint32(bits.OnesCount64(idx.sampled[w]&mask))
	return int(idx.samples[i]) + steps
}

func (idx *Index) isSampled(row int) bool {
	return idx.sampled[row/64]&(1<<uint(row%64)) != 0
}

// Symbols returns the distinct text symbols in sort order. It must not be
// modified.
func (idx *Index) Symbols() []byte {
	return idx.symbols
}

// Has reports whether symbol s occurs in the text.
func (idx *Index) Has(s byte) bool {
	return idx.code[s] >= 0
}

// Count returns the number of occurrences of s in the text.
func (idx *Index) Count(s byte) int {
	return idx.totals[s]
}

// Len returns the text length.
func (idx *Index) Len() int {
	return idx.n
}

// SampleRate returns the suffix array sampling distance.
func (idx *Index) SampleRate() int {
	return idx.sampleRate
}

// Corpus returns the indexed corpus.
func (idx *Index) Corpus() *corpus.Corpus {
	return idx.corpus
}

// Lookup returns the protein containing text position pos and the 0-based
// offset inside it.
func (idx *Index) Lookup(pos int) (corpus.Entry, int, bool) {
	return idx.corpus.Lookup(pos)
}

// Entry returns the accession table row for an accession.
func (idx *Index) Entry(accession string) (corpus.Entry, bool) {
	return idx.corpus.Entry(accession)
}

// Sequence returns the residues of a protein.
func (idx *Index) Sequence(accession string) (string, bool) {
	return idx.corpus.Sequence(accession)
}

// Header returns the FASTA description of a protein.
func (idx *Index) Header(accession string) (string, bool) {
	return idx.corpus.Header(accession)
}

// Accessions returns every accession in corpus order.
func (idx *Index) Accessions() []string {
	return idx.corpus.Accessions()
}

// SizeBytes approximates the memory held by the index structures, text
// included.
func (idx *Index) SizeBytes() int {
	return 2*idx.n + 4*len(idx.occ) + 8*len(idx.sampled) + 4*len(idx.sampledRank) + 4*len(idx.samples)
}
