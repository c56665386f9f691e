// Package pepmap provides a high-level API for mapping peptides and sequence
// tags onto a protein database.
//
// Example usage:
//
//	proteins, err := pepmap.LoadFASTA("uniprot.fasta")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	idx, err := pepmap.BuildIndex(ctx, proteins, pepmap.IndexOptions{Decoys: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := pepmap.NewSearcher(idx, pepmap.DefaultSettings())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mappings, err := s.MapPeptide(ctx, "PEPTIDE")
package pepmap

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aria-lang/pepmap-go/internal/corpus"
	"github.com/aria-lang/pepmap-go/internal/fasta"
	"github.com/aria-lang/pepmap-go/internal/fmindex"
	"github.com/aria-lang/pepmap-go/internal/mapping"
	"github.com/aria-lang/pepmap-go/internal/modification"
	"github.com/aria-lang/pepmap-go/internal/search"
	"github.com/aria-lang/pepmap-go/internal/sequence"
	"github.com/aria-lang/pepmap-go/internal/stats"
	"github.com/aria-lang/pepmap-go/internal/tag"
	"github.com/aria-lang/pepmap-go/internal/variant"
)

// Re-export types for convenience
type (
	Index            = fmindex.Index
	Protein          = sequence.Protein
	Tag              = tag.Tag
	Mapping          = mapping.PeptideProteinMapping
	ModificationSite = mapping.ModificationSite
	Modification     = modification.Modification
	Catalog          = modification.Catalog
	Library          = modification.Library
	Policy           = variant.Policy
	Variant          = variant.Variant
	Settings         = search.Settings
	Tolerance        = search.Tolerance
	Searcher         = search.Searcher
	IndexStats       = stats.IndexStats
)

// Constants
const (
	StringMatching    = search.StringMatching
	AminoAcid         = search.AminoAcid
	Indistinguishable = search.Indistinguishable

	Dalton = search.Dalton
	PPM    = search.PPM
)

// Errors returned with partial results.
var (
	ErrPathLimit  = search.ErrPathLimit
	ErrEmptyQuery = search.ErrEmptyQuery
)

// NewProtein creates a validated protein.
func NewProtein(accession, header, residues string) (*Protein, error) {
	return sequence.New(accession, header, residues)
}

// LoadFASTA reads proteins from a FASTA file.
func LoadFASTA(filename string) ([]*Protein, error) {
	return fasta.Read(filename)
}

// WriteFASTA writes proteins to w in FASTA format.
func WriteFASTA(w io.Writer, proteins []*Protein) error {
	return fasta.Write(w, proteins)
}

// Decoys returns reversed copies of proteins whose accessions end in
// suffix. An empty suffix uses "_REVERSED".
func Decoys(proteins []*Protein, suffix string) []*Protein {
	return corpus.ReverseDecoys(proteins, suffix)
}

// IndexOptions configure BuildIndex.
type IndexOptions struct {
	// Decoys appends a reversed copy of every protein.
	Decoys bool
	// DecoyTag suffixes decoy accessions; empty uses "_REVERSED".
	DecoyTag   string
	SampleRate int
	Progress   func(stage string, done, total int)
}

// BuildIndex concatenates proteins and builds their FM-index.
func BuildIndex(ctx context.Context, proteins []*Protein, opts IndexOptions) (*Index, error) {
	var decoys []*Protein
	if opts.Decoys {
		decoys = Decoys(proteins, opts.DecoyTag)
	}
	c, err := corpus.Build(proteins, decoys...)
	if err != nil {
		return nil, fmt.Errorf("building corpus: %w", err)
	}
	return fmindex.Build(ctx, c, fmindex.BuildOptions{SampleRate: opts.SampleRate, Progress: opts.Progress})
}

// DefaultSettings returns exact matching without variants or modifications.
func DefaultSettings() Settings {
	return search.DefaultSettings()
}

// DefaultLibrary returns the built-in modification library.
func DefaultLibrary() Library {
	return modification.DefaultLibrary()
}

// NewSearcher validates settings and creates a searcher over idx.
func NewSearcher(idx *Index, settings Settings) (*Searcher, error) {
	return search.New(idx, settings)
}

// ParseTag parses the text form of a sequence tag, e.g. "<120.05>PEPT<0>".
func ParseTag(s string) (*Tag, error) {
	return tag.Parse(s)
}

// Stats summarizes an index.
func Stats(idx *Index) (*IndexStats, error) {
	return stats.FromIndex(idx)
}

// Result is the outcome of one query of a batch.
type Result struct {
	Query    string
	Mappings []Mapping
	Err      error
}

// MapPeptides maps peptides on workers goroutines. Results are in input
// order.
func MapPeptides(ctx context.Context, s *Searcher, peptides []string, workers int) []Result {
	return mapAll(ctx, peptides, workers, func(ctx context.Context, q string) ([]Mapping, error) {
		return s.MapPeptide(ctx, q)
	})
}

// MapTags parses and maps tags on workers goroutines. Results are in input
// order.
func MapTags(ctx context.Context, s *Searcher, tags []string, workers int) []Result {
	return mapAll(ctx, tags, workers, func(ctx context.Context, q string) ([]Mapping, error) {
		t, err := tag.Parse(q)
		if err != nil {
			return nil, err
		}
		return s.MapTag(ctx, t)
	})
}

func mapAll(ctx context.Context, queries []string, workers int, run func(context.Context, string) ([]Mapping, error)) []Result {
	if workers < 1 {
		workers = 1
	}
	results := make([]Result, len(queries))
	for i, q := range queries {
		results[i] = Result{Query: q}
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					results[i].Err = err
					continue
				}
				results[i].Mappings, results[i].Err = run(ctx, queries[i])
			}
		}()
	}

	for i := range queries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

// Version returns the pepmap version.
func Version() string {
	return "1.0.0"
}

// Info returns information about pepmap.
func Info() string {
	return fmt.Sprintf(`pepmap v%s - Peptide and Sequence Tag Mapping

Maps peptides and sequence tags onto a protein database through an FM-index.

Features:
  - FM-index over concatenated proteins with reversed decoys
  - Exact, amino-acid and I/L-indistinguishable matching
  - Wildcard and combination residues (X, B, J, Z)
  - Substitution, insertion and deletion budgets, or a fixed variant table
  - Mass gaps resolved with fixed and variable modifications
  - Peptide and protein terminal modifications
`, Version())
}
