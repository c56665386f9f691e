// Package corpus concatenates protein sequences into the single text indexed
// by the FM-index and keeps the accession table mapping text offsets back to
// proteins.
//
// The text has the layout
//
//	/P1/P2/.../Pn$
//
// where '/' separates proteins and '$' terminates the text. Both sort before
// every residue letter, so suffixes starting with a separator form one block
// at the top of the suffix array.
package corpus

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aria-lang/pepmap-go/internal/sequence"
)

const (
	// Separator precedes every protein in the text.
	Separator byte = '/'
	// Terminator is the last symbol of the text.
	Terminator byte = '$'
	// DefaultDecoyTag is appended to accessions of reversed decoys.
	DefaultDecoyTag = "_REVERSED"
)

// ErrEmptyCorpus is returned when no protein is given.
var ErrEmptyCorpus = errors.New("corpus must contain at least one protein")

// DuplicateAccessionError is returned when two proteins share an accession.
type DuplicateAccessionError struct {
	Accession string
}

func (e *DuplicateAccessionError) Error() string {
	return fmt.Sprintf("duplicate accession %q", e.Accession)
}

// Entry is one row of the accession table. Start is the text offset of the
// first residue; the separator sits at Start-1.
type Entry struct {
	Accession string
	Header    string
	Start     int
	Length    int
	Decoy     bool
}

// End returns the text offset one past the last residue.
func (e Entry) End() int {
	return e.Start + e.Length
}

// Corpus is the immutable concatenated text with its accession table.
type Corpus struct {
	text    []byte
	entries []Entry
	index   map[string]int
}

// Build concatenates proteins (targets followed by decoys) into a corpus.
func Build(proteins []*sequence.Protein, decoys ...*sequence.Protein) (*Corpus, error) {
	all := make([]*sequence.Protein, 0, len(proteins)+len(decoys))
	all = append(all, proteins...)
	all = append(all, decoys...)
	if len(all) == 0 {
		return nil, ErrEmptyCorpus
	}

	size := 1
	for _, p := range all {
		size += p.Len() + 1
	}

	c := &Corpus{
		text:    make([]byte, 0, size),
		entries: make([]Entry, 0, len(all)),
		index:   make(map[string]int, len(all)),
	}

	for i, p := range all {
		if p.Len() == 0 {
			return nil, &sequence.EmptySequenceError{Accession: p.Accession}
		}
		if err := sequence.ValidateResidues(p.Residues); err != nil {
			return nil, fmt.Errorf("protein %s: %w", p.Accession, err)
		}
		if _, dup := c.index[p.Accession]; dup {
			return nil, &DuplicateAccessionError{Accession: p.Accession}
		}

		c.text = append(c.text, Separator)
		c.index[p.Accession] = i
		c.entries = append(c.entries, Entry{
			Accession: p.Accession,
			Header:    p.Header,
			Start:     len(c.text),
			Length:    p.Len(),
			Decoy:     p.Decoy || i >= len(proteins),
		})
		c.text = append(c.text, p.Residues...)
	}
	c.text = append(c.text, Terminator)

	c.mustBeConsistent()
	return c, nil
}

// mustBeConsistent panics when the accession table does not tile the text.
func (c *Corpus) mustBeConsistent() {
	next := 0
	for _, e := range c.entries {
		if e.Start-1 != next || c.text[e.Start-1] != Separator {
			panic(fmt.Sprintf("corpus: entry %s starts at %d, expected separator at %d", e.Accession, e.Start, next))
		}
		next = e.End()
	}
	if next != len(c.text)-1 || c.text[next] != Terminator {
		panic(fmt.Sprintf("corpus: accession table ends at %d, text length %d", next, len(c.text)))
	}
}

// Text returns the concatenated text. It must not be modified.
func (c *Corpus) Text() []byte {
	return c.text
}

// Len returns the text length including separators and terminator.
func (c *Corpus) Len() int {
	return len(c.text)
}

// Entries returns the accession table ordered by start offset. It must not
// be modified.
func (c *Corpus) Entries() []Entry {
	return c.entries
}

// Entry returns the accession table row for an accession.
func (c *Corpus) Entry(accession string) (Entry, bool) {
	i, ok := c.index[accession]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Lookup returns the entry containing text offset pos and the 0-based offset
// within that protein. ok is false for separators, the terminator and
// out-of-range positions.
func (c *Corpus) Lookup(pos int) (e Entry, local int, ok bool) {
	if pos < 0 || pos >= len(c.text) {
		return Entry{}, 0, false
	}
	i := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].End() > pos
	})
	if i == len(c.entries) || pos < c.entries[i].Start {
		return Entry{}, 0, false
	}
	e = c.entries[i]
	return e, pos - e.Start, true
}

// Sequence returns the residues of a protein.
func (c *Corpus) Sequence(accession string) (string, bool) {
	e, ok := c.Entry(accession)
	if !ok {
		return "", false
	}
	return string(c.text[e.Start:e.End()]), true
}

// Header returns the FASTA description of a protein.
func (c *Corpus) Header(accession string) (string, bool) {
	e, ok := c.Entry(accession)
	if !ok {
		return "", false
	}
	return e.Header, true
}

// Accessions returns every accession in table order.
func (c *Corpus) Accessions() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Accession
	}
	return out
}

// ReverseDecoys returns reversed copies of proteins whose accessions carry
// tag. An empty tag uses DefaultDecoyTag.
func ReverseDecoys(proteins []*sequence.Protein, tag string) []*sequence.Protein {
	if tag == "" {
		tag = DefaultDecoyTag
	}
	decoys := make([]*sequence.Protein, len(proteins))
	for i, p := range proteins {
		decoys[i] = p.Reverse(p.Accession + tag)
	}
	return decoys
}
