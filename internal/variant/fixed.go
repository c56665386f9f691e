package variant

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/aria-lang/pepmap-go/internal/sequence"
)

// Gap marks the missing side of an insertion or deletion in a fixed table.
const Gap byte = '-'

// TableError is returned for a malformed fixed variant table line.
type TableError struct {
	Line   int
	Reason string
}

func (e *TableError) Error() string {
	return fmt.Sprintf("variant table line %d: %s", e.Line, e.Reason)
}

// FixedVariant is a known edit at a 1-based protein position. Original is Gap
// for an insertion placed before Position; Replacement is Gap for a deletion
// of the residue at Position.
type FixedVariant struct {
	Accession   string
	Position    int
	Original    byte
	Replacement byte
}

// Kind returns the edit kind.
func (f FixedVariant) Kind() Kind {
	switch {
	case f.Original == Gap:
		return KindInsertion
	case f.Replacement == Gap:
		return KindDeletion
	default:
		return KindSubstitution
	}
}

// Variant converts the entry to its Variant.
func (f FixedVariant) Variant() Variant {
	switch f.Kind() {
	case KindInsertion:
		return Insertion{New: f.Replacement}
	case KindDeletion:
		return Deletion{Removed: f.Original}
	default:
		return Substitution{Original: f.Original, New: f.Replacement}
	}
}

func (f FixedVariant) validate() error {
	if strings.TrimSpace(f.Accession) == "" {
		return fmt.Errorf("missing accession")
	}
	if f.Position < 1 {
		return fmt.Errorf("position must be at least 1, got %d", f.Position)
	}
	if f.Original == Gap && f.Replacement == Gap {
		return fmt.Errorf("original and replacement cannot both be %q", Gap)
	}
	for _, r := range []byte{f.Original, f.Replacement} {
		if r != Gap && !sequence.IsResidue(r) {
			return fmt.Errorf("invalid residue %q", r)
		}
	}
	if f.Original == f.Replacement {
		return fmt.Errorf("replacement equals original residue %c", f.Original)
	}
	return nil
}

func (f FixedVariant) String() string {
	return fmt.Sprintf("%s:%d %c>%c", f.Accession, f.Position, f.Original, f.Replacement)
}

// FixedTable is an immutable set of known variants indexed for search.
type FixedTable struct {
	entries     []FixedVariant
	byAccession map[string][]FixedVariant
	subs        [26][]FixedVariant
	ins         [26][]FixedVariant
	dels        []FixedVariant
	maxPerAcc   int
}

// NewFixedTable validates and indexes entries.
func NewFixedTable(entries []FixedVariant) (*FixedTable, error) {
	t := &FixedTable{byAccession: make(map[string][]FixedVariant)}
	for i, f := range entries {
		f.Original = upper(f.Original)
		f.Replacement = upper(f.Replacement)
		if err := f.validate(); err != nil {
			return nil, &TableError{Line: i + 1, Reason: err.Error()}
		}
		t.entries = append(t.entries, f)
		t.byAccession[f.Accession] = append(t.byAccession[f.Accession], f)

		switch f.Kind() {
		case KindSubstitution:
			t.subs[f.Replacement-'A'] = append(t.subs[f.Replacement-'A'], f)
		case KindInsertion:
			t.ins[f.Replacement-'A'] = append(t.ins[f.Replacement-'A'], f)
		case KindDeletion:
			t.dels = append(t.dels, f)
		}
	}
	for acc, list := range t.byAccession {
		sort.Slice(list, func(i, j int) bool { return list[i].Position < list[j].Position })
		t.byAccession[acc] = list
		if len(list) > t.maxPerAcc {
			t.maxPerAcc = len(list)
		}
	}
	return t, nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// ParseFixedTable reads tab-separated lines
//
//	accession  position  original  replacement
//
// Blank lines and lines starting with '#' are skipped.
func ParseFixedTable(r io.Reader) (*FixedTable, error) {
	var entries []FixedVariant
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 4 {
			return nil, &TableError{Line: line, Reason: fmt.Sprintf("expected 4 tab-separated fields, got %d", len(fields))}
		}
		pos, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, &TableError{Line: line, Reason: fmt.Sprintf("invalid position %q", fields[1])}
		}
		orig, repl := strings.TrimSpace(fields[2]), strings.TrimSpace(fields[3])
		if len(orig) != 1 || len(repl) != 1 {
			return nil, &TableError{Line: line, Reason: "original and replacement must be single residues"}
		}
		f := FixedVariant{
			Accession:   strings.TrimSpace(fields[0]),
			Position:    pos,
			Original:    upper(orig[0]),
			Replacement: upper(repl[0]),
		}
		if err := f.validate(); err != nil {
			return nil, &TableError{Line: line, Reason: err.Error()}
		}
		entries = append(entries, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading variant table: %w", err)
	}
	return NewFixedTable(entries)
}

// ReadFixedTable parses a fixed variant table file.
func ReadFixedTable(filename string) (*FixedTable, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return ParseFixedTable(file)
}

// Len returns the number of entries.
func (t *FixedTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// For returns the entries of one accession ordered by position.
func (t *FixedTable) For(accession string) []FixedVariant {
	if t == nil {
		return nil
	}
	return t.byAccession[accession]
}

// MaxPerAccession returns the largest number of entries on one accession.
func (t *FixedTable) MaxPerAccession() int {
	if t == nil {
		return 0
	}
	return t.maxPerAcc
}

// SubstitutionsTo returns the substitutions whose replacement is r.
func (t *FixedTable) SubstitutionsTo(r byte) []FixedVariant {
	if t == nil || !sequence.IsResidue(r) {
		return nil
	}
	return t.subs[r-'A']
}

// InsertionsOf returns the insertions of residue r.
func (t *FixedTable) InsertionsOf(r byte) []FixedVariant {
	if t == nil || !sequence.IsResidue(r) {
		return nil
	}
	return t.ins[r-'A']
}

// Deletions returns every deletion entry.
func (t *FixedTable) Deletions() []FixedVariant {
	if t == nil {
		return nil
	}
	return t.dels
}
