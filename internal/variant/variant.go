// Package variant models single-residue edits between a query and a protein
// and the policy bounding how many of them a search may use.
package variant

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the edit operation of a Variant.
type Kind int

const (
	KindSubstitution Kind = iota
	KindInsertion
	KindDeletion
)

func (k Kind) String() string {
	switch k {
	case KindSubstitution:
		return "substitution"
	case KindInsertion:
		return "insertion"
	case KindDeletion:
		return "deletion"
	default:
		return "unknown"
	}
}

// Variant is one of Substitution, Insertion or Deletion.
type Variant interface {
	Kind() Kind
	String() string
	isVariant()
}

// Substitution replaces the protein residue Original by New.
type Substitution struct {
	Original byte
	New      byte
}

// Insertion is a residue present in the query but not in the protein.
type Insertion struct {
	New byte
}

// Deletion is a protein residue absent from the query.
type Deletion struct {
	Removed byte
}

func (Substitution) Kind() Kind { return KindSubstitution }
func (Insertion) Kind() Kind    { return KindInsertion }
func (Deletion) Kind() Kind     { return KindDeletion }

func (Substitution) isVariant() {}
func (Insertion) isVariant()    {}
func (Deletion) isVariant()     {}

func (s Substitution) String() string { return fmt.Sprintf("%c>%c", s.Original, s.New) }
func (i Insertion) String() string    { return fmt.Sprintf("+%c", i.New) }
func (d Deletion) String() string     { return fmt.Sprintf("-%c", d.Removed) }

type jsonVariant struct {
	Type     string `json:"type"`
	Original string `json:"original,omitempty"`
	New      string `json:"new,omitempty"`
	Removed  string `json:"removed,omitempty"`
}

func (s Substitution) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonVariant{Type: s.Kind().String(), Original: string(s.Original), New: string(s.New)})
}

func (i Insertion) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonVariant{Type: i.Kind().String(), New: string(i.New)})
}

func (d Deletion) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonVariant{Type: d.Kind().String(), Removed: string(d.Removed)})
}

// Count returns the number of variants of each kind in vs.
func Count(vs map[int]Variant) (sub, ins, del int) {
	for _, v := range vs {
		switch v.(type) {
		case Substitution:
			sub++
		case Insertion:
			ins++
		case Deletion:
			del++
		}
	}
	return sub, ins, del
}
