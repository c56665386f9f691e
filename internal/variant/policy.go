package variant

import (
	"fmt"
	"strings"
)

// Type selects how variants are budgeted.
type Type int

const (
	// None allows no variant.
	None Type = iota
	// GenericType caps the total number of edits of any kind.
	GenericType
	// SpecificType caps each edit kind separately.
	SpecificType
	// FixedType only allows edits listed in a table.
	FixedType
)

var typeNames = map[Type]string{
	None:         "none",
	GenericType:  "generic",
	SpecificType: "specific",
	FixedType:    "fixed",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseType parses a policy type name. The empty string means None.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return None, nil
	}
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return None, fmt.Errorf("unknown variant policy %q", s)
}

// BudgetError is returned for a negative or missing budget.
type BudgetError struct {
	Name  string
	Value int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("variant budget %s must be non-negative, got %d", e.Name, e.Value)
}

// Policy bounds the edits a search may apply. It is immutable once built.
type Policy struct {
	Type             Type
	MaxTotal         int
	MaxSubstitutions int
	MaxInsertions    int
	MaxDeletions     int
	Matrix           *SubstitutionMatrix
	Table            *FixedTable
}

// NoVariants returns the policy allowing no edit.
func NoVariants() Policy {
	return Policy{Type: None}
}

// Generic allows up to maxTotal edits of any kind.
func Generic(maxTotal int) (Policy, error) {
	p := Policy{Type: GenericType, MaxTotal: maxTotal}
	return p, p.Validate()
}

// Specific caps each edit kind; the total cap is their sum. A nil matrix
// allows every substitution.
func Specific(maxSubstitutions, maxInsertions, maxDeletions int, matrix *SubstitutionMatrix) (Policy, error) {
	p := Policy{
		Type:             SpecificType,
		MaxSubstitutions: maxSubstitutions,
		MaxInsertions:    maxInsertions,
		MaxDeletions:     maxDeletions,
		MaxTotal:         maxSubstitutions + maxInsertions + maxDeletions,
		Matrix:           matrix,
	}
	return p, p.Validate()
}

// Fixed only allows the edits listed in table, each at its own protein
// position.
func Fixed(table *FixedTable) (Policy, error) {
	p := Policy{Type: FixedType, Table: table}
	return p, p.Validate()
}

// Validate checks the policy parameters.
func (p Policy) Validate() error {
	switch p.Type {
	case None:
		return nil
	case GenericType:
		if p.MaxTotal < 0 {
			return &BudgetError{Name: "total", Value: p.MaxTotal}
		}
	case SpecificType:
		for _, b := range []struct {
			name  string
			value int
		}{
			{"substitutions", p.MaxSubstitutions},
			{"insertions", p.MaxInsertions},
			{"deletions", p.MaxDeletions},
		} {
			if b.value < 0 {
				return &BudgetError{Name: b.name, Value: b.value}
			}
		}
	case FixedType:
		if p.Table == nil {
			return fmt.Errorf("fixed variant policy requires a variant table")
		}
	default:
		return fmt.Errorf("unknown variant policy type %d", p.Type)
	}
	return nil
}

// Start returns the budget of a fresh search path.
func (p Policy) Start() Budget {
	switch p.Type {
	case GenericType:
		return Budget{Sub: p.MaxTotal, Ins: p.MaxTotal, Del: p.MaxTotal, Total: p.MaxTotal}
	case SpecificType:
		return Budget{Sub: p.MaxSubstitutions, Ins: p.MaxInsertions, Del: p.MaxDeletions, Total: p.MaxTotal}
	case FixedType:
		n := p.Table.MaxPerAccession()
		return Budget{Sub: n, Ins: n, Del: n, Total: n}
	default:
		return Budget{}
	}
}

// Enabled reports whether the policy can allow any edit at all.
func (p Policy) Enabled() bool {
	return p.Type != None && p.Start().Total > 0
}

// AllowsSubstitution reports whether the protein residue original may be
// read as replacement. Fixed policies are answered by their table instead.
func (p Policy) AllowsSubstitution(original, replacement byte) bool {
	switch p.Type {
	case GenericType:
		return original != replacement
	case SpecificType:
		return p.Matrix.Allows(original, replacement)
	default:
		return false
	}
}

// Admits reports whether a finished path with the given edit counts stays
// within the configured caps.
func (p Policy) Admits(sub, ins, del int) bool {
	b := p.Start()
	return sub <= b.Sub && ins <= b.Ins && del <= b.Del && sub+ins+del <= b.Total
}

func (p Policy) String() string {
	switch p.Type {
	case GenericType:
		return fmt.Sprintf("generic(%d)", p.MaxTotal)
	case SpecificType:
		return fmt.Sprintf("specific(sub=%d, ins=%d, del=%d, matrix=%s)",
			p.MaxSubstitutions, p.MaxInsertions, p.MaxDeletions, p.Matrix.Name())
	case FixedType:
		return fmt.Sprintf("fixed(%d variants)", p.Table.Len())
	default:
		return p.Type.String()
	}
}

// Budget is the remaining edit allowance of one search path.
type Budget struct {
	Sub, Ins, Del, Total int
}

// Spend consumes one edit of kind k. ok is false when a counter would go
// negative; the receiver is left untouched.
func (b Budget) Spend(k Kind) (Budget, bool) {
	if b.Total <= 0 {
		return b, false
	}
	switch k {
	case KindSubstitution:
		if b.Sub <= 0 {
			return b, false
		}
		b.Sub--
	case KindInsertion:
		if b.Ins <= 0 {
			return b, false
		}
		b.Ins--
	case KindDeletion:
		if b.Del <= 0 {
			return b, false
		}
		b.Del--
	default:
		return b, false
	}
	b.Total--
	return b, true
}

// Can reports whether one edit of kind k is still affordable.
func (b Budget) Can(k Kind) bool {
	_, ok := b.Spend(k)
	return ok
}

// Check panics when the budget holds a negative counter. Search entry
// points call it before exploring.
func (b Budget) Check() Budget {
	if b.Sub < 0 || b.Ins < 0 || b.Del < 0 || b.Total < 0 {
		panic(fmt.Sprintf("variant: negative budget %+v", b))
	}
	return b
}
