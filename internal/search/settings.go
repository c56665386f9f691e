package search

import (
	"fmt"
	"math"
	"strings"

	"github.com/aria-lang/pepmap-go/internal/modification"
	"github.com/aria-lang/pepmap-go/internal/variant"
)

// MatchingType decides which corpus residues a query residue matches.
type MatchingType int

const (
	// StringMatching only matches identical residues.
	StringMatching MatchingType = iota
	// AminoAcid also matches corpus wildcards and combination residues.
	AminoAcid
	// Indistinguishable is AminoAcid with I and L treated as equal.
	Indistinguishable
)

var matchingNames = map[MatchingType]string{
	StringMatching:    "string",
	AminoAcid:         "amino-acid",
	Indistinguishable: "indistinguishable",
}

func (m MatchingType) String() string {
	if s, ok := matchingNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMatchingType parses a matching type name.
func ParseMatchingType(s string) (MatchingType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range matchingNames {
		if name == s {
			return m, nil
		}
	}
	return StringMatching, fmt.Errorf("unknown matching type %q", s)
}

// Unit is the unit of a mass tolerance.
type Unit int

const (
	Dalton Unit = iota
	PPM
)

func (u Unit) String() string {
	if u == PPM {
		return "ppm"
	}
	return "Da"
}

// ParseUnit parses "da" or "ppm".
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "da", "dalton", "":
		return Dalton, nil
	case "ppm":
		return PPM, nil
	default:
		return Dalton, fmt.Errorf("unknown tolerance unit %q", s)
	}
}

// ToleranceError is returned for an unusable tolerance.
type ToleranceError struct {
	Value float64
	Unit  Unit
}

func (e *ToleranceError) Error() string {
	return fmt.Sprintf("mass tolerance must be positive and finite, got %v %s", e.Value, e.Unit)
}

// Tolerance is a fragment mass accuracy.
type Tolerance struct {
	Value float64
	Unit  Unit
}

// Of returns the absolute tolerance in Dalton for a resolved mass.
func (t Tolerance) Of(mass float64) float64 {
	if t.Unit == PPM {
		return t.Value * 1e-6 * math.Abs(mass)
	}
	return t.Value
}

func (t Tolerance) String() string {
	return fmt.Sprintf("%g %s", t.Value, t.Unit)
}

// DefaultMaxPaths caps the search frames popped for one query.
const DefaultMaxPaths = 2_000_000

// Settings configure a Searcher.
type Settings struct {
	Matching MatchingType
	// LimitX is the share of a peptide's residues that corpus wildcards may
	// stand in for.
	LimitX    float64
	Tolerance Tolerance
	// Catalog holds the fixed and variable modifications. Nil means none.
	Catalog *modification.Catalog
	Policy  variant.Policy
	// MaxPaths caps explored frames per query; 0 uses DefaultMaxPaths.
	MaxPaths int
}

// DefaultSettings returns exact matching with 0.02 Da tolerance and no
// variants or modifications.
func DefaultSettings() Settings {
	return Settings{
		Matching:  StringMatching,
		LimitX:    0.25,
		Tolerance: Tolerance{Value: 0.02, Unit: Dalton},
		Policy:    variant.NoVariants(),
	}
}

func (s Settings) String() string {
	return fmt.Sprintf("matching=%s limitX=%g tolerance=%s policy=%s", s.Matching, s.LimitX, s.Tolerance, s.Policy)
}

// Validate reports configuration errors.
func (s Settings) Validate() error {
	if _, ok := matchingNames[s.Matching]; !ok {
		return fmt.Errorf("unknown matching type %d", s.Matching)
	}
	if math.IsNaN(s.LimitX) || s.LimitX < 0 || s.LimitX > 1 {
		return fmt.Errorf("limit X must be within [0, 1], got %v", s.LimitX)
	}
	t := s.Tolerance
	if math.IsNaN(t.Value) || math.IsInf(t.Value, 0) || t.Value <= 0 || (t.Unit != Dalton && t.Unit != PPM) {
		return &ToleranceError{Value: t.Value, Unit: t.Unit}
	}
	if s.MaxPaths < 0 {
		return fmt.Errorf("max paths must be non-negative, got %d", s.MaxPaths)
	}
	if err := s.Catalog.Validate(); err != nil {
		return fmt.Errorf("invalid modification catalog: %w", err)
	}
	if err := s.Policy.Validate(); err != nil {
		return fmt.Errorf("invalid variant policy: %w", err)
	}
	return nil
}
