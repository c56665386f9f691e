package modification

import (
	"fmt"
	"strings"
)

const allResidues uint32 = 1<<26 - 1

// PatternError is returned for a malformed specificity pattern.
type PatternError struct {
	Pattern string
	Offset  int
	Reason  string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern %q at offset %d: %s", e.Pattern, e.Offset, e.Reason)
}

// Pattern is an amino-acid specificity compiled to one residue mask per
// position. Bit i of a mask stands for letter 'A'+i.
type Pattern struct {
	text  string
	masks []uint32
}

// ParsePattern compiles a specificity pattern. Supported tokens are residue
// letters, X for any residue, [ST] for a set and [^P] for a negated set.
func ParsePattern(s string) (*Pattern, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return nil, &PatternError{Pattern: s, Reason: "empty pattern"}
	}

	p := &Pattern{text: s}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == 'X':
			p.masks = append(p.masks, allResidues)
		case c >= 'A' && c <= 'Z':
			p.masks = append(p.masks, bit(c))
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, &PatternError{Pattern: s, Offset: i, Reason: "unterminated set"}
			}
			set := s[i+1 : i+end]
			negate := strings.HasPrefix(set, "^")
			if negate {
				set = set[1:]
			}
			if set == "" {
				return nil, &PatternError{Pattern: s, Offset: i, Reason: "empty set"}
			}
			var mask uint32
			for j := 0; j < len(set); j++ {
				if set[j] < 'A' || set[j] > 'Z' {
					return nil, &PatternError{Pattern: s, Offset: i + 1 + j, Reason: fmt.Sprintf("invalid residue '%c'", set[j])}
				}
				mask |= bit(set[j])
			}
			if negate {
				mask = allResidues &^ mask
			}
			p.masks = append(p.masks, mask)
			i += end
		default:
			return nil, &PatternError{Pattern: s, Offset: i, Reason: fmt.Sprintf("unexpected '%c'", c)}
		}
	}
	return p, nil
}

// MustParsePattern is like ParsePattern but panics on error.
func MustParsePattern(s string) *Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

func bit(c byte) uint32 {
	return 1 << uint(c-'A')
}

// Len returns the number of positions.
func (p *Pattern) Len() int {
	return len(p.masks)
}

// String returns the normalized pattern text.
func (p *Pattern) String() string {
	return p.text
}

// Accepts reports whether residue r is allowed at position i.
func (p *Pattern) Accepts(i int, r byte) bool {
	if i < 0 || i >= len(p.masks) || r < 'A' || r > 'Z' {
		return false
	}
	return p.masks[i]&bit(r) != 0
}

// MatchAt reports whether the pattern matches window with pattern position
// target aligned on window[at].
func (p *Pattern) MatchAt(window string, at, target int) bool {
	start := at - target
	if start < 0 || start+len(p.masks) > len(window) {
		return false
	}
	for i := range p.masks {
		if !p.Accepts(i, window[start+i]) {
			return false
		}
	}
	return true
}
