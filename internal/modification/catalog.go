package modification

import (
	"fmt"
	"sort"
)

// CatalogError is returned for an inconsistent catalog.
type CatalogError struct {
	ID     string
	Reason string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("modification catalog: %s: %s", e.ID, e.Reason)
}

// Site is a modification placed on a peptide. Site is 1-based.
type Site struct {
	Site int    `json:"site"`
	ID   string `json:"id"`
}

// Catalog holds the fixed and variable modifications of a search.
type Catalog struct {
	Fixed    []Modification
	Variable []Modification
}

// NewCatalog creates a validated catalog.
func NewCatalog(fixed, variable []Modification) (*Catalog, error) {
	c := &Catalog{Fixed: fixed, Variable: variable}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects duplicate identifiers and fixed modifications competing
// for the same residue and terminus.
func (c *Catalog) Validate() error {
	if c == nil {
		return nil
	}
	seen := make(map[string]bool)
	for _, list := range [][]Modification{c.Fixed, c.Variable} {
		for _, m := range list {
			if err := m.Validate(); err != nil {
				return err
			}
			if seen[m.ID] {
				return &CatalogError{ID: m.ID, Reason: "listed twice"}
			}
			seen[m.ID] = true
		}
	}

	for i := range c.Fixed {
		for j := i + 1; j < len(c.Fixed); j++ {
			a, b := c.Fixed[i], c.Fixed[j]
			if a.Terminal != b.Terminal || a.HasContext() || b.HasContext() {
				continue
			}
			for r := byte('A'); r <= 'Z'; r++ {
				if a.AcceptsResidue(r) && b.AcceptsResidue(r) {
					return &CatalogError{
						ID:     b.ID,
						Reason: fmt.Sprintf("fixed modification competes with %s on %c", a.ID, r),
					}
				}
			}
		}
	}
	return nil
}

// Lookup returns the modification with the given identifier.
func (c *Catalog) Lookup(id string) (Modification, bool) {
	if c == nil {
		return Modification{}, false
	}
	for _, list := range [][]Modification{c.Fixed, c.Variable} {
		for _, m := range list {
			if m.ID == id {
				return m, true
			}
		}
	}
	return Modification{}, false
}

// IsEmpty reports whether the catalog holds no modification.
func (c *Catalog) IsEmpty() bool {
	return c == nil || len(c.Fixed)+len(c.Variable) == 0
}

// Annotate returns the fixed modifications sitting on peptide. class gives
// the position class of each 0-based site.
func (c *Catalog) Annotate(peptide string, class func(site0 int) PositionClass) []Site {
	if c == nil {
		return nil
	}
	var sites []Site
	for i := 0; i < len(peptide); i++ {
		pc := class(i)
		for _, m := range c.Fixed {
			if MatchesWindow(m, peptide, i, pc) {
				sites = append(sites, Site{Site: i + 1, ID: m.ID})
			}
		}
	}
	SortSites(sites)
	return sites
}

// SortSites orders sites by position then identifier.
func SortSites(sites []Site) {
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].Site != sites[j].Site {
			return sites[i].Site < sites[j].Site
		}
		return sites[i].ID < sites[j].ID
	})
}

const terminalClasses = 5

// Matcher is a catalog compiled into per-residue lookup tables.
type Matcher struct {
	fixed    [terminalClasses][26][]*Modification
	variable [terminalClasses][26][]*Modification
	present  [terminalClasses]bool
	minDelta float64
}

// Compile builds the lookup tables. A nil catalog compiles to an empty
// matcher.
func (c *Catalog) Compile() *Matcher {
	m := &Matcher{}
	if c == nil {
		return m
	}
	add := func(tables *[terminalClasses][26][]*Modification, mod *Modification) {
		m.present[mod.Terminal] = true
		for r := byte('A'); r <= 'Z'; r++ {
			if mod.AcceptsResidue(r) {
				tables[mod.Terminal][r-'A'] = append(tables[mod.Terminal][r-'A'], mod)
			}
		}
		if mod.Mass < m.minDelta {
			m.minDelta = mod.Mass
		}
	}
	for i := range c.Fixed {
		add(&m.fixed, &c.Fixed[i])
	}
	for i := range c.Variable {
		add(&m.variable, &c.Variable[i])
	}
	return m
}

// Fixed returns the fixed modifications of terminal class t on residue r.
func (m *Matcher) Fixed(t TerminalClass, r byte) []*Modification {
	if r < 'A' || r > 'Z' {
		return nil
	}
	return m.fixed[t][r-'A']
}

// Variable returns the variable modifications of terminal class t on residue r.
func (m *Matcher) Variable(t TerminalClass, r byte) []*Modification {
	if r < 'A' || r > 'Z' {
		return nil
	}
	return m.variable[t][r-'A']
}

// Has reports whether any modification of terminal class t exists.
func (m *Matcher) Has(t TerminalClass) bool {
	return m.present[t]
}

// MinDelta returns the most negative modification mass, or zero.
func (m *Matcher) MinDelta() float64 {
	return m.minDelta
}
