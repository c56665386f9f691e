package modification

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Definition is the file representation of a modification.
type Definition struct {
	ID       string  `yaml:"id" json:"id"`
	Mass     float64 `yaml:"mass" json:"mass"`
	Pattern  string  `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Target   int     `yaml:"target,omitempty" json:"target,omitempty"`
	Terminal string  `yaml:"terminal,omitempty" json:"terminal,omitempty"`
}

// Modification converts the definition.
func (d Definition) Modification() (Modification, error) {
	t, err := ParseTerminal(d.Terminal)
	if err != nil {
		return Modification{}, fmt.Errorf("modification %q: %w", d.ID, err)
	}
	return New(d.ID, d.Mass, d.Pattern, d.Target, t)
}

// Library is a set of known modifications addressed by identifier.
type Library map[string]Modification

// LoadLibrary reads a YAML list of modification definitions.
func LoadLibrary(r io.Reader) (Library, error) {
	var defs []Definition
	if err := yaml.NewDecoder(r).Decode(&defs); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding modifications: %w", err)
	}

	lib := make(Library, len(defs))
	for _, d := range defs {
		m, err := d.Modification()
		if err != nil {
			return nil, err
		}
		if _, dup := lib[m.ID]; dup {
			return nil, &CatalogError{ID: m.ID, Reason: "defined twice"}
		}
		lib[m.ID] = m
	}
	return lib, nil
}

// ReadLibrary reads a YAML modification file.
func ReadLibrary(filename string) (Library, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return LoadLibrary(file)
}

// Merge returns a library with the entries of both; other wins on
// conflicts.
func (l Library) Merge(other Library) Library {
	out := make(Library, len(l)+len(other))
	for id, m := range l {
		out[id] = m
	}
	for id, m := range other {
		out[id] = m
	}
	return out
}

// IDs returns the identifiers in sorted order.
func (l Library) IDs() []string {
	ids := make([]string, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Catalog selects fixed and variable modifications by identifier.
func (l Library) Catalog(fixed, variable []string) (*Catalog, error) {
	pick := func(ids []string) ([]Modification, error) {
		out := make([]Modification, 0, len(ids))
		for _, id := range ids {
			m, ok := l[id]
			if !ok {
				return nil, &CatalogError{ID: id, Reason: "unknown modification"}
			}
			out = append(out, m)
		}
		return out, nil
	}

	f, err := pick(fixed)
	if err != nil {
		return nil, err
	}
	v, err := pick(variable)
	if err != nil {
		return nil, err
	}
	return NewCatalog(f, v)
}

// Definitions converts the library back to its file representation.
func (l Library) Definitions() []Definition {
	defs := make([]Definition, 0, len(l))
	for _, id := range l.IDs() {
		m := l[id]
		d := Definition{ID: m.ID, Mass: m.Mass, Target: m.Target}
		if m.Pattern != nil {
			d.Pattern = m.Pattern.String()
		}
		if m.Terminal != Anywhere {
			d.Terminal = m.Terminal.String()
		}
		defs = append(defs, d)
	}
	return defs
}

// DefaultLibrary returns common unimod modifications.
func DefaultLibrary() Library {
	lib := make(Library)
	add := func(id string, mass float64, pattern string, target int, t TerminalClass) {
		lib[id] = MustNew(id, mass, pattern, target, t)
	}

	add("Carbamidomethylation of C", 57.021464, "C", 0, Anywhere)
	add("Oxidation of M", 15.994915, "M", 0, Anywhere)
	add("Phosphorylation of S", 79.966331, "S", 0, Anywhere)
	add("Phosphorylation of T", 79.966331, "T", 0, Anywhere)
	add("Phosphorylation of Y", 79.966331, "Y", 0, Anywhere)
	add("Deamidation of N", 0.984016, "N", 0, Anywhere)
	add("Deamidation of Q", 0.984016, "Q", 0, Anywhere)
	add("Acetylation of K", 42.010565, "K", 0, Anywhere)
	add("Acetylation of protein N-term", 42.010565, "", 0, ProteinNTerm)
	add("Pyrolidone from Q", -17.026549, "Q", 0, PeptideNTerm)
	add("Pyrolidone from E", -18.010565, "E", 0, PeptideNTerm)
	add("Pyrolidone from carbamidomethylated C", -17.026549, "C", 0, PeptideNTerm)
	add("Amidation of the peptide C-term", -0.984016, "", 0, PeptideCTerm)
	add("Amidation of the protein C-term", -0.984016, "", 0, ProteinCTerm)
	add("Methylation of K", 14.01565, "K", 0, Anywhere)
	add("Dimethylation of K", 28.0313, "K", 0, Anywhere)
	add("TMT 6-plex of K", 229.162932, "K", 0, Anywhere)
	add("TMT 6-plex of peptide N-term", 229.162932, "", 0, PeptideNTerm)
	add("iTRAQ 4-plex of K", 144.102063, "K", 0, Anywhere)
	add("iTRAQ 4-plex of peptide N-term", 144.102063, "", 0, PeptideNTerm)
	add("HexNAc of N", 203.079373, "N[^P][ST]", 0, Anywhere)

	return lib
}
