package sequence

// Monoisotopic masses.
const (
	MassWater  = 18.0105646863
	MassProton = 1.00727646688
)

// residueMass holds monoisotopic residue masses indexed by letter - 'A'.
// Zero means the residue has no defined mass (B, X, Z).
var residueMass = [26]float64{
	'A' - 'A': 71.03711381,
	'C' - 'A': 103.00918451,
	'D' - 'A': 115.02694303,
	'E' - 'A': 129.04259309,
	'F' - 'A': 147.06841391,
	'G' - 'A': 57.02146372,
	'H' - 'A': 137.05891186,
	'I' - 'A': 113.08406402,
	'J' - 'A': 113.08406402,
	'K' - 'A': 128.09496302,
	'L' - 'A': 113.08406402,
	'M' - 'A': 131.04048508,
	'N' - 'A': 114.04292744,
	'O' - 'A': 237.14772677,
	'P' - 'A': 97.05276388,
	'Q' - 'A': 128.05857751,
	'R' - 'A': 156.10111105,
	'S' - 'A': 87.03202840,
	'T' - 'A': 101.04767846,
	'U' - 'A': 150.95363559,
	'V' - 'A': 99.06841395,
	'W' - 'A': 186.07931298,
	'Y' - 'A': 163.06332853,
}

// standard is the set of residues tried when resolving a mass gap.
var standard = []byte("ACDEFGHIKLMNPQRSTVWY")

// Wildcard is the residue representing any amino acid.
const Wildcard byte = 'X'

var combinations = map[byte][]byte{
	'B': []byte("DN"),
	'J': []byte("IL"),
	'Z': []byte("EQ"),
}

// Mass returns the monoisotopic residue mass of r. ok is false when the
// residue has no defined mass.
func Mass(r byte) (mass float64, ok bool) {
	if !IsResidue(r) {
		return 0, false
	}
	m := residueMass[r-'A']
	return m, m > 0
}

// Standard returns the 20 standard amino acids in alphabetical order.
// The returned slice must not be modified.
func Standard() []byte {
	return standard
}

// LightestResidueMass is the mass of glycine.
func LightestResidueMass() float64 {
	return residueMass['G'-'A']
}

// IsCombination reports whether r stands for several amino acids (B, J, Z).
func IsCombination(r byte) bool {
	_, ok := combinations[r]
	return ok
}

// Members returns the amino acids r stands for. Standard residues return
// themselves, X returns every standard residue.
func Members(r byte) []byte {
	if r == Wildcard {
		return standard
	}
	if m, ok := combinations[r]; ok {
		return m
	}
	return []byte{r}
}

// Covers reports whether the (possibly ambiguous) residue amb stands for r.
func Covers(amb, r byte) bool {
	if amb == r {
		return true
	}
	if amb == Wildcard {
		return IsResidue(r) && r != Wildcard
	}
	for _, m := range combinations[amb] {
		if m == r {
			return true
		}
	}
	return false
}

// PeptideMass returns the neutral monoisotopic mass of a peptide: residues
// plus water plus the given modification deltas. ok is false when a residue
// has no defined mass.
func PeptideMass(residues string, deltas ...float64) (float64, bool) {
	mass := MassWater
	for i := 0; i < len(residues); i++ {
		m, ok := Mass(residues[i])
		if !ok {
			return 0, false
		}
		mass += m
	}
	for _, d := range deltas {
		mass += d
	}
	return mass, true
}

// ResidueSum returns the sum of residue masses, without water.
func ResidueSum(residues string) (float64, bool) {
	m, ok := PeptideMass(residues)
	if !ok {
		return 0, false
	}
	return m - MassWater, true
}
