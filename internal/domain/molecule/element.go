package molecule

import (
	"strconv"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Element table
// ─────────────────────────────────────────────────────────────────────────────

// MaxAtomicNo is the highest real element number known to the table.
const MaxAtomicNo = 118

// Pseudo atoms R1..R16 (substituent placeholders) follow the real elements.
const (
	FirstRGroupAtomicNo = 129
	LastRGroupAtomicNo  = FirstRGroupAtomicNo + 15
)

var elementLabels = [...]string{
	"?",
	"H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
	"Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn",
	"Sb", "Te", "I", "Xe", "Cs", "Ba", "La", "Ce", "Pr", "Nd",
	"Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb",
	"Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg",
	"Tl", "Pb", "Bi", "Po", "At", "Rn", "Fr", "Ra", "Ac", "Th",
	"Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm",
	"Md", "No", "Lr", "Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds",
	"Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

// allowedValences lists, per element, the valences an uncharged atom may
// have, lowest (default) first.  Elements missing here have no valence model
// and never carry implicit hydrogens.
var allowedValences = map[int][]int{
	1:  {1},
	2:  {0},
	3:  {1},
	4:  {2},
	5:  {3},
	6:  {4},
	7:  {3},
	8:  {2},
	9:  {1},
	10: {0},
	11: {1},
	12: {2},
	13: {3},
	14: {4},
	15: {3, 5},
	16: {2, 4, 6},
	17: {1, 3, 5, 7},
	18: {0},
	19: {1},
	20: {2},
	31: {3},
	32: {4},
	33: {3, 5},
	34: {2, 4, 6},
	35: {1, 3, 5, 7},
	36: {0},
	37: {1},
	38: {2},
	49: {3},
	50: {2, 4},
	51: {3, 5},
	52: {2, 4, 6},
	53: {1, 3, 5, 7},
	54: {0, 2, 4, 6},
	55: {1},
	56: {2},
	81: {1, 3},
	82: {2, 4},
	83: {3, 5},
	84: {2, 4, 6},
	85: {1, 3, 5, 7},
	86: {0},
	87: {1},
	88: {2},
}

// organic elements carry implicit hydrogens.
var organicElements = map[int]bool{
	5: true, 6: true, 7: true, 8: true, 9: true, 13: true, 14: true, 15: true,
	16: true, 17: true, 33: true, 34: true, 35: true, 52: true, 53: true,
}

// aromaticElements may be written in lowercase.
var aromaticElements = map[int]bool{
	5: true, 6: true, 7: true, 8: true, 15: true, 16: true, 33: true, 34: true,
}

var electronegativeElements = map[int]bool{
	7: true, 8: true, 9: true, 15: true, 16: true, 17: true,
	33: true, 34: true, 35: true, 52: true, 53: true,
}

var (
	alkaliMetals    = map[int]bool{3: true, 11: true, 19: true, 37: true, 55: true, 87: true}
	alkalineEarth   = map[int]bool{4: true, 12: true, 20: true, 38: true, 56: true, 88: true}
	halogens        = map[int]bool{9: true, 17: true, 35: true, 53: true, 85: true}
	labelToAtomicNo = buildLabelIndex()
)

func buildLabelIndex() map[string]int {
	idx := make(map[string]int, len(elementLabels)+16)
	for no, label := range elementLabels {
		if no == 0 {
			continue
		}
		idx[strings.ToLower(label)] = no
	}
	for i := 0; i <= LastRGroupAtomicNo-FirstRGroupAtomicNo; i++ {
		idx["r"+strconv.Itoa(i+1)] = FirstRGroupAtomicNo + i
	}
	return idx
}

// AtomicNoFromLabel resolves an element symbol case-insensitively.  R-group
// labels R1..R16 resolve to pseudo atomic numbers.  ok is false for unknown
// labels.
func AtomicNoFromLabel(label string) (atomicNo int, ok bool) {
	no, ok := labelToAtomicNo[strings.ToLower(label)]
	return no, ok
}

// AtomLabel returns the symbol of an atomic number ("?" for 0 or unknown).
func AtomLabel(atomicNo int) string {
	if atomicNo >= FirstRGroupAtomicNo && atomicNo <= LastRGroupAtomicNo {
		return "R" + strconv.Itoa(atomicNo-FirstRGroupAtomicNo+1)
	}
	if atomicNo < 0 || atomicNo >= len(elementLabels) {
		return "?"
	}
	return elementLabels[atomicNo]
}

// AllowedValences returns the tabulated valences of an element, nil when the
// element has no valence model.
func AllowedValences(atomicNo int) []int {
	return allowedValences[atomicNo]
}

// QualifiesAsAromatic reports whether an element may take part in an aromatic
// system written with lowercase symbols.
func QualifiesAsAromatic(atomicNo int) bool {
	return aromaticElements[atomicNo]
}

// IsOrganicElement reports whether atoms of this element carry implicit
// hydrogens by default.
func IsOrganicElement(atomicNo int) bool {
	return organicElements[atomicNo]
}

// IonicCharge reports whether charge is the closed-shell ionic charge of an
// alkali, alkaline-earth or halide ion.
func IonicCharge(atomicNo, charge int) bool {
	switch {
	case alkaliMetals[atomicNo]:
		return charge == 1
	case alkalineEarth[atomicNo]:
		return charge == 2
	case halogens[atomicNo]:
		return charge == -1
	}
	return false
}
