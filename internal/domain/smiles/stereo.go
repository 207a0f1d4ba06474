package smiles

import (
	"math"

	"github.com/turtacn/keyip-smiles/internal/domain/molecule"
	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

// implicitHydrogenAtom stands for a hydrogen written inside the brackets of
// a stereo center.  It sorts after every real atom.
const implicitHydrogenAtom = math.MaxInt32

type parityNeighbour struct {
	atom       int
	position   int
	isHydrogen bool
}

// thParity collects the neighbours of one '@'/'@@' center in the order they
// appear in the input.
type thParity struct {
	center     int
	from       int
	implicitH  int
	clockwise  bool
	invalid    bool
	neighbours []parityNeighbour
}

func newTHParity(center, from, implicitH, hydrogenPos int, clockwise bool) *thParity {
	p := &thParity{center: center, from: from, implicitH: implicitH, clockwise: clockwise}
	if implicitH != 0 && implicitH != 1 {
		p.invalid = true
		return p
	}
	// With a from atom the bracket hydrogen becomes an ordinary neighbour
	// that follows all real atoms.
	if from != -1 && implicitH == 1 {
		p.addNeighbour(implicitHydrogenAtom, hydrogenPos, true)
		p.implicitH = 0
	}
	return p
}

func (p *thParity) addNeighbour(atom, position int, isHydrogen bool) {
	if p.invalid {
		return
	}
	if len(p.neighbours) == 4 || (len(p.neighbours) == 3 && p.from != -1) {
		p.invalid = true
		return
	}
	p.neighbours = append(p.neighbours, parityNeighbour{atom: atom, position: position, isHydrogen: isHydrogen})
}

// parity computes the atom parity once hydrogen relocation has renumbered
// the atoms.  isHydrogen reports whether a renumbered atom is a simple
// hydrogen.
func (p *thParity) parity(hydrogenMap []int, isHydrogen func(int) bool) mtypes.AtomParity {
	if p.invalid {
		return mtypes.AtomParityUnknown
	}

	from := p.from
	if from != -1 {
		from = hydrogenMap[from]
	}
	neighbours := make([]parityNeighbour, len(p.neighbours))
	for i, n := range p.neighbours {
		if n.atom != implicitHydrogenAtom {
			n.atom = hydrogenMap[n.atom]
		}
		neighbours[i] = n
	}

	if from == -1 && p.implicitH == 0 {
		// The first atom of the input: its earliest neighbour takes the
		// role of the from atom.
		if len(neighbours) == 0 {
			return mtypes.AtomParityUnknown
		}
		first := 0
		for i := range neighbours {
			if neighbours[i].position < neighbours[first].position {
				first = i
			}
		}
		from = neighbours[first].atom
		neighbours = append(neighbours[:first], neighbours[first+1:]...)
	}

	total := p.implicitH + len(neighbours)
	if from != -1 {
		total++
	}
	if total < 3 || total > 4 {
		return mtypes.AtomParityUnknown
	}

	fromIsHydrogen := (from == -1 && p.implicitH == 1) || (from != -1 && isHydrogen(from))

	hydrogen := -1
	for i, n := range neighbours {
		if n.isHydrogen {
			if hydrogen != -1 || fromIsHydrogen {
				return mtypes.AtomParityUnknown
			}
			hydrogen = i
		}
	}

	// A hydrogen neighbour conceptually moves to the end of the list.
	hydrogenInversion := false
	if hydrogen != -1 {
		for i, n := range neighbours {
			if i != hydrogen && neighbours[hydrogen].atom < n.atom {
				hydrogenInversion = !hydrogenInversion
			}
		}
	}

	// A heavy from atom is treated as if it had the highest index.
	fromInversion := false
	if from != -1 && !fromIsHydrogen {
		for _, n := range neighbours {
			if from < n.atom {
				fromInversion = !fromInversion
			}
		}
	}

	if p.clockwise != inverseOrder(neighbours) != fromInversion != hydrogenInversion {
		return mtypes.AtomParityEven
	}
	return mtypes.AtomParityOdd
}

// inverseOrder counts pairwise disagreements between atom order and input
// position order.
func inverseOrder(neighbours []parityNeighbour) bool {
	inversion := false
	for i := 1; i < len(neighbours); i++ {
		for j := 0; j < i; j++ {
			if neighbours[j].atom > neighbours[i].atom {
				inversion = !inversion
			}
			if neighbours[j].position > neighbours[i].position {
				inversion = !inversion
			}
		}
	}
	return inversion
}

// assignTetrahedralParities sets the parity of every stereo center.
func (st *parseState) assignTetrahedralParities(hydrogenMap []int) {
	mol := st.mol
	isHydrogen := func(a int) bool {
		// only simple hydrogens are dropped from query graphs
		return a >= mol.AllAtoms() || mol.IsSimpleHydrogen(a)
	}
	for _, p := range st.parities {
		center := hydrogenMap[p.center]
		if center >= mol.AllAtoms() {
			continue
		}
		mol.SetAtomParity(center, p.parity(hydrogenMap, isHydrogen))
	}
}

// assignEZParities derives cis/trans parities of non-ring double bonds from
// the directional bonds next to them and turns those back into single bonds.
// Parities refer to the lowest-indexed neighbour on each side.
func assignEZParities(mol *molecule.Molecule) {
	mol.EnsureHelperArrays(molecule.HelperRings)

	for bond := 0; bond < mol.Bonds(); bond++ {
		if mol.IsSmallRingBond(bond) || mol.BondType(bond) != mtypes.BondTypeDouble {
			continue
		}
		var refAtom, refBond, otherAtom [2]int
		found := true
		for i := 0; i < 2; i++ {
			refAtom[i], otherAtom[i] = -1, -1
			atom := mol.BondAtom(i, bond)
			for j := 0; j < mol.ConnAtoms(atom); j++ {
				connBond := mol.ConnBond(atom, j)
				if connBond == bond {
					continue
				}
				if refAtom[i] == -1 && mol.BondType(connBond).IsStereo() {
					refAtom[i] = mol.ConnAtom(atom, j)
					refBond[i] = connBond
				} else {
					otherAtom[i] = mol.ConnAtom(atom, j)
				}
			}
			if refAtom[i] == -1 {
				found = false
				break
			}
		}
		if !found {
			continue
		}

		// equal slashes mean Z when both references are children of the
		// double bond atoms
		isZ := mol.BondType(refBond[0]) == mol.BondType(refBond[1])
		for i := 0; i < 2; i++ {
			if refAtom[i] == mol.BondAtom(0, refBond[i]) {
				isZ = !isZ
			}
			if otherAtom[i] != -1 && otherAtom[i] < refAtom[i] {
				isZ = !isZ
			}
		}
		if isZ {
			mol.SetBondParity(bond, mtypes.BondParityZ)
		} else {
			mol.SetBondParity(bond, mtypes.BondParityE)
		}
	}

	for bond := 0; bond < mol.AllBonds(); bond++ {
		if mol.BondType(bond).IsStereo() {
			mol.SetBondType(bond, mtypes.BondTypeSingle)
		}
	}
}
