package smiles

import (
	"github.com/turtacn/keyip-smiles/internal/domain/molecule"
	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

// maxAromaticRingSize bounds the search for aromatic rings that are not part
// of the ring collection's small rings.
const maxAromaticRingSize = 15

// kekulizer assigns concrete single and double bonds to the aromatic atoms
// (marked atoms) of a freshly parsed molecule.
type kekulizer struct {
	mol      *molecule.Molecule
	aromatic []bool // working aromatic bond flags
	initial  []bool // aromatic bond flags before pi disqualification
	ringAtom []bool // atoms of fully aromatic rings

	// unresolved is an atom left over after a failed resolution.
	unresolved int
}

func newKekulizer(mol *molecule.Molecule) *kekulizer {
	mol.EnsureHelperArrays(molecule.HelperRings)
	return &kekulizer{
		mol:        mol,
		aromatic:   make([]bool, mol.Bonds()),
		ringAtom:   make([]bool, mol.Atoms()),
		unresolved: -1,
	}
}

func (k *kekulizer) markedAtoms() int {
	n := 0
	for a := 0; a < k.mol.Atoms(); a++ {
		if k.mol.IsMarkedAtom(a) {
			n++
		}
	}
	return n
}

func (k *kekulizer) aromaticBonds() int {
	n := 0
	for _, f := range k.aromatic {
		if f {
			n++
		}
	}
	return n
}

// resolve runs the full resolution.  With allowSmarts unresolved atoms and
// bonds become aromatic query features, otherwise atoms with free valence
// become radicals.
func (k *kekulizer) resolve(allowSmarts bool) error {
	mol := k.mol

	for b := 0; b < mol.Bonds(); b++ {
		if mol.BondType(b) == mtypes.BondTypeDelocalized {
			mol.SetBondType(b, mtypes.BondTypeSingle)
			k.aromatic[b] = true
		}
	}
	if k.markedAtoms() == 0 && k.aromaticBonds() == 0 {
		return nil
	}

	rings := mol.RingSet()
	aromaticRing := make([]bool, rings.Size())
	for r := 0; r < rings.Size(); r++ {
		aromaticRing[r] = true
		for _, a := range rings.RingAtoms(r) {
			if !mol.IsMarkedAtom(a) {
				aromaticRing[r] = false
				break
			}
		}
		if aromaticRing[r] {
			for _, a := range rings.RingAtoms(r) {
				k.ringAtom[a] = true
			}
			for _, b := range rings.RingBonds(r) {
				k.aromatic[b] = true
			}
		}
	}

	for b := 0; b < mol.Bonds(); b++ {
		a1, a2 := mol.BondAtom(0, b), mol.BondAtom(1, b)
		if k.aromatic[b] || !mol.IsRingBond(b) || !mol.IsMarkedAtom(a1) || !mol.IsMarkedAtom(a2) {
			continue
		}
		k.addLargeAromaticRing(b)
	}

	for b := 0; b < mol.Bonds(); b++ {
		a1, a2 := mol.BondAtom(0, b), mol.BondAtom(1, b)
		if !k.aromatic[b] && mol.IsMarkedAtom(a1) && mol.IsMarkedAtom(a2) &&
			!k.ringAtom[a1] && !k.ringAtom[a2] {
			k.aromatic[b] = true
		}
	}

	k.initial = append([]bool(nil), k.aromatic...)

	for r := 0; r < rings.Size(); r++ {
		if !aromaticRing[r] {
			continue
		}
		for _, a := range rings.RingAtoms(r) {
			if !k.qualifiesForPi(a) {
				mol.SetAtomMarker(a, false)
				for i := 0; i < mol.ConnAtoms(a); i++ {
					k.aromatic[mol.ConnBond(a, i)] = false
				}
			}
		}
	}

	k.promoteObviousBonds()

	for r := 0; r < rings.Size(); r++ {
		if !aromaticRing[r] || rings.RingSize(r) != 6 {
			continue
		}
		bonds := rings.RingBonds(r)
		all := true
		for _, b := range bonds {
			if !k.aromatic[b] {
				all = false
				break
			}
		}
		if all {
			k.promoteBond(bonds[0])
			k.promoteBond(bonds[2])
			k.promoteBond(bonds[4])
			k.promoteObviousBonds()
		}
	}

	for _, threshold := range []int{5, 4} {
		for k.promoteAnnelatedBond(threshold) {
			k.promoteObviousBonds()
		}
	}

	for k.markedAtoms() >= 2 {
		pair, ok := findRadicalPair(k.snapshot())
		if !ok {
			break
		}
		for _, f := range pair.flips {
			mol.SetBondType(f.bond, f.bondType)
		}
		mol.SetAtomMarker(pair.from, false)
		mol.SetAtomMarker(pair.to, false)
	}

	if allowSmarts {
		for a := 0; a < mol.Atoms(); a++ {
			if mol.IsMarkedAtom(a) {
				mol.SetAtomMarker(a, false)
				mol.SetAtomQueryFeature(a, mtypes.AtomQFAromatic, true)
			}
		}
		for b, f := range k.aromatic {
			if f {
				mol.SetBondType(b, mtypes.BondTypeDelocalized)
				k.aromatic[b] = false
			}
		}
	} else {
		for a := 0; a < mol.Atoms(); a++ {
			if !mol.IsMarkedAtom(a) || mol.ImplicitHydrogens(a) == 0 {
				continue
			}
			if k.hasUndeclaredPyrroleNitrogen(a) {
				k.unresolved = a
				return newParseError(KindAromaticity, -1,
					"aromatic bond assignment failed: aromatic nitrogen needs an explicit hydrogen count")
			}
			mol.SetAtomMarker(a, false)
			mol.SetAtomRadical(a, mtypes.RadicalDoublet)
		}
	}

	if k.markedAtoms() != 0 || k.aromaticBonds() != 0 {
		k.unresolved = k.firstUnresolvedAtom()
		return newParseError(KindAromaticity, -1, "aromatic bond assignment failed")
	}
	return nil
}

func (k *kekulizer) firstUnresolvedAtom() int {
	for a := 0; a < k.mol.Atoms(); a++ {
		if k.mol.IsMarkedAtom(a) {
			return a
		}
	}
	for b, f := range k.aromatic {
		if f {
			return k.mol.BondAtom(0, b)
		}
	}
	return -1
}

// addLargeAromaticRing searches a cycle of marked atoms through bond and
// marks the bonds of the first cycle found as aromatic.
func (k *kekulizer) addLargeAromaticRing(bond int) {
	mol := k.mol
	atom1, atom2 := mol.BondAtom(0, bond), mol.BondAtom(1, bond)

	level := make([]int, mol.Atoms())
	parent := make([]int, mol.Atoms())
	parentBond := make([]int, mol.Atoms())
	queue := []int{atom1, atom2}
	level[atom1], level[atom2] = 1, 2
	parent[atom1], parent[atom2] = -1, atom1
	parentBond[atom2] = bond

	for current := 1; current < len(queue); current++ {
		a := queue[current]
		if level[a] >= maxAromaticRingSize {
			continue
		}
		for i := 0; i < mol.ConnAtoms(a); i++ {
			c := mol.ConnAtom(a, i)
			cb := mol.ConnBond(a, i)
			if c == atom1 && c != parent[a] {
				k.aromatic[cb] = true
				for x := a; x != atom1; x = parent[x] {
					k.aromatic[parentBond[x]] = true
				}
				return
			}
			if level[c] == 0 && mol.IsMarkedAtom(c) {
				level[c] = level[a] + 1
				parent[c] = a
				parentBond[c] = cb
				queue = append(queue, c)
			}
		}
	}
}

// qualifiesForPi reports whether a marked atom in an aromatic ring can take
// part in a double bond.
func (k *kekulizer) qualifiesForPi(atom int) bool {
	mol := k.mol
	no := mol.AtomicNo(atom)
	if !molecule.QualifiesAsAromatic(no) {
		return false
	}
	if (no == 6 && mol.AtomCharge(atom) != 0) || !mol.IsMarkedAtom(atom) {
		return false
	}
	free := mol.FreeValence(atom) - hydrogenCount(mol.AtomHydrogenLabel(atom))
	if free < 1 {
		return false
	}
	if no == 16 || no == 34 || no == 52 {
		if mol.ConnAtoms(atom) == 2 && mol.AtomCharge(atom) <= 0 {
			return false
		}
		if free == 2 {
			return false
		}
	}
	return true
}

// promoteBond turns bond into a double bond and takes both atoms out of the
// aromatic system.
func (k *kekulizer) promoteBond(bond int) {
	mol := k.mol
	if mol.BondType(bond) == mtypes.BondTypeSingle {
		mol.SetBondType(bond, mtypes.BondTypeDouble)
	}
	for i := 0; i < 2; i++ {
		a := mol.BondAtom(i, bond)
		mol.SetAtomMarker(a, false)
		for j := 0; j < mol.ConnAtoms(a); j++ {
			k.aromatic[mol.ConnBond(a, j)] = false
		}
	}
}

// promoteObviousBonds promotes aromatic bonds at atoms without any other
// aromatic bond until nothing changes.
func (k *kekulizer) promoteObviousBonds() {
	mol := k.mol
	for changed := true; changed; {
		changed = false
		for b := 0; b < mol.Bonds(); b++ {
			if !k.aromatic[b] {
				continue
			}
			for i := 0; i < 2; i++ {
				if k.otherAromaticBonds(mol.BondAtom(i, b), b) == 0 {
					k.promoteBond(b)
					changed = true
					break
				}
			}
		}
	}
}

func (k *kekulizer) otherAromaticBonds(atom, bond int) int {
	n := 0
	for i := 0; i < k.mol.ConnAtoms(atom); i++ {
		if cb := k.mol.ConnBond(atom, i); cb != bond && k.aromatic[cb] {
			n++
		}
	}
	return n
}

// promoteAnnelatedBond promotes the first aromatic bond whose atoms carry
// threshold aromatic bonds in total, the bond itself counted at both ends.
func (k *kekulizer) promoteAnnelatedBond(threshold int) bool {
	mol := k.mol
	for b := 0; b < mol.Bonds(); b++ {
		if !k.aromatic[b] {
			continue
		}
		count := 0
		for i := 0; i < 2; i++ {
			a := mol.BondAtom(i, b)
			for j := 0; j < mol.ConnAtoms(a); j++ {
				if k.aromatic[mol.ConnBond(a, j)] {
					count++
				}
			}
		}
		if count == threshold {
			k.promoteBond(b)
			return true
		}
	}
	return false
}

// hasUndeclaredPyrroleNitrogen reports whether the aromatic system of atom
// contains an uncharged two-connected nitrogen or phosphorus without written
// hydrogen count.  Such a system is ambiguous rather than a radical.
func (k *kekulizer) hasUndeclaredPyrroleNitrogen(atom int) bool {
	mol := k.mol
	seen := make([]bool, mol.Atoms())
	seen[atom] = true
	queue := []int{atom}
	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]
		no := mol.AtomicNo(a)
		label := mol.AtomHydrogenLabel(a)
		if (no == 7 || no == 15) && mol.AtomCharge(a) == 0 && mol.ConnAtoms(a) == 2 &&
			(label < 0 || label == hydrogenImplicitZero) {
			return true
		}
		for i := 0; i < mol.ConnAtoms(a); i++ {
			c := mol.ConnAtom(a, i)
			if !seen[c] && k.initial[mol.ConnBond(a, i)] {
				seen[c] = true
				queue = append(queue, c)
			}
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Radical pairs
// ─────────────────────────────────────────────────────────────────────────────

type bondFlip struct {
	bond     int
	bondType mtypes.BondType
}

type radicalPair struct {
	from, to int
	flips    []bondFlip
}

type snapshotNeighbour struct {
	atom, bond int
}

// conjugationSnapshot is a read-only copy of the data the radical pair search
// needs.
type conjugationSnapshot struct {
	marked     []bool
	neighbours [][]snapshotNeighbour
	order      []int
	aromatic   []bool
}

func (k *kekulizer) snapshot() *conjugationSnapshot {
	mol := k.mol
	s := &conjugationSnapshot{
		marked:     make([]bool, mol.Atoms()),
		neighbours: make([][]snapshotNeighbour, mol.Atoms()),
		order:      make([]int, mol.Bonds()),
		aromatic:   k.initial,
	}
	for a := range s.marked {
		s.marked[a] = mol.IsMarkedAtom(a)
		for i := 0; i < mol.ConnAtoms(a); i++ {
			s.neighbours[a] = append(s.neighbours[a], snapshotNeighbour{atom: mol.ConnAtom(a, i), bond: mol.ConnBond(a, i)})
		}
	}
	for b := range s.order {
		s.order[b] = mol.BondOrder(b)
	}
	return s
}

// findRadicalPair looks for two marked atoms joined by a path of initially
// aromatic bonds that alternates single and double, starting with a single
// bond.  Flipping the path pairs both radicals into one more double bond.
func findRadicalPair(s *conjugationSnapshot) (radicalPair, bool) {
	n := len(s.marked)
	for start := 0; start < n; start++ {
		if !s.marked[start] {
			continue
		}
		level := make([]int, n)
		parent := make([]int, n)
		parentBond := make([]int, n)
		level[start] = 1
		parent[start] = -1
		queue := []int{start}

		for current := 0; current < len(queue); current++ {
			a := queue[current]
			want := 1
			if level[a]%2 == 0 {
				want = 2
			}
			for _, nb := range s.neighbours[a] {
				if level[nb.atom] != 0 || !s.aromatic[nb.bond] || s.order[nb.bond] != want {
					continue
				}
				if s.marked[nb.atom] && want == 1 {
					pair := radicalPair{from: start, to: nb.atom}
					order := want
					for x, b := a, nb.bond; ; {
						pair.flips = append(pair.flips, bondFlip{bond: b, bondType: flipped(order)})
						if x == start {
							break
						}
						order = 3 - order
						b = parentBond[x]
						x = parent[x]
					}
					return pair, true
				}
				level[nb.atom] = level[a] + 1
				parent[nb.atom] = a
				parentBond[nb.atom] = nb.bond
				queue = append(queue, nb.atom)
			}
		}
	}
	return radicalPair{}, false
}

func flipped(order int) mtypes.BondType {
	if order == 1 {
		return mtypes.BondTypeDouble
	}
	return mtypes.BondTypeSingle
}
