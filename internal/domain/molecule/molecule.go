// Package molecule provides the in-memory molecular graph used by the SMILES
// parser: atoms and bonds with their chemical properties, neighbour tables,
// the valence model and ring perception.
//
// Atoms and bonds are addressed by index.  Indices are stable while atoms and
// bonds are only added; EnsureHelperArrays may move simple hydrogen atoms to
// the end of the atom list (see HandleHydrogenMap), after which the first
// Atoms() entries are the non-hydrogen atoms.
package molecule

import (
	"sort"

	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

// HelperLevel identifies how much derived information is currently valid.
type HelperLevel int

const (
	HelperNone HelperLevel = iota
	// HelperNeighbours relocates simple hydrogens and builds neighbour tables.
	HelperNeighbours
	// HelperRings additionally perceives rings.
	HelperRings
)

// ─────────────────────────────────────────────────────────────────────────────
// Atom / Bond records
// ─────────────────────────────────────────────────────────────────────────────

type atom struct {
	atomicNo        int
	charge          int
	mass            int
	mapNo           int
	abnormalValence int
	radical         mtypes.RadicalState
	marked          bool
	queryFeatures   mtypes.AtomQueryFeature
	atomList        []int
	hydrogenLabel   int
	parity          mtypes.AtomParity
}

type bond struct {
	atoms         [2]int
	bondType      mtypes.BondType
	queryFeatures mtypes.BondQueryFeature
	parity        mtypes.BondParity
}

type neighbour struct {
	atom int
	bond int
}

// ─────────────────────────────────────────────────────────────────────────────
// Molecule
// ─────────────────────────────────────────────────────────────────────────────

// Molecule is a mutable molecular graph.  It is not safe for concurrent use;
// callers own one instance per parse.
type Molecule struct {
	atoms []atom
	bonds []bond

	fragment      bool
	paritiesValid bool

	validHelpers HelperLevel
	heavyAtoms   int
	heavyBonds   int
	conn         [][]neighbour
	rings        *RingCollection
}

// New returns an empty molecule.
func New() *Molecule {
	return &Molecule{}
}

// Clear removes all atoms and bonds and resets every flag.
func (m *Molecule) Clear() {
	m.atoms = m.atoms[:0]
	m.bonds = m.bonds[:0]
	m.fragment = false
	m.paritiesValid = false
	m.invalidate()
}

func (m *Molecule) invalidate() {
	m.validHelpers = HelperNone
	m.rings = nil
}

// AddAtom appends an atom and returns its index.
func (m *Molecule) AddAtom(atomicNo int) int {
	m.atoms = append(m.atoms, atom{
		atomicNo:        atomicNo,
		abnormalValence: -1,
		hydrogenLabel:   -1,
	})
	m.invalidate()
	return len(m.atoms) - 1
}

// AddBond connects two atoms and returns the bond index.  The first atom is
// stored as bond atom 0 and is by convention the graph parent.
func (m *Molecule) AddBond(atom1, atom2 int, t mtypes.BondType) int {
	m.bonds = append(m.bonds, bond{atoms: [2]int{atom1, atom2}, bondType: t})
	m.invalidate()
	return len(m.bonds) - 1
}

// AllAtoms returns the number of atoms including simple hydrogens.
func (m *Molecule) AllAtoms() int { return len(m.atoms) }

// AllBonds returns the number of bonds including those to simple hydrogens.
func (m *Molecule) AllBonds() int { return len(m.bonds) }

// Atoms returns the number of non-hydrogen atoms.  Those occupy the indices
// 0..Atoms()-1.
func (m *Molecule) Atoms() int {
	m.EnsureHelperArrays(HelperNeighbours)
	return m.heavyAtoms
}

// Bonds returns the number of bonds between non-hydrogen atoms.  Those occupy
// the indices 0..Bonds()-1.
func (m *Molecule) Bonds() int {
	m.EnsureHelperArrays(HelperNeighbours)
	return m.heavyBonds
}

// IsFragment reports whether the molecule is a substructure query.
func (m *Molecule) IsFragment() bool { return m.fragment }

// SetFragment marks the molecule as a substructure query.
func (m *Molecule) SetFragment(f bool) { m.fragment = f }

// ParitiesValid reports whether stereo parities have been assigned.
func (m *Molecule) ParitiesValid() bool { return m.paritiesValid }

// SetParitiesValid flags the stereo parities as assigned.
func (m *Molecule) SetParitiesValid(v bool) { m.paritiesValid = v }

// ─────────────────────────────────────────────────────────────────────────────
// Atom properties
// ─────────────────────────────────────────────────────────────────────────────

func (m *Molecule) AtomicNo(a int) int      { return m.atoms[a].atomicNo }
func (m *Molecule) AtomCharge(a int) int    { return m.atoms[a].charge }
func (m *Molecule) AtomMass(a int) int      { return m.atoms[a].mass }
func (m *Molecule) AtomMapNo(a int) int     { return m.atoms[a].mapNo }
func (m *Molecule) IsMarkedAtom(a int) bool { return m.atoms[a].marked }

// AtomAbnormalValence returns the explicit valence override or -1.
func (m *Molecule) AtomAbnormalValence(a int) int { return m.atoms[a].abnormalValence }

func (m *Molecule) AtomRadical(a int) mtypes.RadicalState { return m.atoms[a].radical }

func (m *Molecule) AtomQueryFeatures(a int) mtypes.AtomQueryFeature {
	return m.atoms[a].queryFeatures
}

// AtomList returns the allowed elements of a query atom, nil for normal atoms.
func (m *Molecule) AtomList(a int) []int { return m.atoms[a].atomList }

// AtomHydrogenLabel returns the hydrogen count written in brackets, or -1.
func (m *Molecule) AtomHydrogenLabel(a int) int { return m.atoms[a].hydrogenLabel }

func (m *Molecule) AtomParity(a int) mtypes.AtomParity { return m.atoms[a].parity }

// Properties that decide whether a hydrogen is "simple" invalidate the
// relocation when they change on a hydrogen atom.
func (m *Molecule) touchHydrogen(a int) {
	if m.atoms[a].atomicNo == 1 {
		m.invalidate()
	}
}

func (m *Molecule) SetAtomCharge(a, charge int) {
	m.atoms[a].charge = charge
	m.touchHydrogen(a)
}

func (m *Molecule) SetAtomMass(a, mass int) {
	m.atoms[a].mass = mass
	m.touchHydrogen(a)
}

func (m *Molecule) SetAtomMapNo(a, mapNo int) { m.atoms[a].mapNo = mapNo }

func (m *Molecule) SetAtomAbnormalValence(a, valence int) {
	if valence < -1 {
		valence = -1
	}
	m.atoms[a].abnormalValence = valence
}

func (m *Molecule) SetAtomRadical(a int, r mtypes.RadicalState) {
	m.atoms[a].radical = r
	m.touchHydrogen(a)
}

// SetAtomMarker flags or unflags an atom as aromatic candidate.
func (m *Molecule) SetAtomMarker(a int, marked bool) { m.atoms[a].marked = marked }

// SetAtomQueryFeature sets or clears query feature bits.
func (m *Molecule) SetAtomQueryFeature(a int, f mtypes.AtomQueryFeature, on bool) {
	if on {
		m.atoms[a].queryFeatures |= f
	} else {
		m.atoms[a].queryFeatures &^= f
	}
}

// SetAtomList stores a sorted copy of the allowed elements.
func (m *Molecule) SetAtomList(a int, list []int) {
	if len(list) == 0 {
		m.atoms[a].atomList = nil
		return
	}
	cp := append([]int(nil), list...)
	sort.Ints(cp)
	m.atoms[a].atomList = cp
}

func (m *Molecule) SetAtomHydrogenLabel(a, count int) {
	m.atoms[a].hydrogenLabel = count
	m.touchHydrogen(a)
}

// ClearHydrogenLabels drops every transient hydrogen label.
func (m *Molecule) ClearHydrogenLabels() {
	for i := range m.atoms {
		if m.atoms[i].hydrogenLabel >= 0 {
			m.atoms[i].hydrogenLabel = -1
			m.touchHydrogen(i)
		}
	}
}

func (m *Molecule) SetAtomParity(a int, p mtypes.AtomParity) { m.atoms[a].parity = p }

// IsSimpleHydrogen reports whether a is a plain hydrogen atom: no isotope, no
// charge, no radical and no bracket hydrogen count.
func (m *Molecule) IsSimpleHydrogen(a int) bool {
	at := &m.atoms[a]
	return at.atomicNo == 1 && at.mass == 0 && at.charge == 0 &&
		at.radical == mtypes.RadicalNone && at.hydrogenLabel < 0
}

// ─────────────────────────────────────────────────────────────────────────────
// Bond properties
// ─────────────────────────────────────────────────────────────────────────────

// BondAtom returns atom i (0 or 1) of a bond.
func (m *Molecule) BondAtom(i, b int) int { return m.bonds[b].atoms[i] }

func (m *Molecule) BondType(b int) mtypes.BondType { return m.bonds[b].bondType }

func (m *Molecule) SetBondType(b int, t mtypes.BondType) { m.bonds[b].bondType = t }

// BondOrder returns the valence contribution of a bond.
func (m *Molecule) BondOrder(b int) int { return m.bonds[b].bondType.Order() }

func (m *Molecule) BondQueryFeatures(b int) mtypes.BondQueryFeature {
	return m.bonds[b].queryFeatures
}

// SetBondQueryFeature sets or clears query feature bits.
func (m *Molecule) SetBondQueryFeature(b int, f mtypes.BondQueryFeature, on bool) {
	if on {
		m.bonds[b].queryFeatures |= f
	} else {
		m.bonds[b].queryFeatures &^= f
	}
}

func (m *Molecule) BondParity(b int) mtypes.BondParity { return m.bonds[b].parity }

func (m *Molecule) SetBondParity(b int, p mtypes.BondParity) { m.bonds[b].parity = p }

// BondBetween returns the bond connecting two atoms, or -1.
func (m *Molecule) BondBetween(a1, a2 int) int {
	m.EnsureHelperArrays(HelperNeighbours)
	for _, n := range m.conn[a1] {
		if n.atom == a2 {
			return n.bond
		}
	}
	return -1
}

// ─────────────────────────────────────────────────────────────────────────────
// Neighbours
// ─────────────────────────────────────────────────────────────────────────────

// ConnAtoms returns the number of non-hydrogen neighbours of a.  They come
// first in the neighbour list, in bond creation order.
func (m *Molecule) ConnAtoms(a int) int {
	m.EnsureHelperArrays(HelperNeighbours)
	n := 0
	for _, nb := range m.conn[a] {
		if nb.atom < m.heavyAtoms {
			n++
		}
	}
	return n
}

// AllConnAtoms returns the number of neighbours including simple hydrogens.
func (m *Molecule) AllConnAtoms(a int) int {
	m.EnsureHelperArrays(HelperNeighbours)
	return len(m.conn[a])
}

// ConnAtom returns neighbour i of a.
func (m *Molecule) ConnAtom(a, i int) int {
	m.EnsureHelperArrays(HelperNeighbours)
	return m.conn[a][i].atom
}

// ConnBond returns the bond to neighbour i of a.
func (m *Molecule) ConnBond(a, i int) int {
	m.EnsureHelperArrays(HelperNeighbours)
	return m.conn[a][i].bond
}

// ─────────────────────────────────────────────────────────────────────────────
// Helper arrays
// ─────────────────────────────────────────────────────────────────────────────

// EnsureHelperArrays brings derived information up to the requested level.
// At HelperNeighbours and above simple hydrogens are moved behind all other
// atoms, renumbering atoms as HandleHydrogenMap describes.
func (m *Molecule) EnsureHelperArrays(level HelperLevel) {
	if m.validHelpers >= level {
		return
	}
	if m.validHelpers < HelperNeighbours {
		m.handleHydrogens()
		m.buildNeighbours()
		m.validHelpers = HelperNeighbours
	}
	if level >= HelperRings {
		m.rings = newRingCollection(m)
		m.validHelpers = HelperRings
	}
}

// relocatableHydrogens flags simple hydrogens that are not bonded to another
// hydrogen.
func (m *Molecule) relocatableHydrogens() []bool {
	isH := make([]bool, len(m.atoms))
	for i := range m.atoms {
		isH[i] = m.IsSimpleHydrogen(i)
	}
	for _, b := range m.bonds {
		if m.atoms[b.atoms[0]].atomicNo == 1 && m.atoms[b.atoms[1]].atomicNo == 1 {
			isH[b.atoms[0]] = false
			isH[b.atoms[1]] = false
		}
	}
	return isH
}

// HandleHydrogenMap returns, for every current atom index, the index the atom
// will have once simple hydrogens are moved to the end of the atom list.
func (m *Molecule) HandleHydrogenMap() []int {
	isH := m.relocatableHydrogens()
	mapping := make([]int, len(m.atoms))
	next := 0
	for i := range m.atoms {
		if !isH[i] {
			mapping[i] = next
			next++
		}
	}
	for i := range m.atoms {
		if isH[i] {
			mapping[i] = next
			next++
		}
	}
	return mapping
}

func (m *Molecule) handleHydrogens() {
	isH := m.relocatableHydrogens()
	mapping := m.HandleHydrogenMap()

	heavy := 0
	for _, h := range isH {
		if !h {
			heavy++
		}
	}

	moved := false
	for i, to := range mapping {
		if i != to {
			moved = true
			break
		}
	}
	if moved {
		atoms := make([]atom, len(m.atoms))
		for i, to := range mapping {
			atoms[to] = m.atoms[i]
		}
		m.atoms = atoms
		for i := range m.bonds {
			m.bonds[i].atoms[0] = mapping[m.bonds[i].atoms[0]]
			m.bonds[i].atoms[1] = mapping[m.bonds[i].atoms[1]]
		}
	}

	// bonds to relocated hydrogens go behind all other bonds
	sort.SliceStable(m.bonds, func(i, j int) bool {
		return m.bondIsHeavy(i, heavy) && !m.bondIsHeavy(j, heavy)
	})
	heavyBonds := 0
	for i := range m.bonds {
		if m.bondIsHeavy(i, heavy) {
			heavyBonds++
		}
	}

	m.heavyAtoms = heavy
	m.heavyBonds = heavyBonds
}

func (m *Molecule) bondIsHeavy(b, heavyAtoms int) bool {
	return m.bonds[b].atoms[0] < heavyAtoms && m.bonds[b].atoms[1] < heavyAtoms
}

func (m *Molecule) buildNeighbours() {
	m.conn = make([][]neighbour, len(m.atoms))
	for i, b := range m.bonds {
		if b.bondType == mtypes.BondTypeDeleted {
			continue
		}
		m.conn[b.atoms[0]] = append(m.conn[b.atoms[0]], neighbour{atom: b.atoms[1], bond: i})
		m.conn[b.atoms[1]] = append(m.conn[b.atoms[1]], neighbour{atom: b.atoms[0], bond: i})
	}
}

// RemoveExplicitHydrogens deletes all simple hydrogen atoms and their bonds
// and returns how many atoms were removed.
func (m *Molecule) RemoveExplicitHydrogens() int {
	m.EnsureHelperArrays(HelperNeighbours)
	removed := len(m.atoms) - m.heavyAtoms
	if removed == 0 {
		return 0
	}
	m.atoms = m.atoms[:m.heavyAtoms]
	m.bonds = m.bonds[:m.heavyBonds]
	m.invalidate()
	return removed
}
