package molecule

import (
	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

// ─────────────────────────────────────────────────────────────────────────────
// Valence model
// ─────────────────────────────────────────────────────────────────────────────

// OccupiedValence sums the bond orders of all bonds of a, including bonds to
// explicit hydrogen atoms.  Metal-ligand bonds do not count.
func (m *Molecule) OccupiedValence(a int) int {
	m.EnsureHelperArrays(HelperNeighbours)
	v := 0
	for _, n := range m.conn[a] {
		v += m.bonds[n.bond].bondType.Order()
	}
	return v
}

// AtomPi returns the number of pi bonds at a.
func (m *Molecule) AtomPi(a int) int {
	m.EnsureHelperArrays(HelperNeighbours)
	pi := 0
	for _, n := range m.conn[a] {
		switch m.bonds[n.bond].bondType {
		case mtypes.BondTypeDouble:
			pi++
		case mtypes.BondTypeTriple:
			pi += 2
		}
	}
	return pi
}

// IsElectronegative reports whether a belongs to an electronegative element.
func (m *Molecule) IsElectronegative(a int) bool {
	return electronegativeElements[m.atoms[a].atomicNo]
}

// ElectronValenceCorrection is the amount by which charge and radical state
// change the number of bonds an atom can form.  Charged carbon always loses
// valence, electronegative atoms gain one per positive charge and all other
// elements gain one per negative charge.
func (m *Molecule) ElectronValenceCorrection(a int) int {
	at := &m.atoms[a]
	correction := -at.radical.ValenceCorrection()
	switch {
	case at.atomicNo == 6:
		if at.charge < 0 {
			correction += at.charge
		} else {
			correction -= at.charge
		}
	case electronegativeElements[at.atomicNo]:
		correction += at.charge
	default:
		correction -= at.charge
	}
	return correction
}

// MaxValence returns the number of bonds (including implicit hydrogens) a can
// form given its element, charge, radical state and abnormal valence.
func (m *Molecule) MaxValence(a int) int {
	occupied := m.OccupiedValence(a)
	correction := m.ElectronValenceCorrection(a)
	if av := m.atoms[a].abnormalValence; av >= 0 {
		return av + correction
	}
	valences := AllowedValences(m.atoms[a].atomicNo)
	if len(valences) == 0 {
		return occupied
	}
	for _, v := range valences {
		if v+correction >= occupied {
			return v + correction
		}
	}
	return valences[len(valences)-1] + correction
}

// FreeValence is the part of MaxValence not used by explicit bonds.
func (m *Molecule) FreeValence(a int) int {
	return m.MaxValence(a) - m.OccupiedValence(a)
}

// SupportsImplicitHydrogen reports whether hydrogens of a may stay implicit.
// Metals and hydrogen itself need explicit hydrogen atoms.
func (m *Molecule) SupportsImplicitHydrogen(a int) bool {
	at := &m.atoms[a]
	if at.atomicNo <= 1 {
		return false
	}
	if at.abnormalValence >= 0 {
		return true
	}
	return IsOrganicElement(at.atomicNo)
}

// ImplicitHydrogens returns the number of hydrogens a carries implicitly.
// Query fragments never carry implicit hydrogens.
func (m *Molecule) ImplicitHydrogens(a int) int {
	if m.fragment || !m.SupportsImplicitHydrogen(a) {
		return 0
	}
	if h := m.FreeValence(a); h > 0 {
		return h
	}
	return 0
}

// ExplicitHydrogens returns the number of simple hydrogen atoms bonded to a.
func (m *Molecule) ExplicitHydrogens(a int) int {
	m.EnsureHelperArrays(HelperNeighbours)
	n := 0
	for _, nb := range m.conn[a] {
		if nb.atom >= m.heavyAtoms {
			n++
		}
	}
	return n
}

// IsIonicAtom reports whether a is a closed-shell ion (alkali or
// alkaline-earth cation, halide anion).
func (m *Molecule) IsIonicAtom(a int) bool {
	return IonicCharge(m.atoms[a].atomicNo, m.atoms[a].charge)
}
