package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

// chain builds a linear chain of atoms joined by single bonds.
func chain(m *Molecule, atomicNos ...int) []int {
	idx := make([]int, len(atomicNos))
	for i, no := range atomicNos {
		idx[i] = m.AddAtom(no)
		if i > 0 {
			m.AddBond(idx[i-1], idx[i], mtypes.BondTypeSingle)
		}
	}
	return idx
}

func ring(m *Molecule, size int, atomicNo int) []int {
	idx := chain(m, repeat(atomicNo, size)...)
	m.AddBond(idx[size-1], idx[0], mtypes.BondTypeSingle)
	return idx
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestAtomicNoFromLabel(t *testing.T) {
	cases := map[string]int{"C": 6, "c": 6, "Cl": 17, "cl": 17, "se": 34, "Og": 118, "R1": 129, "R16": 144}
	for label, want := range cases {
		got, ok := AtomicNoFromLabel(label)
		require.True(t, ok, label)
		assert.Equal(t, want, got, label)
	}
	_, ok := AtomicNoFromLabel("Xx")
	assert.False(t, ok)

	assert.Equal(t, "Br", AtomLabel(35))
	assert.Equal(t, "R3", AtomLabel(131))
	assert.Equal(t, "?", AtomLabel(500))
}

func TestMolecule_ImplicitHydrogensOfButane(t *testing.T) {
	m := New()
	c := chain(m, 6, 6, 6, 6)

	assert.Equal(t, 4, m.Atoms())
	assert.Equal(t, 3, m.Bonds())
	assert.Equal(t, 3, m.ImplicitHydrogens(c[0]))
	assert.Equal(t, 2, m.ImplicitHydrogens(c[1]))
	assert.Equal(t, 2, m.ImplicitHydrogens(c[2]))
	assert.Equal(t, 3, m.ImplicitHydrogens(c[3]))
}

func TestMolecule_ChargeAndRadicalChangeValence(t *testing.T) {
	m := New()
	n := m.AddAtom(7)
	m.SetAtomCharge(n, 1)
	assert.Equal(t, 4, m.ImplicitHydrogens(n), "ammonium")

	o := m.AddAtom(8)
	m.SetAtomCharge(o, -1)
	assert.Equal(t, 1, m.ImplicitHydrogens(o), "hydroxide")

	c := m.AddAtom(6)
	m.SetAtomRadical(c, mtypes.RadicalDoublet)
	assert.Equal(t, 3, m.ImplicitHydrogens(c), "methyl radical")

	na := m.AddAtom(11)
	m.SetAtomCharge(na, 1)
	assert.False(t, m.SupportsImplicitHydrogen(na))
	assert.Equal(t, 0, m.ImplicitHydrogens(na))
	assert.True(t, m.IsIonicAtom(na))
}

func TestMolecule_HigherValenceIsChosenWhenOccupied(t *testing.T) {
	m := New()
	s := m.AddAtom(16)
	for i := 0; i < 2; i++ {
		o := m.AddAtom(8)
		m.AddBond(s, o, mtypes.BondTypeDouble)
	}
	assert.Equal(t, 4, m.OccupiedValence(s))
	assert.Equal(t, 4, m.MaxValence(s))
	assert.Equal(t, 0, m.ImplicitHydrogens(s))
	assert.Equal(t, 2, m.AtomPi(s))
}

func TestMolecule_AbnormalValence(t *testing.T) {
	m := New()
	n := m.AddAtom(7)
	m.SetAtomAbnormalValence(n, 4)
	assert.Equal(t, 4, m.ImplicitHydrogens(n))
	m.SetAtomAbnormalValence(n, -5)
	assert.Equal(t, -1, m.AtomAbnormalValence(n))
}

func TestMolecule_HydrogenRelocation(t *testing.T) {
	m := New()
	h := m.AddAtom(1)
	c := m.AddAtom(6)
	f := m.AddAtom(9)
	m.AddBond(h, c, mtypes.BondTypeSingle)
	m.AddBond(c, f, mtypes.BondTypeSingle)

	assert.Equal(t, []int{2, 0, 1}, m.HandleHydrogenMap())

	m.EnsureHelperArrays(HelperNeighbours)
	assert.Equal(t, 2, m.Atoms())
	assert.Equal(t, 3, m.AllAtoms())
	assert.Equal(t, 1, m.Bonds())
	assert.Equal(t, 6, m.AtomicNo(0))
	assert.Equal(t, 9, m.AtomicNo(1))
	assert.Equal(t, 1, m.AtomicNo(2))

	// heavy neighbours first, hydrogens last
	assert.Equal(t, 1, m.ConnAtoms(0))
	assert.Equal(t, 2, m.AllConnAtoms(0))
	assert.Equal(t, 1, m.ConnAtom(0, 0))
	assert.Equal(t, 2, m.ConnAtom(0, 1))
	assert.Equal(t, 1, m.ExplicitHydrogens(0))
	assert.Equal(t, 2, m.ImplicitHydrogens(0))
}

func TestMolecule_IsotopeHydrogenStays(t *testing.T) {
	m := New()
	d := m.AddAtom(1)
	m.SetAtomMass(d, 2)
	c := m.AddAtom(6)
	m.AddBond(d, c, mtypes.BondTypeSingle)

	assert.Equal(t, []int{0, 1}, m.HandleHydrogenMap())
	assert.Equal(t, 2, m.Atoms())
	assert.False(t, m.IsSimpleHydrogen(d))
}

func TestMolecule_DihydrogenStays(t *testing.T) {
	m := New()
	chain(m, 1, 1)
	assert.Equal(t, 2, m.Atoms())
}

func TestMolecule_RemoveExplicitHydrogens(t *testing.T) {
	m := New()
	c := m.AddAtom(6)
	for i := 0; i < 3; i++ {
		m.AddBond(c, m.AddAtom(1), mtypes.BondTypeSingle)
	}
	assert.Equal(t, 3, m.RemoveExplicitHydrogens())
	assert.Equal(t, 1, m.AllAtoms())
	assert.Equal(t, 0, m.AllBonds())
	assert.Equal(t, 0, m.RemoveExplicitHydrogens())
}

func TestMolecule_BondBetweenAndClear(t *testing.T) {
	m := New()
	c := chain(m, 6, 8)
	assert.Equal(t, 0, m.BondBetween(c[0], c[1]))
	assert.Equal(t, -1, m.BondBetween(c[0], c[0]))

	m.SetFragment(true)
	m.Clear()
	assert.Equal(t, 0, m.AllAtoms())
	assert.False(t, m.IsFragment())
}

func TestMolecule_AtomListIsSortedCopy(t *testing.T) {
	m := New()
	a := m.AddAtom(6)
	list := []int{8, 7}
	m.SetAtomList(a, list)
	list[0] = 99
	assert.Equal(t, []int{7, 8}, m.AtomList(a))
	m.SetAtomList(a, nil)
	assert.Nil(t, m.AtomList(a))
}

func TestMolecule_QueryFeatures(t *testing.T) {
	m := New()
	c := chain(m, 6, 6)
	m.SetAtomQueryFeature(c[0], mtypes.AtomQFAromatic|mtypes.AtomQFNot0Hydrogen, true)
	m.SetAtomQueryFeature(c[0], mtypes.AtomQFAromatic, false)
	assert.Equal(t, mtypes.AtomQFNot0Hydrogen, m.AtomQueryFeatures(c[0]))

	m.SetBondQueryFeature(0, mtypes.BondQFRing, true)
	assert.Equal(t, mtypes.BondQFRing, m.BondQueryFeatures(0))

	m.SetFragment(true)
	assert.Equal(t, 0, m.ImplicitHydrogens(c[1]), "query atoms carry no implicit hydrogens")
}
