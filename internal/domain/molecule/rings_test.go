package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

func TestRings_Benzene(t *testing.T) {
	m := New()
	ring(m, 6, 6)

	rs := m.RingSet()
	require.Equal(t, 1, rs.Size())
	assert.Equal(t, 1, rs.SmallRings())
	assert.Equal(t, 6, rs.RingSize(0))

	r := rs.Ring(0)
	for i, b := range r.Bonds {
		a1, a2 := m.BondAtom(0, b), m.BondAtom(1, b)
		next := r.Atoms[(i+1)%6]
		assert.ElementsMatch(t, []int{r.Atoms[i], next}, []int{a1, a2})
		assert.Equal(t, 6, m.BondRingSize(b))
		assert.True(t, m.IsSmallRingBond(b))
	}
}

func TestRings_Naphthalene(t *testing.T) {
	m := New()
	a := ring(m, 6, 6)
	// second ring fused over a[0]-a[1]
	c := chain(m, 6, 6, 6, 6)
	m.AddBond(a[1], c[0], mtypes.BondTypeSingle)
	m.AddBond(c[3], a[0], mtypes.BondTypeSingle)

	rs := m.RingSet()
	assert.Equal(t, 2, rs.Size(), "the ten-membered envelope is not collected")
	assert.Equal(t, 2, rs.AtomRingCount(a[0]))
	assert.Equal(t, 1, rs.AtomRingCount(a[3]))
}

func TestRings_LargeRingAndBridge(t *testing.T) {
	m := New()
	r := ring(m, 12, 6)
	tail := m.AddAtom(8)
	bridge := m.AddBond(r[0], tail, mtypes.BondTypeSingle)

	rs := m.RingSet()
	require.Equal(t, 1, rs.Size())
	assert.Equal(t, 0, rs.SmallRings())
	assert.Equal(t, 12, rs.RingSize(0))
	assert.Equal(t, 12, m.BondRingSize(0))
	assert.False(t, m.IsSmallRingBond(0))
	assert.True(t, m.IsRingBond(0))
	assert.False(t, m.IsRingBond(bridge))
	assert.Equal(t, 0, m.BondRingSize(bridge))
}

func TestRings_HelpersInvalidatedByNewBond(t *testing.T) {
	m := New()
	c := chain(m, 6, 6, 6)
	assert.Equal(t, 0, m.RingSet().Size())
	m.AddBond(c[2], c[0], mtypes.BondTypeSingle)
	assert.Equal(t, 1, m.RingSet().Size())
}
