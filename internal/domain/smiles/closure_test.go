package smiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

func TestClosureTable_Growth(t *testing.T) {
	var table closureTable

	_, err := table.slot(3, 0)
	require.NoError(t, err)
	assert.Len(t, table.slots, closureChunk)

	s, err := table.slot(17, 0)
	require.NoError(t, err)
	assert.Len(t, table.slots, 2*closureChunk)
	s.open = true

	_, err = table.slot(99, 0)
	require.NoError(t, err)
	assert.Len(t, table.slots, maxClosureSlots)
	assert.True(t, table.slots[17].open, "growing keeps open slots")

	_, err = table.slot(100, 42)
	pe, ok := AsParseError(err)
	require.True(t, ok)
	assert.Equal(t, KindRingClosure, pe.Kind)
	assert.Equal(t, 42, pe.Offset)

	n, open := table.firstOpen()
	assert.Equal(t, 17, n)
	assert.NotNil(t, open)
}

func TestClosureBondType(t *testing.T) {
	tests := []struct {
		name    string
		slot    closureSlot
		pending mtypes.BondType
		want    mtypes.BondType
	}{
		{"first wins", closureSlot{hasBondType: true, bondType: mtypes.BondTypeDouble}, mtypes.BondTypeSingle, mtypes.BondTypeDouble},
		{"first wins over marker", closureSlot{hasBondType: true, bondType: mtypes.BondTypeUp}, mtypes.BondTypeUp, mtypes.BondTypeUp},
		{"second up inverted", closureSlot{}, mtypes.BondTypeUp, mtypes.BondTypeDown},
		{"second down inverted", closureSlot{}, mtypes.BondTypeDown, mtypes.BondTypeUp},
		{"second double", closureSlot{}, mtypes.BondTypeDouble, mtypes.BondTypeDouble},
		{"default single", closureSlot{}, mtypes.BondTypeSingle, mtypes.BondTypeSingle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, closureBondType(&tt.slot, tt.pending))
		})
	}
}

func TestRingClosure_BondTypes(t *testing.T) {
	tests := []struct {
		smiles string
		want   mtypes.BondType
	}{
		{"C=1CCCCC1", mtypes.BondTypeDouble},
		{"C1CCCCC=1", mtypes.BondTypeDouble},
		{"C=1CCCCC-1", mtypes.BondTypeDouble},
		{"C#1CCCCCCCC1", mtypes.BondTypeTriple},
		{"C1CCCCC1", mtypes.BondTypeSingle},
	}
	for _, tt := range tests {
		t.Run(tt.smiles, func(t *testing.T) {
			mol, _ := mustParse(t, tt.smiles)
			last := mol.Atoms() - 1
			b := mol.BondBetween(0, last)
			require.GreaterOrEqual(t, b, 0)
			assert.Equal(t, tt.want, mol.BondType(b))
			assert.Equal(t, 0, mol.BondAtom(0, b), "first occurrence atom comes first")
		})
	}
}

func TestRingClosure_TwoDigitAndReuse(t *testing.T) {
	mol, _ := mustParse(t, "C%10CCCC%10")
	assert.Equal(t, 5, mol.Bonds())
	assert.GreaterOrEqual(t, mol.BondBetween(0, 4), 0)

	// a closed digit may be opened again
	mol, _ = mustParse(t, "C1CC1C1CC1")
	assert.Equal(t, 6, mol.Atoms())
	assert.Equal(t, 7, mol.Bonds())
	assert.Equal(t, 2, mol.RingSet().Size())
}
