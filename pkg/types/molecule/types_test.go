package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBondType_Order(t *testing.T) {
	cases := map[BondType]int{
		BondTypeSingle:      1,
		BondTypeUp:          1,
		BondTypeDown:        1,
		BondTypeDelocalized: 1,
		BondTypeDouble:      2,
		BondTypeTriple:      3,
		BondTypeMetalLigand: 0,
		BondTypeDeleted:     0,
	}
	for bt, want := range cases {
		assert.Equal(t, want, bt.Order(), bt.String())
	}
	assert.True(t, BondTypeUp.IsStereo())
	assert.False(t, BondTypeDouble.IsStereo())
	assert.Equal(t, "bond_type(42)", BondType(42).String())
}

func TestParseSmartsMode(t *testing.T) {
	for in, want := range map[string]SmartsMode{
		"":        SmartsModeSMILES,
		"SMILES":  SmartsModeSMILES,
		"guess":   SmartsModeGuess,
		" smarts": SmartsModeSMARTS,
	} {
		got, err := ParseSmartsMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseSmartsMode("inchi")
	assert.Error(t, err)
}

func TestAtomQueryFeature_Names(t *testing.T) {
	qf := AtomQFAromatic | AtomQFNot0Hydrogen | AtomQueryFeature(5)<<AtomQFRingSizeShift
	assert.Equal(t, 5, qf.RingSize())
	assert.Equal(t, []string{"aromatic", "not_0h", "ring_size_5"}, qf.Names())
	assert.Empty(t, AtomQueryFeature(0).Names())
}

func TestBondQueryFeature_Names(t *testing.T) {
	assert.Equal(t, []string{"single", "double", "ring"}, (BondQFSingle | BondQFDouble | BondQFRing).Names())
}

func TestRadicalState_ValenceCorrection(t *testing.T) {
	assert.Equal(t, 0, RadicalNone.ValenceCorrection())
	assert.Equal(t, 1, RadicalDoublet.ValenceCorrection())
	assert.Equal(t, 2, RadicalTriplet.ValenceCorrection())
	assert.Equal(t, "doublet", RadicalDoublet.String())
}

func TestParity_String(t *testing.T) {
	assert.Equal(t, "odd", AtomParityOdd.String())
	assert.Equal(t, "unknown", AtomParityUnknown.String())
	assert.Equal(t, "Z", BondParityZ.String())
}
