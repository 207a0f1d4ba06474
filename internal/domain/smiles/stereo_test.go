package smiles

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/keyip-smiles/internal/domain/molecule"
	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

// stereoCenter returns the only atom carrying a tetrahedral parity.
func stereoCenter(t *testing.T, mol *molecule.Molecule) int {
	t.Helper()
	center := -1
	for a := 0; a < mol.AllAtoms(); a++ {
		if mol.AtomParity(a) != mtypes.AtomParityNone {
			require.Equal(t, -1, center, "more than one stereo center")
			center = a
		}
	}
	require.NotEqual(t, -1, center, "no stereo center")
	return center
}

// chirality turns the index-relative parity of center into a flag that does
// not depend on atom numbering.  Neighbours are ranked by atomic number and
// heavy degree, which must be unique around the center.
func chirality(t *testing.T, mol *molecule.Molecule, center int) bool {
	t.Helper()
	p := mol.AtomParity(center)
	require.Contains(t, []mtypes.AtomParity{mtypes.AtomParityOdd, mtypes.AtomParityEven}, p)

	type ranked struct{ atom, rank int }
	var list []ranked
	for i := 0; i < mol.AllConnAtoms(center); i++ {
		a := mol.ConnAtom(center, i)
		list = append(list, ranked{a, mol.AtomicNo(a)*100 + mol.ConnAtoms(a)})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].atom < list[j].atom })
	if mol.ImplicitHydrogens(center) == 1 {
		list = append(list, ranked{math.MaxInt32, 101})
	}
	require.Len(t, list, 4)

	seen := map[int]bool{}
	inversion := false
	for i := range list {
		require.False(t, seen[list[i].rank], "neighbour ranks must be unique")
		seen[list[i].rank] = true
		for j := 0; j < i; j++ {
			if list[j].rank > list[i].rank {
				inversion = !inversion
			}
		}
	}
	return (p == mtypes.AtomParityEven) != inversion
}

func configuration(t *testing.T, smiles string) bool {
	t.Helper()
	mol, _ := mustParse(t, smiles)
	return chirality(t, mol, stereoCenter(t, mol))
}

func TestTetrahedralParity_Alanine(t *testing.T) {
	sForms := []string{
		"N[C@@]([H])(C)C(=O)O",
		"N[C@@H](C)C(=O)O",
		"N[C@H](C(=O)O)C",
		"[H][C@](N)(C)C(=O)O",
		"[C@H](N)(C)C(=O)O",
	}
	rForms := []string{
		"N[C@]([H])(C)C(=O)O",
		"N[C@H](C)C(=O)O",
		"N[C@@H](C(=O)O)C",
		"[H][C@@](N)(C)C(=O)O",
		"[C@@H](N)(C)C(=O)O",
	}

	s := configuration(t, sForms[0])
	for _, smiles := range sForms[1:] {
		assert.Equal(t, s, configuration(t, smiles), smiles)
	}
	for _, smiles := range rForms {
		assert.Equal(t, !s, configuration(t, smiles), smiles)
	}
}

func TestTetrahedralParity_RingCenters(t *testing.T) {
	groups := [][]string{
		{"C[C@H]1CCCCO1", "O1CCCC[C@@H]1C"},
		{
			"C1CO[C@H]1C",
			"C1CO[C@@H](C)1",
			"[C@H]1(C)CCO1",
			"[H][C@]1(C)CCO1",
			"[H][C@@]1(CCO1)C",
			"[C@@]1([H])(C)CCO1",
			"[C@]1(C)([H])CCO1",
		},
	}
	for _, group := range groups {
		want := configuration(t, group[0])
		for _, smiles := range group[1:] {
			assert.Equal(t, want, configuration(t, smiles), smiles)
		}
	}
}

func TestTetrahedralParity_RingClosureNeighbours(t *testing.T) {
	pairs := [][2]string{
		{"[C@](Cl)(F)(I)1.Br1", "F[C@](Cl)(Br)I"},
		{"Br[C@](Cl)(I)1.F1", "F[C@](Cl)(Br)I"},
		{"[C@H](F)(I)1.Br1", "F[C@H](Br)I"},
		{"Br[C@@H](F)1.I1", "F[C@H](Br)I"},
	}
	for _, p := range pairs {
		assert.Equal(t, configuration(t, p[1]), configuration(t, p[0]), p[0])
	}
	assert.NotEqual(t, configuration(t, "F[C@H](Br)I"), configuration(t, "F[C@@H](Br)I"))
}

func TestTetrahedralParity_Unknown(t *testing.T) {
	for _, smiles := range []string{
		"F[C@H2]Cl",         // too few neighbours
		"[C@H](F)(Cl)(Br)I", // five substituents
		"[H][C@H](F)Cl",     // hydrogen twice
	} {
		mol, _ := mustParse(t, smiles)
		assert.Equal(t, mtypes.AtomParityUnknown, mol.AtomParity(stereoCenter(t, mol)), smiles)
	}
}

func TestTetrahedralParity_StereoDisabled(t *testing.T) {
	mol, _ := mustParse(t, "N[C@@H](C)C(=O)O", WithStereo(false))
	for a := 0; a < mol.AllAtoms(); a++ {
		assert.Equal(t, mtypes.AtomParityNone, mol.AtomParity(a))
	}
}

func TestTHParity_NeighbourLimit(t *testing.T) {
	p := newTHParity(1, 0, 0, 5, false)
	for i := 2; i <= 4; i++ {
		p.addNeighbour(i, i*2, false)
	}
	assert.False(t, p.invalid)
	p.addNeighbour(5, 10, false)
	assert.True(t, p.invalid)

	assert.True(t, newTHParity(0, -1, 2, 3, true).invalid)
}

func TestInverseOrder(t *testing.T) {
	sorted := []parityNeighbour{{atom: 1, position: 1}, {atom: 2, position: 2}, {atom: 3, position: 3}}
	assert.False(t, inverseOrder(sorted))

	swapped := []parityNeighbour{{atom: 2, position: 1}, {atom: 1, position: 2}, {atom: 3, position: 3}}
	assert.True(t, inverseOrder(swapped))

	// position order and atom order disagreeing twice cancels out
	ringClosure := []parityNeighbour{{atom: 2, position: 2}, {atom: 1, position: 1}}
	assert.False(t, inverseOrder(ringClosure))
}

// ─────────────────────────────────────────────────────────────────────────────
// Cis/trans
// ─────────────────────────────────────────────────────────────────────────────

// doubleBondNextTo returns the parity of the double bond at the carbon that
// carries an atom of element atomicNo.
func doubleBondNextTo(t *testing.T, mol *molecule.Molecule, atomicNo int) mtypes.BondParity {
	t.Helper()
	for b := 0; b < mol.Bonds(); b++ {
		if mol.BondType(b) != mtypes.BondTypeDouble {
			continue
		}
		for i := 0; i < 2; i++ {
			a := mol.BondAtom(i, b)
			for j := 0; j < mol.ConnAtoms(a); j++ {
				if mol.AtomicNo(mol.ConnAtom(a, j)) == atomicNo {
					return mol.BondParity(b)
				}
			}
		}
	}
	t.Fatalf("no double bond next to element %d", atomicNo)
	return mtypes.BondParityNone
}

func TestEZParity(t *testing.T) {
	const (
		fluorine = 9
		iodine   = 53
	)
	tests := []struct {
		smiles      string
		nextToF     mtypes.BondParity
		nextToI     mtypes.BondParity
		doubleBonds int
	}{
		{"F/C=C/I", mtypes.BondParityE, mtypes.BondParityE, 1},
		{"F/C=C\\I", mtypes.BondParityZ, mtypes.BondParityZ, 1},
		{"C(=C\\I)/F", mtypes.BondParityE, mtypes.BondParityE, 1},
		{"C(=C/I)/F", mtypes.BondParityZ, mtypes.BondParityZ, 1},
		{"[H]C(/F)=C/I", mtypes.BondParityZ, mtypes.BondParityZ, 1},
		{"C(=C\\1)/I.F1", mtypes.BondParityE, mtypes.BondParityE, 1},
		{"C(=C1)/I.F/1", mtypes.BondParityE, mtypes.BondParityE, 1},
		{"C(=C\\F)/1.I1", mtypes.BondParityE, mtypes.BondParityE, 1},
		{"C(=C\\F)1.I\\1", mtypes.BondParityE, mtypes.BondParityE, 1},
		{"C\\1=C/I.F1", mtypes.BondParityE, mtypes.BondParityE, 1},
		{"C1=C/I.F/1", mtypes.BondParityE, mtypes.BondParityE, 1},
		{"C(=C\\1)/2.F1.I2", mtypes.BondParityE, mtypes.BondParityE, 1},
		{"C/2=C\\1.F1.I2", mtypes.BondParityE, mtypes.BondParityE, 1},
		{"C/1=C/C=C/F.I1", mtypes.BondParityE, mtypes.BondParityZ, 2},
		{"C1=C/C=C/F.I\\1", mtypes.BondParityE, mtypes.BondParityZ, 2},
		{"C(/I)=C/C=C/1.F1", mtypes.BondParityE, mtypes.BondParityZ, 2},
		{"C(/I)=C/C=C1.F\\1", mtypes.BondParityE, mtypes.BondParityZ, 2},
	}
	for _, tt := range tests {
		t.Run(tt.smiles, func(t *testing.T) {
			mol, _ := mustParse(t, tt.smiles)
			assert.Equal(t, tt.doubleBonds, countBonds(mol, mtypes.BondTypeDouble))
			assert.Equal(t, tt.nextToF, doubleBondNextTo(t, mol, fluorine), "double bond next to F")
			assert.Equal(t, tt.nextToI, doubleBondNextTo(t, mol, iodine), "double bond next to I")
			assert.Zero(t, countBonds(mol, mtypes.BondTypeUp)+countBonds(mol, mtypes.BondTypeDown),
				"directional bonds are turned back into single bonds")
		})
	}
}

func TestEZParity_Unspecified(t *testing.T) {
	// one-sided markers and small ring double bonds carry no parity
	for _, smiles := range []string{"FC=CI", "F/C=CI", "F/C1=C/CCC1"} {
		mol, _ := mustParse(t, smiles)
		for b := 0; b < mol.Bonds(); b++ {
			assert.Equal(t, mtypes.BondParityNone, mol.BondParity(b), smiles)
		}
	}
}

func TestEZParity_StereoDisabled(t *testing.T) {
	mol, _ := mustParse(t, "F/C=C/I", WithStereo(false))
	assert.Equal(t, mtypes.BondParityNone, doubleBondNextTo(t, mol, 9))
}
