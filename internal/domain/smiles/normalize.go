package smiles

import (
	"strconv"

	"github.com/turtacn/keyip-smiles/internal/domain/molecule"
	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

// hydrogenCount decodes a hydrogen label into a number of hydrogens.
func hydrogenCount(label int) int {
	if label < 0 || label == hydrogenImplicitZero {
		return 0
	}
	return label
}

// normalizeValences turns written hydrogen counts into valence information:
// hydrogen atoms, query features, radicals or abnormal valences.
func (st *parseState) normalizeValences() {
	mol := st.mol
	query := st.isQuery()
	makeExplicit := st.opts.MakeHydrogenExplicit

	mol.EnsureHelperArrays(molecule.HelperNeighbours)
	for atom := 0; atom < mol.AllAtoms(); atom++ {
		label := mol.AtomHydrogenLabel(atom)
		if label < 0 {
			if query && !makeExplicit {
				st.explicitHydrogensToQuery(atom)
			}
			continue
		}

		count := hydrogenCount(label)
		switch {
		case makeExplicit:
			addHydrogenAtoms(mol, atom, count)
		case query:
			if label == hydrogenImplicitZero {
				break
			}
			if count < len(hydrogenNotFeatures) {
				mol.SetAtomQueryFeature(atom, mtypes.AtomQFHydrogen&^hydrogenNotFeatures[count], true)
			} else {
				st.warn("H" + strconv.Itoa(count))
			}
		default:
			// Aromatic atoms keep their count: it tells where no double
			// bond may be placed.
			if !mol.IsMarkedAtom(atom) {
				fitValence(mol, atom, count)
			}
			if !mol.SupportsImplicitHydrogen(atom) {
				addHydrogenAtoms(mol, atom, count)
			}
		}
	}

	if query && !makeExplicit {
		mol.RemoveExplicitHydrogens()
	}
	mol.EnsureHelperArrays(molecule.HelperNeighbours)
}

// explicitHydrogensToQuery converts attached hydrogen atoms into "at least
// n hydrogens" features.
func (st *parseState) explicitHydrogensToQuery(atom int) {
	n := st.mol.ExplicitHydrogens(atom)
	for i := 0; i < n && i < len(hydrogenNotFeatures); i++ {
		st.mol.SetAtomQueryFeature(atom, hydrogenNotFeatures[i], true)
	}
}

func addHydrogenAtoms(mol *molecule.Molecule, atom, count int) {
	for i := 0; i < count; i++ {
		mol.AddBond(atom, mol.AddAtom(1), mtypes.BondTypeSingle)
	}
}

// fitValence matches the used valence of atom against its allowed valences.
// One or two missing bonds become a radical; anything else that does not fit
// becomes an abnormal valence.
func fitValence(mol *molecule.Molecule, atom, hydrogens int) {
	valences := molecule.AllowedValences(mol.AtomicNo(atom))
	used := mol.OccupiedValence(atom) - mol.ElectronValenceCorrection(atom) + hydrogens
	for _, v := range valences {
		if used > v {
			continue
		}
		switch {
		case v == used+2:
			mol.SetAtomRadical(atom, mtypes.RadicalTriplet)
		case v == used+1:
			mol.SetAtomRadical(atom, mtypes.RadicalDoublet)
		case v != used || v != valences[0]:
			mol.SetAtomAbnormalValence(atom, used)
		}
		return
	}
	mol.SetAtomAbnormalValence(atom, used)
}

// correctNitrogenValence rewrites uncharged nitrogen with five bonds (nitro
// groups and N-oxides written with double bonds) into the charge separated
// form.
func correctNitrogenValence(mol *molecule.Molecule) {
	for atom := 0; atom < mol.Atoms(); atom++ {
		if mol.AtomicNo(atom) != 7 || mol.AtomCharge(atom) != 0 ||
			mol.OccupiedValence(atom) <= 3 || mol.AtomPi(atom) == 0 {
			continue
		}
		for i := 0; i < mol.ConnAtoms(atom); i++ {
			conn := mol.ConnAtom(atom, i)
			bond := mol.ConnBond(atom, i)
			if mol.BondOrder(bond) <= 1 || !mol.IsElectronegative(conn) {
				continue
			}
			if mol.BondType(bond) == mtypes.BondTypeTriple {
				mol.SetBondType(bond, mtypes.BondTypeDouble)
			} else {
				mol.SetBondType(bond, mtypes.BondTypeSingle)
			}
			mol.SetAtomCharge(atom, mol.AtomCharge(atom)+1)
			mol.SetAtomCharge(conn, mol.AtomCharge(conn)-1)
			mol.SetAtomAbnormalValence(atom, -1)
			break
		}
	}
}
