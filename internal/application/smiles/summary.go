package smiles

import (
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/keyip-smiles/internal/domain/molecule"
	domain "github.com/turtacn/keyip-smiles/internal/domain/smiles"
	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

// AtomSummary is the transport form of one atom.
type AtomSummary struct {
	Index             int      `json:"index"`
	AtomicNo          int      `json:"atomic_no"`
	Symbol            string   `json:"symbol"`
	Charge            int      `json:"charge,omitempty"`
	Mass              int      `json:"mass,omitempty"`
	MapNo             int      `json:"map_no,omitempty"`
	ImplicitHydrogens int      `json:"implicit_hydrogens"`
	Radical           string   `json:"radical,omitempty"`
	Parity            string   `json:"parity,omitempty"`
	AtomList          []int    `json:"atom_list,omitempty"`
	QueryFeatures     []string `json:"query_features,omitempty"`
}

// BondSummary is the transport form of one bond.
type BondSummary struct {
	Index         int      `json:"index"`
	Atoms         [2]int   `json:"atoms"`
	Type          string   `json:"type"`
	Order         int      `json:"order"`
	Parity        string   `json:"parity,omitempty"`
	QueryFeatures []string `json:"query_features,omitempty"`
}

// MoleculeSummary is the result of a successful parse as returned by every
// transport and stored in the cache.
type MoleculeSummary struct {
	SMILES         string        `json:"smiles"`
	Formula        string        `json:"formula"`
	HeavyAtoms     int           `json:"heavy_atoms"`
	AtomCount      int           `json:"atom_count"`
	BondCount      int           `json:"bond_count"`
	Rings          int           `json:"rings"`
	StereoCenters  int           `json:"stereo_centers"`
	StereoBonds    int           `json:"stereo_bonds"`
	Fragment       bool          `json:"fragment"`
	SmartsFeatures bool          `json:"smarts_features"`
	Warnings       string        `json:"warnings,omitempty"`
	Atoms          []AtomSummary `json:"atoms"`
	Bonds          []BondSummary `json:"bonds"`
}

// Summarize converts a parsed molecule.  res may be nil for reaction
// components, whose warnings are reported on the reaction.
func Summarize(smiles string, mol *molecule.Molecule, res *domain.Result) *MoleculeSummary {
	s := &MoleculeSummary{
		SMILES:     smiles,
		Formula:    HillFormula(mol),
		HeavyAtoms: mol.Atoms(),
		AtomCount:  mol.AllAtoms(),
		BondCount:  mol.AllBonds(),
		Rings:      mol.RingSet().Size(),
		Fragment:   mol.IsFragment(),
		Atoms:      make([]AtomSummary, 0, mol.AllAtoms()),
		Bonds:      make([]BondSummary, 0, mol.AllBonds()),
	}
	if res != nil {
		s.SmartsFeatures = res.SmartsFeatures
		s.Warnings = res.Warnings
	}

	for a := 0; a < mol.AllAtoms(); a++ {
		as := AtomSummary{
			Index:             a,
			AtomicNo:          mol.AtomicNo(a),
			Symbol:            molecule.AtomLabel(mol.AtomicNo(a)),
			Charge:            mol.AtomCharge(a),
			Mass:              mol.AtomMass(a),
			MapNo:             mol.AtomMapNo(a),
			ImplicitHydrogens: mol.ImplicitHydrogens(a),
			AtomList:          mol.AtomList(a),
			QueryFeatures:     mol.AtomQueryFeatures(a).Names(),
		}
		if r := mol.AtomRadical(a); r != mtypes.RadicalNone {
			as.Radical = r.String()
		}
		if p := mol.AtomParity(a); p != mtypes.AtomParityNone {
			as.Parity = p.String()
			s.StereoCenters++
		}
		s.Atoms = append(s.Atoms, as)
	}

	for b := 0; b < mol.AllBonds(); b++ {
		bt := mol.BondType(b)
		bs := BondSummary{
			Index:         b,
			Atoms:         [2]int{mol.BondAtom(0, b), mol.BondAtom(1, b)},
			Type:          bt.String(),
			Order:         bt.Order(),
			QueryFeatures: mol.BondQueryFeatures(b).Names(),
		}
		if p := mol.BondParity(b); p != mtypes.BondParityNone {
			bs.Parity = p.String()
			s.StereoBonds++
		}
		s.Bonds = append(s.Bonds, bs)
	}
	return s
}

// HillFormula returns the molecular formula in Hill order: carbon first,
// then hydrogen, then the remaining elements alphabetically; without carbon
// every element is alphabetical.  Wildcard atoms are skipped and a net
// charge is appended as "+", "2-" and so on.
func HillFormula(mol *molecule.Molecule) string {
	counts := map[string]int{}
	charge := 0
	for a := 0; a < mol.AllAtoms(); a++ {
		no := mol.AtomicNo(a)
		charge += mol.AtomCharge(a)
		if h := mol.ImplicitHydrogens(a); h > 0 {
			counts["H"] += h
		}
		if no == 0 {
			continue
		}
		counts[molecule.AtomLabel(no)]++
	}

	var sb strings.Builder
	write := func(symbol string) {
		n := counts[symbol]
		if n == 0 {
			return
		}
		sb.WriteString(symbol)
		if n > 1 {
			sb.WriteString(strconv.Itoa(n))
		}
		delete(counts, symbol)
	}

	if counts["C"] > 0 {
		write("C")
		write("H")
	}
	rest := make([]string, 0, len(counts))
	for symbol := range counts {
		rest = append(rest, symbol)
	}
	sort.Strings(rest)
	for _, symbol := range rest {
		write(symbol)
	}

	switch {
	case charge == 1:
		sb.WriteString("+")
	case charge == -1:
		sb.WriteString("-")
	case charge > 1:
		sb.WriteString(strconv.Itoa(charge) + "+")
	case charge < -1:
		sb.WriteString(strconv.Itoa(-charge) + "-")
	}
	return sb.String()
}
