// Package smiles parses SMILES and SMARTS line notation into a
// molecule.Molecule: atoms and bonds, normalized valences, resolved
// aromaticity and tetrahedral and cis/trans parities.
//
// A Parser only holds configuration.  Every call works on its own state, so
// one Parser may serve concurrent callers as long as each call gets its own
// molecule.
package smiles

import (
	"strings"

	"github.com/turtacn/keyip-smiles/internal/domain/molecule"
	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

const warningPrefix = "Unresolved SMARTS features:"

// Result describes a successful parse.
type Result struct {
	// Warnings lists SMARTS features that were recognized but could not be
	// translated, e.g. "Unresolved SMARTS features: R5 !r3".  Empty when
	// none were found or warnings are disabled.
	Warnings string
	// Fragment is true when the molecule is a query graph.
	Fragment bool
	// SmartsFeatures is true when any SMARTS syntax was found.
	SmartsFeatures bool
}

// Parser converts SMILES text into molecules.
type Parser struct {
	opts Options
}

// NewParser returns a parser for strict SMILES with stereo features enabled,
// modified by opts.
func NewParser(opts ...Option) *Parser {
	o := Options{
		SmartsMode:         mtypes.SmartsModeSMILES,
		ReadStereoFeatures: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Parser{opts: o}
}

// Options returns the parser configuration.
func (p *Parser) Options() Options { return p.opts }

// Parse parses all of smiles into mol, which is cleared first.
func (p *Parser) Parse(mol *molecule.Molecule, smiles []byte) (*Result, error) {
	return p.ParseRange(mol, smiles, 0, len(smiles))
}

// ParseString parses smiles into a new molecule.
func (p *Parser) ParseString(smiles string) (*molecule.Molecule, *Result, error) {
	mol := molecule.New()
	res, err := p.Parse(mol, []byte(smiles))
	if err != nil {
		return nil, nil, err
	}
	return mol, res, nil
}

// ParseRange parses smiles[start:end] into mol, which is cleared first.
// Error offsets refer to positions in smiles.  After an error mol is left
// partially built and must be discarded.
func (p *Parser) ParseRange(mol *molecule.Molecule, smiles []byte, start, end int) (*Result, error) {
	if start < 0 || end > len(smiles) || start > end {
		return nil, newParseError(KindSyntax, -1, "invalid range [%d,%d) for input of length %d", start, end, len(smiles))
	}
	mol.Clear()

	st := newParseState(&p.opts, mol, smiles, start, end)
	if err := st.scan(); err != nil {
		return nil, err
	}

	hydrogenMap := mol.HandleHydrogenMap()
	st.normalizeValences()
	correctNitrogenValence(mol)

	k := newKekulizer(mol)
	if err := k.resolve(st.allowSmarts); err != nil {
		if pe, ok := AsParseError(err); ok && k.unresolved >= 0 {
			pe.Offset = st.sourceOffset(k.unresolved, hydrogenMap)
		}
		return nil, err
	}
	mol.ClearHydrogenLabels()

	if p.opts.ReadStereoFeatures {
		assignEZParities(mol)
		st.assignTetrahedralParities(hydrogenMap)
	}
	mol.SetParitiesValid(true)

	if ci := p.opts.Coordinates; ci != nil {
		err := ci.Invent(mol, CoordinateOptions{
			SkipTemplates: p.opts.SkipCoordinateTemplates,
			KeepHydrogens: p.opts.MakeHydrogenExplicit,
		})
		if err != nil {
			return nil, err
		}
	}

	if st.isQuery() {
		mol.SetFragment(true)
	}

	res := &Result{Fragment: mol.IsFragment(), SmartsFeatures: st.smartsFound}
	if len(st.warnings) != 0 {
		res.Warnings = warningPrefix + " " + strings.Join(st.warnings, " ")
	}
	return res, nil
}
