package smiles

import (
	"bytes"

	"github.com/turtacn/keyip-smiles/internal/domain/molecule"
)

// ReactionRole names one of the three sections of a reaction SMILES.
type ReactionRole int

const (
	RoleReactant ReactionRole = iota
	RoleCatalyst
	RoleProduct
)

func (r ReactionRole) String() string {
	switch r {
	case RoleReactant:
		return "reactant"
	case RoleCatalyst:
		return "catalyst"
	case RoleProduct:
		return "product"
	default:
		return "unknown"
	}
}

// Reaction is the result of ParseReaction.  Within a role, ".." separates
// molecules while a single "." separates components of one molecule.
type Reaction struct {
	Reactants []*molecule.Molecule
	Catalysts []*molecule.Molecule
	Products  []*molecule.Molecule
	// Warnings holds one entry per molecule that produced SMARTS warnings.
	Warnings []string
}

// Molecules returns the molecules of role r.
func (r *Reaction) Molecules(role ReactionRole) []*molecule.Molecule {
	switch role {
	case RoleReactant:
		return r.Reactants
	case RoleCatalyst:
		return r.Catalysts
	case RoleProduct:
		return r.Products
	}
	return nil
}

func (r *Reaction) add(role ReactionRole, mol *molecule.Molecule) {
	switch role {
	case RoleReactant:
		r.Reactants = append(r.Reactants, mol)
	case RoleCatalyst:
		r.Catalysts = append(r.Catalysts, mol)
	case RoleProduct:
		r.Products = append(r.Products, mol)
	}
}

// reactionSeparators returns the offsets of '>' characters that separate
// reaction roles.  The '>' of a "->" ligand bond is not a separator.
func reactionSeparators(smiles []byte) []int {
	var seps []int
	for i, c := range smiles {
		if c != '>' {
			continue
		}
		if i > 0 && smiles[i-1] == '-' {
			continue
		}
		seps = append(seps, i)
	}
	return seps
}

// ParseReaction parses "reactants>catalysts>products".  Any section may be
// empty.  Error offsets refer to positions in smiles.
func (p *Parser) ParseReaction(smiles []byte) (*Reaction, error) {
	seps := reactionSeparators(smiles)
	switch {
	case len(seps) < 2:
		return nil, newParseError(KindReaction, len(smiles), "missing separator: expected two '>'")
	case len(seps) > 2:
		return nil, newParseError(KindReaction, seps[2], "too many separators: expected two '>'")
	}

	rxn := &Reaction{}
	sections := [3][2]int{
		{0, seps[0]},
		{seps[0] + 1, seps[1]},
		{seps[1] + 1, len(smiles)},
	}
	for role, sec := range sections {
		if err := p.parseRole(rxn, ReactionRole(role), smiles, sec[0], sec[1]); err != nil {
			return nil, err
		}
	}
	return rxn, nil
}

func (p *Parser) parseRole(rxn *Reaction, role ReactionRole, smiles []byte, start, end int) error {
	for start < end {
		stop := end
		if i := bytes.Index(smiles[start:end], []byte("..")); i >= 0 {
			stop = start + i
		}
		if stop > start {
			mol := molecule.New()
			res, err := p.ParseRange(mol, smiles, start, stop)
			if err != nil {
				return err
			}
			rxn.add(role, mol)
			if res.Warnings != "" {
				rxn.Warnings = append(rxn.Warnings, role.String()+": "+res.Warnings)
			}
		}
		start = stop + 2
	}
	return nil
}
