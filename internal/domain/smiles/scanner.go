package smiles

import (
	"github.com/turtacn/keyip-smiles/internal/domain/molecule"
	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

const (
	maxBranchDepth = 64

	// hydrogenAny marks an atom without written hydrogen count.
	hydrogenAny = -1
	// hydrogenImplicitZero is the hydrogen label of bracket atoms that do
	// not mention H.  It lies outside "H0".."H9", counts as zero hydrogens
	// and does not restrict the hydrogen count of query atoms.
	hydrogenImplicitZero = 10
)

// parseState is the mutable state of a single parse call.
type parseState struct {
	opts *Options
	mol  *molecule.Molecule
	src  []byte
	pos  int
	end  int

	allowSmarts bool
	smartsFound bool
	warnings    []string

	base  [maxBranchDepth]int
	level int

	bondType     mtypes.BondType
	bondQF       mtypes.BondQueryFeature
	bondExplicit bool

	closures    closureTable
	parities    map[int]*thParity
	atomOffsets []int
}

func newParseState(opts *Options, mol *molecule.Molecule, src []byte, start, end int) *parseState {
	st := &parseState{
		opts:        opts,
		mol:         mol,
		src:         src,
		pos:         start,
		end:         end,
		allowSmarts: opts.SmartsMode != mtypes.SmartsModeSMILES,
		bondType:    mtypes.BondTypeSingle,
		parities:    make(map[int]*thParity),
	}
	st.base[0] = -1
	return st
}

// isQuery reports whether the result is a query graph.
func (st *parseState) isQuery() bool {
	return st.smartsFound || st.opts.SmartsMode == mtypes.SmartsModeSMARTS
}

// peek returns the byte off positions ahead of the cursor, or 0 past the end.
func (st *parseState) peek(off int) byte {
	if i := st.pos + off; i >= 0 && i < st.end {
		return st.src[i]
	}
	return 0
}

// requireSmarts fails in strict SMILES mode and records that a SMARTS
// feature was seen otherwise.
func (st *parseState) requireSmarts(offset int, feature string) error {
	if !st.allowSmarts {
		return newParseError(KindSmartsNotAllowed, offset, "SMARTS feature '%s' is not allowed in SMILES", feature)
	}
	st.smartsFound = true
	return nil
}

func (st *parseState) warn(feature string) {
	if st.opts.CreateSmartsWarnings {
		st.warnings = append(st.warnings, feature)
	}
}

// sourceOffset returns the input position of the atom that has index atom
// after hydrogen relocation, or -1 for atoms added after the scan.
func (st *parseState) sourceOffset(atom int, hydrogenMap []int) int {
	for old, now := range hydrogenMap {
		if now == atom && old < len(st.atomOffsets) {
			return st.atomOffsets[old]
		}
	}
	return -1
}

func (st *parseState) resetBond() {
	st.bondType = mtypes.BondTypeSingle
	st.bondQF = 0
	st.bondExplicit = false
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan loop
// ─────────────────────────────────────────────────────────────────────────────

func (st *parseState) scan() error {
	for st.pos < st.end && st.src[st.pos] <= ' ' {
		st.pos++
	}

scan:
	for st.pos < st.end {
		c := st.src[st.pos]
		var err error
		switch classify(c) {
		case tokWhitespace:
			break scan
		case tokAtom:
			err = st.parseOrganicAtom()
		case tokBracketOpen:
			err = st.parseBracketAtom()
		case tokBond:
			err = st.parseBond()
		case tokRingDigit:
			st.pos++
			err = st.closeRing(int(c-'0'), st.pos-1)
		case tokRingPercent:
			if !isDigit(st.peek(1)) || !isDigit(st.peek(2)) {
				return newParseError(KindRingClosure, st.pos, "'%%' must be followed by two digits")
			}
			n := int(st.peek(1)-'0')*10 + int(st.peek(2)-'0')
			st.pos += 3
			err = st.closeRing(n, st.pos-1)
		case tokBranchOpen:
			err = st.openBranch()
		case tokBranchClose:
			if st.level == 0 {
				return newParseError(KindBranch, st.pos, "closing parenthesis without matching opening one")
			}
			st.level--
			st.pos++
		case tokDot:
			st.base[st.level] = -1
			st.bondType = mtypes.BondTypeDeleted
			st.bondQF = 0
			st.bondExplicit = false
			st.pos++
		case tokBracketClose:
			return newParseError(KindBracket, st.pos, "closing bracket at unexpected position")
		case tokPlus:
			return newParseError(KindSyntax, st.pos, "'+' found outside brackets")
		default:
			return newParseError(KindSyntax, st.pos, "unexpected character '%c'", c)
		}
		if err != nil {
			return err
		}
	}

	if st.level != 0 {
		return newParseError(KindBranch, st.pos, "%d unclosed branch(es)", st.level)
	}
	if st.bondExplicit {
		return newParseError(KindDangling, st.pos, "dangling open bond")
	}
	if n, s := st.closures.firstOpen(); s != nil {
		return newParseError(KindDangling, s.position, "dangling ring closure %d", n)
	}
	return nil
}

func (st *parseState) openBranch() error {
	if st.base[st.level] == -1 {
		return newParseError(KindBranch, st.pos, "opening parenthesis without preceding atom")
	}
	if st.level+1 >= maxBranchDepth {
		return newParseError(KindBranch, st.pos, "branches nested deeper than %d levels", maxBranchDepth-1)
	}
	st.base[st.level+1] = st.base[st.level]
	st.level++
	st.pos++
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Atoms
// ─────────────────────────────────────────────────────────────────────────────

// atomSpec collects everything written for one atom before it is created.
type atomSpec struct {
	atomicNo        int
	charge          int
	mass            int
	mapNo           int
	abnormalValence int
	hydrogens       int
	aromatic        bool
	stereo          bool
	clockwise       bool
	queryFeatures   mtypes.AtomQueryFeature
	atomList        []int

	offset      int // first byte of the atom
	endPos      int // first byte after the atom
	hydrogenPos int // position of the closing bracket
}

func newAtomSpec(offset int) atomSpec {
	return atomSpec{abnormalValence: -1, hydrogens: hydrogenAny, offset: offset}
}

// parseOrganicAtom reads an atom written without brackets.
func (st *parseState) parseOrganicAtom() error {
	spec := newAtomSpec(st.pos)
	c := st.src[st.pos]
	st.pos++

	switch c {
	case '*':
		// the wildcard is plain SMILES too; it still makes a query graph
		spec.atomicNo = 6
		spec.queryFeatures |= mtypes.AtomQFAny
	case '?':
		if err := st.requireSmarts(spec.offset, "?"); err != nil {
			return err
		}
		spec.atomicNo = 0
	case 'A', 'a':
		if err := st.requireSmarts(spec.offset, string(c)); err != nil {
			return err
		}
		spec.atomicNo = 6
		spec.queryFeatures |= mtypes.AtomQFAny
		if c == 'a' {
			spec.queryFeatures |= mtypes.AtomQFAromatic
		} else {
			spec.queryFeatures |= mtypes.AtomQFNotAromatic
		}
	default:
		switch c | 0x20 {
		case 'b':
			spec.atomicNo = 5
			if st.peek(0) == 'r' {
				spec.atomicNo = 35
				st.pos++
			}
		case 'c':
			spec.atomicNo = 6
			if st.peek(0) == 'l' {
				spec.atomicNo = 17
				st.pos++
			}
		case 'f':
			spec.atomicNo = 9
		case 'i':
			spec.atomicNo = 53
		case 'n':
			spec.atomicNo = 7
		case 'o':
			spec.atomicNo = 8
		case 'p':
			spec.atomicNo = 15
		case 's':
			spec.atomicNo = 16
		default:
			return newParseError(KindUnknownElement, spec.offset, "unknown element symbol '%c' outside brackets", c)
		}
		spec.aromatic = isLower(c)
	}

	spec.endPos = st.pos
	return st.emitAtom(&spec)
}

// emitAtom creates the atom described by spec, bonds it to the current base
// atom and feeds open stereo descriptors.
func (st *parseState) emitAtom(spec *atomSpec) error {
	mol := st.mol
	if spec.aromatic && !molecule.QualifiesAsAromatic(spec.atomicNo) {
		return newParseError(KindSyntax, spec.offset, "element %s cannot be aromatic", molecule.AtomLabel(spec.atomicNo))
	}

	atom := mol.AddAtom(spec.atomicNo)
	st.atomOffsets = append(st.atomOffsets, spec.offset)
	mol.SetAtomCharge(atom, spec.charge)
	mol.SetAtomMapNo(atom, spec.mapNo)
	mol.SetAtomAbnormalValence(atom, spec.abnormalValence)
	if spec.queryFeatures != 0 {
		st.smartsFound = true
		mol.SetAtomQueryFeature(atom, spec.queryFeatures, true)
	}
	if len(spec.atomList) != 0 {
		st.smartsFound = true
		mol.SetAtomList(atom, spec.atomList)
	}
	if spec.aromatic {
		mol.SetAtomMarker(atom, true)
	}
	if spec.hydrogens != hydrogenAny && spec.atomicNo != 1 {
		mol.SetAtomHydrogenLabel(atom, spec.hydrogens)
	}
	if spec.mass != 0 {
		mol.SetAtomMass(atom, spec.mass)
	}

	from := st.base[st.level]
	if from != -1 && st.bondType != mtypes.BondTypeDeleted {
		if err := st.addBond(from, atom, st.bondType, st.bondQF, spec.offset); err != nil {
			return err
		}
	}
	st.resetBond()
	st.base[st.level] = atom

	if st.opts.ReadStereoFeatures {
		if p := st.parities[from]; p != nil {
			p.addNeighbour(atom, spec.endPos, spec.atomicNo == 1 && spec.mass == 0)
		}
		if spec.stereo {
			h := spec.hydrogens
			if h == hydrogenImplicitZero {
				h = 0
			}
			st.parities[atom] = newTHParity(atom, from, h, spec.hydrogenPos, spec.clockwise)
		}
	}
	return nil
}

// addBond creates a bond and rejects covalent bonds to closed-shell ions.
func (st *parseState) addBond(a1, a2 int, bt mtypes.BondType, qf mtypes.BondQueryFeature, offset int) error {
	mol := st.mol
	if bt != mtypes.BondTypeMetalLigand {
		for _, a := range [2]int{a1, a2} {
			if mol.IsIonicAtom(a) {
				return newParseError(KindIonicBond, offset, "covalent bond to ionic atom %s%+d",
					molecule.AtomLabel(mol.AtomicNo(a)), mol.AtomCharge(a))
			}
		}
	}
	b := mol.AddBond(a1, a2, bt)
	if qf != 0 {
		st.smartsFound = true
		mol.SetBondQueryFeature(b, qf, true)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bonds
// ─────────────────────────────────────────────────────────────────────────────

func bondSymbolFeature(c byte) mtypes.BondQueryFeature {
	switch c {
	case '=':
		return mtypes.BondQFDouble
	case '#':
		return mtypes.BondQFTriple
	case ':':
		return mtypes.BondQFDelocalized
	case '>':
		return mtypes.BondQFMetalLigand
	}
	return mtypes.BondQFSingle
}

// parseBond reads a bond expression: one bond symbol, optionally negated
// with '!', joined by ',' (or) and ';' (and) in SMARTS.
func (st *parseState) parseBond() error {
	var excluded mtypes.BondQueryFeature
	for {
		offset := st.pos
		c := st.src[st.pos]
		st.pos++

		if c == '!' {
			if err := st.requireSmarts(offset, "!"); err != nil {
				return err
			}
			c = st.peek(0)
			st.pos++
			switch {
			case c == '@':
				st.bondQF |= mtypes.BondQFNotRing
			case c == '-' && st.peek(0) == '>', c == '<' && st.peek(0) == '-':
				excluded |= mtypes.BondQFMetalLigand
				st.pos++
			case c == '-', c == '=', c == '#', c == ':':
				excluded |= bondSymbolFeature(c)
			default:
				return newParseError(KindSyntax, offset, "'!' must be followed by a bond symbol")
			}
		} else {
			symbol := c
			switch c {
			case '@':
				if err := st.requireSmarts(offset, "@"); err != nil {
					return err
				}
				st.bondQF |= mtypes.BondQFRing
			case '=':
				st.bondType = mtypes.BondTypeDouble
			case '#':
				st.bondType = mtypes.BondTypeTriple
			case ':':
				st.bondType = mtypes.BondTypeDelocalized
			case '/':
				if st.opts.ReadStereoFeatures {
					st.bondType = mtypes.BondTypeUp
				}
			case '\\':
				if st.opts.ReadStereoFeatures {
					st.bondType = mtypes.BondTypeDown
				}
			case '-':
				if st.peek(0) == '>' {
					st.bondType = mtypes.BondTypeMetalLigand
					symbol = '>'
					st.pos++
				}
			case '<':
				if st.peek(0) != '-' {
					return newParseError(KindSyntax, offset, "'<' must be followed by '-'")
				}
				st.bondType = mtypes.BondTypeMetalLigand
				symbol = '>'
				st.pos++
			}

			if st.peek(0) == ',' {
				if err := st.requireSmarts(st.pos, ","); err != nil {
					return err
				}
				st.bondQF |= bondSymbolFeature(symbol)
				for st.peek(0) == ',' {
					switch {
					case st.peek(1) == '<' && st.peek(2) == '-', st.peek(1) == '-' && st.peek(2) == '>':
						st.bondQF |= mtypes.BondQFMetalLigand
						st.pos += 3
					case isBondSymbol(st.peek(1)):
						st.bondQF |= bondSymbolFeature(st.peek(1))
						st.pos += 2
					default:
						return newParseError(KindSyntax, st.pos, "',' must be followed by a bond symbol")
					}
				}
			}
		}
		st.bondExplicit = true

		if st.peek(0) == ';' {
			if err := st.requireSmarts(st.pos, ";"); err != nil {
				return err
			}
			st.pos++
			if !isBondSymbol(st.peek(0)) {
				return newParseError(KindSyntax, st.pos, "';' must be followed by a bond symbol")
			}
			continue
		}
		break
	}

	if excluded != 0 {
		st.bondQF |= mtypes.BondQFBondTypes &^ excluded
	}
	return nil
}
