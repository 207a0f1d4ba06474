package smiles

import (
	"strconv"

	"github.com/turtacn/keyip-smiles/internal/domain/molecule"
	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

const maxIsotopeMass = 999

var hydrogenNotFeatures = [4]mtypes.AtomQueryFeature{
	mtypes.AtomQFNot0Hydrogen,
	mtypes.AtomQFNot1Hydrogen,
	mtypes.AtomQFNot2Hydrogen,
	mtypes.AtomQFNot3Hydrogen,
}

var neighbourNotFeatures = [5]mtypes.AtomQueryFeature{
	mtypes.AtomQFNot0Neighbours,
	mtypes.AtomQFNot1Neighbour,
	mtypes.AtomQFNot2Neighbours,
	mtypes.AtomQFNot3Neighbours,
	mtypes.AtomQFNot4Neighbours,
}

// parseBracketAtom reads "[...]" starting at the opening bracket.
func (st *parseState) parseBracketAtom() error {
	open := st.pos
	st.pos++

	mass := 0
	for isDigit(st.peek(0)) {
		mass = mass*10 + int(st.peek(0)-'0')
		if mass > maxIsotopeMass {
			return newParseError(KindBracket, st.pos, "isotope mass exceeds %d", maxIsotopeMass)
		}
		st.pos++
	}
	if st.pos >= st.end {
		return newParseError(KindBracket, open, "unterminated bracket atom")
	}

	spec := newAtomSpec(st.pos)
	spec.mass = mass
	if err := st.parseBracketSymbol(&spec); err != nil {
		return err
	}
	if err := st.parseBracketProperties(&spec); err != nil {
		return err
	}
	spec.endPos = st.pos
	return st.emitAtom(&spec)
}

// parseBracketSymbol reads the element symbol, wildcard or atom list.
func (st *parseState) parseBracketSymbol(spec *atomSpec) error {
	c := st.src[st.pos]
	switch {
	case c == '[':
		return newParseError(KindBracket, st.pos, "nested square brackets")
	case c == ']':
		return newParseError(KindBracket, st.pos, "empty bracket atom")
	case c == 'R' && isDigit(st.peek(1)):
		digits := 1
		if isDigit(st.peek(2)) {
			digits = 2
		}
		label := string(st.src[st.pos : st.pos+1+digits])
		no, ok := molecule.AtomicNoFromLabel(label)
		if !ok {
			return newParseError(KindUnknownElement, st.pos, "unknown substituent label '%s'", label)
		}
		spec.atomicNo = no
		st.pos += 1 + digits
		return nil
	case c == '*':
		spec.atomicNo = 6
		spec.queryFeatures |= mtypes.AtomQFAny
		st.pos++
		return nil
	case c == '?':
		if err := st.requireSmarts(st.pos, "?"); err != nil {
			return err
		}
		spec.atomicNo = 0
		st.pos++
		return nil
	case c == '#':
		if err := st.requireSmarts(st.pos, "#"); err != nil {
			return err
		}
		offset := st.pos
		st.pos++
		n := 0
		for isDigit(st.peek(0)) && n <= molecule.MaxAtomicNo {
			n = n*10 + int(st.peek(0)-'0')
			st.pos++
		}
		if n < 1 || n > molecule.MaxAtomicNo {
			return newParseError(KindUnknownElement, offset, "atomic number out of range")
		}
		spec.atomicNo = n
		return nil
	}

	isNot := false
	if c == '!' {
		if err := st.requireSmarts(st.pos, "!"); err != nil {
			return err
		}
		isNot = true
		spec.queryFeatures |= mtypes.AtomQFAny
		st.pos++
	}

	start := st.pos
	no, err := st.readElementLabel()
	if err != nil {
		return err
	}
	spec.atomicNo = no
	spec.aromatic = isLower(st.src[start]) && !isNot
	spec.hydrogens = hydrogenImplicitZero

	if isNot || st.peek(0) == ',' {
		if !st.allowSmarts {
			return newParseError(KindSmartsNotAllowed, st.pos, "atom lists are not allowed in SMILES")
		}
		return st.parseAtomList(spec, start, isNot)
	}
	return nil
}

// readElementLabel reads a one or two letter element symbol.  A lowercase
// second letter is only taken when it forms a known symbol.
func (st *parseState) readElementLabel() (int, error) {
	offset := st.pos
	if !isLetter(st.peek(0)) {
		return 0, newParseError(KindBracket, offset, "element symbol expected")
	}
	if isLower(st.peek(1)) {
		if no, ok := molecule.AtomicNoFromLabel(string(st.src[offset : offset+2])); ok {
			st.pos += 2
			return no, nil
		}
	}
	no, ok := molecule.AtomicNoFromLabel(string(st.src[offset : offset+1]))
	if !ok {
		return 0, newParseError(KindUnknownElement, offset, "unknown element label '%c'", st.src[offset])
	}
	st.pos++
	return no, nil
}

// parseAtomList reads "C,N,O" or "!C,!N" after the first symbol has been read.
func (st *parseState) parseAtomList(spec *atomSpec, start int, isNot bool) error {
	st.smartsFound = true
	list := []int{spec.atomicNo}
	upper, lower := !isLower(st.src[start]), isLower(st.src[start])

	for st.peek(0) == ',' {
		st.pos++
		if st.peek(0) == '!' {
			if !isNot {
				return newParseError(KindBracket, st.pos, "inconsistent '!' in atom list")
			}
			st.pos++
		}
		entry := st.pos
		no, err := st.readElementLabel()
		if err != nil {
			return err
		}
		list = append(list, no)
		if isLower(st.src[entry]) {
			lower = true
		} else {
			upper = true
		}
	}

	spec.atomList = list
	spec.aromatic = false
	if len(list) > 1 {
		switch {
		case !upper:
			spec.queryFeatures |= mtypes.AtomQFAromatic
		case !lower:
			spec.queryFeatures |= mtypes.AtomQFNotAromatic
		}
	}
	return nil
}

// parseBracketProperties reads everything after the symbol up to and
// including the closing bracket.
func (st *parseState) parseBracketProperties(spec *atomSpec) error {
	isNot := false
	for {
		if st.pos >= st.end {
			return newParseError(KindBracket, spec.offset, "unterminated bracket atom")
		}
		offset := st.pos
		c := st.src[st.pos]
		kind := classifyBracket(c)
		if isNot && kind != brHydrogen && kind != brDegree && kind != brAromatic &&
			kind != brRingCount && kind != brRingSize && kind != brValence {
			return newParseError(KindBracket, offset, "'!' must be followed by H, D, A, a, R, r or v")
		}

		switch kind {
		case brClose:
			spec.hydrogenPos = st.pos
			st.pos++
			return nil
		case brNested:
			return newParseError(KindBracket, offset, "nested square brackets")
		case brStereo:
			st.pos++
			spec.stereo = true
			if st.peek(0) == '@' {
				spec.clockwise = true
				st.pos++
			}
		case brMapNo:
			st.pos++
			spec.mapNo = st.readNumber(4)
		case brPositive, brNegative:
			st.readCharge(spec, c)
		case brNot:
			if err := st.requireSmarts(offset, "!"); err != nil {
				return err
			}
			isNot = true
			st.pos++
			continue
		case brHydrogen:
			st.pos++
			n := 1
			if isDigit(st.peek(0)) {
				n = int(st.peek(0) - '0')
				st.pos++
			}
			if isNot {
				if n < len(hydrogenNotFeatures) {
					spec.queryFeatures |= hydrogenNotFeatures[n]
				} else {
					st.warn("!H" + strconv.Itoa(n))
				}
				spec.hydrogens = hydrogenAny
			} else {
				spec.hydrogens = n
			}
		case brDegree:
			if err := st.requireSmarts(offset, "D"); err != nil {
				return err
			}
			st.pos++
			n := 1
			if isDigit(st.peek(0)) {
				n = int(st.peek(0) - '0')
				st.pos++
			}
			if n < len(neighbourNotFeatures) {
				qf := neighbourNotFeatures[n]
				if !isNot {
					qf ^= mtypes.AtomQFNeighbours
				}
				spec.queryFeatures |= qf
			} else {
				st.warn(negation(isNot) + "D" + strconv.Itoa(n))
			}
		case brAromatic:
			if err := st.requireSmarts(offset, string(c)); err != nil {
				return err
			}
			st.pos++
			if (c == 'A') != isNot {
				spec.queryFeatures |= mtypes.AtomQFNotAromatic
			} else {
				spec.queryFeatures |= mtypes.AtomQFAromatic
			}
		case brRingCount:
			if err := st.requireSmarts(offset, "R"); err != nil {
				return err
			}
			st.pos++
			st.readRingCount(spec, isNot)
		case brRingSize:
			if err := st.requireSmarts(offset, "r"); err != nil {
				return err
			}
			st.pos++
			st.readRingSize(spec, isNot)
		case brValence:
			if err := st.requireSmarts(offset, "v"); err != nil {
				return err
			}
			st.pos++
			if !isDigit(st.peek(0)) {
				return newParseError(KindBracket, st.pos, "'v' must be followed by a number")
			}
			v := st.readNumber(2)
			if !isNot && v <= 14 {
				spec.abnormalValence = v
			} else {
				st.warn(negation(isNot) + "v" + strconv.Itoa(v))
			}
		case brConjunction:
			if err := st.requireSmarts(offset, string(c)); err != nil {
				return err
			}
			st.pos++
		default:
			return newParseError(KindBracket, offset, "unexpected character '%c' inside brackets", c)
		}
		isNot = false
	}
}

func negation(isNot bool) string {
	if isNot {
		return "!"
	}
	return ""
}

// readNumber reads up to maxDigits decimal digits.
func (st *parseState) readNumber(maxDigits int) int {
	n := 0
	for i := 0; i < maxDigits && isDigit(st.peek(0)); i++ {
		n = n*10 + int(st.peek(0)-'0')
		st.pos++
	}
	return n
}

// readCharge reads "+", "++", "+2", "-", "--" or "-2".  An explicit zero
// becomes a "not charged" query when SMARTS is allowed.
func (st *parseState) readCharge(spec *atomSpec, sign byte) {
	unit := 1
	if sign == '-' {
		unit = -1
	}
	charge := 0
	for st.peek(0) == sign {
		charge += unit
		st.pos++
	}
	if charge == unit && isDigit(st.peek(0)) {
		charge = unit * int(st.peek(0)-'0')
		st.pos++
	}
	spec.charge = charge
	if charge == 0 && st.allowSmarts {
		spec.queryFeatures |= mtypes.AtomQFNotChargeNeg | mtypes.AtomQFNotChargePos
	}
}

func (st *parseState) readRingCount(spec *atomSpec, isNot bool) {
	if !isDigit(st.peek(0)) {
		spec.queryFeatures |= chainOrRing(isNot)
		return
	}
	n := int(st.peek(0) - '0')
	st.pos++
	if isNot {
		switch n {
		case 0:
			spec.queryFeatures |= mtypes.AtomQFNotChain
		case 1:
			spec.queryFeatures |= mtypes.AtomQFNot2RingBonds
		case 2:
			spec.queryFeatures |= mtypes.AtomQFNot3RingBonds
		case 3:
			spec.queryFeatures |= mtypes.AtomQFNot4RingBonds
		default:
			st.warn("!R" + strconv.Itoa(n))
		}
		return
	}
	if n > 3 {
		n = 3
	}
	switch n {
	case 0:
		spec.queryFeatures |= mtypes.AtomQFRingState &^ mtypes.AtomQFNotChain
	case 1:
		spec.queryFeatures |= mtypes.AtomQFRingState &^ mtypes.AtomQFNot2RingBonds
	case 2:
		spec.queryFeatures |= mtypes.AtomQFRingState &^ mtypes.AtomQFNot3RingBonds
	case 3:
		spec.queryFeatures |= mtypes.AtomQFRingState &^ mtypes.AtomQFNot4RingBonds
	}
}

func (st *parseState) readRingSize(spec *atomSpec, isNot bool) {
	if !isDigit(st.peek(0)) {
		spec.queryFeatures |= chainOrRing(isNot)
		return
	}
	n := int(st.peek(0) - '0')
	st.pos++
	if !isNot && n >= 3 && n <= 7 {
		spec.queryFeatures |= mtypes.AtomQueryFeature(n) << mtypes.AtomQFRingSizeShift
		return
	}
	st.warn(negation(isNot) + "r" + strconv.Itoa(n))
}

// chainOrRing is the feature of a bare R or r: any ring atom, or with '!'
// a chain atom.
func chainOrRing(isNot bool) mtypes.AtomQueryFeature {
	if isNot {
		return mtypes.AtomQFRingState &^ mtypes.AtomQFNotChain
	}
	return mtypes.AtomQFNotChain
}
