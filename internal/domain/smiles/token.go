package smiles

// tokenKind is the class of the character that starts a token outside
// brackets.
type tokenKind int

const (
	tokEnd tokenKind = iota
	tokWhitespace
	tokAtom
	tokBracketOpen
	tokBracketClose
	tokBond
	tokRingDigit
	tokRingPercent
	tokBranchOpen
	tokBranchClose
	tokDot
	tokPlus
	tokInvalid
)

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

func isBondSymbol(c byte) bool {
	switch c {
	case '-', '=', '#', ':', '/', '\\', '<', '!', '@':
		return true
	}
	return false
}

func classify(c byte) tokenKind {
	switch {
	case c <= ' ':
		return tokWhitespace
	case isLetter(c), c == '*', c == '?':
		return tokAtom
	case isDigit(c):
		return tokRingDigit
	case isBondSymbol(c):
		return tokBond
	}
	switch c {
	case '[':
		return tokBracketOpen
	case ']':
		return tokBracketClose
	case '%':
		return tokRingPercent
	case '(':
		return tokBranchOpen
	case ')':
		return tokBranchClose
	case '.':
		return tokDot
	case '+':
		return tokPlus
	}
	return tokInvalid
}

// bracketKind is the class of a character inside square brackets, after the
// element symbol.
type bracketKind int

const (
	brInvalid bracketKind = iota
	brClose
	brNested
	brStereo
	brMapNo
	brPositive
	brNegative
	brNot
	brHydrogen
	brDegree
	brAromatic
	brRingCount
	brRingSize
	brValence
	brConjunction
)

func classifyBracket(c byte) bracketKind {
	switch c {
	case ']':
		return brClose
	case '[':
		return brNested
	case '@':
		return brStereo
	case ':':
		return brMapNo
	case '+':
		return brPositive
	case '-':
		return brNegative
	case '!':
		return brNot
	case 'H':
		return brHydrogen
	case 'D':
		return brDegree
	case 'A', 'a':
		return brAromatic
	case 'R':
		return brRingCount
	case 'r':
		return brRingSize
	case 'v':
		return brValence
	case ';', '&':
		return brConjunction
	}
	return brInvalid
}
