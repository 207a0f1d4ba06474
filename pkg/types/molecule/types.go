// Package molecule defines the molecule-graph enumerations shared by every
// layer of keyip-smiles: bond types, stereo parities, radical states, SMARTS
// modes and query-feature bitsets.  No domain logic lives here, only plain
// values that are safe to import from any layer without creating cycles.
package molecule

import (
	"fmt"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// BondType
// ─────────────────────────────────────────────────────────────────────────────

// BondType is the concrete type of a bond in the molecular graph.
type BondType int

const (
	BondTypeSingle BondType = iota + 1
	BondTypeDouble
	BondTypeTriple
	// BondTypeDelocalized is an aromatic bond that has not been resolved into
	// a single/double assignment.  It only survives a parse in SMARTS mode.
	BondTypeDelocalized
	// BondTypeUp and BondTypeDown temporarily encode '/' and '\' while
	// parsing; they never survive a completed parse.
	BondTypeUp
	BondTypeDown
	BondTypeMetalLigand
	BondTypeDeleted
)

var bondTypeNames = map[BondType]string{
	BondTypeSingle:      "single",
	BondTypeDouble:      "double",
	BondTypeTriple:      "triple",
	BondTypeDelocalized: "delocalized",
	BondTypeUp:          "up",
	BondTypeDown:        "down",
	BondTypeMetalLigand: "metal_ligand",
	BondTypeDeleted:     "deleted",
}

func (t BondType) String() string {
	if s, ok := bondTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("bond_type(%d)", int(t))
}

// Order returns the number of electron pairs a bond of this type contributes
// to each of its atoms' occupied valence.
func (t BondType) Order() int {
	switch t {
	case BondTypeSingle, BondTypeUp, BondTypeDown, BondTypeDelocalized:
		return 1
	case BondTypeDouble:
		return 2
	case BondTypeTriple:
		return 3
	default:
		return 0
	}
}

// IsStereo reports whether t is one of the temporary directional encodings.
func (t BondType) IsStereo() bool {
	return t == BondTypeUp || t == BondTypeDown
}

// ─────────────────────────────────────────────────────────────────────────────
// Parities
// ─────────────────────────────────────────────────────────────────────────────

// AtomParity is the tetrahedral parity of a stereo center.  Odd and Even are
// defined relative to the center's neighbours sorted by ascending atom index,
// with an implicit hydrogen ranking above every real atom.
type AtomParity int

const (
	AtomParityNone AtomParity = iota
	AtomParityOdd
	AtomParityEven
	AtomParityUnknown
)

func (p AtomParity) String() string {
	switch p {
	case AtomParityNone:
		return "none"
	case AtomParityOdd:
		return "odd"
	case AtomParityEven:
		return "even"
	default:
		return "unknown"
	}
}

// BondParity is the cis/trans parity of a double bond, defined relative to
// the lowest-indexed neighbour on each side.
type BondParity int

const (
	BondParityNone BondParity = iota
	BondParityE
	BondParityZ
	BondParityUnknown
)

func (p BondParity) String() string {
	switch p {
	case BondParityNone:
		return "none"
	case BondParityE:
		return "E"
	case BondParityZ:
		return "Z"
	default:
		return "unknown"
	}
}

// RadicalState is the unpaired-electron state of an atom.
type RadicalState int

const (
	RadicalNone RadicalState = iota
	RadicalSinglet
	RadicalDoublet
	RadicalTriplet
)

func (r RadicalState) String() string {
	switch r {
	case RadicalSinglet:
		return "singlet"
	case RadicalDoublet:
		return "doublet"
	case RadicalTriplet:
		return "triplet"
	default:
		return "none"
	}
}

// ValenceCorrection returns how many valence units the radical state removes
// from the hydrogen budget of an atom.
func (r RadicalState) ValenceCorrection() int {
	switch r {
	case RadicalDoublet:
		return 1
	case RadicalSinglet, RadicalTriplet:
		return 2
	default:
		return 0
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// SmartsMode
// ─────────────────────────────────────────────────────────────────────────────

// SmartsMode selects how SMARTS-only syntax is treated by the parser.
type SmartsMode int

const (
	// SmartsModeSMILES rejects every SMARTS token.
	SmartsModeSMILES SmartsMode = iota
	// SmartsModeGuess accepts SMARTS tokens; finding one turns the result
	// into a query fragment.
	SmartsModeGuess
	// SmartsModeSMARTS treats every input as a query fragment.
	SmartsModeSMARTS
)

func (m SmartsMode) String() string {
	switch m {
	case SmartsModeGuess:
		return "guess"
	case SmartsModeSMARTS:
		return "smarts"
	default:
		return "smiles"
	}
}

// ParseSmartsMode converts a configuration string into a SmartsMode.
func ParseSmartsMode(s string) (SmartsMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "smiles":
		return SmartsModeSMILES, nil
	case "guess":
		return SmartsModeGuess, nil
	case "smarts":
		return SmartsModeSMARTS, nil
	default:
		return SmartsModeSMILES, fmt.Errorf("unknown smarts mode %q", s)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Atom query features
// ─────────────────────────────────────────────────────────────────────────────

// AtomQueryFeature is a bitset of substructure-search constraints on an atom.
// Most bits are negative ("not ..."), so that combining constraints is a
// plain bitwise OR.
type AtomQueryFeature uint64

const (
	AtomQFAny AtomQueryFeature = 1 << iota
	AtomQFAromatic
	AtomQFNotAromatic
	AtomQFNotChargeNeg
	AtomQFNotChargePos
	AtomQFNot0Hydrogen
	AtomQFNot1Hydrogen
	AtomQFNot2Hydrogen
	AtomQFNot3Hydrogen
	AtomQFNot0Neighbours
	AtomQFNot1Neighbour
	AtomQFNot2Neighbours
	AtomQFNot3Neighbours
	AtomQFNot4Neighbours
	AtomQFNotChain
	AtomQFNot2RingBonds
	AtomQFNot3RingBonds
	AtomQFNot4RingBonds
)

// AtomQFRingSizeShift positions a 3-bit ring size (3..7) in the bitset.
const AtomQFRingSizeShift = 18

const (
	AtomQFHydrogen   = AtomQFNot0Hydrogen | AtomQFNot1Hydrogen | AtomQFNot2Hydrogen | AtomQFNot3Hydrogen
	AtomQFNeighbours = AtomQFNot0Neighbours | AtomQFNot1Neighbour | AtomQFNot2Neighbours | AtomQFNot3Neighbours | AtomQFNot4Neighbours
	AtomQFRingState  = AtomQFNotChain | AtomQFNot2RingBonds | AtomQFNot3RingBonds | AtomQFNot4RingBonds
	AtomQFRingSize   = AtomQueryFeature(7) << AtomQFRingSizeShift
)

var atomQFNames = []struct {
	bit  AtomQueryFeature
	name string
}{
	{AtomQFAny, "any"},
	{AtomQFAromatic, "aromatic"},
	{AtomQFNotAromatic, "not_aromatic"},
	{AtomQFNotChargeNeg, "not_charge_neg"},
	{AtomQFNotChargePos, "not_charge_pos"},
	{AtomQFNot0Hydrogen, "not_0h"},
	{AtomQFNot1Hydrogen, "not_1h"},
	{AtomQFNot2Hydrogen, "not_2h"},
	{AtomQFNot3Hydrogen, "not_3h"},
	{AtomQFNot0Neighbours, "not_0_neighbours"},
	{AtomQFNot1Neighbour, "not_1_neighbour"},
	{AtomQFNot2Neighbours, "not_2_neighbours"},
	{AtomQFNot3Neighbours, "not_3_neighbours"},
	{AtomQFNot4Neighbours, "not_4_neighbours"},
	{AtomQFNotChain, "not_chain"},
	{AtomQFNot2RingBonds, "not_2_ring_bonds"},
	{AtomQFNot3RingBonds, "not_3_ring_bonds"},
	{AtomQFNot4RingBonds, "not_4_ring_bonds"},
}

// RingSize returns the ring size encoded in the bitset, or 0.
func (f AtomQueryFeature) RingSize() int {
	return int((f & AtomQFRingSize) >> AtomQFRingSizeShift)
}

// Names lists the symbolic names of all set bits.
func (f AtomQueryFeature) Names() []string {
	var names []string
	for _, n := range atomQFNames {
		if f&n.bit != 0 {
			names = append(names, n.name)
		}
	}
	if rs := f.RingSize(); rs != 0 {
		names = append(names, fmt.Sprintf("ring_size_%d", rs))
	}
	return names
}

// ─────────────────────────────────────────────────────────────────────────────
// Bond query features
// ─────────────────────────────────────────────────────────────────────────────

// BondQueryFeature is a bitset of substructure-search constraints on a bond.
type BondQueryFeature uint32

const (
	BondQFSingle BondQueryFeature = 1 << iota
	BondQFDouble
	BondQFTriple
	BondQFDelocalized
	BondQFMetalLigand
	BondQFRing
	BondQFNotRing
)

const (
	BondQFBondTypes = BondQFSingle | BondQFDouble | BondQFTriple | BondQFDelocalized | BondQFMetalLigand
	BondQFRingState = BondQFRing | BondQFNotRing
)

var bondQFNames = []struct {
	bit  BondQueryFeature
	name string
}{
	{BondQFSingle, "single"},
	{BondQFDouble, "double"},
	{BondQFTriple, "triple"},
	{BondQFDelocalized, "delocalized"},
	{BondQFMetalLigand, "metal_ligand"},
	{BondQFRing, "ring"},
	{BondQFNotRing, "not_ring"},
}

// Names lists the symbolic names of all set bits.
func (f BondQueryFeature) Names() []string {
	var names []string
	for _, n := range bondQFNames {
		if f&n.bit != 0 {
			names = append(names, n.name)
		}
	}
	return names
}
