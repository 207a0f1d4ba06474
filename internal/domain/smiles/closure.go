package smiles

import (
	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

const (
	closureChunk    = 16
	maxClosureSlots = 100
)

// closureSlot is one open ring-closure digit.
type closureSlot struct {
	open        bool
	atom        int
	position    int
	hasBondType bool
	bondType    mtypes.BondType
	bondQF      mtypes.BondQueryFeature
}

// closureTable keeps ring-closure slots indexed by closure number.  It grows
// in chunks of closureChunk up to maxClosureSlots.
type closureTable struct {
	slots []closureSlot
}

func (t *closureTable) slot(n, offset int) (*closureSlot, error) {
	if n < 0 || n >= maxClosureSlots {
		return nil, newParseError(KindRingClosure, offset, "ring closure number %d exceeds %d", n, maxClosureSlots-1)
	}
	if n >= len(t.slots) {
		size := (n/closureChunk + 1) * closureChunk
		if size > maxClosureSlots {
			size = maxClosureSlots
		}
		grown := make([]closureSlot, size)
		copy(grown, t.slots)
		t.slots = grown
	}
	return &t.slots[n], nil
}

// firstOpen returns the lowest closure number still waiting for its partner.
func (t *closureTable) firstOpen() (int, *closureSlot) {
	for i := range t.slots {
		if t.slots[i].open {
			return i, &t.slots[i]
		}
	}
	return -1, nil
}

// closureBondType decides the type of the bond closing slot s.  A type written
// at the first digit wins; a directional marker written at the second digit
// is inverted because it refers to the closing atom.
func closureBondType(s *closureSlot, pending mtypes.BondType) mtypes.BondType {
	if s.hasBondType {
		return s.bondType
	}
	switch pending {
	case mtypes.BondTypeUp:
		return mtypes.BondTypeDown
	case mtypes.BondTypeDown:
		return mtypes.BondTypeUp
	}
	return pending
}

// closeRing handles closure number n read at digitPos.
func (st *parseState) closeRing(n, digitPos int) error {
	base := st.base[st.level]
	if base == -1 {
		return newParseError(KindRingClosure, digitPos, "ring closure %d without preceding atom", n)
	}
	s, err := st.closures.slot(n, digitPos)
	if err != nil {
		return err
	}

	if !s.open {
		*s = closureSlot{open: true, atom: base, position: digitPos}
		if st.bondExplicit {
			s.hasBondType = true
			s.bondType = st.bondType
			s.bondQF = st.bondQF
		}
		st.resetBond()
		return nil
	}

	if s.atom == base {
		return newParseError(KindRingClosure, digitPos, "ring closure %d closes on its own atom", n)
	}

	if st.opts.ReadStereoFeatures {
		if p := st.parities[s.atom]; p != nil {
			p.addNeighbour(base, s.position, false)
		}
		if p := st.parities[base]; p != nil {
			p.addNeighbour(s.atom, digitPos, false)
		}
	}

	bt := closureBondType(s, st.bondType)
	if bt == mtypes.BondTypeDeleted {
		bt = mtypes.BondTypeSingle
	}
	qf := st.bondQF
	if s.hasBondType && s.bondQF != 0 {
		qf = s.bondQF
	}
	if err := st.addBond(s.atom, base, bt, qf, digitPos); err != nil {
		return err
	}
	*s = closureSlot{}
	st.resetBond()
	return nil
}
