package molecule

import (
	"sort"
	"strconv"
	"strings"
)

const (
	// MaxSmallRingSize is the largest ring enumerated exhaustively.
	MaxSmallRingSize = 7
	// MaxLargeRingSize bounds the search for rings through bonds that are not
	// part of any small ring.
	MaxLargeRingSize = 64
)

// Ring is a cycle of atoms.  Bonds[i] connects Atoms[i] and
// Atoms[(i+1)%len(Atoms)].
type Ring struct {
	Atoms []int
	Bonds []int
}

// Size returns the number of ring atoms.
func (r Ring) Size() int { return len(r.Atoms) }

// RingCollection holds every ring of size 3..MaxSmallRingSize and, for ring
// bonds outside all of those, the smallest ring through the bond.  Only
// non-hydrogen atoms are considered.
type RingCollection struct {
	rings          []Ring
	smallRings     int
	isRingBond     []bool
	isSmallRing    []bool
	bondRingSize   []int
	atomRingCounts []int
}

// RingSet returns the ring collection, perceiving rings if necessary.
func (m *Molecule) RingSet() *RingCollection {
	m.EnsureHelperArrays(HelperRings)
	return m.rings
}

// IsRingBond reports whether a bond is part of any cycle.
func (m *Molecule) IsRingBond(b int) bool {
	rs := m.RingSet()
	return b < len(rs.isRingBond) && rs.isRingBond[b]
}

// IsSmallRingBond reports whether a bond belongs to a ring of at most
// MaxSmallRingSize atoms.
func (m *Molecule) IsSmallRingBond(b int) bool {
	rs := m.RingSet()
	return b < len(rs.isSmallRing) && rs.isSmallRing[b]
}

// BondRingSize returns the size of the smallest collected ring containing b,
// or 0.
func (m *Molecule) BondRingSize(b int) int {
	rs := m.RingSet()
	if b >= len(rs.bondRingSize) {
		return 0
	}
	return rs.bondRingSize[b]
}

// Size returns the number of collected rings.
func (rc *RingCollection) Size() int { return len(rc.rings) }

// SmallRings returns the number of rings of size 3..MaxSmallRingSize.
func (rc *RingCollection) SmallRings() int { return rc.smallRings }

// Ring returns ring i.
func (rc *RingCollection) Ring(i int) Ring { return rc.rings[i] }

// RingAtoms returns the atoms of ring i in cycle order.
func (rc *RingCollection) RingAtoms(i int) []int { return rc.rings[i].Atoms }

// RingBonds returns the bonds of ring i in cycle order.
func (rc *RingCollection) RingBonds(i int) []int { return rc.rings[i].Bonds }

// RingSize returns the size of ring i.
func (rc *RingCollection) RingSize(i int) int { return len(rc.rings[i].Atoms) }

// BondRingSize returns the smallest collected ring size of a bond, or 0.
func (rc *RingCollection) BondRingSize(b int) int {
	if b >= len(rc.bondRingSize) {
		return 0
	}
	return rc.bondRingSize[b]
}

// AtomRingCount returns the number of collected rings containing an atom.
func (rc *RingCollection) AtomRingCount(a int) int {
	if a >= len(rc.atomRingCounts) {
		return 0
	}
	return rc.atomRingCounts[a]
}

// ─────────────────────────────────────────────────────────────────────────────
// Perception
// ─────────────────────────────────────────────────────────────────────────────

type ringFinder struct {
	mol   *Molecule
	atoms int
	bonds int
	seen  map[string]bool
	rc    *RingCollection
}

func newRingCollection(m *Molecule) *RingCollection {
	f := &ringFinder{
		mol:   m,
		atoms: m.heavyAtoms,
		bonds: m.heavyBonds,
		seen:  make(map[string]bool),
		rc: &RingCollection{
			isRingBond:     make([]bool, m.heavyBonds),
			isSmallRing:    make([]bool, m.heavyBonds),
			bondRingSize:   make([]int, m.heavyBonds),
			atomRingCounts: make([]int, m.heavyAtoms),
		},
	}

	paths := make([][]int, f.bonds)
	for b := 0; b < f.bonds; b++ {
		paths[b] = f.shortestPathAvoiding(b, f.atoms)
		f.rc.isRingBond[b] = paths[b] != nil
	}

	f.findSmallRings()
	f.rc.smallRings = len(f.rc.rings)

	for b := 0; b < f.bonds; b++ {
		if !f.rc.isRingBond[b] || f.rc.bondRingSize[b] != 0 {
			continue
		}
		if len(paths[b]) < 3 || len(paths[b]) > MaxLargeRingSize {
			continue
		}
		f.addRing(paths[b], false)
	}
	return f.rc
}

func (f *ringFinder) heavyNeighbours(a int) []neighbour {
	var out []neighbour
	for _, n := range f.mol.conn[a] {
		if n.atom < f.atoms && n.bond < f.bonds {
			out = append(out, n)
		}
	}
	return out
}

// shortestPathAvoiding returns the atoms of the shortest path from bond atom 0
// to bond atom 1 that does not use the bond itself, or nil.
func (f *ringFinder) shortestPathAvoiding(b, limit int) []int {
	from := f.mol.bonds[b].atoms[0]
	to := f.mol.bonds[b].atoms[1]
	parent := make([]int, f.atoms)
	for i := range parent {
		parent[i] = -2
	}
	parent[from] = -1
	queue := []int{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range f.heavyNeighbours(cur) {
			if n.bond == b || parent[n.atom] != -2 {
				continue
			}
			parent[n.atom] = cur
			if n.atom == to {
				var path []int
				for a := to; a != -1; a = parent[a] {
					path = append(path, a)
				}
				if len(path) > limit {
					return nil
				}
				return path
			}
			queue = append(queue, n.atom)
		}
	}
	return nil
}

// findSmallRings enumerates every simple cycle of up to MaxSmallRingSize
// atoms.  Each cycle is reported once, starting at its lowest atom.
func (f *ringFinder) findSmallRings() {
	onPath := make([]bool, f.atoms)
	var path []int
	var extend func(start, cur int)
	extend = func(start, cur int) {
		for _, n := range f.heavyNeighbours(cur) {
			if !f.rc.isRingBond[n.bond] {
				continue
			}
			if n.atom == start && len(path) >= 3 && path[1] < path[len(path)-1] {
				f.addRing(path, true)
				continue
			}
			if n.atom <= start || onPath[n.atom] || len(path) == MaxSmallRingSize {
				continue
			}
			onPath[n.atom] = true
			path = append(path, n.atom)
			extend(start, n.atom)
			path = path[:len(path)-1]
			onPath[n.atom] = false
		}
	}
	for s := 0; s < f.atoms; s++ {
		onPath[s] = true
		path = append(path[:0], s)
		extend(s, s)
		onPath[s] = false
	}
}

func (f *ringFinder) addRing(atoms []int, small bool) {
	ring := Ring{Atoms: append([]int(nil), atoms...)}
	for i, a := range ring.Atoms {
		next := ring.Atoms[(i+1)%len(ring.Atoms)]
		ring.Bonds = append(ring.Bonds, f.bondBetween(a, next))
	}

	key := ringKey(ring.Bonds)
	if f.seen[key] {
		return
	}
	f.seen[key] = true

	size := len(ring.Atoms)
	for _, b := range ring.Bonds {
		if small {
			f.rc.isSmallRing[b] = true
		}
		if f.rc.bondRingSize[b] == 0 || size < f.rc.bondRingSize[b] {
			f.rc.bondRingSize[b] = size
		}
	}
	for _, a := range ring.Atoms {
		f.rc.atomRingCounts[a]++
	}
	f.rc.rings = append(f.rc.rings, ring)
}

func (f *ringFinder) bondBetween(a1, a2 int) int {
	for _, n := range f.mol.conn[a1] {
		if n.atom == a2 && n.bond < f.bonds {
			return n.bond
		}
	}
	return -1
}

func ringKey(bonds []int) string {
	sorted := append([]int(nil), bonds...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, b := range sorted {
		parts[i] = strconv.Itoa(b)
	}
	return strings.Join(parts, ",")
}
