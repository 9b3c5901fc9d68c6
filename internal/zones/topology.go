package zones

import (
	"fmt"
	"sort"
	"strconv"
)

// Position is a marker location in percent of the site-map image.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ZoneEntry maps a zone identifier to its building-adjacency label and map position.
type ZoneEntry struct {
	ID       string   `json:"id"`
	Building string   `json:"building"`
	Position Position `json:"position"`
}

// Topology is the static zone table. It is built once and never mutated.
type Topology struct {
	entries map[string]ZoneEntry
	keys    []string
}

// NewTopology builds a topology from entries. Keys are ordered numerically when both are
// integer strings and lexically otherwise, so "2" sorts before "10".
func NewTopology(entries []ZoneEntry) (*Topology, error) {
	t := &Topology{entries: make(map[string]ZoneEntry, len(entries))}
	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("zone entry with empty id")
		}
		if _, dup := t.entries[e.ID]; dup {
			return nil, fmt.Errorf("duplicate zone %q", e.ID)
		}
		t.entries[e.ID] = e
		t.keys = append(t.keys, e.ID)
	}
	sort.Slice(t.keys, func(i, j int) bool { return zoneLess(t.keys[i], t.keys[j]) })
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustTopology is NewTopology for static tables known to be valid.
func MustTopology(entries []ZoneEntry) *Topology {
	t, err := NewTopology(entries)
	if err != nil {
		panic(err)
	}
	return t
}

func zoneLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	default:
		return a < b
	}
}

// Validate checks every entry has a label and a position inside [0,100].
func (t *Topology) Validate() error {
	for _, id := range t.keys {
		e := t.entries[id]
		if e.Building == "" {
			return fmt.Errorf("zone %s: empty building label", id)
		}
		if e.Position.X < 0 || e.Position.X > 100 || e.Position.Y < 0 || e.Position.Y > 100 {
			return fmt.Errorf("zone %s: position (%v,%v) outside [0,100]", id, e.Position.X, e.Position.Y)
		}
	}
	return nil
}

// Keys returns zone ids in natural key order. The slice is a copy.
func (t *Topology) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

func (t *Topology) Lookup(id string) (ZoneEntry, bool) {
	e, ok := t.entries[id]
	return e, ok
}

func (t *Topology) Has(id string) bool {
	_, ok := t.entries[id]
	return ok
}

func (t *Topology) Len() int {
	return len(t.keys)
}

// Entries returns all zones in key order.
func (t *Topology) Entries() []ZoneEntry {
	out := make([]ZoneEntry, 0, len(t.keys))
	for _, id := range t.keys {
		out = append(out, t.entries[id])
	}
	return out
}

// Label renders the select-option text for a zone, e.g. "ZONE 3 - 102동".
func (t *Topology) Label(id string) string {
	e, ok := t.entries[id]
	if !ok {
		return "ZONE " + id
	}
	return fmt.Sprintf("ZONE %s - %s", id, e.Building)
}

// DefaultTopology is the two-block site layout: block 1 (zones 1-9) on the upper left,
// block 2 (zones 10-18) on the right.
func DefaultTopology() *Topology {
	return MustTopology([]ZoneEntry{
		{ID: "1", Building: "101동", Position: Position{X: 18, Y: 25}},
		{ID: "2", Building: "101-102동 사이", Position: Position{X: 35, Y: 20}},
		{ID: "3", Building: "102동", Position: Position{X: 52, Y: 25}},
		{ID: "4", Building: "101-104동 사이", Position: Position{X: 18, Y: 42}},
		{ID: "5", Building: "1블럭 중앙", Position: Position{X: 35, Y: 42}},
		{ID: "6", Building: "102-103동 사이", Position: Position{X: 52, Y: 42}},
		{ID: "7", Building: "104동", Position: Position{X: 18, Y: 59}},
		{ID: "8", Building: "103-104동 사이", Position: Position{X: 35, Y: 59}},
		{ID: "9", Building: "103동", Position: Position{X: 52, Y: 59}},
		{ID: "10", Building: "201동", Position: Position{X: 73, Y: 25}},
		{ID: "11", Building: "201-202동 사이", Position: Position{X: 82, Y: 25}},
		{ID: "12", Building: "202동", Position: Position{X: 91, Y: 25}},
		{ID: "13", Building: "201-204동 사이", Position: Position{X: 73, Y: 50}},
		{ID: "14", Building: "2블럭 중앙", Position: Position{X: 82, Y: 50}},
		{ID: "15", Building: "202-203동 사이", Position: Position{X: 91, Y: 50}},
		{ID: "16", Building: "204동", Position: Position{X: 73, Y: 75}},
		{ID: "17", Building: "203-204동 사이", Position: Position{X: 82, Y: 75}},
		{ID: "18", Building: "203동", Position: Position{X: 91, Y: 75}},
	})
}
