package tile

import (
	"errors"
	"fmt"

	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
)

var ErrInvalidTemplate = errors.New("invalid tile template")

func invalid(t *Template, format string, args ...interface{}) error {
	return fmt.Errorf("%w %s: %s", ErrInvalidTemplate, t.ID, fmt.Sprintf(format, args...))
}

func (t *Template) sidesOfType(types ...EdgeType) uint8 {
	var m uint8
	for d, e := range t.Edges {
		for _, want := range types {
			if e == want {
				m |= 1 << d
			}
		}
	}
	return m
}

// Validate checks the structural invariants every placed copy relies on:
// link masks describe equivalence classes, farms only run along farmland
// edges, and decorations sit on sides of the matching type.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTemplate)
	}

	for d := range 4 {
		links := t.SideLinks[d]
		if links&(1<<d) == 0 {
			return invalid(t, "side %v does not link to itself", geometry.Direction(d))
		}
		if links > 0x0f {
			return invalid(t, "side %v links outside the tile", geometry.Direction(d))
		}
		for e := range 4 {
			if links&(1<<e) == 0 {
				continue
			}
			if t.SideLinks[e] != links {
				return invalid(t, "side links %v and %v are not symmetric", geometry.Direction(d), geometry.Direction(e))
			}
			if t.Edges[e] != t.Edges[d] {
				return invalid(t, "side %v (%v) linked to side %v (%v)", geometry.Direction(d), t.Edges[d], geometry.Direction(e), t.Edges[e])
			}
		}
	}

	cities := t.sidesOfType(City)
	roads := t.sidesOfType(Road)
	for w := uint8(0); w < geometry.WedgeCount; w++ {
		side := geometry.WedgeSide(w)
		edge := t.Edges[side]
		links := t.FarmLinks[w]
		switch {
		case edge.HasFarm() && links == 0:
			return invalid(t, "wedge %d on %v side has no farm", w, edge)
		case (edge == City || edge == Empty) && links != 0:
			return invalid(t, "wedge %d on %v side carries a farm", w, edge)
		}
		if links == 0 {
			if t.FarmCities[w] != 0 {
				return invalid(t, "wedge %d borders cities without a farm", w)
			}
			continue
		}
		if links&(1<<w) == 0 {
			return invalid(t, "wedge %d does not link to itself", w)
		}
		var bad error
		geometry.ForEachBit(links, func(v uint8) {
			if bad != nil {
				return
			}
			if t.FarmLinks[v] != links {
				bad = invalid(t, "farm links %d and %d are not symmetric", w, v)
			} else if t.FarmCities[v] != t.FarmCities[w] {
				bad = invalid(t, "wedges %d and %d share a farm but not its cities", w, v)
			}
		})
		if bad != nil {
			return bad
		}
		if t.FarmCities[w]&^cities != 0 {
			return invalid(t, "wedge %d borders non-city sides %04b", w, t.FarmCities[w]&^cities)
		}
	}

	if t.RoadCenter&^roads != 0 {
		return invalid(t, "road centre on non-road sides %04b", t.RoadCenter&^roads)
	}
	var centreErr error
	geometry.ForEachBit(t.RoadCenter, func(d uint8) {
		if centreErr == nil && t.SideLinks[d] != 1<<d {
			centreErr = invalid(t, "road on side %v ends at the centre but links onward", geometry.Direction(d))
		}
	})
	if centreErr != nil {
		return centreErr
	}
	if t.Pennants&^cities != 0 || t.Cathedral&^cities != 0 {
		return invalid(t, "pennant or cathedral outside a city")
	}
	if t.Inn&^roads != 0 || t.Bridge&^roads != 0 {
		return invalid(t, "inn or bridge outside a road")
	}
	if t.Content.Has(ContentCloister) && t.Content.Has(ContentGermanCastle) {
		return invalid(t, "cloister and castle on one tile")
	}
	return nil
}
