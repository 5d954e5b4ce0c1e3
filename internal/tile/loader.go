package tile

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
)

// Definition is the JSON form of a template. Sides are listed as direction
// letters in E,N,W,S order; wedges as digits 0-7.
type Definition struct {
	ID         string   `json:"id"`
	Count      int      `json:"count"`
	Edges      string   `json:"edges"`
	Sides      []string `json:"sides"`
	Farms      []string `json:"farms"`
	FarmCities []string `json:"farmCities"`
	RoadCenter string   `json:"roadCenter"`
	Pennant    string   `json:"pennant"`
	Cathedral  string   `json:"cathedral"`
	Inn        string   `json:"inn"`
	Bridge     string   `json:"bridge"`
	Content    []string `json:"content"`
}

// TilesetFile is the top-level shape of a tileset JSON document.
type TilesetFile struct {
	Name  string       `json:"name"`
	Tiles []Definition `json:"tiles"`
}

//go:embed base_tiles.json
var baseTileset []byte

func parseSides(s string) (uint8, error) {
	var m uint8
	for i := 0; i < len(s); i++ {
		d, err := geometry.ParseDirection(s[i : i+1])
		if err != nil {
			return 0, err
		}
		m |= d.Mask()
	}
	return m, nil
}

func parseWedges(s string) (uint8, error) {
	var m uint8
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '7' {
			return 0, fmt.Errorf("unknown wedge %q", c)
		}
		m |= 1 << (c - '0')
	}
	return m, nil
}

// Build converts the definition into a validated Template. Sides that
// appear in no group link only to themselves.
func (def Definition) Build() (*Template, error) {
	if len(def.Edges) != 4 {
		return nil, fmt.Errorf("tile %q: expected 4 edges, got %q", def.ID, def.Edges)
	}
	t := &Template{ID: ID(def.ID)}
	for i := 0; i < 4; i++ {
		e, err := ParseEdgeType(def.Edges[i])
		if err != nil {
			return nil, fmt.Errorf("tile %q: %w", def.ID, err)
		}
		t.Edges[i] = e
		t.SideLinks[i] = 1 << i
	}
	for _, group := range def.Sides {
		m, err := parseSides(group)
		if err != nil {
			return nil, fmt.Errorf("tile %q sides: %w", def.ID, err)
		}
		geometry.ForEachBit(m, func(d uint8) { t.SideLinks[d] = m })
	}
	if len(def.FarmCities) > 0 && len(def.FarmCities) != len(def.Farms) {
		return nil, fmt.Errorf("tile %q: farmCities must parallel farms", def.ID)
	}
	for i, group := range def.Farms {
		m, err := parseWedges(group)
		if err != nil {
			return nil, fmt.Errorf("tile %q farms: %w", def.ID, err)
		}
		var cities uint8
		if len(def.FarmCities) > 0 {
			if cities, err = parseSides(def.FarmCities[i]); err != nil {
				return nil, fmt.Errorf("tile %q farmCities: %w", def.ID, err)
			}
		}
		geometry.ForEachBit(m, func(w uint8) {
			t.FarmLinks[w] = m
			t.FarmCities[w] = cities
		})
	}
	masks := []struct {
		src string
		dst *uint8
	}{
		{def.RoadCenter, &t.RoadCenter},
		{def.Pennant, &t.Pennants},
		{def.Cathedral, &t.Cathedral},
		{def.Inn, &t.Inn},
		{def.Bridge, &t.Bridge},
	}
	for _, m := range masks {
		v, err := parseSides(m.src)
		if err != nil {
			return nil, fmt.Errorf("tile %q: %w", def.ID, err)
		}
		*m.dst = v
	}
	for _, c := range def.Content {
		switch c {
		case "cloister":
			t.Content |= ContentCloister
		case "castle":
			t.Content |= ContentGermanCastle
		case "source":
			t.Content |= ContentRiverSource
		case "lake":
			t.Content |= ContentRiverLake
		default:
			return nil, fmt.Errorf("tile %q: unknown content %q", def.ID, c)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseTable builds a Table from tileset JSON.
func ParseTable(data []byte) (*Table, error) {
	var file TilesetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tileset JSON: %w", err)
	}
	templates := make([]*Template, 0, len(file.Tiles))
	counts := make(map[ID]int, len(file.Tiles))
	for _, def := range file.Tiles {
		t, err := def.Build()
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
		counts[t.ID] = def.Count
	}
	table, err := NewTable(templates...)
	if err != nil {
		return nil, err
	}
	table.name = file.Name
	table.counts = counts
	return table, nil
}

// LoadTableFromFile loads a tileset from a JSON file.
func LoadTableFromFile(filepath string) (*Table, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tileset file: %w", err)
	}
	return ParseTable(data)
}

// DefaultTable parses the embedded base tileset.
func DefaultTable() (*Table, error) {
	return ParseTable(baseTileset)
}
