package main

import (
	"slices"

	"github.com/Ko-stant/tilefeature-engine/internal/feature"
	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
	"github.com/Ko-stant/tilefeature-engine/internal/protocol"
	"github.com/Ko-stant/tilefeature-engine/internal/tile"
	"github.com/Ko-stant/tilefeature-engine/internal/world"
)

const ProtocolVersion = "v1"

// worldEdges spells a placed tile's edges in world E,N,W,S order.
func worldEdges(tpl *tile.Template, r geometry.Rotation) string {
	out := make([]byte, 0, 4)
	for _, d := range geometry.Directions {
		out = append(out, tpl.EdgeAt(d, r).Letter())
	}
	return string(out)
}

func tokenLite(t feature.Token) protocol.TokenLite {
	return protocol.TokenLite{ID: t.ID, Player: string(t.Player), Kind: t.Kind.String()}
}

func tokensLite(ts []feature.Token) []protocol.TokenLite {
	if len(ts) == 0 {
		return nil
	}
	out := make([]protocol.TokenLite, 0, len(ts))
	for _, t := range ts {
		out = append(out, tokenLite(t))
	}
	return out
}

func featureLite(v world.FeatureView) protocol.FeatureLite {
	majority := make([]string, 0, len(v.Majority))
	for _, p := range v.Majority {
		majority = append(majority, string(p))
	}
	return protocol.FeatureLite{
		ID:        int(v.ID),
		Kind:      v.Kind,
		State:     v.State,
		Retired:   v.Retired,
		OpenEdges: v.OpenEdges,
		TileCount: len(v.Tiles),
		Value:     v.Value,
		Occupants: tokensLite(v.Occupants),
		Majority:  majority,
	}
}

func scoringsLite(scored []feature.Scoring) []protocol.ScoringLite {
	out := make([]protocol.ScoringLite, 0, len(scored))
	for _, s := range scored {
		awards := make([]protocol.AwardLite, 0, len(s.Awards))
		for _, a := range s.Awards {
			awards = append(awards, protocol.AwardLite{Player: string(a.Player), Points: a.Points})
		}
		out = append(out, protocol.ScoringLite{
			FeatureID: int(s.Feature),
			Kind:      s.Kind.String(),
			Value:     s.Value,
			Awards:    awards,
			Returned:  tokensLite(s.Returned),
		})
	}
	return out
}

func scoresLite(scores map[feature.PlayerID]int) map[string]int {
	out := make(map[string]int, len(scores))
	for p, pts := range scores {
		out[string(p)] = pts
	}
	return out
}

func featureIDs(ids []feature.ID) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		out = append(out, int(id))
	}
	return out
}

// BuildSnapshot captures the full match state for a newly connected client
// or the HTML report.
func BuildSnapshot(engine MatchEngine, matchID string) (protocol.Snapshot, error) {
	table := engine.Tiles()
	placements := engine.Placements()
	tiles := make([]protocol.TileLite, 0, len(placements))
	for _, p := range placements {
		edges := ""
		if tpl, ok := table.Get(p.Template); ok {
			edges = worldEdges(tpl, p.Rotation)
		}
		tiles = append(tiles, protocol.TileLite{
			TemplateID: string(p.Template),
			X:          p.Coord.X,
			Y:          p.Coord.Y,
			Rotation:   int(p.Rotation),
			Edges:      edges,
		})
	}

	views, err := engine.Features()
	if err != nil {
		return protocol.Snapshot{}, err
	}
	features := make([]protocol.FeatureLite, 0, len(views))
	for _, v := range views {
		features = append(features, featureLite(v))
	}
	slices.SortFunc(features, func(a, b protocol.FeatureLite) int { return a.ID - b.ID })

	return protocol.Snapshot{
		MatchID:         matchID,
		Tileset:         table.Name(),
		Placements:      len(placements),
		Tiles:           tiles,
		Features:        features,
		Scores:          scoresLite(engine.Scores()),
		Finished:        engine.Finished(),
		Variables:       map[string]any{"tilesetSize": table.Len()},
		ProtocolVersion: ProtocolVersion,
	}, nil
}
