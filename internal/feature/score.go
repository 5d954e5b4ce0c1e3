package feature

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

const FarmPointsPerCity = 3

// Award is the points one player receives from one feature.
type Award struct {
	Player PlayerID `json:"player"`
	Points int      `json:"points"`
}

// Scoring records one scored feature.
type Scoring struct {
	Feature  ID      `json:"feature"`
	Kind     Kind    `json:"kind"`
	Value    int     `json:"value"`
	Awards   []Award `json:"awards"`
	Returned []Token `json:"returned"`
}

// completedCities resolves a farm's raw city list to distinct, complete, live cities.
func (e *Engine) completedCities(p *FarmPayload) ([]ID, error) {
	var out []ID
	for _, id := range p.Cities {
		city, err := e.Resolve(id)
		if err != nil {
			return nil, err
		}
		if city.IsComplete() && !lo.Contains(out, city.id) {
			out = append(out, city.id)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Value is the feature's worth in its current state. Incomplete features
// are valued as at game end.
func (e *Engine) Value(id ID) (int, error) {
	f, err := e.Get(id)
	if err != nil {
		return 0, err
	}
	return e.value(f)
}

func (e *Engine) value(f *Feature) (int, error) {
	n := len(f.tiles)
	complete := f.IsComplete()
	switch p := f.payload.(type) {
	case *CityPayload:
		per := 1
		if complete {
			per = 2
		}
		v := per * (n + p.Pennants)
		if p.Cathedral {
			if !complete {
				return 0, nil
			}
			v *= 2
		}
		return v, nil
	case *RoadPayload:
		if p.Inn {
			if !complete {
				return 0, nil
			}
			return 2 * n, nil
		}
		return n, nil
	case *FarmPayload:
		cities, err := e.completedCities(p)
		if err != nil {
			return 0, err
		}
		return FarmPointsPerCity * len(cities), nil
	case *CloisterPayload:
		return p.Neighbors + 1, nil
	case *CastlePayload:
		return p.Neighbors + 1, nil
	default:
		return 0, e.fail(fmt.Errorf("feature: unhandled payload %T", p))
	}
}

// Majority returns the players with the highest summed control weight,
// sorted. A feature with no weighted tokens has no majority.
func (f *Feature) Majority() []PlayerID {
	weights := make(map[PlayerID]int)
	for _, tok := range f.occupants {
		weights[tok.Player] += tok.Kind.ControlWeight()
	}
	best := lo.Max(lo.Values(weights))
	if best <= 0 {
		return nil
	}
	winners := lo.Filter(lo.Keys(weights), func(p PlayerID, _ int) bool { return weights[p] == best })
	slices.Sort(winners)
	return winners
}

// Score computes the awards for id without retiring it. Tied majority
// holders each receive the full value.
func (e *Engine) Score(id ID) ([]Award, error) {
	f, err := e.Get(id)
	if err != nil {
		return nil, err
	}
	return e.score(f)
}

func (e *Engine) score(f *Feature) ([]Award, error) {
	winners := f.Majority()
	if len(winners) == 0 {
		return nil, nil
	}
	v, err := e.value(f)
	if err != nil {
		return nil, err
	}
	bonus := 0
	if p, ok := f.payload.(*FarmPayload); ok {
		cities, err := e.completedCities(p)
		if err != nil {
			return nil, err
		}
		bonus = len(cities)
	}
	awards := make([]Award, 0, len(winners))
	for _, player := range winners {
		pts := v
		if bonus > 0 && slices.ContainsFunc(f.occupants, func(t Token) bool { return t.Player == player && t.Kind == Pig }) {
			pts += bonus
		}
		awards = append(awards, Award{Player: player, Points: pts})
	}
	return awards, nil
}

// retire scores f, returns its tokens and marks it permanently scored.
func (e *Engine) retire(f *Feature) (Scoring, error) {
	v, err := e.value(f)
	if err != nil {
		return Scoring{}, err
	}
	awards, err := e.score(f)
	if err != nil {
		return Scoring{}, err
	}
	s := Scoring{Feature: f.id, Kind: f.kind, Value: v, Awards: awards, Returned: f.occupants}
	f.occupants = nil
	f.retired = true
	return s, nil
}

// ScoreCompleted scores and retires the given features if they are complete.
// Ids from earlier turns are resolved through merges first.
func (e *Engine) ScoreCompleted(ids []ID) ([]Scoring, error) {
	var out []Scoring
	seen := make(map[ID]struct{})
	for _, id := range ids {
		f, err := e.Resolve(id)
		if err != nil {
			return out, err
		}
		if _, dup := seen[f.id]; dup || !f.IsComplete() || f.retired {
			continue
		}
		seen[f.id] = struct{}{}
		// Farms are only ever scored at game end.
		if f.kind == Farm {
			continue
		}
		s, err := e.retire(f)
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

// FinalScore scores and retires every live feature not yet scored. Farms
// go last so they see the final state of their cities.
func (e *Engine) FinalScore() ([]Scoring, error) {
	live := lo.Filter(e.table.Live(), func(f *Feature, _ int) bool { return !f.retired })
	slices.SortStableFunc(live, func(a, b *Feature) int {
		fa, fb := a.kind == Farm, b.kind == Farm
		switch {
		case fa == fb:
			return 0
		case fb:
			return -1
		}
		return 1
	})
	out := make([]Scoring, 0, len(live))
	for _, f := range live {
		s, err := e.retire(f)
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Totals sums awards per player.
func Totals(scorings []Scoring) map[PlayerID]int {
	out := make(map[PlayerID]int)
	for _, s := range scorings {
		for _, a := range s.Awards {
			out[a.Player] += a.Points
		}
	}
	return out
}
