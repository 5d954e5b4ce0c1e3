// Package views renders the plain HTML match report served at "/".
package views

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/a-h/templ"

	"github.com/Ko-stant/tilefeature-engine/internal/protocol"
)

func write(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

// IndexPage renders the whole report for one snapshot.
func IndexPage(s protocol.Snapshot) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Match %s</title></head><body>`,
			templ.EscapeString(s.MatchID)); err != nil {
			return err
		}
		if err := write(w, `<h1>Match %s</h1><p>Tileset %s, %d placements, protocol %s</p>`,
			templ.EscapeString(s.MatchID), templ.EscapeString(s.Tileset), s.Placements, templ.EscapeString(s.ProtocolVersion)); err != nil {
			return err
		}
		for _, c := range []templ.Component{ScoreTable(s.Scores, s.Finished), FeatureTable(s.Features), TileList(s.Tiles)} {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		return write(w, `</body></html>`)
	})
}

// ScoreTable lists running totals, highest first.
func ScoreTable(scores map[string]int, final bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		players := make([]string, 0, len(scores))
		for p := range scores {
			players = append(players, p)
		}
		sort.Slice(players, func(i, j int) bool {
			if scores[players[i]] != scores[players[j]] {
				return scores[players[i]] > scores[players[j]]
			}
			return players[i] < players[j]
		})

		title := "Scores"
		if final {
			title = "Final scores"
		}
		if err := write(w, `<h2>%s</h2><table class="scores"><tr><th>Player</th><th>Points</th></tr>`, title); err != nil {
			return err
		}
		for _, p := range players {
			if err := write(w, `<tr><td>%s</td><td>%d</td></tr>`, templ.EscapeString(p), scores[p]); err != nil {
				return err
			}
		}
		return write(w, `</table>`)
	})
}

func FeatureTable(features []protocol.FeatureLite) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<h2>Features</h2><table class="features"><tr><th>ID</th><th>Kind</th><th>State</th><th>Tiles</th><th>Open</th><th>Value</th><th>Held by</th></tr>`); err != nil {
			return err
		}
		for _, f := range features {
			state := f.State
			if f.Retired {
				state += " (scored)"
			}
			holders := ""
			for i, p := range f.Majority {
				if i > 0 {
					holders += ", "
				}
				holders += p
			}
			if err := write(w, `<tr class="%s"><td>%d</td><td>%s</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%s</td></tr>`,
				templ.EscapeString(f.Kind), f.ID, templ.EscapeString(f.Kind), templ.EscapeString(state),
				f.TileCount, f.OpenEdges, f.Value, templ.EscapeString(holders)); err != nil {
				return err
			}
		}
		return write(w, `</table>`)
	})
}

func TileList(tiles []protocol.TileLite) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<h2>Tiles</h2><ol class="tiles">`); err != nil {
			return err
		}
		for _, t := range tiles {
			if err := write(w, `<li>%s at (%d,%d) rotation %d <code>%s</code></li>`,
				templ.EscapeString(t.TemplateID), t.X, t.Y, t.Rotation, templ.EscapeString(t.Edges)); err != nil {
				return err
			}
		}
		return write(w, `</ol>`)
	})
}
