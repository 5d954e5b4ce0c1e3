package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Ko-stant/tilefeature-engine/internal/protocol"
)

func TestIndexPage_RendersAndEscapes(t *testing.T) {
	s := protocol.Snapshot{
		MatchID:    "m-1",
		Tileset:    "base",
		Placements: 2,
		Tiles:      []protocol.TileLite{{TemplateID: "start", Edges: "RCRF"}},
		Features: []protocol.FeatureLite{
			{ID: 1, Kind: "city", State: "complete", Retired: true, TileCount: 2, Value: 4, Majority: []string{"<script>"}},
		},
		Scores:          map[string]int{"alice": 4, "bob": 9},
		ProtocolVersion: "v1",
	}

	var buf bytes.Buffer
	if err := IndexPage(s).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	html := buf.String()

	for _, want := range []string{"Match m-1", "complete (scored)", "RCRF", "&lt;script&gt;"} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected %q in output", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("Player names must be escaped")
	}
	if strings.Index(html, "bob") > strings.Index(html, "alice") {
		t.Errorf("Scores should be sorted highest first")
	}
}
