package protocol

type TileLite struct {
	TemplateID string `json:"templateId"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Rotation   int    `json:"rotation"`
	Edges      string `json:"edges"`
}

type TokenLite struct {
	ID     string `json:"id"`
	Player string `json:"player"`
	Kind   string `json:"kind"`
}

type FeatureLite struct {
	ID        int         `json:"id"`
	Kind      string      `json:"kind"`
	State     string      `json:"state"`
	Retired   bool        `json:"retired"`
	OpenEdges int         `json:"openEdges"`
	TileCount int         `json:"tileCount"`
	Value     int         `json:"value"`
	Occupants []TokenLite `json:"occupants,omitempty"`
	Majority  []string    `json:"majority,omitempty"`
}

type Snapshot struct {
	MatchID         string         `json:"matchId"`
	Tileset         string         `json:"tileset"`
	Placements      int            `json:"placements"`
	Tiles           []TileLite     `json:"tiles"`
	Features        []FeatureLite  `json:"features"`
	Scores          map[string]int `json:"scores"`
	Finished        bool           `json:"finished"`
	Variables       map[string]any `json:"variables"`
	ProtocolVersion string         `json:"protocolVersion"`
}
