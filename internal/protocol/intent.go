package protocol

import "encoding/json"

type IntentEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Rotation is in counter-clockwise quarter turns, 0-3.
type RequestPlaceTile struct {
	TemplateID string `json:"templateId"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Rotation   int    `json:"rotation"`
}

type RequestPossiblePositions struct {
	TemplateID string `json:"templateId"`
}

// Slot is "side", "farm" or "center"; Index is the world side (0-3) or
// farm wedge (0-7).
type RequestDeployToken struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Slot    string `json:"slot"`
	Index   int    `json:"index"`
	TokenID string `json:"tokenId"`
	Player  string `json:"player"`
	Kind    string `json:"kind"`
}

type RequestWithdrawToken struct {
	FeatureID int    `json:"featureId"`
	TokenID   string `json:"tokenId"`
}

type RequestScoreCompleted struct {
	FeatureIDs []int `json:"featureIds"`
}

type RequestFinalScore struct {
}

type RequestFeature struct {
	FeatureID int `json:"featureId"`
}
