package protocol

type PatchEnvelope struct {
	Sequence uint64 `json:"seq"`
	EventID  int64  `json:"eventId"`
	Type     string `json:"type"`
	Payload  any    `json:"payload"`
}

type VariablesChanged struct {
	Entries map[string]any `json:"entries"`
}

type TilePlaced struct {
	Sequence   int    `json:"sequence"`
	TemplateID string `json:"templateId"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Rotation   int    `json:"rotation"`
	Touched    []int  `json:"touched"`
	Merged     int    `json:"merged"`
}

type FeaturesCompleted struct {
	IDs []int `json:"ids"`
}

type AwardLite struct {
	Player string `json:"player"`
	Points int    `json:"points"`
}

type ScoringLite struct {
	FeatureID int         `json:"featureId"`
	Kind      string      `json:"kind"`
	Value     int         `json:"value"`
	Awards    []AwardLite `json:"awards"`
	Returned  []TokenLite `json:"returned,omitempty"`
}

type FeaturesScored struct {
	Final    bool           `json:"final"`
	Scorings []ScoringLite  `json:"scorings"`
	Totals   map[string]int `json:"totals"`
}

type PositionLite struct {
	X        int `json:"x"`
	Y        int `json:"y"`
	Rotation int `json:"rotation"`
}

type PossiblePositions struct {
	TemplateID string         `json:"templateId"`
	Positions  []PositionLite `json:"positions"`
}

type TokenDeployed struct {
	FeatureID int       `json:"featureId"`
	Token     TokenLite `json:"token"`
}

type TokenWithdrawn struct {
	FeatureID int       `json:"featureId"`
	Token     TokenLite `json:"token"`
}

type FeatureDetails struct {
	Feature FeatureLite `json:"feature"`
}

// IntentRejected tells clients why an intent was refused. Code matches the
// server's error codes.
type IntentRejected struct {
	Intent  string `json:"intent"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
