package models

// Scenario selects which handler processes a brief.
type Scenario string

const (
	ScenarioQualify  Scenario = "qualify"
	ScenarioProposal Scenario = "proposal"
	ScenarioPricing  Scenario = "pricing"
)

// Scenarios lists every supported scenario in dispatch order.
func Scenarios() []Scenario {
	return []Scenario{ScenarioQualify, ScenarioProposal, ScenarioPricing}
}

// IsValid reports whether s is a supported scenario (exact match).
func (s Scenario) IsValid() bool {
	switch s {
	case ScenarioQualify, ScenarioProposal, ScenarioPricing:
		return true
	}
	return false
}

// MVPRequest is the request envelope for POST /api/mvp/run.
type MVPRequest struct {
	SessionID *string  `json:"session_id,omitempty"`
	Scenario  Scenario `json:"scenario"`
	Brief     string   `json:"brief"`
}

// MVPResponse is the response envelope. Data is always a JSON object.
type MVPResponse struct {
	SessionID *string                `json:"session_id,omitempty"`
	Scenario  Scenario               `json:"scenario"`
	Summary   string                 `json:"summary"`
	Data      map[string]interface{} `json:"data"`
}

// RunResult is what a scenario handler returns before normalization.
type RunResult struct {
	Summary string
	Data    interface{}
}

// NewResponse wraps a handler result into the response envelope.
func NewResponse(req MVPRequest, result *RunResult) (*MVPResponse, error) {
	data, err := NormalizeData(result.Data)
	if err != nil {
		return nil, err
	}
	return &MVPResponse{
		SessionID: req.SessionID,
		Scenario:  req.Scenario,
		Summary:   result.Summary,
		Data:      data,
	}, nil
}
