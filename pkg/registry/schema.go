// pkg/registry/schema.go
package registry

type Catalog struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Scenarios   []Scenario `json:"scenarios"`
}

type Scenario struct {
	ID            string   `json:"id"`
	DisplayName   string   `json:"displayName"`
	Description   string   `json:"description"`
	TaskType      string   `json:"taskType"`
	UsesRetrieval bool     `json:"usesRetrieval"`
	OutputSchema  string   `json:"outputSchema,omitempty"`
	ErrorCodes    []string `json:"errorCodes"`
	Tags          []string `json:"tags"`
}
