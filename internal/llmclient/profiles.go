package llmclient

// Profiles holds the two named model profiles the orchestrator uses:
// planner drives Plan and Coverage, drafter drives Draft. Separating
// them lets an operator point each at a different model without the
// stage code caring which.
type Profiles struct {
	Planner *Client
	Drafter *Client
}

// NewProfiles builds both clients from the given API key and per-profile
// model names.
func NewProfiles(apiKey, baseURL, plannerModel, drafterModel string) (*Profiles, error) {
	plannerCfg := DefaultConfig(apiKey, plannerModel)
	plannerCfg.BaseURL = baseURL
	planner, err := NewClient(plannerCfg)
	if err != nil {
		return nil, err
	}

	drafterCfg := DefaultConfig(apiKey, drafterModel)
	drafterCfg.BaseURL = baseURL
	drafter, err := NewClient(drafterCfg)
	if err != nil {
		return nil, err
	}

	return &Profiles{Planner: planner, Drafter: drafter}, nil
}
