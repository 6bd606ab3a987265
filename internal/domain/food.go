package domain

import "context"

// FoodCandidate is a food record returned by a provider search. It is never
// persisted. Numeric fields the provider omits are zero.
type FoodCandidate struct {
	Name               string  `json:"name"`
	ServingUnit        string  `json:"servingUnit"`
	ServingWeightGrams float64 `json:"servingWeightGrams"`
	Calories           float64 `json:"calories"`
	SaturatedFat       float64 `json:"saturatedFat"`
	Sugar              float64 `json:"sugar"`
	Protein            float64 `json:"protein"`
}

// Nutrients returns the four scoring inputs carried by the candidate.
func (c FoodCandidate) Nutrients() Nutrients {
	return Nutrients{
		Calories:     c.Calories,
		SaturatedFat: c.SaturatedFat,
		Sugar:        c.Sugar,
		Protein:      c.Protein,
	}
}

// Nutrients holds the editable scoring inputs.
type Nutrients struct {
	Calories     float64 `json:"calories"`
	SaturatedFat float64 `json:"saturatedFat"`
	Sugar        float64 `json:"sugar"`
	Protein      float64 `json:"protein"`
}

// FoodProvider is the port for free-text food lookups against an external
// nutrition database.
type FoodProvider interface {
	Lookup(ctx context.Context, query string) ([]FoodCandidate, error)
}
