package models

// MatchTier identifies which search strategy produced a candidate
type MatchTier string

const (
	TierExact     MatchTier = "exact"
	TierWholeWord MatchTier = "whole_word"
	TierFuzzy     MatchTier = "fuzzy"
)

// MatchCandidate is a catalog food with the score it was found with
type MatchCandidate struct {
	Food  Food      `json:"food"`
	Score float64   `json:"score"`
	Tier  MatchTier `json:"tier"`
}

// ResolutionStatus is the outcome of resolving one item
type ResolutionStatus string

const (
	StatusMatched         ResolutionStatus = "matched"
	StatusAmbiguous       ResolutionStatus = "ambiguous"
	StatusNoMatch         ResolutionStatus = "no_match"
	StatusMissingQuantity ResolutionStatus = "missing_quantity"
)

// Nutrition holds absolute nutrition values for an amount of food.
// Optional macros stay nil when unknown so they never count as zero.
type Nutrition struct {
	Kcal    float64  `json:"kcal"`
	Protein *float64 `json:"proteine,omitempty"`
	Fats    *float64 `json:"fats,omitempty"`
	Sugar   *float64 `json:"sugar,omitempty"`
}

// ExtractedItem is one food mention produced by the upstream text extraction.
// Every numeric field is untrusted and must go through sanitization.
type ExtractedItem struct {
	Name               string      `json:"name"`
	Type               *MealType   `json:"type,omitempty"`
	PortionDescription *string     `json:"portion_description,omitempty"`
	Grams              LooseNumber `json:"grams"`
	Quantity           LooseNumber `json:"quantity"`
	EstimatedKcal      LooseNumber `json:"estimated_kcal"`
	EstimatedProtein   LooseNumber `json:"estimated_proteine"`
	EstimatedFats      LooseNumber `json:"estimated_fats"`
	EstimatedSugar     LooseNumber `json:"estimated_sugar"`
}

// Resolution is the result of resolving one extracted item against the catalog
type Resolution struct {
	Input      string           `json:"input"`
	SearchName string           `json:"search_name"`
	Status     ResolutionStatus `json:"status"`
	Food       *Food            `json:"food,omitempty"`
	Score      float64          `json:"score,omitempty"`
	Candidates []MatchCandidate `json:"candidates,omitempty"`
	Quantity   *float64         `json:"quantity,omitempty"`
	Grams      *float64         `json:"grams,omitempty"`
	Nutrition  *Nutrition       `json:"nutrition,omitempty"`
	// Estimate carries the upstream figures for no_match results
	Estimate *Nutrition `json:"estimate,omitempty"`
}

// ResolveRequest is the request body for resolving a batch of extracted items
type ResolveRequest struct {
	Items []ExtractedItem `json:"items" validate:"required,min=1,max=50,dive"`
}

// ResolveResponse is returned for a resolved batch
type ResolveResponse struct {
	RequestID   string       `json:"request_id"`
	Resolutions []Resolution `json:"resolutions"`
}

// ResolveAndLogResponse is returned when resolved items are also logged
type ResolveAndLogResponse struct {
	RequestID   string       `json:"request_id"`
	Resolutions []Resolution `json:"resolutions"`
	Logged      []DailyEntry `json:"logged"`
}
