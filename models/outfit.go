package models

// Suggestion priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// OutfitCandidate is a computed outfit recommendation. It is rebuilt on every request.
type OutfitCandidate struct {
	ID           string                  `json:"id"`
	Items        []string                `json:"items"` // Wardrobe item IDs
	Confidence   float64                 `json:"confidence"`
	Occasion     string                  `json:"occasion"`
	Description  string                  `json:"description"`
	StyleNotes   string                  `json:"styleNotes"`
	MissingItems []MissingItemSuggestion `json:"missingItems"`
}

// MissingItemSuggestion describes a category an outfit lacks, with live shop suggestions
type MissingItemSuggestion struct {
	Category          string               `json:"category"`
	SuggestedColor    string               `json:"suggestedColor"`
	Description       string               `json:"description"`
	Priority          string               `json:"priority"`
	PriceRange        PriceRange           `json:"priceRange"`
	AvailableProducts []MarketplaceProduct `json:"availableProducts"`
}

// WardrobeAnalysis summarizes the composition of a wardrobe
type WardrobeAnalysis struct {
	TotalItems     int            `json:"totalItems"`
	CategoryCounts map[string]int `json:"categoryCounts"`
	ColorCounts    map[string]int `json:"colorCounts"`
	Strengths      []string       `json:"strengths"`
	Gaps           []string       `json:"gaps"`
	Suggestions    []string       `json:"suggestions"`
}
