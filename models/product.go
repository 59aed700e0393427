package models

// MarketplaceProduct is a normalized product listing from one of the catalog sources.
// It is never persisted.
type MarketplaceProduct struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Color    string  `json:"color,omitempty"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageUrl"`
	URL      string  `json:"url"`
	Source   string  `json:"source"`
	Brand    string  `json:"brand,omitempty"`
	Rating   float64 `json:"rating"`
}

// PriceRange bounds a product search. A zero Max means no upper bound.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether price falls inside the range
func (p PriceRange) Contains(price float64) bool {
	if price < p.Min {
		return false
	}
	if p.Max > 0 && price > p.Max {
		return false
	}
	return true
}
