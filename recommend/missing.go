package recommend

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/raushankrgupta/wardrobe-stylist/models"
)

// productsPerSuggestion caps the live products attached to one suggestion
const productsPerSuggestion = 3

// maxConcurrentLookups bounds in-flight marketplace lookups per request
const maxConcurrentLookups = 5

// ProductQuery describes a marketplace lookup for a missing item
type ProductQuery struct {
	Category   string
	Color      string
	PriceRange models.PriceRange
	Limit      int
}

// ProductFinder looks up products for a missing item suggestion
type ProductFinder interface {
	FindProducts(ctx context.Context, q ProductQuery) ([]models.MarketplaceProduct, error)
}

// missingItems lists what the look lacks for its occasion and style
func (r *Rules) missingItems(c *candidate, profile Profile, occasion string) []models.MissingItemSuggestion {
	var out []models.MissingItemSuggestion
	anchor := ""
	if len(c.base) > 0 {
		anchor = c.base[0].Color
	}
	if !hasCategory(c.items, models.CategoryFootwear) {
		color := r.complementOf(anchor)
		out = append(out, models.MissingItemSuggestion{
			Category:       models.CategoryFootwear,
			SuggestedColor: color,
			Description:    strings.ToLower(color) + " shoes to complete the outfit",
			Priority:       models.PriorityHigh,
			PriceRange:     models.PriceRange{Min: 30, Max: 120},
		})
	}
	if !hasCategory(c.items, models.CategoryAccessories) && !strings.EqualFold(profile.PreferredStyle, "Minimalist") {
		color := r.complementOf(c.base[len(c.base)-1].Color)
		out = append(out, models.MissingItemSuggestion{
			Category:       models.CategoryAccessories,
			SuggestedColor: color,
			Description:    "a " + strings.ToLower(color) + " accessory to add personality",
			Priority:       models.PriorityMedium,
			PriceRange:     models.PriceRange{Min: 15, Max: 60},
		})
	}
	if r.isLayeringOccasion(occasion) && !hasCategory(c.items, models.CategoryOuterwear) {
		out = append(out, models.MissingItemSuggestion{
			Category:       models.CategoryOuterwear,
			SuggestedColor: "Black",
			Description:    "a black blazer or jacket for a polished " + strings.ToLower(occasion) + " look",
			Priority:       models.PriorityHigh,
			PriceRange:     models.PriceRange{Min: 50, Max: 200},
		})
	}
	for i := range out {
		out[i].AvailableProducts = []models.MarketplaceProduct{}
	}
	return out
}

// fillProducts runs one marketplace lookup per suggestion concurrently.
// A failed lookup leaves that suggestion with an empty product list.
func (e *Engine) fillProducts(ctx context.Context, outfits []models.OutfitCandidate) {
	if e.products == nil {
		return
	}
	var g errgroup.Group
	g.SetLimit(maxConcurrentLookups)

	for i := range outfits {
		for j := range outfits[i].MissingItems {
			s := &outfits[i].MissingItems[j]
			g.Go(func() error {
				products, err := e.products.FindProducts(ctx, ProductQuery{
					Category:   s.Category,
					Color:      s.SuggestedColor,
					PriceRange: s.PriceRange,
					Limit:      productsPerSuggestion,
				})
				if err != nil {
					e.log.Warnw("Missing item lookup failed", "category", s.Category, "error", err)
					return nil
				}
				if len(products) > productsPerSuggestion {
					products = products[:productsPerSuggestion]
				}
				if products != nil {
					s.AvailableProducts = products
				}
				return nil
			})
		}
	}
	_ = g.Wait()
}
