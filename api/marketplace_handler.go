package api

import (
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/raushankrgupta/wardrobe-stylist/apierr"
	"github.com/raushankrgupta/wardrobe-stylist/marketplace"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/raushankrgupta/wardrobe-stylist/recommend"
	"github.com/raushankrgupta/wardrobe-stylist/utils"
)

const shoppingListProducts = 4

// ProductsResponse is a marketplace product listing
type ProductsResponse struct {
	Products []models.MarketplaceProduct `json:"products"`
	Total    int                         `json:"total"`
}

// ShoppingListEntry is one wardrobe gap with products that fill it
type ShoppingListEntry struct {
	Category string                      `json:"category"`
	Reason   string                      `json:"reason"`
	Products []models.MarketplaceProduct `json:"products"`
}

// ShoppingListResponse is the body of the shopping list endpoint
type ShoppingListResponse struct {
	ShoppingList     []ShoppingListEntry     `json:"shoppingList"`
	WardrobeAnalysis models.WardrobeAnalysis `json:"wardrobeAnalysis"`
}

func (s *Server) handleMarketplace(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Marketplace")

	q, err := marketplaceQuery(r)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	products := s.Market.SearchProducts(r.Context(), q)
	utils.RespondJSON(w, http.StatusOK, ProductsResponse{Products: products, Total: len(products)})
}

func (s *Server) handleMarketplaceSearch(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Marketplace Search")

	text := strings.TrimSpace(r.URL.Query().Get("q"))
	if text == "" {
		s.fail(w, log, apierr.Validation("search query is required", map[string]string{"q": "is required"}))
		return
	}
	q, err := marketplaceQuery(r)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	q.Terms = strings.Fields(text)

	products := s.Market.SearchProducts(r.Context(), q)
	log.Debugw("Marketplace search", "q", text, "results", len(products))
	utils.RespondJSON(w, http.StatusOK, ProductsResponse{Products: products, Total: len(products)})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"trending": s.Market.Trending(r.Context())})
}

// handleShoppingList finds products for every category the wardrobe is short of
func (s *Server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With("api", "Shopping List")

	user := currentUser(r)
	items, err := s.Wardrobe.ListByUser(r.Context(), user.ID)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	rules := s.Engine.Rules()
	analysis := s.Engine.Analyze(items, recommend.ProfileOf(user))

	var entries []ShoppingListEntry
	for _, cat := range models.Categories {
		threshold, ok := rules.CategoryThresholds[cat]
		if !ok || analysis.CategoryCounts[cat] >= threshold {
			continue
		}
		entries = append(entries, ShoppingListEntry{Category: cat, Reason: rules.GapMessages[cat]})
	}

	var g errgroup.Group
	for i := range entries {
		g.Go(func() error {
			entries[i].Products = s.Market.SearchProducts(r.Context(), marketplace.Query{
				Category: entries[i].Category,
				Limit:    shoppingListProducts,
			})
			return nil
		})
	}
	_ = g.Wait()

	if entries == nil {
		entries = []ShoppingListEntry{}
	}
	utils.RespondJSON(w, http.StatusOK, ShoppingListResponse{ShoppingList: entries, WardrobeAnalysis: analysis})
}

// marketplaceQuery reads category, minPrice, maxPrice, sources and limit from the URL
func marketplaceQuery(r *http.Request) (marketplace.Query, error) {
	values := r.URL.Query()
	fields := map[string]string{}
	q := marketplace.Query{}

	if cat := strings.TrimSpace(values.Get("category")); cat != "" {
		if !models.IsValidCategory(cat) {
			fields["category"] = "must be one of: " + strings.Join(models.Categories, ", ")
		}
		q.Category = cat
	}

	minPrice, minErr := parsePrice(values.Get("minPrice"))
	if minErr != nil {
		fields["minPrice"] = "must be a non-negative number"
	}
	maxPrice, maxErr := parsePrice(values.Get("maxPrice"))
	if maxErr != nil {
		fields["maxPrice"] = "must be a non-negative number"
	}
	if minErr == nil && maxErr == nil && (minPrice > 0 || maxPrice > 0) {
		if maxPrice > 0 && minPrice > maxPrice {
			fields["minPrice"] = "must not exceed maxPrice"
		}
		q.PriceRange = &models.PriceRange{Min: minPrice, Max: maxPrice}
	}

	if raw := values.Get("sources"); raw != "" {
		for _, src := range strings.Split(raw, ",") {
			if src = strings.TrimSpace(src); src != "" {
				q.Sources = append(q.Sources, src)
			}
		}
	}

	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			fields["limit"] = "must be between 1 and 100"
		}
		q.Limit = n
	}

	if len(fields) > 0 {
		return marketplace.Query{}, apierr.Validation("invalid marketplace query", fields)
	}
	return q, nil
}

func parsePrice(raw string) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return 0, apierr.ErrValidation
	}
	return v, nil
}
