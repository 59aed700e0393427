package marketplace

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/raushankrgupta/wardrobe-stylist/models"
)

type curated struct {
	name   string
	brand  string
	color  string
	price  float64
	rating float64
}

// fallbackCatalog is shown whenever live sources fail
var fallbackCatalog = map[string][]curated{
	models.CategoryTops: {
		{"Classic White Oxford Shirt", "Uniqlo", "White", 39.90, 4.6},
		{"Essential Crew Neck Tee", "Everlane", "Black", 25.00, 4.5},
		{"Silk Button-Down Blouse", "Banana Republic", "Cream", 79.50, 4.4},
		{"Striped Breton Top", "J.Crew", "Navy", 49.50, 4.3},
	},
	models.CategoryBottoms: {
		{"High-Rise Straight Jeans", "Levi's", "Blue", 69.50, 4.6},
		{"Tailored Wide-Leg Trousers", "COS", "Black", 89.00, 4.4},
		{"Chino Pants", "Gap", "Khaki", 49.95, 4.3},
		{"Pleated Midi Skirt", "H&M", "Beige", 34.99, 4.1},
	},
	models.CategoryDresses: {
		{"Wrap Midi Dress", "Mango", "Green", 79.99, 4.5},
		{"Little Black Dress", "Zara", "Black", 59.90, 4.4},
		{"Floral Maxi Dress", "Free People", "Floral", 128.00, 4.3},
		{"Shirt Dress", "Everlane", "White", 88.00, 4.2},
	},
	models.CategoryOuterwear: {
		{"Tailored Wool Blazer", "Theory", "Black", 195.00, 4.7},
		{"Classic Trench Coat", "Uniqlo", "Beige", 129.90, 4.6},
		{"Denim Jacket", "Levi's", "Blue", 89.50, 4.5},
		{"Cropped Bomber Jacket", "Zara", "Olive", 69.90, 4.2},
	},
	models.CategoryFootwear: {
		{"White Leather Sneakers", "Veja", "White", 120.00, 4.6},
		{"Block Heel Pumps", "Sam Edelman", "Black", 110.00, 4.4},
		{"Leather Loafers", "Cole Haan", "Brown", 99.99, 4.5},
		{"Chelsea Boots", "Dr. Martens", "Black", 115.00, 4.3},
	},
	models.CategoryAccessories: {
		{"Leather Belt", "Madewell", "Brown", 38.00, 4.5},
		{"Gold Hoop Earrings", "Mejuri", "Gold", 58.00, 4.6},
		{"Silk Scarf", "& Other Stories", "Red", 45.00, 4.3},
		{"Structured Tote Bag", "Cuyana", "Camel", 59.00, 4.4},
	},
}

// fallbackImages are stock photos per category
var fallbackImages = map[string][]string{
	models.CategoryTops: {
		"https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=400",
		"https://images.unsplash.com/photo-1598033129183-c4f50c736f10?w=400",
		"https://images.unsplash.com/photo-1603252109303-2751441dd157?w=400",
	},
	models.CategoryBottoms: {
		"https://images.unsplash.com/photo-1542272604-787c3835535d?w=400",
		"https://images.unsplash.com/photo-1594633312681-425c7b97ccd1?w=400",
		"https://images.unsplash.com/photo-1624378439575-d8705ad7ae80?w=400",
	},
	models.CategoryDresses: {
		"https://images.unsplash.com/photo-1595777457583-95e059d581b8?w=400",
		"https://images.unsplash.com/photo-1572804013309-59a88b7e92f1?w=400",
		"https://images.unsplash.com/photo-1539008835657-9e8e9680c956?w=400",
	},
	models.CategoryOuterwear: {
		"https://images.unsplash.com/photo-1591047139829-d91aecb6caea?w=400",
		"https://images.unsplash.com/photo-1551028719-00167b16eac5?w=400",
		"https://images.unsplash.com/photo-1544022613-e87ca75a784a?w=400",
	},
	models.CategoryFootwear: {
		"https://images.unsplash.com/photo-1549298916-b41d501d3772?w=400",
		"https://images.unsplash.com/photo-1543163521-1bf539c55dd2?w=400",
		"https://images.unsplash.com/photo-1560343090-f0409e92791a?w=400",
	},
	models.CategoryAccessories: {
		"https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=400",
		"https://images.unsplash.com/photo-1611591437281-460bfbe1220a?w=400",
		"https://images.unsplash.com/photo-1590874103328-eac38a683ce7?w=400",
	},
}

const genericImage = "https://images.unsplash.com/photo-1445205170230-053b83016050?w=400"

// fallbackImage picks a stock photo for the category from the hash of key
func fallbackImage(category, key string) string {
	imgs := fallbackImages[category]
	if len(imgs) == 0 {
		return genericImage
	}
	return imgs[hashString(key)%uint32(len(imgs))]
}

func midPrice(category string) float64 {
	items := fallbackCatalog[category]
	if len(items) == 0 {
		return 50
	}
	var sum float64
	for _, c := range items {
		sum += c.price
	}
	return float64(int(sum/float64(len(items))*100)) / 100
}

// Fallback returns the curated listings for category tagged with source.
// Unknown or empty categories get a mix of every category.
func Fallback(category, source string) []models.MarketplaceProduct {
	cats := []string{category}
	if _, ok := fallbackCatalog[category]; !ok {
		cats = TrendingCategories
	}

	var out []models.MarketplaceProduct
	for _, cat := range cats {
		for i, c := range fallbackCatalog[cat] {
			p := models.MarketplaceProduct{
				ID:       fmt.Sprintf("%s-%s-%d", strings.ToLower(source), strings.ToLower(cat), i+1),
				Name:     c.name,
				Category: cat,
				Color:    c.color,
				Price:    c.price,
				Source:   source,
				Brand:    c.brand,
				Rating:   c.rating,
				URL:      shoppingSearch + url.QueryEscape(c.brand+" "+c.name),
			}
			p.ImageURL = fallbackImage(cat, dedupeKey(p))
			out = append(out, p)
		}
	}
	return out
}
