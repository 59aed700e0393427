package recommend

import (
	"math"
	"strings"
	"time"

	"github.com/raushankrgupta/wardrobe-stylist/models"
)

// Confidence weights and bounds
const (
	baseConfidence = 0.5
	minConfidence  = 0.3
	maxConfidence  = 0.95

	weightOccasion     = 0.3
	weightStyle        = 0.2
	weightColor        = 0.15
	weightCompleteness = 0.15
	weightBodyType     = 0.1
	weightSeason       = 0.1

	keywordSaturation = 3
)

// Color coordination scores
const (
	colorMonochrome    = 0.9
	colorNeutral       = 0.8
	colorComplementary = 0.7
	colorOther         = 0.4
)

// seasonOf maps a month to its northern hemisphere season
func seasonOf(t time.Time) string {
	switch t.Month() {
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	case time.September, time.October, time.November:
		return "fall"
	default:
		return "winter"
	}
}

// keywordScore is min(1, matches/min(3, len(keywords)))
func keywordScore(text string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	matches := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			matches++
		}
	}
	saturation := len(keywords)
	if saturation > keywordSaturation {
		saturation = keywordSaturation
	}
	return math.Min(1, float64(matches)/float64(saturation))
}

func itemText(it models.WardrobeItem) string {
	return strings.ToLower(it.Name + " " + it.Color + " " + it.Category)
}

func outfitText(items []models.WardrobeItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = itemText(it)
	}
	return strings.Join(parts, " ")
}

type colorHarmony int

const (
	harmonyOther colorHarmony = iota
	harmonyComplementary
	harmonyNeutral
	harmonyMonochrome
)

func (r *Rules) harmony(items []models.WardrobeItem) colorHarmony {
	colors := make([]string, 0, len(items))
	for _, it := range items {
		if c := normalizeColor(it.Color); c != "" {
			colors = append(colors, c)
		}
	}
	if len(colors) >= 2 {
		mono := true
		for _, c := range colors[1:] {
			if c != colors[0] {
				mono = false
				break
			}
		}
		if mono {
			return harmonyMonochrome
		}
	}
	for _, c := range colors {
		if r.isNeutral(c) {
			return harmonyNeutral
		}
	}
	for i := range colors {
		for j := i + 1; j < len(colors); j++ {
			if r.areComplementary(colors[i], colors[j]) {
				return harmonyComplementary
			}
		}
	}
	return harmonyOther
}

func (h colorHarmony) score() float64 {
	switch h {
	case harmonyMonochrome:
		return colorMonochrome
	case harmonyNeutral:
		return colorNeutral
	case harmonyComplementary:
		return colorComplementary
	default:
		return colorOther
	}
}

func hasCategory(items []models.WardrobeItem, category string) bool {
	for _, it := range items {
		if it.Category == category {
			return true
		}
	}
	return false
}

func completeness(items []models.WardrobeItem) float64 {
	score := 0.5
	if hasCategory(items, models.CategoryFootwear) {
		score += 0.2
	}
	if hasCategory(items, models.CategoryOuterwear) {
		score += 0.2
	}
	if hasCategory(items, models.CategoryAccessories) {
		score += 0.1
	}
	return math.Min(1, score)
}

// scoreTerms are the normalized inputs of the confidence formula
type scoreTerms struct {
	occasion     float64
	style        float64
	color        float64
	completeness float64
	bodyType     float64
	season       float64
}

func (t scoreTerms) confidence() float64 {
	c := baseConfidence +
		weightOccasion*t.occasion +
		weightStyle*t.style +
		weightColor*t.color +
		weightCompleteness*t.completeness +
		weightBodyType*t.bodyType +
		weightSeason*t.season
	return clampConfidence(c)
}

func clampConfidence(c float64) float64 {
	c = math.Max(minConfidence, math.Min(maxConfidence, c))
	return math.Round(c*100) / 100
}

// inferOccasion picks the occasion whose keywords best match text.
// Ties resolve alphabetically and no match yields the default occasion.
func (r *Rules) inferOccasion(text string) (string, float64) {
	best, bestScore := r.DefaultOccasion, 0.0
	for _, occ := range r.occasions {
		if s := keywordScore(text, r.OccasionKeywords[occ]); s > bestScore {
			best, bestScore = occ, s
		}
	}
	return best, bestScore
}

// itemOccasions lists every occasion an item's text suggests
func (r *Rules) itemOccasions(it models.WardrobeItem) []string {
	text := itemText(it)
	var out []string
	for _, occ := range r.occasions {
		if keywordScore(text, r.OccasionKeywords[occ]) > 0 {
			out = append(out, occ)
		}
	}
	if len(out) == 0 {
		out = append(out, r.DefaultOccasion)
	}
	return out
}

func (r *Rules) isSleeveless(it models.WardrobeItem) bool {
	text := itemText(it)
	for _, kw := range r.SleevelessKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func (r *Rules) isStatementPiece(it models.WardrobeItem) bool {
	if it.Category == models.CategoryAccessories {
		return true
	}
	if it.Category != models.CategoryOuterwear {
		return false
	}
	name := strings.ToLower(it.Name)
	for _, kw := range r.StatementKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
