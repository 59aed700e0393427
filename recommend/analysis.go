package recommend

import (
	"strings"

	"github.com/raushankrgupta/wardrobe-stylist/models"
)

// Analyze summarizes a wardrobe's composition against the category thresholds
func (e *Engine) Analyze(items []models.WardrobeItem, profile Profile) models.WardrobeAnalysis {
	r := e.rules
	analysis := models.WardrobeAnalysis{
		TotalItems:     len(items),
		CategoryCounts: make(map[string]int, len(models.Categories)),
		ColorCounts:    make(map[string]int),
		Strengths:      []string{},
		Gaps:           []string{},
		Suggestions:    []string{},
	}
	for _, cat := range models.Categories {
		analysis.CategoryCounts[cat] = 0
	}
	for _, it := range items {
		analysis.CategoryCounts[it.Category]++
		if c := normalizeColor(it.Color); c != "" {
			analysis.ColorCounts[c]++
		}
	}

	for _, cat := range models.Categories {
		threshold, ok := r.CategoryThresholds[cat]
		if !ok {
			continue
		}
		if analysis.CategoryCounts[cat] >= threshold {
			appendMessage(&analysis.Strengths, r.StrengthMessages[cat])
			continue
		}
		appendMessage(&analysis.Gaps, r.GapMessages[cat])
		appendMessage(&analysis.Suggestions, r.CategorySuggestions[cat])
	}

	if len(analysis.ColorCounts) >= r.DistinctColorThreshold {
		appendMessage(&analysis.Strengths, r.StrengthMessages[colorsKey])
	} else if len(items) > 0 {
		appendMessage(&analysis.Gaps, r.GapMessages[colorsKey])
		appendMessage(&analysis.Suggestions, r.CategorySuggestions[colorsKey])
	}

	if profile.PreferredStyle != "" {
		for _, s := range r.StyleSuggestions {
			if strings.EqualFold(s.Style, profile.PreferredStyle) && analysis.CategoryCounts[s.MissingCategory] == 0 {
				appendMessage(&analysis.Suggestions, s.Suggestion)
			}
		}
	}
	return analysis
}

func appendMessage(list *[]string, msg string) {
	if msg != "" {
		*list = append(*list, msg)
	}
}
