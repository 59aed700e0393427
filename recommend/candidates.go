package recommend

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/raushankrgupta/wardrobe-stylist/models"
)

const (
	// statementFillTarget stops statement-piece generation once this many candidates exist
	statementFillTarget = 8
	// maxRecommendations is the number of candidates returned to clients
	maxRecommendations = 6
)

// Candidate kinds
const (
	kindDress     = "dress"
	kindCombo     = "combo"
	kindStatement = "statement"
)

// candidate is an outfit under construction. base holds the anchor pieces,
// items the full look including attached extras.
type candidate struct {
	id         string
	kind       string
	base       []models.WardrobeItem
	items      []models.WardrobeItem
	occasion   string
	matches    bool
	harmony    colorHarmony
	terms      scoreTerms
	confidence float64
}

func (c *candidate) signature() string {
	return itemSignature(c.items)
}

func itemSignature(items []models.WardrobeItem) string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID.Hex()
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// wardrobe buckets items by category, preserving store order
type wardrobe struct {
	byCategory map[string][]models.WardrobeItem
}

func newWardrobe(items []models.WardrobeItem) wardrobe {
	w := wardrobe{byCategory: make(map[string][]models.WardrobeItem)}
	for _, it := range items {
		w.byCategory[it.Category] = append(w.byCategory[it.Category], it)
	}
	return w
}

func (w wardrobe) of(category string) []models.WardrobeItem {
	return w.byCategory[category]
}

// generator carries the per-request inputs shared by every candidate
type generator struct {
	rules     *Rules
	wardrobe  wardrobe
	profile   Profile
	requested string
	season    string
	out       []*candidate
	seen      map[string]bool
}

// Candidates returns the full, untruncated, sorted candidate list
func (e *Engine) Candidates(items []models.WardrobeItem, profile Profile, occasion string) []models.OutfitCandidate {
	cands := e.generate(items, profile, occasion)
	out := make([]models.OutfitCandidate, len(cands))
	for i, c := range cands {
		out[i] = e.toOutfit(c, profile)
	}
	return out
}

func (e *Engine) generate(items []models.WardrobeItem, profile Profile, occasion string) []*candidate {
	g := &generator{
		rules:     e.rules,
		wardrobe:  newWardrobe(items),
		profile:   profile,
		requested: e.rules.canonicalOccasion(occasion),
		season:    seasonOf(e.now()),
		seen:      make(map[string]bool),
	}
	g.dresses()
	g.combos()
	g.statements()

	sort.SliceStable(g.out, func(i, j int) bool {
		a, b := g.out[i], g.out[j]
		if a.matches != b.matches {
			return a.matches
		}
		return a.confidence > b.confidence
	})
	return g.out
}

func (g *generator) accessoriesAllowed() bool {
	return !strings.EqualFold(g.profile.PreferredStyle, "Minimalist")
}

// targetOccasion is the requested occasion, or the one the base pieces suggest
func (g *generator) targetOccasion(base []models.WardrobeItem) string {
	if g.requested != "" {
		return g.requested
	}
	occ, _ := g.rules.inferOccasion(outfitText(base))
	return occ
}

func (g *generator) dresses() {
	for _, d := range g.wardrobe.of(models.CategoryDresses) {
		base := []models.WardrobeItem{d}
		target := g.targetOccasion(base)
		items := append([]models.WardrobeItem{}, base...)
		items = g.attach(items, base, models.CategoryFootwear, target)
		if g.accessoriesAllowed() {
			items = g.attach(items, base, models.CategoryAccessories, target)
		}
		if g.rules.isLayeringOccasion(target) || g.rules.isSleeveless(d) {
			items = g.attach(items, base, models.CategoryOuterwear, target)
		}
		g.add(kindDress, base, items)
	}
}

func (g *generator) combos() {
	for _, top := range g.wardrobe.of(models.CategoryTops) {
		for _, bottom := range g.wardrobe.of(models.CategoryBottoms) {
			base := []models.WardrobeItem{top, bottom}
			target := g.targetOccasion(base)
			items := append([]models.WardrobeItem{}, base...)
			if g.rules.isLayeringOccasion(target) || g.rules.isLayeringSeason(g.season) || g.rules.isSleeveless(top) {
				items = g.attach(items, base, models.CategoryOuterwear, target)
			}
			items = g.attach(items, base, models.CategoryFootwear, target)
			if g.accessoriesAllowed() {
				items = g.attach(items, base, models.CategoryAccessories, target)
			}
			g.add(kindCombo, base, items)
		}
	}
}

// statements anchors statement pieces on neutral bases, rotating bases by piece index
func (g *generator) statements() {
	var pieces []models.WardrobeItem
	for _, cat := range []string{models.CategoryOuterwear, models.CategoryAccessories} {
		for _, it := range g.wardrobe.of(cat) {
			if g.rules.isStatementPiece(it) {
				pieces = append(pieces, it)
			}
		}
	}
	if len(pieces) == 0 {
		return
	}
	tops := g.neutral(models.CategoryTops)
	bottoms := g.neutral(models.CategoryBottoms)
	dresses := g.neutral(models.CategoryDresses)

	for i, piece := range pieces {
		if len(g.out) >= statementFillTarget {
			return
		}
		var base []models.WardrobeItem
		switch {
		case len(tops) > 0 && len(bottoms) > 0:
			base = []models.WardrobeItem{tops[i%len(tops)], bottoms[i%len(bottoms)]}
		case len(dresses) > 0:
			base = []models.WardrobeItem{dresses[i%len(dresses)]}
		default:
			return
		}
		items := append(append([]models.WardrobeItem{}, base...), piece)
		items = g.attach(items, base, models.CategoryFootwear, g.targetOccasion(base))
		if g.seen[itemSignature(items)] {
			continue
		}
		g.add(kindStatement, base, items)
	}
}

func (g *generator) neutral(category string) []models.WardrobeItem {
	var out []models.WardrobeItem
	for _, it := range g.wardrobe.of(category) {
		if g.rules.isNeutral(it.Color) {
			out = append(out, it)
		}
	}
	return out
}

// attach appends the best match from category unless the outfit already has one
func (g *generator) attach(items, base []models.WardrobeItem, category, occasion string) []models.WardrobeItem {
	if hasCategory(items, category) {
		return items
	}
	if best, ok := g.rules.bestMatch(g.wardrobe.of(category), base, occasion); ok {
		return append(items, best)
	}
	return items
}

// bestMatch scores pool against base. Ties keep the earliest item.
func (r *Rules) bestMatch(pool, base []models.WardrobeItem, occasion string) (models.WardrobeItem, bool) {
	var best models.WardrobeItem
	bestScore, found := -1.0, false
	for _, it := range pool {
		s := r.matchScore(it, base, occasion)
		if s > bestScore {
			best, bestScore, found = it, s, true
		}
	}
	return best, found
}

func (r *Rules) matchScore(it models.WardrobeItem, base []models.WardrobeItem, occasion string) float64 {
	var color, occ, pair float64
	for _, b := range base {
		if r.isNeutral(it.Color) ||
			(normalizeColor(it.Color) != "" && normalizeColor(it.Color) == normalizeColor(b.Color)) ||
			r.areComplementary(it.Color, b.Color) {
			color = 1
		}
		if r.goesWellWith(it.Category, b.Category) {
			pair = 1
		}
	}
	if occasion != "" && containsFold(r.itemOccasions(it), occasion) {
		occ = 1
	}
	return 0.5*color + 0.3*occ + 0.2*pair
}

func (g *generator) add(kind string, base, items []models.WardrobeItem) {
	c := &candidate{kind: kind, base: base, items: items}
	g.score(c)
	c.id = fmt.Sprintf("%s-%08x", kind, fnvHash(c.signature()))
	g.seen[c.signature()] = true
	g.out = append(g.out, c)
}

func (g *generator) score(c *candidate) {
	r := g.rules
	text := outfitText(c.items)
	if g.requested != "" {
		c.terms.occasion = keywordScore(text, r.OccasionKeywords[g.requested])
		c.occasion = g.requested
		if c.terms.occasion == 0 {
			c.occasion, _ = r.inferOccasion(text)
		}
		c.matches = c.occasion == g.requested
	} else {
		c.occasion, c.terms.occasion = r.inferOccasion(text)
	}
	c.terms.style = keywordScore(text, lookupFold(r.StyleKeywords, g.profile.PreferredStyle))
	c.terms.bodyType = keywordScore(text, lookupFold(r.BodyTypeKeywords, g.profile.BodyType))
	c.terms.season = keywordScore(text, r.SeasonKeywords[g.season])
	c.harmony = r.harmony(c.items)
	c.terms.color = c.harmony.score()
	c.terms.completeness = completeness(c.items)
	c.confidence = c.terms.confidence()
}

// canonicalOccasion maps a user supplied occasion onto the rules table spelling
func (r *Rules) canonicalOccasion(occasion string) string {
	occasion = strings.TrimSpace(occasion)
	if occasion == "" {
		return ""
	}
	for _, occ := range r.occasions {
		if strings.EqualFold(occ, occasion) {
			return occ
		}
	}
	return titleCase(strings.ToLower(occasion))
}

func fnvHash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func (e *Engine) toOutfit(c *candidate, profile Profile) models.OutfitCandidate {
	ids := make([]string, len(c.items))
	for i, it := range c.items {
		ids[i] = it.ID.Hex()
	}
	return models.OutfitCandidate{
		ID:           c.id,
		Items:        ids,
		Confidence:   c.confidence,
		Occasion:     c.occasion,
		Description:  describe(c),
		StyleNotes:   e.rules.styleNotes(c, profile),
		MissingItems: []models.MissingItemSuggestion{},
	}
}

func label(it models.WardrobeItem) string {
	if name := strings.TrimSpace(it.Name); name != "" {
		return name
	}
	return strings.TrimSpace(it.Color + " " + strings.ToLower(it.Category))
}

func describe(c *candidate) string {
	var desc string
	switch c.kind {
	case kindDress:
		desc = label(c.base[0]) + " as a one-piece look"
	case kindCombo:
		desc = label(c.base[0]) + " paired with " + label(c.base[1])
	default:
		piece := c.items[len(c.base)]
		names := make([]string, len(c.base))
		for i, b := range c.base {
			names[i] = label(b)
		}
		desc = label(piece) + " as the statement piece over " + strings.Join(names, " and ")
	}

	var extras []string
	for _, it := range c.items[len(c.base):] {
		if c.kind == kindStatement && it.ID == c.items[len(c.base)].ID {
			continue
		}
		extras = append(extras, label(it))
	}
	if len(extras) > 0 {
		desc += ", finished with " + strings.Join(extras, " and ")
	}
	return desc
}

func (r *Rules) styleNotes(c *candidate, profile Profile) string {
	var notes []string
	switch c.harmony {
	case harmonyMonochrome:
		notes = append(notes, "A monochrome palette creates a long, clean line.")
	case harmonyNeutral:
		notes = append(notes, "Neutral tones keep the look versatile.")
	case harmonyComplementary:
		notes = append(notes, "Complementary colors make the outfit stand out.")
	default:
		notes = append(notes, "Add a neutral layer to tie the colors together.")
	}
	if c.terms.occasion > 0 {
		notes = append(notes, fmt.Sprintf("Well suited for %s.", strings.ToLower(c.occasion)))
	}
	if c.terms.style > 0 {
		notes = append(notes, fmt.Sprintf("Matches your %s style.", strings.ToLower(profile.PreferredStyle)))
	}
	if c.terms.bodyType > 0 {
		notes = append(notes, fmt.Sprintf("The cut flatters a %s body type.", strings.ToLower(profile.BodyType)))
	}
	if palette := lookupFold(r.SkinTonePalettes, profile.SkinTone); len(palette) > 0 {
		for _, it := range c.items {
			if keywordScore(normalizeColor(it.Color), palette) > 0 {
				notes = append(notes, fmt.Sprintf("%s works well with %s skin tones.", titleCase(normalizeColor(it.Color)), strings.ToLower(profile.SkinTone)))
				break
			}
		}
	}
	if c.terms.season > 0 {
		notes = append(notes, "Great for this season.")
	}
	return strings.Join(notes, " ")
}
