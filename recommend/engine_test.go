package recommend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/raushankrgupta/wardrobe-stylist/models"
)

var october = func() time.Time { return time.Date(2025, time.October, 14, 12, 0, 0, 0, time.UTC) }

func item(category, color, name string) models.WardrobeItem {
	return models.WardrobeItem{
		ID:       primitive.NewObjectID(),
		Category: category,
		Color:    color,
		Name:     name,
	}
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(nil, append([]Option{WithClock(october)}, opts...)...)
	require.NoError(t, err)
	return e
}

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) FindProducts(ctx context.Context, q ProductQuery) ([]models.MarketplaceProduct, error) {
	args := m.Called(ctx, q)
	products, _ := args.Get(0).([]models.MarketplaceProduct)
	return products, args.Error(1)
}

type fakeStylist struct {
	notes string
	err   error
	calls int
}

func (f *fakeStylist) StyleNotes(ctx context.Context, req StylistRequest) (string, error) {
	f.calls++
	return f.notes, f.err
}

func products(n int) []models.MarketplaceProduct {
	out := make([]models.MarketplaceProduct, n)
	for i := range out {
		out[i] = models.MarketplaceProduct{ID: string(rune('a' + i)), Name: "Product", Price: 40, Rating: 4}
	}
	return out
}

func mixedWardrobe() []models.WardrobeItem {
	return []models.WardrobeItem{
		item(models.CategoryTops, "White", "Silk Blouse"),
		item(models.CategoryTops, "Red", "Graphic Tee"),
		item(models.CategoryTops, "Navy", "Striped Shirt"),
		item(models.CategoryBottoms, "Blue", "Denim Jeans"),
		item(models.CategoryBottoms, "Black", "Tailored Trousers"),
		item(models.CategoryDresses, "Green", "Sleeveless Wrap Dress"),
		item(models.CategoryFootwear, "Black", "Leather Heels"),
		item(models.CategoryFootwear, "White", "Sneakers"),
		item(models.CategoryOuterwear, "Camel", "Wool Coat"),
		item(models.CategoryAccessories, "Gold", "Statement Necklace"),
		item(models.CategoryAccessories, "Brown", "Leather Belt"),
	}
}

func TestCandidates_CoversEveryTopBottomPair(t *testing.T) {
	e := newTestEngine(t)
	items := mixedWardrobe()

	cands := e.Candidates(items, Profile{}, "")

	combos := 0
	for _, c := range cands {
		if strings.HasPrefix(c.ID, kindCombo+"-") {
			combos++
		}
	}
	assert.GreaterOrEqual(t, combos, 3*2)
}

func TestRecommend_ConfidenceWithinBounds(t *testing.T) {
	e := newTestEngine(t)
	for _, occasion := range []string{"", "Work", "Formal", "Casual", "Party", "Date", "Brunch"} {
		res, err := e.Recommend(context.Background(), Input{
			Items:    mixedWardrobe(),
			Profile:  Profile{PreferredStyle: "Business", BodyType: "Hourglass", SkinTone: "Warm"},
			Occasion: occasion,
		})
		require.NoError(t, err)
		for _, r := range res.Recommendations {
			assert.GreaterOrEqual(t, r.Confidence, 0.3, occasion)
			assert.LessOrEqual(t, r.Confidence, 0.95, occasion)
		}
	}
}

func TestRecommend_ReturnsAtMostSix(t *testing.T) {
	e := newTestEngine(t)
	var items []models.WardrobeItem
	for i := 0; i < 4; i++ {
		items = append(items, item(models.CategoryTops, "White", "Tee"))
		items = append(items, item(models.CategoryBottoms, "Black", "Jeans"))
	}

	res, err := e.Recommend(context.Background(), Input{Items: items})
	require.NoError(t, err)

	assert.Len(t, e.Candidates(items, Profile{}, ""), 16)
	assert.Len(t, res.Recommendations, 6)
}

func TestRecommend_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	items := mixedWardrobe()
	in := Input{Items: items, Profile: Profile{PreferredStyle: "Casual"}, Occasion: "Work"}

	first, err := e.Recommend(context.Background(), in)
	require.NoError(t, err)
	second, err := e.Recommend(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRecommend_SingleBlackComboForWork(t *testing.T) {
	e := newTestEngine(t)
	items := []models.WardrobeItem{
		item(models.CategoryTops, "Black", ""),
		item(models.CategoryBottoms, "Black", ""),
	}

	cands := e.Candidates(items, Profile{}, "Work")
	require.Len(t, cands, 1)
	assert.GreaterOrEqual(t, cands[0].Confidence, 0.5)

	res, err := e.Recommend(context.Background(), Input{Items: items, Occasion: "Work"})
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 1)

	gaps := strings.Join(res.WardrobeAnalysis.Gaps, "\n")
	assert.Contains(t, gaps, "Footwear")
	assert.Contains(t, gaps, "Outerwear")
	assert.Contains(t, gaps, "Accessories")

	missing := res.Recommendations[0].MissingItems
	require.Len(t, missing, 3)
	assert.Equal(t, models.CategoryFootwear, missing[0].Category)
	assert.Equal(t, models.PriorityHigh, missing[0].Priority)
	assert.Equal(t, models.PriceRange{Min: 30, Max: 120}, missing[0].PriceRange)
	assert.Equal(t, models.CategoryAccessories, missing[1].Category)
	assert.Equal(t, models.PriorityMedium, missing[1].Priority)
	assert.Equal(t, models.CategoryOuterwear, missing[2].Category)
	assert.Equal(t, "Black", missing[2].SuggestedColor)
	assert.Equal(t, models.PriceRange{Min: 50, Max: 200}, missing[2].PriceRange)
}

func TestRecommend_EmptyWardrobe(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Recommend(context.Background(), Input{})
	require.NoError(t, err)

	assert.NotNil(t, res.Recommendations)
	assert.Empty(t, res.Recommendations)
	assert.Equal(t, EmptyWardrobeMessage, res.Message)
}

func TestRecommend_OccasionMatchesSortFirst(t *testing.T) {
	e := newTestEngine(t)
	items := []models.WardrobeItem{
		item(models.CategoryTops, "Red", "Graphic Tee"),
		item(models.CategoryTops, "White", "Silk Blouse"),
		item(models.CategoryBottoms, "Blue", "Denim Jeans"),
	}

	cands := e.Candidates(items, Profile{}, "Work")
	require.Len(t, cands, 2)

	assert.Equal(t, "Work", cands[0].Occasion)
	assert.Equal(t, "Casual", cands[1].Occasion)
	assert.Contains(t, cands[0].Items, items[1].ID.Hex())
}

func TestRecommend_MinimalistSkipsAccessories(t *testing.T) {
	e := newTestEngine(t)
	items := []models.WardrobeItem{
		item(models.CategoryTops, "White", "Basic Tee"),
		item(models.CategoryBottoms, "Black", "Jeans"),
		item(models.CategoryAccessories, "Brown", "Belt"),
	}

	res, err := e.Recommend(context.Background(), Input{Items: items, Profile: Profile{PreferredStyle: "Minimalist"}})
	require.NoError(t, err)

	for _, r := range res.Recommendations {
		if strings.HasPrefix(r.ID, kindCombo+"-") {
			assert.NotContains(t, r.Items, items[2].ID.Hex())
		}
		for _, m := range r.MissingItems {
			assert.NotEqual(t, models.CategoryAccessories, m.Category)
		}
	}
}

func TestRecommend_StatementPiecesSkipDuplicates(t *testing.T) {
	e := newTestEngine(t)
	items := []models.WardrobeItem{
		item(models.CategoryTops, "White", "Tee"),
		item(models.CategoryBottoms, "Black", "Jeans"),
		item(models.CategoryAccessories, "Gold", "Necklace"),
		item(models.CategoryAccessories, "Red", "Bold Scarf"),
	}

	cands := e.Candidates(items, Profile{}, "")

	statements := 0
	seen := map[string]bool{}
	for _, c := range cands {
		if strings.HasPrefix(c.ID, kindStatement+"-") {
			statements++
		}
		assert.False(t, seen[c.ID], "duplicate outfit %s", c.ID)
		seen[c.ID] = true
	}
	assert.Len(t, cands, 2)
	assert.Equal(t, 1, statements)
}

func TestRecommend_AttachesProductsAndSwallowsLookupErrors(t *testing.T) {
	finder := &mockFinder{}
	byCategory := func(cat string) interface{} {
		return mock.MatchedBy(func(q ProductQuery) bool { return q.Category == cat })
	}
	finder.On("FindProducts", mock.Anything, byCategory(models.CategoryFootwear)).Return(products(5), nil)
	finder.On("FindProducts", mock.Anything, byCategory(models.CategoryAccessories)).Return(nil, errors.New("upstream down"))
	finder.On("FindProducts", mock.Anything, byCategory(models.CategoryOuterwear)).Return(products(1), nil)

	e := newTestEngine(t, WithProducts(finder))
	items := []models.WardrobeItem{
		item(models.CategoryTops, "Black", ""),
		item(models.CategoryBottoms, "Black", ""),
	}

	res, err := e.Recommend(context.Background(), Input{Items: items, Occasion: "Work"})
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 1)

	missing := res.Recommendations[0].MissingItems
	require.Len(t, missing, 3)
	assert.Len(t, missing[0].AvailableProducts, 3)
	assert.NotNil(t, missing[1].AvailableProducts)
	assert.Empty(t, missing[1].AvailableProducts)
	assert.Len(t, missing[2].AvailableProducts, 1)
	finder.AssertExpectations(t)
}

type slowFinder struct {
	inFlight, peak, calls atomic.Int32
}

func (f *slowFinder) FindProducts(ctx context.Context, q ProductQuery) ([]models.MarketplaceProduct, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	f.calls.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return products(1), nil
}

func TestRecommend_BoundsConcurrentLookups(t *testing.T) {
	finder := &slowFinder{}
	e := newTestEngine(t, WithProducts(finder))
	items := []models.WardrobeItem{
		item(models.CategoryTops, "Red", "Tee"),
		item(models.CategoryTops, "Blue", "Polo"),
		item(models.CategoryTops, "Green", "Henley"),
		item(models.CategoryBottoms, "Black", "Jeans"),
		item(models.CategoryBottoms, "Grey", "Chinos"),
	}

	res, err := e.Recommend(context.Background(), Input{Items: items, Occasion: "Work"})
	require.NoError(t, err)

	total := 0
	for _, rec := range res.Recommendations {
		for _, m := range rec.MissingItems {
			total++
			assert.Len(t, m.AvailableProducts, 1)
		}
	}
	require.Greater(t, total, maxConcurrentLookups)
	assert.Equal(t, int32(total), finder.calls.Load())
	assert.LessOrEqual(t, finder.peak.Load(), int32(maxConcurrentLookups))
}

func TestRecommend_StylistEnrichesTopOutfit(t *testing.T) {
	items := mixedWardrobe()

	stylist := &fakeStylist{notes: "Tuck the blouse in and roll the sleeves."}
	e := newTestEngine(t, WithStylist(stylist, time.Second))
	res, err := e.Recommend(context.Background(), Input{Items: items})
	require.NoError(t, err)
	assert.Equal(t, 1, stylist.calls)
	assert.Equal(t, stylist.notes, res.Recommendations[0].StyleNotes)
	assert.NotEqual(t, stylist.notes, res.Recommendations[1].StyleNotes)

	failing := &fakeStylist{err: errors.New("quota")}
	e = newTestEngine(t, WithStylist(failing, time.Second))
	res, err = e.Recommend(context.Background(), Input{Items: items})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Recommendations[0].StyleNotes)
}

func TestRecommend_CancelledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Recommend(ctx, Input{Items: mixedWardrobe()})

	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFallback(t *testing.T) {
	e := newTestEngine(t)
	items := []models.WardrobeItem{
		item(models.CategoryFootwear, "White", "Sneakers"),
		item(models.CategoryTops, "White", "Tee"),
		item(models.CategoryBottoms, "Black", "Jeans"),
	}

	res := e.Fallback(items)

	assert.True(t, res.Degraded)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, []string{items[1].ID.Hex(), items[2].ID.Hex()}, res.Recommendations[0].Items)
	assert.Equal(t, 0.5, res.Recommendations[0].Confidence)

	empty := e.Fallback(nil)
	assert.Empty(t, empty.Recommendations)
	assert.Equal(t, EmptyWardrobeMessage, empty.Message)
}

func TestAnalyze(t *testing.T) {
	e := newTestEngine(t)

	analysis := e.Analyze(mixedWardrobe(), Profile{PreferredStyle: "Bohemian"})

	assert.Equal(t, 11, analysis.TotalItems)
	assert.Equal(t, 3, analysis.CategoryCounts[models.CategoryTops])
	assert.Equal(t, 2, analysis.ColorCounts["black"])
	strengths := strings.Join(analysis.Strengths, "\n")
	assert.Contains(t, strengths, "Tops")
	assert.Contains(t, strengths, "Colors")
	assert.Empty(t, analysis.Gaps)
	assert.Empty(t, analysis.Suggestions)
}

func TestAnalyze_StyleSuggestionForMissingCategory(t *testing.T) {
	e := newTestEngine(t)
	items := []models.WardrobeItem{item(models.CategoryTops, "White", "Shirt")}

	analysis := e.Analyze(items, Profile{PreferredStyle: "business"})

	assert.Contains(t, analysis.Suggestions, "Add a tailored blazer for a polished business look")
}

func TestSeasonOf(t *testing.T) {
	cases := map[time.Month]string{
		time.January:   "winter",
		time.March:     "spring",
		time.July:      "summer",
		time.October:   "fall",
		time.December:  "winter",
		time.September: "fall",
	}
	for month, want := range cases {
		assert.Equal(t, want, seasonOf(time.Date(2025, month, 1, 0, 0, 0, 0, time.UTC)), month.String())
	}
}

func TestKeywordScore(t *testing.T) {
	assert.Equal(t, 0.0, keywordScore("white tee", nil))
	assert.InDelta(t, 1.0/3, keywordScore("silk blouse", []string{"blouse", "shirt", "blazer", "suit"}), 1e-9)
	assert.Equal(t, 1.0, keywordScore("shirt blouse blazer suit", []string{"blouse", "shirt", "blazer", "suit"}))
	assert.Equal(t, 1.0, keywordScore("jeans", []string{"jeans"}))
}

func TestColorHarmony(t *testing.T) {
	rules, err := DefaultRules()
	require.NoError(t, err)

	cases := []struct {
		colors []string
		want   float64
	}{
		{[]string{"Red", "red"}, colorMonochrome},
		{[]string{"Black", "Red"}, colorNeutral},
		{[]string{"Red", "Green"}, colorComplementary},
		{[]string{"Red", "Purple"}, colorOther},
	}
	for _, tc := range cases {
		items := make([]models.WardrobeItem, len(tc.colors))
		for i, c := range tc.colors {
			items[i] = item(models.CategoryTops, c, "")
		}
		assert.Equal(t, tc.want, rules.harmony(items).score(), tc.colors)
	}
}

func TestColorWords_MatchWholeWordsOnly(t *testing.T) {
	rules, err := DefaultRules()
	require.NoError(t, err)

	for _, c := range []string{"Black", "Jet Black", "Navy-Blue", "off white", "Light Gray"} {
		assert.True(t, rules.isNeutral(c), c)
	}
	for _, c := range []string{"Tangerine", "Titanium", "Brownish Red", "Tandoori", ""} {
		assert.False(t, rules.isNeutral(c), c)
	}

	assert.True(t, rules.areComplementary("Navy Blue", "Burnt Orange"))
	assert.False(t, rules.areComplementary("Reddish", "Greenery"))

	tee := item(models.CategoryTops, "Tangerine", "Tee")
	skirt := item(models.CategoryBottoms, "Red", "Skirt")
	assert.Equal(t, colorOther, rules.harmony([]models.WardrobeItem{tee, skirt}).score())
}

func TestBestMatch_TieKeepsWardrobeOrder(t *testing.T) {
	rules, err := DefaultRules()
	require.NoError(t, err)
	base := []models.WardrobeItem{item(models.CategoryTops, "Black", "Tee")}
	pool := []models.WardrobeItem{
		item(models.CategoryAccessories, "White", "Belt"),
		item(models.CategoryAccessories, "White", "Watch"),
	}

	best, ok := rules.bestMatch(pool, base, "Casual")

	require.True(t, ok)
	assert.Equal(t, pool[0].ID, best.ID)

	_, ok = rules.bestMatch(nil, base, "Casual")
	assert.False(t, ok)
}

func TestLoadRules(t *testing.T) {
	r, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, "Casual", r.DefaultOccasion)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
defaultOccasion: Gym
occasionKeywords:
  Gym: [Leggings, Sneakers]
neutralColors: [Black]
categoryThresholds:
  Tops: 1
distinctColorThreshold: 2
`), 0o600))

	r, err = LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"leggings", "sneakers"}, r.OccasionKeywords["Gym"])
	assert.True(t, r.isNeutral("Jet Black"))

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseRules_Invalid(t *testing.T) {
	_, err := ParseRules([]byte("defaultOccasion: Work\n"))
	assert.ErrorContains(t, err, "occasionKeywords is empty")

	_, err = ParseRules([]byte(":::"))
	assert.Error(t, err)
}
