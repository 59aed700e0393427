// Package recommend builds ranked outfit recommendations from a user's wardrobe
// using keyword and color heuristics held in a YAML rules table.
package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/raushankrgupta/wardrobe-stylist/models"
)

// EmptyWardrobeMessage is returned instead of recommendations when there is nothing to combine
const EmptyWardrobeMessage = "Add some items to your wardrobe to get outfit recommendations"

const defaultStylistTimeout = 10 * time.Second

// Profile carries the styling preferences that influence scoring
type Profile struct {
	PreferredStyle string
	BodyType       string
	SkinTone       string
}

// ProfileOf extracts the styling preferences of a user
func ProfileOf(u *models.User) Profile {
	if u == nil {
		return Profile{}
	}
	return Profile{PreferredStyle: u.PreferredStyle, BodyType: u.BodyType, SkinTone: u.SkinTone}
}

// Input is a single recommendation request
type Input struct {
	Items    []models.WardrobeItem
	Profile  Profile
	Occasion string
}

// Result is the engine output for one request
type Result struct {
	Recommendations  []models.OutfitCandidate `json:"recommendations"`
	WardrobeAnalysis models.WardrobeAnalysis  `json:"wardrobeAnalysis"`
	Message          string                   `json:"message,omitempty"`
	Degraded         bool                     `json:"degraded,omitempty"`
}

// EngineError reports a recommendation run that could not complete
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("recommend %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// StylistRequest describes the outfit handed to a Stylist
type StylistRequest struct {
	Description    string
	Items          []string
	Occasion       string
	PreferredStyle string
	BodyType       string
	SkinTone       string
	Notes          string
}

// Stylist writes free-text style notes for an outfit
type Stylist interface {
	StyleNotes(ctx context.Context, req StylistRequest) (string, error)
}

// Engine produces outfit recommendations. It holds no per-request state and is safe for concurrent use.
type Engine struct {
	rules          *Rules
	now            func() time.Time
	stylist        Stylist
	stylistTimeout time.Duration
	products       ProductFinder
	log            *zap.SugaredLogger
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the clock used to determine the current season
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithStylist enables free-text enrichment of the top recommendation
func WithStylist(s Stylist, timeout time.Duration) Option {
	return func(e *Engine) {
		e.stylist = s
		if timeout > 0 {
			e.stylistTimeout = timeout
		}
	}
}

// WithProducts sets the finder used to attach products to missing item suggestions
func WithProducts(p ProductFinder) Option {
	return func(e *Engine) { e.products = p }
}

// WithLogger sets the engine logger
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) { e.log = log }
}

// New builds an engine. Nil rules select the embedded table.
func New(rules *Rules, opts ...Option) (*Engine, error) {
	if rules == nil {
		var err error
		if rules, err = DefaultRules(); err != nil {
			return nil, &EngineError{Op: "load rules", Err: err}
		}
	}
	e := &Engine{
		rules:          rules,
		now:            time.Now,
		stylistTimeout: defaultStylistTimeout,
		log:            zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Rules returns the table the engine scores with
func (e *Engine) Rules() *Rules {
	return e.rules
}

// Recommend ranks outfits for in and attaches missing item suggestions
func (e *Engine) Recommend(ctx context.Context, in Input) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &EngineError{Op: "recommend", Err: err}
	}

	res := &Result{
		Recommendations:  []models.OutfitCandidate{},
		WardrobeAnalysis: e.Analyze(in.Items, in.Profile),
	}
	if len(in.Items) == 0 {
		res.Message = EmptyWardrobeMessage
		return res, nil
	}

	cands := e.generate(in.Items, in.Profile, in.Occasion)
	if len(cands) > maxRecommendations {
		cands = cands[:maxRecommendations]
	}
	requested := e.rules.canonicalOccasion(in.Occasion)
	for _, c := range cands {
		outfit := e.toOutfit(c, in.Profile)
		target := requested
		if target == "" {
			target = c.occasion
		}
		outfit.MissingItems = e.rules.missingItems(c, in.Profile, target)
		res.Recommendations = append(res.Recommendations, outfit)
	}
	if len(res.Recommendations) == 0 {
		res.Message = "Add tops and bottoms or a dress to build complete outfits"
	}

	e.fillProducts(ctx, res.Recommendations)
	if len(cands) > 0 {
		e.enrich(ctx, &res.Recommendations[0], cands[0], in.Profile)
	}

	if err := ctx.Err(); err != nil {
		return nil, &EngineError{Op: "recommend", Err: err}
	}
	return res, nil
}

// enrich replaces heuristic notes with stylist output when one is configured
func (e *Engine) enrich(ctx context.Context, outfit *models.OutfitCandidate, c *candidate, profile Profile) {
	if e.stylist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, e.stylistTimeout)
	defer cancel()

	labels := make([]string, len(c.items))
	for i, it := range c.items {
		labels[i] = label(it)
	}
	notes, err := e.stylist.StyleNotes(ctx, StylistRequest{
		Description:    outfit.Description,
		Items:          labels,
		Occasion:       outfit.Occasion,
		PreferredStyle: profile.PreferredStyle,
		BodyType:       profile.BodyType,
		SkinTone:       profile.SkinTone,
		Notes:          outfit.StyleNotes,
	})
	if err != nil {
		e.log.Warnw("Stylist enrichment failed, keeping heuristic notes", "error", err)
		return
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		outfit.StyleNotes = notes
	}
}

// Fallback builds a single generic outfit from the first items of the wardrobe
func (e *Engine) Fallback(items []models.WardrobeItem) *Result {
	res := &Result{
		Recommendations:  []models.OutfitCandidate{},
		WardrobeAnalysis: e.Analyze(items, Profile{}),
		Degraded:         true,
	}
	if len(items) == 0 {
		res.Message = EmptyWardrobeMessage
		return res
	}

	w := newWardrobe(items)
	var picked []models.WardrobeItem
	if tops, bottoms := w.of(models.CategoryTops), w.of(models.CategoryBottoms); len(tops) > 0 && len(bottoms) > 0 {
		picked = []models.WardrobeItem{tops[0], bottoms[0]}
	} else if len(items) >= 2 {
		picked = items[:2]
	} else {
		picked = items[:1]
	}

	ids := make([]string, len(picked))
	names := make([]string, len(picked))
	for i, it := range picked {
		ids[i] = it.ID.Hex()
		names[i] = label(it)
	}
	res.Recommendations = append(res.Recommendations, models.OutfitCandidate{
		ID:           fmt.Sprintf("fallback-%08x", fnvHash(itemSignature(picked))),
		Items:        ids,
		Confidence:   0.5,
		Occasion:     e.rules.DefaultOccasion,
		Description:  "A simple everyday outfit: " + strings.Join(names, " with "),
		StyleNotes:   "Keep it simple and comfortable.",
		MissingItems: []models.MissingItemSuggestion{},
	})
	return res
}
