package recommend

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// StyleSuggestion is emitted when a user with Style owns nothing in MissingCategory
type StyleSuggestion struct {
	Style           string `yaml:"style"`
	MissingCategory string `yaml:"missingCategory"`
	Suggestion      string `yaml:"suggestion"`
}

// Rules holds the keyword tables and thresholds the engine scores with
type Rules struct {
	DefaultOccasion string `yaml:"defaultOccasion"`

	OccasionKeywords map[string][]string `yaml:"occasionKeywords"`
	StyleKeywords    map[string][]string `yaml:"styleKeywords"`
	BodyTypeKeywords map[string][]string `yaml:"bodyTypeKeywords"`
	SeasonKeywords   map[string][]string `yaml:"seasonKeywords"`
	SkinTonePalettes map[string][]string `yaml:"skinTonePalettes"`

	NeutralColors      []string    `yaml:"neutralColors"`
	ComplementaryPairs [][2]string `yaml:"complementaryPairs"`
	GoesWellTogether   [][2]string `yaml:"goesWellTogether"`

	SleevelessKeywords []string `yaml:"sleevelessKeywords"`
	StatementKeywords  []string `yaml:"statementKeywords"`
	LayeringOccasions  []string `yaml:"layeringOccasions"`
	LayeringSeasons    []string `yaml:"layeringSeasons"`

	CategoryThresholds     map[string]int    `yaml:"categoryThresholds"`
	DistinctColorThreshold int               `yaml:"distinctColorThreshold"`
	StrengthMessages       map[string]string `yaml:"strengthMessages"`
	GapMessages            map[string]string `yaml:"gapMessages"`
	CategorySuggestions    map[string]string `yaml:"categorySuggestions"`
	StyleSuggestions       []StyleSuggestion `yaml:"styleSuggestions"`

	occasions     []string
	complementary map[string]map[string]bool
	goesWell      map[string]map[string]bool
}

// colorsKey is the strengths/gaps table entry for palette diversity
const colorsKey = "Colors"

// DefaultRules parses the embedded rules table
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRulesYAML)
}

// LoadRules reads a rules table from path, or the embedded one when path is empty
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rules table
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	r.index()
	return &r, nil
}

func (r *Rules) validate() error {
	var errs []error
	if len(r.OccasionKeywords) == 0 {
		errs = append(errs, errors.New("occasionKeywords is empty"))
	}
	if r.DefaultOccasion == "" {
		errs = append(errs, errors.New("defaultOccasion is required"))
	} else if _, ok := r.OccasionKeywords[r.DefaultOccasion]; !ok {
		errs = append(errs, fmt.Errorf("defaultOccasion %q has no keywords", r.DefaultOccasion))
	}
	if len(r.NeutralColors) == 0 {
		errs = append(errs, errors.New("neutralColors is empty"))
	}
	for cat, n := range r.CategoryThresholds {
		if n < 1 {
			errs = append(errs, fmt.Errorf("categoryThresholds[%s] must be positive", cat))
		}
	}
	if r.DistinctColorThreshold < 1 {
		errs = append(errs, errors.New("distinctColorThreshold must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid rules: %w", errors.Join(errs...))
	}
	return nil
}

// index lower-cases the free-text tables and builds the symmetric pair lookups
func (r *Rules) index() {
	lowerAll := func(m map[string][]string) {
		for k, words := range m {
			for i, w := range words {
				words[i] = strings.ToLower(strings.TrimSpace(w))
			}
			m[k] = words
		}
	}
	lowerAll(r.OccasionKeywords)
	lowerAll(r.StyleKeywords)
	lowerAll(r.BodyTypeKeywords)
	lowerAll(r.SeasonKeywords)
	lowerAll(r.SkinTonePalettes)
	for i, c := range r.NeutralColors {
		r.NeutralColors[i] = colorWords(c)
	}
	for i, w := range r.SleevelessKeywords {
		r.SleevelessKeywords[i] = strings.ToLower(w)
	}
	for i, w := range r.StatementKeywords {
		r.StatementKeywords[i] = strings.ToLower(w)
	}

	r.occasions = make([]string, 0, len(r.OccasionKeywords))
	for occ := range r.OccasionKeywords {
		r.occasions = append(r.occasions, occ)
	}
	sort.Strings(r.occasions)

	r.complementary = pairSet(r.ComplementaryPairs, true)
	r.goesWell = pairSet(r.GoesWellTogether, false)
}

func pairSet(pairs [][2]string, colors bool) map[string]map[string]bool {
	set := make(map[string]map[string]bool)
	add := func(a, b string) {
		if set[a] == nil {
			set[a] = make(map[string]bool)
		}
		set[a][b] = true
	}
	for _, p := range pairs {
		a, b := p[0], p[1]
		if colors {
			a, b = colorWords(a), colorWords(b)
		}
		add(a, b)
		add(b, a)
	}
	return set
}

// lookupFold returns the table entry whose key equals key ignoring case
func lookupFold(m map[string][]string, key string) []string {
	if key == "" {
		return nil
	}
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

func (r *Rules) isNeutral(color string) bool {
	color = colorWords(color)
	if color == "" {
		return false
	}
	for _, n := range r.NeutralColors {
		if hasColorWord(color, n) {
			return true
		}
	}
	return false
}

// areComplementary matches both exact pairs and multi-word colors like "navy blue"
func (r *Rules) areComplementary(a, b string) bool {
	a, b = colorWords(a), colorWords(b)
	if a == "" || b == "" {
		return false
	}
	if r.complementary[a][b] {
		return true
	}
	for x, partners := range r.complementary {
		if !hasColorWord(a, x) {
			continue
		}
		for y := range partners {
			if hasColorWord(b, y) {
				return true
			}
		}
	}
	return false
}

// colorWords lower-cases c and joins its words with single spaces,
// so "Off-White" becomes "off white".
func colorWords(c string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(c), func(r rune) bool {
		return r == ' ' || r == '-' || r == '/' || r == '_' || r == ','
	}), " ")
}

// hasColorWord reports whether name appears in color as whole words.
// Both arguments must already be in colorWords form.
func hasColorWord(color, name string) bool {
	if name == "" {
		return false
	}
	return strings.Contains(" "+color+" ", " "+name+" ")
}

func (r *Rules) goesWellWith(a, b string) bool {
	return r.goesWell[a][b]
}

// complementOf returns a complementary partner for color, or the first neutral
func (r *Rules) complementOf(color string) string {
	color = normalizeColor(color)
	if partners, ok := r.complementary[color]; ok {
		names := make([]string, 0, len(partners))
		for p := range partners {
			names = append(names, p)
		}
		sort.Strings(names)
		return titleCase(names[0])
	}
	return titleCase(r.NeutralColors[0])
}

func (r *Rules) isLayeringOccasion(occasion string) bool {
	return containsFold(r.LayeringOccasions, occasion)
}

func (r *Rules) isLayeringSeason(season string) bool {
	return containsFold(r.LayeringSeasons, season)
}

func normalizeColor(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
