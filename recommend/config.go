package recommend

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig reports recommendation weights that cannot be used.
var ErrInvalidConfig = errors.New("invalid recommend config")

// Default blend weights, boosts and signal multipliers.
const (
	DefaultTagWeight               = 0.6
	DefaultBM25Weight              = 0.4
	DefaultCategoryBoost           = 0.5
	DefaultAuthorBoost             = 0.3
	DefaultFeaturedBoost           = 0.2
	DefaultViewWeight              = 1.0
	DefaultRunWeight               = 2.0
	DefaultSaveWeight              = 3.0
	DefaultPreferenceTagBoost      = 0.5
	DefaultPreferenceCategoryBoost = 0.75
	DefaultColdStartScore          = 1.0
	DefaultLimit                   = 6
)

// Off sets a weight or boost to zero. A plain zero selects the default.
const Off = -1.0

// Config holds the tunable weights of the recommendation builders.
// Zero values use the defaults; [Off] gives an explicit zero.
type Config struct {
	// TagWeight multiplies the number of shared tags.
	TagWeight float64 `yaml:"tag_weight" json:"tag_weight"`

	// BM25Weight multiplies the max-normalized BM25 similarity (related only).
	BM25Weight float64 `yaml:"bm25_weight" json:"bm25_weight"`

	// CategoryBoost is added when categories match.
	CategoryBoost float64 `yaml:"category_boost" json:"category_boost"`

	// AuthorBoost is added when authors match.
	AuthorBoost float64 `yaml:"author_boost" json:"author_boost"`

	// FeaturedBoost is added to featured candidates that already score above zero.
	FeaturedBoost float64 `yaml:"featured_boost" json:"featured_boost"`

	// ViewWeight, RunWeight and SaveWeight scale history similarity by signal
	// kind. They must satisfy SaveWeight > RunWeight > ViewWeight.
	ViewWeight float64 `yaml:"view_weight" json:"view_weight"`
	RunWeight  float64 `yaml:"run_weight" json:"run_weight"`
	SaveWeight float64 `yaml:"save_weight" json:"save_weight"`

	// PreferenceTagBoost is added per preferred tag a candidate carries.
	PreferenceTagBoost float64 `yaml:"preference_tag_boost" json:"preference_tag_boost"`

	// PreferenceCategoryBoost is added when a candidate is in a preferred category.
	PreferenceCategoryBoost float64 `yaml:"preference_category_boost" json:"preference_category_boost"`

	// ColdStartScore is the score given to featured picks when there is no
	// history and no stated preference.
	ColdStartScore float64 `yaml:"cold_start_score" json:"cold_start_score"`

	// DefaultLimit applies when a call does not set a limit.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
}

func (c Config) withDefaults() Config {
	set := func(v *float64, def float64) {
		switch *v {
		case 0:
			*v = def
		case Off:
			*v = 0
		}
	}
	set(&c.TagWeight, DefaultTagWeight)
	set(&c.BM25Weight, DefaultBM25Weight)
	set(&c.CategoryBoost, DefaultCategoryBoost)
	set(&c.AuthorBoost, DefaultAuthorBoost)
	set(&c.FeaturedBoost, DefaultFeaturedBoost)
	set(&c.ViewWeight, DefaultViewWeight)
	set(&c.RunWeight, DefaultRunWeight)
	set(&c.SaveWeight, DefaultSaveWeight)
	set(&c.PreferenceTagBoost, DefaultPreferenceTagBoost)
	set(&c.PreferenceCategoryBoost, DefaultPreferenceCategoryBoost)
	set(&c.ColdStartScore, DefaultColdStartScore)
	if c.DefaultLimit == 0 {
		c.DefaultLimit = DefaultLimit
	}
	return c
}

// Validate reports whether the config, after defaults, is usable.
func (c Config) Validate() error {
	c = c.withDefaults()
	for name, v := range map[string]float64{
		"tag_weight":                c.TagWeight,
		"bm25_weight":               c.BM25Weight,
		"category_boost":            c.CategoryBoost,
		"author_boost":              c.AuthorBoost,
		"featured_boost":            c.FeaturedBoost,
		"view_weight":               c.ViewWeight,
		"run_weight":                c.RunWeight,
		"save_weight":               c.SaveWeight,
		"preference_tag_boost":      c.PreferenceTagBoost,
		"preference_category_boost": c.PreferenceCategoryBoost,
		"cold_start_score":          c.ColdStartScore,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a finite non-negative number", ErrInvalidConfig, name)
		}
	}
	if !(c.SaveWeight > c.RunWeight && c.RunWeight > c.ViewWeight) {
		return fmt.Errorf("%w: signal weights must satisfy save > run > view", ErrInvalidConfig)
	}
	if c.DefaultLimit < 0 {
		return fmt.Errorf("%w: default_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c Config) kindWeight(kind SignalKind) float64 {
	switch kind {
	case KindSave:
		return c.SaveWeight
	case KindRun:
		return c.RunWeight
	default:
		return c.ViewWeight
	}
}

func (c Config) limit(requested int) int {
	if requested > 0 {
		return requested
	}
	return c.DefaultLimit
}
