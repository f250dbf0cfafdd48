// Package rules holds the keyword tables and thresholds that drive analysis
// and validation. Tables are loaded once and must not be mutated afterwards.
package rules

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LocationHint maps a lower-case regular expression to the label stored in
// ListingSignals.LocationQualityHints.
type LocationHint struct {
	Pattern string `yaml:"pattern"`
	Label   string `yaml:"label"`
}

// PropertyFamily is a set of lower-case keywords that identify one property type.
type PropertyFamily struct {
	Type     string   `yaml:"type"`
	Keywords []string `yaml:"keywords"`
}

type Tables struct {
	// Analysis
	PropertyFamilies       []PropertyFamily `yaml:"propertyFamilies"`
	UniqueFeatureKeywords  []string         `yaml:"uniqueFeatureKeywords"`
	LifestyleKeywords      []string         `yaml:"lifestyleKeywords"`
	RenovationKeywords     []string         `yaml:"renovationKeywords"`
	UrgencyKeywords        []string         `yaml:"urgencyKeywords"`
	EmotionalWords         []string         `yaml:"emotionalWords"`
	AmenityKeywords        []string         `yaml:"amenityKeywords"`
	InfrastructureKeywords []string         `yaml:"infrastructureKeywords"`
	LocationHints          []LocationHint   `yaml:"locationHints"`
	InformalMarkers        []string         `yaml:"informalMarkers"`
	FormalMarkers          []string         `yaml:"formalMarkers"`

	// Personalization
	HiddenValueKeywords []string `yaml:"hiddenValueKeywords"`
	TitleEmotionWords   []string `yaml:"titleEmotionWords"`

	// Spam guard
	ForbiddenWords   []string `yaml:"forbiddenWords"`
	ForbiddenPhrases []string `yaml:"forbiddenPhrases"`
	ForbiddenOpeners []string `yaml:"forbiddenOpeners"`
	ClosingGreetings []string `yaml:"closingGreetings"`

	// Generation cleanup
	PreamblePrefixes []string `yaml:"preamblePrefixes"`

	// Reply classification, lower-case
	AggressiveKeywords []string `yaml:"aggressiveKeywords"`
	PoliteNoKeywords   []string `yaml:"politeNoKeywords"`
	PositiveKeywords   []string `yaml:"positiveKeywords"`
}

// Load returns Default() with any non-empty list from the YAML file at path
// replacing the built-in one. An empty path yields the defaults.
func Load(path string) (Tables, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return t, errors.Wrapf(err, "read rule tables %s", path)
	}
	var over Tables
	if err := yaml.Unmarshal(b, &over); err != nil {
		return t, errors.Wrapf(err, "parse rule tables %s", path)
	}
	t.overlay(over)
	return t, nil
}

func (t *Tables) overlay(o Tables) {
	if len(o.PropertyFamilies) > 0 {
		t.PropertyFamilies = o.PropertyFamilies
	}
	if len(o.LocationHints) > 0 {
		t.LocationHints = o.LocationHints
	}
	lists := []struct{ dst, src *[]string }{
		{&t.UniqueFeatureKeywords, &o.UniqueFeatureKeywords},
		{&t.LifestyleKeywords, &o.LifestyleKeywords},
		{&t.RenovationKeywords, &o.RenovationKeywords},
		{&t.UrgencyKeywords, &o.UrgencyKeywords},
		{&t.EmotionalWords, &o.EmotionalWords},
		{&t.AmenityKeywords, &o.AmenityKeywords},
		{&t.InfrastructureKeywords, &o.InfrastructureKeywords},
		{&t.InformalMarkers, &o.InformalMarkers},
		{&t.FormalMarkers, &o.FormalMarkers},
		{&t.HiddenValueKeywords, &o.HiddenValueKeywords},
		{&t.TitleEmotionWords, &o.TitleEmotionWords},
		{&t.ForbiddenWords, &o.ForbiddenWords},
		{&t.ForbiddenPhrases, &o.ForbiddenPhrases},
		{&t.ForbiddenOpeners, &o.ForbiddenOpeners},
		{&t.ClosingGreetings, &o.ClosingGreetings},
		{&t.PreamblePrefixes, &o.PreamblePrefixes},
		{&t.AggressiveKeywords, &o.AggressiveKeywords},
		{&t.PoliteNoKeywords, &o.PoliteNoKeywords},
		{&t.PositiveKeywords, &o.PositiveKeywords},
	}
	for _, l := range lists {
		if len(*l.src) > 0 {
			*l.dst = *l.src
		}
	}
}
