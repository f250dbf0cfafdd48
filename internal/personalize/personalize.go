// Package personalize decides which listing details a message should lead
// with and ranks the six message strategies for a listing.
package personalize

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"outreach/internal/model"
	"outreach/internal/rules"
	"outreach/internal/util"
)

// PriceLookup returns the regional average €/m², 0 when unknown.
// *analyzer.Analyzer satisfies it.
type PriceLookup interface {
	MarketPrice(plz, propertyType string) float64
}

// Depth classifies how much personalization material a listing offers.
type Depth string

const (
	DepthDeep    Depth = "deep"
	DepthMedium  Depth = "medium"
	DepthShallow Depth = "shallow"
)

type Engine struct {
	tables rules.Tables
	prices PriceLookup
}

func New(tables rules.Tables, prices PriceLookup) *Engine {
	return &Engine{tables: tables, prices: prices}
}

// Personalize is pure and deterministic for identical signals.
func (e *Engine) Personalize(s model.ListingSignals) model.PersonalizationResult {
	primary := primaryAnchor(s)
	return model.PersonalizationResult{
		PrimaryAnchor:       primary,
		SecondaryAnchors:    secondaryAnchors(s, primary),
		Tone:                s.Tone,
		RecommendedVariants: e.RankVariants(s),
		PriceInsight:        e.priceInsight(s),
		EmotionalHook:       e.emotionalHook(s),
	}
}

// Depth counts anchors: features, renovation, location hints and a known price assessment.
func (e *Engine) Depth(s model.ListingSignals) Depth {
	n := len(s.UniqueFeatures) + len(s.LocationQualityHints)
	if s.RenovationHistory != "" {
		n++
	}
	if s.PriceAssessment != model.PriceUnknown {
		n++
	}
	switch {
	case n >= 5:
		return DepthDeep
	case n >= 2:
		return DepthMedium
	}
	return DepthShallow
}

func primaryAnchor(s model.ListingSignals) string {
	if len(s.UniqueFeatures) > 0 {
		// longest context wins, earlier insertion on ties
		best := s.UniqueFeatures[0]
		for _, f := range s.UniqueFeatures[1:] {
			if utf8.RuneCountInString(f) > utf8.RuneCountInString(best) {
				best = f
			}
		}
		return best
	}
	if s.RenovationHistory != "" {
		return s.RenovationHistory
	}
	if len(s.LifestyleSignals) > 0 && len(s.LocationQualityHints) > 0 {
		return s.LocationQualityHints[0] + " — " + strings.Join(lo.Slice(s.LifestyleSignals, 0, 2), ", ")
	}
	if s.PriceAssessment == model.BelowMarket && s.PricePerSqm > 0 {
		where := s.City
		if where == "" {
			where = s.PLZ
		}
		return fmt.Sprintf("%d€/m² in %s", int(s.PricePerSqm), where)
	}
	if len(s.LocationQualityHints) > 0 {
		return s.LocationQualityHints[0]
	}

	var parts []string
	if s.Wohnflaeche != 0 {
		parts = append(parts, fmt.Sprintf("%dm²", int(s.Wohnflaeche)))
	}
	if s.PropertyType != "" {
		parts = append(parts, s.PropertyType)
	}
	if s.City != "" {
		parts = append(parts, "in "+s.City)
	}
	if len(parts) == 0 {
		return s.Title
	}
	return strings.Join(parts, " ")
}

func secondaryAnchors(s model.ListingSignals, primary string) []string {
	var out []string
	for _, f := range s.UniqueFeatures {
		if f != primary {
			out = append(out, f)
		}
	}
	if s.RenovationHistory != "" && s.RenovationHistory != primary {
		out = append(out, s.RenovationHistory)
	}
	for _, h := range s.LocationQualityHints {
		if h != primary && !lo.Contains(out, h) {
			out = append(out, h)
		}
	}
	if s.Grundstueck > 0 {
		out = append(out, fmt.Sprintf("%dm² Grundstück", int(s.Grundstueck)))
	}
	if len(s.LifestyleSignals) > 0 {
		if combined := strings.Join(lo.Slice(s.LifestyleSignals, 0, 3), ", "); combined != primary {
			out = append(out, combined)
		}
	}
	if out == nil {
		return []string{}
	}
	return lo.Slice(out, 0, 3)
}

func (e *Engine) priceInsight(s model.ListingSignals) string {
	if s.PricePerSqm <= 0 {
		return ""
	}
	ppsqm := int(s.PricePerSqm)
	var avg float64
	if e.prices != nil {
		avg = e.prices.MarketPrice(s.PLZ, s.PropertyType)
	}
	if avg <= 0 {
		return fmt.Sprintf("%d€/m²", ppsqm)
	}

	diff := (s.PricePerSqm - avg) / avg * 100
	switch {
	case diff < -25:
		return fmt.Sprintf("%d€/m² — deutlich unter dem regionalen Durchschnitt von ~%d€/m²", ppsqm, int(avg))
	case diff < -10:
		return fmt.Sprintf("%d€/m² — unter dem regionalen Durchschnitt von ~%d€/m²", ppsqm, int(avg))
	case diff > 25:
		return fmt.Sprintf("%d€/m² — über dem regionalen Durchschnitt von ~%d€/m²", ppsqm, int(avg))
	}
	return fmt.Sprintf("%d€/m² (Marktschnitt: ~%d€/m²)", ppsqm, int(avg))
}

func (e *Engine) emotionalHook(s model.ListingSignals) string {
	var parts []string
	if s.Title != "" && util.ContainsAnyCaseInsensitive(s.Title, e.tables.TitleEmotionWords) {
		parts = append(parts, s.Title)
	}
	switch {
	case lo.Contains(s.LocationQualityHints, "Wald") || lo.Contains(s.LocationQualityHints, "Waldnähe"):
		parts = append(parts, "am Wald")
	case lo.Contains(s.LocationQualityHints, "ruhige Lage"):
		parts = append(parts, "ruhige Lage")
	}
	if lo.Contains(s.LifestyleSignals, "Familie") || lo.Contains(s.LifestyleSignals, "Kinder") {
		parts = append(parts, "Familienhaus")
	}
	return strings.Join(parts, " — ")
}

// Scores returns the additive fit score of every variant.
func (e *Engine) Scores(s model.ListingSignals) map[model.MessageVariant]float64 {
	sc := make(map[model.MessageVariant]float64, 6)

	sc[model.SpecificObserver] += float64(len(s.UniqueFeatures)) * 2
	if s.DescriptionEffort == model.EffortHigh {
		sc[model.SpecificObserver]++
	}

	switch s.PriceAssessment {
	case model.BelowMarket:
		sc[model.MarketInsider] += 4
	case model.AboveMarket:
		sc[model.MarketInsider] += 2
	}
	if s.PricePerSqm > 0 {
		sc[model.MarketInsider]++
	}

	if s.SellerEmotion == model.EmotionProud {
		sc[model.EmpatheticPeer] += 3
	}
	if s.DescriptionEffort == model.EffortHigh {
		sc[model.EmpatheticPeer] += 2
	}
	if s.IsVB {
		sc[model.EmpatheticPeer]++
	}

	sc[model.CuriousNeighbor] += float64(len(s.LocationQualityHints)) * 1.5
	if len(s.LifestyleSignals) > 0 {
		sc[model.CuriousNeighbor]++
	}
	if s.Grundstueck > 500 {
		sc[model.CuriousNeighbor]++
	}

	// always viable
	sc[model.QuietExpert] += 2
	if s.IsVB {
		sc[model.QuietExpert]++
	}
	if s.Price > 0 && s.Wohnflaeche > 0 {
		sc[model.QuietExpert]++
	}

	lower := strings.ToLower(s.RawText)
	for _, kw := range e.tables.HiddenValueKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			sc[model.ValueSpotter] += 2
		}
	}
	if s.Grundstueck > 0 && s.Grundstueck > s.Wohnflaeche*3 {
		sc[model.ValueSpotter] += 1.5
	}
	return sc
}

// RankVariants orders all six variants by score, descending; ties keep
// declaration order.
func (e *Engine) RankVariants(s model.ListingSignals) []model.MessageVariant {
	sc := e.Scores(s)
	ranked := model.AllVariants()
	sort.SliceStable(ranked, func(i, j int) bool { return sc[ranked[i]] > sc[ranked[j]] })
	return ranked
}
