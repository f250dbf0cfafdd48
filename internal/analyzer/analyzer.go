// Package analyzer turns raw classified-listing text into model.ListingSignals.
//
// Extraction is pattern based and never fails: a field whose pattern does not
// match keeps its default value.
package analyzer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"outreach/internal/market"
	"outreach/internal/model"
	"outreach/internal/rules"
	"outreach/internal/util"
)

const maxFeatureContextLen = 120

var (
	pricePattern     = regexp.MustCompile(`(\d{1,3}(?:\.\d{3})*(?:,\d{1,2})?)\s*(?:€|EUR)`)
	vbPattern        = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])VB(?:[^\p{L}\p{N}_]|$)|Verhandlungsbasis`)
	wohnflaechePat   = regexp.MustCompile(`(?i)(?:Wohnfläche|Wohnfl)\s*[\n:]*\s*(\d+(?:[,.]\d+)?)\s*m`)
	grundstueckPat   = regexp.MustCompile(`(?i)(?:Grundstücks?fläche|Grundst)\s*[\n:]*\s*(\d+(?:[,.]\d+)?)\s*m`)
	zimmerPat        = regexp.MustCompile(`(?i)Zimmer\s*[\n:]*\s*(\d+(?:[,.]\d+)?)`)
	baujahrPat       = regexp.MustCompile(`(?i)Baujahr\s*[\n:]*\s*(\d{4})`)
	etagenPat        = regexp.MustCompile(`(?i)Etagen\s*[\n:]*\s*(\d+)`)
	locationPat      = regexp.MustCompile(`(\d{5})\s+(\S+(?:\s+\S+)*?)\s*[-–]\s*(.+?)(?:\n|$)`)
	plzPat           = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(\d{5})(?:[^\p{L}\p{N}_]|$)`)
	descriptionPat   = regexp.MustCompile(`Beschreibung\s*\n([\s\S]+?)\n(?:Standort|Anbieter|$)`)
	informalPronouns = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(?:du|dir|dich|dein|deine|deinem|deinen|deiner|euch|euer|eure)(?:[^\p{L}\p{N}_]|$)`)
	formalPronouns   = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(?:Ihnen|Ihrem|Ihren|Ihrer)(?:[^\p{L}\p{N}_]|$)`)
)

type locationHint struct {
	re    *regexp.Regexp
	label string
}

// Analyzer extracts signals using a fixed rule table and a market price table.
type Analyzer struct {
	tables   rules.Tables
	prices   market.Table
	hints    []locationHint
	features []*regexp.Regexp
}

// New builds an analyzer. Location hint patterns that fail to compile are skipped.
func New(tables rules.Tables, prices market.Table) *Analyzer {
	a := &Analyzer{tables: tables, prices: prices}
	for _, h := range tables.LocationHints {
		re, err := regexp.Compile(h.Pattern)
		if err != nil {
			continue
		}
		a.hints = append(a.hints, locationHint{re: re, label: h.Label})
	}
	for _, kw := range tables.UniqueFeatureKeywords {
		a.features = append(a.features, regexp.MustCompile(`(?i)[^.\n]*`+regexp.QuoteMeta(kw)+`[^.\n]*`))
	}
	return a
}

// Analyze runs every extraction stage over rawText.
func (a *Analyzer) Analyze(rawText, listingID, listingURL string) model.ListingSignals {
	s := model.NewListingSignals(rawText, listingID, listingURL)
	lower := strings.ToLower(rawText)

	a.extractTitle(&s, lower)
	extractPrice(&s, lower)
	extractPropertyDetails(&s)
	a.extractLocation(&s, lower)
	a.extractFeatures(&s, lower)
	a.extractRenovation(&s)
	s.LifestyleSignals = containedKeywords(lower, a.tables.LifestyleKeywords)
	s.Amenities = containedKeywords(lower, a.tables.AmenityKeywords)
	s.Infrastructure = containedKeywords(lower, a.tables.InfrastructureKeywords)
	a.assessPrice(&s)
	a.detectSellerPsychology(&s, lower)
	a.detectTone(&s, lower)
	return s
}

// MarketPrice returns the regional average €/m² or 0 when unknown.
func (a *Analyzer) MarketPrice(plz, propertyType string) float64 {
	return a.prices.Lookup(plz, propertyType)
}

func (a *Analyzer) extractTitle(s *model.ListingSignals, lower string) {
	lines := strings.Split(strings.TrimSpace(s.RawText), "\n")
	s.Title = strings.TrimSpace(lines[0])
	s.PropertyType = model.PropertyImmobilie
	for _, fam := range a.tables.PropertyFamilies {
		if lo.SomeBy(fam.Keywords, func(k string) bool { return strings.Contains(lower, strings.ToLower(k)) }) {
			s.PropertyType = fam.Type
			return
		}
	}
}

func extractPrice(s *model.ListingSignals, lower string) {
	if m := pricePattern.FindStringSubmatch(s.RawText); m != nil {
		num := strings.ReplaceAll(strings.ReplaceAll(m[1], ".", ""), ",", ".")
		if f, err := strconv.ParseFloat(num, 64); err == nil {
			s.Price = int(f)
		}
	}
	s.IsVB = vbPattern.MatchString(s.RawText)

	switch {
	case strings.Contains(lower, "keine") && strings.Contains(lower, "provision"):
		s.Provision = "keine"
		s.HasProvisionNote = true
	case strings.Contains(lower, "provision") || strings.Contains(lower, "courtage"):
		s.Provision = "vorhanden"
		s.HasProvisionNote = true
	}
}

func parseDecimal(v string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil {
		return 0
	}
	return f
}

func extractPropertyDetails(s *model.ListingSignals) {
	text := s.RawText
	if m := wohnflaechePat.FindStringSubmatch(text); m != nil {
		s.Wohnflaeche = parseDecimal(m[1])
	}
	if m := grundstueckPat.FindStringSubmatch(text); m != nil {
		s.Grundstueck = parseDecimal(m[1])
	}
	if m := zimmerPat.FindStringSubmatch(text); m != nil {
		s.Zimmer = int(parseDecimal(m[1]))
	}
	if m := baujahrPat.FindStringSubmatch(text); m != nil {
		s.Baujahr, _ = strconv.Atoi(m[1])
	}
	if m := etagenPat.FindStringSubmatch(text); m != nil {
		s.Etagen, _ = strconv.Atoi(m[1])
	}
	if s.Price > 0 && s.Wohnflaeche > 0 {
		s.PricePerSqm = math.RoundToEven(float64(s.Price) / s.Wohnflaeche)
	}
}

func (a *Analyzer) extractLocation(s *model.ListingSignals, lower string) {
	if m := locationPat.FindStringSubmatch(s.RawText); m != nil {
		s.PLZ = m[1]
		s.Bundesland = strings.TrimSpace(m[2])
		s.City = strings.TrimSpace(m[3])
	} else if m := plzPat.FindStringSubmatch(s.RawText); m != nil {
		s.PLZ = m[1]
	}
	for _, h := range a.hints {
		if h.re.MatchString(lower) {
			s.LocationQualityHints = append(s.LocationQualityHints, h.label)
		}
	}
}

// extractFeatures stores the sentence around each unique-feature keyword, in
// keyword order, deduplicated by the extracted context.
func (a *Analyzer) extractFeatures(s *model.ListingSignals, lower string) {
	seen := map[string]bool{}
	for i, kw := range a.tables.UniqueFeatureKeywords {
		if !strings.Contains(lower, strings.ToLower(kw)) {
			continue
		}
		ctx := a.features[i].FindString(s.RawText)
		if ctx == "" {
			if !seen[kw] {
				seen[kw] = true
				s.UniqueFeatures = append(s.UniqueFeatures, kw)
			}
			continue
		}
		ctx = util.StripBullet(strings.TrimSpace(ctx))
		if seen[ctx] {
			continue
		}
		seen[ctx] = true
		if utf8.RuneCountInString(ctx) < maxFeatureContextLen {
			s.UniqueFeatures = append(s.UniqueFeatures, ctx)
		} else {
			s.UniqueFeatures = append(s.UniqueFeatures, kw)
		}
	}
}

func (a *Analyzer) extractRenovation(s *model.ListingSignals) {
	for _, kw := range a.tables.RenovationKeywords {
		if !util.ContainsFold(s.RawText, kw) {
			continue
		}
		for _, line := range strings.Split(s.RawText, "\n") {
			if !util.ContainsFold(line, kw) {
				continue
			}
			if cleaned := util.StripBullet(strings.TrimSpace(line)); cleaned != "" {
				s.RenovationHistory = cleaned
				return
			}
		}
	}
}

func containedKeywords(lower string, keywords []string) []string {
	out := []string{}
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			out = append(out, kw)
		}
	}
	return out
}

func (a *Analyzer) assessPrice(s *model.ListingSignals) {
	s.PriceAssessment = model.PriceUnknown
	if s.PricePerSqm <= 0 || s.PLZ == "" {
		return
	}
	avg := a.prices.Lookup(s.PLZ, s.PropertyType)
	if avg <= 0 {
		return
	}
	ratio := s.PricePerSqm / avg
	switch {
	case ratio < 0.75:
		s.PriceAssessment = model.BelowMarket
	case ratio > 1.25:
		s.PriceAssessment = model.AboveMarket
	default:
		s.PriceAssessment = model.AtMarket
	}
}

func (a *Analyzer) detectSellerPsychology(s *model.ListingSignals, lower string) {
	desc := s.RawText
	if m := descriptionPat.FindStringSubmatch(s.RawText); m != nil {
		desc = m[1]
	}
	switch words := util.WordCount(desc); {
	case words > 150:
		s.DescriptionEffort = model.EffortHigh
	case words > 50:
		s.DescriptionEffort = model.EffortMedium
	default:
		s.DescriptionEffort = model.EffortLow
	}

	// urgency wins over pride
	if util.ContainsAnyCaseInsensitive(lower, a.tables.UrgencyKeywords) {
		s.SellerEmotion = model.EmotionUrgent
		return
	}
	if s.DescriptionEffort == model.EffortHigh || util.ContainsAnyCaseInsensitive(lower, a.tables.EmotionalWords) {
		s.SellerEmotion = model.EmotionProud
		return
	}
	s.SellerEmotion = model.EmotionNeutral
}

func (a *Analyzer) detectTone(s *model.ListingSignals, lower string) {
	contains := func(m string) bool { return strings.Contains(lower, strings.ToLower(m)) }
	informal := lo.CountBy(a.tables.InformalMarkers, contains)
	formal := lo.CountBy(a.tables.FormalMarkers, contains)

	if informalPronouns.MatchString(lower) {
		informal += 3
	}
	// formal pronouns are matched case-sensitively on the raw text
	if formalPronouns.MatchString(s.RawText) {
		formal += 3
	}
	if strings.Contains(s.RawText, "...") || strings.Count(s.RawText, "!") > 2 {
		informal++
	}

	s.Tone = model.ToneSie
	if informal > formal {
		s.Tone = model.ToneDu
	}
}
