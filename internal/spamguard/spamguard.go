// Package spamguard rejects generated messages that read as commercial,
// automated or generic before they reach a seller.
package spamguard

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"outreach/internal/config"
	"outreach/internal/llm"
	"outreach/internal/logging"
	"outreach/internal/metrics"
	"outreach/internal/model"
	"outreach/internal/rules"
	"outreach/internal/util"
)

const (
	// DefaultScore is used when the scoring service fails or answers without a number.
	DefaultScore = 5

	greetingWindow  = 50
	selfFocusWindow = 50
	maxFeatureProbe = 5
)

var urlPattern = regexp.MustCompile(`(?i)https?://|www\.`)

var selfWords = map[string]bool{
	"ich": true, "mein": true, "mir": true, "mich": true,
	"meine": true, "meinem": true, "meinen": true, "meiner": true,
}

const qualityPrompt = `Du bist ein privater Immobilienverkäufer auf Kleinanzeigen. Du bekommst täglich 30-50 Nachrichten, davon 80% Lowball-Angebote und Spam von Maklern.

Bewerte diese Nachricht auf einer Skala von 1-10:
- 1-3: Offensichtlicher Spam/Makler, würde ich ignorieren
- 4-5: Unklar, wahrscheinlich ignorieren
- 6-7: Interessant, könnte antworten
- 8-10: Würde definitiv antworten, fühlt sich echt an

Antworte NUR mit der Zahl (1-10), nichts weiter.`

// Guard runs the rule layer and, when a scorer is configured, the quality layer.
type Guard struct {
	tables rules.Tables
	limits config.MessagingConfig
	scorer llm.Client
}

// New returns a guard. A nil scorer disables the quality layer.
func New(tables rules.Tables, limits config.MessagingConfig, scorer llm.Client) *Guard {
	return &Guard{tables: tables, limits: limits, scorer: scorer}
}

// Validate checks an initial message, including the personalization rule.
func (g *Guard) Validate(ctx context.Context, text string, s model.ListingSignals) model.ValidationResult {
	return g.validate(ctx, text, s, true)
}

// ValidateFollowUp checks a follow-up. Follow-ups refer back to the first
// message, so they need no listing detail of their own.
func (g *Guard) ValidateFollowUp(ctx context.Context, text string, s model.ListingSignals) model.ValidationResult {
	return g.validate(ctx, text, s, false)
}

func (g *Guard) validate(ctx context.Context, text string, s model.ListingSignals, personalized bool) model.ValidationResult {
	var reasons []string
	reasons = append(reasons, g.checkForbiddenWords(text)...)
	reasons = append(reasons, g.checkForbiddenPhrases(text)...)
	reasons = append(reasons, g.checkOpener(text)...)
	reasons = append(reasons, g.checkStructure(text)...)
	if personalized {
		reasons = append(reasons, checkPersonalization(text, s)...)
	}
	reasons = append(reasons, checkSelfFocus(text)...)

	if len(reasons) > 0 {
		return model.ValidationResult{Passed: false, Score: 0, RejectionReasons: reasons}
	}
	if g.scorer == nil {
		return model.ValidationResult{Passed: true}
	}

	score := g.qualityScore(ctx, text)
	metrics.QualityScore.Observe(float64(score))
	if score < g.limits.MinQualityScore {
		return model.ValidationResult{
			Passed: false,
			Score:  score,
			RejectionReasons: []string{
				fmt.Sprintf("LLM-Qualitätsscore %d/10 — unter Minimum von %d", score, g.limits.MinQualityScore),
			},
		}
	}
	return model.ValidationResult{Passed: true, Score: score}
}

func (g *Guard) checkForbiddenWords(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, w := range g.tables.ForbiddenWords {
		if strings.Contains(lower, strings.ToLower(w)) {
			out = append(out, fmt.Sprintf("Verbotenes Wort: '%s'", w))
		}
	}
	return out
}

func (g *Guard) checkForbiddenPhrases(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, p := range g.tables.ForbiddenPhrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			out = append(out, fmt.Sprintf("Verbotene Phrase: '%s'", p))
		}
	}
	return out
}

// checkOpener is case-sensitive and reports the first match only.
func (g *Guard) checkOpener(text string) []string {
	stripped := strings.TrimSpace(text)
	for _, o := range g.tables.ForbiddenOpeners {
		if strings.HasPrefix(stripped, o) {
			return []string{fmt.Sprintf("Verbotener Anfang: '%s...'", o)}
		}
	}
	return nil
}

func (g *Guard) checkStructure(text string) []string {
	var out []string
	if n := util.WordCount(text); n > g.limits.MaxWords {
		out = append(out, fmt.Sprintf("Zu lang: %d Wörter (max %d)", n, g.limits.MaxWords))
	}
	if n := strings.Count(text, "!"); n > g.limits.MaxExclamationMarks {
		out = append(out, fmt.Sprintf("Zu viele Ausrufezeichen: %d (max %d)", n, g.limits.MaxExclamationMarks))
	}
	q := strings.Count(text, "?")
	if q > g.limits.MaxQuestionMarks {
		out = append(out, fmt.Sprintf("Zu viele Fragezeichen: %d (max %d)", q, g.limits.MaxQuestionMarks))
	}
	if q == 0 {
		out = append(out, "Kein Fragezeichen — Nachricht braucht genau einen CTA")
	}
	if !strings.HasSuffix(strings.TrimRightFunc(text, unicode.IsSpace), "?") {
		out = append(out, "Nachricht muss mit einer Frage enden")
	}
	if urlPattern.MatchString(text) {
		out = append(out, "Enthält URL — nicht erlaubt")
	}

	tail := strings.ToLower(text)
	tail = strings.TrimRightFunc(tail, unicode.IsSpace)
	tail = strings.TrimRight(tail, "?")
	tail = strings.TrimRightFunc(tail, unicode.IsSpace)
	tail = lastRunes(tail, greetingWindow)
	for _, greet := range g.tables.ClosingGreetings {
		if strings.Contains(tail, strings.ToLower(greet)) {
			out = append(out, fmt.Sprintf("Grußformel am Ende: '%s'", greet))
		}
	}
	return out
}

// checkPersonalization passes on the first listing detail found in the text.
func checkPersonalization(text string, s model.ListingSignals) []string {
	lower := strings.ToLower(text)

	for _, f := range lo.Slice(s.UniqueFeatures, 0, maxFeatureProbe) {
		for _, w := range strings.Fields(f) {
			if utf8.RuneCountInString(w) > 4 && strings.Contains(lower, strings.ToLower(w)) {
				return nil
			}
		}
	}
	if s.Price != 0 {
		if strings.Contains(strings.ReplaceAll(text, ".", ""), strconv.Itoa(s.Price)) {
			return nil
		}
		if strings.Contains(text, util.FormatThousands(s.Price)) {
			return nil
		}
	}
	if s.City != "" && strings.Contains(lower, strings.ToLower(s.City)) {
		return nil
	}
	if s.PLZ != "" && strings.Contains(text, s.PLZ) {
		return nil
	}
	if s.Wohnflaeche != 0 && strings.Contains(text, strconv.Itoa(int(s.Wohnflaeche))) {
		return nil
	}
	if s.Grundstueck != 0 && strings.Contains(text, strconv.Itoa(int(s.Grundstueck))) {
		return nil
	}
	return []string{"Keine Personalisierung — kein spezifisches Detail aus der Anzeige gefunden"}
}

func checkSelfFocus(text string) []string {
	head := strings.ToLower(firstRunes(strings.TrimSpace(text), selfFocusWindow))
	n := lo.CountBy(words(head), func(w string) bool { return selfWords[w] })
	if n >= 2 {
		return []string{"Zu viel Ich-Fokus am Anfang — beginne mit der Immobilie, nicht mit dir"}
	}
	return nil
}

func (g *Guard) qualityScore(ctx context.Context, text string) int {
	resp, err := g.scorer.Generate(ctx, qualityPrompt, text)
	if err != nil {
		logging.Warn("quality_score_failed", map[string]any{"error": err.Error()})
		return DefaultScore
	}
	return ParseScore(resp)
}

// ParseScore reads the first standalone integer, clamped to [1,10].
// It returns DefaultScore when there is none.
func ParseScore(resp string) int {
	for _, w := range words(strings.TrimSpace(resp)) {
		if strings.IndexFunc(w, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			continue
		}
		n, err := strconv.Atoi(w)
		if err != nil {
			// too many digits for an int
			return 10
		}
		return max(1, min(10, n))
	}
	return DefaultScore
}

// words splits on anything that is not a letter, digit or underscore.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
