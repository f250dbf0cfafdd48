package spamguard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach/internal/config"
	"outreach/internal/llm"
	"outreach/internal/model"
	"outreach/internal/rules"
)

const good = "Der gemütliche Kaminofen im Wohnzimmer sieht toll aus, ist der noch original?"

func kaminSignals() model.ListingSignals {
	s := model.NewListingSignals("", "L1", "")
	s.UniqueFeatures = []string{"gemütlicher Kaminofen im Wohnzimmer"}
	s.Price = 385000
	s.Wohnflaeche = 120
	s.PLZ = "79111"
	return s
}

func newGuard(scorer llm.Client) *Guard {
	return New(rules.Default(), config.Default().Messaging, scorer)
}

func TestValidatePassesWithoutScorer(t *testing.T) {
	res := newGuard(nil).Validate(context.Background(), good, kaminSignals())
	assert.True(t, res.Passed, res.RejectionReason())
	assert.Zero(t, res.Score)
	assert.Empty(t, res.RejectionReasons)
}

func TestForbiddenWordAnyCasingFails(t *testing.T) {
	res := newGuard(nil).Validate(context.Background(), "Der Kaminofen wirkt toll, sind Sie mit einem MAKLER im Gespräch?", kaminSignals())
	assert.False(t, res.Passed)
	assert.Zero(t, res.Score)
	assert.Equal(t, []string{"Verbotenes Wort: 'Makler'"}, res.RejectionReasons)
}

func TestQuestionMarkRules(t *testing.T) {
	g := newGuard(nil)
	res := g.Validate(context.Background(), "Der Kaminofen im Wohnzimmer sieht toll aus.", kaminSignals())
	assert.False(t, res.Passed)
	assert.Contains(t, res.RejectionReasons, "Kein Fragezeichen — Nachricht braucht genau einen CTA")
	assert.Contains(t, res.RejectionReasons, "Nachricht muss mit einer Frage enden")

	res = g.Validate(context.Background(), "Ist der Kaminofen original? Und das Parkett?", kaminSignals())
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"Zu viele Fragezeichen: 2 (max 1)"}, res.RejectionReasons)

	res = g.Validate(context.Background(), "Ist der Kaminofen original? Toll.", kaminSignals())
	assert.Equal(t, []string{"Nachricht muss mit einer Frage enden"}, res.RejectionReasons)
}

func TestReasonsAreCollectedInOrder(t *testing.T) {
	text := "Hallo, ich würde gerne den Kaminofen sehen!! Mehr unter www.example.de"
	res := newGuard(nil).Validate(context.Background(), text, kaminSignals())
	require.False(t, res.Passed)
	assert.Equal(t, []string{
		"Verbotene Phrase: 'ich würde gerne'",
		"Verbotener Anfang: 'Hallo...'",
		"Zu viele Ausrufezeichen: 2 (max 1)",
		"Kein Fragezeichen — Nachricht braucht genau einen CTA",
		"Nachricht muss mit einer Frage enden",
		"Enthält URL — nicht erlaubt",
	}, res.RejectionReasons)
}

func TestTooLongAndClosingGreeting(t *testing.T) {
	g := newGuard(nil)
	res := g.Validate(context.Background(), "Der Kaminofen ist schön, ist er noch original, viele Grüße?", kaminSignals())
	assert.Equal(t, []string{"Grußformel am Ende: 'viele grüße'"}, res.RejectionReasons)

	long := "Kaminofen"
	for i := 0; i < 100; i++ {
		long += " wort"
	}
	res = g.Validate(context.Background(), long+"?", kaminSignals())
	assert.Equal(t, []string{"Zu lang: 101 Wörter (max 100)"}, res.RejectionReasons)
}

func TestPersonalizationAnchors(t *testing.T) {
	g := newGuard(nil)
	generic := "Wie lange wohnen Sie schon dort?"
	res := g.Validate(context.Background(), generic, kaminSignals())
	assert.Equal(t, []string{"Keine Personalisierung — kein spezifisches Detail aus der Anzeige gefunden"}, res.RejectionReasons)

	// follow-ups skip the anchor rule
	assert.True(t, g.ValidateFollowUp(context.Background(), generic, kaminSignals()).Passed)

	s := kaminSignals()
	s.UniqueFeatures = nil
	for _, text := range []string{
		"Sind die 385.000 noch verhandelbar?",
		"Sind 385000 noch verhandelbar?",
		"Wie ist die Ecke um 79111 so?",
		"Sind die 120 Quadratmeter gut geschnitten?",
	} {
		assert.True(t, g.Validate(context.Background(), text, s).Passed, text)
	}
	s.City = "Freiburg"
	assert.True(t, g.Validate(context.Background(), "Wie lebt es sich in FREIBURG?", s).Passed)
}

func TestSelfFocus(t *testing.T) {
	res := newGuard(nil).Validate(context.Background(), "Gestern habe ich mir den Kaminofen angesehen, ist er original?", kaminSignals())
	assert.Equal(t, []string{"Zu viel Ich-Fokus am Anfang — beginne mit der Immobilie, nicht mit dir"}, res.RejectionReasons)
}

func TestQualityLayer(t *testing.T) {
	ctx := context.Background()
	reply := func(out string, err error) llm.Client {
		return llm.Func(func(context.Context, string, string) (string, error) { return out, err })
	}

	res := newGuard(reply("Ich gebe 8/10", nil)).Validate(ctx, good, kaminSignals())
	assert.True(t, res.Passed)
	assert.Equal(t, 8, res.Score)

	res = newGuard(reply("4", nil)).Validate(ctx, good, kaminSignals())
	assert.False(t, res.Passed)
	assert.Equal(t, 4, res.Score)
	assert.Equal(t, []string{"LLM-Qualitätsscore 4/10 — unter Minimum von 6"}, res.RejectionReasons)

	res = newGuard(reply("", errors.New("timeout"))).Validate(ctx, good, kaminSignals())
	assert.Equal(t, DefaultScore, res.Score)
	assert.False(t, res.Passed)
}

func TestScorerSkippedWhenRulesFail(t *testing.T) {
	called := false
	g := newGuard(llm.Func(func(context.Context, string, string) (string, error) {
		called = true
		return "10", nil
	}))
	res := g.Validate(context.Background(), "kein fragezeichen", kaminSignals())
	assert.False(t, res.Passed)
	assert.Zero(t, res.Score)
	assert.False(t, called)
}

func TestParseScore(t *testing.T) {
	cases := map[string]int{
		"7":           7,
		"Score: 11":   10,
		"0":           1,
		"abc":         DefaultScore,
		"x12ab dann 7": 7,
		" 9 von 10 ":  9,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseScore(in), in)
	}
}

func TestOverrideGreetingMatchesAnyCasing(t *testing.T) {
	tables := rules.Default()
	tables.ClosingGreetings = []string{"Schönen Gruß"}
	g := New(tables, config.Default().Messaging, nil)
	res := g.Validate(context.Background(), "Der Kaminofen ist schön, schönen gruß, ist er original?", kaminSignals())
	assert.Contains(t, res.RejectionReasons, "Grußformel am Ende: 'Schönen Gruß'")
}
