package gate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach/internal/config"
	"outreach/internal/llm"
	"outreach/internal/model"
)

func listing() model.ListingSignals {
	s := model.NewListingSignals("Schönes Haus in Freiburg, privat zu verkaufen", "L1", "")
	s.PropertyType = model.PropertyHaus
	s.Price = 385000
	s.PLZ = "79111"
	s.City = "Freiburg im Breisgau"
	s.Bundesland = "Baden-Württemberg"
	s.Wohnflaeche = 120
	s.Zimmer = 5
	return s
}

func reply(text string, err error) llm.Func {
	return func(context.Context, string, string) (string, error) { return text, err }
}

func TestCheckCriteriaPassesMatchingListing(t *testing.T) {
	c := config.GateConfig{
		MinPrice:       200000,
		MaxPrice:       500000,
		PropertyTypes:  []string{"haus"},
		PLZPrefixes:    []string{"79", "78"},
		Cities:         []string{"Freiburg"},
		Bundeslaender:  []string{"baden-württemberg"},
		MinWohnflaeche: 80,
		MaxWohnflaeche: 200,
		MinZimmer:      3,
	}
	r := CheckCriteria(listing(), c)
	assert.True(t, r.Passed)
	assert.Empty(t, r.Reason)
}

func TestCheckCriteriaFirstMismatchIsReason(t *testing.T) {
	c := config.GateConfig{MaxPrice: 300000, PLZPrefixes: []string{"10"}, MinZimmer: 6}
	r := CheckCriteria(listing(), c)
	require.False(t, r.Passed)
	assert.Equal(t, RejectCriteria, r.RejectionType)
	assert.Equal(t, "Inserat passt nicht zu Makler-Kriterien: Preis 385000€ über Maximum 300000€", r.Reason)
	assert.Equal(t, []string{
		"Preis 385000€ über Maximum 300000€",
		"PLZ 79111 nicht in Regionen [10]",
		"5 Zimmer unter Minimum 6",
	}, r.Details)
}

func TestCheckCriteriaIgnoresUnknownValues(t *testing.T) {
	s := model.NewListingSignals("", "L", "")
	c := config.GateConfig{MinPrice: 1, PLZPrefixes: []string{"10"}, Cities: []string{"Berlin"}, MinWohnflaeche: 50, MinZimmer: 2}
	assert.True(t, CheckCriteria(s, c).Passed)
}

func TestCheckCriteriaCityContainment(t *testing.T) {
	s := listing()
	s.City = "Freiburg"
	assert.True(t, CheckCriteria(s, config.GateConfig{Cities: []string{"Freiburg im Breisgau"}}).Passed)
	r := CheckCriteria(s, config.GateConfig{Cities: []string{"Berlin"}})
	assert.Equal(t, `Inserat passt nicht zu Makler-Kriterien: Stadt "Freiburg" nicht in [Berlin]`, r.Reason)
}

func TestLLMGate(t *testing.T) {
	ctx := context.Background()
	on := config.GateConfig{LLMCheck: true}

	assert.True(t, New(on, reply("JA\npasst", nil)).Check(ctx, listing()).Passed)
	assert.True(t, New(on, reply("  ja, gerne", nil)).Check(ctx, listing()).Passed)

	r := New(on, reply("NEIN\nVerkäufer wünscht keine Makler\n", nil)).Check(ctx, listing())
	assert.False(t, r.Passed)
	assert.Equal(t, RejectLLM, r.RejectionType)
	assert.Equal(t, "Verkäufer wünscht keine Makler", r.Reason)

	r = New(on, reply("NEIN", nil)).Check(ctx, listing())
	assert.Equal(t, defaultLLMReason, r.Reason)

	assert.True(t, New(on, reply("", errors.New("boom"))).Check(ctx, listing()).Passed, "service errors fail open")
	assert.True(t, New(config.GateConfig{}, reply("NEIN", nil)).Check(ctx, listing()).Passed, "llm check disabled")
}

func TestCriteriaRunBeforeLLM(t *testing.T) {
	called := false
	client := llm.Func(func(context.Context, string, string) (string, error) {
		called = true
		return "JA", nil
	})
	r := New(config.GateConfig{LLMCheck: true, MaxPrice: 1}, client).Check(context.Background(), listing())
	assert.False(t, r.Passed)
	assert.False(t, called)
}

func TestContext(t *testing.T) {
	out := Context(listing(), config.GateConfig{Cities: []string{"Freiburg"}, MinPrice: 100000})
	assert.True(t, strings.HasPrefix(out, "=== INSERAT ===\nSchönes Haus"))
	assert.Contains(t, out, "Städte: Freiburg")
	assert.Contains(t, out, "Preisbereich: 100.000€ bis offen")
	assert.Contains(t, out, "Erkannter Preis: 385000€")
	assert.Contains(t, Context(listing(), config.GateConfig{}), "Keine spezifischen Kriterien hinterlegt.")
}
