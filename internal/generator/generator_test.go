package generator

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach/internal/analyzer"
	"outreach/internal/config"
	"outreach/internal/market"
	"outreach/internal/model"
	"outreach/internal/personalize"
	"outreach/internal/postprocess"
	"outreach/internal/rules"
	"outreach/internal/safeguard"
	"outreach/internal/spamguard"
)

const kaminListing = `Gemütliches Einfamilienhaus mit Garten
385.000 € VB
79111 Baden-Württemberg - Freiburg im Breisgau
Wohnfläche 120 m²
Beschreibung
Wir verkaufen unser Haus.
- gemütlicher Kaminofen im Wohnzimmer
Standort
`

const good = "Der gemütliche Kaminofen im Wohnzimmer sieht toll aus, ist der noch original?"

// scripted returns outputs in order and repeats the last one.
type scripted struct {
	outputs []string
	err     error
	users   []string
}

func (s *scripted) Generate(_ context.Context, _, user string) (string, error) {
	s.users = append(s.users, user)
	if s.err != nil {
		return "", s.err
	}
	i := min(len(s.users)-1, len(s.outputs)-1)
	return s.outputs[i], nil
}

func newGenerator(client *scripted) *Generator {
	tables := rules.Default()
	a := analyzer.New(tables, market.Default())
	cfg := config.Default().Messaging
	return New(a, personalize.New(tables, a), spamguard.New(tables, cfg, nil), client,
		postprocess.New(0, nil), tables.PreamblePrefixes, cfg)
}

func TestGenerateCleansAndPicksTopVariant(t *testing.T) {
	client := &scripted{outputs: []string{`"Nachricht: ` + good + `"`}}
	g := newGenerator(client)

	msg, err := g.Generate(context.Background(), kaminListing, "L1", "https://example.test/L1", nil)
	require.NoError(t, err)
	assert.Equal(t, good, msg.Text)
	assert.Equal(t, 1, msg.GenerationAttempt)
	assert.Equal(t, model.StageInitial, msg.Stage)
	assert.Equal(t, "L1", msg.ListingID)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.GeneratedAt.IsZero())

	s := g.AnalyzeListing(kaminListing)
	tables := rules.Default()
	want := personalize.New(tables, analyzer.New(tables, market.Default())).RankVariants(s)[0]
	assert.Equal(t, want, msg.Variant)
}

func TestGenerateExplicitVariant(t *testing.T) {
	v := model.CuriousNeighbor
	msg, err := newGenerator(&scripted{outputs: []string{good}}).Generate(context.Background(), kaminListing, "L1", "", &v)
	require.NoError(t, err)
	assert.Equal(t, model.CuriousNeighbor, msg.Variant)
}

func TestGenerateRetriesWithFeedback(t *testing.T) {
	client := &scripted{outputs: []string{"Hallo! Schönes Haus.", good}}
	msg, err := newGenerator(client).Generate(context.Background(), kaminListing, "L1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, msg.GenerationAttempt)
	require.Len(t, client.users, 2)
	assert.NotContains(t, client.users[0], "VORHERIGER VERSUCH ABGELEHNT")
	assert.Contains(t, client.users[1], "VORHERIGER VERSUCH ABGELEHNT: ")
	assert.Contains(t, client.users[1], "Bitte korrigiere diese Probleme.")
}

func TestIdenticalOutputIsRejectedAsDuplicate(t *testing.T) {
	client := &scripted{outputs: []string{good}}
	g := newGenerator(client)
	ctx := context.Background()

	_, err := g.Generate(ctx, kaminListing, "L1", "", nil)
	require.NoError(t, err)
	assert.True(t, g.IsDuplicate("  der GEMÜTLICHE kaminofen im   Wohnzimmer sieht toll aus, ist der noch original?"))

	_, err = g.Generate(ctx, kaminListing, "L1", "", nil)
	var gerr *GenerationError
	require.True(t, errors.As(err, &gerr), "got %v", err)
	assert.Equal(t, 3, gerr.Attempts)
	assert.Equal(t, "L1", gerr.ListingID)
	assert.Equal(t, []string{duplicateReason}, gerr.Reasons)
	assert.Len(t, client.users, 4)
	assert.Contains(t, client.users[3], duplicateReason)
}

func TestSeededHashesBlockEarlierMessages(t *testing.T) {
	g := newGenerator(&scripted{outputs: []string{good}})
	g.SeedSentHashes([]string{Hash(good)})
	_, err := g.Generate(context.Background(), kaminListing, "L1", "", nil)
	var gerr *GenerationError
	assert.True(t, errors.As(err, &gerr))
}

func TestHash(t *testing.T) {
	assert.Len(t, Hash("abc"), 16)
	assert.Equal(t, Hash("Hallo  Welt\n"), Hash("hallo welt"))
	assert.NotEqual(t, Hash("hallo welt"), Hash("hallo welt!"))
}

func TestServiceErrorPropagates(t *testing.T) {
	boom := errors.New("upstream down")
	client := &scripted{err: boom}
	_, err := newGenerator(client).Generate(context.Background(), kaminListing, "L1", "", nil)
	require.Error(t, err)
	assert.Equal(t, boom, errors.Cause(err))
	assert.Len(t, client.users, 1, "no retry on service errors")
}

func TestGenerateFollowUp(t *testing.T) {
	text := "Kurz nachgehakt wegen dem Haus, ist das noch zu haben?"
	client := &scripted{outputs: []string{text}}
	g := newGenerator(client)

	msg, err := g.GenerateFollowUp(context.Background(), kaminListing, model.StageFollowUp1, "L1", "")
	require.NoError(t, err)
	assert.Equal(t, text, msg.Text)
	assert.Equal(t, model.StageFollowUp1, msg.Stage)
}

func TestGenerateFollowUpRejectsInvalidStage(t *testing.T) {
	client := &scripted{outputs: []string{good}}
	g := newGenerator(client)
	for _, st := range []model.Stage{model.StageInitial, model.StageDone} {
		_, err := g.GenerateFollowUp(context.Background(), kaminListing, st, "L1", "")
		assert.True(t, errors.Is(err, ErrInvalidStage), "stage %s", st)
	}
	assert.Empty(t, client.users)
}

func TestGenerateAllVariantsIsBestEffort(t *testing.T) {
	n := 0
	distinct := &counting{next: func() string {
		n++
		return fmt.Sprintf("Der Kaminofen im Wohnzimmer wirkt gemütlich, Nummer %d?", n)
	}}
	g := newGenerator(nil)
	g.client = distinct
	out, err := g.GenerateAllVariants(context.Background(), kaminListing, "L1", "")
	require.NoError(t, err)
	assert.Len(t, out, 6)

	// the same text every time: only the first variant gets through
	g = newGenerator(&scripted{outputs: []string{good}})
	out, err = g.GenerateAllVariants(context.Background(), kaminListing, "L1", "")
	require.NoError(t, err)
	assert.Len(t, out, 1)
	_, ok := out[model.SpecificObserver]
	assert.True(t, ok)
}

type counting struct{ next func() string }

func (c *counting) Generate(context.Context, string, string) (string, error) { return c.next(), nil }

func TestGenerationErrorMessage(t *testing.T) {
	e := &GenerationError{ListingID: "L9", Variant: model.ValueSpotter, Attempts: 3}
	assert.Equal(t, "variant ValueSpotter failed after 3 attempts for listing L9", e.Error())
	e.Stage = model.StageFollowUp2
	assert.Equal(t, "FollowUp2 generation failed after 3 attempts for listing L9", e.Error())
}

func TestGenerateWithoutClient(t *testing.T) {
	tables := rules.Default()
	a := analyzer.New(tables, market.Default())
	cfg := config.Default().Messaging
	g := New(a, personalize.New(tables, a), spamguard.New(tables, cfg, nil), nil, nil, nil, cfg)
	_, err := g.Generate(context.Background(), kaminListing, "L1", "", nil)
	assert.ErrorIs(t, err, ErrNoClient)
}

func TestSafeguardRejectionIsFedBack(t *testing.T) {
	client := &scripted{outputs: []string{good}}
	g := newGenerator(client)
	verdicts := &scripted{outputs: []string{"NEIN\nZu glatte Formulierung", "JA"}}
	g.UseSafeguard(safeguard.New(verdicts))

	m, err := g.Generate(context.Background(), kaminListing, "L1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, m.GenerationAttempt)
	require.Len(t, client.users, 2)
	assert.Contains(t, client.users[1], "Zu glatte Formulierung")
	assert.Len(t, verdicts.users, 2)
	// the rejected text was not recorded as sent
	assert.True(t, g.IsDuplicate(good))
}

func TestSafeguardExhaustsAttempts(t *testing.T) {
	g := newGenerator(&scripted{outputs: []string{good}})
	g.UseSafeguard(safeguard.New(&scripted{outputs: []string{"NEIN\nKlingt nach KI"}}))

	_, err := g.Generate(context.Background(), kaminListing, "L1", "", nil)
	var gerr *GenerationError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, []string{"Klingt nach KI"}, gerr.Reasons)
	assert.False(t, g.IsDuplicate(good))
}
