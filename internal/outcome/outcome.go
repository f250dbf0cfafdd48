// Package outcome classifies seller replies.
package outcome

import (
	"context"
	"strings"

	"outreach/internal/llm"
	"outreach/internal/logging"
	"outreach/internal/model"
	"outreach/internal/rules"
	"outreach/internal/util"
)

const instruction = `Ordne die Antwort eines privaten Immobilienverkäufers auf Kleinanzeigen ein. Sie ist die Reaktion auf unsere erste Nachricht.

Kategorien:
- positiv_offen: freundlich, geht auf die Frage ein, offen für ein Gespräch
- positiv_kurz: knapp, aber freundlich (etwa "Ja" oder "Danke für die Info")
- neutral: beantwortet die Frage ohne Wärme und ohne Ablehnung
- negativ_ablehnend: kein Interesse, höflich abgelehnt
- negativ_aggressiv: verärgert, wirft Spam vor, droht mit Meldung oder beleidigt

Antworte ausschließlich mit dem Namen einer Kategorie, zum Beispiel "positiv_offen".`

// category tokens in match order
var tokens = []struct {
	token     string
	sentiment model.ReplySentiment
}{
	{"positiv_offen", model.PositiveOpen},
	{"positiv_kurz", model.PositiveShort},
	{"neutral", model.Neutral},
	{"negativ_ablehnend", model.NegativePolite},
	{"negativ_aggressiv", model.NegativeAggressive},
}

const shortReplyWords = 10

type Tracker struct {
	tables rules.Tables
	client llm.Client
}

// New returns a tracker. Without a client only keywords are used.
func New(tables rules.Tables, client llm.Client) *Tracker {
	return &Tracker{tables: tables, client: client}
}

// ClassifyReply asks the classifier when configured and falls back to
// keywords on any error or unrecognised answer.
func (t *Tracker) ClassifyReply(ctx context.Context, text string) model.ReplySentiment {
	if t.client != nil {
		if s, ok := t.classifyLLM(ctx, text); ok {
			return s
		}
	}
	return t.ClassifyKeywords(text)
}

func (t *Tracker) classifyLLM(ctx context.Context, text string) (model.ReplySentiment, bool) {
	resp, err := t.client.Generate(ctx, instruction, text)
	if err != nil {
		logging.Warn("reply_classify_error", map[string]any{"error": err.Error()})
		return "", false
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	for _, c := range tokens {
		if strings.Contains(resp, c.token) {
			return c.sentiment, true
		}
	}
	return "", false
}

// ClassifyKeywords checks aggressive, then polite refusals, then positive words.
func (t *Tracker) ClassifyKeywords(text string) model.ReplySentiment {
	has := func(kws []string) bool { return util.ContainsAnyCaseInsensitive(text, kws) }
	switch {
	case has(t.tables.AggressiveKeywords):
		return model.NegativeAggressive
	case has(t.tables.PoliteNoKeywords):
		return model.NegativePolite
	case has(t.tables.PositiveKeywords):
		if len(strings.Fields(text)) < shortReplyWords {
			return model.PositiveShort
		}
		return model.PositiveOpen
	}
	return model.Neutral
}

// ShouldContinueOutreach is false after either negative reply.
func ShouldContinueOutreach(s model.ReplySentiment) bool {
	return !s.IsNegative()
}
