// Package safeguard asks the generation service whether an outgoing message
// reads as typed by a person. It runs after the spam guard has passed.
package safeguard

import (
	"context"
	"strings"

	"outreach/internal/llm"
	"outreach/internal/logging"
)

const defaultReason = "Safeguard: Nachricht klingt nicht menschlich"

const instruction = `Du prüfst eine kurze Nachricht, die angeblich ein Mensch auf dem Handy getippt hat, auf Anzeichen von KI-Texten.

Achte auf:
- Gedankenstriche als Stilmittel (—, --, –)
- durchgehende Kleinschreibung, bei einem Erstkontakt unüblich
- die Behauptung, Kunden oder Interessenten zu haben
- zu glatte Formulierungen, die niemand so tippen würde
- Listen, Aufzählungen oder Markdown
- typische Floskeln wie "Gerne!", "Selbstverständlich!" oder "Das ist eine tolle Frage!"
- unnatürlich gebaute oder durchweg perfekt ausformulierte Sätze

Antworte in der ersten Zeile mit GENAU einem Wort:
- "JA", wenn ein Mensch das getippt haben könnte
- "NEIN", wenn es nach KI klingt

In der zweiten Zeile folgt ein kurzer Grund (höchstens 10 Wörter).`

// Verdict reads a JA/NEIN answer. A first line starting with "JA" passes;
// otherwise the second line is the reason, or fallback when there is none.
func Verdict(resp, fallback string) (bool, string) {
	lines := strings.Split(strings.TrimSpace(resp), "\n")
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(lines[0])), "JA") {
		return true, ""
	}
	if len(lines) > 1 {
		if r := strings.TrimSpace(lines[1]); r != "" {
			return false, r
		}
	}
	return false, fallback
}

type Checker struct {
	client llm.Client
}

// New returns a checker, or nil when client is nil. A nil checker passes everything.
func New(client llm.Client) *Checker {
	if client == nil {
		return nil
	}
	return &Checker{client: client}
}

// Check fails open: a service error lets the message through.
func (c *Checker) Check(ctx context.Context, text string) (bool, string) {
	if c == nil {
		return true, ""
	}
	resp, err := c.client.Generate(ctx, instruction, text)
	if err != nil {
		logging.Warn("safeguard_error", map[string]any{"error": err.Error()})
		return true, ""
	}
	return Verdict(resp, defaultReason)
}
