// Package gate decides whether a listing is worth contacting at all, before
// any message is generated.
package gate

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"outreach/internal/config"
	"outreach/internal/llm"
	"outreach/internal/logging"
	"outreach/internal/model"
	"outreach/internal/safeguard"
	"outreach/internal/util"
)

const (
	RejectCriteria = "kriterien_mismatch"
	RejectLLM      = "llm_rejection"
)

const defaultLLMReason = "LLM-Gate: Inserat nicht geeignet"

const instruction = `Du filterst Immobilien-Inserate für einen Makler, der private Verkäufer anschreiben möchte. Entscheide, ob sich eine Kontaktaufnahme lohnt.

Lehne ab, wenn:
- der Verkäufer Maklerkontakt ausdrücklich ablehnt ("keine Makler", "Makleranfragen zwecklos", "nur an Privat" und ähnliche Formulierungen, auch indirekt)
- es kein echtes Verkaufsangebot ist, etwa ein Gesuch, Werbung, ein Duplikat oder ein Scherz
- das Inserat erkennbar von einem Makler oder Immobilienbüro stammt
- zu wenig Inhalt für eine sinnvolle Nachricht vorhanden ist
- das Inserat nicht zum Makler-Profil passt (Region, Typ, Preissegment)

Die bloße Erwähnung von Provision oder Courtage bei den Kaufnebenkosten ist KEIN Ablehnungsgrund.

Akzeptiere private Angebote, die zum Profil passen, auch wenn nicht alle Angaben vollständig sind.

Antworte in der ersten Zeile nur mit "JA" oder "NEIN".
In der zweiten Zeile steht ein kurzer Grund mit höchstens 15 Wörtern.`

// Result is the gate verdict. Details lists every criteria mismatch.
type Result struct {
	Passed        bool     `json:"passed"`
	RejectionType string   `json:"rejection_type,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	Details       []string `json:"details,omitempty"`
}

func pass() Result { return Result{Passed: true} }

// Gate checks broker criteria first and then, when a client is set, asks
// the LLM.
type Gate struct {
	criteria config.GateConfig
	client   llm.Client
}

// New builds a gate. client may be nil; it is also ignored unless
// criteria.LLMCheck is set.
func New(criteria config.GateConfig, client llm.Client) *Gate {
	if !criteria.LLMCheck {
		client = nil
	}
	return &Gate{criteria: criteria, client: client}
}

func (g *Gate) Check(ctx context.Context, s model.ListingSignals) Result {
	if r := CheckCriteria(s, g.criteria); !r.Passed {
		return r
	}
	if g.client != nil {
		if r := g.checkLLM(ctx, s); !r.Passed {
			return r
		}
	}
	return pass()
}

// CheckCriteria compares extracted signals against the broker's hard
// criteria. Unknown signal values never cause a mismatch.
func CheckCriteria(s model.ListingSignals, c config.GateConfig) Result {
	var mismatches []string

	if s.Price > 0 {
		if c.MinPrice > 0 && s.Price < c.MinPrice {
			mismatches = append(mismatches, fmt.Sprintf("Preis %d€ unter Minimum %d€", s.Price, c.MinPrice))
		}
		if c.MaxPrice > 0 && s.Price > c.MaxPrice {
			mismatches = append(mismatches, fmt.Sprintf("Preis %d€ über Maximum %d€", s.Price, c.MaxPrice))
		}
	}

	if len(c.PropertyTypes) > 0 && s.PropertyType != "" {
		if !lo.SomeBy(c.PropertyTypes, func(t string) bool { return strings.EqualFold(t, s.PropertyType) }) {
			mismatches = append(mismatches, fmt.Sprintf("Immobilientyp %q nicht in [%s]", s.PropertyType, strings.Join(c.PropertyTypes, ", ")))
		}
	}

	if len(c.PLZPrefixes) > 0 && s.PLZ != "" {
		if !lo.SomeBy(c.PLZPrefixes, func(p string) bool { return strings.HasPrefix(s.PLZ, p) }) {
			mismatches = append(mismatches, fmt.Sprintf("PLZ %s nicht in Regionen [%s]", s.PLZ, strings.Join(c.PLZPrefixes, ", ")))
		}
	}

	if len(c.Cities) > 0 && s.City != "" {
		city := strings.ToLower(s.City)
		match := lo.SomeBy(c.Cities, func(want string) bool {
			want = strings.ToLower(want)
			return strings.Contains(city, want) || strings.Contains(want, city)
		})
		if !match {
			mismatches = append(mismatches, fmt.Sprintf("Stadt %q nicht in [%s]", s.City, strings.Join(c.Cities, ", ")))
		}
	}

	if len(c.Bundeslaender) > 0 && s.Bundesland != "" {
		if !lo.SomeBy(c.Bundeslaender, func(b string) bool { return strings.EqualFold(b, s.Bundesland) }) {
			mismatches = append(mismatches, fmt.Sprintf("Bundesland %q nicht in [%s]", s.Bundesland, strings.Join(c.Bundeslaender, ", ")))
		}
	}

	if s.Wohnflaeche > 0 {
		if c.MinWohnflaeche > 0 && s.Wohnflaeche < c.MinWohnflaeche {
			mismatches = append(mismatches, fmt.Sprintf("Wohnfläche %gm² unter Minimum %gm²", s.Wohnflaeche, c.MinWohnflaeche))
		}
		if c.MaxWohnflaeche > 0 && s.Wohnflaeche > c.MaxWohnflaeche {
			mismatches = append(mismatches, fmt.Sprintf("Wohnfläche %gm² über Maximum %gm²", s.Wohnflaeche, c.MaxWohnflaeche))
		}
	}

	if c.MinZimmer > 0 && s.Zimmer > 0 && s.Zimmer < c.MinZimmer {
		mismatches = append(mismatches, fmt.Sprintf("%d Zimmer unter Minimum %d", s.Zimmer, c.MinZimmer))
	}

	if len(mismatches) == 0 {
		return pass()
	}
	return Result{
		RejectionType: RejectCriteria,
		Reason:        "Inserat passt nicht zu Makler-Kriterien: " + mismatches[0],
		Details:       mismatches,
	}
}

// checkLLM fails open: a service error lets the listing through.
func (g *Gate) checkLLM(ctx context.Context, s model.ListingSignals) Result {
	resp, err := g.client.Generate(ctx, instruction, Context(s, g.criteria))
	if err != nil {
		logging.Warn("gate_llm_error", map[string]any{"listing_id": s.ListingID, "error": err.Error()})
		return pass()
	}
	ok, reason := safeguard.Verdict(resp, defaultLLMReason)
	if ok {
		return pass()
	}
	return Result{RejectionType: RejectLLM, Reason: reason, Details: []string{reason}}
}

// Context renders the listing, the broker profile and the extracted data
// for the LLM gate.
func Context(s model.ListingSignals, c config.GateConfig) string {
	parts := []string{"=== INSERAT ===", string(lo.Slice([]rune(s.RawText), 0, 2000))}

	parts = append(parts, "\n=== MAKLER-PROFIL ===")
	profile := []string{}
	if len(c.PropertyTypes) > 0 {
		profile = append(profile, "Immobilientypen: "+strings.Join(c.PropertyTypes, ", "))
	}
	if len(c.Cities) > 0 {
		profile = append(profile, "Städte: "+strings.Join(c.Cities, ", "))
	}
	if len(c.Bundeslaender) > 0 {
		profile = append(profile, "Bundesländer: "+strings.Join(c.Bundeslaender, ", "))
	}
	if len(c.PLZPrefixes) > 0 {
		profile = append(profile, "PLZ-Bereiche: "+strings.Join(c.PLZPrefixes, ", "))
	}
	if c.MinPrice > 0 || c.MaxPrice > 0 {
		profile = append(profile, fmt.Sprintf("Preisbereich: %s bis %s", bound(c.MinPrice), bound(c.MaxPrice)))
	}
	if len(profile) == 0 {
		profile = append(profile, "Keine spezifischen Kriterien hinterlegt.")
	}
	parts = append(parts, profile...)

	parts = append(parts, "\n=== EXTRAHIERTE DATEN ===")
	if s.PropertyType != "" {
		parts = append(parts, "Erkannter Typ: "+s.PropertyType)
	}
	if s.Price > 0 {
		parts = append(parts, fmt.Sprintf("Erkannter Preis: %d€", s.Price))
	}
	if s.City != "" {
		parts = append(parts, "Erkannte Stadt: "+s.City)
	}
	if s.PLZ != "" {
		parts = append(parts, "PLZ: "+s.PLZ)
	}
	return strings.Join(parts, "\n")
}

func bound(v int) string {
	if v <= 0 {
		return "offen"
	}
	return util.FormatThousands(v) + "€"
}
