// Package prompts builds the instructions sent to the generation service.
package prompts

import (
	"bytes"
	"embed"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"outreach/internal/model"
	"outreach/internal/util"
)

// Request is one generation call.
type Request struct {
	System string
	User   string
}

const writeNow = "Schreibe jetzt die Nachricht."

const (
	toneDu  = "Duzen: schreib locker mit du, ihr und euch."
	toneSie = "Siezen: schreib mit Sie und Ihnen, respektvoll, aber nicht steif."
)

//go:embed templates/*.tmpl
var files embed.FS

var tmpl = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"thousands": util.FormatThousands,
	"int":       func(f float64) int { return int(f) },
	"join":      strings.Join,
	"first":     func(s []string, n int) []string { return lo.Slice(s, 0, n) },
}).ParseFS(files, "templates/*.tmpl"))

func toneInstruction(t model.Tone) string {
	if t == model.ToneDu {
		return toneDu
	}
	return toneSie
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrapf(err, "render %s", name)
	}
	return buf.String(), nil
}

// ListingContext is the fact block describing the listing.
func ListingContext(s model.ListingSignals) (string, error) {
	return render("listing", s)
}

// PersonalizationContext tells the model what to lead with and how the seller reads.
func PersonalizationContext(s model.ListingSignals, p model.PersonalizationResult) (string, error) {
	return render("personalization", struct {
		S model.ListingSignals
		P model.PersonalizationResult
	}{s, p})
}

// Initial builds the request for a first message in the given variant.
func Initial(s model.ListingSignals, p model.PersonalizationResult, v model.MessageVariant) (Request, error) {
	instr, ok := variantInstructions[v]
	if !ok {
		return Request{}, errors.Errorf("no instruction for variant %s", v)
	}
	system, err := render("system.tmpl", map[string]string{"Tone": toneInstruction(s.Tone), "Variant": instr})
	if err != nil {
		return Request{}, err
	}
	listing, err := ListingContext(s)
	if err != nil {
		return Request{}, err
	}
	pers, err := PersonalizationContext(s, p)
	if err != nil {
		return Request{}, err
	}
	return Request{System: system, User: listing + "\n\n" + pers + "\n\n" + writeNow}, nil
}

// FollowUp builds the request for follow-up stage 1 or 2.
func FollowUp(s model.ListingSignals, stage model.Stage) (Request, error) {
	var name string
	switch stage {
	case model.StageFollowUp1:
		name = "followup1.tmpl"
	case model.StageFollowUp2:
		name = "followup2.tmpl"
	default:
		return Request{}, errors.Errorf("no follow-up prompt for stage %s", stage)
	}
	listing, err := ListingContext(s)
	if err != nil {
		return Request{}, err
	}
	system, err := render(name, map[string]string{"Tone": toneInstruction(s.Tone), "Listing": listing})
	if err != nil {
		return Request{}, err
	}
	return Request{System: system, User: writeNow}, nil
}

// WithFeedback appends the rejection reason of the previous attempt.
func WithFeedback(user, reason string) string {
	return user + "\n\nVORHERIGER VERSUCH ABGELEHNT: " + reason + "\nBitte korrigiere diese Probleme."
}
