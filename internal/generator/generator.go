// Package generator drives the analyze, personalize, draft and validate loop
// that turns a raw listing into a message ready to send.
package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"outreach/internal/analyzer"
	"outreach/internal/config"
	"outreach/internal/llm"
	"outreach/internal/logging"
	"outreach/internal/metrics"
	"outreach/internal/model"
	"outreach/internal/personalize"
	"outreach/internal/postprocess"
	"outreach/internal/prompts"
	"outreach/internal/safeguard"
	"outreach/internal/spamguard"
	"outreach/internal/util"
)

var (
	// ErrInvalidStage is returned for follow-up requests outside FollowUp1/FollowUp2.
	ErrInvalidStage = errors.New("invalid follow-up stage")
	ErrNoClient     = errors.New("no generation service configured")
)

const duplicateReason = "Duplikat — identische Nachricht wurde bereits gesendet"

// GenerationError reports a listing/variant that exhausted all attempts.
type GenerationError struct {
	ListingID string
	Variant   model.MessageVariant
	Stage     model.Stage
	Attempts  int
	// Reasons of the last rejected attempt.
	Reasons []string
}

func (e *GenerationError) Error() string {
	if e.Stage != model.StageInitial {
		return fmt.Sprintf("%s generation failed after %d attempts for listing %s", e.Stage, e.Attempts, e.ListingID)
	}
	return fmt.Sprintf("variant %s failed after %d attempts for listing %s", e.Variant, e.Attempts, e.ListingID)
}

// Generator owns the set of message hashes it has accepted. One instance
// should live as long as the process so duplicates are caught across listings.
type Generator struct {
	analyzer    *analyzer.Analyzer
	personalize *personalize.Engine
	guard       *spamguard.Guard
	client      llm.Client
	post        *postprocess.Processor

	maxAttempts int
	preambles   []string
	safeguard   *safeguard.Checker
	now         func() time.Time

	mu   sync.Mutex
	sent map[string]struct{}
}

// New wires a generator. post may be nil to skip post-processing.
func New(a *analyzer.Analyzer, p *personalize.Engine, g *spamguard.Guard, client llm.Client,
	post *postprocess.Processor, preambles []string, cfg config.MessagingConfig) *Generator {
	return &Generator{
		analyzer:    a,
		personalize: p,
		guard:       g,
		client:      client,
		post:        post,
		maxAttempts: max(cfg.MaxGenerationRetries, 0) + 1,
		preambles:   preambles,
		now:         time.Now,
		sent:        map[string]struct{}{},
	}
}

// UseSafeguard adds a second check after the spam guard passes. Its
// rejection reason is fed back like any other.
func (g *Generator) UseSafeguard(c *safeguard.Checker) {
	g.safeguard = c
}

// SeedSentHashes marks hashes from an earlier run as already sent.
func (g *Generator) SeedSentHashes(hashes []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, h := range hashes {
		g.sent[h] = struct{}{}
	}
}

// IsDuplicate reports whether text normalizes to an already accepted message.
func (g *Generator) IsDuplicate(text string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.sent[Hash(text)]
	return ok
}

// Release forgets an accepted message that was never delivered.
func (g *Generator) Release(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sent, Hash(text))
}

// Hash is the first 16 hex chars of the sha256 of the case-folded,
// whitespace-collapsed text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(util.NormalizeWhitespace(strings.ToLower(text))))
	return hex.EncodeToString(sum[:])[:16]
}

// AnalyzeListing exposes the analyzer without an id or url.
func (g *Generator) AnalyzeListing(raw string) model.ListingSignals {
	return g.analyzer.Analyze(raw, "", "")
}

// Generate drafts an initial message. A nil variant picks the best ranked one.
func (g *Generator) Generate(ctx context.Context, raw, listingID, listingURL string, variant *model.MessageVariant) (model.Message, error) {
	s := g.analyzer.Analyze(raw, listingID, listingURL)
	p := g.personalize.Personalize(s)
	v := p.RecommendedVariants[0]
	if variant != nil {
		v = *variant
	}
	return g.generateInitial(ctx, s, p, v)
}

// GenerateAllVariants tries every variant and keeps the ones that pass.
// Exhausted variants are logged and left out; service errors abort.
func (g *Generator) GenerateAllVariants(ctx context.Context, raw, listingID, listingURL string) (map[model.MessageVariant]model.Message, error) {
	s := g.analyzer.Analyze(raw, listingID, listingURL)
	p := g.personalize.Personalize(s)

	out := make(map[model.MessageVariant]model.Message, len(model.AllVariants()))
	for _, v := range model.AllVariants() {
		msg, err := g.generateInitial(ctx, s, p, v)
		var gerr *GenerationError
		switch {
		case errors.As(err, &gerr):
			logging.Warn("variant_exhausted", map[string]any{"listing_id": listingID, "variant": v.String(), "attempts": gerr.Attempts})
			continue
		case err != nil:
			return out, err
		}
		out[v] = msg
	}
	return out, nil
}

// GenerateFollowUp drafts the message for follow-up stage 1 or 2.
func (g *Generator) GenerateFollowUp(ctx context.Context, raw string, stage model.Stage, listingID, listingURL string) (model.Message, error) {
	if stage != model.StageFollowUp1 && stage != model.StageFollowUp2 {
		return model.Message{}, errors.Wrapf(ErrInvalidStage, "stage %s", stage)
	}
	s := g.analyzer.Analyze(raw, listingID, listingURL)
	req, err := prompts.FollowUp(s, stage)
	if err != nil {
		return model.Message{}, err
	}
	return g.run(ctx, req, s, model.SpecificObserver, stage)
}

func (g *Generator) generateInitial(ctx context.Context, s model.ListingSignals, p model.PersonalizationResult, v model.MessageVariant) (model.Message, error) {
	req, err := prompts.Initial(s, p, v)
	if err != nil {
		return model.Message{}, err
	}
	return g.run(ctx, req, s, v, model.StageInitial)
}

// run is the bounded retry loop. Each rejection is appended to the user
// instruction of the next attempt.
func (g *Generator) run(ctx context.Context, req prompts.Request, s model.ListingSignals, v model.MessageVariant, stage model.Stage) (model.Message, error) {
	if g.client == nil {
		return model.Message{}, ErrNoClient
	}
	user := req.User
	var reasons []string
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		metrics.GenerationAttempts.WithLabelValues(v.String(), stage.String()).Inc()

		out, err := g.client.Generate(ctx, req.System, user)
		if err != nil {
			return model.Message{}, errors.Wrapf(err, "generate %s for listing %s", v, s.ListingID)
		}
		text := g.clean(out)
		if g.post != nil {
			text = g.post.Process(text)
		}

		var res model.ValidationResult
		if stage == model.StageInitial {
			res = g.guard.Validate(ctx, text, s)
		} else {
			res = g.guard.ValidateFollowUp(ctx, text, s)
		}

		reason := "guard"
		if res.Passed && g.IsDuplicate(text) {
			reason = "duplicate"
			reasons = []string{duplicateReason}
		} else if res.Passed {
			human, why := g.safeguard.Check(ctx, text)
			switch {
			case !human:
				reason = "safeguard"
				reasons = []string{why}
			case g.accept(text):
				return model.Message{
					ID:                uuid.NewString(),
					Text:              text,
					Variant:           v,
					ListingID:         s.ListingID,
					ListingURL:        s.ListingURL,
					GeneratedAt:       g.now(),
					SpamGuardScore:    res.Score,
					GenerationAttempt: attempt,
					Stage:             stage,
				}, nil
			default:
				// taken concurrently since the duplicate check
				reason = "duplicate"
				reasons = []string{duplicateReason}
			}
		} else {
			reasons = res.RejectionReasons
		}

		metrics.GenerationRejections.WithLabelValues(v.String(), reason).Inc()
		logging.Info("generation_attempt_rejected", map[string]any{
			"listing_id": s.ListingID,
			"variant":    v.String(),
			"stage":      stage.String(),
			"attempt":    attempt,
			"reasons":    strings.Join(reasons, "; "),
		})
		if attempt < g.maxAttempts {
			user = prompts.WithFeedback(user, strings.Join(reasons, "; "))
		}
	}

	metrics.GenerationFailures.WithLabelValues(v.String()).Inc()
	return model.Message{}, &GenerationError{
		ListingID: s.ListingID,
		Variant:   v,
		Stage:     stage,
		Attempts:  g.maxAttempts,
		Reasons:   reasons,
	}
}

// accept records the hash unless it was already taken.
func (g *Generator) accept(text string) bool {
	h := Hash(text)
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, dup := g.sent[h]; dup {
		return false
	}
	g.sent[h] = struct{}{}
	return true
}

// clean strips surrounding quotes and known preambles from raw output.
func (g *Generator) clean(text string) string {
	text = strings.TrimSpace(text)
	for _, q := range []string{`"`, `'`} {
		if len(text) >= 2 && strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			text = text[1 : len(text)-1]
		}
	}
	for _, p := range g.preambles {
		if strings.HasPrefix(text, p) {
			text = strings.TrimSpace(text[len(p):])
		}
	}
	return strings.TrimSpace(text)
}
