package model

import (
	"strings"
	"time"
)

// Property types recognised by the analyzer.
const (
	PropertyHaus             = "Haus"
	PropertyWohnung          = "Wohnung"
	PropertyGrundstueck      = "Grundstück"
	PropertyMehrfamilienhaus = "Mehrfamilienhaus"
	PropertyImmobilie        = "Immobilie"
)

type PriceAssessment string

const (
	BelowMarket  PriceAssessment = "below_market"
	AtMarket     PriceAssessment = "at_market"
	AboveMarket  PriceAssessment = "above_market"
	PriceUnknown PriceAssessment = "unknown"
)

type SellerEmotion string

const (
	EmotionProud     SellerEmotion = "proud"
	EmotionUrgent    SellerEmotion = "urgent"
	EmotionNeutral   SellerEmotion = "neutral"
	EmotionReluctant SellerEmotion = "reluctant"
)

type DescriptionEffort string

const (
	EffortHigh   DescriptionEffort = "high"
	EffortMedium DescriptionEffort = "medium"
	EffortLow    DescriptionEffort = "low"
)

type Tone string

const (
	ToneDu  Tone = "du"
	ToneSie Tone = "sie"
)

// ListingSignals is everything the analyzer extracts from one raw listing.
// It is built once per analysis and treated as read-only afterwards.
type ListingSignals struct {
	ListingID  string `json:"listing_id" yaml:"listing_id"`
	ListingURL string `json:"listing_url" yaml:"listing_url"`
	RawText    string `json:"-" yaml:"-"`

	PropertyType string `json:"property_type" yaml:"property_type"`
	Title        string `json:"title" yaml:"title"`

	Price           int             `json:"price" yaml:"price"`
	PricePerSqm     float64         `json:"price_per_sqm" yaml:"price_per_sqm"`
	IsVB            bool            `json:"is_vb" yaml:"is_vb"`
	PriceAssessment PriceAssessment `json:"price_assessment" yaml:"price_assessment"`
	Provision       string          `json:"provision,omitempty" yaml:"provision,omitempty"`

	Wohnflaeche float64 `json:"wohnflaeche" yaml:"wohnflaeche"`
	Grundstueck float64 `json:"grundstueck" yaml:"grundstueck"`
	Zimmer      int     `json:"zimmer" yaml:"zimmer"`
	Baujahr     int     `json:"baujahr" yaml:"baujahr"`
	Etagen      int     `json:"etagen" yaml:"etagen"`

	PLZ        string `json:"plz" yaml:"plz"`
	City       string `json:"city" yaml:"city"`
	Bundesland string `json:"bundesland" yaml:"bundesland"`

	UniqueFeatures       []string `json:"unique_features" yaml:"unique_features"`
	RenovationHistory    string   `json:"renovation_history" yaml:"renovation_history"`
	LifestyleSignals     []string `json:"lifestyle_signals" yaml:"lifestyle_signals"`
	Infrastructure       []string `json:"infrastructure" yaml:"infrastructure"`
	LocationQualityHints []string `json:"location_quality_hints" yaml:"location_quality_hints"`
	Amenities            []string `json:"amenities" yaml:"amenities"`

	SellerEmotion     SellerEmotion     `json:"seller_emotion" yaml:"seller_emotion"`
	DescriptionEffort DescriptionEffort `json:"description_effort" yaml:"description_effort"`
	Tone              Tone              `json:"tone" yaml:"tone"`
	HasProvisionNote  bool              `json:"has_provision_note" yaml:"has_provision_note"`
}

// NewListingSignals returns signals with every field at its documented default.
func NewListingSignals(rawText, listingID, listingURL string) ListingSignals {
	return ListingSignals{
		ListingID:            listingID,
		ListingURL:           listingURL,
		RawText:              rawText,
		PriceAssessment:      PriceUnknown,
		UniqueFeatures:       []string{},
		LifestyleSignals:     []string{},
		Infrastructure:       []string{},
		LocationQualityHints: []string{},
		Amenities:            []string{},
		SellerEmotion:        EmotionNeutral,
		DescriptionEffort:    EffortMedium,
		Tone:                 ToneSie,
	}
}

// PersonalizationResult says what a message should lead with and which strategies fit.
type PersonalizationResult struct {
	PrimaryAnchor       string           `json:"primary_anchor" yaml:"primary_anchor"`
	SecondaryAnchors    []string         `json:"secondary_anchors" yaml:"secondary_anchors"`
	Tone                Tone             `json:"tone" yaml:"tone"`
	RecommendedVariants []MessageVariant `json:"recommended_variants" yaml:"recommended_variants"`
	// PriceInsight and EmotionalHook are empty when not available.
	PriceInsight  string `json:"price_insight,omitempty" yaml:"price_insight,omitempty"`
	EmotionalHook string `json:"emotional_hook,omitempty" yaml:"emotional_hook,omitempty"`
}

// ValidationResult is the spam guard verdict for one candidate text.
type ValidationResult struct {
	Passed           bool     `json:"passed"`
	Score            int      `json:"score"`
	RejectionReasons []string `json:"rejection_reasons,omitempty"`
}

// RejectionReason joins all reasons for use as retry feedback.
func (v ValidationResult) RejectionReason() string {
	return strings.Join(v.RejectionReasons, "; ")
}

// Message is one generated, validated message.
type Message struct {
	ID                string         `json:"id"`
	Text              string         `json:"text"`
	Variant           MessageVariant `json:"variant"`
	ListingID         string         `json:"listing_id"`
	ListingURL        string         `json:"listing_url"`
	GeneratedAt       time.Time      `json:"generated_at"`
	SpamGuardScore    int            `json:"spam_guard_score"`
	GenerationAttempt int            `json:"generation_attempt"`
	Stage             Stage          `json:"stage"`
	PreviousMessageID string         `json:"previous_message_id,omitempty"`
}

// Event types written to the outreach log.
const (
	EventMessageSent    = "message_sent"
	EventReply          = "reply"
	EventListingRemoved = "listing_removed"
)

// Event is one entry of the outreach log. Payload is JSON.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Type      string    `json:"type"`
	Payload   string    `json:"payload,omitempty"`
}
