package model

import (
	"fmt"
	"strings"
)

// MessageVariant is one of the six fixed outreach strategies.
// The numeric order is the declaration order used for tie-breaks.
type MessageVariant int

const (
	SpecificObserver MessageVariant = iota
	MarketInsider
	EmpatheticPeer
	CuriousNeighbor
	QuietExpert
	ValueSpotter
)

var variantNames = [...]string{
	"SpecificObserver",
	"MarketInsider",
	"EmpatheticPeer",
	"CuriousNeighbor",
	"QuietExpert",
	"ValueSpotter",
}

// AllVariants returns the variants in declaration order.
func AllVariants() []MessageVariant {
	return []MessageVariant{SpecificObserver, MarketInsider, EmpatheticPeer, CuriousNeighbor, QuietExpert, ValueSpotter}
}

func (v MessageVariant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("MessageVariant(%d)", int(v))
	}
	return variantNames[v]
}

// Letter is the short code, A through F.
func (v MessageVariant) Letter() string {
	return string(rune('A' + int(v)))
}

func (v MessageVariant) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *MessageVariant) UnmarshalText(b []byte) error {
	p, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

// ParseVariant accepts a variant name (case-insensitive) or its letter.
func ParseVariant(s string) (MessageVariant, error) {
	s = strings.TrimSpace(s)
	for _, v := range AllVariants() {
		if strings.EqualFold(s, v.String()) || strings.EqualFold(s, v.Letter()) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown message variant %q", s)
}

// Stage is the position in the outreach sequence. It only moves forward.
type Stage int

const (
	StageInitial Stage = iota
	StageFollowUp1
	StageFollowUp2
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageInitial:
		return "Initial"
	case StageFollowUp1:
		return "FollowUp1"
	case StageFollowUp2:
		return "FollowUp2"
	case StageDone:
		return "Done"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stage) UnmarshalText(b []byte) error {
	p, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = p
	return nil
}

func ParseStage(str string) (Stage, error) {
	for _, s := range []Stage{StageInitial, StageFollowUp1, StageFollowUp2, StageDone} {
		if strings.EqualFold(strings.TrimSpace(str), s.String()) {
			return s, nil
		}
	}
	switch strings.TrimSpace(str) {
	case "1":
		return StageFollowUp1, nil
	case "2":
		return StageFollowUp2, nil
	}
	return 0, fmt.Errorf("unknown stage %q", str)
}

// ReplySentiment classifies a seller's answer.
type ReplySentiment string

const (
	PositiveOpen       ReplySentiment = "positive_open"
	PositiveShort      ReplySentiment = "positive_short"
	Neutral            ReplySentiment = "neutral"
	NegativePolite     ReplySentiment = "negative_polite"
	NegativeAggressive ReplySentiment = "negative_aggressive"
)

// AllSentiments returns the categories in declared order.
func AllSentiments() []ReplySentiment {
	return []ReplySentiment{PositiveOpen, PositiveShort, Neutral, NegativePolite, NegativeAggressive}
}

func (r ReplySentiment) IsNegative() bool {
	return r == NegativePolite || r == NegativeAggressive
}

func (r ReplySentiment) IsPositive() bool {
	return r == PositiveOpen || r == PositiveShort
}

func ParseSentiment(s string) (ReplySentiment, error) {
	for _, r := range AllSentiments() {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown reply sentiment %q", s)
}
