// Package postprocess cleans generated text before validation: dashes used
// as stylistic breaks are replaced and, occasionally, one small typing
// imperfection is introduced so the message reads like it was typed by hand.
package postprocess

import (
	"math/rand"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// letter swaps in frequent words, in lookup order
var typos = []struct{ word, typo string }{
	{"die", "dei"},
	{"und", "udn"},
	{"der", "dre"},
	{"das", "dsa"},
	{"mit", "mti"},
	{"hab", "ahb"},
	{"mal", "aml"},
	{"was", "wsa"},
	{"wie", "wei"},
	{"bei", "bie"},
}

var (
	emDash        = regexp.MustCompile(`\s*\x{2014}\s*`)
	enDash        = regexp.MustCompile(`\s*\x{2013}\s*`)
	doubleDash    = regexp.MustCompile(`\s+--\s+`)
	doubleComma   = regexp.MustCompile(`,\s*,`)
	periodComma   = regexp.MustCompile(`\.\s*,`)
	sentenceStart = regexp.MustCompile(`[.!?]\s+([A-ZÄÖÜ])`)
)

// Processor is not safe for concurrent use because it owns its random source.
type Processor struct {
	typoProbability float64
	rnd             *rand.Rand
}

// New returns a processor. A nil rnd disables imperfections entirely.
func New(typoProbability float64, rnd *rand.Rand) *Processor {
	return &Processor{typoProbability: typoProbability, rnd: rnd}
}

// Process normalises dashes and then maybe humanizes the result.
func (p *Processor) Process(text string) string {
	return p.humanize(FixDashes(text))
}

// FixDashes turns em/en dashes and spaced double hyphens into ", ".
// Hyphens inside compound words are left alone.
func FixDashes(text string) string {
	out := emDash.ReplaceAllString(text, ", ")
	out = enDash.ReplaceAllString(out, ", ")
	out = doubleDash.ReplaceAllString(out, ", ")
	out = doubleComma.ReplaceAllString(out, ",")
	return periodComma.ReplaceAllString(out, ".")
}

func (p *Processor) humanize(text string) string {
	if p == nil || p.rnd == nil || p.typoProbability <= 0 {
		return text
	}
	if p.rnd.Float64() > p.typoProbability {
		return text
	}
	switch roll := p.rnd.Float64(); {
	case roll < 0.5:
		return SwapLetters(text, p.rnd)
	case roll < 0.75:
		return RemoveSpaceAfterComma(text, p.rnd)
	}
	return LowercaseSentenceStart(text)
}

// SwapLetters replaces the first occurrence of one randomly chosen common word.
func SwapLetters(text string, rnd *rand.Rand) string {
	var candidates []int
	for i, t := range typos {
		if strings.Contains(text, t.word) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return text
	}
	t := typos[candidates[rnd.Intn(len(candidates))]]
	return strings.Replace(text, t.word, t.typo, 1)
}

// RemoveSpaceAfterComma drops the space after one randomly chosen comma.
func RemoveSpaceAfterComma(text string, rnd *rand.Rand) string {
	var positions []int
	for i := 0; i+1 < len(text); i++ {
		if text[i] == ',' && text[i+1] == ' ' {
			positions = append(positions, i)
		}
	}
	if len(positions) == 0 {
		return text
	}
	pos := positions[rnd.Intn(len(positions))]
	return text[:pos+1] + text[pos+2:]
}

// LowercaseSentenceStart lowercases the first letter of the second sentence.
func LowercaseSentenceStart(text string) string {
	m := sentenceStart.FindStringSubmatchIndex(text)
	if m == nil {
		return text
	}
	r, size := utf8.DecodeRuneInString(text[m[2]:])
	return text[:m[2]] + string(unicode.ToLower(r)) + text[m[2]+size:]
}
