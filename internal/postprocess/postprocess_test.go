package postprocess

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixDashes(t *testing.T) {
	cases := map[string]string{
		"Das Haus — wirklich toll":      "Das Haus, wirklich toll",
		"Das Haus – wirklich toll":      "Das Haus, wirklich toll",
		"Das Haus -- wirklich toll":     "Das Haus, wirklich toll",
		"Der Wohn-Ess-Bereich ist hell": "Der Wohn-Ess-Bereich ist hell",
		"Schöne Lage, — ruhig":          "Schöne Lage, ruhig",
		"Schön. — Wirklich":             "Schön. Wirklich",
	}
	for in, want := range cases {
		assert.Equal(t, want, FixDashes(in), in)
	}
}

func TestProcessWithoutRandomnessOnlyFixesDashes(t *testing.T) {
	p := New(1, nil)
	assert.Equal(t, "A, b", p.Process("A — b"))

	p = New(0, rand.New(rand.NewSource(1)))
	for i := 0; i < 50; i++ {
		assert.Equal(t, "Das ist mit Garten, oder?", p.Process("Das ist mit Garten, oder?"))
	}
}

func TestProcessAlwaysHumanizesAtProbabilityOne(t *testing.T) {
	in := "Das ist schön. Wie geht es, und was denkst du?"
	p := New(1, rand.New(rand.NewSource(7)))
	for i := 0; i < 20; i++ {
		assert.NotEqual(t, in, p.Process(in))
	}
}

func TestSwapLetters(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	assert.Equal(t, "Haus mti Garten mit Teich", SwapLetters("Haus mit Garten mit Teich", rnd))
	assert.Equal(t, "Sauna", SwapLetters("Sauna", rnd))
}

func TestRemoveSpaceAfterComma(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	assert.Equal(t, "Hallo,Welt", RemoveSpaceAfterComma("Hallo, Welt", rnd))
	assert.Equal(t, "Hallo Welt", RemoveSpaceAfterComma("Hallo Welt", rnd))
}

func TestLowercaseSentenceStart(t *testing.T) {
	assert.Equal(t, "Schönes Haus. über den Garten?", LowercaseSentenceStart("Schönes Haus. Über den Garten?"))
	assert.Equal(t, "keine satzgrenze", LowercaseSentenceStart("keine satzgrenze"))
}
