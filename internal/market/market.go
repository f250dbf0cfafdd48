// Package market is the regional price reference: PLZ prefix × property class
// → average price per square meter.
package market

import (
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"outreach/internal/model"
)

const (
	ClassHaus    = "haus"
	ClassWohnung = "wohnung"
)

// Prices are the average €/m² for one region.
type Prices struct {
	Haus    float64 `yaml:"haus" json:"haus"`
	Wohnung float64 `yaml:"wohnung" json:"wohnung"`
}

// Table maps a 2-character PLZ prefix to regional prices.
type Table map[string]Prices

//go:embed market_prices.yaml
var defaultData []byte

// Default returns the embedded reference table.
func Default() Table {
	t, err := parse(defaultData)
	if err != nil {
		panic("market: embedded price table: " + err.Error())
	}
	return t
}

// Load reads a YAML (or JSON, which is valid YAML) table from path.
// An empty path returns Default().
func Load(path string) (Table, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read market table %s", path)
	}
	t, err := parse(b)
	if err != nil {
		return nil, errors.Wrapf(err, "parse market table %s", path)
	}
	return t, nil
}

func parse(b []byte) (Table, error) {
	t := Table{}
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	return t, nil
}

// ClassFor buckets a property type. Mehrfamilienhaus counts as haus.
func ClassFor(propertyType string) string {
	switch propertyType {
	case model.PropertyHaus, model.PropertyMehrfamilienhaus:
		return ClassHaus
	}
	return ClassWohnung
}

// Lookup returns the regional average for plz and property type, or 0 when unknown.
func (t Table) Lookup(plz, propertyType string) float64 {
	if len(plz) < 2 || t == nil {
		return 0
	}
	p, ok := t[plz[:2]]
	if !ok {
		return 0
	}
	if ClassFor(propertyType) == ClassHaus {
		return p.Haus
	}
	return p.Wohnung
}
