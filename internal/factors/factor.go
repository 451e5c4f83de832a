package factors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFactorNotFound is returned when no factor matches category+unit.
	ErrFactorNotFound = errors.New("factors: no matching emission factor")
	// ErrInvalidFactor is returned when reference data fails validation.
	ErrInvalidFactor = errors.New("factors: invalid factor row")
)

// EmissionFactor converts a physical usage quantity into tonnes of CO2e.
// Reference data: created at load time, never mutated afterwards.
type EmissionFactor struct {
	Category string
	Unit     string
	Factor   float64
	Source   string
	Year     int
	Region   string
	Notes    string
}

// SourceLabel returns the label stored on records, e.g. "EEA 2023".
func (f EmissionFactor) SourceLabel() string {
	return fmt.Sprintf("%s %d", f.Source, f.Year)
}

// Validate checks a factor row is usable as reference data.
func (f EmissionFactor) Validate() error {
	if f.Category == "" || f.Unit == "" {
		return fmt.Errorf("%w: missing category or unit", ErrInvalidFactor)
	}
	if f.Factor < 0 {
		return fmt.Errorf("%w: negative factor for %s/%s", ErrInvalidFactor, f.Category, f.Unit)
	}
	if f.Source == "" || f.Year == 0 {
		return fmt.Errorf("%w: missing source or year for %s/%s", ErrInvalidFactor, f.Category, f.Unit)
	}
	return nil
}

var categorySynonyms = map[string]string{
	"electricidad": "electricity",
	"electric":     "electricity",
	"energia":      "electricity",
	"luz":          "electricity",
	"gas":          "natural_gas",
	"gas_natural":  "natural_gas",
	"gasnatural":   "natural_gas",
	"gasoleo":      "diesel",
	"gasoil":       "diesel",
	"gasolina":     "petrol",
	"transporte":   "freight_transport",
	"flete":        "freight_transport",
	"compras":      "purchased_goods",
	"materiales":   "purchased_goods",
}

var unitSynonyms = map[string]string{
	"kwh":       "kwh",
	"mwh":       "mwh",
	"m3":        "m3",
	"m³":        "m3",
	"l":         "l",
	"litro":     "l",
	"litros":    "l",
	"liter":     "l",
	"liters":    "l",
	"litre":     "l",
	"litres":    "l",
	"tkm":       "tonne_km",
	"tonne_km":  "tonne_km",
	"tonne-km":  "tonne_km",
	"eur":       "eur",
	"euro":      "eur",
	"euros":     "eur",
	"€":         "eur",
	"kg":        "kg",
	"kilogram":  "kg",
	"kilograms": "kg",
}

// CanonicalCategory lowercases, trims and maps known category synonyms.
// Unknown categories pass through normalized so lookups can still miss cleanly.
func CanonicalCategory(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if canonical, ok := categorySynonyms[normalized]; ok {
		return canonical
	}
	return normalized
}

// CanonicalUnit lowercases, trims and maps known unit synonyms.
func CanonicalUnit(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if canonical, ok := unitSynonyms[normalized]; ok {
		return canonical
	}
	return normalized
}

func lookupKey(category, unit string) string {
	return CanonicalCategory(category) + "|" + CanonicalUnit(unit)
}
