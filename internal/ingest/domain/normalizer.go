package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"carbonledger/internal/factors"
)

// CompanyContext carries the company attributes that influence normalization.
type CompanyContext struct {
	CompanyID string
	Country   string
}

// Normalizer turns raw parsed rows into scope-classified records using an
// injected read-only factor table.
type Normalizer struct {
	table *factors.Table
}

// NewNormalizer constructs a normalizer.
func NewNormalizer(table *factors.Table) (*Normalizer, error) {
	if table == nil {
		return nil, errors.New("ingest: nil factor table")
	}
	return &Normalizer{table: table}, nil
}

// Normalize validates a raw row, resolves its emission factor and computes
// co2e = usage * factor.
//
// A row without any matching factor still yields a storable record (null
// co2e, factor source "unresolved") together with ErrUnresolvedFactor so the
// caller can count it. Schema violations yield ErrInvalidRecordData and no
// record.
func (n *Normalizer) Normalize(row RawRow, company CompanyContext, now time.Time) (Record, error) {
	if err := validateRow(row); err != nil {
		return Record{}, err
	}

	category := factors.CanonicalCategory(row.Category)
	if category == "" {
		category = inferCategory(row.Unit, row.Supplier)
	}
	unit := factors.CanonicalUnit(row.Unit)

	record := Record{
		ID:            NewRecordID(),
		CompanyID:     company.CompanyID,
		Supplier:      strings.TrimSpace(row.Supplier),
		Category:      category,
		Usage:         row.Usage,
		Unit:          unit,
		Cost:          row.Cost,
		Scope:         ClassifyScope(category),
		InvoiceNumber: row.InvoiceNumber,
		Notes:         row.Notes,
		CreatedAt:     now.UTC(),
	}
	if row.Date != nil {
		record.Date = row.Date.UTC()
	}

	factor, err := n.table.Resolve(category, unit, factors.ResolveContext{Country: company.Country})
	if err != nil {
		if errors.Is(err, factors.ErrFactorNotFound) {
			record.FactorSource = FactorSourceUnresolved
			return record, ErrUnresolvedFactor
		}
		return Record{}, err
	}

	co2e := row.Usage * factor.Factor
	record.CO2e = &co2e
	record.EmissionFactor = factor.Factor
	record.FactorSource = factor.SourceLabel()
	return record, nil
}

func validateRow(row RawRow) error {
	if row.Usage <= 0 {
		return fmt.Errorf("%w: usage must be positive", ErrInvalidRecordData)
	}
	if strings.TrimSpace(row.Unit) == "" {
		return fmt.Errorf("%w: missing unit", ErrInvalidRecordData)
	}
	return nil
}

// inferCategory guesses a category from unit and supplier when the parser
// could not extract one. Mirrors the heuristics used by upstream parsing.
func inferCategory(unit, supplier string) string {
	u := factors.CanonicalUnit(unit)
	s := strings.ToLower(supplier)

	switch u {
	case "kwh", "mwh":
		return "electricity"
	case "m3":
		return "natural_gas"
	case "l":
		if strings.Contains(s, "diesel") || strings.Contains(s, "gasoil") {
			return "diesel"
		}
		return "petrol"
	case "tonne_km":
		return "freight_transport"
	case "eur":
		return "purchased_goods"
	}
	if strings.Contains(s, "electric") || strings.Contains(s, "endesa") || strings.Contains(s, "iberdrola") || strings.Contains(s, "naturgy") {
		return "electricity"
	}
	if strings.Contains(s, "gas") {
		return "natural_gas"
	}
	return ""
}
