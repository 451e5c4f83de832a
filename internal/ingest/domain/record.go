package ingest

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// FactorSourceUnresolved marks records stored without a matching factor.
const FactorSourceUnresolved = "unresolved"

// RawRow is the explicit ingestion schema for one parsed line item.
// Usage and Unit are required; everything else is optional.
type RawRow struct {
	Supplier      string     `json:"supplier"`
	Category      string     `json:"category"`
	Usage         float64    `json:"usage"`
	Unit          string     `json:"unit"`
	Cost          *float64   `json:"cost,omitempty"`
	Date          *time.Time `json:"date,omitempty"`
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// Record is one normalized, scope-classified emission data point.
// Immutable once co2e is computed: re-analysis appends new records instead
// of mutating existing ones, preserving the audit trail.
type Record struct {
	ID             string     `json:"id"`
	DocumentID     string     `json:"document_id"`
	CompanyID      string     `json:"company_id"`
	Supplier       string     `json:"supplier,omitempty"`
	Category       string     `json:"category"`
	Usage          float64    `json:"usage"`
	Unit           string     `json:"unit"`
	Cost           *float64   `json:"cost,omitempty"`
	Scope          int        `json:"scope"`
	CO2e           *float64   `json:"co2e"`
	FactorSource   string     `json:"factor_source"`
	EmissionFactor float64    `json:"emission_factor,omitempty"`
	Date           time.Time  `json:"date,omitempty"`
	InvoiceNumber  string     `json:"invoice_number,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Resolved reports whether the record carries a computed co2e value.
func (r Record) Resolved() bool {
	return r.CO2e != nil
}

// NewRecordID generates a random record id.
func NewRecordID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return "rec-" + hex.EncodeToString(buf)
}
