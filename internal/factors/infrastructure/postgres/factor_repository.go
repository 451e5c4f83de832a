package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carbonledger/internal/factors"
)

// FactorRepository loads emission factor reference rows.
type FactorRepository struct {
	db *sql.DB
}

// NewFactorRepository constructs a repository.
func NewFactorRepository(db *sql.DB) *FactorRepository {
	return &FactorRepository{db: db}
}

// LoadAll returns every emission factor row. Called once at startup.
func (r *FactorRepository) LoadAll(ctx context.Context) ([]factors.EmissionFactor, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("factor repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT category, unit, factor, source, year, region, COALESCE(notes, '')
FROM emission_factors
ORDER BY category, unit, source, year`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []factors.EmissionFactor
	for rows.Next() {
		var f factors.EmissionFactor
		if err := rows.Scan(&f.Category, &f.Unit, &f.Factor, &f.Source, &f.Year, &f.Region, &f.Notes); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
