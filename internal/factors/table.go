package factors

import (
	"sort"
)

// ResolveContext carries per-company preferences into factor resolution.
type ResolveContext struct {
	Country string
}

// TieBreakRule narrows factor candidates. A rule that would eliminate every
// candidate is skipped, so resolution always terminates with at least one row.
type TieBreakRule struct {
	Name  string
	Apply func(candidates []EmissionFactor, ctx ResolveContext) []EmissionFactor
}

// DefaultTieBreakRules returns the resolution order: company region first,
// then the most recent year, then the preferred source.
func DefaultTieBreakRules(preferredSource string) []TieBreakRule {
	return []TieBreakRule{
		{
			Name: "prefer-region",
			Apply: func(candidates []EmissionFactor, ctx ResolveContext) []EmissionFactor {
				if ctx.Country == "" {
					return nil
				}
				var kept []EmissionFactor
				for _, f := range candidates {
					if f.Region == ctx.Country {
						kept = append(kept, f)
					}
				}
				return kept
			},
		},
		{
			Name: "prefer-newest-year",
			Apply: func(candidates []EmissionFactor, ctx ResolveContext) []EmissionFactor {
				maxYear := 0
				for _, f := range candidates {
					if f.Year > maxYear {
						maxYear = f.Year
					}
				}
				var kept []EmissionFactor
				for _, f := range candidates {
					if f.Year == maxYear {
						kept = append(kept, f)
					}
				}
				return kept
			},
		},
		{
			Name: "prefer-source",
			Apply: func(candidates []EmissionFactor, ctx ResolveContext) []EmissionFactor {
				if preferredSource == "" {
					return nil
				}
				var kept []EmissionFactor
				for _, f := range candidates {
					if f.Source == preferredSource {
						kept = append(kept, f)
					}
				}
				return kept
			},
		},
	}
}

// Table is a read-only emission factor lookup built once at startup.
type Table struct {
	byKey map[string][]EmissionFactor
	rules []TieBreakRule
}

// Option configures a Table.
type Option func(*Table)

// WithRules overrides the tie-break rules.
func WithRules(rules []TieBreakRule) Option {
	return func(t *Table) {
		t.rules = rules
	}
}

// NewTable builds a lookup table from reference rows.
func NewTable(rows []EmissionFactor, preferredSource string, opts ...Option) (*Table, error) {
	t := &Table{
		byKey: make(map[string][]EmissionFactor, len(rows)),
		rules: DefaultTieBreakRules(preferredSource),
	}
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, err
		}
		row.Category = CanonicalCategory(row.Category)
		row.Unit = CanonicalUnit(row.Unit)
		key := lookupKey(row.Category, row.Unit)
		t.byKey[key] = append(t.byKey[key], row)
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Len returns the number of factor rows loaded.
func (t *Table) Len() int {
	count := 0
	for _, rows := range t.byKey {
		count += len(rows)
	}
	return count
}

// RuleNames exposes the resolution order for inspection.
func (t *Table) RuleNames() []string {
	names := make([]string, 0, len(t.rules))
	for _, rule := range t.rules {
		names = append(names, rule.Name)
	}
	return names
}

// Resolve finds the emission factor for a category+unit pair. Candidates are
// narrowed by the tie-break rules in order; the survivors are ordered
// deterministically so identical inputs always resolve to the same row.
func (t *Table) Resolve(category, unit string, ctx ResolveContext) (EmissionFactor, error) {
	if t == nil {
		return EmissionFactor{}, ErrFactorNotFound
	}
	candidates := t.byKey[lookupKey(category, unit)]
	if len(candidates) == 0 {
		return EmissionFactor{}, ErrFactorNotFound
	}

	for _, rule := range t.rules {
		narrowed := rule.Apply(candidates, ctx)
		if len(narrowed) > 0 {
			candidates = narrowed
		}
	}

	sorted := make([]EmissionFactor, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Year != sorted[j].Year {
			return sorted[i].Year > sorted[j].Year
		}
		if sorted[i].Source != sorted[j].Source {
			return sorted[i].Source < sorted[j].Source
		}
		return sorted[i].Region < sorted[j].Region
	})
	return sorted[0], nil
}
