package ingest

// GHG Protocol scopes.
const (
	Scope1 = 1
	Scope2 = 2
	Scope3 = 3
)

// DefaultScope is assigned to categories absent from the mapping table.
// Policy default pending review against CSRD categorization rules, not a bug.
const DefaultScope = Scope3

var scopeByCategory = map[string]int{
	"natural_gas":       Scope1,
	"diesel":            Scope1,
	"petrol":            Scope1,
	"fuel":              Scope1,
	"electricity":       Scope2,
	"freight_transport": Scope3,
	"transport":         Scope3,
	"purchased_goods":   Scope3,
	"business_travel":   Scope3,
}

// ClassifyScope maps a canonical category to its GHG Protocol scope.
func ClassifyScope(category string) int {
	if scope, ok := scopeByCategory[category]; ok {
		return scope
	}
	return DefaultScope
}
