package entity

import "strings"

// Option is one id/display-name entry in a roster or asset catalog.
type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Lookups carries the externally supplied catalogs used to resolve relational
// field values. They are passed into normalization explicitly so the
// conversion stays a pure function.
type Lookups struct {
	Personnel []Option `json:"personnel"`
	Equipment []Option `json:"equipment"`
	Jobsites  []Option `json:"jobsites"`
	CostCodes []Option `json:"costCodes"`
}

// Person resolves a display name against the personnel roster by exact
// (trimmed) match.
func (l Lookups) Person(name string) (Option, bool) {
	name = strings.TrimSpace(name)
	for _, o := range l.Personnel {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

// Asset resolves a display label against the union of the asset catalogs.
// Exact (trimmed) equality wins; case-insensitive equality is the fallback.
func (l Lookups) Asset(name string) (Option, bool) {
	name = strings.TrimSpace(name)
	catalogs := [][]Option{l.Equipment, l.Jobsites, l.CostCodes}
	for _, c := range catalogs {
		for _, o := range c {
			if o.Name == name {
				return o, true
			}
		}
	}
	for _, c := range catalogs {
		for _, o := range c {
			if strings.EqualFold(o.Name, name) {
				return o, true
			}
		}
	}
	return Option{}, false
}
