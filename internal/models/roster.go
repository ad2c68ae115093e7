package models

// RosterEntry is one index constituent with optional classification seed data.
type RosterEntry struct {
	Symbol   string   `json:"symbol" yaml:"symbol"`
	Name     string   `json:"name" yaml:"name"`
	Sector   *string  `json:"sector,omitempty" yaml:"sector"`
	Industry *string  `json:"industry,omitempty" yaml:"industry"`
	Weight   *float64 `json:"weight,omitempty" yaml:"weight"`
}

func RosterSymbols(roster []RosterEntry) []string {
	out := make([]string, 0, len(roster))
	for _, e := range roster {
		out = append(out, e.Symbol)
	}
	return out
}
