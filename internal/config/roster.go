package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"ndx-snapshot-backend/internal/models"
)

// ParseSymbols trims, upper-cases and de-duplicates symbols, keeping the first
// occurrence order. Empty tokens are dropped.
func ParseSymbols(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// LoadRoster resolves the constituent list. Explicit symbols win over the
// roster file; when both are present the file still seeds names and
// classification for matching symbols.
func LoadRoster(cfg *Config) ([]models.RosterEntry, error) {
	var seeded []models.RosterEntry
	if cfg.RosterFile != "" {
		entries, err := ReadRosterFile(cfg.RosterFile)
		if err != nil {
			return nil, err
		}
		seeded = entries
	}

	symbols := ParseSymbols(cfg.Symbols)
	if len(symbols) == 0 {
		if len(seeded) == 0 {
			return nil, &ConfigurationError{Field: "SYMBOLS", Message: "no symbols configured and no roster file"}
		}
		return seeded, nil
	}

	bySymbol := make(map[string]models.RosterEntry, len(seeded))
	for _, e := range seeded {
		bySymbol[e.Symbol] = e
	}
	roster := make([]models.RosterEntry, 0, len(symbols))
	for _, s := range symbols {
		if e, ok := bySymbol[s]; ok {
			roster = append(roster, e)
			continue
		}
		roster = append(roster, models.RosterEntry{Symbol: s, Name: s})
	}
	return roster, nil
}

// ReadRosterFile accepts either a JSON array of symbol strings or an array of
// roster entries.
func ReadRosterFile(path string) ([]models.RosterEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigurationError{Field: "roster_file", Message: fmt.Sprintf("%s does not exist", path)}
		}
		return nil, err
	}

	var plain []string
	if err := json.Unmarshal(data, &plain); err == nil {
		symbols := ParseSymbols(plain)
		out := make([]models.RosterEntry, 0, len(symbols))
		for _, s := range symbols {
			out = append(out, models.RosterEntry{Symbol: s, Name: s})
		}
		return nonEmpty(out, path)
	}

	var entries []models.RosterEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &ConfigurationError{Field: "roster_file", Message: fmt.Sprintf("%s: %v", path, err)}
	}
	seen := make(map[string]struct{}, len(entries))
	out := make([]models.RosterEntry, 0, len(entries))
	for _, e := range entries {
		e.Symbol = strings.ToUpper(strings.TrimSpace(e.Symbol))
		if e.Symbol == "" {
			continue
		}
		if _, ok := seen[e.Symbol]; ok {
			continue
		}
		seen[e.Symbol] = struct{}{}
		if strings.TrimSpace(e.Name) == "" {
			e.Name = e.Symbol
		}
		out = append(out, e)
	}
	return nonEmpty(out, path)
}

func nonEmpty(entries []models.RosterEntry, path string) ([]models.RosterEntry, error) {
	if len(entries) == 0 {
		return nil, &ConfigurationError{Field: "roster_file", Message: fmt.Sprintf("%s has no symbols", path)}
	}
	return entries, nil
}
