// Package identity maps the driver name spellings used by the various
// upstream providers onto one canonical roster.
package identity

import (
	"regexp"
	"sort"
	"strings"
)

// aliasTable maps a lower-cased surname fragment to the canonical driver
// name. Substring matching tolerates the common provider variations:
// "VERSTAPPEN", "M. Verstappen", "Max Verstappen (NED)".
var aliasTable = map[string]string{
	"verstappen": "Max Verstappen",
	"hamilton":   "Lewis Hamilton",
	"russell":    "George Russell",
	"leclerc":    "Charles Leclerc",
	"sainz":      "Carlos Sainz",
	"norris":     "Lando Norris",
	"piastri":    "Oscar Piastri",
	"alonso":     "Fernando Alonso",
	"stroll":     "Lance Stroll",
	"ocon":       "Esteban Ocon",
	"gasly":      "Pierre Gasly",
	"tsunoda":    "Yuki Tsunoda",
	"lawson":     "Liam Lawson",
	"albon":      "Alexander Albon",
	"colapinto":  "Franco Colapinto",
	"sargeant":   "Logan Sargeant",
	"hulkenberg": "Nico Hulkenberg",
	"magnussen":  "Kevin Magnussen",
	"bearman":    "Oliver Bearman",
	"bottas":     "Valtteri Bottas",
	"zhou":       "Zhou Guanyu",
	"ricciardo":  "Daniel Ricciardo",
	"perez":      "Sergio Perez",
}

// aliasFragments holds the table keys in sorted order so matching never
// depends on map iteration order.
var aliasFragments = func() []string {
	fragments := make([]string, 0, len(aliasTable))
	for fragment := range aliasTable {
		fragments = append(fragments, fragment)
	}
	sort.Strings(fragments)
	return fragments
}()

// leadingOrdinal strips list prefixes such as "1. " or "12) " that odds
// pages put in front of names.
var leadingOrdinal = regexp.MustCompile(`^\d+[.)]?\s*`)

// matchRoster resolves a lower-cased label against the alias table. When
// a label contains several roster fragments the leftmost one wins, so
// the same input always resolves to the same driver.
func matchRoster(lower string) (string, bool) {
	best := -1
	canonical := ""
	for _, fragment := range aliasFragments {
		if idx := strings.Index(lower, fragment); idx >= 0 && (best < 0 || idx < best) {
			best = idx
			canonical = aliasTable[fragment]
		}
	}
	return canonical, best >= 0
}

// Normalize maps an arbitrary free-text driver label onto the canonical
// roster name. Unknown names degrade to a deterministic title-cased copy
// of the input; the function is total and never fails.
func Normalize(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}

	name = leadingOrdinal.ReplaceAllString(name, "")
	lower := strings.ToLower(name)

	if canonical, ok := matchRoster(lower); ok {
		return canonical
	}

	return titleCase(lower)
}

// Known reports whether the raw label resolves to a roster driver.
func Known(raw string) bool {
	lower := strings.ToLower(leadingOrdinal.ReplaceAllString(strings.TrimSpace(raw), ""))
	_, ok := matchRoster(lower)
	return ok
}

// Roster returns the canonical driver names, for validation and display.
func Roster() []string {
	names := make([]string, 0, len(aliasFragments))
	for _, fragment := range aliasFragments {
		names = append(names, aliasTable[fragment])
	}
	return names
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	return strings.Join(words, " ")
}
