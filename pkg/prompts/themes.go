package prompts

import "sort"

// Theme fixes the genre of a session.
type Theme struct {
	ID       string
	Genre    string
	Elements string
	Avoid    string
}

const DefaultThemeID = "fantasy_adventure"

var themes = map[string]Theme{
	"fantasy_adventure": {
		ID:       "fantasy_adventure",
		Genre:    "FANTASY ADVENTURE",
		Elements: "magic, swords, dragons, castles, wizards, medieval settings",
		Avoid:    "modern technology, sci-fi elements",
	},
	"sci_fi_exploration": {
		ID:       "sci_fi_exploration",
		Genre:    "SCI-FI EXPLORATION",
		Elements: "space, technology, aliens, futuristic cities, starships, advanced science",
		Avoid:    "medieval fantasy, steampunk",
	},
	"mystery_detective": {
		ID:       "mystery_detective",
		Genre:    "MYSTERY DETECTIVE",
		Elements: "clues, investigation, suspects, crime scenes, deduction, noir atmosphere",
		Avoid:    "action movie elements, fantasy magic",
	},
	"horror_survival": {
		ID:       "horror_survival",
		Genre:    "HORROR SURVIVAL",
		Elements: "darkness, fear, survival, psychological tension, monsters, abandoned places",
		Avoid:    "comedy, bright cheerful settings",
	},
	"modern_thriller": {
		ID:       "modern_thriller",
		Genre:    "MODERN THRILLER",
		Elements: "contemporary settings, espionage, chase scenes, modern technology, suspense",
		Avoid:    "fantasy elements, historical settings",
	},
	"steampunk_adventure": {
		ID:       "steampunk_adventure",
		Genre:    "STEAMPUNK ADVENTURE",
		Elements: "steam, brass, gears, airships, Victorian technology, clockwork",
		Avoid:    "fantasy magic, modern electronics",
	},
}

// LookupTheme returns the theme with the given id, falling back to the
// default theme.
func LookupTheme(id string) (Theme, bool) {
	t, ok := themes[id]
	if !ok {
		return themes[DefaultThemeID], false
	}
	return t, true
}

// ThemeIDs lists every theme id in sorted order.
func ThemeIDs() []string {
	ids := make([]string, 0, len(themes))
	for id := range themes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
