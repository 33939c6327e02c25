package dataset

import "strings"

// The default catalog mirrors the 25-item big-five inventory: five factors,
// five indicator items each. Group labels drive plot coloring and the factor
// model specification.
var fiveFactorPrefixes = map[byte]string{
	'A': "Agreeableness",
	'C': "Conscientiousness",
	'E': "Extraversion",
	'N': "Neuroticism",
	'O': "Openness",
}

// FiveFactorItems returns the 25 item names of the default inventory in
// column order: A1..A5, C1..C5, E1..E5, N1..N5, O1..O5.
func FiveFactorItems() []string {
	items := make([]string, 0, 25)
	for _, prefix := range []string{"A", "C", "E", "N", "O"} {
		for i := 1; i <= 5; i++ {
			items = append(items, prefix+string(rune('0'+i)))
		}
	}
	return items
}

// FiveFactorGroups maps item names onto factor labels using the standard
// prefix convention (A1 -> Agreeableness, ...). Items that do not match any
// factor prefix get an empty label.
func FiveFactorGroups(items []string) []string {
	groups := make([]string, len(items))
	for i, item := range items {
		name := strings.TrimSpace(item)
		if name == "" {
			continue
		}
		if factor, ok := fiveFactorPrefixes[name[0]]; ok && len(name) == 2 && name[1] >= '1' && name[1] <= '5' {
			groups[i] = factor
		}
	}
	return groups
}

// FiveFactorModel returns the confirmatory model specification for the
// default inventory: factor label -> indicator item names.
func FiveFactorModel() map[string][]string {
	model := make(map[string][]string, 5)
	for _, item := range FiveFactorItems() {
		factor := fiveFactorPrefixes[item[0]]
		model[factor] = append(model[factor], item)
	}
	return model
}
