package pets

import (
	"sort"
	"strings"
)

// Apply filtra y ordena sin tocar la entrada. Especie y refugio son igualdad
// exacta; el texto es substring sin mayúsculas sobre nombre, raza o
// descripción. Los predicados se combinan con AND y el resultado va de más
// nuevo a más viejo (estable).
func Apply(items []Pet, f Filter) []Pet {
	text := strings.ToLower(strings.TrimSpace(f.Text))
	shelter := strings.TrimSpace(f.Shelter)

	out := make([]Pet, 0, len(items))
	for _, p := range items {
		if f.Species != "" && p.Species != f.Species {
			continue
		}
		if shelter != "" && p.ShelterName != shelter {
			continue
		}
		if text != "" && !matchesText(p, text) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func matchesText(p Pet, needle string) bool {
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Breed), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle)
}

// FilterOptions devuelve especies y refugios distintos y no vacíos, en orden
// de primera aparición.
func FilterOptions(items []Pet) Options {
	opts := Options{Species: []Species{}, Shelters: []string{}}
	seenSpecies := map[Species]struct{}{}
	seenShelters := map[string]struct{}{}

	for _, p := range items {
		if p.Species != "" {
			if _, ok := seenSpecies[p.Species]; !ok {
				seenSpecies[p.Species] = struct{}{}
				opts.Species = append(opts.Species, p.Species)
			}
		}
		if p.ShelterName != "" {
			if _, ok := seenShelters[p.ShelterName]; !ok {
				seenShelters[p.ShelterName] = struct{}{}
				opts.Shelters = append(opts.Shelters, p.ShelterName)
			}
		}
	}
	return opts
}
