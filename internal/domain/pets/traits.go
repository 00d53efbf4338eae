package pets

import (
	"errors"
	"strings"
)

var (
	ErrEmptyTrait     = errors.New("empty trait")
	ErrDuplicateTrait = errors.New("duplicate trait")
)

// Traits es un conjunto ordenado de características. El duplicado se
// rechaza al agregar (comparación exacta después de recortar espacios).
type Traits struct {
	items []string
}

func NewTraits(values ...string) (Traits, error) {
	var t Traits
	for _, v := range values {
		if err := t.Add(v); err != nil {
			return Traits{}, err
		}
	}
	return t, nil
}

func (t *Traits) Add(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return ErrEmptyTrait
	}
	for _, it := range t.items {
		if it == v {
			return ErrDuplicateTrait
		}
	}
	t.items = append(t.items, v)
	return nil
}

// Remove quita por posición; índices fuera de rango se ignoran.
func (t *Traits) Remove(i int) {
	if i < 0 || i >= len(t.items) {
		return
	}
	t.items = append(t.items[:i:i], t.items[i+1:]...)
}

func (t Traits) Len() int { return len(t.items) }

func (t Traits) Values() []string {
	out := make([]string, len(t.items))
	copy(out, t.items)
	return out
}
