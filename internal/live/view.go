package live

import (
	"sort"
	"sync"
)

// View es la colección local de un suscriptor, indexada por id. Upsert es
// last-write-wins. Después de Close cualquier cambio se ignora, así una
// entrega tardía no toca una vista que ya se desmontó.
type View[T any] struct {
	mu     sync.Mutex
	items  map[string]T
	key    func(T) string
	less   func(a, b T) bool
	closed bool
}

func NewView[T any](key func(T) string, less func(a, b T) bool) *View[T] {
	return &View[T]{
		items: make(map[string]T),
		key:   key,
		less:  less,
	}
}

// Replace reemplaza todo el contenido (snapshot inicial).
func (v *View[T]) Replace(items []T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false
	}
	v.items = make(map[string]T, len(items))
	for _, it := range items {
		v.items[v.key(it)] = it
	}
	return true
}

// Upsert devuelve false si la vista ya está cerrada.
func (v *View[T]) Upsert(item T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false
	}
	v.items[v.key(item)] = item
	return true
}

// Delete devuelve true solo si el id estaba en la vista.
func (v *View[T]) Delete(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false
	}
	if _, ok := v.items[id]; !ok {
		return false
	}
	delete(v.items, id)
	return true
}

func (v *View[T]) Has(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.items[id]
	return ok
}

func (v *View[T]) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.items)
}

// Items devuelve una copia ordenada según less (estable por id ante empates).
func (v *View[T]) Items() []T {
	v.mu.Lock()
	out := make([]T, 0, len(v.items))
	for _, it := range v.items {
		out = append(out, it)
	}
	v.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if v.less(out[i], out[j]) {
			return true
		}
		if v.less(out[j], out[i]) {
			return false
		}
		return v.key(out[i]) < v.key(out[j])
	})
	return out
}

func (v *View[T]) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}

func (v *View[T]) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}
