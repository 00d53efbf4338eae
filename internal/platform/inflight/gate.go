package inflight

import "sync"

// Gate es el flag "en curso" por clave: mientras una operación con la misma
// clave no terminó, las siguientes se rechazan (no se encolan).
type Gate struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewGate() *Gate {
	return &Gate{busy: make(map[string]struct{})}
}

// TryAcquire devuelve release y true si la clave estaba libre.
func (g *Gate) TryAcquire(key string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.busy[key]; ok {
		return func() {}, false
	}
	g.busy[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, key)
			g.mu.Unlock()
		})
	}, true
}

func (g *Gate) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.busy[key]
	return ok
}
