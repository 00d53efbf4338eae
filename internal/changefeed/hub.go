package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	TopicPets             = "pets"
	TopicAdoptionRequests = "adoption_requests"
)

type Kind string

const (
	KindUpsert Kind = "upsert"
	KindDelete Kind = "delete"
)

// Event es un cambio confirmado en un documento.
type Event struct {
	Topic   string          `json:"topic"`
	Kind    Kind            `json:"kind"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}

// NewEvent serializa v como payload.
func NewEvent(topic string, kind Kind, id string, v any) (Event, error) {
	e := Event{Topic: topic, Kind: kind, ID: id, At: time.Now().UTC()}
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return Event{}, fmt.Errorf("changefeed: marshal payload: %w", err)
		}
		e.Payload = b
	}
	return e, nil
}

// Publisher es lo que usan los services después de una escritura confirmada.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber entrega eventos de un topic hasta que se llama cancel.
type Subscriber interface {
	Subscribe(topic string) (<-chan Event, func())
}

// Feed junta ambos lados.
type Feed interface {
	Publisher
	Subscriber
}

// DefaultBuffer es el tamaño del canal por suscriptor.
const DefaultBuffer = 64

// Hub hace fan-out en proceso. Un suscriptor que no vacía su canal a tiempo
// se corta: su canal se cierra y deja de recibir, para que el consumidor se
// vuelva a suscribir y parta de un snapshot nuevo en vez de seguir con huecos.
// Dropped cuenta los suscriptores cortados así.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	buffer int

	dropped int
}

type subscription struct {
	ch     chan Event
	closed bool
}

func NewHub() *Hub {
	return NewHubWithBuffer(DefaultBuffer)
}

// NewHubWithBuffer fija el tamaño del canal de cada suscriptor.
func NewHubWithBuffer(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[*subscription]struct{}),
		buffer: buffer,
	}
}

func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	s := &subscription{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*subscription]struct{})
	}
	h.subs[topic][s] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.drop(topic, s)
	}
	return s.ch, cancel
}

// drop quita y cierra la suscripción. Requiere h.mu tomado.
func (h *Hub) drop(topic string, s *subscription) {
	if s.closed {
		return
	}
	delete(h.subs[topic], s)
	s.closed = true
	close(s.ch)
}

// Publish entrega localmente, en orden, a cada suscriptor del topic.
func (h *Hub) Publish(_ context.Context, e Event) error {
	h.Deliver(e)
	return nil
}

// Deliver es el punto de entrada que usa el bridge de Redis. Nunca bloquea:
// si el canal de un suscriptor está lleno, ese suscriptor se corta.
func (h *Hub) Deliver(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs[e.Topic] {
		select {
		case s.ch <- e:
		default:
			h.drop(e.Topic, s)
			h.dropped++
		}
	}
}

// Subscribers devuelve cuántos suscriptores tiene un topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}

// Dropped devuelve cuántos suscriptores se cortaron por quedarse atrás.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
