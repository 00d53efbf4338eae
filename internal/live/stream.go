package live

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"petmatch/internal/changefeed"
	"petmatch/internal/platform/logger"

	"github.com/gorilla/websocket"
)

const (
	MessageSnapshot = "snapshot"
	MessageUpsert   = "upsert"
	MessageDelete   = "delete"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 90 * time.Second
	pingPeriod = 30 * time.Second
)

type snapshotMessage[T any] struct {
	Type  string `json:"type"`
	Items []T    `json:"items"`
}

type changeMessage[T any] struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Item *T     `json:"item,omitempty"`
}

// Feed describe una suscripción en vivo sobre un topic del changefeed.
type Feed[T any] struct {
	Topic    string
	Snapshot func(ctx context.Context) ([]T, error)
	Key      func(T) string
	Less     func(a, b T) bool

	// InScope filtra qué documentos ve este suscriptor. nil = todos.
	InScope func(T) bool
}

type Server struct {
	sub      changefeed.Subscriber
	log      logger.Logger
	upgrader websocket.Upgrader

	// stop cerrado => todas las conexiones abiertas terminan.
	stop <-chan struct{}
}

// StopOn hace que cada conexión servida termine cuando stop se cierra.
// http.Server.Shutdown no espera a las conexiones secuestradas por el
// websocket, así que main lo engancha con RegisterOnShutdown.
func (s *Server) StopOn(stop <-chan struct{}) {
	s.stop = stop
}

// NewServer arma el upgrader. Con allowedOrigins vacío (o "*") acepta
// cualquier origen; el CORS del router ya cubre los requests normales.
func NewServer(sub changefeed.Subscriber, log logger.Logger, allowedOrigins []string) *Server {
	if log == nil {
		log = logger.Nop()
	}

	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return &Server{
		sub: sub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if allowAll || origin == "" {
					return true
				}
				_, ok := allowed[strings.TrimRight(origin, "/")]
				return ok
			},
		},
	}
}

// Serve abre el websocket, manda el snapshot y después cada cambio del topic
// dentro del alcance del suscriptor, en el orden en que se publicaron.
// Se suscribe antes de leer el snapshot para no perder cambios intermedios.
func Serve[T any](s *Server, w http.ResponseWriter, r *http.Request, f Feed[T]) {
	events, cancel := s.sub.Subscribe(f.Topic)
	defer cancel()

	items, err := f.Snapshot(r.Context())
	if err != nil {
		s.log.Error("live snapshot failed", map[string]any{"topic": f.Topic, "err": err})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	inScope := f.InScope
	if inScope == nil {
		inScope = func(T) bool { return true }
	}

	view := NewView(f.Key, f.Less)
	defer view.Close()

	scoped := make([]T, 0, len(items))
	for _, it := range items {
		if inScope(it) {
			scoped = append(scoped, it)
		}
	}
	view.Replace(scoped)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := write(conn, snapshotMessage[T]{Type: MessageSnapshot, Items: view.Items()}); err != nil {
		return
	}

	// Reader: solo para control frames y detectar el cierre del cliente.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(4 * 1024)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-s.stop:
			closeWith(conn, websocket.CloseGoingAway, "server shutting down")
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				// El feed cortó la suscripción: el cliente debe reconectar y
				// pedir un snapshot nuevo.
				s.log.Warn("live subscriber fell behind, closing", map[string]any{"topic": f.Topic})
				closeWith(conn, websocket.CloseTryAgainLater, "resync")
				return
			}
			msg, send := apply(view, ev, inScope, s.log)
			if !send {
				continue
			}
			if err := write(conn, msg); err != nil {
				return
			}
		}
	}
}

func apply[T any](view *View[T], ev changefeed.Event, inScope func(T) bool, log logger.Logger) (any, bool) {
	switch ev.Kind {
	case changefeed.KindUpsert:
		var item T
		if err := json.Unmarshal(ev.Payload, &item); err != nil {
			log.Warn("live: undecodable payload", map[string]any{"topic": ev.Topic, "id": ev.ID, "err": err})
			return nil, false
		}
		if !inScope(item) {
			// Si salió del alcance, para este suscriptor es un borrado.
			if view.Delete(ev.ID) {
				return changeMessage[T]{Type: MessageDelete, ID: ev.ID}, true
			}
			return nil, false
		}
		if !view.Upsert(item) {
			return nil, false
		}
		return changeMessage[T]{Type: MessageUpsert, ID: ev.ID, Item: &item}, true

	case changefeed.KindDelete:
		if !view.Delete(ev.ID) {
			return nil, false
		}
		return changeMessage[T]{Type: MessageDelete, ID: ev.ID}, true
	}
	return nil, false
}

func write(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}
