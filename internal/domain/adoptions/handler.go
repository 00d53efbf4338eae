package adoptions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"petmatch/internal/changefeed"
	"petmatch/internal/live"
	"petmatch/internal/session"

	"github.com/go-chi/chi/v5"
)

// IdempotencyHeader permite reintentar un POST sin duplicar la solicitud.
const IdempotencyHeader = "Idempotency-Key"

func RegisterRoutes(r chi.Router, svc *Service, liveSrv *live.Server) {
	r.Post("/pets/{petID}/adoption-requests", createRequestHandler(svc))

	r.Get("/me/adoption-requests", listMyRequestsHandler(svc))
	r.Get("/me/adoption-requests/live", liveMyRequestsHandler(svc, liveSrv))

	r.Route("/adoption-requests/{requestID}", func(ar chi.Router) {
		ar.Post("/accept", decideHandler(svc, StatusAccepted))
		ar.Post("/reject", decideHandler(svc, StatusRejected))
	})
}

type requestResponse struct {
	ID           string    `json:"id"`
	PetID        string    `json:"pet_id"`
	PetName      string    `json:"pet_name"`
	PetAvailable bool      `json:"pet_available"`
	AdopterID    string    `json:"adopter_id"`
	AdopterName  string    `json:"adopter_name"`
	AdopterEmail string    `json:"adopter_email"`
	AdopterPhone string    `json:"adopter_phone"`
	ShelterID    string    `json:"shelter_id"`
	ShelterName  string    `json:"shelter_name"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// createRequestHandler godoc
// @Summary Solicitar adopción
// @Description Solo adoptantes. Crea una solicitud `pendiente` con una copia del nombre de la mascota, el refugio y el contacto del adoptante. Sin sesión responde 401 con el mensaje "Debes iniciar sesión para solicitar adopción".
// @Tags adoptions
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param Idempotency-Key header string false "Clave de reintento"
// @Param petID path string true "ID del anuncio"
// @Success 201 {object} requestResponse
// @Failure 401 {object} map[string]any "sign_in_required"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/adoption-requests [post]
func createRequestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := session.FromContext(r.Context())

		req, err := svc.Create(r.Context(), sess, chi.URLParam(r, "petID"), r.Header.Get(IdempotencyHeader))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRequestResponse(req))
	}
}

// listMyRequestsHandler godoc
// @Summary Mis solicitudes
// @Description Adoptante: las que envió. Refugio: las que recibió. De más nueva a más vieja.
// @Tags adoptions
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Success 200 {array} requestResponse
// @Failure 401 {object} map[string]any "sign_in_required"
// @Router /me/adoption-requests [get]
func listMyRequestsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := session.FromContext(r.Context())

		items, err := svc.ListMine(r.Context(), sess)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]requestResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toRequestResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// liveMyRequestsHandler godoc
// @Summary Mis solicitudes en vivo (websocket)
// @Description Mismo alcance que /me/adoption-requests. Primero `snapshot` y después `upsert`/`delete`. Si el cliente se queda atrás el servidor cierra con 1013 y hay que reconectar.
// @Tags adoptions
// @Param token query string false "Token de sesión, alternativa al header Authorization en el handshake"
// @Router /me/adoption-requests/live [get]
func liveMyRequestsHandler(svc *Service, liveSrv *live.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		live.Serve(liveSrv, w, r, live.Feed[requestResponse]{
			Topic: changefeed.TopicAdoptionRequests,
			Snapshot: func(ctx context.Context) ([]requestResponse, error) {
				items, err := svc.ListMine(ctx, sess)
				if err != nil {
					return nil, err
				}
				out := make([]requestResponse, 0, len(items))
				for _, it := range items {
					out = append(out, toRequestResponse(it))
				}
				return out, nil
			},
			Key:  func(rr requestResponse) string { return rr.ID },
			Less: func(a, b requestResponse) bool { return a.CreatedAt.After(b.CreatedAt) },
			InScope: func(rr requestResponse) bool {
				return InScope(sess, Request{AdopterID: rr.AdopterID, ShelterID: rr.ShelterID})
			},
		})
	}
}

// decideHandler godoc
// @Summary Aceptar o rechazar solicitud
// @Description Solo el refugio dueño. Una solicitud ya decidida responde 409 y no se vuelve a aplicar.
// @Tags adoptions
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param requestID path string true "ID de la solicitud"
// @Success 200 {object} requestResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "request not found"
// @Failure 409 {string} string "request already decided"
// @Router /adoption-requests/{requestID}/accept [post]
// @Router /adoption-requests/{requestID}/reject [post]
func decideHandler(svc *Service, target Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		requestID := chi.URLParam(r, "requestID")

		var (
			out Request
			err error
		)
		if target == StatusAccepted {
			out, err = svc.Accept(r.Context(), sess, requestID)
		} else {
			out, err = svc.Reject(r.Context(), sess, requestID)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRequestResponse(out))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSignInRequired):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "sign_in_required", "message": SignInRequiredMessage})
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrTerminal):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toRequestResponse(r Request) requestResponse {
	return requestResponse{
		ID:           r.ID,
		PetID:        r.PetID,
		PetName:      r.PetName,
		PetAvailable: r.PetAvailable,
		AdopterID:    r.AdopterID,
		AdopterName:  r.AdopterName,
		AdopterEmail: r.AdopterEmail,
		AdopterPhone: r.AdopterPhone,
		ShelterID:    r.ShelterID,
		ShelterName:  r.ShelterName,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Mismo helper que en pets y accounts.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
