package pets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"petmatch/internal/changefeed"
	"petmatch/internal/live"
	"petmatch/internal/platform/upload"
	"petmatch/internal/platform/validation"
	"petmatch/internal/session"

	"github.com/go-chi/chi/v5"
)

// IdempotencyHeader permite reintentar un POST sin duplicar el recurso.
const IdempotencyHeader = "Idempotency-Key"

func RegisterRoutes(r chi.Router, svc *Service, liveSrv *live.Server, maxUpload int64) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Get("/", listPetsHandler(svc))
		pr.Post("/", publishPetHandler(svc, maxUpload))

		pr.Get("/filters", filterOptionsHandler(svc))
		pr.Get("/live", livePetsHandler(svc, liveSrv))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.Delete("/{petID}", deletePetHandler(svc))
	})
}

type petResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Species     Species   `json:"species"`
	Breed       string    `json:"breed"`
	Age         string    `json:"age"`
	Description string    `json:"description"`
	PhotoURL    string    `json:"photo_url"`
	Traits      []string  `json:"traits"`
	ShelterID   string    `json:"shelter_id"`
	ShelterName string    `json:"shelter_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type permissionsResponse struct {
	CanEdit            bool `json:"can_edit"`
	CanDelete          bool `json:"can_delete"`
	CanRequestAdoption bool `json:"can_request_adoption"`
}

type petWithPermissions struct {
	petResponse
	Permissions permissionsResponse `json:"permissions"`
}

type filterOptionsResponse struct {
	Species  []Species `json:"species"`
	Shelters []string  `json:"shelters"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name        *string   `json:"name"`
	Species     *string   `json:"species"`
	Breed       *string   `json:"breed"`
	Age         *string   `json:"age"`
	Description *string   `json:"description"`
	Traits      *[]string `json:"traits"`
}

// listPetsHandler godoc
// @Summary Listar anuncios
// @Description Listado público, de más nuevo a más viejo. Filtros combinables (AND): especie exacta, refugio (nombre) exacto y texto libre sobre nombre, raza o descripción.
// @Tags pets
// @Produce json
// @Param species query string false "dog | cat | other (acepta perro/gato/otro)"
// @Param shelter query string false "Nombre del refugio"
// @Param q query string false "Texto libre"
// @Success 200 {array} petWithPermissions
// @Failure 400 {string} string "species inválida"
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		f := Filter{
			Shelter: q.Get("shelter"),
			Text:    q.Get("q"),
		}
		if raw := strings.TrimSpace(q.Get("species")); raw != "" {
			sp, ok := ParseSpecies(raw)
			if !ok {
				http.Error(w, "invalid species", http.StatusBadRequest)
				return
			}
			f.Species = sp
		}

		items, err := svc.List(r.Context(), f)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		sess, _ := session.FromContext(r.Context())
		out := make([]petWithPermissions, 0, len(items))
		for _, p := range items {
			out = append(out, withPermissions(sess, p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// filterOptionsHandler godoc
// @Summary Opciones de filtro
// @Description Especies y nombres de refugio presentes en los anuncios actuales, para armar los selectores.
// @Tags pets
// @Produce json
// @Success 200 {object} filterOptionsResponse
// @Router /pets/filters [get]
func filterOptionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := svc.Options(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, filterOptionsResponse{Species: opts.Species, Shelters: opts.Shelters})
	}
}

// livePetsHandler godoc
// @Summary Listado en vivo (websocket)
// @Description Primero un mensaje `snapshot` con todos los anuncios y después `upsert`/`delete` en el orden en que se confirman. Si el cliente se queda atrás el servidor cierra con 1013 y hay que reconectar.
// @Tags pets
// @Router /pets/live [get]
func livePetsHandler(svc *Service, liveSrv *live.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		live.Serve(liveSrv, w, r, live.Feed[petResponse]{
			Topic: changefeed.TopicPets,
			Snapshot: func(ctx context.Context) ([]petResponse, error) {
				items, err := svc.List(ctx, Filter{})
				if err != nil {
					return nil, err
				}
				out := make([]petResponse, 0, len(items))
				for _, p := range items {
					out = append(out, toPetResponse(p))
				}
				return out, nil
			},
			Key:  func(p petResponse) string { return p.ID },
			Less: func(a, b petResponse) bool { return a.CreatedAt.After(b.CreatedAt) },
		})
	}
}

// publishPetHandler godoc
// @Summary Publicar anuncio
// @Description Solo refugios. multipart/form-data con name, species, breed, age, description, traits (repetible) y photo (obligatoria). Con `Idempotency-Key` un reintento devuelve el anuncio ya creado.
// @Tags pets
// @Accept mpfd
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param Idempotency-Key header string false "Clave de reintento"
// @Success 201 {object} petWithPermissions
// @Failure 400 {object} map[string]any "validation"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 409 {string} string "submit already in flight / shelter profile required"
// @Router /pets [post]
func publishPetHandler(svc *Service, maxUpload int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !sess.IsShelter() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if !upload.IsMultipart(r) {
			http.Error(w, "multipart/form-data required", http.StatusUnsupportedMediaType)
			return
		}
		if err := upload.ParseForm(w, r, maxUpload); err != nil {
			writeError(w, err)
			return
		}

		photo, err := upload.File(r, "photo")
		if err != nil {
			http.Error(w, "invalid photo", http.StatusBadRequest)
			return
		}

		in := PublishInput{
			Name:        upload.Value(r, "name"),
			Species:     upload.Value(r, "species"),
			Breed:       upload.Value(r, "breed"),
			Age:         upload.Value(r, "age"),
			Description: upload.Value(r, "description"),
			Traits:      r.MultipartForm.Value["traits"],
		}

		p, err := svc.Publish(r.Context(), sess, in, photo, r.Header.Get(IdempotencyHeader))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, withPermissions(sess, p))
	}
}

// getPetHandler godoc
// @Summary Ver anuncio
// @Description Incluye `permissions` calculados para quien mira.
// @Tags pets
// @Produce json
// @Param petID path string true "ID del anuncio"
// @Success 200 {object} petWithPermissions
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}
		sess, _ := session.FromContext(r.Context())
		writeJSON(w, http.StatusOK, withPermissions(sess, p))
	}
}

// updatePetHandler godoc
// @Summary Editar anuncio
// @Description Solo el refugio dueño. Edición parcial en JSON; el refugio no es editable.
// @Tags pets
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID del anuncio"
// @Param payload body updatePetRequest true "Campos a modificar"
// @Success 200 {object} petWithPermissions
// @Failure 400 {object} map[string]any "validation"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Failure 409 {string} string "no changes"
// @Router /pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var req updatePetRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Update(r.Context(), sess, chi.URLParam(r, "petID"), UpdateInput{
			Name:        req.Name,
			Species:     req.Species,
			Breed:       req.Breed,
			Age:         req.Age,
			Description: req.Description,
			Traits:      req.Traits,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, withPermissions(sess, p))
	}
}

// deletePetHandler godoc
// @Summary Borrar anuncio
// @Description Solo el refugio dueño. Borra la foto y aplica la política configurada a las solicitudes del anuncio.
// @Tags pets
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID del anuncio"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [delete]
func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := svc.Delete(r.Context(), sess, chi.URLParam(r, "petID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, err error) {
	if ve, ok := validation.AsErrors(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation", "fields": ve})
		return
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrUnauthenticated):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	case errors.Is(err, ErrNoChanges):
		http.Error(w, "no changes", http.StatusConflict)
	case errors.Is(err, ErrSubmitInFlight):
		http.Error(w, "submit already in flight", http.StatusConflict)
	case errors.Is(err, ErrShelterProfile):
		http.Error(w, "shelter profile required", http.StatusConflict)
	case errors.Is(err, upload.ErrTooLarge):
		http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func withPermissions(sess session.Session, p Pet) petWithPermissions {
	perm := PermissionsFor(sess, p)
	return petWithPermissions{
		petResponse: toPetResponse(p),
		Permissions: permissionsResponse{
			CanEdit:            perm.CanEdit,
			CanDelete:          perm.CanDelete,
			CanRequestAdoption: perm.CanRequestAdoption,
		},
	}
}

func toPetResponse(p Pet) petResponse {
	traits := p.Traits
	if traits == nil {
		traits = []string{}
	}
	return petResponse{
		ID:          p.ID,
		Name:        p.Name,
		Species:     p.Species,
		Breed:       p.Breed,
		Age:         p.Age,
		Description: p.Description,
		PhotoURL:    p.PhotoURL,
		Traits:      traits,
		ShelterID:   p.ShelterID,
		ShelterName: p.ShelterName,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
