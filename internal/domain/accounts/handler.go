package accounts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"petmatch/internal/middleware"
	"petmatch/internal/platform/upload"
	"petmatch/internal/platform/validation"
	"petmatch/internal/ports/auth"
	"petmatch/internal/ports/blob"
	"petmatch/internal/session"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /auth/* y /me/*. maxUpload acota los multipart.
func RegisterRoutes(r chi.Router, svc *Service, maxUpload int64) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", registerHandler(svc, maxUpload))
		ar.Post("/login", loginHandler(svc))
		ar.Post("/logout", logoutHandler(svc))
	})

	r.Get("/me", meHandler())
	r.Get("/me/profile", getProfileHandler(svc))
	r.Patch("/me/profile", updateProfileHandler(svc, maxUpload))
}

type registerRequest struct {
	Role     string `json:"role"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Province string `json:"province"`

	// adoptante
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	NationalID string `json:"national_id"`

	// refugio
	ShelterName string `json:"shelter_name"`
	Website     string `json:"website"`
}

func (req registerRequest) draft() (Draft, error) {
	contact := ContactFields{
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Province: req.Province,
	}

	role := session.DefaultRole
	if strings.TrimSpace(req.Role) != "" {
		r, ok := session.ParseRole(req.Role)
		if !ok {
			return nil, validation.Errors{"role": "Rol inválido"}
		}
		role = r
	}

	if role == session.RoleShelter {
		return ShelterDraft{ContactFields: contact, ShelterName: req.ShelterName, Website: req.Website}, nil
	}
	return AdopterDraft{ContactFields: contact, FirstName: req.FirstName, LastName: req.LastName, NationalID: req.NationalID}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string          `json:"token"`
	ExpiresIn int64           `json:"expires_in"`
	Session   sessionResponse `json:"session"`
}

type sessionResponse struct {
	PrincipalID string       `json:"principal_id"`
	Email       string       `json:"email"`
	Role        session.Role `json:"role"`
	DisplayName string       `json:"display_name,omitempty"`
}

type profileResponse struct {
	ID        string       `json:"id"`
	Role      session.Role `json:"role"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone"`
	Address   string       `json:"address"`
	Province  string       `json:"province"`
	PhotoURL  string       `json:"photo_url,omitempty"`
	Name      string       `json:"display_name"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	NationalID string `json:"national_id,omitempty"`

	ShelterName string `json:"shelter_name,omitempty"`
	Website     string `json:"website,omitempty"`
}

type registerResponse struct {
	Profile profileResponse `json:"profile"`
	Token   string          `json:"token,omitempty"`
}

type updateProfileRequest struct {
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	Province    *string `json:"province"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	NationalID  *string `json:"national_id"`
	ShelterName *string `json:"shelter_name"`
	Website     *string `json:"website"`
}

func (req updateProfileRequest) patch() ProfilePatch {
	return ProfilePatch{
		Phone:       req.Phone,
		Address:     req.Address,
		Province:    req.Province,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		NationalID:  req.NationalID,
		ShelterName: req.ShelterName,
		Website:     req.Website,
	}
}

// registerHandler godoc
// @Summary Registrar usuario
// @Description Crea la cuenta, el perfil y el registro de rol. Acepta JSON o multipart/form-data (campo `photo` opcional). Si el alta funciona se devuelve también un token de sesión.
// @Tags auth
// @Accept json
// @Accept mpfd
// @Produce json
// @Param payload body registerRequest true "Datos de registro; role = adoptante | refugio"
// @Success 201 {object} registerResponse
// @Failure 400 {object} map[string]any "validation / weak_password / invalid_email"
// @Failure 409 {object} map[string]any "email_in_use"
// @Router /auth/register [post]
func registerHandler(svc *Service, maxUpload int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			req   registerRequest
			photo *blob.Object
		)

		if upload.IsMultipart(r) {
			if err := upload.ParseForm(w, r, maxUpload); err != nil {
				writeError(w, err)
				return
			}
			req = registerRequest{
				Role:        upload.Value(r, "role"),
				Email:       upload.Value(r, "email"),
				Password:    r.FormValue("password"),
				Phone:       upload.Value(r, "phone"),
				Address:     upload.Value(r, "address"),
				Province:    upload.Value(r, "province"),
				FirstName:   upload.Value(r, "first_name"),
				LastName:    upload.Value(r, "last_name"),
				NationalID:  upload.Value(r, "national_id"),
				ShelterName: upload.Value(r, "shelter_name"),
				Website:     upload.Value(r, "website"),
			}
			f, err := upload.File(r, "photo")
			if err != nil {
				http.Error(w, "invalid photo", http.StatusBadRequest)
				return
			}
			photo = f
		} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		d, err := req.draft()
		if err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.Register(r.Context(), d, req.Password, photo)
		if err != nil {
			writeError(w, err)
			return
		}

		out := registerResponse{Profile: toProfileResponse(p)}

		// La cuenta ya quedó creada; si el login automático falla el cliente
		// puede loguearse a mano.
		if tok, _, err := svc.Login(r.Context(), p.Email, req.Password); err == nil {
			out.Token = tok.Value
		}

		writeJSON(w, http.StatusCreated, out)
	}
}

// loginHandler godoc
// @Summary Iniciar sesión
// @Description Devuelve un token opaco y la sesión resuelta (rol + nombre visible). Los errores llevan `{"error":code,"message":texto}`.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} tokenResponse
// @Failure 400 {object} map[string]any "invalid_email"
// @Failure 401 {object} map[string]any "wrong_credential / user_not_found"
// @Failure 429 {object} map[string]any "rate_limited"
// @Router /auth/login [post]
func loginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		tok, sess, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, tokenResponse{
			Token:     tok.Value,
			ExpiresIn: tok.ExpiresIn,
			Session:   toSessionResponse(sess),
		})
	}
}

// logoutHandler godoc
// @Summary Cerrar sesión
// @Description Invalida el token del request en el proveedor.
// @Tags auth
// @Param Authorization header string false "Bearer token"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Router /auth/logout [post]
func logoutHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := svc.Logout(r.Context(), middleware.GetToken(r.Context())); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// meHandler godoc
// @Summary Sesión actual
// @Description Principal, rol resuelto y nombre visible del perfil.
// @Tags auth
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Success 200 {object} sessionResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me [get]
func meHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(sess))
	}
}

// getProfileHandler godoc
// @Summary Ver perfil
// @Tags profile
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Success 200 {object} profileResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "profile not found"
// @Router /me/profile [get]
func getProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.GetProfile(r.Context(), sess.PrincipalID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

// updateProfileHandler godoc
// @Summary Editar perfil
// @Description Edición parcial (campos ausentes no se tocan). Con multipart se puede reemplazar la foto (`photo`). Sin cambios => 409; otro envío en curso => 409.
// @Tags profile
// @Accept json
// @Accept mpfd
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param payload body updateProfileRequest true "Campos a modificar"
// @Success 200 {object} profileResponse
// @Failure 400 {object} map[string]any "validation"
// @Failure 401 {string} string "unauthorized"
// @Failure 409 {string} string "no changes / submit in flight"
// @Router /me/profile [patch]
func updateProfileHandler(svc *Service, maxUpload int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var (
			req   updateProfileRequest
			photo *blob.Object
		)

		if upload.IsMultipart(r) {
			if err := upload.ParseForm(w, r, maxUpload); err != nil {
				writeError(w, err)
				return
			}
			req = updateProfileRequest{
				Phone:       upload.OptionalValue(r, "phone"),
				Address:     upload.OptionalValue(r, "address"),
				Province:    upload.OptionalValue(r, "province"),
				FirstName:   upload.OptionalValue(r, "first_name"),
				LastName:    upload.OptionalValue(r, "last_name"),
				NationalID:  upload.OptionalValue(r, "national_id"),
				ShelterName: upload.OptionalValue(r, "shelter_name"),
				Website:     upload.OptionalValue(r, "website"),
			}
			f, err := upload.File(r, "photo")
			if err != nil {
				http.Error(w, "invalid photo", http.StatusBadRequest)
				return
			}
			photo = f
		} else {
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		p, err := svc.UpdateProfile(r.Context(), sess.PrincipalID, req.patch(), photo)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

func writeError(w http.ResponseWriter, err error) {
	if ve, ok := validation.AsErrors(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation", "fields": ve})
		return
	}

	var ae *auth.Error
	if errors.As(err, &ae) {
		writeJSON(w, auth.HTTPStatus(ae.Code), map[string]any{"error": ae.Code, "message": auth.Message(ae.Code)})
		return
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "profile not found", http.StatusNotFound)
	case errors.Is(err, ErrNoChanges):
		http.Error(w, "no changes", http.StatusConflict)
	case errors.Is(err, ErrSubmitInFlight):
		http.Error(w, "submit already in flight", http.StatusConflict)
	case errors.Is(err, upload.ErrTooLarge):
		http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toSessionResponse(s session.Session) sessionResponse {
	return sessionResponse{
		PrincipalID: s.PrincipalID,
		Email:       s.Email,
		Role:        s.Role,
		DisplayName: s.DisplayName,
	}
}

func toProfileResponse(p Profile) profileResponse {
	out := profileResponse{
		ID:        p.ID,
		Role:      p.Role,
		Email:     p.Email,
		Phone:     p.Phone,
		Address:   p.Address,
		Province:  p.Province,
		PhotoURL:  p.PhotoURL,
		Name:      p.DisplayName(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Adopter != nil {
		out.FirstName = p.Adopter.FirstName
		out.LastName = p.Adopter.LastName
		out.NationalID = p.Adopter.NationalID
	}
	if p.Shelter != nil {
		out.ShelterName = p.Shelter.ShelterName
		out.Website = p.Shelter.Website
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
