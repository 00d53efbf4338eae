package accounts

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"petmatch/internal/platform/inflight"
	"petmatch/internal/platform/logger"
	"petmatch/internal/platform/validation"
	"petmatch/internal/ports/auth"
	"petmatch/internal/ports/blob"
	"petmatch/internal/session"

	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrNoChanges      = errors.New("no changes")
	ErrSubmitInFlight = errors.New("submit already in flight")
)

const minPasswordLen = 6

type Service struct {
	repo     Repository
	provider auth.Provider
	blobs    blob.Store
	log      logger.Logger
	now      func() time.Time

	roles    singleflight.Group
	inflight *inflight.Gate
}

func NewService(repo Repository, provider auth.Provider, blobs blob.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		provider: provider,
		blobs:    blobs,
		log:      log,
		now:      time.Now,
		inflight: inflight.NewGate(),
	}
}

// Register valida el draft antes de cualquier llamada externa, da de alta
// la cuenta en el proveedor, sube la foto (opcional) y escribe perfil y rol
// en una sola llamada. Si esa escritura falla se deshace el alta.
func (s *Service) Register(ctx context.Context, d Draft, password string, photo *blob.Object) (Profile, error) {
	if d == nil {
		return Profile{}, ErrInvalidInput
	}
	if err := d.Validate(); err != nil {
		return Profile{}, err
	}
	if len(password) < minPasswordLen {
		return Profile{}, auth.NewError(auth.CodeWeakPassword, nil)
	}

	claims, err := s.provider.SignUp(ctx, d.Contact().Email, password)
	if err != nil {
		return Profile{}, err
	}

	now := s.now()
	p := d.toProfile(claims.UserID)
	p.CreatedAt = now
	p.UpdatedAt = now

	if photo != nil {
		stored, err := s.blobs.Put(ctx, profilePhotoKey(p.Role, p.ID, now), *photo)
		if err != nil {
			// La cuenta ya existe; el perfil queda sin foto.
			s.log.Warn("profile photo upload failed on register", map[string]any{"principal_id": p.ID, "err": err})
		} else {
			p.PhotoURL = stored.URL
			p.PhotoKey = stored.Key
		}
	}

	if err := s.repo.CreateAccount(ctx, p); err != nil {
		s.discardBlob(ctx, p.PhotoKey)
		s.undoSignUp(ctx, p.ID)
		return Profile{}, fmt.Errorf("create account: %w", err)
	}
	return p, nil
}

// undoSignUp retira la cuenta del proveedor para que el email quede libre
// y el usuario pueda reintentar el registro.
func (s *Service) undoSignUp(ctx context.Context, principalID string) {
	if err := s.provider.DeleteAccount(ctx, principalID); err != nil {
		s.log.Warn("sign up not undone after failed account write", map[string]any{"principal_id": principalID, "err": err})
	}
}

// Login valida el email antes de ir al proveedor. Los errores del proveedor
// se devuelven tal cual (*auth.Error) para que el handler muestre el mensaje.
func (s *Service) Login(ctx context.Context, email, password string) (auth.Token, session.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validation.IsEmail(email) {
		return auth.Token{}, session.Session{}, auth.NewError(auth.CodeInvalidEmail, nil)
	}
	if password == "" {
		return auth.Token{}, session.Session{}, auth.NewError(auth.CodeWrongCredential, nil)
	}

	tok, claims, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return auth.Token{}, session.Session{}, err
	}
	if claims.Email == "" {
		claims.Email = email
	}
	return tok, s.ResolveSession(ctx, claims), nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.provider.SignOut(ctx, token)
}

// ResolveRole lee el registro de rol. Ausente o con error => adoptante.
// Lecturas concurrentes del mismo principal se colapsan en una.
func (s *Service) ResolveRole(ctx context.Context, principalID string) session.Role {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return session.DefaultRole
	}

	v, err, _ := s.roles.Do(principalID, func() (any, error) {
		return s.repo.GetRole(ctx, principalID)
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("role lookup failed, using default role", map[string]any{"principal_id": principalID, "err": err})
		}
		return session.DefaultRole
	}

	role, _ := v.(session.Role)
	if !role.Valid() {
		return session.DefaultRole
	}
	return role
}

// ResolveDisplayProfile devuelve el perfil del principal para el rol dado.
func (s *Service) ResolveDisplayProfile(ctx context.Context, principalID string, role session.Role) (Profile, error) {
	p, err := s.repo.GetProfile(ctx, principalID)
	if err != nil {
		return Profile{}, err
	}
	if p.Role != role {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

// ShelterName devuelve el nombre público del refugio. Sin perfil de
// refugio devuelve "" sin error.
func (s *Service) ShelterName(ctx context.Context, principalID string) (string, error) {
	p, err := s.ResolveDisplayProfile(ctx, principalID, session.RoleShelter)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return p.DisplayName(), nil
}

// ResolveSession arma la sesión del request. Nunca falla: si el perfil no
// se puede leer, la sesión queda sin DisplayName.
func (s *Service) ResolveSession(ctx context.Context, claims auth.Claims) session.Session {
	sess := session.Session{
		PrincipalID: claims.UserID,
		Email:       claims.Email,
		Role:        s.ResolveRole(ctx, claims.UserID),
	}

	p, err := s.ResolveDisplayProfile(ctx, claims.UserID, sess.Role)
	if err == nil {
		sess.DisplayName = p.DisplayName()
		if sess.Email == "" {
			sess.Email = p.Email
		}
	}
	return sess
}

func (s *Service) GetProfile(ctx context.Context, principalID string) (Profile, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return Profile{}, ErrInvalidInput
	}
	return s.repo.GetProfile(ctx, principalID)
}

// Contact resuelve el snapshot de contacto. Si el perfil no se puede leer
// cae a los campos de identidad (email) en vez de fallar.
func (s *Service) Contact(ctx context.Context, principalID, fallbackEmail string) Contact {
	p, err := s.repo.GetProfile(ctx, principalID)
	if err != nil {
		s.log.Warn("contact snapshot falls back to identity", map[string]any{"principal_id": principalID, "err": err})
		return Contact{Name: fallbackEmail, Email: fallbackEmail}
	}

	c := Contact{Name: p.DisplayName(), Email: p.Email, Phone: p.Phone}
	if c.Name == "" {
		c.Name = fallbackEmail
	}
	if c.Email == "" {
		c.Email = fallbackEmail
	}
	return c
}

// UpdateProfile aplica la edición como una sola unidad lógica:
// - sin cambios y sin foto => ErrNoChanges
// - un submit en curso por principal => ErrSubmitInFlight
// - si hay foto se sube primero; si la escritura del perfil falla se borra
//   el blob subido y el perfil anterior queda intacto.
func (s *Service) UpdateProfile(ctx context.Context, principalID string, patch ProfilePatch, photo *blob.Object) (Profile, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return Profile{}, ErrInvalidInput
	}

	release, ok := s.inflight.TryAcquire(principalID)
	if !ok {
		return Profile{}, ErrSubmitInFlight
	}
	defer release()

	current, err := s.repo.GetProfile(ctx, principalID)
	if err != nil {
		return Profile{}, err
	}

	next, changed, err := patch.apply(current)
	if err != nil {
		return Profile{}, err
	}
	if !changed && photo == nil {
		return Profile{}, ErrNoChanges
	}

	now := s.now()
	if photo != nil {
		stored, err := s.blobs.Put(ctx, profilePhotoKey(current.Role, current.ID, now), *photo)
		if err != nil {
			return Profile{}, fmt.Errorf("upload profile photo: %w", err)
		}
		next.PhotoURL = stored.URL
		next.PhotoKey = stored.Key
	}

	next.UpdatedAt = now
	if err := s.repo.UpdateProfile(ctx, next); err != nil {
		if photo != nil {
			s.discardBlob(ctx, next.PhotoKey)
		}
		return Profile{}, err
	}

	// La foto anterior ya no está referenciada.
	if photo != nil && current.PhotoKey != "" && current.PhotoKey != next.PhotoKey {
		s.discardBlob(ctx, current.PhotoKey)
	}
	return next, nil
}

func (s *Service) discardBlob(ctx context.Context, key string) {
	if key == "" || s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.log.Error("orphan blob cleanup failed", map[string]any{"key": key, "err": err})
	}
}

// Cada subida usa una key nueva para que un fallo posterior no pise la foto
// que sigue referenciada.
func profilePhotoKey(role session.Role, id string, at time.Time) string {
	return path.Join("usuarios", string(role)+"s", id, fmt.Sprintf("perfil_%d", at.UnixNano()))
}
