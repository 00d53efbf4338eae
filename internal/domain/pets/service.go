package pets

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"petmatch/internal/changefeed"
	"petmatch/internal/platform/inflight"
	"petmatch/internal/platform/logger"
	"petmatch/internal/platform/validation"
	"petmatch/internal/ports/blob"
	"petmatch/internal/ports/idempotency"
	"petmatch/internal/session"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("pet not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNoChanges       = errors.New("no changes")
	ErrSubmitInFlight  = errors.New("submit already in flight")
	ErrShelterProfile  = errors.New("shelter profile required")
)

// DefaultIdempotencyTTL es cuánto se recuerda una Idempotency-Key.
const DefaultIdempotencyTTL = 24 * time.Hour

// DeleteObserver se entera de cada anuncio borrado (p.ej. para las
// solicitudes que lo referencian).
type DeleteObserver interface {
	OnPetDeleted(ctx context.Context, petID string) error
}

// ShelterNames resuelve el nombre público de un refugio cuando la sesión no
// lo trae. ("", nil) = no hay perfil de refugio.
type ShelterNames interface {
	ShelterName(ctx context.Context, principalID string) (string, error)
}

type Service struct {
	repo  Repository
	blobs blob.Store
	feed  changefeed.Publisher
	idem  idempotency.Store
	log   logger.Logger
	now   func() time.Time

	idemTTL   time.Duration
	inflight  *inflight.Gate
	observers []DeleteObserver
	names     ShelterNames
}

// NewService: feed e idem pueden ser nil (sin eventos / sin idempotencia).
func NewService(repo Repository, blobs blob.Store, feed changefeed.Publisher, idem idempotency.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		blobs:    blobs,
		feed:     feed,
		idem:     idem,
		log:      log,
		now:      time.Now,
		idemTTL:  DefaultIdempotencyTTL,
		inflight: inflight.NewGate(),
	}
}

func (s *Service) SetIdempotencyTTL(ttl time.Duration) {
	if ttl > 0 {
		s.idemTTL = ttl
	}
}

func (s *Service) SetShelterNames(n ShelterNames) {
	s.names = n
}

func (s *Service) AddDeleteObserver(o DeleteObserver) {
	if o != nil {
		s.observers = append(s.observers, o)
	}
}

type PublishInput struct {
	Name        string   `json:"name" validate:"required"`
	Species     string   `json:"species" validate:"required,species"`
	Breed       string   `json:"breed" validate:"required"`
	Age         string   `json:"age" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Traits      []string `json:"traits"`
}

func (in PublishInput) normalized() PublishInput {
	return PublishInput{
		Name:        strings.TrimSpace(in.Name),
		Species:     strings.TrimSpace(in.Species),
		Breed:       strings.TrimSpace(in.Breed),
		Age:         strings.TrimSpace(in.Age),
		Description: strings.TrimSpace(in.Description),
		Traits:      in.Traits,
	}
}

// validate junta todos los errores de campo (incluida la foto) antes de
// cualquier llamada externa.
func (in PublishInput) validate(photo *blob.Object) (Traits, error) {
	errs := validation.Errors{}
	if err := validation.Struct(in); err != nil {
		ve, ok := validation.AsErrors(err)
		if !ok {
			return Traits{}, err
		}
		for k, v := range ve {
			errs.Add(k, v)
		}
	}

	traits, err := NewTraits(in.Traits...)
	if err != nil {
		errs.Add("traits", traitMessage(err))
	}

	if photo == nil || photo.Body == nil {
		errs.Add("photo", "Foto obligatoria")
	}
	return traits, errs.Err()
}

func traitMessage(err error) string {
	if errors.Is(err, ErrDuplicateTrait) {
		return "Característica duplicada"
	}
	return "Característica vacía"
}

// Publish crea un anuncio. Orden: permisos, validación completa, gate por
// refugio, idempotencia, subida de foto y alta del documento. Si el alta
// falla se borra la foto subida.
func (s *Service) Publish(ctx context.Context, sess session.Session, in PublishInput, photo *blob.Object, idemKey string) (Pet, error) {
	if !sess.Authenticated() {
		return Pet{}, ErrUnauthenticated
	}
	if !sess.IsShelter() {
		return Pet{}, ErrForbidden
	}

	in = in.normalized()
	traits, err := in.validate(photo)
	if err != nil {
		return Pet{}, err
	}
	species, _ := ParseSpecies(in.Species)

	shelterName, err := s.shelterName(ctx, sess)
	if err != nil {
		return Pet{}, err
	}

	release, ok := s.inflight.TryAcquire(sess.PrincipalID)
	if !ok {
		return Pet{}, ErrSubmitInFlight
	}
	defer release()

	scope := "pets:" + sess.PrincipalID
	idemKey = strings.TrimSpace(idemKey)
	if idemKey != "" && s.idem != nil {
		existingID, reserved, err := s.idem.Reserve(ctx, scope, idemKey, s.idemTTL)
		if err != nil {
			return Pet{}, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if !reserved {
			if existingID == "" {
				return Pet{}, ErrSubmitInFlight
			}
			return s.repo.GetByID(ctx, existingID)
		}
	} else {
		idemKey = ""
	}

	now := s.now()
	stored, err := s.blobs.Put(ctx, listingPhotoKey(now, photo.Filename), *photo)
	if err != nil {
		s.releaseKey(ctx, scope, idemKey)
		return Pet{}, fmt.Errorf("upload listing photo: %w", err)
	}

	p := Pet{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Species:     species,
		Breed:       in.Breed,
		Age:         in.Age,
		Description: in.Description,
		PhotoURL:    stored.URL,
		PhotoKey:    stored.Key,
		Traits:      traits.Values(),
		ShelterID:   sess.PrincipalID,
		ShelterName: shelterName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.discardBlob(ctx, stored.Key)
		s.releaseKey(ctx, scope, idemKey)
		return Pet{}, fmt.Errorf("create pet: %w", err)
	}

	if idemKey != "" {
		if err := s.idem.Complete(ctx, scope, idemKey, p.ID, s.idemTTL); err != nil {
			s.log.Warn("idempotency complete failed", map[string]any{"pet_id": p.ID, "err": err})
		}
	}

	s.publish(ctx, changefeed.KindUpsert, p)
	return p, nil
}

// shelterName no deja publicar anuncios sin nombre de refugio: si la sesión
// no lo trae se relee el perfil.
func (s *Service) shelterName(ctx context.Context, sess session.Session) (string, error) {
	if name := strings.TrimSpace(sess.DisplayName); name != "" {
		return name, nil
	}
	if s.names == nil {
		return "", ErrShelterProfile
	}
	name, err := s.names.ShelterName(ctx, sess.PrincipalID)
	if err != nil {
		return "", fmt.Errorf("resolve shelter name: %w", err)
	}
	if name = strings.TrimSpace(name); name == "" {
		return "", ErrShelterProfile
	}
	return name, nil
}

// UpdateInput: nil = no tocar. ShelterID no es editable.
type UpdateInput struct {
	Name        *string
	Species     *string
	Breed       *string
	Age         *string
	Description *string
	Traits      *[]string
}

func (s *Service) Update(ctx context.Context, sess session.Session, petID string, in UpdateInput) (Pet, error) {
	if !sess.Authenticated() {
		return Pet{}, ErrUnauthenticated
	}

	current, err := s.Get(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if !CanManage(sess.Role, sess.PrincipalID, current) {
		return Pet{}, ErrForbidden
	}

	next := current
	changed := false
	errs := validation.Errors{}

	setText := func(field string, dst *string, v *string) {
		if v == nil {
			return
		}
		nv := strings.TrimSpace(*v)
		if nv == "" {
			errs.Add(field, "Campo obligatorio")
			return
		}
		if nv != *dst {
			*dst = nv
			changed = true
		}
	}

	setText("name", &next.Name, in.Name)
	setText("breed", &next.Breed, in.Breed)
	setText("age", &next.Age, in.Age)
	setText("description", &next.Description, in.Description)

	if in.Species != nil {
		sp, ok := ParseSpecies(*in.Species)
		if !ok {
			errs.Add("species", "Especie inválida")
		} else if sp != next.Species {
			next.Species = sp
			changed = true
		}
	}

	if in.Traits != nil {
		t, err := NewTraits(*in.Traits...)
		if err != nil {
			errs.Add("traits", traitMessage(err))
		} else if !equalStrings(t.Values(), next.Traits) {
			next.Traits = t.Values()
			changed = true
		}
	}

	if err := errs.Err(); err != nil {
		return Pet{}, err
	}
	if !changed {
		return Pet{}, ErrNoChanges
	}

	next.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, next); err != nil {
		return Pet{}, err
	}

	s.publish(ctx, changefeed.KindUpsert, next)
	return next, nil
}

// Delete borra el anuncio, avisa a los observers (política de solicitudes
// huérfanas) y borra la foto sin bloquear si falla.
func (s *Service) Delete(ctx context.Context, sess session.Session, petID string) error {
	if !sess.Authenticated() {
		return ErrUnauthenticated
	}

	current, err := s.Get(ctx, petID)
	if err != nil {
		return err
	}
	if !CanManage(sess.Role, sess.PrincipalID, current) {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, current.ID); err != nil {
		return err
	}

	for _, o := range s.observers {
		if err := o.OnPetDeleted(ctx, current.ID); err != nil {
			s.log.Error("pet delete observer failed", map[string]any{"pet_id": current.ID, "err": err})
		}
	}

	s.discardBlob(ctx, current.PhotoKey)
	s.publish(ctx, changefeed.KindDelete, current)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// List devuelve el listado filtrado (ver Apply).
func (s *Service) List(ctx context.Context, f Filter) ([]Pet, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(items, f), nil
}

func (s *Service) Options(ctx context.Context) (Options, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return Options{}, err
	}
	return FilterOptions(items), nil
}

func (s *Service) publish(ctx context.Context, kind changefeed.Kind, p Pet) {
	if s.feed == nil {
		return
	}
	var payload any
	if kind == changefeed.KindUpsert {
		payload = toPetResponse(p)
	}
	e, err := changefeed.NewEvent(changefeed.TopicPets, kind, p.ID, payload)
	if err == nil {
		err = s.feed.Publish(ctx, e)
	}
	if err != nil {
		s.log.Warn("pets change event not published", map[string]any{"pet_id": p.ID, "kind": kind, "err": err})
	}
}

func (s *Service) releaseKey(ctx context.Context, scope, key string) {
	if key == "" || s.idem == nil {
		return
	}
	if err := s.idem.Release(ctx, scope, key); err != nil {
		s.log.Warn("idempotency release failed", map[string]any{"scope": scope, "err": err})
	}
}

func (s *Service) discardBlob(ctx context.Context, key string) {
	if key == "" || s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.log.Error("orphan blob cleanup failed", map[string]any{"key": key, "err": err})
	}
}

func listingPhotoKey(at time.Time, filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "foto"
	}
	return path.Join("mascotas", fmt.Sprintf("%d_%s", at.UnixMilli(), name))
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
