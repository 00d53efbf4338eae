package adoptions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"petmatch/internal/changefeed"
	"petmatch/internal/domain/accounts"
	"petmatch/internal/domain/pets"
	"petmatch/internal/platform/logger"
	"petmatch/internal/ports/idempotency"
	"petmatch/internal/session"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrTerminal       = errors.New("request already decided")
	ErrStatusConflict = errors.New("status changed concurrently")
	ErrSignInRequired = errors.New("sign in required")
	ErrInFlight       = errors.New("request already in flight")
)

// SignInRequiredMessage es el texto que ve quien intenta solicitar sin sesión.
const SignInRequiredMessage = "Debes iniciar sesión para solicitar adopción"

// PetLookup es lo que necesitamos del módulo de anuncios.
type PetLookup interface {
	Get(ctx context.Context, id string) (pets.Pet, error)
}

// ContactResolver arma el snapshot de contacto del adoptante.
type ContactResolver interface {
	Contact(ctx context.Context, principalID, fallbackEmail string) accounts.Contact
}

type Service struct {
	repo     Repository
	pets     PetLookup
	contacts ContactResolver
	feed     changefeed.Publisher
	idem     idempotency.Store
	log      logger.Logger
	now      func() time.Time

	policy  OrphanPolicy
	idemTTL time.Duration
}

func NewService(repo Repository, petLookup PetLookup, contacts ContactResolver, feed changefeed.Publisher, idem idempotency.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		pets:     petLookup,
		contacts: contacts,
		feed:     feed,
		idem:     idem,
		log:      log,
		now:      time.Now,
		policy:   OrphanKeep,
		idemTTL:  pets.DefaultIdempotencyTTL,
	}
}

func (s *Service) SetOrphanPolicy(p OrphanPolicy) { s.policy = p }

func (s *Service) SetIdempotencyTTL(ttl time.Duration) {
	if ttl > 0 {
		s.idemTTL = ttl
	}
}

// Create registra una solicitud pendiente del adoptante sobre el anuncio.
// Cada llamada crea exactamente una solicitud; con idemKey un reintento
// devuelve la ya creada.
func (s *Service) Create(ctx context.Context, sess session.Session, petID, idemKey string) (Request, error) {
	if !sess.Authenticated() {
		return Request{}, ErrSignInRequired
	}
	if sess.Role != session.RoleAdopter {
		return Request{}, ErrForbidden
	}

	petID = strings.TrimSpace(petID)
	if petID == "" {
		return Request{}, ErrInvalidInput
	}

	pet, err := s.pets.Get(ctx, petID)
	if err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			return Request{}, ErrNotFound
		}
		return Request{}, fmt.Errorf("load pet: %w", err)
	}

	scope := "adoptions:" + sess.PrincipalID + ":" + petID
	idemKey = strings.TrimSpace(idemKey)
	if idemKey != "" && s.idem != nil {
		existingID, reserved, err := s.idem.Reserve(ctx, scope, idemKey, s.idemTTL)
		if err != nil {
			return Request{}, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if !reserved {
			if existingID == "" {
				return Request{}, ErrInFlight
			}
			return s.repo.GetByID(ctx, existingID)
		}
	} else {
		idemKey = ""
	}

	c := s.contacts.Contact(ctx, sess.PrincipalID, sess.Email)

	now := s.now()
	r := Request{
		ID:           uuid.NewString(),
		PetID:        pet.ID,
		PetName:      pet.Name,
		AdopterID:    sess.PrincipalID,
		AdopterName:  c.Name,
		AdopterEmail: c.Email,
		AdopterPhone: c.Phone,
		ShelterID:    pet.ShelterID,
		ShelterName:  pet.ShelterName,
		Status:       StatusPending,
		PetAvailable: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		if idemKey != "" {
			if rerr := s.idem.Release(ctx, scope, idemKey); rerr != nil {
				s.log.Warn("idempotency release failed", map[string]any{"scope": scope, "err": rerr})
			}
		}
		return Request{}, fmt.Errorf("create request: %w", err)
	}

	if idemKey != "" {
		if err := s.idem.Complete(ctx, scope, idemKey, r.ID, s.idemTTL); err != nil {
			s.log.Warn("idempotency complete failed", map[string]any{"request_id": r.ID, "err": err})
		}
	}

	s.publish(ctx, changefeed.KindUpsert, r)
	return r, nil
}

func (s *Service) Accept(ctx context.Context, sess session.Session, requestID string) (Request, error) {
	return s.decide(ctx, sess, requestID, StatusAccepted)
}

func (s *Service) Reject(ctx context.Context, sess session.Session, requestID string) (Request, error) {
	return s.decide(ctx, sess, requestID, StatusRejected)
}

// decide valida permisos y transición sobre el estado leído y escribe con
// compare-and-set. Si otra decisión ganó la carrera, esta se rechaza como
// terminal; el estado nunca cambia antes de que la escritura se confirme.
func (s *Service) decide(ctx context.Context, sess session.Session, requestID string, target Status) (Request, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return Request{}, ErrInvalidInput
	}

	current, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if !CanDecide(sess, current) {
		return Request{}, ErrForbidden
	}

	next, err := Transition(current.Status, target)
	if err != nil {
		return Request{}, err
	}

	updated, err := s.repo.UpdateStatus(ctx, current.ID, current.Status, next, s.now())
	if err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return Request{}, ErrTerminal
		}
		return Request{}, err
	}

	s.publish(ctx, changefeed.KindUpsert, updated)
	return updated, nil
}

// ListMine: un adoptante ve las que envió y un refugio las que recibió.
// Nunca la unión de ambas.
func (s *Service) ListMine(ctx context.Context, sess session.Session) ([]Request, error) {
	if !sess.Authenticated() {
		return nil, ErrSignInRequired
	}

	var (
		items []Request
		err   error
	)
	switch sess.Role {
	case session.RoleShelter:
		items, err = s.repo.ListByShelter(ctx, sess.PrincipalID)
	default:
		items, err = s.repo.ListByAdopter(ctx, sess.PrincipalID)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// InScope indica si la solicitud pertenece al listado de la sesión.
func InScope(sess session.Session, r Request) bool {
	if !sess.Authenticated() {
		return false
	}
	if sess.Role == session.RoleShelter {
		return r.ShelterID == sess.PrincipalID
	}
	return r.AdopterID == sess.PrincipalID
}

// OnPetDeleted aplica la política de solicitudes huérfanas.
func (s *Service) OnPetDeleted(ctx context.Context, petID string) error {
	affected, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return err
	}
	if len(affected) == 0 {
		return nil
	}

	now := s.now()
	switch s.policy {
	case OrphanCascade:
		if err := s.repo.DeleteByPet(ctx, petID); err != nil {
			return err
		}
		for _, r := range affected {
			s.publish(ctx, changefeed.KindDelete, r)
		}
	default:
		// Se publica lo que quedó guardado, no la lectura previa.
		marked, err := s.repo.MarkPetUnavailable(ctx, petID, now)
		if err != nil {
			return err
		}
		for _, r := range marked {
			s.publish(ctx, changefeed.KindUpsert, r)
		}
	}

	s.log.Info("orphan requests handled", map[string]any{"pet_id": petID, "policy": string(s.policy), "count": len(affected)})
	return nil
}

func (s *Service) publish(ctx context.Context, kind changefeed.Kind, r Request) {
	if s.feed == nil {
		return
	}
	var payload any
	if kind == changefeed.KindUpsert {
		payload = toRequestResponse(r)
	}
	e, err := changefeed.NewEvent(changefeed.TopicAdoptionRequests, kind, r.ID, payload)
	if err == nil {
		err = s.feed.Publish(ctx, e)
	}
	if err != nil {
		s.log.Warn("adoption change event not published", map[string]any{"request_id": r.ID, "kind": kind, "err": err})
	}
}
