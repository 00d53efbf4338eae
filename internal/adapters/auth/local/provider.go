package local

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"petmatch/internal/platform/logger"
	"petmatch/internal/ports/auth"
	"petmatch/internal/ports/cache"

	"github.com/google/uuid"
)

const minPasswordLen = 6

type Config struct {
	SessionTTL    time.Duration
	MaxFailures   int
	FailureWindow time.Duration
}

// Provider es el proveedor de identidad propio: credenciales con Argon2id
// en el storage configurado y sesiones opacas en cache.
type Provider struct {
	creds    auth.CredentialStore
	sessions cache.Sessions
	failures cache.Counter
	log      logger.Logger
	cfg      Config
	now      func() time.Time
	params   hashParams
}

func NewProvider(creds auth.CredentialStore, sessions cache.Sessions, failures cache.Counter, cfg Config, log logger.Logger) *Provider {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.FailureWindow <= 0 {
		cfg.FailureWindow = 15 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Provider{
		creds:    creds,
		sessions: sessions,
		failures: failures,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
		params:   defaultParams,
	}
}

func normalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (auth.Claims, error) {
	email, ok := normalizeEmail(email)
	if !ok {
		return auth.Claims{}, auth.NewError(auth.CodeInvalidEmail, nil)
	}
	if len(password) < minPasswordLen {
		return auth.Claims{}, auth.NewError(auth.CodeWeakPassword, nil)
	}

	hash, err := hashPassword(password, p.params)
	if err != nil {
		return auth.Claims{}, auth.NewError(auth.CodeGeneric, err)
	}

	c := auth.Credential{
		PrincipalID:  uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    p.now(),
	}
	if err := p.creds.CreateCredential(ctx, c); err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			return auth.Claims{}, auth.NewError(auth.CodeEmailInUse, err)
		}
		return auth.Claims{}, auth.NewError(auth.CodeGeneric, err)
	}

	return auth.Claims{UserID: c.PrincipalID, Email: c.Email}, nil
}

// SignIn corta con rate_limited cuando el email acumuló MaxFailures fallos
// dentro de la ventana, aunque la contraseña sea correcta.
func (p *Provider) SignIn(ctx context.Context, email, password string) (auth.Token, auth.Claims, error) {
	email, ok := normalizeEmail(email)
	if !ok {
		return auth.Token{}, auth.Claims{}, auth.NewError(auth.CodeInvalidEmail, nil)
	}

	failKey := "login_failures:" + email
	if n, err := p.failures.Count(ctx, failKey); err != nil {
		p.log.Warn("login failure counter unavailable", map[string]any{"err": err})
	} else if n >= int64(p.cfg.MaxFailures) {
		return auth.Token{}, auth.Claims{}, auth.NewError(auth.CodeRateLimited, nil)
	}

	c, err := p.creds.GetCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, auth.ErrCredentialNotFound) {
			return auth.Token{}, auth.Claims{}, auth.NewError(auth.CodeUserNotFound, err)
		}
		return auth.Token{}, auth.Claims{}, auth.NewError(auth.CodeGeneric, err)
	}

	match, err := verifyPassword(password, c.PasswordHash)
	if err != nil {
		return auth.Token{}, auth.Claims{}, auth.NewError(auth.CodeGeneric, err)
	}
	if !match {
		n, ierr := p.failures.Incr(ctx, failKey, p.cfg.FailureWindow)
		if ierr != nil {
			p.log.Warn("login failure not counted", map[string]any{"err": ierr})
		}
		if n >= int64(p.cfg.MaxFailures) {
			return auth.Token{}, auth.Claims{}, auth.NewError(auth.CodeRateLimited, nil)
		}
		return auth.Token{}, auth.Claims{}, auth.NewError(auth.CodeWrongCredential, nil)
	}

	if err := p.failures.Reset(ctx, failKey); err != nil {
		p.log.Warn("login failure counter not reset", map[string]any{"err": err})
	}

	token, err := newToken()
	if err != nil {
		return auth.Token{}, auth.Claims{}, auth.NewError(auth.CodeGeneric, err)
	}

	claims := auth.Claims{UserID: c.PrincipalID, Email: c.Email}
	if err := p.sessions.Put(ctx, token, claims, p.cfg.SessionTTL); err != nil {
		return auth.Token{}, auth.Claims{}, auth.NewError(auth.CodeGeneric, fmt.Errorf("store session: %w", err))
	}

	return auth.Token{Value: token, ExpiresIn: int64(p.cfg.SessionTTL / time.Second)}, claims, nil
}

func (p *Provider) SignOut(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return p.sessions.Delete(ctx, token)
}

// DeleteAccount borra la credencial. SignUp no abre sesión, así que no
// queda nada más que limpiar.
func (p *Provider) DeleteAccount(ctx context.Context, principalID string) error {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return nil
	}
	if err := p.creds.DeleteCredential(ctx, principalID); err != nil {
		return auth.NewError(auth.CodeGeneric, err)
	}
	return nil
}

func (p *Provider) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, auth.NewError(auth.CodeInvalidToken, nil)
	}
	c, err := p.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return auth.Claims{}, auth.NewError(auth.CodeInvalidToken, err)
		}
		return auth.Claims{}, err
	}
	return c, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
