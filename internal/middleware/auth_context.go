package middleware

import (
	"context"
	"net/http"
	"strings"

	"petmatch/internal/ports/auth"
	"petmatch/internal/session"
)

type ctxKey string

const (
	claimsKey ctxKey = "claims"
	tokenKey  ctxKey = "token"
)

// DebugUserHeader permite inyectar un principal en modo dev.
const DebugUserHeader = "X-Debug-User-ID"

// SessionResolver arma la sesión (rol + perfil) a partir de los claims.
type SessionResolver interface {
	ResolveSession(ctx context.Context, claims auth.Claims) session.Session
}

// AuthContext:
// - Si viene Bearer token (o ?token= en websockets) y hay verifier => Verify() y setea claims.
// - Si allowDebug (o no hay verifier) y viene X-Debug-User-ID => setea claims sin verificar.
// - Con claims, resolver arma la sesión una sola vez por request.
// - Si no hay claims, el request sigue igual; los handlers decidirán si exigen auth.
func AuthContext(verifier auth.AuthVerifier, resolver SessionResolver, allowDebug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if verifier == nil || allowDebug {
				if uid := strings.TrimSpace(r.Header.Get(DebugUserHeader)); uid != "" {
					next.ServeHTTP(w, r.WithContext(withClaims(ctx, auth.Claims{UserID: uid}, "", resolver)))
					return
				}
			}

			if verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				token = strings.TrimSpace(r.URL.Query().Get("token"))
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(ctx, token)
			if err != nil || strings.TrimSpace(claims.UserID) == "" {
				// No cortamos aquí para no acoplar. El handler decide 401/403.
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(ctx, claims, token, resolver)))
		})
	}
}

func withClaims(ctx context.Context, claims auth.Claims, token string, resolver SessionResolver) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	if token != "" {
		ctx = context.WithValue(ctx, tokenKey, token)
	}

	sess := session.Session{PrincipalID: claims.UserID, Email: claims.Email, Role: session.DefaultRole}
	if resolver != nil {
		sess = resolver.ResolveSession(ctx, claims)
	}
	return session.WithSession(ctx, sess)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// GetToken devuelve el token verificado del request, si lo hubo.
func GetToken(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey).(string)
	return s
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
