package remote

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"petmatch/internal/platform/httpclient"
	"petmatch/internal/ports/auth"
)

var ErrNotConfigured = errors.New("remote auth provider not configured")

// Config del proveedor de identidad HTTP.
type Config struct {
	BaseURL string
	APIKey  string

	// Si está vacío, se usa "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

// Client implementa auth.Provider contra un IdP HTTP. Los códigos de error
// del upstream se traducen a auth.ErrorCode.
type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	hc, err := httpclient.NewWithBaseURL(base, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	return &Client{http: hc, apiKey: strings.TrimSpace(cfg.APIKey), apiKeyHeader: h}, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type claimsResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type tokenResponse struct {
	Token     string         `json:"token"`
	ExpiresIn int64          `json:"expires_in"`
	User      claimsResponse `json:"user"`
}

func (c *Client) headers(token string) map[string]string {
	h := map[string]string{c.apiKeyHeader: c.apiKey}
	if token != "" {
		h["Authorization"] = "Bearer " + token
	}
	return h
}

func (c *Client) SignUp(ctx context.Context, email, password string) (auth.Claims, error) {
	var out claimsResponse
	err := c.http.DoJSON(ctx, http.MethodPost, "/v1/accounts", c.headers(""), credentialsRequest{Email: email, Password: password}, &out)
	if err != nil {
		return auth.Claims{}, mapError(err)
	}
	return toClaims(out)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (auth.Token, auth.Claims, error) {
	var out tokenResponse
	err := c.http.DoJSON(ctx, http.MethodPost, "/v1/sessions", c.headers(""), credentialsRequest{Email: email, Password: password}, &out)
	if err != nil {
		return auth.Token{}, auth.Claims{}, mapError(err)
	}
	if strings.TrimSpace(out.Token) == "" {
		return auth.Token{}, auth.Claims{}, auth.NewError(auth.CodeGeneric, errors.New("upstream response missing token"))
	}
	claims, err := toClaims(out.User)
	if err != nil {
		return auth.Token{}, auth.Claims{}, err
	}
	return auth.Token{Value: out.Token, ExpiresIn: out.ExpiresIn}, claims, nil
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := c.http.DoJSON(ctx, http.MethodDelete, "/v1/sessions/current", c.headers(token), nil, nil); err != nil {
		return mapError(err)
	}
	return nil
}

func (c *Client) DeleteAccount(ctx context.Context, principalID string) error {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return nil
	}
	err := c.http.DoJSON(ctx, http.MethodDelete, "/v1/accounts/"+url.PathEscape(principalID), c.headers(""), nil, nil)
	if err != nil {
		var he *httpclient.HTTPError
		if errors.As(err, &he) && he.StatusCode == http.StatusNotFound {
			return nil
		}
		return mapError(err)
	}
	return nil
}

func (c *Client) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, auth.NewError(auth.CodeInvalidToken, nil)
	}

	var out claimsResponse
	err := c.http.DoJSON(ctx, http.MethodPost, "/v1/tokens/verify", c.headers(token), map[string]string{"token": token}, &out)
	if err != nil {
		return auth.Claims{}, mapError(err)
	}
	return toClaims(out)
}

func toClaims(out claimsResponse) (auth.Claims, error) {
	id := strings.TrimSpace(out.UserID)
	if id == "" {
		return auth.Claims{}, auth.NewError(auth.CodeGeneric, errors.New("upstream response missing user_id"))
	}
	return auth.Claims{UserID: id, Email: strings.ToLower(strings.TrimSpace(out.Email))}, nil
}

// upstreamCodes traduce los códigos del IdP a los nuestros.
var upstreamCodes = map[string]auth.ErrorCode{
	"invalid-email":        auth.CodeInvalidEmail,
	"invalid_email":        auth.CodeInvalidEmail,
	"wrong-password":       auth.CodeWrongCredential,
	"invalid-credential":   auth.CodeWrongCredential,
	"wrong_credential":     auth.CodeWrongCredential,
	"user-not-found":       auth.CodeUserNotFound,
	"user_not_found":       auth.CodeUserNotFound,
	"too-many-requests":    auth.CodeRateLimited,
	"rate_limited":         auth.CodeRateLimited,
	"email-already-in-use": auth.CodeEmailInUse,
	"email_in_use":         auth.CodeEmailInUse,
	"weak-password":        auth.CodeWeakPassword,
	"weak_password":        auth.CodeWeakPassword,
	"invalid-token":        auth.CodeInvalidToken,
	"id-token-expired":     auth.CodeInvalidToken,
	"invalid_token":        auth.CodeInvalidToken,
}

func mapError(err error) error {
	var he *httpclient.HTTPError
	if !errors.As(err, &he) {
		return auth.NewError(auth.CodeGeneric, err)
	}

	code := strings.ToLower(he.Code)
	code = strings.TrimPrefix(code, "auth/")
	if mapped, ok := upstreamCodes[code]; ok {
		return auth.NewError(mapped, err)
	}

	switch he.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return auth.NewError(auth.CodeInvalidToken, err)
	case http.StatusTooManyRequests:
		return auth.NewError(auth.CodeRateLimited, err)
	case http.StatusConflict:
		return auth.NewError(auth.CodeEmailInUse, err)
	default:
		return auth.NewError(auth.CodeGeneric, err)
	}
}
