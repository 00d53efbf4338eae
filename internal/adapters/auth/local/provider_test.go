package local

import (
	"context"
	"testing"
	"time"

	cachemem "petmatch/internal/adapters/cache/memory"
	"petmatch/internal/adapters/storage/memory"
	"petmatch/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(maxFailures int) *Provider {
	p := NewProvider(
		memory.NewAccountsRepo(),
		cachemem.NewSessions(),
		cachemem.NewCounter(),
		Config{SessionTTL: time.Hour, MaxFailures: maxFailures, FailureWindow: time.Minute},
		nil,
	)
	// parámetros bajos para que los tests no tarden
	p.params = hashParams{time: 1, memory: 8 * 1024, threads: 1, keyLen: 32, saltLen: 16}
	return p
}

func TestPasswordHash_RoundTrip(t *testing.T) {
	h, err := hashPassword("secreto", hashParams{time: 1, memory: 8 * 1024, threads: 1, keyLen: 32, saltLen: 16})
	require.NoError(t, err)
	assert.Contains(t, h, "$argon2id$v=19$m=8192,t=1,p=1$")

	ok, err := verifyPassword("secreto", h)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifyPassword("otro", h)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = verifyPassword("secreto", "plain")
	assert.ErrorIs(t, err, errInvalidHash)
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(5)

	c, err := p.SignUp(ctx, " Ana@Mail.com ", "secreto")
	require.NoError(t, err)
	assert.NotEmpty(t, c.UserID)
	assert.Equal(t, "ana@mail.com", c.Email)

	_, err = p.SignUp(ctx, "ana@mail.com", "secreto")
	assert.Equal(t, auth.CodeEmailInUse, auth.CodeOf(err))

	_, err = p.SignUp(ctx, "no-es-email", "secreto")
	assert.Equal(t, auth.CodeInvalidEmail, auth.CodeOf(err))

	_, err = p.SignUp(ctx, "b@mail.com", "123")
	assert.Equal(t, auth.CodeWeakPassword, auth.CodeOf(err))
}

func TestSignIn_IssuesVerifiableToken(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(5)

	signed, err := p.SignUp(ctx, "ana@mail.com", "secreto")
	require.NoError(t, err)

	tok, claims, err := p.SignIn(ctx, "ANA@mail.com", "secreto")
	require.NoError(t, err)
	assert.Equal(t, signed.UserID, claims.UserID)
	assert.EqualValues(t, 3600, tok.ExpiresIn)

	verified, err := p.Verify(ctx, tok.Value)
	require.NoError(t, err)
	assert.Equal(t, signed.UserID, verified.UserID)

	require.NoError(t, p.SignOut(ctx, tok.Value))
	_, err = p.Verify(ctx, tok.Value)
	assert.Equal(t, auth.CodeInvalidToken, auth.CodeOf(err))
}

func TestSignIn_ErrorCodes(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(3)

	_, err := p.SignUp(ctx, "ana@mail.com", "secreto")
	require.NoError(t, err)

	_, _, err = p.SignIn(ctx, "nadie@mail.com", "secreto")
	assert.Equal(t, auth.CodeUserNotFound, auth.CodeOf(err))

	_, _, err = p.SignIn(ctx, "ana@mail.com", "mal1")
	assert.Equal(t, auth.CodeWrongCredential, auth.CodeOf(err))
	_, _, err = p.SignIn(ctx, "ana@mail.com", "mal2")
	assert.Equal(t, auth.CodeWrongCredential, auth.CodeOf(err))

	// el tercer fallo bloquea
	_, _, err = p.SignIn(ctx, "ana@mail.com", "mal3")
	assert.Equal(t, auth.CodeRateLimited, auth.CodeOf(err))

	// bloqueado aun con la contraseña correcta
	_, _, err = p.SignIn(ctx, "ana@mail.com", "secreto")
	assert.Equal(t, auth.CodeRateLimited, auth.CodeOf(err))
}

func TestSignIn_SuccessResetsFailures(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(2)

	_, err := p.SignUp(ctx, "ana@mail.com", "secreto")
	require.NoError(t, err)

	_, _, err = p.SignIn(ctx, "ana@mail.com", "mal")
	assert.Equal(t, auth.CodeWrongCredential, auth.CodeOf(err))

	_, _, err = p.SignIn(ctx, "ana@mail.com", "secreto")
	require.NoError(t, err)

	_, _, err = p.SignIn(ctx, "ana@mail.com", "mal")
	assert.Equal(t, auth.CodeWrongCredential, auth.CodeOf(err))
}

func TestDeleteAccount_FreesEmail(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(5)

	c, err := p.SignUp(ctx, "ana@mail.com", "secreto")
	require.NoError(t, err)

	require.NoError(t, p.DeleteAccount(ctx, c.UserID))

	_, _, err = p.SignIn(ctx, "ana@mail.com", "secreto")
	assert.Equal(t, auth.CodeUserNotFound, auth.CodeOf(err))

	again, err := p.SignUp(ctx, "ana@mail.com", "secreto")
	require.NoError(t, err)
	assert.NotEqual(t, c.UserID, again.UserID)

	require.NoError(t, p.DeleteAccount(ctx, ""))
}
