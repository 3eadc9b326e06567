package services

import (
	"context"
	"errors"
	"testing"

	"github.com/championsarena/arena-server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	claims *GoogleTokenClaims
	err    error
}

func (v *fakeVerifier) Verify(_ context.Context, _ string) (*GoogleTokenClaims, error) {
	return v.claims, v.err
}

func TestRegisterAndLogin(t *testing.T) {
	store := newFakeStore()
	svc := NewAuthService(&fakeUserRepo{s: store}, &fakeVerifier{})

	user, err := svc.Register(context.Background(), RegisterInput{
		DisplayName: "alice",
		Email:       "Alice@Example.com",
		Password:    "hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.ProviderPassword, user.AuthProvider)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	logged, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrAuthInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "hunter22"})
	require.ErrorIs(t, err, ErrAuthInvalidCredentials)
}

func TestRegisterRejectsShortPasswordAndDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	svc := NewAuthService(&fakeUserRepo{s: store}, &fakeVerifier{})

	_, err := svc.Register(context.Background(), RegisterInput{
		DisplayName: "bob", Email: "bob@example.com", Password: "abc",
	})
	require.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = svc.Register(context.Background(), RegisterInput{
		DisplayName: "bob", Email: "bob@example.com", Password: "secret99",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{
		DisplayName: "bob2", Email: "bob@example.com", Password: "secret99",
	})
	require.ErrorIs(t, err, ErrAuthEmailTaken)
}

func TestGoogleSignInProvisionsProfileOnce(t *testing.T) {
	store := newFakeStore()
	verifier := &fakeVerifier{claims: &GoogleTokenClaims{
		Subject: "google-sub-1",
		Email:   "carol@example.com",
		Name:    "Carol",
	}}
	svc := NewAuthService(&fakeUserRepo{s: store}, verifier)

	user, err := svc.SignInWithGoogle(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.ProviderGoogle, user.AuthProvider)
	assert.Equal(t, "Carol", user.DisplayName)

	// Повторный вход не создаёт второй профиль.
	again, err := svc.SignInWithGoogle(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Len(t, store.users, 1)
}

func TestGoogleSignInRejectsInvalidToken(t *testing.T) {
	store := newFakeStore()
	verifier := &fakeVerifier{err: errors.New("bad token")}
	svc := NewAuthService(&fakeUserRepo{s: store}, verifier)

	_, err := svc.SignInWithGoogle(context.Background(), "token")
	require.ErrorIs(t, err, ErrAuthInvalidProviderToken)
	assert.Empty(t, store.users)
}
