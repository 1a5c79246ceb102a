package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safe-eats/api/internal/apperr"
	"github.com/safe-eats/api/internal/model"
	"github.com/safe-eats/api/pkg/auth"
)

// The redis client is only touched by Logout, so these flows run without one.
func newAuthService(env *testEnv) *AuthService {
	return NewAuthService(env.userSvc, auth.NewJWTManager("test-secret", time.Hour), nil, "")
}

func signUp(t *testing.T, svc *AuthService, email string) uuid.UUID {
	t.Helper()
	resp, err := svc.SignUp(model.SignUpRequest{
		Name:     "Sam",
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return resp.User.ID
}

func TestUpdateProfileRename(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	userID := signUp(t, svc, "sam@safeeats.local")

	user, err := svc.UpdateProfile(userID, model.UpdateProfileRequest{Name: "Sam Cooke"})
	require.NoError(t, err)
	assert.Equal(t, "Sam Cooke", user.Name)

	stored, err := svc.Profile(userID)
	require.NoError(t, err)
	assert.Equal(t, "Sam Cooke", stored.Name)
}

func TestUpdateProfilePasswordChange(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	signUp(t, svc, "sam@safeeats.local")

	resp, err := svc.Login(model.LoginRequest{Email: "sam@safeeats.local", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(resp.User.ID, model.UpdateProfileRequest{Name: "Sam", Password: "newpassword1"})
	require.NoError(t, err)

	_, err = svc.Login(model.LoginRequest{Email: "sam@safeeats.local", Password: "password123"})
	require.Error(t, err, "old password must stop working")

	_, err = svc.Login(model.LoginRequest{Email: "sam@safeeats.local", Password: "newpassword1"})
	assert.NoError(t, err)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)

	_, err := svc.UpdateProfile(uuid.New(), model.UpdateProfileRequest{Name: "Nobody"})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	userID := signUp(t, svc, "sam@safeeats.local")

	require.NoError(t, svc.DeleteAccount(userID))

	_, err := svc.Profile(userID)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	// deleted accounts cannot log in
	_, err = svc.Login(model.LoginRequest{Email: "sam@safeeats.local", Password: "password123"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	// idempotent from the caller's view: a second delete is a clean NotFound
	err = svc.DeleteAccount(userID)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}
