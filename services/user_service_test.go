package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kendall-kelly/shg-marketplace-api/config"
	"github.com/kendall-kelly/shg-marketplace-api/models"
	"github.com/kendall-kelly/shg-marketplace-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubUserInfo struct {
	info *Auth0UserInfo
	err  error
}

func (s stubUserInfo) GetUserInfo(context.Context, string) (*Auth0UserInfo, error) {
	return s.info, s.err
}

func TestUserService_CreateFromToken(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	svc := NewUserService(db, stubUserInfo{info: &Auth0UserInfo{
		Sub:         "auth0|meena",
		Email:       "meena@example.com",
		Name:        "Meena",
		PhoneNumber: "+919876543210",
	}}, zap.NewNop())

	user, err := svc.CreateFromToken(ctx, "auth0|meena", "token", models.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, "Meena", user.Name)
	assert.Equal(t, "+919876543210", user.Phone)
	assert.Equal(t, models.RoleCustomer, user.Role)

	_, err = svc.CreateFromToken(ctx, "auth0|meena", "token", models.RoleCustomer)
	requireKind(t, err, KindConflict, "USER_EXISTS")

	got, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = svc.Get(ctx, 9999)
	requireKind(t, err, KindNotFound, "USER_NOT_FOUND")

	updated, err := svc.UpdateProfile(ctx, user.ID, "Meena Devi", "")
	require.NoError(t, err)
	assert.Equal(t, "Meena Devi", updated.Name)
	assert.Equal(t, "+919876543210", updated.Phone)

	_, err = svc.UpdateProfile(ctx, 9999, "Ghost", "")
	requireKind(t, err, KindNotFound, "USER_NOT_FOUND")
}

func TestUserService_CreateFromTokenFailures(t *testing.T) {
	db := testutil.NewTestDB(t)

	tests := []struct {
		name     string
		provider stubUserInfo
		wantKind Kind
		wantCode string
	}{
		{"provider unavailable", stubUserInfo{err: errors.New("timeout")}, KindDependency, "AUTH0_ERROR"},
		{"missing email", stubUserInfo{info: &Auth0UserInfo{Name: "No Email"}}, KindValidation, "MISSING_EMAIL"},
		{"missing name", stubUserInfo{info: &Auth0UserInfo{Email: "x@example.com"}}, KindValidation, "MISSING_NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewUserService(db, tt.provider, zap.NewNop())
			_, err := svc.CreateFromToken(context.Background(), "auth0|x", "token", models.RoleCustomer)
			requireKind(t, err, tt.wantKind, tt.wantCode)
		})
	}
}

func TestAuth0Service_GetUserInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" || r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"auth0|meena","email":"meena@example.com","name":"Meena","phone_number":"+919876543210"}`))
	}))
	defer server.Close()

	svc := NewAuth0Service(&config.Config{Auth0Domain: server.URL})

	info, err := svc.GetUserInfo(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "auth0|meena", info.Sub)
	assert.Equal(t, "+919876543210", info.PhoneNumber)

	_, err = svc.GetUserInfo(context.Background(), "bad-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserInfoRejected)
	assert.Contains(t, err.Error(), "status 401")
}

func TestUserInfoEndpoint(t *testing.T) {
	assert.Equal(t, "https://tenant.auth0.com/userinfo", userInfoEndpoint("tenant.auth0.com"))
	assert.Equal(t, "http://127.0.0.1:4000/userinfo", userInfoEndpoint("http://127.0.0.1:4000/"))
}
