// AngelaMos | 2026
// auth_test.go

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/videoflow/internal/config"
	"github.com/carterperez-dev/videoflow/internal/core"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type memoryUsers struct {
	mu      sync.Mutex
	byEmail map[string]*UserInfo
	rehash  int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: map[string]*UserInfo{}}
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	return u, nil
}

func (m *memoryUsers) Create(_ context.Context, email, hash, name string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(email)
	if _, ok := m.byEmail[email]; ok {
		return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}
	u := &UserInfo{
		ID:           fmt.Sprintf("user-%d", len(m.byEmail)+1),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Tier:         "free",
	}
	m.byEmail[email] = u
	return u, nil
}

func (m *memoryUsers) UpdatePassword(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == userID {
			u.PasswordHash = hash
			m.rehash++
			return nil
		}
	}
	return core.ErrNotFound
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            testSecret,
		AccessTokenExpire: 24 * time.Hour,
		Issuer:            "videoflow",
		Audience:          "videoflow-api",
	}
}

func newTestManager(t *testing.T, cfg config.JWTConfig) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(cfg)
	require.NoError(t, err)
	return m
}

func TestJWTRoundTrip(t *testing.T) {
	m := newTestManager(t, testJWTConfig())

	token, err := m.CreateAccessToken(AccessTokenClaims{UserID: "u-1", Tier: "pro"})
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "pro", claims.Tier)
}

func TestJWTRejectsForeignSecret(t *testing.T) {
	other := testJWTConfig()
	other.Secret = "a-completely-different-signing-secret!!"
	token, err := newTestManager(t, other).CreateAccessToken(AccessTokenClaims{UserID: "u-1"})
	require.NoError(t, err)

	_, err = newTestManager(t, testJWTConfig()).VerifyAccessToken(context.Background(), token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestJWTExpired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessTokenExpire = -time.Minute
	m := newTestManager(t, cfg)

	token, err := m.CreateAccessToken(AccessTokenClaims{UserID: "u-1"})
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(context.Background(), token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestJWTRejectsGarbage(t *testing.T) {
	m := newTestManager(t, testJWTConfig())
	_, err := m.VerifyAccessToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	_, err := NewJWTManager(config.JWTConfig{})
	assert.Error(t, err)
}

func newTestRouter(t *testing.T) (*chi.Mux, *memoryUsers, *JWTManager) {
	t.Helper()
	users := newMemoryUsers()
	m := newTestManager(t, testJWTConfig())
	r := chi.NewRouter()
	NewHandler(NewService(m, users)).RegisterRoutes(r)
	return r, users, m
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body) //nolint:errcheck // test input
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	r, _, m := newTestRouter(t)

	rec := postJSON(r, "/auth/register", map[string]string{
		"email":    "a@x.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Registration successful"}`, rec.Body.String())

	rec = postJSON(r, "/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	claims, err := m.VerifyAccessToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "free", claims.Tier)
}

func TestRegisterRejections(t *testing.T) {
	r, _, _ := newTestRouter(t)

	require.Equal(t, http.StatusCreated, postJSON(r, "/auth/register", map[string]string{
		"email": "a@x.com", "password": "pw123",
	}).Code)

	tests := []struct {
		name string
		body map[string]string
		msg  string
	}{
		{"duplicate email", map[string]string{"email": "A@x.com", "password": "pw"}, "Email already registered"},
		{"missing password", map[string]string{"email": "b@x.com"}, "password is required"},
		{"missing email", map[string]string{"password": "pw"}, "email is required"},
		{"invalid email", map[string]string{"email": "nope", "password": "pw"}, "email must be a valid email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(r, "/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.msg)
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	r, _, _ := newTestRouter(t)
	postJSON(r, "/auth/register", map[string]string{"email": "a@x.com", "password": "pw123"})

	for _, body := range []map[string]string{
		{"email": "a@x.com", "password": "wrong"},
		{"email": "nobody@x.com", "password": "pw123"},
	} {
		rec := postJSON(r, "/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid credentials")
	}
}

func TestLoginMalformedBody(t *testing.T) {
	r, _, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
}

func TestLoginMissingFields(t *testing.T) {
	r, _, _ := newTestRouter(t)

	for _, body := range []map[string]string{
		{"password": "pw123"},
		{"email": "a@x.com"},
		{},
	} {
		rec := postJSON(r, "/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "body %v", body)
		assert.Contains(t, rec.Body.String(), "Invalid credentials")
	}
}
