package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/championsarena/arena-server/handlers"
	"github.com/championsarena/arena-server/models"
	"github.com/championsarena/arena-server/realtime"
	"github.com/championsarena/arena-server/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

type stubAuthService struct {
	user *models.User
}

func (s *stubAuthService) Register(_ context.Context, input services.RegisterInput) (*models.User, error) {
	return s.user, nil
}

func (s *stubAuthService) Login(_ context.Context, input services.LoginInput) (*models.User, error) {
	if input.Email != s.user.Email {
		return nil, services.ErrAuthInvalidCredentials
	}
	return s.user, nil
}

func (s *stubAuthService) SignInWithGoogle(_ context.Context, _ string) (*models.User, error) {
	return s.user, nil
}

func (s *stubAuthService) GetProfile(_ context.Context, userID int) (*models.User, error) {
	if userID != s.user.ID {
		return nil, services.ErrUserNotFound
	}
	return s.user, nil
}

type stubTournamentService struct {
	catalog   []models.Tournament
	lastInput services.TournamentInput
}

func (s *stubTournamentService) List(_ context.Context) ([]models.Tournament, error) {
	return s.catalog, nil
}

func (s *stubTournamentService) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	for _, t := range s.catalog {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, services.ErrTournamentNotFound
}

func (s *stubTournamentService) Create(_ context.Context, input services.TournamentInput) (*models.Tournament, error) {
	s.lastInput = input
	return &models.Tournament{
		ID:        100,
		GameTitle: input.GameTitle,
		Location:  input.Location,
		Spots:     int(input.Spots),
		PrizePool: "0",
	}, nil
}

func (s *stubTournamentService) Update(_ context.Context, id int, input services.TournamentInput) (*models.Tournament, error) {
	return nil, services.ErrTournamentNotFound
}

func (s *stubTournamentService) Delete(_ context.Context, id int) error {
	return nil
}

func (s *stubTournamentService) UploadBanner(_ context.Context, _ int, _ string, _ io.Reader) (*models.Tournament, error) {
	return nil, services.ErrBannerStorageDisabled
}

type stubRegistrationService struct {
	full       map[int]bool
	registered map[int]bool
}

func (s *stubRegistrationService) Register(_ context.Context, userID, tournamentID int) (*models.Tournament, error) {
	if s.full[tournamentID] {
		return nil, services.ErrTournamentFull
	}
	if s.registered[tournamentID] {
		return nil, services.ErrAlreadyRegistered
	}
	return &models.Tournament{ID: tournamentID, GameTitle: "Valorant Cup", Spots: 16, UsedSpots: 1}, nil
}

func (s *stubRegistrationService) ListParticipants(_ context.Context, _ int) ([]int, error) {
	return []int{1, 2}, nil
}

type stubDashboardService struct {
	overview *services.DashboardOverview
}

func (s *stubDashboardService) Overview(_ context.Context, _ int) (*services.DashboardOverview, error) {
	return s.overview, nil
}

func newTestRouter(t *testing.T, ts services.TournamentService, rs services.RegistrationService) *chi.Mux {
	t.Helper()

	user := &models.User{ID: 7, DisplayName: "alice", Email: "alice@example.com", Role: models.RoleUser}
	hub := realtime.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := chi.NewRouter()
	SetupRoutes(
		router,
		testJWTSecret,
		handlers.NewAuthHandler(&stubAuthService{user: user}, testJWTSecret),
		handlers.NewTournamentHandler(ts),
		handlers.NewRegistrationHandler(rs),
		handlers.NewDashboardHandler(&stubDashboardService{overview: &services.DashboardOverview{
			Tournaments: []models.Tournament{},
			History:     []models.Tournament{},
		}}),
		handlers.NewWebSocketHandler(hub),
	)
	return router
}

func signToken(t *testing.T, userID int, role models.UserRole) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"name":    "test",
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func doRequest(router *chi.Mux, method, path, token string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCatalogIsPublicAndSearchable(t *testing.T) {
	ts := &stubTournamentService{catalog: []models.Tournament{
		{ID: 1, GameTitle: "Valorant Cup", Spots: 16},
		{ID: 2, GameTitle: "CS2 Major", Spots: 32},
	}}
	router := newTestRouter(t, ts, &stubRegistrationService{})

	rr := doRequest(router, http.MethodGet, "/tournaments", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Tournaments []models.Tournament `json:"tournaments"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Tournaments, 2)

	rr = doRequest(router, http.MethodGet, "/tournaments?search=valorant", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Tournaments, 1)
	assert.Equal(t, "Valorant Cup", body.Tournaments[0].GameTitle)
}

func TestCatalogMutationsAreAdminOnly(t *testing.T) {
	ts := &stubTournamentService{}
	router := newTestRouter(t, ts, &stubRegistrationService{})

	payload := []byte(`{"game_title":"Apex Clash","date":"2026-10-01","location":"Online","spots":"20"}`)

	rr := doRequest(router, http.MethodPost, "/tournaments", "", payload)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	userToken := signToken(t, 7, models.RoleUser)
	rr = doRequest(router, http.MethodPost, "/tournaments", userToken, payload)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	adminToken := signToken(t, 1, models.RoleAdmin)
	rr = doRequest(router, http.MethodPost, "/tournaments", adminToken, payload)
	require.Equal(t, http.StatusCreated, rr.Code)
	// Строковое spots из админки доехало до сервиса уже числом.
	assert.Equal(t, services.FlexInt(20), ts.lastInput.Spots)

	rr = doRequest(router, http.MethodDelete, "/tournaments/1", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(router, http.MethodDelete, "/tournaments/1", adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRejectsForgedToken(t *testing.T) {
	router := newTestRouter(t, &stubTournamentService{}, &stubRegistrationService{})

	claims := jwt.MapClaims{
		"user_id": 1,
		"role":    models.RoleAdmin,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	rr := doRequest(router, http.MethodDelete, "/tournaments/1", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRegistrationStatusCodes(t *testing.T) {
	rs := &stubRegistrationService{
		full:       map[int]bool{2: true},
		registered: map[int]bool{3: true},
	}
	router := newTestRouter(t, &stubTournamentService{}, rs)
	token := signToken(t, 7, models.RoleUser)

	rr := doRequest(router, http.MethodPost, "/tournaments/1/register", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(router, http.MethodPost, "/tournaments/1/register", token, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	var body struct {
		Status     string            `json:"status"`
		Tournament models.Tournament `json:"tournament"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "registered", body.Status)
	assert.Equal(t, 1, body.Tournament.UsedSpots)

	rr = doRequest(router, http.MethodPost, "/tournaments/2/register", token, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doRequest(router, http.MethodPost, "/tournaments/3/register", token, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestMeAndDashboardRequireAuth(t *testing.T) {
	router := newTestRouter(t, &stubTournamentService{}, &stubRegistrationService{})

	rr := doRequest(router, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(router, http.MethodGet, "/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	token := signToken(t, 7, models.RoleUser)

	rr = doRequest(router, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var me struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, "alice@example.com", me.User.Email)

	rr = doRequest(router, http.MethodGet, "/dashboard", token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSignupAndLoginIssueTokens(t *testing.T) {
	router := newTestRouter(t, &stubTournamentService{}, &stubRegistrationService{})

	rr := doRequest(router, http.MethodPost, "/auth/signup", "",
		[]byte(`{"display_name":"alice","email":"alice@example.com","password":"hunter22"}`))
	require.Equal(t, http.StatusCreated, rr.Code)

	var body struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)

	// Выданный токен проходит наш же middleware.
	rr = doRequest(router, http.MethodGet, "/auth/me", body.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(router, http.MethodPost, "/auth/login", "",
		[]byte(`{"email":"nobody@example.com","password":"hunter22"}`))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
