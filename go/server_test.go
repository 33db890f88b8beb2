package portalserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/adapters/memory"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/adapters/oidc"
	identityapp "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/application"
	identitydomain "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/domain"
	identityports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/application/payload"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
	restaurantports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/ports"
	userapp "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/application"
	userdomain "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/domain"
	userports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/ports"
)

const testSessionToken = "session-1"

type stubVerifier struct{}

func (stubVerifier) Verify(string, string) (*identityports.Claims, error) {
	return &identityports.Claims{Identity: identitydomain.Identity{Subject: "auth0|1", Email: "ada@example.com"}}, nil
}

type fakeRestaurants struct {
	existing *domain.PersistedRestaurant
	err      error
}

func (f *fakeRestaurants) GetMyRestaurant(context.Context) (*domain.PersistedRestaurant, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.existing == nil {
		return nil, restaurantports.ErrNotFound
	}
	return f.existing, nil
}

func (f *fakeRestaurants) CreateMyRestaurant(context.Context, payload.Payload) (*domain.PersistedRestaurant, error) {
	return nil, errors.New("not used")
}

func (f *fakeRestaurants) UpdateMyRestaurant(context.Context, payload.Payload) (*domain.PersistedRestaurant, error) {
	return nil, errors.New("not used")
}

type recordingSubmissions struct {
	mu     sync.Mutex
	calls  []restaurantports.Submission
	err    error
	panics bool
}

func (r *recordingSubmissions) Deliver(_ context.Context, s restaurantports.Submission) (*domain.PersistedRestaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
	if r.panics {
		panic("delivery crashed")
	}
	if r.err != nil {
		return nil, r.err
	}
	return &domain.PersistedRestaurant{ID: "r-1"}, nil
}

type fakeUsers struct {
	user    *userdomain.User
	err     error
	release chan struct{}
	updated []*userdomain.User
}

func (f *fakeUsers) GetMyUser(ctx context.Context) (*userdomain.User, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeUsers) UpdateMyUser(_ context.Context, user *userdomain.User) (*userdomain.User, error) {
	f.updated = append(f.updated, user)
	return user, nil
}

type testServer struct {
	router      *gin.Engine
	restaurants *fakeRestaurants
	submissions *recordingSubmissions
	users       *fakeUsers
}

func newTestServer(t *testing.T, users *fakeUsers, budget time.Duration) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewSessionStore()
	require.NoError(t, store.Save(context.Background(), &identitydomain.Session{
		Token:       testSessionToken,
		Identity:    identitydomain.Identity{Subject: "auth0|1", Email: "ada@example.com", Name: "Ada"},
		AccessToken: "access-token",
		ExpiresAt:   time.Now().Add(time.Hour),
		CreatedAt:   time.Now(),
	}))
	service := identityapp.NewService(identityapp.Config{
		Domain:      "tenant.example.com",
		ClientID:    "client-1",
		CallbackURL: "http://localhost:8080/auth/callback",
	}, store, stubVerifier{})
	provider := oidc.NewProvider(service, false)

	if users == nil {
		users = &fakeUsers{user: &userdomain.User{ID: "u-1", Email: "ada@example.com", Name: "Ada", AddressLine1: "1 Main St", City: "Leeds", Country: "UK"}}
	}
	query := userapp.NewQuery(users, userapp.WithRenderBudget(budget))
	mutation := userapp.NewMutation(users, userapp.WithOnSaved(query.Remember))

	s := &testServer{
		restaurants: &fakeRestaurants{},
		submissions: &recordingSubmissions{},
		users:       users,
	}
	router, err := NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{
		AuthAPI:       NewAuthAPI(service, provider, "http://localhost:8080/", nil).OnLogout(query.Forget),
		HomeAPI:       HomeAPI{},
		RestaurantAPI: NewRestaurantAPI(s.restaurants, s.submissions, nil),
		UserAPI:       NewUserAPI(query, mutation, nil),
	}, gin.RecoveryWithWriter(io.Discard))
	require.NoError(t, err)
	s.router = router
	return s
}

func (s *testServer) do(req *http.Request, signedIn bool) *httptest.ResponseRecorder {
	if signedIn {
		req.AddCookie(&http.Cookie{Name: oidc.SessionCookieName, Value: testSessionToken})
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func validRestaurantValues() url.Values {
	return url.Values{
		"mode":                  {"update"},
		"restaurantName":        {"Trattoria"},
		"city":                  {"Leeds"},
		"country":               {"UK"},
		"deliveryPrice":         {"599"},
		"estimatedDeliveryTime": {"30"},
		"cuisines":              {"Italian"},
		"menuItems[0][name]":    {"Pizza"},
		"menuItems[0][price]":   {"10"},
		"imageUrl":              {"http://x/img.png"},
	}
}

func TestHome_NavigationFollowsSession(t *testing.T) {
	s := newTestServer(t, nil, time.Second)

	anon := s.do(httptest.NewRequest(http.MethodGet, "/", nil), false)
	require.Equal(t, http.StatusOK, anon.Code)
	assert.Contains(t, anon.Body.String(), "Log In")
	assert.Contains(t, anon.Body.String(), MobileWelcomeTitle)
	assert.NotContains(t, anon.Body.String(), "Manage Restaurant")

	authed := s.do(httptest.NewRequest(http.MethodGet, "/", nil), true)
	require.Equal(t, http.StatusOK, authed.Code)
	assert.Contains(t, authed.Body.String(), "Manage Restaurant")
	assert.Contains(t, authed.Body.String(), "Ada")
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil, time.Second)
	w := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil), false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestProtectedRoutes_RejectAnonymous(t *testing.T) {
	s := newTestServer(t, nil, time.Second)

	browser := s.do(httptest.NewRequest(http.MethodGet, "/manage-restaurant", nil), false)
	assert.Equal(t, http.StatusSeeOther, browser.Code)
	assert.Equal(t, "/", browser.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/user-profile", nil)
	req.Header.Set("Accept", "application/json")
	api := s.do(req, false)
	assert.Equal(t, http.StatusUnauthorized, api.Code)
	assert.Equal(t, "application/problem+json", api.Header().Get("Content-Type"))
}

func TestLogin_RedirectsToHostedLogin(t *testing.T) {
	s := newTestServer(t, nil, time.Second)

	w := s.do(postForm("/login", url.Values{}), false)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "https://tenant.example.com/authorize?"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), oidc.LoginCookieName)
}

func TestCallback_RejectsMissingAttempt(t *testing.T) {
	s := newTestServer(t, nil, time.Second)

	w := s.do(postForm("/auth/callback", url.Values{"state": {"forged"}, "id_token": {"x"}, "access_token": {"y"}}), false)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "could not complete your login")
}

func TestLogout_ClearsSession(t *testing.T) {
	s := newTestServer(t, nil, time.Second)

	w := s.do(postForm("/logout", url.Values{}), true)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "https://tenant.example.com/v2/logout?"))

	again := s.do(httptest.NewRequest(http.MethodGet, "/manage-restaurant", nil), true)
	assert.Equal(t, http.StatusSeeOther, again.Code, "the session is gone")
}

func TestGetManageRestaurant_HydratesExisting(t *testing.T) {
	s := newTestServer(t, nil, time.Second)
	s.restaurants.existing = &domain.PersistedRestaurant{
		ID:                    "r-1",
		RestaurantName:        "Trattoria",
		City:                  "Leeds",
		Country:               "UK",
		DeliveryPrice:         "599",
		EstimatedDeliveryTime: "30",
		Cuisines:              []string{"Italian"},
		MenuItems:             []domain.PersistedMenuItem{{Name: "Pizza", Price: "10"}},
		ImageURL:              "http://x/img.png",
	}

	w := s.do(httptest.NewRequest(http.MethodGet, "/manage-restaurant", nil), true)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `value="Trattoria"`)
	assert.Contains(t, body, `value="update"`)
	assert.Contains(t, body, `value="Italian" checked`)
	assert.Contains(t, body, `name="menuItems[0][price]"`)
	assert.Contains(t, body, `value="599"`)
}

func TestGetManageRestaurant_EmptyForNewRestaurant(t *testing.T) {
	s := newTestServer(t, nil, time.Second)

	w := s.do(httptest.NewRequest(http.MethodGet, "/manage-restaurant", nil), true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="create"`)
	assert.Contains(t, w.Body.String(), `name="menuItems[0][name]"`)
	assert.NotContains(t, w.Body.String(), `name="menuItems[1][name]"`)
}

func TestGetManageRestaurant_LoadFailureOffersNoForm(t *testing.T) {
	s := newTestServer(t, nil, time.Second)
	s.restaurants.err = errors.New("connection refused")

	w := s.do(httptest.NewRequest(http.MethodGet, "/manage-restaurant", nil), true)

	require.Equal(t, http.StatusBadGateway, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Unable to load your restaurant")
	assert.NotContains(t, body, `name="mode"`)
	assert.NotContains(t, body, `<form method="post" action="/manage-restaurant"`)
}

func TestGetManageRestaurant_DefaultButtonSubmits(t *testing.T) {
	s := newTestServer(t, nil, time.Second)

	w := s.do(httptest.NewRequest(http.MethodGet, "/manage-restaurant", nil), true)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	start := strings.Index(body, `<form method="post" action="/manage-restaurant"`)
	require.GreaterOrEqual(t, start, 0)
	first := strings.Index(body[start:], `<button type="submit"`)
	require.GreaterOrEqual(t, first, 0)
	button := body[start+first:]
	button = button[:strings.Index(button, ">")+1]
	assert.NotContains(t, button, `name="action"`, "pressing Enter must submit, not run a row action")

	values := validRestaurantValues()
	saved := s.do(postForm("/manage-restaurant", values), true)
	require.Equal(t, http.StatusSeeOther, saved.Code)
	require.Len(t, s.submissions.calls, 1)
}

func TestPostManageRestaurant_ValidationErrors(t *testing.T) {
	s := newTestServer(t, nil, time.Second)
	values := validRestaurantValues()
	values.Del("restaurantName")
	values.Del("cuisines")
	values.Set("menuItems[0][price]", "0")

	w := s.do(postForm("/manage-restaurant", values), true)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "restaurant name is required")
	assert.Contains(t, body, "please select at least one item")
	assert.Contains(t, body, "price must be at least 1")
	assert.Contains(t, body, `value="Leeds"`, "input is kept")
	assert.Empty(t, s.submissions.calls)
}

func TestPostManageRestaurant_ValidationProblemForJSONClients(t *testing.T) {
	s := newTestServer(t, nil, time.Second)
	values := validRestaurantValues()
	values.Set("deliveryPrice", "five")
	req := postForm("/manage-restaurant", values)
	req.Header.Set("Accept", "application/json")

	w := s.do(req, true)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var problem struct {
		Status     int `json:"status"`
		Extensions struct {
			Fields map[string]string `json:"fields"`
		} `json:"extensions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, map[string]string{"deliveryPrice": "must be a valid number"}, problem.Extensions.Fields)
}

func TestPostManageRestaurant_DeliversMultipartSubmission(t *testing.T) {
	s := newTestServer(t, nil, time.Second)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, vals := range validRestaurantValues() {
		if key == "imageUrl" {
			continue
		}
		for _, v := range vals {
			require.NoError(t, mw.WriteField(key, v))
		}
	}
	part, err := mw.CreateFormFile("imageFile", "front.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nimage"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/manage-restaurant", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := s.do(req, true)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/manage-restaurant?saved=1", w.Header().Get("Location"))
	require.Len(t, s.submissions.calls, 1)
	got := s.submissions.calls[0]
	assert.Equal(t, restaurantports.SubmissionUpdate, got.Mode)
	assert.Equal(t, testSessionToken, got.SessionID)
	require.NotNil(t, got.Payload.File)
	assert.Equal(t, "front.png", got.Payload.File.Filename)
	name, ok := got.Payload.Get("restaurantName")
	require.True(t, ok)
	assert.Equal(t, "Trattoria", name)
}

func TestPostManageRestaurant_JSONClientsGetSavedRestaurant(t *testing.T) {
	s := newTestServer(t, nil, time.Second)
	values := validRestaurantValues()
	values.Set("mode", "create")
	req := postForm("/manage-restaurant", values)
	req.Header.Set("Accept", "application/json")

	w := s.do(req, true)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"_id":"r-1"`)
	require.Len(t, s.submissions.calls, 1)
	assert.Equal(t, restaurantports.SubmissionCreate, s.submissions.calls[0].Mode)
}

func TestPostManageRestaurant_MenuRowActions(t *testing.T) {
	s := newTestServer(t, nil, time.Second)
	values := validRestaurantValues()
	values.Set("action", "add-menu-item")

	added := s.do(postForm("/manage-restaurant", values), true)
	require.Equal(t, http.StatusOK, added.Code)
	assert.Contains(t, added.Body.String(), `name="menuItems[1][name]"`)

	values.Set("action", "remove-menu-item:0")
	removed := s.do(postForm("/manage-restaurant", values), true)
	require.Equal(t, http.StatusOK, removed.Code)
	assert.NotContains(t, removed.Body.String(), `name="menuItems[0][name]"`)
	assert.Empty(t, s.submissions.calls, "row actions never submit")
}

func TestPostManageRestaurant_SaveFailureKeepsDraft(t *testing.T) {
	s := newTestServer(t, nil, time.Second)
	s.submissions.err = restaurantports.ErrRejected

	w := s.do(postForm("/manage-restaurant", validRestaurantValues()), true)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Unable to save restaurant")
	assert.Contains(t, w.Body.String(), `value="Trattoria"`)
}

func TestPostManageRestaurant_PanicReleasesSubmitButton(t *testing.T) {
	s := newTestServer(t, nil, time.Second)
	s.submissions.panics = true

	crashed := s.do(postForm("/manage-restaurant", validRestaurantValues()), true)
	require.Equal(t, http.StatusInternalServerError, crashed.Code)

	w := s.do(httptest.NewRequest(http.MethodGet, "/manage-restaurant", nil), true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Loading...")
	assert.Contains(t, w.Body.String(), ">Submit</button>")
}

func TestGetUserProfile_Ready(t *testing.T) {
	s := newTestServer(t, nil, time.Second)

	w := s.do(httptest.NewRequest(http.MethodGet, "/user-profile?saved=1", nil), true)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `value="ada@example.com" disabled`)
	assert.Contains(t, body, `value="1 Main St"`)
	assert.Contains(t, body, "User profile updated!")
}

func TestGetUserProfile_Unavailable(t *testing.T) {
	s := newTestServer(t, &fakeUsers{err: userports.ErrNotFound}, time.Second)

	w := s.do(httptest.NewRequest(http.MethodGet, "/user-profile", nil), true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userapp.UnavailableMessage)
	assert.NotContains(t, w.Body.String(), "<form method=\"post\" action=\"/user-profile\"")
}

func TestGetUserProfile_LoadingRefreshes(t *testing.T) {
	users := &fakeUsers{user: &userdomain.User{Email: "ada@example.com"}, release: make(chan struct{})}
	t.Cleanup(func() { close(users.release) })
	s := newTestServer(t, users, 10*time.Millisecond)

	w := s.do(httptest.NewRequest(http.MethodGet, "/user-profile", nil), true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userapp.LoadingMessage)
	assert.Contains(t, w.Body.String(), `http-equiv="refresh"`)
}

func TestUpdateUserProfile(t *testing.T) {
	s := newTestServer(t, nil, time.Second)

	invalid := s.do(postForm("/user-profile", url.Values{"name": {"Ada"}, "addressLine1": {""}, "city": {"Leeds"}, "country": {"UK"}}), true)
	require.Equal(t, http.StatusBadRequest, invalid.Code)
	assert.Contains(t, invalid.Body.String(), "address line 1 is required")
	assert.Empty(t, s.users.updated)

	ok := s.do(postForm("/user-profile", url.Values{"name": {"Ada L"}, "addressLine1": {"2 High St"}, "city": {"York"}, "country": {"UK"}}), true)
	require.Equal(t, http.StatusSeeOther, ok.Code)
	assert.Equal(t, "/user-profile?saved=1", ok.Header().Get("Location"))
	require.Len(t, s.users.updated, 1)
	assert.Equal(t, "ada@example.com", s.users.updated[0].Email)
	assert.Equal(t, "York", s.users.updated[0].City)

	page := s.do(httptest.NewRequest(http.MethodGet, "/user-profile", nil), true)
	assert.Contains(t, page.Body.String(), `value="2 High St"`, "the saved user replaces the cached one")
}
