package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/secretkeeper/secretkeeper/internal/api/middleware"
	"github.com/secretkeeper/secretkeeper/internal/core/domain"
	"github.com/secretkeeper/secretkeeper/internal/core/ports"
	"github.com/secretkeeper/secretkeeper/internal/core/service"
	"github.com/secretkeeper/secretkeeper/internal/infrastructure/config"
)

// memRepo is an in-memory UserRepository mirroring the mongo repository's
// unique-key behaviour.
type memRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	next  int
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[string]*domain.User)}
}

func (r *memRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memRepo) FindByProviderID(_ context.Context, provider, subjectID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.BindingFor(provider) == subjectID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memRepo) FindWithSecrets(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if u.Secret != "" {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if user.Username != "" && u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
		if user.GoogleID != "" && u.GoogleID == user.GoogleID {
			return nil, domain.ErrUserExists
		}
		if user.FacebookID != "" && u.FacebookID == user.FacebookID {
			return nil, domain.ErrUserExists
		}
	}
	r.next++
	clone := *user
	clone.ID = fmt.Sprintf("user-%d", r.next)
	stored := clone
	r.users[stored.ID] = &stored
	return &clone, nil
}

func (r *memRepo) Save(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

type memStore struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]string)}
}

func (m *memStore) Put(_ context.Context, sessionID, userID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = userID
	return nil
}

func (m *memStore) Get(_ context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionID], nil
}

func (m *memStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// fakeIdentityProvider skips the real OAuth exchange and resolves every code
// to a fixed subject id.
type fakeIdentityProvider struct {
	name    string
	subject string
}

func (f *fakeIdentityProvider) Name() string { return f.name }

func (f *fakeIdentityProvider) AuthCodeURL(state string) string {
	return "https://provider.example/auth?state=" + url.QueryEscape(state)
}

func (f *fakeIdentityProvider) ResolveSubject(_ context.Context, code string) (string, error) {
	if code == "bad-code" {
		return "", domain.ErrProviderHandshake
	}
	return f.subject, nil
}

type testEnv struct {
	e    *echo.Echo
	repo *memRepo
}

func newTestEnv(t *testing.T, mutate func(cfg *config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Env:           "test",
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
	}
	if mutate != nil {
		mutate(cfg)
	}

	repo := newMemRepo()
	sessions := service.NewSessionService(newMemStore(), repo, cfg.SessionSecret, cfg.SessionTTL)

	e := NewRouter(Deps{
		Cfg:         cfg,
		Credentials: service.NewCredentialService(repo),
		Federation:  service.NewFederationService(repo),
		Sessions:    sessions,
		Secrets:     service.NewSecretService(repo),
		Providers: []ports.IdentityProvider{
			&fakeIdentityProvider{name: domain.ProviderGoogle, subject: "g-subject-1"},
		},
		Log: zerolog.Nop(),
	})
	return &testEnv{e: e, repo: repo}
}

func (env *testEnv) do(method, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookie && ck.Value != "" {
			return ck
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != location {
		t.Fatalf("expected redirect to %q, got %q", location, loc)
	}
}

func TestRouter_RegisterSubmitListFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/register", url.Values{
		"username": {"alice"},
		"password": {"s3cret"},
	}, nil)
	assertRedirect(t, rec, "/secrets")
	ck := sessionCookie(t, rec)

	rec = env.do(http.MethodGet, "/submit", nil, []*http.Cookie{ck})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /submit with session, got %d", rec.Code)
	}

	rec = env.do(http.MethodPost, "/submit", url.Values{"secret": {"hello world"}}, []*http.Cookie{ck})
	assertRedirect(t, rec, "/secrets")

	rec = env.do(http.MethodGet, "/secrets", nil, []*http.Cookie{ck})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /secrets, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "hello world") {
		t.Fatalf("listing missing submitted secret: %s", rec.Body.String())
	}

	// Resubmission replaces, never appends.
	rec = env.do(http.MethodPost, "/submit", url.Values{"secret": {"revised"}}, []*http.Cookie{ck})
	assertRedirect(t, rec, "/secrets")

	rec = env.do(http.MethodGet, "/secrets", nil, []*http.Cookie{ck})
	body := rec.Body.String()
	if !strings.Contains(body, "revised") {
		t.Fatalf("listing missing replacement secret: %s", body)
	}
	if strings.Contains(body, "hello world") {
		t.Fatalf("listing still shows the replaced secret: %s", body)
	}
}

func TestRouter_LoginFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/register", url.Values{
		"username": {"bob"},
		"password": {"hunter2"},
	}, nil)
	assertRedirect(t, rec, "/secrets")

	rec = env.do(http.MethodPost, "/login", url.Values{
		"username": {"bob"},
		"password": {"hunter2"},
	}, nil)
	assertRedirect(t, rec, "/secrets")
	sessionCookie(t, rec)
}

func TestRouter_LoginRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/login", url.Values{
		"username": {"nobody"},
		"password": {"whatever"},
	}, nil)
	assertRedirect(t, rec, "/login")
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookie && ck.Value != "" {
			t.Fatalf("rejected login must not set a session cookie")
		}
	}
}

func TestRouter_DuplicateRegisterRedirect(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/register", url.Values{
		"username": {"carol"},
		"password": {"first"},
	}, nil)
	assertRedirect(t, rec, "/secrets")

	rec = env.do(http.MethodPost, "/register", url.Values{
		"username": {"carol"},
		"password": {"second"},
	}, nil)
	assertRedirect(t, rec, "/register")
}

func TestRouter_SubmitAnonymousRedirect(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/submit", nil, nil)
	assertRedirect(t, rec, "/login")

	rec = env.do(http.MethodPost, "/submit", url.Values{"secret": {"sneaky"}}, nil)
	assertRedirect(t, rec, "/login")

	// Nothing may have been persisted.
	users, err := env.repo.FindWithSecrets(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("anonymous submit persisted a secret: %+v", users)
	}
}

func TestRouter_SecretsAnonymous_DefaultOpen(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/secrets", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected anonymous /secrets to render by default, got %d", rec.Code)
	}
}

func TestRouter_SecretsAnonymous_GatedWhenConfigured(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.SecretsRequireLogin = true
	})

	rec := env.do(http.MethodGet, "/secrets", nil, nil)
	assertRedirect(t, rec, "/login")
}

func TestRouter_Logout(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/register", url.Values{
		"username": {"dave"},
		"password": {"pass"},
	}, nil)
	ck := sessionCookie(t, rec)

	rec = env.do(http.MethodGet, "/logout", nil, []*http.Cookie{ck})
	assertRedirect(t, rec, "/")

	// The old token must never resolve again.
	rec = env.do(http.MethodGet, "/submit", nil, []*http.Cookie{ck})
	assertRedirect(t, rec, "/login")
}

func TestRouter_OAuthBeginAndCallback(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/auth/google", nil, nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect to provider, got %d", rec.Code)
	}
	authURL, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad provider redirect: %v", err)
	}
	state := authURL.Query().Get("state")
	if state == "" {
		t.Fatalf("state missing from provider redirect")
	}

	var stateCk *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "oauth_state" {
			stateCk = ck
		}
	}
	if stateCk == nil {
		t.Fatalf("state cookie not set")
	}

	callback := "/auth/google/secrets?state=" + url.QueryEscape(state) + "&code=good-code"
	rec = env.do(http.MethodGet, callback, nil, []*http.Cookie{stateCk})
	assertRedirect(t, rec, "/secrets")
	ck := sessionCookie(t, rec)

	rec = env.do(http.MethodGet, "/submit", nil, []*http.Cookie{ck})
	if rec.Code != http.StatusOK {
		t.Fatalf("federated session not usable: %d", rec.Code)
	}

	if len(env.repo.users) != 1 {
		t.Fatalf("expected one user after callback, got %d", len(env.repo.users))
	}
}

func TestRouter_OAuthCallback_RepeatResolvesSameUser(t *testing.T) {
	env := newTestEnv(t, nil)

	for i := 0; i < 2; i++ {
		rec := env.do(http.MethodGet, "/auth/google", nil, nil)
		authURL, _ := url.Parse(rec.Header().Get("Location"))
		state := authURL.Query().Get("state")
		var stateCk *http.Cookie
		for _, ck := range rec.Result().Cookies() {
			if ck.Name == "oauth_state" {
				stateCk = ck
			}
		}

		callback := "/auth/google/secrets?state=" + url.QueryEscape(state) + "&code=good-code"
		rec = env.do(http.MethodGet, callback, nil, []*http.Cookie{stateCk})
		assertRedirect(t, rec, "/secrets")
	}

	if len(env.repo.users) != 1 {
		t.Fatalf("repeated callbacks created extra users: %d", len(env.repo.users))
	}
}

func TestRouter_OAuthCallback_StateMismatch(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/auth/google/secrets?state=forged&code=good-code", nil, nil)
	assertRedirect(t, rec, "/login")
	if len(env.repo.users) != 0 {
		t.Fatalf("forged callback created a user")
	}
}

func TestRouter_OAuthCallback_HandshakeFailure(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/auth/google", nil, nil)
	authURL, _ := url.Parse(rec.Header().Get("Location"))
	state := authURL.Query().Get("state")
	var stateCk *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "oauth_state" {
			stateCk = ck
		}
	}

	callback := "/auth/google/secrets?state=" + url.QueryEscape(state) + "&code=bad-code"
	rec = env.do(http.MethodGet, callback, nil, []*http.Cookie{stateCk})
	assertRedirect(t, rec, "/login")
	if len(env.repo.users) != 0 {
		t.Fatalf("failed handshake created a user")
	}
}

func TestRouter_HealthLiveness(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_HomeAndForms(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/", "/login", "/register"} {
		rec := env.do(http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}
}
