package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	adapthttp "foodpoints/internal/adapter/http"
	"foodpoints/internal/adapter/memory"
	"foodpoints/internal/app"
	"foodpoints/internal/domain"
	"foodpoints/internal/mocks"
)

var (
	apple = domain.FoodCandidate{Name: "apple", ServingUnit: "medium", ServingWeightGrams: 182, Calories: 95, Sugar: 19, Protein: 0.5}
	bread = domain.FoodCandidate{Name: "bread", ServingUnit: "slice", ServingWeightGrams: 32, Calories: 80, SaturatedFat: 0.2, Sugar: 1.4, Protein: 3}
)

type testEnv struct {
	handler  http.Handler
	provider *mocks.MockFoodProvider
	accounts *app.AccountsService
}

func newTestEnv(t *testing.T, opts ...func(*adapthttp.Server)) *testEnv {
	t.Helper()
	ctx := context.Background()

	db := memory.New()
	digest := app.SHA3Digester{}
	tokens := db.NewTokenRepo()
	auth := app.NewAuthService(db, tokens, memory.NewSessionStore(), digest, 0)
	require.NoError(t, auth.CreateInitialAdmin(ctx, "Admin", "admin", "secret"))

	accounts := app.NewAccountsService(db, digest).WithTokens(tokens)
	provider := mocks.NewMockFoodProvider(gomock.NewController(t))
	logs := db.NewLogRepo()

	srv := adapthttp.New(auth, accounts, app.NewWorkflow(provider, logs, 0), app.NewChartsService(logs), t.TempDir())
	for _, opt := range opts {
		opt(srv)
	}
	return &testEnv{handler: srv.Handler(), provider: provider, accounts: accounts}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("User-Agent", "test-agent")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

type workflowBody struct {
	Status     domain.AuthStatus      `json:"status"`
	State      domain.WorkflowState   `json:"state"`
	Candidates []domain.FoodCandidate `json:"candidates"`
	Points     *float64               `json:"points"`
	PendingLog bool                   `json:"pendingLog"`
	Entry      *domain.LogEntry       `json:"entry"`
	Kind       string                 `json:"kind"`
}

type reviewBody struct {
	Entries     []domain.LogEntry `json:"entries"`
	TotalPoints float64           `json:"totalPoints"`
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestConfig(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/config", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	decode(t, w, &resp)
	assert.Equal(t, false, resp["sso_enabled"])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("sets cookie", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "admin", "password": "secret"})
		require.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "session", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, int(app.DefaultSessionTTL.Seconds()), cookies[0].MaxAge)

		var resp struct {
			Session workflowBody `json:"session"`
		}
		decode(t, w, &resp)
		assert.Equal(t, domain.StatusAuthenticated, resp.Session.Status)
		assert.Equal(t, domain.StateIdle, resp.Session.State)
	})

	t.Run("wrong password reports failed", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "admin", "password": "nope"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
		var resp struct {
			Kind    string       `json:"kind"`
			Session workflowBody `json:"session"`
		}
		decode(t, w, &resp)
		assert.Equal(t, "authentication", resp.Kind)
		assert.Equal(t, domain.StatusFailed, resp.Session.Status)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "admin", "pw": "secret"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCookieAuth(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.AddCookie(&http.Cookie{Name: "session", Value: token})
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Identity domain.Identity `json:"identity"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "admin", resp.Identity.Username)
	assert.Equal(t, domain.AccessAdmin, resp.Identity.Access)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/me", "/api/workflow", "/api/log", "/api/charts/daily", "/api/admin/users"} {
		w := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := env.do(t, http.MethodGet, "/api/workflow", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserAgentBinding(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("User-Agent", "other-agent")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The mismatch revokes the token.
	w = env.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "secret")

	w := env.do(t, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Session workflowBody `json:"session"`
	}
	decode(t, w, &resp)
	assert.Equal(t, domain.StatusUnauthenticated, resp.Session.Status)

	w = env.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSetup(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/setup", "", map[string]string{"name": "X", "username": "x", "password": "y"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkflowRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "secret")
	env.provider.EXPECT().Lookup(gomock.Any(), "apple").Return([]domain.FoodCandidate{apple, bread}, nil)

	var body workflowBody
	w := env.do(t, http.MethodPost, "/api/workflow/search", token, map[string]string{"query": "apple"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &body)
	assert.Equal(t, domain.StateSearched, body.State)
	assert.Len(t, body.Candidates, 2)

	w = env.do(t, http.MethodPost, "/api/workflow/select", token, map[string]int{"index": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &body)
	assert.Equal(t, domain.StateSelected, body.State)

	w = env.do(t, http.MethodPost, "/api/workflow/compute", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = workflowBody{}
	decode(t, w, &body)
	require.NotNil(t, body.Points)
	assert.Equal(t, 4.9, *body.Points)
	assert.True(t, body.PendingLog)

	w = env.do(t, http.MethodPost, "/api/workflow/log", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = workflowBody{}
	decode(t, w, &body)
	assert.Equal(t, domain.StateLogged, body.State)
	require.NotNil(t, body.Entry)
	assert.Equal(t, "apple", body.Entry.FoodName)
	assert.Equal(t, "admin", body.Entry.Owner)
	entryID := body.Entry.ID

	// The stored session survives between requests.
	w = env.do(t, http.MethodGet, "/api/workflow", token, nil)
	body = workflowBody{}
	decode(t, w, &body)
	assert.Equal(t, domain.StateLogged, body.State)
	assert.False(t, body.PendingLog)

	var review reviewBody
	w = env.do(t, http.MethodGet, "/api/log", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &review)
	require.Len(t, review.Entries, 1)
	assert.Equal(t, 4.9, review.TotalPoints)

	var charts struct {
		Days  int            `json:"days"`
		Items []app.DayPoint `json:"items"`
	}
	w = env.do(t, http.MethodGet, "/api/charts/daily?days=7", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &charts)
	assert.Equal(t, 7, charts.Days)
	require.Len(t, charts.Items, 7)
	assert.Equal(t, 4.9, charts.Items[6].Points)

	w = env.do(t, http.MethodDelete, "/api/log/"+entryID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	review = reviewBody{}
	decode(t, w, &review)
	assert.Empty(t, review.Entries)
	assert.Equal(t, 0.0, review.TotalPoints)

	w = env.do(t, http.MethodDelete, "/api/log/"+entryID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWorkflowErrors(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", "secret")

	t.Run("provider failure leaves session", func(t *testing.T) {
		env.provider.EXPECT().Lookup(gomock.Any(), "kale").Return(nil, errors.New("upstream down"))
		w := env.do(t, http.MethodPost, "/api/workflow/search", token, map[string]string{"query": "kale"})
		require.Equal(t, http.StatusBadGateway, w.Code)
		var body workflowBody
		decode(t, w, &body)
		assert.Equal(t, "provider", body.Kind)

		w = env.do(t, http.MethodGet, "/api/workflow", token, nil)
		body = workflowBody{}
		decode(t, w, &body)
		assert.Equal(t, domain.StateIdle, body.State)
	})

	t.Run("select without results", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/workflow/select", token, map[string]int{"index": 0})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("select requires index", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/workflow/select", token, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("log before compute", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/workflow/log", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("log without selection", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/api/workflow/inputs", token, domain.Nutrients{Calories: 330})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		w = env.do(t, http.MethodPost, "/api/workflow/compute", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, http.MethodPost, "/api/workflow/log", token, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		var body workflowBody
		decode(t, w, &body)
		assert.Equal(t, "no_selection", body.Kind)

		w = env.do(t, http.MethodPost, "/api/workflow/reset", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body = workflowBody{}
		decode(t, w, &body)
		assert.Equal(t, domain.StateIdle, body.State)
		assert.Nil(t, body.Points)
	})

	t.Run("inverted date range", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/log?start=2026-03-02&end=2026-03-01", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminUsers(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin", "secret")

	w := env.do(t, http.MethodPost, "/api/admin/users", admin, app.NewUser{
		Name: "Pat", Username: "pat", Password: "pw", Access: domain.AccessUser,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/admin/users", admin, app.NewUser{
		Name: "Pat", Username: "pat", Password: "pw", Access: domain.AccessUser,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Users []app.Account `json:"users"`
	}
	decode(t, w, &list)
	assert.Len(t, list.Users, 2)
	assert.NotContains(t, w.Body.String(), "secret")

	pat := env.login(t, "pat", "pw")
	w = env.do(t, http.MethodGet, "/api/admin/users", pat, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/api/admin/users/pat", admin, app.AccountEdit{Name: "Pat", Password: "new", Access: domain.AccessUser})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env.login(t, "pat", "new")

	w = env.do(t, http.MethodPut, "/api/admin/users/ghost", admin, app.AccountEdit{Name: "G", Access: domain.AccessUser})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminDemotionAppliesImmediately(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin", "secret")

	w := env.do(t, http.MethodPost, "/api/admin/users", admin, app.NewUser{
		Name: "Bob", Username: "bob", Password: "pw", Access: domain.AccessAdmin,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bob := env.login(t, "bob", "pw")

	w = env.do(t, http.MethodGet, "/api/admin/users", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, "/api/admin/users/bob", admin, app.AccountEdit{Name: "Bob", Access: domain.AccessUser})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/admin/users", bob, app.NewUser{
		Name: "Eve", Username: "eve", Password: "pw", Access: domain.AccessAdmin,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A password change signs the account out everywhere.
	w = env.do(t, http.MethodPut, "/api/admin/users/bob", admin, app.AccountEdit{Name: "Bob", Password: "new", Access: domain.AccessUser})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(t, http.MethodGet, "/api/me", bob, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(s *adapthttp.Server) { s.WithRateLimit(2) })
	token := env.login(t, "admin", "secret")

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodGet, "/api/me", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := env.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestMetricsRoute(t *testing.T) {
	env := newTestEnv(t, func(s *adapthttp.Server) {
		s.WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}))
	})
	w := env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# metrics", w.Body.String())
}

func TestSSODisabled(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/auth/sso/login", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSPAFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>index</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	db := memory.New()
	logs := db.NewLogRepo()
	auth := app.NewAuthService(db, db.NewTokenRepo(), memory.NewSessionStore(), app.SHA3Digester{}, 0)
	srv := adapthttp.New(auth, app.NewAccountsService(db, app.SHA3Digester{}), app.NewWorkflow(nil, logs, 0), app.NewChartsService(logs), dir)
	h := srv.Handler()

	for path, want := range map[string]string{
		"/":          "index",
		"/app.js":    "console.log",
		"/somewhere": "index",
		"/charts":    "index",
		"/log":       "index",
	} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), want, path)
	}
}
