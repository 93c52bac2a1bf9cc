package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/arogya-ai/arogya/backend/internal/ai"
	"github.com/arogya-ai/arogya/backend/internal/auth"
	"github.com/arogya-ai/arogya/backend/internal/chat"
	"github.com/arogya-ai/arogya/backend/internal/config"
	"github.com/arogya-ai/arogya/backend/internal/oidc"
	"github.com/arogya-ai/arogya/backend/internal/sessions"
	"github.com/arogya-ai/arogya/backend/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type claimsToken map[string]interface{}

func (t claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(map[string]interface{}(t))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

type fakeVerifier map[string]claimsToken

func (f fakeVerifier) Verify(_ context.Context, raw string) (oidc.Token, error) {
	if tok, ok := f[raw]; ok {
		return tok, nil
	}
	return nil, errors.New("token expired")
}

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *fakeProvider) Chat(_ context.Context, msgs []ai.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return "echo: " + msgs[len(msgs)-1].Content, nil
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type env struct {
	router   *gin.Engine
	users    *users.MemoryUserRepository
	provider *fakeProvider
	redis    *mr.Miniredis
}

func newEnv(t *testing.T) *env {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})

	cfg := &config.Config{
		Session: config.SessionConfig{Secret: "0123456789abcdef0123456789abcdef", TTL: time.Hour, CookieName: "arogya_session"},
	}
	e := &env{users: users.NewMemoryUserRepository(), provider: &fakeProvider{}, redis: m}
	ver := fakeVerifier{
		"tok-u1": {"sub": "u1", "email": "u1@example.com", "name": "User One"},
		"tok-u2": {"sub": "u2", "email": "u2@example.com", "name": "User Two"},
	}
	p := auth.NewProvisioner(cfg, ver, users.NewService(e.users),
		sessions.NewService(sessions.NewRedisRepository(client, "")), sessions.NewBlacklist(client))
	relay := chat.NewService(e.provider, chat.NewRedisHistory(client, time.Hour), chat.Options{SystemPrompt: "coach", Window: 20, Timeout: time.Second})

	h := New(cfg, p, relay, IdentityPage{WebAPIKey: "web-key", ProjectID: "arogya-test"})
	e.router = gin.New()
	e.router.Use(h.SessionMiddleware())
	h.Register(e.router)
	return e
}

func (e *env) do(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) login(t *testing.T, token string) *http.Cookie {
	t.Helper()
	w := e.do("POST", "/session_login", gin.H{"idToken": token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == "arogya_session" {
			require.True(t, c.HttpOnly)
			return c
		}
	}
	t.Fatalf("no session cookie set")
	return nil
}

func TestSessionLogin_NewSubjectThenChat(t *testing.T) {
	e := newEnv(t)

	w := e.do("POST", "/session_login", gin.H{"idToken": "tok-u1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"success","message":"Account created"}`, w.Body.String())
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "arogya_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	u, err := e.users.GetBySub(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "User One", u.Name)
	require.Equal(t, "u1@example.com", u.Email)
	require.False(t, u.CreatedAt.IsZero())

	w = e.do("POST", "/chat", gin.H{"message": "hi"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Reply string `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "echo: hi", resp.Reply)
}

func TestSessionLogin_SecondLoginReusesRecord(t *testing.T) {
	e := newEnv(t)
	e.login(t, "tok-u1")

	w := e.do("POST", "/session_login", gin.H{"idToken": "tok-u1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"success","message":"Login successful"}`, w.Body.String())
	require.Equal(t, 1, e.users.Len())
	require.Equal(t, 1, e.users.Creates)
}

func TestSessionLogin_InvalidTokenWritesNothing(t *testing.T) {
	e := newEnv(t)

	for _, tok := range []string{"expired", "garbage.jwt.value"} {
		w := e.do("POST", "/session_login", gin.H{"idToken": tok})
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.JSONEq(t, `{"status":"error","message":"Authentication failed"}`, w.Body.String())
		require.Empty(t, w.Result().Cookies())
	}
	require.Equal(t, 0, e.users.Len())
	require.Empty(t, e.redis.Keys())
}

func TestSessionLogin_MissingToken(t *testing.T) {
	e := newEnv(t)
	w := e.do("POST", "/session_login", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), `"status":"error"`)
}

func TestSessionLogin_ConcurrentFirstLogins(t *testing.T) {
	e := newEnv(t)

	var wg sync.WaitGroup
	codes := make([]int, 8)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = e.do("POST", "/session_login", gin.H{"idToken": "tok-u2"}).Code
		}(i)
	}
	wg.Wait()

	for _, c := range codes {
		assert.Equal(t, http.StatusOK, c)
	}
	require.Equal(t, 1, e.users.Creates)
	require.Equal(t, 1, e.users.Len())
}

func TestChat_EmptyMessageRejectedRegardlessOfSession(t *testing.T) {
	e := newEnv(t)
	cookie := e.login(t, "tok-u1")

	for _, body := range []interface{}{gin.H{"message": ""}, gin.H{"message": "   "}, gin.H{}, nil} {
		w := e.do("POST", "/chat", body)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.JSONEq(t, `{"error":"Message cannot be empty"}`, w.Body.String())

		w = e.do("POST", "/chat", body, cookie)
		require.Equal(t, http.StatusBadRequest, w.Code)
	}
	require.Equal(t, 0, e.provider.Calls())
}

func TestChat_RequiresSession(t *testing.T) {
	e := newEnv(t)
	w := e.do("POST", "/chat", gin.H{"message": "hi"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, 0, e.provider.Calls())
}

func TestChat_UpstreamFailure(t *testing.T) {
	e := newEnv(t)
	cookie := e.login(t, "tok-u1")
	e.provider.err = errors.New("quota exceeded")

	w := e.do("POST", "/chat", gin.H{"message": "hi"}, cookie)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"Failed to get a response from the AI."}`, w.Body.String())
}

func TestLogout_DashboardRedirectsAfterwards(t *testing.T) {
	e := newEnv(t)
	cookie := e.login(t, "tok-u1")

	w := e.do("GET", "/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "User One")

	w = e.do("POST", "/chat", gin.H{"message": "remember me"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do("GET", "/logout", nil, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	// the old cookie value is dead even though the browser still holds it
	w = e.do("GET", "/dashboard", nil, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))

	for _, k := range e.redis.Keys() {
		require.NotContains(t, k, "chat:history:")
	}
}

func TestPages(t *testing.T) {
	e := newEnv(t)

	w := e.do("GET", "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Arogya AI")

	w = e.do("GET", "/login", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "arogya-test")

	w = e.do("GET", "/signup", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `data-mode="signup"`)

	w = e.do("GET", "/dashboard", nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))

	cookie := e.login(t, "tok-u1")
	w = e.do("GET", "/login", nil, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/dashboard", w.Header().Get("Location"))

	w = e.do("GET", "/static/app.js", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAPIMe(t *testing.T) {
	e := newEnv(t)

	w := e.do("GET", "/api/me", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	cookie := e.login(t, "tok-u1")
	w = e.do("GET", "/api/me", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "u1", resp.User.ID)
	require.Equal(t, "u1@example.com", resp.User.Email)
}
