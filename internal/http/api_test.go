package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"techfeed/internal/auth"
	"techfeed/internal/domain"
	"techfeed/internal/repository/sqlite"
	"techfeed/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newSessions(t *testing.T) *auth.SessionManager {
	t.Helper()
	sessions, err := auth.NewSessionManager(auth.SessionConfig{Secret: "test-secret", TTL: time.Hour})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return sessions
}

type testEnv struct {
	server *httptest.Server
	client *http.Client
	db     *sql.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "forum.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.Init(context.Background(), db); err != nil {
		t.Fatalf("init db: %v", err)
	}

	comments := sqlite.NewCommentRepository(db)
	handler := NewHandler(
		service.NewUserService(sqlite.NewUserRepository(db)),
		service.NewPostService(sqlite.NewPostRepository(db), comments, sqlite.NewVoteRepository(db)),
		service.NewCommentService(comments),
		newSessions(t),
		NewMetrics(),
		quietLogger(),
		"",
	)
	router := gin.New()
	handler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &testEnv{server: server, client: &http.Client{Jar: jar}, db: db}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(raw) == 0 {
		return resp.StatusCode, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return resp.StatusCode, map[string]any{"raw": string(raw)}
	}
	return resp.StatusCode, decoded
}

func (e *testEnv) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := e.db.QueryRow(`SELECT COUNT(1) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func (e *testEnv) signup(t *testing.T, email string) int64 {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/users", map[string]string{
		"username": "a", "email": email, "password": "p",
	})
	if status != http.StatusOK {
		t.Fatalf("signup status %d: %v", status, body)
	}
	return int64(body["id"].(float64))
}

func expectMessage(t *testing.T, status int, body map[string]any, wantStatus int, wantMessage string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("expected status %d, got %d (%v)", wantStatus, status, body)
	}
	if body["message"] != wantMessage {
		t.Fatalf("expected message %q, got %v", wantMessage, body["message"])
	}
}

func TestAuthLifecycleScenario(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/users", map[string]string{
		"username": "a", "email": "a@x.com", "password": "p",
	})
	if status != http.StatusOK || body["id"] != float64(1) {
		t.Fatalf("signup: %d %v", status, body)
	}

	status, wrongPassword := env.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": "a@x.com", "password": "wrong"})
	expectMessage(t, status, wrongPassword, http.StatusBadRequest, "Incorrect credentials")

	status, unknownEmail := env.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": "b@x.com", "password": "p"})
	expectMessage(t, status, unknownEmail, http.StatusBadRequest, "Incorrect credentials")
	if len(wrongPassword) != len(unknownEmail) {
		t.Fatalf("failure shapes differ: %v vs %v", wrongPassword, unknownEmail)
	}

	status, body = env.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": "a@x.com", "password": "p"})
	if status != http.StatusOK || body["id"] != float64(1) {
		t.Fatalf("login: %d %v", status, body)
	}

	status, _ = env.do(t, http.MethodPost, "/api/posts", map[string]string{"title": "Go", "post_url": "https://go.dev"})
	if status != http.StatusOK {
		t.Fatalf("expected logged-in post creation, got %d", status)
	}

	status, body = env.do(t, http.MethodPost, "/api/users/logout", nil)
	if status != http.StatusNoContent || body != nil {
		t.Fatalf("logout: %d %v", status, body)
	}

	status, body = env.do(t, http.MethodPost, "/api/comments", map[string]any{"comment_text": "hi", "post_id": 1})
	expectMessage(t, status, body, http.StatusUnauthorized, "Unauthorized")
	if n := env.count(t, "comments"); n != 0 {
		t.Fatalf("expected no comments, got %d", n)
	}
}

func TestSignupDuplicateEmailFails(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com")

	status, body := env.do(t, http.MethodPost, "/api/users", map[string]string{
		"username": "b", "email": "a@x.com", "password": "q",
	})
	expectMessage(t, status, body, http.StatusInternalServerError, "Signup failed")
	if n := env.count(t, "users"); n != 1 {
		t.Fatalf("expected one user, got %d", n)
	}
}

func TestSignupRejectsMissingFields(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, "/api/users", map[string]string{"username": "a"})
	expectMessage(t, status, body, http.StatusBadRequest, "Invalid request body")
	if n := env.count(t, "users"); n != 0 {
		t.Fatalf("expected no users, got %d", n)
	}
}

func TestLoginMissingFieldsLooksLikeBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, "/api/users/login", map[string]string{})
	expectMessage(t, status, body, http.StatusBadRequest, "Incorrect credentials")
}

func TestLogoutWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 2; i++ {
		status, _ := env.do(t, http.MethodPost, "/api/users/logout", nil)
		if status != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", status)
		}
	}
}

func TestProtectedEndpointsRequireSession(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/api/comments", map[string]any{"comment_text": "hi", "post_id": 1}},
		{http.MethodPut, "/api/posts/upvote", map[string]any{"post_id": 1}},
		{http.MethodPost, "/api/posts", map[string]string{"title": "t", "post_url": "u"}},
		{http.MethodPut, "/api/posts/1", map[string]string{"title": "t"}},
		{http.MethodDelete, "/api/posts/1", nil},
	}
	for _, tc := range cases {
		status, body := env.do(t, tc.method, tc.path, tc.body)
		expectMessage(t, status, body, http.StatusUnauthorized, "Unauthorized")
	}
	for _, table := range []string{"posts", "comments", "votes"} {
		if n := env.count(t, table); n != 0 {
			t.Fatalf("expected %s untouched, got %d rows", table, n)
		}
	}
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	userID := env.signup(t, "a@x.com")

	status, body := env.do(t, http.MethodPost, "/api/posts", map[string]string{"title": "Go 1.25", "post_url": "https://www.go.dev/blog"})
	if status != http.StatusOK {
		t.Fatalf("create post: %d %v", status, body)
	}
	postID := int64(body["id"].(float64))

	for i := 0; i < 2; i++ {
		if status, body := env.do(t, http.MethodPut, "/api/posts/upvote", map[string]any{"post_id": postID}); status != http.StatusNoContent {
			t.Fatalf("upvote: %d %v", status, body)
		}
	}
	if status, body := env.do(t, http.MethodPost, "/api/comments", map[string]any{"comment_text": "nice", "post_id": postID}); status != http.StatusOK || body["id"] != float64(1) {
		t.Fatalf("comment: %d %v", status, body)
	}

	status, body = env.do(t, http.MethodGet, "/api/posts/1", nil)
	if status != http.StatusOK {
		t.Fatalf("get post: %d %v", status, body)
	}
	if body["vote_count"] != float64(2) || body["vote_label"] != "2 upvotes" || body["comment_label"] != "1 comment" {
		t.Fatalf("unexpected counters: %v", body)
	}
	if body["domain"] != "go.dev" || body["user_id"] != float64(userID) {
		t.Fatalf("unexpected post body: %v", body)
	}
	comments, ok := body["comments"].([]any)
	if !ok || len(comments) != 1 {
		t.Fatalf("expected one comment, got %v", body["comments"])
	}

	if status, _ := env.do(t, http.MethodPut, "/api/posts/1", map[string]string{"title": "Go 1.26"}); status != http.StatusNoContent {
		t.Fatalf("update: %d", status)
	}
	_, body = env.do(t, http.MethodGet, "/api/posts/1", nil)
	if body["title"] != "Go 1.26" {
		t.Fatalf("title not updated: %v", body)
	}

	status, body = env.do(t, http.MethodPut, "/api/posts/999", map[string]string{"title": "x"})
	expectMessage(t, status, body, http.StatusNotFound, "No post found with this id")
	status, body = env.do(t, http.MethodDelete, "/api/posts/999", nil)
	expectMessage(t, status, body, http.StatusNotFound, "No post found with this id")
	if n := env.count(t, "posts"); n != 1 {
		t.Fatalf("missing-post delete changed the store: %d posts", n)
	}

	status, body = env.do(t, http.MethodPut, "/api/posts/abc", map[string]string{"title": "x"})
	expectMessage(t, status, body, http.StatusBadRequest, "Invalid post id")

	if status, _ := env.do(t, http.MethodDelete, "/api/posts/1", nil); status != http.StatusNoContent {
		t.Fatalf("delete: %d", status)
	}
	status, body = env.do(t, http.MethodGet, "/api/posts/1", nil)
	expectMessage(t, status, body, http.StatusNotFound, "No post found with this id")
	if n := env.count(t, "votes") + env.count(t, "comments"); n != 0 {
		t.Fatalf("expected cascade delete, %d rows left", n)
	}
}

func TestCommentOnMissingPostFails(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com")

	status, body := env.do(t, http.MethodPost, "/api/comments", map[string]any{"comment_text": "hi", "post_id": 42})
	expectMessage(t, status, body, http.StatusInternalServerError, "Comment failed")
	status, body = env.do(t, http.MethodPut, "/api/posts/upvote", map[string]any{"post_id": 42})
	expectMessage(t, status, body, http.StatusInternalServerError, "Upvote failed")
}

func TestListPosts(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com")
	for _, title := range []string{"first", "second"} {
		if status, _ := env.do(t, http.MethodPost, "/api/posts", map[string]string{"title": title, "post_url": "https://example.com"}); status != http.StatusOK {
			t.Fatalf("create: %d", status)
		}
	}

	resp, err := env.client.Get(env.server.URL + "/api/posts")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	var posts []PostResponse
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(posts) != 2 || posts[0].Title != "second" || posts[1].CommentLabel != "0 comments" {
		t.Fatalf("unexpected list: %+v", posts)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/users/logout", nil)

	resp, err := env.client.Get(env.server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	text := string(raw)
	if !strings.Contains(text, "techfeed_api_http_requests_total") || !strings.Contains(text, `event="logout"`) {
		t.Fatalf("expected api metrics, got:\n%s", text)
	}
}

type failingUserService struct{}

func (failingUserService) Signup(context.Context, string, string, string) (*domain.User, error) {
	return nil, errors.New("database is locked: secret detail")
}

func (failingUserService) Authenticate(context.Context, string, string) (*domain.User, error) {
	return nil, errors.New("database is locked: secret detail")
}

func (failingUserService) GetByID(context.Context, int64) (*domain.User, error) {
	return nil, errors.New("database is locked: secret detail")
}

func TestInternalErrorsAreNotEchoed(t *testing.T) {
	handler := NewHandler(failingUserService{}, nil, nil, newSessions(t), nil, quietLogger(), "")
	router := gin.New()
	handler.RegisterRoutes(router)

	cases := []struct {
		path    string
		body    string
		message string
	}{
		{"/api/users", `{"username":"a","email":"a@x.com","password":"p"}`, "Signup failed"},
		{"/api/users/login", `{"email":"a@x.com","password":"p"}`, "Login failed"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", tc.path, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "secret detail") {
			t.Fatalf("%s: internal error leaked: %s", tc.path, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), tc.message) {
			t.Fatalf("%s: expected %q, got %s", tc.path, tc.message, rec.Body.String())
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Fatalf("%s: no session may be started on failure", tc.path)
		}
	}
}
