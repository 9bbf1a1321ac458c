package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agora-forum/agora/shared/config"
	"github.com/agora-forum/agora/shared/domain"
	mw "github.com/agora-forum/agora/shared/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRequest(t *testing.T, method, url string, body []byte, cookies ...*http.Cookie) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, url, bytes.NewBuffer(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

type testServices struct {
	thread   *MockThreadService
	post     *MockPostService
	reaction *MockReactionService
	activity *MockActivityService
	subforum *MockSubforumService
	cache    *MockCacheAdmin
	pinger   *MockPinger
}

func newTestServices() *testServices {
	return &testServices{
		thread:   &MockThreadService{},
		post:     &MockPostService{},
		reaction: &MockReactionService{},
		activity: &MockActivityService{},
		subforum: &MockSubforumService{},
		cache:    &MockCacheAdmin{},
		pinger:   &MockPinger{},
	}
}

func testConfig() *config.Config {
	return &config.Config{Public: config.Public{
		ThreadsPerPage: 10,
		PostsPerPage:   20,
		SearchLimit:    50,
		LatestLimit:    25,
		ReactionTypes:  []string{"like"},
	}}
}

// withUser puts user into the request context the way the auth middleware does.
func withUser(user *domain.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user != nil {
				r = r.WithContext(context.WithValue(r.Context(), mw.UserClaimsKey, user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// setupTestRouter mounts every endpoint without access control; user may be nil.
func setupTestRouter(s *testServices, user *domain.User) *chi.Mux {
	h := New(Services{
		Thread:   s.thread,
		Post:     s.post,
		Reaction: s.reaction,
		Activity: s.activity,
		Subforum: s.subforum,
	}, s.cache, s.pinger, testConfig())

	r := chi.NewRouter()
	r.Use(withUser(user))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.Get("/v1/subforums", h.ListSubforums)
	r.Post("/v1/subforums", h.CreateSubforum)
	r.Get("/v1/subforums/{subforum}/threads", h.ListSubforumThreads)

	r.Post("/v1/threads", h.CreateThread)
	r.Get("/v1/threads/latest", h.ListLatestThreads)
	r.Get("/v1/threads/recent", h.ListRecentThreads)
	r.Get("/v1/threads/by-slug/{slug}", h.GetThreadBySlug)
	r.Get("/v1/threads/{thread}", h.GetThread)
	r.Patch("/v1/threads/{thread}", h.UpdateThread)
	r.Delete("/v1/threads/{thread}", h.DeleteThread)
	r.Post("/v1/threads/{thread}/sticky", h.ToggleStickyThread)
	r.Post("/v1/threads/{thread}/locked", h.ToggleLockedThread)
	r.Post("/v1/threads/{thread}/move", h.MoveThread)
	r.Get("/v1/threads/{thread}/posts", h.ListThreadPosts)
	r.Post("/v1/threads/{thread}/posts", h.CreatePost)
	r.Put("/v1/threads/{thread}/subscription", h.Subscribe)
	r.Delete("/v1/threads/{thread}/subscription", h.Unsubscribe)
	r.Get("/v1/threads/{thread}/subscription", h.GetSubscription)
	r.Get("/v1/subscriptions", h.ListSubscriptions)

	r.Get("/v1/posts/{post}", h.GetPost)
	r.Patch("/v1/posts/{post}", h.UpdatePost)
	r.Delete("/v1/posts/{post}", h.DeletePost)
	r.Get("/v1/posts/{post}/location", h.LocatePost)
	r.Get("/v1/posts/{post}/reactions", h.GetReactions)
	r.Post("/v1/posts/{post}/reactions", h.ToggleReaction)
	r.Get("/v1/posts/{post}/reactions/{type}", h.ListReactionUsers)
	r.Get("/v1/search", h.SearchPosts)

	r.Get("/v1/activity", h.ListActivity)
	r.Post("/v1/activity/read", h.MarkActivityRead)

	r.Delete("/v1/admin/cache", h.ClearCache)
	r.Delete("/v1/admin/cache/{type}", h.ClearCacheType)
	return r
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name             string
		input            interface{}
		expected         string
		status           int
		checkContentType bool
	}{
		{
			name:             "Valid JSON",
			input:            map[string]string{"message": "hello"},
			expected:         `{"message":"hello"}`,
			status:           http.StatusOK,
			checkContentType: true,
		},
		{
			name:     "Invalid JSON (channel)",
			input:    make(chan int),
			expected: "Internal error",
			status:   http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			writeJSON(rr, tt.input)

			assert.Equal(t, tt.status, rr.Code)
			if tt.checkContentType {
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			}
			assert.Equal(t, tt.expected+"\n", rr.Body.String())
		})
	}
}

func TestWriteJSONStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSONStatus(rr, http.StatusCreated, map[string]int{"id": 7})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"id":7}`, rr.Body.String())
}

func TestParseIntParam(t *testing.T) {
	val, err := parseIntParam("42", "thread")
	require.NoError(t, err)
	assert.Equal(t, int64(42), val)

	_, err = parseIntParam("abc", "thread")
	require.Error(t, err)
	assert.Equal(t, "invalid thread: must be an integer", err.Error())
}

func TestPageParam(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{query: "", want: 1},
		{query: "?page=3", want: 3},
		{query: "?page=0", want: 1},
		{query: "?page=-2", want: 1},
		{query: "?page=x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			page, err := pageParam(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, page)
		})
	}
}
