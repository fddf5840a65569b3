package web_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/olier/internal/provider"
	"github.com/petasbytes/olier/internal/provider/providertest"
	"github.com/petasbytes/olier/internal/runner"
	"github.com/petasbytes/olier/internal/session"
	"github.com/petasbytes/olier/internal/web"
	"github.com/petasbytes/olier/memory"
)

const sys = "You are Olier."

var ui = web.UI{
	Title:       "Olier",
	Disclaimer:  "Olier is a work in progress.",
	FeedbackURL: "https://example.org/feedback",
	SearchSite:  "motherandsriaurobindo.in",
}

// countingProvider counts ListModels calls.
type countingProvider struct {
	*providertest.Fake
	lists atomic.Int32
}

func (p *countingProvider) ListModels(ctx context.Context) ([]string, error) {
	p.lists.Add(1)
	return p.Fake.ListModels(ctx)
}

type fixture struct {
	fake  *countingProvider
	store *session.Store
	h     http.Handler
}

func newFixture(fake *providertest.Fake) *fixture {
	cp := &countingProvider{Fake: fake}
	store := session.NewStore(sys, 0)
	srv := web.New(ui, store, runner.New(cp, zerolog.Nop()), zerolog.Nop())
	return &fixture{fake: cp, store: store, h: srv.Handler()}
}

func (f *fixture) do(t *testing.T, method, path, body, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: web.CookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == web.CookieName {
			return c.Value
		}
	}
	t.Fatal("no session cookie set")
	return ""
}

type event struct {
	Type       string `json:"type"`
	Content    string `json:"content"`
	HTML       string `json:"html"`
	Committed  bool   `json:"committed"`
	SearchURL  string `json:"search_url"`
	Transcript string `json:"transcript"`
}

func events(t *testing.T, body string) []event {
	t.Helper()
	var out []event
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		out = append(out, ev)
	}
	return out
}

func TestHealthz(t *testing.T) {
	f := newFixture(providertest.New())
	rec := f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestIndex_RendersChromeAndSetsCookie(t *testing.T) {
	f := newFixture(providertest.New())
	rec := f.do(t, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Olier</title>")
	assert.Contains(t, body, ui.Disclaimer)
	assert.Contains(t, body, ui.FeedbackURL)
	assert.NotContains(t, body, sys, "system prompt is never shown")
	assert.NotEmpty(t, sessionCookie(t, rec))
}

func TestChat_StreamsSnapshotsAndCommits(t *testing.T) {
	f := newFixture(providertest.New("Hel", "lo", " **there**"))

	rec := f.do(t, http.MethodPost, "/api/chat", `{"content":"what is yoga?"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	evs := events(t, rec.Body.String())
	require.Len(t, evs, 5)
	assert.Equal(t, event{Type: "user", Content: "what is yoga?"}, evs[0])
	assert.Equal(t, "Hel", evs[1].Content)
	assert.Equal(t, "Hello", evs[2].Content)
	assert.Equal(t, "Hello **there**", evs[3].Content)
	assert.Contains(t, evs[3].HTML, "<strong>there</strong>")

	done := evs[4]
	assert.Equal(t, "done", done.Type)
	assert.True(t, done.Committed)
	assert.Equal(t, "https://www.google.com/search?q=site:motherandsriaurobindo.in+what%20is%20yoga%3F", done.SearchURL)
	assert.Equal(t, "user: what is yoga?\nassistant: Hello **there**", done.Transcript)

	hist := f.do(t, http.MethodGet, "/api/history", "", sessionCookie(t, rec))
	var turns []struct {
		Role    memory.Role `json:"role"`
		Content string      `json:"content"`
	}
	require.NoError(t, json.Unmarshal(hist.Body.Bytes(), &turns))
	require.Len(t, turns, 2)
	assert.Equal(t, memory.RoleUser, turns[0].Role)
	assert.Equal(t, "Hello **there**", turns[1].Content)
}

func TestChat_ReusesSessionFromCookie(t *testing.T) {
	f := newFixture(providertest.New("ok"))
	first := f.do(t, http.MethodPost, "/api/chat", `{"content":"one"}`, "")
	id := sessionCookie(t, first)

	second := f.do(t, http.MethodPost, "/api/chat", `{"content":"two"}`, id)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Empty(t, second.Result().Cookies(), "known session keeps its cookie")

	sess, created := f.store.Get(id)
	require.False(t, created)
	assert.Equal(t, 5, sess.Conv.Len())
	assert.Equal(t, int32(1), f.fake.lists.Load(), "model id resolved once")
}

func TestChat_EmptyContent(t *testing.T) {
	f := newFixture(providertest.New("x"))
	for _, body := range []string{`{"content":""}`, `{}`, `not json`} {
		rec := f.do(t, http.MethodPost, "/api/chat", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Empty(t, f.fake.Calls())
}

func TestChat_WhitespaceContentIsAccepted(t *testing.T) {
	f := newFixture(providertest.New("ok"))
	rec := f.do(t, http.MethodPost, "/api/chat", `{"content":"  "}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	sess, _ := f.store.Get(sessionCookie(t, rec))
	require.Equal(t, 3, sess.Conv.Len())
	assert.Equal(t, memory.Turn{Role: memory.RoleUser, Content: "  "}, sess.Conv.Turns()[1])
}

func TestChat_NoModel(t *testing.T) {
	fake := providertest.New("x")
	fake.Models = nil
	f := newFixture(fake)
	rec := f.do(t, http.MethodPost, "/api/chat", `{"content":"hi"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChat_ModelListFails(t *testing.T) {
	fake := providertest.New("x")
	fake.ListErr = errors.New("dial tcp: connection refused")
	f := newFixture(fake)
	rec := f.do(t, http.MethodPost, "/api/chat", `{"content":"hi"}`, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")

	// Not cached: a recovered endpoint is picked up.
	fake.ListErr = nil
	rec = f.do(t, http.MethodPost, "/api/chat", `{"content":"hi"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChat_UpstreamFailureKeepsUserTurn(t *testing.T) {
	fake := providertest.New("partial", "more")
	fake.FailAfter = 1
	fake.Err = errors.New("stream reset")
	f := newFixture(fake)

	rec := f.do(t, http.MethodPost, "/api/chat", `{"content":"hi"}`, "")
	evs := events(t, rec.Body.String())
	require.NotEmpty(t, evs)
	last := evs[len(evs)-1]
	assert.Equal(t, "error", last.Type)
	assert.NotContains(t, last.Content, "stream reset")

	sess, _ := f.store.Get(sessionCookie(t, rec))
	turns := sess.Conv.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, memory.Turn{Role: memory.RoleUser, Content: "hi"}, turns[1])
}

func TestChat_BusySession(t *testing.T) {
	fake := providertest.New("slow")
	fake.Gate = make(chan struct{})
	f := newFixture(fake)

	sess, _ := f.store.Get("")
	r := runner.New(fake, zerolog.Nop())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = sess.Submit(context.Background(), r, "olier-test", "first", nil)
	}()
	require.Eventually(t, func() bool { return len(fake.Calls()) == 1 }, time.Second, time.Millisecond)

	rec := f.do(t, http.MethodPost, "/api/chat", `{"content":"second"}`, sess.ID)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(fake.Gate)
	wg.Wait()
	assert.Equal(t, 3, sess.Conv.Len())
}

func TestChat_EmptyReplyCommitsNothing(t *testing.T) {
	f := newFixture(providertest.New("", ""))
	rec := f.do(t, http.MethodPost, "/api/chat", `{"content":"hi"}`, "")
	evs := events(t, rec.Body.String())
	require.Len(t, evs, 2)
	assert.Equal(t, "done", evs[1].Type)
	assert.False(t, evs[1].Committed)
}

var _ provider.Provider = (*countingProvider)(nil)
