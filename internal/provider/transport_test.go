package provider_test

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
)

type capture struct {
	method string
	url    string
	body   []byte
}

type route struct {
	status      int
	contentType string
	body        string
}

// fakeTransport answers requests by URL path suffix and records every request.
type fakeTransport struct {
	routes map[string]route

	mu       sync.Mutex
	captured []capture
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var b []byte
	if req.Body != nil {
		b, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
	}
	f.mu.Lock()
	f.captured = append(f.captured, capture{method: req.Method, url: req.URL.String(), body: b})
	f.mu.Unlock()

	rt := route{status: http.StatusNotFound, contentType: "application/json", body: `{"error":{"message":"not found"}}`}
	for suffix, r := range f.routes {
		if strings.HasSuffix(req.URL.Path, suffix) {
			rt = r
			break
		}
	}
	resp := &http.Response{
		StatusCode: rt.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(rt.body))),
		Header:     make(http.Header),
		Request:    req,
	}
	resp.Header.Set("Content-Type", rt.contentType)
	return resp, nil
}

func (f *fakeTransport) last(pathSuffix string) (capture, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.captured) - 1; i >= 0; i-- {
		if strings.Contains(f.captured[i].url, pathSuffix) {
			return f.captured[i], true
		}
	}
	return capture{}, false
}

// sse joins data payloads into an event-stream body.
func sse(events ...string) string {
	var b strings.Builder
	for _, e := range events {
		b.WriteString(e)
		b.WriteString("\n\n")
	}
	return b.String()
}

func drain(s interface {
	Next() bool
	Fragment() string
}) []string {
	var out []string
	for s.Next() {
		out = append(out, s.Fragment())
	}
	return out
}
