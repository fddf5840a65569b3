package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/petasbytes/olier/internal/provider"
	"github.com/petasbytes/olier/internal/session"
	"github.com/petasbytes/olier/memory"
)

type chatRequest struct {
	Content string `json:"content"`
}

type turnResponse struct {
	Role    memory.Role   `json:"role"`
	Content string        `json:"content"`
	HTML    template.HTML `json:"html"`
}

// unavailable is all the browser learns about an upstream failure.
const unavailable = "Olier is unavailable right now. Please try again in a moment."

func toResponses(turns []memory.Turn) []turnResponse {
	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnResponse{Role: t.Role, Content: t.Content, HTML: renderMarkdown(t.Content)})
	}
	return out
}

func (s *Server) handleIndex(c *echo.Context) error {
	sess := s.session(c)
	var buf strings.Builder
	if err := pageTemplate.Execute(&buf, pageData{UI: s.UI, Turns: toResponses(sess.Conv.Visible())}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.HTML(http.StatusOK, buf.String())
}

func (s *Server) handleHistory(c *echo.Context) error {
	sess := s.session(c)
	return c.JSON(http.StatusOK, toResponses(sess.Conv.Visible()))
}

func (s *Server) handleChat(c *echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil || req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content required")
	}

	sess := s.session(c)
	if sess.Busy() {
		return echo.NewHTTPError(http.StatusConflict, "a reply is still streaming")
	}

	ctx := c.Request().Context()
	model, err := s.model.get(ctx)
	if errors.Is(err, provider.ErrNoModels) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no model is being served")
	}
	if err != nil {
		s.log.Error().Err(err).Msg("resolve model")
		return echo.NewHTTPError(http.StatusBadGateway, unavailable)
	}

	// Streaming from here on; failures are reported as events.
	rw := c.Response()
	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")
	rw.Header().Set("X-Accel-Buffering", "no")
	rw.WriteHeader(http.StatusOK)

	emit := func(ev map[string]any) {
		data, _ := json.Marshal(ev)
		fmt.Fprintf(rw, "data: %s\n\n", data)
		if f, ok := rw.(http.Flusher); ok {
			f.Flush()
		}
	}

	emit(map[string]any{"type": "user", "content": req.Content})

	res, err := sess.Submit(ctx, s.runner, model, req.Content, func(snapshot string) {
		emit(map[string]any{"type": "replace", "content": snapshot, "html": renderMarkdown(snapshot)})
	})
	switch {
	case errors.Is(err, session.ErrBusy):
		emit(map[string]any{"type": "error", "content": "a reply is still streaming"})
		return nil
	case err != nil:
		s.log.Error().Err(err).Str("session", sess.ID).Msg("chat cycle failed")
		emit(map[string]any{"type": "error", "content": unavailable})
		return nil
	}

	last, _ := sess.Conv.LastUser()
	emit(map[string]any{
		"type":       "done",
		"committed":  res.Committed,
		"search_url": searchURL(s.UI.SearchSite, last),
		"transcript": sess.Conv.Transcript(),
	})
	return nil
}
