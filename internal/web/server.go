// Package web serves the browser chat: the page, the history and the
// streamed chat endpoint.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/petasbytes/olier/internal/runner"
	"github.com/petasbytes/olier/internal/session"
)

// CookieName holds the session id in the browser.
const CookieName = "olier_session"

// UI is the page chrome.
type UI struct {
	Title       string
	Disclaimer  string
	FeedbackURL string
	SearchSite  string
}

type Server struct {
	UI      UI
	IdleTTL time.Duration

	store  *session.Store
	runner *runner.Runner
	model  *modelCache
	log    zerolog.Logger
	echo   *echo.Echo
}

// New wires the routes. Replies are produced by r; sessions live in store.
func New(ui UI, store *session.Store, r *runner.Runner, log zerolog.Logger) *Server {
	s := &Server{
		UI:      ui,
		IdleTTL: session.DefaultIdleTTL,
		store:   store,
		runner:  r,
		model:   &modelCache{p: r.Provider},
		log:     log.With().Str("component", "web").Logger(),
		echo:    echo.New(),
	}
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.requestLog)

	s.echo.GET("/", s.handleIndex)
	s.echo.GET("/healthz", s.handleHealth)
	g := s.echo.Group("/api")
	g.GET("/history", s.handleHistory)
	g.POST("/chat", s.handleChat)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// ListenAndServe serves on addr until ctx is done, sweeping idle sessions meanwhile.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stop := context.WithCancel(ctx)
	defer stop()
	go s.store.RunSweeper(sweepCtx, time.Minute, s.IdleTTL, func(n int) {
		s.log.Info().Int("removed", n).Int("live", s.store.Len()).Msg("idle sessions swept")
	})

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		start := time.Now()
		err := next(c)
		ev := s.log.Debug()
		if err != nil {
			ev = s.log.Warn().Err(err)
		}
		ev.Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Dur("took", time.Since(start)).
			Msg("request")
		return err
	}
}

// session returns the caller's session, issuing a cookie for new ones.
func (s *Server) session(c *echo.Context) *session.Session {
	id := ""
	if ck, err := c.Request().Cookie(CookieName); err == nil {
		id = ck.Value
	}
	sess, created := s.store.Get(id)
	if created {
		http.SetCookie(c.Response(), &http.Cookie{
			Name:     CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
