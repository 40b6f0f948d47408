// Package httpapi exposes the assistant over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/domain"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/logging"
	"github.com/kevamacal/TFG-agente-ayuda-burocracia-US/internal/usecase"
)

// Asker is the answering surface served over HTTP.
type Asker interface {
	Answer(ctx context.Context, question string, history []domain.Turn) (*usecase.Answer, error)
	AnswerStream(ctx context.Context, question string, history []domain.Turn) (*usecase.StreamAnswer, error)
}

// AskRequest is the body of both ask endpoints.
type AskRequest struct {
	Question string        `json:"question"`
	History  []domain.Turn `json:"history,omitempty"`
}

// AskResponse is returned by POST /api/ask.
type AskResponse struct {
	Answer       string   `json:"answer"`
	Sources      []string `json:"sources"`
	Reformulated string   `json:"reformulated"`
}

type Server struct {
	asker Asker
	echo  *echo.Echo
}

// New builds the echo router.
func New(asker Asker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{asker: asker, echo: e}
	e.GET("/healthz", s.health)
	api := e.Group("/api")
	api.POST("/ask", s.ask)
	api.POST("/ask/stream", s.askStream)
	return s
}

// ServeHTTP lets the server be mounted or tested as a plain handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.echo.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logging.Info("listening on %s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func bindAsk(c echo.Context) (AskRequest, error) {
	var in AskRequest
	if err := c.Bind(&in); err != nil {
		return in, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	return in, nil
}

func errorStatus(err error) int {
	if errors.Is(err, domain.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, domain.ErrGenerationFailed) || errors.Is(err, domain.ErrEmbeddingFailed) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) ask(c echo.Context) error {
	in, err := bindAsk(c)
	if err != nil || c.Response().Committed {
		return err
	}

	answer, err := s.asker.Answer(c.Request().Context(), in.Question, in.History)
	if err != nil {
		logging.Error("ask: %v", err)
		return c.JSON(errorStatus(err), echo.Map{"error": err.Error()})
	}

	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}
	return c.JSON(http.StatusOK, AskResponse{
		Answer:       answer.Text,
		Sources:      sources,
		Reformulated: answer.Reformulated,
	})
}

// askStream answers as server-sent events: one "fragment" event per piece of
// text, then a single "sources" event. A failure mid-stream is reported as an
// "error" event.
func (s *Server) askStream(c echo.Context) error {
	in, err := bindAsk(c)
	if err != nil || c.Response().Committed {
		return err
	}

	res, err := s.asker.AnswerStream(c.Request().Context(), in.Question, in.History)
	if err != nil {
		logging.Error("ask stream: %v", err)
		return c.JSON(errorStatus(err), echo.Map{"error": err.Error()})
	}
	defer res.Stream.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for res.Stream.Next() {
		if err := writeEvent(w, "fragment", res.Stream.Fragment()); err != nil {
			return nil
		}
	}
	if err := res.Stream.Err(); err != nil {
		logging.Error("ask stream: %v", err)
		return writeEvent(w, "error", err.Error())
	}

	sources := res.Sources
	if sources == nil {
		sources = []string{}
	}
	return writeEvent(w, "sources", sources)
}

func writeEvent(w *echo.Response, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
