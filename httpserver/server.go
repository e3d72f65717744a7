package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/slackmgr/todo/todo"
)

const msgInternalServerError = "internal server error"

// Dispatcher is the subset of [todo.Dispatcher] used by [Server].
type Dispatcher interface {
	Dispatch(ctx context.Context, req todo.Request) (todo.Response, error)
}

type errorBody struct {
	Error string `json:"error"`
}

// Server serves the to-do routes over plain HTTP using echo.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server
	dispatcher Dispatcher
	logger     zerolog.Logger
}

// New creates a Server. It does not start listening; call [Server.Start].
func New(dispatcher Dispatcher, opts ...Option) (*Server, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher cannot be nil")
	}

	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	if err := options.validate(); err != nil {
		return nil, fmt.Errorf("invalid HTTP server options: %w", err)
	}

	s := &Server{
		echo:       echo.New(),
		dispatcher: dispatcher,
		logger:     options.logger.With().Str("adapter", "httpserver").Logger(),
	}

	s.httpServer = &http.Server{
		Handler:      s.echo,
		ReadTimeout:  options.readTimeout,
		WriteTimeout: options.writeTimeout,
		IdleTimeout:  options.idleTimeout,
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError

	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(s.requestLogger())
	s.echo.Use(middleware.BodyLimit(options.bodyLimit))

	s.echo.GET("/health", s.dispatch)
	s.echo.GET("/items", s.dispatch)
	s.echo.POST("/items", s.dispatch)
	s.echo.PUT("/items/:"+todo.PathParamID, s.dispatch)
	s.echo.DELETE("/items/:"+todo.PathParamID, s.dispatch)

	return s, nil
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr and serves requests until [Server.Shutdown] is
// called. It returns nil after a graceful shutdown, including one that
// happened before Start was called.
func (s *Server) Start(addr string) error {
	s.httpServer.Addr = addr

	s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	return nil
}

func (s *Server) dispatch(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}

	var params map[string]string

	if id := escapedParam(c, todo.PathParamID); id != "" {
		params = map[string]string{todo.PathParamID: id}
	}

	req := todo.Request{
		Method:     c.Request().Method,
		Path:       c.Request().URL.Path,
		PathParams: params,
		Body:       body,
	}

	resp, err := s.dispatcher.Dispatch(c.Request().Context(), req)
	if err != nil {
		return err
	}

	header := c.Response().Header()
	for k, v := range resp.Headers {
		header.Set(k, v)
	}

	c.Response().WriteHeader(resp.StatusCode)

	if len(resp.Body) == 0 {
		return nil
	}

	_, err = c.Response().Write(resp.Body)

	return err
}

// escapedParam returns the path segment matched by the :name route parameter
// as sent by the client. echo unescapes parameters when the path escaping
// round-trips, and the dispatcher decodes the id itself.
func escapedParam(c echo.Context, name string) string {
	if c.Param(name) == "" {
		return ""
	}

	template := strings.Split(c.Path(), "/")
	segments := strings.Split(c.Request().URL.EscapedPath(), "/")

	for i, part := range template {
		if part == ":"+name && i < len(segments) {
			return segments[i]
		}
	}

	return ""
}

// handleError replaces echo's default error handler. Requests that match no
// route are passed to the dispatcher so that the 404 body is the same as on
// Lambda. Everything else that is not an echo HTTP error becomes an opaque
// 500.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code == http.StatusNotFound || httpErr.Code == http.StatusMethodNotAllowed {
			if dispatchErr := s.dispatch(c); dispatchErr == nil {
				return
			}
		} else {
			s.writeError(c, httpErr.Code, http.StatusText(httpErr.Code))
			return
		}
	}

	s.logger.Error().
		Err(err).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Msg("Request failed")

	s.writeError(c, http.StatusInternalServerError, msgInternalServerError)
}

func (s *Server) writeError(c echo.Context, status int, message string) {
	if err := c.JSON(status, errorBody{Error: message}); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write error response")
	}
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURIPath:   true,
		LogLatency:   true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			var e *zerolog.Event

			switch {
			case v.Status >= http.StatusInternalServerError:
				e = s.logger.Error().Err(v.Error)
			case v.Status >= http.StatusBadRequest:
				e = s.logger.Warn()
			default:
				e = s.logger.Info()
			}

			e.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("API")

			return nil
		},
	})
}
