package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	logging "github.com/ipfs/go-log/v2"
	"github.com/labstack/echo/v4"

	"github.com/storacha/todos/pkg/build"
	"github.com/storacha/todos/pkg/service/blobs"
	"github.com/storacha/todos/pkg/service/todos"
)

var log = logging.Logger("server")

type config struct {
	todos todos.Todos
	blobs *blobs.BlobService
}

type Option func(*config)

// WithTodos configures the to-do service the server should use.
func WithTodos(service todos.Todos) Option {
	return func(c *config) {
		c.todos = service
	}
}

// WithBlobs serves the local attachment endpoint from the passed service.
func WithBlobs(service *blobs.BlobService) Option {
	return func(c *config) {
		c.blobs = service
	}
}

// ListenAndServe creates a new to-do HTTP server, and starts it up. The server
// is shut down when the context is canceled.
func ListenAndServe(ctx context.Context, addr string, opts ...Option) error {
	handler, err := NewServer(opts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Errorf("shutting down server: %s", err)
		}
	}()

	log.Infof("Listening on %s", addr)
	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NewServer creates the HTTP handler serving the to-do API and, when
// configured, the local attachment endpoint.
func NewServer(opts ...Option) (*echo.Echo, error) {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}

	if c.todos == nil {
		return nil, errors.New("todos service is required")
	}

	e := todos.NewEcho()
	e.GET("/", getRootHandler())

	todoServer, err := todos.NewServer(c.todos)
	if err != nil {
		return nil, fmt.Errorf("creating todos server: %w", err)
	}
	todoServer.Serve(e)

	if c.blobs != nil {
		blobServer, err := blobs.NewServer(c.blobs.Presigner(), c.blobs.Store(), c.blobs.MaxUploadSize())
		if err != nil {
			return nil, fmt.Errorf("creating blobs server: %w", err)
		}
		blobServer.Serve(e)
	}

	return e, nil
}

// getRootHandler displays version info when a GET request is sent to "/".
func getRootHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, fmt.Sprintf("todos %s\n", build.Version))
	}
}
