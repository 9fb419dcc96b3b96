// Package httpapi exposes ingestion and question answering over HTTP.
// It is a thin driving adapter: requests are validated, handed to the
// core services and mapped back to JSON responses. Refusals are normal
// 200 responses; only provider faults and bad input become error codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/citeline/internal/core/ports/driven"
	"github.com/custodia-labs/citeline/internal/core/ports/driving"
	"github.com/custodia-labs/citeline/internal/logger"
)

// Server hosts the HTTP API.
type Server struct {
	engine   *gin.Engine
	ingestor driving.Ingestor
	asker    driving.Asker
	store    driven.VectorStore
	catalog  driven.SourceCatalog // optional
	httpSrv  *http.Server
}

// New assembles the API around the given services. catalog may be nil,
// which disables the /sources endpoint data (it returns an empty list).
func New(ingestor driving.Ingestor, asker driving.Asker, store driven.VectorStore, catalog driven.SourceCatalog) *Server {
	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(RequestLogger())

	s := &Server{
		engine:   engine,
		ingestor: ingestor,
		asker:    asker,
		store:    store,
		catalog:  catalog,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.POST("/ingest", s.handleIngest)
	s.engine.POST("/ask", s.handleAsk)
	s.engine.GET("/sources", s.handleSources)
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves the API on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("Shutting down HTTP API")
	return s.httpSrv.Shutdown(shutdownCtx)
}
