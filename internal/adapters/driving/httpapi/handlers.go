package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/citeline/internal/core/domain"
	"github.com/custodia-labs/citeline/internal/logger"
)

// ingestRequest is the /ingest request body.
type ingestRequest struct {
	SourceID string         `json:"source_id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// askRequest is the /ask request body.
type askRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// healthResponse is the /health response body.
type healthResponse struct {
	Status     string `json:"status"`
	Chunks     int    `json:"chunks"`
	Dimensions int    `json:"dimensions"`
}

// sourceEntry is one row of the /sources response.
type sourceEntry struct {
	SourceID    string    `json:"source_id"`
	ChunksAdded int       `json:"chunks_added"`
	IngestedAt  time.Time `json:"ingested_at"`
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:     "ok",
		Chunks:     s.store.Len(),
		Dimensions: s.store.Dimensions(),
	})
}

func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	result, err := s.ingestor.Ingest(c.Request.Context(), req.SourceID, req.Text, req.Metadata)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	answer, err := s.asker.Ask(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		s.writeError(c, err)
		return
	}

	// Refusals are successful responses.
	c.JSON(http.StatusOK, answer)
}

func (s *Server) handleSources(c *gin.Context) {
	if s.catalog == nil {
		c.JSON(http.StatusOK, []sourceEntry{})
		return
	}

	records, err := s.catalog.ListSources(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]sourceEntry, 0, len(records))
	for _, r := range records {
		out = append(out, sourceEntry{
			SourceID:    r.SourceID,
			ChunksAdded: r.ChunksAdded,
			IngestedAt:  r.IngestedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrEmbeddingProvider),
		errors.Is(err, domain.ErrGeneration),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrLLMUnavailable):
		logger.Error("Upstream provider failure: %v", err)
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		logger.Error("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
