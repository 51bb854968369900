package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hireloop/matchrank/internal/domain"
	chatuc "github.com/hireloop/matchrank/internal/usecase/chat"
	documentuc "github.com/hireloop/matchrank/internal/usecase/document"
	healthuc "github.com/hireloop/matchrank/internal/usecase/health"
	rankuc "github.com/hireloop/matchrank/internal/usecase/rank"
)

// ErrorCode identifies an API error class in response bodies.
type ErrorCode string

const (
	CodeBadRequest            ErrorCode = "bad_request"
	CodeValidationFailed      ErrorCode = "validation_failed"
	CodeUnauthorized          ErrorCode = "unauthorized"
	CodeScopeNotFound         ErrorCode = "scope_not_found"
	CodeDocumentNotFound      ErrorCode = "document_not_found"
	CodeRateLimited           ErrorCode = "rate_limited"
	CodeEmbeddingUnavailable  ErrorCode = "embedding_unavailable"
	CodeCompletionUnavailable ErrorCode = "completion_unavailable"
	CodeInternalError         ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the ranking API over chi.
type Server struct {
	documents     *documentuc.Service
	ranker        *rankuc.Service
	chat          *chatuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	documents *documentuc.Service,
	ranker *rankuc.Service,
	chat *chatuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		documents: documents,
		ranker:    ranker,
		chat:      chat,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrScopeNotFound, http.StatusNotFound, CodeScopeNotFound),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrMalformedRequest, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, CodeEmbeddingUnavailable),
		sentinelHandler(domain.ErrCompletionUnavailable, http.StatusBadGateway, CodeCompletionUnavailable),
	}
	return s
}

// Routes mounts all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/scopes/{scope}/documents", s.IngestDocuments)
		r.Delete("/scopes/{scope}/documents/{id}", s.DeleteDocument)
		r.Post("/rank", s.Rank)
		r.Post("/chat", s.Chat)
	})
}

// DocumentPayload is one document in an ingestion batch.
type DocumentPayload struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
	SourceRef string    `json:"source_ref,omitempty"`
}

// IngestRequest is the body of POST /v1/scopes/{scope}/documents.
type IngestRequest struct {
	Documents []DocumentPayload `json:"documents"`
}

// IngestResponse summarizes an ingestion batch.
type IngestResponse struct {
	Ingested int `json:"ingested"`
	Embedded int `json:"embedded"`
	Pending  int `json:"pending"`
}

// IngestDocuments handles POST /v1/scopes/{scope}/documents.
func (s *Server) IngestDocuments(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	docs := make([]domain.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = domain.Document{
			ID:        d.ID,
			Text:      d.Text,
			Embedding: d.Embedding,
			SourceRef: d.SourceRef,
		}
	}

	res, err := s.documents.Ingest(r.Context(), scope, docs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{
		Ingested: res.Ingested,
		Embedded: res.Embedded,
		Pending:  res.Pending,
	})
}

// DeleteDocument handles DELETE /v1/scopes/{scope}/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	id := chi.URLParam(r, "id")

	if err := s.documents.Delete(scope, id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RankRequest is the body of POST /v1/rank.
type RankRequest struct {
	ScopeKey string `json:"scope_key"`
	Query    string `json:"query"`
	Count    int    `json:"count,omitempty"`
}

// MatchPayload is one ranked result.
type MatchPayload struct {
	DocumentID   string  `json:"document_id"`
	Score        float64 `json:"score"`
	VectorScore  float64 `json:"vector_score,omitempty"`
	LexicalScore float64 `json:"lexical_score,omitempty"`
}

// RankResponse is the body of a ranking reply.
type RankResponse struct {
	Mode    string         `json:"mode"`
	Results []MatchPayload `json:"results"`
}

// Rank handles POST /v1/rank.
func (s *Server) Rank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ScopeKey == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "scope_key and query are required")
		return
	}

	ranking, err := s.ranker.Rank(r.Context(), domain.Query{
		ScopeKey:       req.ScopeKey,
		RawText:        req.Query,
		RequestedCount: req.Count,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rankingToPayload(ranking))
}

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	ScopeKey string `json:"scope_key"`
	Question string `json:"question"`
}

// ChatResponse is the body of a chat reply. Results carries the ranking
// the answer was grounded in, even when the answer itself is empty.
type ChatResponse struct {
	Answer  string         `json:"answer"`
	Mode    string         `json:"mode"`
	Results []MatchPayload `json:"results"`
}

// Chat handles POST /v1/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ScopeKey == "" || req.Question == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "scope_key and question are required")
		return
	}

	answer, err := s.chat.Ask(r.Context(), req.ScopeKey, req.Question)
	if err != nil {
		// A dead completion provider still yields a usable ranking.
		if errors.Is(err, domain.ErrCompletionUnavailable) {
			ranking := rankingToPayload(answer.Ranking)
			writeJSON(w, http.StatusBadGateway, ChatResponse{
				Mode:    ranking.Mode,
				Results: ranking.Results,
			})
			return
		}
		s.handleDomainError(w, err)
		return
	}

	ranking := rankingToPayload(answer.Ranking)
	writeJSON(w, http.StatusOK, ChatResponse{
		Answer:  answer.Content,
		Mode:    ranking.Mode,
		Results: ranking.Results,
	})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func rankingToPayload(ranking domain.Ranking) RankResponse {
	results := make([]MatchPayload, len(ranking.Results))
	for i, m := range ranking.Results {
		results[i] = MatchPayload{
			DocumentID:   m.DocumentID,
			Score:        m.Score,
			VectorScore:  m.VectorScore,
			LexicalScore: m.LexicalScore,
		}
	}
	return RankResponse{Mode: string(ranking.Mode), Results: results}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrScopeNotFound,
		domain.ErrDocumentNotFound,
		domain.ErrInvalidDocument,
		domain.ErrMalformedRequest,
		domain.ErrRateLimited,
		domain.ErrEmbeddingUnavailable,
		domain.ErrCompletionUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
