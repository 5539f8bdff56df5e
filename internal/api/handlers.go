package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/deskai/deskai/internal/errors"
	"github.com/deskai/deskai/internal/history"
	"github.com/deskai/deskai/pkg/protocol"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var q protocol.Query
	if err := decode(w, r, &q); err != nil {
		s.writeError(w, "invalid request body", apperrors.CodeInvalidInput, http.StatusBadRequest)
		return
	}

	start := time.Now()
	env, err := s.deps.Router.Route(r.Context(), q)
	failed := err != nil
	if failed {
		env = s.deps.Router.ErrorEnvelope(err)
	}
	elapsed := time.Since(start)

	_, isTool := protocol.ParseToolRoute(env.Route)
	s.deps.Stats.RecordRequest(env.Route, isTool, env.Deterministic, failed, elapsed)
	s.record(r, q, env, err, elapsed)

	s.writeJSON(w, http.StatusOK, env)
}

// record stores the interaction. Failures are logged only.
func (s *Server) record(r *http.Request, q protocol.Query, env protocol.Envelope, routeErr error, elapsed time.Duration) {
	if s.deps.History == nil {
		return
	}
	in := history.Interaction{
		Query:         q.Text,
		ModelHint:     q.ModelHint,
		Route:         env.Route,
		ToolsUsed:     env.ToolsUsed,
		Deterministic: env.Deterministic,
		Result:        env.Result,
		DurationMs:    elapsed.Milliseconds(),
	}
	if routeErr != nil {
		in.Error = apperrors.GetCode(routeErr)
		if in.Error == "" {
			in.Error = apperrors.CodeRoutingFailed
		}
	}
	if _, err := s.deps.History.Record(r.Context(), in); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record interaction")
	}
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Tools.List())
}

func (s *Server) handleRunTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req protocol.ToolRequest
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			s.writeError(w, "invalid request body", apperrors.CodeInvalidInput, http.StatusBadRequest)
			return
		}
	}

	start := time.Now()
	res, err := s.deps.Tools.Execute(r.Context(), name, req.Parameters)
	s.deps.Stats.RecordRequest(protocol.ToolRoute(name), true, true, err != nil, time.Since(start))

	switch {
	case apperrors.Is(err, apperrors.ErrUnknownTool):
		s.writeError(w, apperrors.FormatUserMessage(err), apperrors.GetCode(err), http.StatusNotFound)
	case err != nil:
		s.writeError(w, apperrors.FormatUserMessage(err), codeOf(err, apperrors.CodeToolExecutionFailed), http.StatusUnprocessableEntity)
	default:
		s.writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Catalog.List())
}

func (s *Server) handleAvailableModels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Backend.ListModels(r.Context()))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Backend.CheckStatus(r.Context()))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, "limit must be a positive integer", apperrors.CodeInvalidInput, http.StatusBadRequest)
			return
		}
		limit = n
	}

	if s.deps.History == nil {
		s.writeJSON(w, http.StatusOK, []history.Interaction{})
		return
	}
	items, err := s.deps.History.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("history query failed")
		s.writeError(w, "history unavailable", "", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var (
		size int64
		path string
	)
	if s.deps.History != nil {
		size, path = s.deps.History.Size(), s.deps.History.Path()
	}
	s.writeJSON(w, http.StatusOK, s.deps.Stats.Collect(size, path))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func codeOf(err error, fallback string) string {
	if code := apperrors.GetCode(err); code != "" {
		return code
	}
	return fallback
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug().Err(err).Msg("failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, message, code string, status int) {
	s.writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
