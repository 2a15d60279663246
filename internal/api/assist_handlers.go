package api

import (
	"net/http"

	"github.com/jakechorley/data-curator/pkg/collaborator"
	"github.com/jakechorley/data-curator/pkg/core/model"
)

// assistResponse reports a collaborator answer and whether it came from the local fallback.
// Warning carries the primary's failure for display as a transient notice.
type assistResponse struct {
	Value    interface{} `json:"value"`
	FellBack bool        `json:"fellBack"`
	Warning  string      `json:"warning,omitempty"`
}

func newAssistResponse[T any](result collaborator.Result[T]) assistResponse {
	resp := assistResponse{Value: result.Value, FellBack: result.FellBack}
	if result.Err != nil {
		resp.Warning = result.Err.Error()
	}
	return resp
}

type entityRequest struct {
	Entity model.EntityKind `json:"entity" validate:"required,oneof=clients workers tasks"`
}

type headersRequest struct {
	entityRequest
	Headers []string `json:"headers" validate:"required"`
}

type queryRequest struct {
	entityRequest
	Query string `json:"query"`
}

type modifyRequest struct {
	entityRequest
	Command string `json:"command" validate:"required"`
	// Apply stores the modified rows as the new table
	Apply bool `json:"apply"`
}

func (s *Server) handleMapHeaders(w http.ResponseWriter, r *http.Request) {
	var req headersRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result := s.assistant.MapHeaders(r.Context(), req.Headers, req.Entity)
	s.respondJSON(w, http.StatusOK, newAssistResponse(result))
}

func (s *Server) handleQueryData(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	rows := s.session.Tables().Get(req.Entity)
	result := s.assistant.QueryData(r.Context(), req.Query, rows, req.Entity)
	s.respondJSON(w, http.StatusOK, newAssistResponse(result))
}

func (s *Server) handleModifyData(w http.ResponseWriter, r *http.Request) {
	var req modifyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	rows := s.session.Tables().Get(req.Entity)
	result := s.assistant.ModifyData(r.Context(), req.Command, rows)
	if result.Value == nil {
		result.Value = model.Table{}
	}
	if req.Apply {
		s.session.SetTable(req.Entity, result.Value)
	}
	s.respondJSON(w, http.StatusOK, newAssistResponse(result))
}

func (s *Server) handleSuggestCorrections(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	rows := s.session.Tables().Get(req.Entity)
	result := s.assistant.SuggestCorrections(r.Context(), rows, req.Entity)
	s.respondJSON(w, http.StatusOK, newAssistResponse(result))
}

func (s *Server) handleExternalReview(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	rows := s.session.Tables().Get(req.Entity)
	result := s.assistant.ValidateWithExternalModel(r.Context(), rows, req.Entity)
	s.respondJSON(w, http.StatusOK, newAssistResponse(result))
}
