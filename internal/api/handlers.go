package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/services"
	"github.com/jakechorley/data-curator/pkg/core/validation"
)

const maxBodyBytes = 10 << 20

var validate = validator.New()

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

// decodeBody reads a JSON body into dst and runs its validate tags
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			// dst is not a struct, nothing to check
			return nil
		}
		return err
	}
	return nil
}

// entityParam reads the {entity} URL parameter, writing a 404 when it names no entity
func (s *Server) entityParam(w http.ResponseWriter, r *http.Request) (model.EntityKind, bool) {
	kind, err := model.ParseEntityKind(chi.URLParam(r, "entity"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "unknown_entity", err.Error())
		return "", false
	}
	return kind, true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Table handlers

func (s *Server) handleGetTables(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.session.Tables())
}

func (s *Server) handlePutTables(w http.ResponseWriter, r *http.Request) {
	var tables model.Tables
	if err := decodeBody(w, r, &tables); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	for _, kind := range model.EntityKinds {
		if tables.Get(kind) == nil {
			tables = tables.With(kind, model.Table{})
		}
	}

	s.session.SetTables(tables)
	s.respondJSON(w, http.StatusOK, services.ValidateTables(tables, s.logger))
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.entityParam(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, s.session.Tables().Get(kind))
}

func (s *Server) handlePutTable(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.entityParam(w, r)
	if !ok {
		return
	}

	var table model.Table
	if err := decodeBody(w, r, &table); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if table == nil {
		table = model.Table{}
	}

	s.session.SetTable(kind, table)
	s.respondJSON(w, http.StatusOK, services.ValidateTables(s.session.Tables(), s.logger))
}

type gridRequest struct {
	Values [][]interface{} `json:"values" validate:"required,min=1"`
}

type gridResponse struct {
	Rows    int                    `json:"rows"`
	Mapping services.HeaderMapping `json:"mapping"`
}

// handleIngestGrid converts a raw header+values range (as pasted or uploaded)
// into the entity table, mapping headers through the collaborator
func (s *Server) handleIngestGrid(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.entityParam(w, r)
	if !ok {
		return
	}

	var req gridRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	table, mapping, err := services.IngestGrid(r.Context(), req.Values, kind, s.assistant, s.logger)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_grid", err.Error())
		return
	}

	s.session.SetTable(kind, table)
	s.respondJSON(w, http.StatusOK, gridResponse{Rows: len(table), Mapping: mapping})
}

// Analysis handlers

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	result := services.ValidateTables(s.session.Tables(), s.logger)

	if raw := r.URL.Query().Get("entity"); raw != "" {
		kind, err := model.ParseEntityKind(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "unknown_entity", err.Error())
			return
		}
		result.Issues = validation.Filter(result.Issues, kind)
	}

	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleAllocations(w http.ResponseWriter, r *http.Request) {
	preview := services.PreviewAllocation(s.session.Tables(), s.session.Store(), s.logger)
	s.respondJSON(w, http.StatusOK, preview)
}

func (s *Server) handlePhases(w http.ResponseWriter, r *http.Request) {
	report, err := services.PhaseReport(s.session.Tables(), s.calendar, s.logger)
	if err != nil {
		s.logger.Error("Failed to build phase report", zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, "phase_calendar", err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}
