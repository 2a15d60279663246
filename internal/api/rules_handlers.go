package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/pkg/collaborator"
	"github.com/jakechorley/data-curator/pkg/core/allocator"
	"github.com/jakechorley/data-curator/pkg/core/rules"
	"github.com/jakechorley/data-curator/pkg/export"
)

// Rule handlers

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.session.Store().ListRules())
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var rule rules.Rule
	if err := decodeBody(w, r, &rule); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_rule", err.Error())
		return
	}

	store, _ := s.session.UpdateStore(func(st rules.Store) (rules.Store, error) {
		return st.AddRule(rule), nil
	})

	added := store.ListRules()
	s.logger.Info("Rule added", zap.String("type", string(rule.Type)), zap.Int("rules", len(added)))
	s.respondJSON(w, http.StatusCreated, added[len(added)-1])
}

func (s *Server) handleRemoveRule(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_index", "rule index must be an integer")
		return
	}

	store, err := s.session.UpdateStore(func(st rules.Store) (rules.Store, error) {
		return st.RemoveRule(index)
	})
	if err != nil {
		if errors.Is(err, rules.ErrIndexOutOfRange) {
			s.respondError(w, http.StatusNotFound, "rule_not_found", err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, store.ListRules())
}

type parseRuleRequest struct {
	Text string `json:"text" validate:"required"`
}

// handleParseRule turns free text into a rule without storing it
func (s *Server) handleParseRule(w http.ResponseWriter, r *http.Request) {
	var req parseRuleRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	rc := collaborator.NewRuleContext(s.session.Tables())
	s.respondJSON(w, http.StatusOK, newAssistResponse(s.assistant.ParseRule(r.Context(), req.Text, rc)))
}

func (s *Server) handleRecommendRules(w http.ResponseWriter, r *http.Request) {
	result := s.assistant.RecommendRules(r.Context(), s.session.Tables())
	s.respondJSON(w, http.StatusOK, newAssistResponse(result))
}

// Weight handlers

func (s *Server) handleGetWeights(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.session.Store().CurrentWeights())
}

type setWeightRequest struct {
	Value *float64 `json:"value" validate:"required"`
}

func (s *Server) handleSetWeight(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req setWeightRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	store, err := s.session.UpdateStore(func(st rules.Store) (rules.Store, error) {
		return st.SetWeight(key, *req.Value)
	})
	switch {
	case errors.Is(err, allocator.ErrUnknownWeight):
		s.respondError(w, http.StatusNotFound, "unknown_weight", err.Error())
		return
	case errors.Is(err, allocator.ErrNegativeWeight), errors.Is(err, allocator.ErrInvalidWeight):
		s.respondError(w, http.StatusBadRequest, "invalid_weight", err.Error())
		return
	case err != nil:
		s.respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	s.logger.Info("Weight updated", zap.String("key", key), zap.Float64("value", *req.Value))
	s.respondJSON(w, http.StatusOK, store.CurrentWeights())
}

// Export handlers. These write the exact export format, without the response envelope.

func (s *Server) handleExportConfig(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.ExportConfig(&buf, s.session.Store()); err != nil {
		s.respondError(w, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="rules.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleImportConfig(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	imported, err := export.ImportConfig(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_config", err.Error())
		return
	}

	store, _ := s.session.UpdateStore(func(rules.Store) (rules.Store, error) {
		return imported, nil
	})

	s.logger.Info("Configuration imported", zap.Int("rules", len(store.ListRules())))
	s.respondJSON(w, http.StatusOK, store.Config())
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.entityParam(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, kind, s.session.Tables().Get(kind)); err != nil {
		s.respondError(w, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+string(kind)+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
