/*
handlers.go - HTTP handlers for the archival pipeline

PURPOSE:
  Exposes the pipeline's entry points to the web layer: generate and
  check-and-generate, snapshot reads, the run ledger, and the undo
  snapshot operations (create, list, restore, cleanup).

ERROR MAPPING:
  conflict (snapshot exists)    -> 409
  backup precondition failure   -> 412
  invalid period                -> 400
  snapshot not found            -> 404
  anything else                 -> 500
*/
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diediegodie/tattoo-studio-system/extrato"
)

// Handler carries the pipeline dependencies for all routes.
type Handler struct {
	Store    extrato.Store
	Archiver *extrato.Archiver
	Undo     *extrato.UndoService
}

func NewHandler(store extrato.Store, archiver *extrato.Archiver, undo *extrato.UndoService) *Handler {
	return &Handler{Store: store, Archiver: archiver, Undo: undo}
}

type generateRequest struct {
	Mes   int  `json:"mes"`
	Ano   int  `json:"ano"`
	Force bool `json:"force"`
}

type generateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// GenerateExtrato archives an explicit period.
// POST /api/extratos/generate
func (h *Handler) GenerateExtrato(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, err := h.Archiver.Generate(r.Context(), time.Month(req.Mes), req.Ano, req.Force)
	h.respondGenerate(w, ok, err)
}

// CheckAndGenerate defaults to the previous period and applies the
// idempotency guard.
// POST /api/extratos/check
func (h *Handler) CheckAndGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	ok, err := h.Archiver.CheckAndGenerate(r.Context(), time.Month(req.Mes), req.Ano, req.Force)
	h.respondGenerate(w, ok, err)
}

func (h *Handler) respondGenerate(w http.ResponseWriter, ok bool, err error) {
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, generateResponse{Success: ok})
	case extrato.IsConflict(err):
		respondJSON(w, http.StatusConflict, generateResponse{Success: false, Message: err.Error()})
	case extrato.IsPrecondition(err):
		respondJSON(w, http.StatusPreconditionFailed, generateResponse{Success: false, Message: err.Error()})
	case errors.Is(err, extrato.ErrInvalidPeriod):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[API] Generate failed: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// ListExtratos returns all monthly snapshots, newest first.
// GET /api/extratos
func (h *Handler) ListExtratos(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.Store.ListMonthlySnapshots(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snapshots == nil {
		snapshots = []extrato.MonthlySnapshot{}
	}
	respondJSON(w, http.StatusOK, snapshots)
}

// GetExtrato returns one monthly snapshot.
// GET /api/extratos/{ano}/{mes}
func (h *Handler) GetExtrato(w http.ResponseWriter, r *http.Request) {
	ano, err1 := strconv.Atoi(chi.URLParam(r, "ano"))
	mes, err2 := strconv.Atoi(chi.URLParam(r, "mes"))
	if err1 != nil || err2 != nil {
		respondError(w, http.StatusBadRequest, "invalid period")
		return
	}

	snap, err := h.Store.GetMonthlySnapshot(r.Context(), extrato.Period{Month: time.Month(mes), Year: ano})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if snap == nil {
		respondError(w, http.StatusNotFound, "extrato not found")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// ListRuns returns the run ledger, newest first.
// GET /api/extratos/runs?limit=50
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []extrato.RunLogEntry{}
	}
	respondJSON(w, http.StatusOK, runs)
}

// CreateUndoSnapshot saves a restorable copy of a period's snapshot.
// POST /api/snapshots
func (h *Handler) CreateUndoSnapshot(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := extrato.Period{Month: time.Month(req.Mes), Year: req.Ano}
	snapshotID, err := h.Undo.CreateSnapshot(r.Context(), p, "manual")
	if err != nil {
		if errors.Is(err, extrato.ErrInvalidPeriod) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"snapshot_id": snapshotID})
}

// ListUndoSnapshots lists undo snapshots, optionally filtered.
// GET /api/snapshots?mes=10&ano=2024
func (h *Handler) ListUndoSnapshots(w http.ResponseWriter, r *http.Request) {
	mes, _ := strconv.Atoi(r.URL.Query().Get("mes"))
	ano, _ := strconv.Atoi(r.URL.Query().Get("ano"))

	infos, err := h.Undo.ListSnapshots(r.Context(), time.Month(mes), ano)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if infos == nil {
		infos = []extrato.UndoSnapshotInfo{}
	}
	respondJSON(w, http.StatusOK, infos)
}

// RestoreUndoSnapshot overwrites the period's snapshot from an undo copy.
// Manual operator action, never automatic.
// POST /api/snapshots/{id}/restore
func (h *Handler) RestoreUndoSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshotID := chi.URLParam(r, "id")

	err := h.Undo.RestoreFromSnapshot(r.Context(), snapshotID, "manual")
	if err != nil {
		if extrato.IsNotFound(err) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"restored": true})
}

type cleanupRequest struct {
	RetentionDays int `json:"retention_days"`
}

// CleanupUndoSnapshots prunes undo snapshots past the retention window.
// POST /api/snapshots/cleanup
func (h *Handler) CleanupUndoSnapshots(w http.ResponseWriter, r *http.Request) {
	var req cleanupRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	deleted, err := h.Undo.CleanupOlderThan(r.Context(), req.RetentionDays)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
