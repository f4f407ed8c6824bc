/*
handlers_test.go - HTTP-level tests for the archival routes

Runs the full stack (router, handlers, archiver, sqlite) against
httptest requests and checks status codes and response shapes.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diediegodie/tattoo-studio-system/extrato"
	"github.com/diediegodie/tattoo-studio-system/store/sqlite"
)

func newTestServer(t *testing.T) (http.Handler, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	gate := extrato.NewBackupGate(nil, false)
	undo := extrato.NewUndoService(store, extrato.DefaultUndoRetentionDays)
	resolver := extrato.NewResolver("UTC", extrato.DefaultMinRunDay, store)
	archiver := extrato.NewArchiver(store, gate, undo, resolver, 100)

	return NewRouter(NewHandler(store, archiver, undo)), store
}

func seedPayment(t *testing.T, store *sqlite.Store, date time.Time, amount int64) {
	t.Helper()
	ctx := context.Background()

	artistaID, err := store.InsertArtista(ctx, "Luna")
	require.NoError(t, err)
	_, err = store.InsertPagamento(ctx, extrato.Payment{
		Date: date, Amount: decimal.NewFromInt(amount), Method: "pix", ArtistID: artistaID,
	})
	require.NoError(t, err)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGenerateEndpoint_HappyPath(t *testing.T) {
	// GIVEN: One September payment
	// WHEN: POST /api/extratos/generate
	// THEN: 200, and the extrato is readable afterwards

	router, store := newTestServer(t)
	seedPayment(t, store, time.Date(2025, time.September, 10, 0, 0, 0, 0, time.UTC), 300)

	rec := doJSON(t, router, http.MethodPost, "/api/extratos/generate",
		map[string]any{"mes": 9, "ano": 2025})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	rec = doJSON(t, router, http.MethodGet, "/api/extratos/2025/9", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap struct {
		Mes    int `json:"mes"`
		Totais struct {
			ReceitaTotal string `json:"receita_total"`
		} `json:"totais"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 9, snap.Mes)
	assert.Equal(t, "300", snap.Totais.ReceitaTotal)
}

func TestGenerateEndpoint_DuplicateIsConflict(t *testing.T) {
	router, store := newTestServer(t)
	seedPayment(t, store, time.Date(2025, time.September, 10, 0, 0, 0, 0, time.UTC), 300)

	rec := doJSON(t, router, http.MethodPost, "/api/extratos/generate",
		map[string]any{"mes": 9, "ano": 2025})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/extratos/generate",
		map[string]any{"mes": 9, "ano": 2025})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGenerateEndpoint_InvalidPeriod(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/extratos/generate",
		map[string]any{"mes": 13, "ano": 2025})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateEndpoint_InvalidBody(t *testing.T) {
	router, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/extratos/generate",
		bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetExtrato_NotFound(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/extratos/2020/5", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListExtratosAndRuns(t *testing.T) {
	router, store := newTestServer(t)
	seedPayment(t, store, time.Date(2025, time.September, 10, 0, 0, 0, 0, time.UTC), 300)

	rec := doJSON(t, router, http.MethodPost, "/api/extratos/generate",
		map[string]any{"mes": 9, "ano": 2025})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/extratos", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshots []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshots))
	assert.Len(t, snapshots, 1)

	rec = doJSON(t, router, http.MethodGet, "/api/extratos/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "success", runs[0].Status)
}

func TestUndoSnapshotEndpoints(t *testing.T) {
	// GIVEN: An archived September
	// WHEN: Creating an undo snapshot, listing and restoring it
	// THEN: Each step round-trips through the HTTP layer

	router, store := newTestServer(t)
	seedPayment(t, store, time.Date(2025, time.September, 10, 0, 0, 0, 0, time.UTC), 300)

	rec := doJSON(t, router, http.MethodPost, "/api/extratos/generate",
		map[string]any{"mes": 9, "ano": 2025})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/snapshots",
		map[string]any{"mes": 9, "ano": 2025})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		SnapshotID string `json:"snapshot_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.SnapshotID)

	rec = doJSON(t, router, http.MethodGet, "/api/snapshots?mes=9&ano=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var infos []struct {
		SnapshotID string `json:"snapshot_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, created.SnapshotID, infos[0].SnapshotID)

	rec = doJSON(t, router, http.MethodPost, "/api/snapshots/"+created.SnapshotID+"/restore", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRestoreEndpoint_UnknownID(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/snapshots/no-such-id/restore", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCleanupEndpoint(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/snapshots/cleanup",
		map[string]any{"retention_days": 30})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Deleted)
}

func TestHealthz(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
