package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/pipeline"
)

const maxImportBytes = 64 << 20

// Process handles POST /api/process and the scheduled GET /api/process.
//
//	@Summary		Run a refresh cycle
//	@Description	Gathers notes and activity, runs the analysis and applies it.
//	@Tags			process
//	@Produce		json
//	@Success		200	{object}	ProcessResponse
//	@Failure		400	{object}	ProcessResponse	"analysis not configured"
//	@Failure		409	{object}	ProcessResponse	"a cycle is already running"
//	@Failure		500	{object}	ProcessResponse
//	@Failure		504	{object}	ProcessResponse	"cycle timed out"
//	@Security		BearerAuth
//	@Router			/process [post]
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		writeJSON(w, http.StatusBadRequest, ProcessResponse{Code: pipeline.CodeNotConfigured, Error: "refresh is not configured"})
		return
	}
	res := h.refresher.Run(r.Context())
	if res.OK() {
		stats := res.Stats
		writeJSON(w, http.StatusOK, ProcessResponse{Success: true, RunID: res.RunID, Code: res.Code, Stats: &stats})
		return
	}
	writeJSON(w, processStatus(res.Code), ProcessResponse{Code: res.Code, Error: res.Error()})
}

func processStatus(code pipeline.Code) int {
	switch code {
	case pipeline.CodeNotConfigured:
		return http.StatusBadRequest
	case pipeline.CodeBusy:
		return http.StatusConflict
	case pipeline.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ImportInstagram handles POST /api/import/instagram.
//
//	@Summary		Import saved and liked posts from an Instagram data export
//	@Tags			import
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	ImportResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import/instagram [post]
func (h *Handler) ImportInstagram(w http.ResponseWriter, r *http.Request) {
	if h.importer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("import is not configured"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	stats, err := h.importer.Import(r.Context(), data)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		slog.Error("instagram import failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Success: true, Stats: stats})
}
