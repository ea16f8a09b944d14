package handlers

import (
	"net/http"

	"github.com/huddleapp/huddle/internal/adapter"
	"github.com/huddleapp/huddle/internal/adapter/utils"
	"github.com/huddleapp/huddle/internal/api"
	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/rag/ingest"
	"github.com/huddleapp/huddle/internal/rag/retrieve"
)

// GetStatusHandler godoc
// @Summary      Get job status
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /status/{id} [get]
func (h *Handler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	result, found := h.jobStore.GetJob(r.Context(), id)
	if id == "" || !found {
		WriteErrorResponse(w, http.StatusNotFound, id, "job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// AdminResetHandler godoc
// @Summary      Drop and recreate the vector index
// @Tags         Admin
// @Produce      json
// @Success      200
// @Failure      500  {object}  api.JobResponse
// @Router       /admin/reset [post]
func (h *Handler) AdminResetHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.ragService.ResetIndex(r.Context()); err != nil {
		h.logger.Error("index reset", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "reset failed")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// AdminQueryHandler godoc
// @Summary      Raw scoped retrieval
// @Description  Runs retrieval without answer generation. Debugging aid.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request  body      api.AdminQueryRequest  true  "Query and scope"
// @Success      200      {array}   api.RetrievalResultResponse
// @Failure      400      {object}  api.JobResponse
// @Router       /admin/query [post]
func (h *Handler) AdminQueryHandler(w http.ResponseWriter, r *http.Request) {
	var req api.AdminQueryRequest
	if err := decodeJSON(r, &req); err != nil || req.Query == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "query is required")
		return
	}

	results, err := h.ragService.RawRetrieve(r.Context(), req.Query, retrieve.Options{
		ChannelID:    req.ChannelID,
		OwnerID:      req.OwnerID,
		Limit:        req.Limit,
		MessagesOnly: req.MessagesOnly,
	})
	if err != nil {
		h.logger.Error("raw retrieval", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "retrieval failed")
		return
	}

	out := make([]api.RetrievalResultResponse, len(results))
	for i, res := range results {
		out[i] = api.RetrievalResultResponse{
			Text:  res.Text,
			Score: res.Score,
			Type:  string(res.Meta.RecordType()),
		}
	}
	writeJsonResponse(w, http.StatusOK, out)
}

// AdminSweepHandler godoc
// @Summary      Re-ingest sources that never finished embedding
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request  body      api.AdminSweepRequest  false  "Kind (messages|documents) and limit"
// @Success      200      {object}  api.SweepResponse
// @Router       /admin/sweep [post]
func (h *Handler) AdminSweepHandler(w http.ResponseWriter, r *http.Request) {
	var req api.AdminSweepRequest
	_ = decodeJSON(r, &req)

	kind := ingest.SweepMessages
	if req.Kind == string(ingest.SweepDocuments) {
		kind = ingest.SweepDocuments
	}
	limit := req.Limit
	if limit <= 0 {
		limit = config.SweepLimit
	}

	report := h.ragService.Sweep(r.Context(), kind, limit)
	writeJsonResponse(w, http.StatusOK, api.SweepResponse{
		Kind:      string(report.Kind),
		Processed: report.Processed,
		Failed:    report.Failed,
	})
}
