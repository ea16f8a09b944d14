package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/huddleapp/huddle/internal/adapter"
	"github.com/huddleapp/huddle/internal/adapter/utils"
	"github.com/huddleapp/huddle/internal/api"
	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/jobModel"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
)

// DocsChatHandler godoc
// @Summary      Ask over personal documents
// @Description  Answers synchronously using only the caller's uploaded documents. Follow-up turns reuse the returned chat ID.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        request  body      api.DocsChatRequest  true  "User, question and optional chat ID"
// @Success      200      {object}  api.DocsChatResponse
// @Failure      400      {object}  api.JobResponse
// @Failure      500      {object}  api.JobResponse
// @Router       /docs/chat [post]
func (h *Handler) DocsChatHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	var req api.DocsChatRequest
	if err := decodeJSON(r, &req); err != nil || req.UserID == "" || req.Message == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "user_id and message are required")
		return
	}

	chatID, ok := h.resolveChatID(r, req.ChatID)
	if !ok {
		WriteErrorResponse(w, http.StatusBadRequest, req.ChatID, "unknown chat id")
		return
	}

	history, err := h.chats.GetConversation(r.Context(), chatID, config.ConversationHistoryLimit)
	if err != nil {
		h.logger.Error("loading conversation", "chatId", chatID, "error", err)
	}

	answer, err := h.ragService.AnswerPersonal(r.Context(), req.UserID, req.Message, history)
	if err != nil {
		h.logger.Error("personal docs answer", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, chatID, "answer generation failed")
		return
	}

	turns := []chatModel.ConversationMessage{
		{Role: chatModel.RoleUser, Content: req.Message},
		{Role: chatModel.RoleAssistant, Content: answer.Content},
	}
	if err := h.chats.AppendConversation(r.Context(), chatID, turns); err != nil {
		h.logger.Error("saving conversation turns", "chatId", chatID, "error", err)
	}

	writeJsonResponse(w, http.StatusOK, api.DocsChatResponse{
		Answer:  answer.Content,
		ChatId:  chatID,
		Context: answer.UsedContext,
		Sources: answer.Sources,
	})
}

// PostIngestHandler godoc
// @Summary      Upload a document for ingestion
// @Description  Receives a file via multipart/form-data, stores it, and queues extraction and embedding. Scope with owner_id for personal docs or channel_id for channel attachments.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        document    formData  file    true   "PDF, DOCX, ODT, RTF or TXT file"
// @Param        owner_id    formData  string  false  "Personal scope owner"
// @Param        channel_id  formData  string  false  "Channel scope"
// @Param        sender_id   formData  string  false  "Uploading user in channel scope"
// @Success      202  {object}  api.InitJobResponse
// @Failure      400  {object}  api.JobResponse
// @Failure      404  {object}  api.JobResponse
// @Failure      500  {object}  api.JobResponse
// @Router       /ingest [post]
func (h *Handler) PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	if err := r.ParseMultipartForm(config.MaxUploadSizeBytes); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "file too large or bad request")
		return
	}

	ownerID := r.FormValue("owner_id")
	channelID := r.FormValue("channel_id")
	if (ownerID == "") == (channelID == "") {
		WriteErrorResponse(w, http.StatusBadRequest, "", "exactly one of owner_id or channel_id is required")
		return
	}

	isDM := false
	if channelID != "" {
		ch, err := h.chats.GetChannel(r.Context(), channelID)
		if err != nil {
			if errors.Is(err, ragModel.ErrNotFound) {
				WriteErrorResponse(w, http.StatusNotFound, channelID, "channel not found")
				return
			}
			WriteErrorResponse(w, http.StatusInternalServerError, channelID, "storage error")
			return
		}
		isDM = ch.IsDM
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "could not retrieve file")
		return
	}
	defer fileReader.Close()

	docID := utils.GetNewUUID()
	fileKey := docID + filepath.Ext(fileMetadata.Filename)
	if err := h.objects.Save(r.Context(), fileKey, fileReader); err != nil {
		h.logger.Error("storing upload", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, docID, "storage error")
		return
	}

	doc := chatModel.Document{
		ID:        docID,
		OwnerID:   ownerID,
		ChannelID: channelID,
		SenderID:  r.FormValue("sender_id"),
		IsDM:      isDM,
		Filename:  fileMetadata.Filename,
		FileKey:   fileKey,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.docs.SaveDocument(r.Context(), doc); err != nil {
		h.logger.Error("saving document record", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, docID, "storage error")
		return
	}

	newJob := jobModel.Job{
		Id:          utils.GetNewUUID(),
		TraceId:     traceID(r),
		JobType:     jobModel.JobTypeIngestDocument,
		CurrentStep: jobModel.StepIngestInit,
		JobPayload:  jobModel.JobPayload{DocumentID: docID},
	}
	if err := h.jobs.Enqueue(r.Context(), newJob); err != nil {
		h.logger.Error("enqueueing document ingest", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, docID, "queue error")
		return
	}

	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.Id))
}
