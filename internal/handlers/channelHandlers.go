package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/huddleapp/huddle/internal/adapter"
	"github.com/huddleapp/huddle/internal/adapter/utils"
	"github.com/huddleapp/huddle/internal/api"
	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/jobModel"
	"github.com/huddleapp/huddle/internal/domain/ragModel"
)

// CreateChannelHandler godoc
// @Summary      Create a channel
// @Description  Creates a named channel or DM container for messages.
// @Tags         Channels
// @Accept       json
// @Produce      json
// @Param        request  body      api.CreateChannelRequest  true  "Channel name and DM flag"
// @Success      201      {object}  api.ChannelResponse
// @Failure      400      {object}  api.JobResponse
// @Router       /channels [post]
func (h *Handler) CreateChannelHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	var req api.CreateChannelRequest
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "channel name is required")
		return
	}

	ch := chatModel.Channel{
		ID:        utils.GetNewUUID(),
		Name:      req.Name,
		IsDM:      req.IsDM,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.chats.SaveChannel(r.Context(), ch); err != nil {
		h.logger.Error("saving channel", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "storage error")
		return
	}

	writeJsonResponse(w, http.StatusCreated, api.ChannelResponse{
		Id:        ch.ID,
		Name:      ch.Name,
		IsDM:      ch.IsDM,
		CreatedAt: ch.CreatedAt,
	})
}

// PostMessageHandler godoc
// @Summary      Post a message to a channel
// @Description  Persists the message and queues it for embedding so the channel bot can retrieve it later.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        channelId  path      string                  true  "Channel ID"
// @Param        request    body      api.PostMessageRequest  true  "Sender and message body"
// @Success      202        {object}  api.MessageResponse
// @Failure      400        {object}  api.JobResponse
// @Failure      404        {object}  api.JobResponse
// @Router       /channels/{channelId}/messages [post]
func (h *Handler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	channelID := utils.GetChiURLParam(r, "channelId")
	if _, err := h.chats.GetChannel(r.Context(), channelID); err != nil {
		if errors.Is(err, ragModel.ErrNotFound) {
			WriteErrorResponse(w, http.StatusNotFound, channelID, "channel not found")
			return
		}
		WriteErrorResponse(w, http.StatusInternalServerError, channelID, "storage error")
		return
	}

	var req api.PostMessageRequest
	if err := decodeJSON(r, &req); err != nil || req.SenderID == "" || req.Body == "" {
		WriteErrorResponse(w, http.StatusBadRequest, channelID, "sender_id and body are required")
		return
	}

	msg := chatModel.Message{
		ID:        utils.GetNewUUID(),
		ChannelID: channelID,
		SenderID:  req.SenderID,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.chats.SaveMessage(r.Context(), msg); err != nil {
		h.logger.Error("saving message", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, channelID, "storage error")
		return
	}

	newJob := jobModel.Job{
		Id:          utils.GetNewUUID(),
		TraceId:     traceID(r),
		JobType:     jobModel.JobTypeIngestMessage,
		CurrentStep: jobModel.StepIngestInit,
		JobPayload:  jobModel.JobPayload{MessageID: msg.ID, ChannelID: channelID},
	}
	if err := h.jobs.Enqueue(r.Context(), newJob); err != nil {
		h.logger.Error("enqueueing message ingest", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, msg.ID, "queue error")
		return
	}

	writeJsonResponse(w, http.StatusAccepted, api.MessageResponse{
		Id:        msg.ID,
		ChannelId: channelID,
		JobId:     newJob.Id,
	})
}

// ChannelChatHandler godoc
// @Summary      Ask the channel bot
// @Description  Starts an asynchronous retrieval-augmented answer over the channel's messages and attachments. Returns a job ID to poll.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        channelId  path      string           true  "Channel ID"
// @Param        request    body      api.ChatRequest  true  "Question and optional chat ID for follow-ups"
// @Success      202        {object}  api.InitJobResponse
// @Failure      400        {object}  api.JobResponse
// @Failure      404        {object}  api.JobResponse
// @Router       /channels/{channelId}/chat [post]
func (h *Handler) ChannelChatHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	channelID := utils.GetChiURLParam(r, "channelId")
	if _, err := h.chats.GetChannel(r.Context(), channelID); err != nil {
		if errors.Is(err, ragModel.ErrNotFound) {
			WriteErrorResponse(w, http.StatusNotFound, channelID, "channel not found")
			return
		}
		WriteErrorResponse(w, http.StatusInternalServerError, channelID, "storage error")
		return
	}

	var req api.ChatRequest
	if err := decodeJSON(r, &req); err != nil || req.Message == "" {
		WriteErrorResponse(w, http.StatusBadRequest, channelID, "message is required")
		return
	}

	chatID, ok := h.resolveChatID(r, req.ChatID)
	if !ok {
		WriteErrorResponse(w, http.StatusBadRequest, req.ChatID, "unknown chat id")
		return
	}

	newJob := jobModel.Job{
		Id:          utils.GetNewUUID(),
		ChatId:      chatID,
		TraceId:     traceID(r),
		JobType:     jobModel.JobTypeChat,
		CurrentStep: jobModel.StepInit,
		JobPayload: jobModel.JobPayload{
			Question:  req.Message,
			ChannelID: channelID,
		},
	}
	if err := h.jobs.Enqueue(r.Context(), newJob); err != nil {
		h.logger.Error("enqueueing chat job", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, chatID, "queue error")
		return
	}

	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.Id))
}

// resolveChatID validates a caller-supplied chat id or mints a fresh one
// with an initialized conversation.
func (h *Handler) resolveChatID(r *http.Request, chatID string) (string, bool) {
	if chatID != "" {
		return chatID, h.chats.HasConversation(r.Context(), chatID)
	}
	chatID = utils.GetNewUUID()
	if err := h.chats.InitConversation(r.Context(), chatID); err != nil {
		h.logger.Error("initializing conversation", "chatId", chatID, "error", err)
		return "", false
	}
	return chatID, true
}

func traceID(r *http.Request) string {
	if trace, ok := r.Context().Value(config.TraceIDKey).(string); ok {
		return trace
	}
	return ""
}
