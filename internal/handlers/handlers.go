package handlers

import (
	"net/http"

	"github.com/huddleapp/huddle/internal/data/objectstore"
	"github.com/huddleapp/huddle/internal/domain/chatModel"
	"github.com/huddleapp/huddle/internal/domain/jobModel"
	"github.com/huddleapp/huddle/internal/job"
	"github.com/huddleapp/huddle/internal/rag"
	"github.com/huddleapp/huddle/pkg/logging"
)

// Handler carries the HTTP surface's dependencies. One instance is built in
// main and shared by every route.
type Handler struct {
	jobs       *job.Service
	jobStore   jobModel.JobStore
	chats      chatModel.MessageStore
	docs       chatModel.DocumentStore
	objects    objectstore.Store
	ragService rag.Service
	logger     *logging.Logger
}

func New(jobs *job.Service, jobStore jobModel.JobStore, chats chatModel.MessageStore, docs chatModel.DocumentStore, objects objectstore.Store, ragService rag.Service) *Handler {
	return &Handler{
		jobs:       jobs,
		jobStore:   jobStore,
		chats:      chats,
		docs:       docs,
		objects:    objects,
		ragService: ragService,
		logger:     logging.NewLogger("handlers"),
	}
}

// HealthHandler godoc
// @Summary      Health probe
// @Tags         Health
// @Success      200
// @Router       /health [get]
func (h *Handler) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
