package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/services"
	"github.com/storyos/storyos-backend/internal/types"
)

type StoryModelHandler struct {
	log               *logger.Logger
	storyModelService services.StoryModelService
}

func NewStoryModelHandler(log *logger.Logger, storyModelService services.StoryModelService) *StoryModelHandler {
	return &StoryModelHandler{
		log:               log.With("handler", "StoryModelHandler"),
		storyModelService: storyModelService,
	}
}

func (h *StoryModelHandler) Create(c *gin.Context) {
	var model types.StoryModel
	if err := c.ShouldBindJSON(&model); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	created, err := h.storyModelService.Create(c.Request.Context(), &model)
	if err != nil {
		h.log.Error("Create story model failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, created)
}

func (h *StoryModelHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	model, err := h.storyModelService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, model)
}

func (h *StoryModelHandler) List(c *gin.Context) {
	models, err := h.storyModelService.List(c.Request.Context())
	if err != nil {
		h.log.Error("List story models failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"story_models": models})
}
