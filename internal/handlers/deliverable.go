package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/services"
	"github.com/storyos/storyos-backend/internal/types"
)

type DeliverableHandler struct {
	log                *logger.Logger
	deliverableService services.DeliverableService
}

func NewDeliverableHandler(log *logger.Logger, deliverableService services.DeliverableService) *DeliverableHandler {
	return &DeliverableHandler{
		log:                log.With("handler", "DeliverableHandler"),
		deliverableService: deliverableService,
	}
}

type createDeliverableRequest struct {
	Name         string            `json:"name"`
	TemplateID   uuid.UUID         `json:"template_id" binding:"required"`
	VoiceID      uuid.UUID         `json:"voice_id"`
	StoryModelID uuid.UUID         `json:"story_model_id"`
	InstanceData map[string]string `json:"instance_data"`
}

func (h *DeliverableHandler) Create(c *gin.Context) {
	var req createDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	d, err := h.deliverableService.Create(c.Request.Context(), req.Name, req.TemplateID, req.VoiceID, req.StoryModelID, req.InstanceData)
	if err != nil {
		h.log.Error("Create deliverable failed", "error", err, "template_id", req.TemplateID)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, d)
}

func (h *DeliverableHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	d, err := h.deliverableService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, d)
}

func (h *DeliverableHandler) List(c *gin.Context) {
	var status *types.DeliverableStatus
	if raw := c.Query("status"); raw != "" {
		s := types.DeliverableStatus(raw)
		status = &s
	}
	deliverables, err := h.deliverableService.List(c.Request.Context(), status)
	if err != nil {
		h.log.Error("List deliverables failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deliverables": deliverables})
}

// Alerts are recomputed on every call; nothing here is cached or persisted.
func (h *DeliverableHandler) GetAlerts(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	alerts, err := h.deliverableService.GetAlerts(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"alerts": alerts})
}

func (h *DeliverableHandler) Refresh(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	d, err := h.deliverableService.Refresh(c.Request.Context(), id, force)
	if err != nil {
		h.log.Error("Refresh deliverable failed", "error", err, "deliverable_id", id, "force", force)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, d)
}

func (h *DeliverableHandler) Preview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	result, err := h.deliverableService.Preview(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Preview deliverable failed", "error", err, "deliverable_id", id)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

type updateDeliverableRequest struct {
	VoiceID      *uuid.UUID        `json:"voice_id"`
	TemplateID   *uuid.UUID        `json:"template_id"`
	StoryModelID *uuid.UUID        `json:"story_model_id"`
	InstanceData map[string]string `json:"instance_data"`
}

func (h *DeliverableHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req updateDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	d, err := h.deliverableService.Update(c.Request.Context(), id, services.DeliverableUpdate{
		VoiceID:      req.VoiceID,
		TemplateID:   req.TemplateID,
		StoryModelID: req.StoryModelID,
		InstanceData: req.InstanceData,
	})
	if err != nil {
		h.log.Error("Update deliverable failed", "error", err, "deliverable_id", id)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, d)
}

func (h *DeliverableHandler) Validate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	entries, err := h.deliverableService.Validate(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, entries)
}
