package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/services"
	"github.com/storyos/storyos-backend/internal/types"
)

type VoiceHandler struct {
	log          *logger.Logger
	voiceService services.VoiceService
}

func NewVoiceHandler(log *logger.Logger, voiceService services.VoiceService) *VoiceHandler {
	return &VoiceHandler{
		log:          log.With("handler", "VoiceHandler"),
		voiceService: voiceService,
	}
}

func (h *VoiceHandler) Create(c *gin.Context) {
	var voice types.Voice
	if err := c.ShouldBindJSON(&voice); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	created, err := h.voiceService.Create(c.Request.Context(), &voice)
	if err != nil {
		h.log.Error("Create voice failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, created)
}

func (h *VoiceHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	voice, err := h.voiceService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, voice)
}

func (h *VoiceHandler) List(c *gin.Context) {
	voices, err := h.voiceService.List(c.Request.Context())
	if err != nil {
		h.log.Error("List voices failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"voices": voices})
}

func (h *VoiceHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var voice types.Voice
	if err := c.ShouldBindJSON(&voice); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	voice.ID = id
	updated, err := h.voiceService.Update(c.Request.Context(), &voice)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, updated)
}

func (h *VoiceHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	voice, err := h.voiceService.Approve(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, voice)
}
