package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/services"
	"github.com/storyos/storyos-backend/internal/types"
)

type TemplateHandler struct {
	log             *logger.Logger
	templateService services.TemplateService
}

func NewTemplateHandler(log *logger.Logger, templateService services.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		log:             log.With("handler", "TemplateHandler"),
		templateService: templateService,
	}
}

func (h *TemplateHandler) Create(c *gin.Context) {
	var tmpl types.Template
	if err := c.ShouldBindJSON(&tmpl); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	created, err := h.templateService.Create(c.Request.Context(), &tmpl)
	if err != nil {
		h.log.Error("Create template failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, created)
}

func (h *TemplateHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	tmpl, err := h.templateService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, tmpl)
}

func (h *TemplateHandler) List(c *gin.Context) {
	if raw := c.Query("story_model_id"); raw != "" {
		storyModelID, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_story_model_id", err)
			return
		}
		templates, err := h.templateService.ListByStoryModel(c.Request.Context(), storyModelID)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, gin.H{"templates": templates})
		return
	}
	templates, err := h.templateService.List(c.Request.Context())
	if err != nil {
		h.log.Error("List templates failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"templates": templates})
}

type createBindingRequest struct {
	SectionName string             `json:"section_name" binding:"required"`
	ElementIDs  []uuid.UUID        `json:"element_ids"`
	Rules       *types.BindingRule `json:"rules"`
}

func (h *TemplateHandler) CreateBinding(c *gin.Context) {
	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req createBindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	binding, err := h.templateService.CreateBinding(c.Request.Context(), templateID, req.SectionName, req.ElementIDs, req.Rules)
	if err != nil {
		h.log.Error("Create binding failed", "error", err, "template_id", templateID, "section", req.SectionName)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, binding)
}

func (h *TemplateHandler) ListBindings(c *gin.Context) {
	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	bindings, err := h.templateService.ListBindings(c.Request.Context(), templateID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"bindings": bindings})
}

func (h *TemplateHandler) DeleteBinding(c *gin.Context) {
	bindingID, err := uuid.Parse(c.Param("binding_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.templateService.DeleteBinding(c.Request.Context(), bindingID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
