package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/repos"
	"github.com/storyos/storyos-backend/internal/services"
	"github.com/storyos/storyos-backend/internal/types"
)

type ElementHandler struct {
	log            *logger.Logger
	elementService services.ElementService
	impactService  *services.ImpactService
}

func NewElementHandler(log *logger.Logger, elementService services.ElementService, impactService *services.ImpactService) *ElementHandler {
	return &ElementHandler{
		log:            log.With("handler", "ElementHandler"),
		elementService: elementService,
		impactService:  impactService,
	}
}

type createLayerRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index"`
}

func (h *ElementHandler) CreateLayer(c *gin.Context) {
	var req createLayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	layer, err := h.elementService.CreateLayer(c.Request.Context(), req.Name, req.Description, req.OrderIndex)
	if err != nil {
		h.log.Error("CreateLayer failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, layer)
}

func (h *ElementHandler) ListLayers(c *gin.Context) {
	layers, err := h.elementService.ListLayers(c.Request.Context())
	if err != nil {
		h.log.Error("ListLayers failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"layers": layers})
}

type createElementRequest struct {
	LayerID  uuid.UUID      `json:"layer_id" binding:"required"`
	Name     string         `json:"name" binding:"required"`
	Content  string         `json:"content"`
	Metadata datatypes.JSON `json:"metadata"`
}

func (h *ElementHandler) Create(c *gin.Context) {
	var req createElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	element, err := h.elementService.Create(c.Request.Context(), req.LayerID, req.Name, req.Content, req.Metadata)
	if err != nil {
		h.log.Error("Create element failed", "error", err, "name", req.Name)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, element)
}

func (h *ElementHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	element, err := h.elementService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, element)
}

func (h *ElementHandler) List(c *gin.Context) {
	filter := repos.ElementFilter{Name: c.Query("name")}
	if raw := c.Query("layer_id"); raw != "" {
		layerID, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_layer_id", err)
			return
		}
		filter.LayerID = &layerID
	}
	if raw := c.Query("status"); raw != "" {
		status := types.ElementStatus(raw)
		filter.Status = &status
	}
	elements, err := h.elementService.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("List elements failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"elements": elements})
}

type editElementRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *ElementHandler) Edit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req editElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	element, err := h.elementService.Edit(c.Request.Context(), id, req.Content)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, element)
}

type branchElementRequest struct {
	Content string `json:"content"`
}

func (h *ElementHandler) Branch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req branchElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	draft, err := h.elementService.Branch(c.Request.Context(), id, req.Content)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, draft)
}

func (h *ElementHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	element, err := h.elementService.Approve(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, element)
}

func (h *ElementHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.elementService.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (h *ElementHandler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	chain, err := h.elementService.History(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"versions": chain})
}

func (h *ElementHandler) Usage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	report, err := h.impactService.Usage(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, report)
}
