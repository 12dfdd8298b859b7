package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/storyos/storyos-backend/internal/handlers"
)

type RouterConfig struct {
	ElementHandler     *handlers.ElementHandler
	VoiceHandler       *handlers.VoiceHandler
	StoryModelHandler  *handlers.StoryModelHandler
	TemplateHandler    *handlers.TemplateHandler
	DeliverableHandler *handlers.DeliverableHandler
	AllowOrigins       []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Layers
		api.POST("/layers", cfg.ElementHandler.CreateLayer)
		api.GET("/layers", cfg.ElementHandler.ListLayers)

		// Elements
		api.POST("/elements", cfg.ElementHandler.Create)
		api.GET("/elements", cfg.ElementHandler.List)
		api.GET("/elements/:id", cfg.ElementHandler.Get)
		api.PUT("/elements/:id", cfg.ElementHandler.Edit)
		api.POST("/elements/:id/branch", cfg.ElementHandler.Branch)
		api.POST("/elements/:id/approve", cfg.ElementHandler.Approve)
		api.DELETE("/elements/:id", cfg.ElementHandler.Delete)
		api.GET("/elements/:id/history", cfg.ElementHandler.History)
		api.GET("/elements/:id/usage", cfg.ElementHandler.Usage)

		// Voices
		api.POST("/voices", cfg.VoiceHandler.Create)
		api.GET("/voices", cfg.VoiceHandler.List)
		api.GET("/voices/:id", cfg.VoiceHandler.Get)
		api.PUT("/voices/:id", cfg.VoiceHandler.Update)
		api.POST("/voices/:id/approve", cfg.VoiceHandler.Approve)

		// Story models
		api.POST("/story-models", cfg.StoryModelHandler.Create)
		api.GET("/story-models", cfg.StoryModelHandler.List)
		api.GET("/story-models/:id", cfg.StoryModelHandler.Get)

		// Templates and bindings
		api.POST("/templates", cfg.TemplateHandler.Create)
		api.GET("/templates", cfg.TemplateHandler.List)
		api.GET("/templates/:id", cfg.TemplateHandler.Get)
		api.POST("/templates/:id/bindings", cfg.TemplateHandler.CreateBinding)
		api.GET("/templates/:id/bindings", cfg.TemplateHandler.ListBindings)
		api.DELETE("/templates/:id/bindings/:binding_id", cfg.TemplateHandler.DeleteBinding)

		// Deliverables
		api.POST("/deliverables", cfg.DeliverableHandler.Create)
		api.GET("/deliverables", cfg.DeliverableHandler.List)
		api.GET("/deliverables/:id", cfg.DeliverableHandler.Get)
		api.GET("/deliverables/:id/alerts", cfg.DeliverableHandler.GetAlerts)
		api.POST("/deliverables/:id/refresh", cfg.DeliverableHandler.Refresh)
		api.GET("/deliverables/:id/preview", cfg.DeliverableHandler.Preview)
		api.PUT("/deliverables/:id", cfg.DeliverableHandler.Update)
		api.POST("/deliverables/:id/validate", cfg.DeliverableHandler.Validate)
	}

	return router
}
