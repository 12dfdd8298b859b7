package main

import (
	"context"
	"fmt"
	"os"

	"github.com/storyos/storyos-backend/internal/clients/openai"
	"github.com/storyos/storyos-backend/internal/clients/redis"
	"github.com/storyos/storyos-backend/internal/db"
	"github.com/storyos/storyos-backend/internal/handlers"
	"github.com/storyos/storyos-backend/internal/logger"
	"github.com/storyos/storyos-backend/internal/repos"
	"github.com/storyos/storyos-backend/internal/seed"
	"github.com/storyos/storyos-backend/internal/server"
	"github.com/storyos/storyos-backend/internal/services"
	"github.com/storyos/storyos-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	validationStrict := utils.GetEnvAsBool("VALIDATION_STRICT", false, log)
	seedPath := utils.GetEnv("SEED_FILE", "configs/seed.yaml", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	layerRepo := repos.NewLayerRepo(thePG, log)
	elementRepo := repos.NewElementRepo(thePG, log)
	voiceRepo := repos.NewVoiceRepo(thePG, log)
	storyModelRepo := repos.NewStoryModelRepo(thePG, log)
	templateRepo := repos.NewTemplateRepo(thePG, log)
	bindingRepo := repos.NewSectionBindingRepo(thePG, log)
	deliverableRepo := repos.NewDeliverableRepo(thePG, log)

	// Style filter chain: LLM when configured, rule-based otherwise; the
	// rule filter doubles as the in-render fallback either way.
	log.Info("Setting up Services from main...")
	ruleFilter := services.NewRuleStyleFilter(log)
	var primaryFilter services.StyleFilter = ruleFilter
	var fallbackFilter services.StyleFilter
	if openaiClient, err := openai.NewClient(log); err != nil {
		log.Warn("OpenAI client unavailable, using rule-based style filter only", "error", err)
	} else {
		primaryFilter = services.NewLLMStyleFilter(openaiClient, log)
		fallbackFilter = ruleFilter
	}

	var filterCache redis.FilterCache
	if cache, err := redis.NewFilterCache(log); err != nil {
		log.Warn("Filter cache unavailable, transforms are uncached", "error", err)
	} else {
		filterCache = cache
		defer cache.Close()
	}

	composer := services.NewComposer(log)
	transformer := services.NewTransformer(primaryFilter, fallbackFilter, filterCache, log)
	alertResolver := services.NewAlertResolver(elementRepo, log)
	validator := services.NewValidator(log, validationStrict)

	elementService := services.NewElementService(thePG, elementRepo, layerRepo, log)
	voiceService := services.NewVoiceService(voiceRepo, log)
	storyModelService := services.NewStoryModelService(storyModelRepo, log)
	templateService := services.NewTemplateService(templateRepo, bindingRepo, storyModelRepo, voiceRepo, elementRepo, log)
	impactService := services.NewImpactService(elementRepo, deliverableRepo, log)
	deliverableService := services.NewDeliverableService(
		thePG,
		deliverableRepo,
		templateRepo,
		bindingRepo,
		storyModelRepo,
		voiceRepo,
		elementRepo,
		composer,
		transformer,
		alertResolver,
		validator,
		log,
	)

	// Seed
	if seedFile, err := seed.Load(seedPath); err != nil {
		log.Warn("Seed file not loaded", "path", seedPath, "error", err)
	} else {
		seeder := seed.NewSeeder(layerRepo, voiceRepo, storyModelRepo, templateRepo, log)
		if err := seeder.Apply(context.Background(), seedFile); err != nil {
			log.Error("Seeding failed", "error", err)
			os.Exit(1)
		}
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	elementHandler := handlers.NewElementHandler(log, elementService, impactService)
	voiceHandler := handlers.NewVoiceHandler(log, voiceService)
	storyModelHandler := handlers.NewStoryModelHandler(log, storyModelService)
	templateHandler := handlers.NewTemplateHandler(log, templateService)
	deliverableHandler := handlers.NewDeliverableHandler(log, deliverableService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ElementHandler:     elementHandler,
		VoiceHandler:       voiceHandler,
		StoryModelHandler:  storyModelHandler,
		TemplateHandler:    templateHandler,
		DeliverableHandler: deliverableHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
