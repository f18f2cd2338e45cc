package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/barisgudul/therapy-backend/internal/clients/openai"
	"github.com/barisgudul/therapy-backend/internal/clients/redis"
	"github.com/barisgudul/therapy-backend/internal/data/db"
	"github.com/barisgudul/therapy-backend/internal/data/repos"
	"github.com/barisgudul/therapy-backend/internal/http/handlers"
	"github.com/barisgudul/therapy-backend/internal/http/middleware"
	"github.com/barisgudul/therapy-backend/internal/observability"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
	"github.com/barisgudul/therapy-backend/internal/server"
	"github.com/barisgudul/therapy-backend/internal/services"
	"github.com/barisgudul/therapy-backend/internal/utils"
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
	serviceName := utils.GetEnv("SERVICE_NAME", "therapy-backend", log)
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "", log)
	if jwtSecretKey == "" {
		log.Fatal("JWT_SECRET_KEY is required")
	}
	port := utils.GetEnv("PORT", "8080", log)
	promptTTLSeconds := utils.GetEnvAsInt("PROMPT_CACHE_TTL_SECONDS", 0, log)
	synthesisCooldownHours := utils.GetEnvAsInt("DNA_SYNTHESIS_COOLDOWN_HOURS", 6, log)

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	traitRepo := repos.NewTraitRepo(thePG, log)
	vaultRepo := repos.NewVaultRepo(thePG, log)
	memoryRepo := repos.NewCognitiveMemoryRepo(thePG, log)
	promptRepo := repos.NewPromptRepo(thePG, log)
	systemLogRepo := repos.NewSystemLogRepo(thePG, log)

	// Prompt registry seed
	if err := services.SeedPrompts(context.Background(), log, promptRepo); err != nil {
		log.Fatal("Prompt seeding failed", "error", err)
	}

	// Clients
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Fatal("Could not init OpenAI client", "error", err)
	}
	cooldown, err := redis.NewCooldown(log)
	if err != nil {
		log.Warn("Redis cooldown unavailable, ingest-triggered synthesis disabled", "error", err)
		cooldown = nil
	} else {
		defer cooldown.Close()
	}

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(log, jwtSecretKey)
	vaultService := services.NewVaultService(log, vaultRepo)
	traitService := services.NewTraitService(log, traitRepo)
	promptCache := services.NewPromptCacheService(log, promptRepo, time.Duration(promptTTLSeconds)*time.Second)
	ingestionService := services.NewMemoryIngestionService(log, memoryRepo, systemLogRepo, promptCache, openaiClient, openaiClient)
	dnaService := services.NewDnaSynthesisService(log, vaultService, traitService, vaultRepo, memoryRepo, promptCache, openaiClient)
	erasureService := services.NewErasureService(thePG, log, traitRepo, memoryRepo, vaultRepo)

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(log, authService)
	memoryHandler := handlers.NewMemoryHandler(log, ingestionService, dnaService, cooldown, time.Duration(synthesisCooldownHours)*time.Hour)
	dnaHandler := handlers.NewDnaHandler(log, dnaService)
	vaultHandler := handlers.NewVaultHandler(log, vaultService, traitService)
	userHandler := handlers.NewUserHandler(log, erasureService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		ServiceName:    serviceName,
		AuthMiddleware: authMiddleware,
		MemoryHandler:  memoryHandler,
		DnaHandler:     dnaHandler,
		VaultHandler:   vaultHandler,
		UserHandler:    userHandler,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
