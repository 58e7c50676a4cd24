package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/contentjoy/content-approval-app-sub001/internal/cache"
	"github.com/contentjoy/content-approval-app-sub001/internal/database/postgres"
	"github.com/contentjoy/content-approval-app-sub001/internal/middleware/requestid"
	platformconfig "github.com/contentjoy/content-approval-app-sub001/internal/platform/config"
	"github.com/contentjoy/content-approval-app-sub001/manifests"
	manifestHandlers "github.com/contentjoy/content-approval-app-sub001/manifests/handlers"
	manifestProvider "github.com/contentjoy/content-approval-app-sub001/manifests/provider"
	manifestRepository "github.com/contentjoy/content-approval-app-sub001/manifests/repository"
	manifestServices "github.com/contentjoy/content-approval-app-sub001/manifests/services"
	"github.com/contentjoy/content-approval-app-sub001/transfers"
	"github.com/contentjoy/content-approval-app-sub001/transfers/drive"
	transferHandlers "github.com/contentjoy/content-approval-app-sub001/transfers/handlers"
	transferServices "github.com/contentjoy/content-approval-app-sub001/transfers/services"
	"github.com/contentjoy/content-approval-app-sub001/uploads"
	uploadHandlers "github.com/contentjoy/content-approval-app-sub001/uploads/handlers"
	uploadRepository "github.com/contentjoy/content-approval-app-sub001/uploads/repository"
	uploadServices "github.com/contentjoy/content-approval-app-sub001/uploads/services"
)

func main() {
	cfg, err := platformconfig.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load platform config: %v", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.Uploads.MaxChunkBytes) * 2,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			// If response already set by handler, don't override it
			if len(c.Response().Body()) > 0 {
				return nil
			}

			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.WebDomain,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))

	ctx := context.Background()
	pgClient, err := postgres.NewClient(ctx, &postgres.Config{
		Host:               cfg.Database.Postgres.Host,
		Port:               cfg.Database.Postgres.Port,
		Username:           cfg.Database.Postgres.Username,
		Password:           cfg.Database.Postgres.Password,
		Database:           cfg.Database.Postgres.Database,
		SSLMode:            cfg.Database.Postgres.SSLMode,
		MaxOpenConnections: cfg.Database.Postgres.MaxOpenConns,
		MaxIdleConnections: cfg.Database.Postgres.MaxIdleConns,
		MaxLifetime:        int(cfg.Database.Postgres.ConnMaxLifetime.Seconds()),
		ConnectTimeout:     10,
	})
	if err != nil {
		log.Fatalf("Failed to create postgres client: %v", err)
	}
	defer pgClient.Close()

	memo, err := cache.New(&cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}
	defer memo.Close()

	chunkRepo := uploadRepository.NewPostgresRepository(pgClient)
	manifestRepo := manifestRepository.NewPostgresRepository(pgClient)

	bridge := drive.NewClient(&cfg.Storage.Drive, &cfg.Uploads)

	blobs, err := manifestProvider.New(&cfg.Storage, bridge)
	if err != nil {
		log.Fatalf("Failed to create storage provider: %v", err)
	}

	chunkService := uploadServices.NewChunkService(chunkRepo, &cfg.Uploads)
	manifestService := manifestServices.NewManifestService(manifestRepo, chunkRepo, blobs)
	transferService := transferServices.NewTransferService(bridge, manifestService, memo, &cfg.Uploads)

	uploads.RegisterRoutes(app, &uploads.UploadHandlers{
		ChunkHandler: uploadHandlers.NewChunkHandler(chunkService),
	}, cfg)
	transfers.RegisterRoutes(app, &transfers.TransferHandlers{
		TransferHandler: transferHandlers.NewTransferHandler(transferService),
	}, cfg)
	manifests.RegisterRoutes(app, &manifests.ManifestHandlers{
		ManifestHandler: manifestHandlers.NewManifestHandler(manifestService),
	}, cfg)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := pgClient.HealthCheck(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting ContentJoy upload server on %s", addr)
	log.Fatal(app.Listen(addr))
}
