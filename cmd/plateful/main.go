package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/plateful-app/plateful/app/repository"
	"github.com/plateful-app/plateful/internal/pkg/background"
	"github.com/plateful-app/plateful/internal/pkg/cache"
	"github.com/plateful-app/plateful/internal/pkg/database"
	"github.com/plateful-app/plateful/internal/pkg/env"
	"github.com/plateful-app/plateful/internal/pkg/metrics/counter"
	"github.com/plateful-app/plateful/internal/pkg/router"
	"github.com/plateful-app/plateful/internal/pkg/storage"
)

func main() {
	app := NewApplication()

	flushCtx, cancelFlush := context.WithCancel(context.Background())
	go counter.StartFlusher(flushCtx, 30*time.Second)

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))

	cancelFlush()
	background.Wait()
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())
	cache.SetupCache()
	if err := storage.Setup(); err != nil {
		log.Fatalf("storage setup failed: %v", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
