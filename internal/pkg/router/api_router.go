package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/plateful-app/plateful/app/controllers"
	"github.com/plateful-app/plateful/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max: 120,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Plateful API",
		})
	})

	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())

	user := v1.Group("/user")
	user.Get("/usage", controllers.HandleGetUserUsage)
	user.Get("/transactions", controllers.HandleGetUserTransactions)

	recipes := v1.Group("/recipes")
	recipes.Post("/", controllers.HandleCreateRecipe)
	recipes.Get("/", controllers.HandleListRecipes)
	recipes.Get("/:id", controllers.HandleGetRecipe)

	images := v1.Group("/images")
	images.Post("/generate", controllers.HandleGenerateImage)
	images.Post("/generate-and-wait", controllers.HandleGenerateAndWait)
	images.Get("/status/:taskID", controllers.HandleImageStatus)
	images.Post("/save", controllers.HandleSaveImage)

	admin := v1.Group("/admin", middleware.RequireAdmin())
	admin.Post("/credits/grant", controllers.HandleAdminGrantCredits)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
