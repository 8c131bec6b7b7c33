package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/plateful-app/plateful/app/controllers"
	"github.com/plateful-app/plateful/internal/pkg/constants"
)

type PublicRouter struct {
}

func (h PublicRouter) InstallRouter(app *fiber.App) {
	app.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"status": "ok"})
	})

	// Stored recipe images, addressed by their object key.
	app.Get(constants.PublicImageRoute+"/:userID/:recipeID/:file", controllers.HandleServeRecipeImage)
}

func NewPublicRouter() *PublicRouter {
	return &PublicRouter{}
}
