package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/plateful-app/plateful/app/models"
	"github.com/plateful-app/plateful/app/repository"
	"github.com/plateful-app/plateful/internal/pkg/storage"
	"github.com/plateful-app/plateful/internal/pkg/usercontext"
)

type createRecipeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HandleCreateRecipe creates a recipe owned by the caller.
func HandleCreateRecipe(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req createRecipeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || len(req.Title) > 255 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "title is required and must be at most 255 characters"})
	}

	recipe := &models.Recipe{
		UserID:      user.UserID,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := repository.GetGlobalFactory().GetRecipeRepository().Create(recipe); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not create recipe"})
	}

	return c.Status(fiber.StatusCreated).JSON(recipe)
}

// HandleListRecipes returns a page of the caller's recipes.
func HandleListRecipes(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	repo := repository.GetGlobalFactory().GetRecipeRepository()
	recipes, err := repo.GetByUserID(user.UserID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not load recipes"})
	}
	total, err := repo.CountByUserID(user.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not load recipes"})
	}

	return c.JSON(fiber.Map{
		"recipes": recipes,
		"total":   total,
		"offset":  offset,
		"limit":   limit,
	})
}

// HandleGetRecipe returns one of the caller's recipes together with its image
// association, when one exists.
func HandleGetRecipe(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid recipe id"})
	}

	recipe, err := ownedRecipe(c, uint(id))
	if err != nil {
		return respondRecipeError(c, err)
	}

	response := fiber.Map{
		"id":          recipe.ID,
		"uuid":        recipe.UUID,
		"title":       recipe.Title,
		"description": recipe.Description,
		"created_at":  recipe.CreatedAt,
	}

	image, err := repository.GetGlobalFactory().GetRecipeImageRepository().GetByRecipeID(recipe.ID)
	if err == nil {
		imageInfo := fiber.Map{
			"image_path":      image.ImagePath,
			"image_model":     image.ImageModel,
			"expires_at":      image.ExpiresAt,
			"expired":         image.Expired(),
			"expires_in_days": image.ExpiresInDays(),
		}
		if store := storage.GetClient(); store != nil {
			imageInfo["public_url"] = store.PublicURL(image.ImagePath)
		}
		response["image"] = imageInfo
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not load recipe image"})
	}

	return c.JSON(response)
}
