package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/plateful-app/plateful/app/models"
	"github.com/plateful-app/plateful/app/repository"
	"github.com/plateful-app/plateful/internal/pkg/generation"
	"github.com/plateful-app/plateful/internal/pkg/imagegen"
	"github.com/plateful-app/plateful/internal/pkg/usercontext"
)

// errRecipeNotOwned marks a recipe that exists but belongs to another user.
// Callers respond with the same 404 as a missing recipe so ownership checks
// never leak existence.
var errRecipeNotOwned = errors.New("recipe not owned by caller")

type generateImageRequest struct {
	RecipeID       uint   `json:"recipe_id"`
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	Style          string `json:"style"`
	Size           string `json:"size"`
	Count          int    `json:"count"`
}

// ownedRecipe loads a recipe and verifies the caller owns it. It never
// writes to the response; callers map the error via respondRecipeError.
func ownedRecipe(c *fiber.Ctx, recipeID uint) (*models.Recipe, error) {
	user := usercontext.GetUserContext(c)
	recipe, err := repository.GetGlobalFactory().GetRecipeRepository().GetByID(recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.UserID != user.UserID {
		return nil, errRecipeNotOwned
	}
	return recipe, nil
}

// respondRecipeError turns an ownedRecipe failure into the JSON response.
func respondRecipeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, errRecipeNotOwned) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "recipe not found"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not load recipe"})
}

// HandleGenerateImage gates on credits, submits the generation job and
// returns the provider task id for client-side polling.
func HandleGenerateImage(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req generateImageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "prompt is required"})
	}
	if req.Model == "" {
		req.Model = imagegen.ModelFlux
	}

	result, err := generationService().Generate(c.Context(), generation.GenerateRequest{
		UserID:         user.UserID,
		IsAdmin:        user.IsAdmin,
		Model:          req.Model,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Style:          req.Style,
		Size:           req.Size,
		Count:          req.Count,
	})
	if err != nil {
		return respondGenerationError(c, err)
	}

	return c.JSON(result)
}

// HandleImageStatus proxies a status poll to the provider, serving cached
// terminal states without a provider round trip.
func HandleImageStatus(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	taskID := c.Params("taskID")
	if taskID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "task id missing"})
	}
	model := c.Query("model", imagegen.ModelFlux)

	if cached, err := imagegen.GetTaskStatus(taskID); err == nil && cached.Status.Terminal() {
		return c.JSON(cached)
	}

	task, err := generationService().Status(c.Context(), model, taskID)
	if err != nil {
		return respondGenerationError(c, err)
	}
	return c.JSON(task)
}

type saveImageRequest struct {
	RecipeID  uint   `json:"recipe_id"`
	SourceURL string `json:"source_url"`
	Model     string `json:"model"`
}

// HandleSaveImage re-hosts a succeeded generation result for a recipe the
// caller owns and returns the public URL plus the advisory expiry.
func HandleSaveImage(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req saveImageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.RecipeID == 0 || req.SourceURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "recipe_id and source_url are required"})
	}
	if req.Model == "" {
		req.Model = imagegen.ModelFlux
	}

	recipe, err := ownedRecipe(c, req.RecipeID)
	if err != nil {
		return respondRecipeError(c, err)
	}

	result, err := generationService().Persist(c.Context(), req.SourceURL, user.UserID, recipe.ID, req.Model)
	if err != nil {
		return respondGenerationError(c, err)
	}
	return c.JSON(result)
}

// HandleGenerateAndWait runs the full pipeline server-side: gate, submit,
// poll to a terminal state and persist. Intended for callers that prefer one
// long request over client-side polling.
func HandleGenerateAndWait(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req generateImageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.Prompt == "" || req.RecipeID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "prompt and recipe_id are required"})
	}
	if req.Model == "" {
		req.Model = imagegen.ModelFlux
	}

	recipe, err := ownedRecipe(c, req.RecipeID)
	if err != nil {
		return respondRecipeError(c, err)
	}

	genReq := generation.GenerateRequest{
		UserID:         user.UserID,
		IsAdmin:        user.IsAdmin,
		Model:          req.Model,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Style:          req.Style,
		Size:           req.Size,
		Count:          req.Count,
	}

	svc := generationService()
	submitted, err := svc.Generate(c.Context(), genReq)
	if err != nil {
		return respondGenerationError(c, err)
	}

	task, persisted, err := svc.Await(c.Context(), genReq, recipe.ID, submitted.TaskID)
	if err != nil {
		return respondGenerationError(c, err)
	}
	if task.Status != imagegen.StatusSucceeded {
		// Provider-side failure: credits spent at submission remain spent.
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "generation_failed",
			"message": task.Error,
			"task_id": task.TaskID,
			"status":  task.Status,
		})
	}

	return c.JSON(fiber.Map{
		"task_id":    task.TaskID,
		"status":     task.Status,
		"image_path": persisted.ImagePath,
		"public_url": persisted.PublicURL,
		"expires_at": persisted.ExpiresAt,
		"cost":       submitted.Cost,
		"balance":    submitted.Balance,
	})
}
