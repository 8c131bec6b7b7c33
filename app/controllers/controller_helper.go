package controllers

import (
	"errors"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/plateful-app/plateful/app/repository"
	"github.com/plateful-app/plateful/internal/pkg/credits"
	"github.com/plateful-app/plateful/internal/pkg/env"
	"github.com/plateful-app/plateful/internal/pkg/generation"
	"github.com/plateful-app/plateful/internal/pkg/imagegen"
	"github.com/plateful-app/plateful/internal/pkg/storage"
)

var (
	generationMu  sync.Mutex
	generationSvc *generation.Service
)

// creditsService builds the ledger service from the global repositories.
func creditsService() *credits.Service {
	repos := repository.GetGlobalFactory().GetRepositories()
	return credits.NewService(repos.Credits, repos.Setting)
}

// generationService returns the shared orchestration service, wiring it from
// globals on first use. The persister carries its own HTTP client, so it is
// built once and reused across requests. Factory, cache and storage must have
// been set up at boot.
func generationService() *generation.Service {
	generationMu.Lock()
	defer generationMu.Unlock()
	if generationSvc == nil {
		repos := repository.GetGlobalFactory().GetRepositories()
		persister := generation.NewPersister(
			storage.GetClient(),
			repos.RecipeImage,
			env.GetEnv("PUBLIC_BASE_URL", "http://localhost:4000"),
		)
		generationSvc = generation.NewService(creditsService(), persister, repos.Setting)
	}
	return generationSvc
}

// resetGenerationService drops the cached service so the next call rebuilds
// it from the current globals. Used after the factory is re-initialized.
func resetGenerationService() {
	generationMu.Lock()
	generationSvc = nil
	generationMu.Unlock()
}

// respondGenerationError converts the pipeline error taxonomy into JSON
// responses. The split matters to the client: "try again" (timeout,
// provider failure), "contact support" (configuration) and "insufficient
// credits" (actionable) must stay distinguishable.
func respondGenerationError(c *fiber.Ctx, err error) error {
	var configErr *imagegen.ConfigurationError
	var submissionErr *imagegen.SubmissionError
	var downloadErr *generation.DownloadError
	var uploadErr *generation.UploadError

	switch {
	case errors.Is(err, credits.ErrInsufficientCredits):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":   "insufficient_credits",
			"message": "Not enough credits for image generation",
		})
	case errors.Is(err, imagegen.ErrUnknownModel):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": "Unknown image model",
		})
	case errors.As(err, &configErr):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "configuration_error",
			"message": "Image generation is not configured, please contact support",
		})
	case errors.As(err, &submissionErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "submission_failed",
			"message": submissionErr.Error(),
		})
	case errors.Is(err, imagegen.ErrPollTimeout):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error":   "timeout",
			"message": "Image generation timed out, please try again",
		})
	case errors.As(err, &downloadErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "download_failed",
			"message": "Generation succeeded upstream but the result could not be fetched",
		})
	case errors.As(err, &uploadErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "upload_failed",
			"message": "Generation succeeded upstream but the image could not be saved",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "Unexpected error",
		})
	}
}
