package controllers

import (
	"errors"
	"path"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/plateful-app/plateful/internal/pkg/metrics/counter"
	"github.com/plateful-app/plateful/internal/pkg/storage"
)

// HandleServeRecipeImage streams a stored recipe image by its object key.
// The route is public: image URLs are unguessable (timestamped random token
// in the file name), which is the same protection a public CDN URL has.
func HandleServeRecipeImage(c *fiber.Ctx) error {
	userID := storage.SanitizeKeyPart(c.Params("userID"))
	recipeID := storage.SanitizeKeyPart(c.Params("recipeID"))
	file := storage.SanitizeKeyPart(c.Params("file"))
	if userID == "" || recipeID == "" || file == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid image path"})
	}

	store := storage.GetClient()
	if store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Storage not available"})
	}

	key := userID + "/" + recipeID + "/" + file
	data, err := store.Get(c.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Image not found"})
		}
		log.Errorf("[Storage] Fetch failed for %s: %v", key, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "storage_error", "message": "Could not fetch image"})
	}

	if id, perr := strconv.ParseUint(recipeID, 10, 64); perr == nil {
		if cerr := counter.AddRecipeImageView(uint(id)); cerr != nil {
			log.Debugf("[Storage] View counter for recipe %d failed: %v", id, cerr)
		}
	}

	ext := strings.ToLower(path.Ext(file))
	c.Set(fiber.HeaderContentType, storage.ContentTypeForExt(ext))
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(data)
}
