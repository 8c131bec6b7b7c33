package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/plateful-app/plateful/app/models"
	"github.com/plateful-app/plateful/internal/pkg/credits"
)

type grantCreditsRequest struct {
	UserID      uint   `json:"user_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// HandleAdminGrantCredits adds credits to a user's balance with an
// admin_grant ledger entry. Admin role is enforced by the router middleware.
func HandleAdminGrantCredits(c *fiber.Ctx) error {
	var req grantCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.UserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "user_id is required"})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "amount must be positive"})
	}

	description := req.Description
	if description == "" {
		description = "Credits granted by administrator"
	}

	balance, err := creditsService().Earn(req.UserID, req.Amount, models.TransactionReasonAdminGrant, description)
	if err != nil {
		if errors.Is(err, credits.ErrInvalidAmount) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "amount must be positive"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not grant credits"})
	}

	return c.JSON(fiber.Map{
		"user_id": req.UserID,
		"credits": balance.Credits,
		"granted": req.Amount,
	})
}
