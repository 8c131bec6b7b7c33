package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/plateful-app/plateful/internal/pkg/usercontext"
)

// HandleGetUserUsage returns the caller's credit balance and totals,
// lazily creating the balance row on first sight.
func HandleGetUserUsage(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	balance, err := creditsService().GetOrCreate(user.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not load credit balance"})
	}

	return c.JSON(fiber.Map{
		"credits":      balance.Credits,
		"total_earned": balance.TotalEarned,
		"total_spent":  balance.TotalSpent,
		"is_admin":     user.IsAdmin,
	})
}

// HandleGetUserTransactions returns a page of the caller's ledger history.
func HandleGetUserTransactions(c *fiber.Ctx) error {
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

	entries, total, err := creditsService().Transactions(user.UserID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not load transactions"})
	}

	return c.JSON(fiber.Map{
		"transactions": entries,
		"total":        total,
		"offset":       offset,
		"limit":        limit,
	})
}
