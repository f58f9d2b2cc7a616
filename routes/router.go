package routes

import (
	handlers "github.com/Solvro/web-eventownik-v2-sub001/handlers/public"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	recoverMiddleware "github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupRoutes registers the global middleware and all application routes.
func SetupRoutes(app *fiber.App, formHandler *handlers.PublicFormHandler) {
	app.Use(recoverMiddleware.New())
	app.Use(logger.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	registerPublicFormRoutes(app, formHandler)

	// Catches everything unmatched; must stay last.
	app.Use(notFoundHandler)
}

func notFoundHandler(c *fiber.Ctx) error {
	accepts := c.Accepts("application/json", "text/html")
	switch accepts {
	case "application/json":
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Zasób nie został znaleziony"})
	default:
		return c.Status(fiber.StatusNotFound).Render("errors/404", fiber.Map{"Title": "Nie znaleziono"}, "layouts/main")
	}
}
