package routes

import (
	handlers "github.com/Solvro/web-eventownik-v2-sub001/handlers/public"

	"github.com/gofiber/fiber/v2"
)

// registerPublicFormRoutes wires the participant-facing form pages and the
// side endpoints the form page's JavaScript calls.
func registerPublicFormRoutes(app *fiber.App, h *handlers.PublicFormHandler) {
	app.Get("/:eventSlug/forms/:formId", h.ShowForm)
	app.Post("/:eventSlug/forms/:formId", h.SubmitForm)

	app.Put("/:eventSlug/forms/:formId/fields/:attributeId/file", h.UploadFile)
	app.Delete("/:eventSlug/forms/:formId/fields/:attributeId/file", h.DeleteFile)
	app.Put("/:eventSlug/forms/:formId/fields/:attributeId/drawing", h.UpdateDrawing)

	app.Get("/:eventSlug/attributes/:attributeId/blocks", h.GetBlocks)
}
