package handlers

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Solvro/web-eventownik-v2-sub001/configs/configslog"
	"github.com/Solvro/web-eventownik-v2-sub001/models"
	"github.com/Solvro/web-eventownik-v2-sub001/pkg/drawing"
	"github.com/Solvro/web-eventownik-v2-sub001/services"
	"github.com/Solvro/web-eventownik-v2-sub001/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// blockLongPollTimeout is how long GET blocks waits for a newer snapshot
// before answering with the current one.
const blockLongPollTimeout = 25 * time.Second

// maxUploadSize caps a single attachment upload.
const maxUploadSize = 10 << 20

// PublicFormHandler serves the participant-facing form pages and the side
// endpoints the form's JavaScript talks to (attachments, drawings, live
// occupancy).
type PublicFormHandler struct {
	formService       services.IFormService
	attachmentService services.IAttachmentService
	blockService      services.IBlockService
}

// NewPublicFormHandler creates the handler over explicit services.
func NewPublicFormHandler(
	formService services.IFormService,
	attachmentService services.IAttachmentService,
	blockService services.IBlockService,
) *PublicFormHandler {
	return &PublicFormHandler{
		formService:       formService,
		attachmentService: attachmentService,
		blockService:      blockService,
	}
}

// ShowForm (GET /:eventSlug/forms/:formId) renders the registration form,
// optionally in edit mode when ?participant=<slug> is present.
func (h *PublicFormHandler) ShowForm(c *fiber.Ctx) error {
	eventSlug := c.Params("eventSlug")
	formID, err := c.ParamsInt("formId")
	if err != nil || formID <= 0 {
		return renderNotFound(c)
	}

	form, err := h.formService.GetForm(c.UserContext(), eventSlug, int64(formID))
	if err != nil {
		if errors.Is(err, services.ErrFormNotFound) {
			return renderNotFound(c)
		}
		configslog.Log.Error("ShowForm: form fetch failed", zap.String("event", eventSlug), zap.Error(err))
		return renderServerError(c)
	}

	rendered, err := h.formService.BuildForm(c.UserContext(), services.BuildInput{
		SessionID:       utils.FormSessionID(c),
		EventSlug:       eventSlug,
		Form:            form,
		ParticipantSlug: c.Query("participant"),
	})
	if err != nil {
		if errors.Is(err, services.ErrParticipantNotFound) {
			return renderNotFound(c)
		}
		configslog.Log.Error("ShowForm: build failed", zap.String("event", eventSlug), zap.Error(err))
		return renderServerError(c)
	}

	return c.Render("public/form", fiber.Map{
		"Title":     form.Name,
		"EventSlug": eventSlug,
		"Form":      form,
		"Rendered":  rendered,
	}, "layouts/main")
}

// SubmitForm (POST /:eventSlug/forms/:formId) validates and forwards one
// submission. Validation and server-side field errors re-render the form with
// messages in place; success renders the terminal submitted state.
func (h *PublicFormHandler) SubmitForm(c *fiber.Ctx) error {
	eventSlug := c.Params("eventSlug")
	formID, err := c.ParamsInt("formId")
	if err != nil || formID <= 0 {
		return renderNotFound(c)
	}

	form, err := h.formService.GetForm(c.UserContext(), eventSlug, int64(formID))
	if err != nil {
		if errors.Is(err, services.ErrFormNotFound) {
			return renderNotFound(c)
		}
		return renderServerError(c)
	}

	participantSlug := c.FormValue("participantSlug", c.Query("participant"))
	input := services.BuildInput{
		SessionID:       utils.FormSessionID(c),
		EventSlug:       eventSlug,
		Form:            form,
		ParticipantSlug: participantSlug,
		Values:          parseFormValues(c, form.Attributes),
	}

	outcome, err := h.formService.Submit(c.UserContext(), input)
	if err != nil {
		if errors.Is(err, services.ErrSubmissionInFlight) {
			// The submit control is disabled client-side; reaching this
			// means a double request anyway, so refuse the duplicate.
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		configslog.Log.Error("SubmitForm failed", zap.String("event", eventSlug), zap.Error(err))
		return renderServerError(c)
	}

	if outcome.Success {
		return c.Render("public/form_success", fiber.Map{
			"Title":           form.Name,
			"EventSlug":       eventSlug,
			"Form":            form,
			"EditMode":        participantSlug != "",
			"ParticipantSlug": participantSlug,
		}, "layouts/main")
	}

	input.FieldErrors = outcome.FieldErrors
	input.RootErrors = outcome.RootErrors
	input.Values = outcome.Values
	rendered, err := h.formService.BuildForm(c.UserContext(), input)
	if err != nil {
		configslog.Log.Error("SubmitForm: re-render failed", zap.String("event", eventSlug), zap.Error(err))
		return renderServerError(c)
	}
	return c.Status(fiber.StatusUnprocessableEntity).Render("public/form", fiber.Map{
		"Title":     form.Name,
		"EventSlug": eventSlug,
		"Form":      form,
		"Rendered":  rendered,
	}, "layouts/main")
}

// UploadFile (PUT /:eventSlug/forms/:formId/fields/:attributeId/file) inserts
// or replaces the pending attachment for one attribute.
func (h *PublicFormHandler) UploadFile(c *fiber.Ctx) error {
	attributeID, ok := paramAttributeID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nieprawidłowy identyfikator pola"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "brak pliku w żądaniu"})
	}
	if fileHeader.Size > maxUploadSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "plik jest za duży"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nie udało się odczytać pliku"})
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nie udało się odczytać pliku"})
	}

	h.attachmentService.Put(utils.FormSessionID(c), attributeID, fileHeader.Header.Get("Content-Type"), data)
	return c.JSON(fiber.Map{"success": true})
}

// DeleteFile (DELETE .../file) clears the pending attachment for one
// attribute.
func (h *PublicFormHandler) DeleteFile(c *fiber.Ctx) error {
	attributeID, ok := paramAttributeID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nieprawidłowy identyfikator pola"})
	}
	h.attachmentService.Remove(utils.FormSessionID(c), attributeID)
	return c.JSON(fiber.Map{"success": true})
}

// UpdateDrawing (PUT .../drawing) receives the full canvas state after a
// stroke completion, undo or clear. The export itself runs after the debounce
// window, so the response never waits for rasterization.
func (h *PublicFormHandler) UpdateDrawing(c *fiber.Ctx) error {
	attributeID, ok := paramAttributeID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nieprawidłowy identyfikator pola"})
	}

	var canvas drawing.Canvas
	if err := c.BodyParser(&canvas); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nieprawidłowe dane rysunku"})
	}

	h.attachmentService.UpdateDrawing(utils.FormSessionID(c), attributeID, canvas)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"success": true})
}

// GetBlocks (GET /:eventSlug/attributes/:attributeId/blocks?since=N) is the
// long-poll endpoint the form page uses for live occupancy. It answers as
// soon as a snapshot newer than since exists, or with the current snapshot
// when the wait times out.
func (h *PublicFormHandler) GetBlocks(c *fiber.Ctx) error {
	eventSlug := c.Params("eventSlug")
	attributeID, ok := paramAttributeID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nieprawidłowy identyfikator pola"})
	}
	// A negative since must not wrap into a version no snapshot can ever
	// exceed; treat it like "give me anything".
	since := uint64(0)
	if n := c.QueryInt("since", 0); n > 0 {
		since = uint64(n)
	}

	release := h.blockService.Acquire(eventSlug, attributeID)
	defer release()

	waitCtx, cancel := context.WithTimeout(c.UserContext(), blockLongPollTimeout)
	defer cancel()

	snap, err := h.blockService.Await(waitCtx, eventSlug, attributeID, since)
	if err != nil {
		// Timed out waiting for something newer; the last committed
		// snapshot is still the right answer if there is one.
		if current, ok := h.blockService.Snapshot(eventSlug, attributeID); ok {
			snap = current
		} else {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Nie udało się pobrać danych tego bloku.",
			})
		}
	}
	return c.JSON(fiber.Map{"version": snap.Version, "blocks": snap.Blocks})
}

func paramAttributeID(c *fiber.Ctx) (models.AttributeID, bool) {
	return models.ParseAttributeID(c.Params("attributeId"))
}

// parseFormValues reads the posted body into per-attribute values keyed by
// attribute id. Multiselects keep every checked value in posted order;
// checkboxes resolve the hidden-false/checked-true pair to the last value.
func parseFormValues(c *fiber.Ctx, attrs []models.FormAttribute) map[models.AttributeID]any {
	values := make(map[models.AttributeID]any, len(attrs))

	lookup := func(name string) []string {
		if mf, err := c.MultipartForm(); err == nil && mf != nil {
			return mf.Value[name]
		}
		raw := c.Request().PostArgs().PeekMulti(name)
		out := make([]string, 0, len(raw))
		for _, b := range raw {
			out = append(out, string(b))
		}
		return out
	}

	for _, attr := range attrs {
		if !attr.Type.HasScalarValue() {
			continue
		}
		posted := lookup(attr.ID.String())
		if len(posted) == 0 {
			continue
		}
		switch attr.Type {
		case models.AttributeMultiselect:
			values[attr.ID] = posted
		case models.AttributeCheckbox:
			values[attr.ID] = posted[len(posted)-1]
		default:
			values[attr.ID] = posted[0]
		}
	}
	return values
}

func renderNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("errors/404", fiber.Map{
		"Title": "Nie znaleziono",
	}, "layouts/main")
}

func renderServerError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).Render("errors/500", fiber.Map{
		"Title":   "Błąd serwera",
		"Message": services.MsgServerError,
	}, "layouts/main")
}
