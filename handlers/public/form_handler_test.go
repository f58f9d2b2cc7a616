package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Solvro/web-eventownik-v2-sub001/models"
	"github.com/Solvro/web-eventownik-v2-sub001/services"
	"github.com/Solvro/web-eventownik-v2-sub001/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBlockRepo struct {
	blocks []models.PublicBlock
}

func (s *stubBlockRepo) GetAttributeBlocks(context.Context, string, models.AttributeID) ([]models.PublicBlock, error) {
	return s.blocks, nil
}

func newTestApp(t *testing.T, blocks []models.PublicBlock) (*fiber.App, services.IAttachmentService) {
	t.Helper()

	attachments := services.NewAttachmentServiceWith(time.Minute, 10*time.Millisecond)
	t.Cleanup(attachments.Close)
	blockService := services.NewBlockServiceWith(&stubBlockRepo{blocks: blocks}, 5*time.Millisecond)
	t.Cleanup(blockService.Close)

	h := NewPublicFormHandler(nil, attachments, blockService)

	app := fiber.New()
	app.Put("/:eventSlug/forms/:formId/fields/:attributeId/file", h.UploadFile)
	app.Delete("/:eventSlug/forms/:formId/fields/:attributeId/file", h.DeleteFile)
	app.Put("/:eventSlug/forms/:formId/fields/:attributeId/drawing", h.UpdateDrawing)
	app.Get("/:eventSlug/attributes/:attributeId/blocks", h.GetBlocks)
	return app, attachments
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: utils.FormSessionCookie, Value: "test-session"})
	return req
}

func TestUploadAndDeleteFile(t *testing.T) {
	app, attachments := newTestApp(t, nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "cv.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("pdf-bytes"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPut, "/rajd/forms/11/fields/4/file", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(withSession(req))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	att, ok := attachments.Get("test-session", 4)
	require.True(t, ok)
	assert.Equal(t, []byte("pdf-bytes"), att.Data)

	req = httptest.NewRequest(http.MethodDelete, "/rajd/forms/11/fields/4/file", nil)
	resp, err = app.Test(withSession(req))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, ok = attachments.Get("test-session", 4)
	assert.False(t, ok)
}

func TestUploadRejectsBadAttributeID(t *testing.T) {
	app, _ := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodPut, "/rajd/forms/11/fields/abc/file", nil)
	resp, err := app.Test(withSession(req))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateDrawingAcceptsCanvasState(t *testing.T) {
	app, attachments := newTestApp(t, nil)

	payload := `{"width": 100, "height": 100, "strokes": [{"points": [{"x": 1, "y": 1}, {"x": 20, "y": 20}]}]}`
	req := httptest.NewRequest(http.MethodPut, "/rajd/forms/11/fields/4/drawing", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(withSession(req))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	// The response returns before the export; the attachment appears once the
	// debounce window passes.
	require.Eventually(t, func() bool {
		_, ok := attachments.Get("test-session", 4)
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestGetBlocksNegativeSinceAnswersImmediately(t *testing.T) {
	app, _ := newTestApp(t, []models.PublicBlock{{ID: 1, Name: "Sala A"}})

	// A negative version must behave like 0, not wrap around and long-poll
	// for a snapshot that can never exist.
	req := httptest.NewRequest(http.MethodGet, "/rajd/attributes/7/blocks?since=-3", nil)
	resp, err := app.Test(withSession(req), 2000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Version uint64 `json:"version"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, uint64(1), body.Version)
}

func TestGetBlocksLongPoll(t *testing.T) {
	ten := 10
	app, _ := newTestApp(t, []models.PublicBlock{{
		ID: 1, Name: "Sala A", Capacity: &ten,
		Meta: models.BlockMeta{ParticipantsInBlockCount: 3},
	}})

	req := httptest.NewRequest(http.MethodGet, "/rajd/attributes/7/blocks?since=0", nil)
	resp, err := app.Test(withSession(req), 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Version uint64               `json:"version"`
		Blocks  []models.PublicBlock `json:"blocks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, uint64(1), body.Version)
	require.Len(t, body.Blocks, 1)
	assert.Equal(t, 3, body.Blocks[0].Meta.ParticipantsInBlockCount)
}
