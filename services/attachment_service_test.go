package services

import (
	"testing"
	"time"

	"github.com/Solvro/web-eventownik-v2-sub001/models"
	"github.com/Solvro/web-eventownik-v2-sub001/pkg/drawing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 20 * time.Millisecond

func newTestAttachments(t *testing.T) IAttachmentService {
	t.Helper()
	s := NewAttachmentServiceWith(time.Minute, testDebounce)
	t.Cleanup(s.Close)
	return s
}

func strokeAt(x, y float64) drawing.Stroke {
	return drawing.Stroke{Points: []drawing.Point{{X: x, Y: y}, {X: x + 10, Y: y + 10}}}
}

func testCanvas() drawing.Canvas {
	return drawing.Canvas{Width: 100, Height: 100, Strokes: []drawing.Stroke{strokeAt(10, 10)}}
}

func TestPutReplacesExistingAttachment(t *testing.T) {
	s := newTestAttachments(t)

	s.Put("sess", 5, "application/pdf", []byte("first"))
	s.Put("sess", 5, "image/png", []byte("second"))

	list := s.List("sess")
	require.Len(t, list, 1)
	assert.Equal(t, models.AttributeID(5), list[0].AttributeID)
	assert.Equal(t, "5", list[0].FileName)
	assert.Equal(t, "image/png", list[0].ContentType)
	assert.Equal(t, []byte("second"), list[0].Data)
}

func TestListIsSortedAndScopedPerSession(t *testing.T) {
	s := newTestAttachments(t)

	s.Put("a", 9, "text/plain", []byte("x"))
	s.Put("a", 3, "text/plain", []byte("y"))
	s.Put("b", 1, "text/plain", []byte("z"))

	list := s.List("a")
	require.Len(t, list, 2)
	assert.Equal(t, models.AttributeID(3), list[0].AttributeID)
	assert.Equal(t, models.AttributeID(9), list[1].AttributeID)

	require.Len(t, s.List("b"), 1)
	assert.Nil(t, s.List("unknown"))
}

func TestRemoveAndClear(t *testing.T) {
	s := newTestAttachments(t)

	s.Put("sess", 1, "text/plain", []byte("x"))
	s.Put("sess", 2, "text/plain", []byte("y"))

	s.Remove("sess", 1)
	require.Len(t, s.List("sess"), 1)

	s.Clear("sess")
	assert.Empty(t, s.List("sess"))
}

func TestDrawingExportsAfterQuietWindow(t *testing.T) {
	s := newTestAttachments(t)

	s.UpdateDrawing("sess", 7, drawing.Canvas{Width: 100, Height: 100, Strokes: []drawing.Stroke{strokeAt(10, 10)}})

	// Nothing is exported synchronously.
	_, ok := s.Get("sess", 7)
	assert.False(t, ok)

	require.Eventually(t, func() bool {
		_, ok := s.Get("sess", 7)
		return ok
	}, time.Second, 5*time.Millisecond)

	att, _ := s.Get("sess", 7)
	assert.Equal(t, "7", att.FileName)
	assert.Equal(t, "image/png", att.ContentType)
	assert.NotEmpty(t, att.Data)
}

func TestDrawingUpdatesCoalesceToNewestState(t *testing.T) {
	s := newTestAttachments(t)

	one := drawing.Canvas{Width: 100, Height: 100, Strokes: []drawing.Stroke{strokeAt(10, 10)}}
	two := drawing.Canvas{Width: 100, Height: 100, Strokes: []drawing.Stroke{strokeAt(10, 10), strokeAt(40, 40)}}

	s.UpdateDrawing("sess", 7, one)
	s.UpdateDrawing("sess", 7, two)

	require.Eventually(t, func() bool {
		_, ok := s.Get("sess", 7)
		return ok
	}, time.Second, 5*time.Millisecond)

	first, _ := s.Get("sess", 7)

	// The export reflects the two-stroke state; re-rendering it yields the
	// same bytes.
	want, err := drawing.Render(two)
	require.NoError(t, err)
	assert.Equal(t, want, first.Data)
}

func TestEmptyDrawingRemovesPendingAttachment(t *testing.T) {
	s := newTestAttachments(t)

	s.UpdateDrawing("sess", 7, drawing.Canvas{Width: 100, Height: 100, Strokes: []drawing.Stroke{strokeAt(10, 10)}})
	require.Eventually(t, func() bool {
		_, ok := s.Get("sess", 7)
		return ok
	}, time.Second, 5*time.Millisecond)

	// Clearing the canvas (undo of the only stroke) withdraws the export.
	s.UpdateDrawing("sess", 7, drawing.Canvas{Width: 100, Height: 100})
	require.Eventually(t, func() bool {
		_, ok := s.Get("sess", 7)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestClearInvalidatesRunningDrawingExport(t *testing.T) {
	// Near-instant debounce plus a canvas large enough that rasterization is
	// still running when Clear lands.
	s := NewAttachmentServiceWith(time.Minute, time.Millisecond)
	t.Cleanup(s.Close)

	big := drawing.Canvas{
		Width:  4000,
		Height: 4000,
		Strokes: []drawing.Stroke{
			{Points: []drawing.Point{{X: 1, Y: 1}, {X: 3999, Y: 3999}, {X: 1, Y: 3999}, {X: 3999, Y: 1}}},
		},
	}
	s.UpdateDrawing("sess", 7, big)
	time.Sleep(30 * time.Millisecond)

	// Submission succeeded; everything pending is dropped, including the
	// export currently in the rasterizer.
	s.Clear("sess")

	assert.Never(t, func() bool {
		_, ok := s.Get("sess", 7)
		return ok
	}, 2*time.Second, 25*time.Millisecond)
}

func TestFailedExportLeavesFieldError(t *testing.T) {
	s := newTestAttachments(t)

	oversized := drawing.Canvas{
		Width:   drawing.MaxDimension + 1,
		Height:  100,
		Strokes: []drawing.Stroke{strokeAt(10, 10)},
	}
	s.UpdateDrawing("sess", 7, oversized)

	require.Eventually(t, func() bool {
		_, ok := s.FieldError("sess", 7)
		return ok
	}, time.Second, 5*time.Millisecond)

	msg, _ := s.FieldError("sess", 7)
	assert.Equal(t, MsgDrawingExportFailed, msg)

	// The failure never produced an attachment.
	_, ok := s.Get("sess", 7)
	assert.False(t, ok)
}

func TestSuccessfulExportClearsFieldError(t *testing.T) {
	s := newTestAttachments(t)

	s.UpdateDrawing("sess", 7, drawing.Canvas{
		Width:   drawing.MaxDimension + 1,
		Height:  100,
		Strokes: []drawing.Stroke{strokeAt(10, 10)},
	})
	require.Eventually(t, func() bool {
		_, ok := s.FieldError("sess", 7)
		return ok
	}, time.Second, 5*time.Millisecond)

	s.UpdateDrawing("sess", 7, drawing.Canvas{Width: 100, Height: 100, Strokes: []drawing.Stroke{strokeAt(10, 10)}})
	require.Eventually(t, func() bool {
		_, ok := s.Get("sess", 7)
		return ok
	}, time.Second, 5*time.Millisecond)

	_, ok := s.FieldError("sess", 7)
	assert.False(t, ok)
}
