package services

import (
	"sort"
	"sync"
	"time"

	"github.com/Solvro/web-eventownik-v2-sub001/configs"
	"github.com/Solvro/web-eventownik-v2-sub001/configs/configslog"
	"github.com/Solvro/web-eventownik-v2-sub001/models"
	"github.com/Solvro/web-eventownik-v2-sub001/pkg/drawing"

	"github.com/erni27/imcache"
	"go.uber.org/zap"
)

// MsgDrawingExportFailed is the field-level message shown when a canvas
// export fails. The failure stays scoped to its attribute; the rest of the
// form submits normally (without that attachment).
const MsgDrawingExportFailed = "Nie udało się zapisać rysunku."

// PendingAttachment is one ephemeral binary waiting to ride along with the
// next submission. Its filename is the attribute id as a string; at most one
// attachment exists per attribute id, inserting replaces.
type PendingAttachment struct {
	AttributeID models.AttributeID
	FileName    string
	ContentType string
	Data        []byte
	SavedAt     time.Time
}

// IAttachmentService is the side-channel store of pending binary payloads,
// kept strictly apart from the scalar form values. Sessions are identified by
// the form-session cookie and age out on a sliding TTL -- attachments never
// survive a reload server-side any longer than their session does, and are
// never persisted.
type IAttachmentService interface {
	Put(sessionID string, attributeID models.AttributeID, contentType string, data []byte)
	Remove(sessionID string, attributeID models.AttributeID)
	Get(sessionID string, attributeID models.AttributeID) (PendingAttachment, bool)
	List(sessionID string) []PendingAttachment
	Clear(sessionID string)

	// UpdateDrawing records the full canvas state for an attribute and
	// re-arms the debounce timer; the actual export runs after the quiet
	// window, off the request goroutine.
	UpdateDrawing(sessionID string, attributeID models.AttributeID, canvas drawing.Canvas)

	// FieldError returns the pending export error for an attribute, if any.
	FieldError(sessionID string, attributeID models.AttributeID) (string, bool)

	Close()
}

type sessionAttachments struct {
	mu      sync.Mutex
	byAttr  map[models.AttributeID]PendingAttachment
	errors  map[models.AttributeID]string
	canvas  map[models.AttributeID]drawing.Canvas
	timers  map[models.AttributeID]*time.Timer
	exportN map[models.AttributeID]uint64
}

func newSessionAttachments() *sessionAttachments {
	return &sessionAttachments{
		byAttr:  make(map[models.AttributeID]PendingAttachment),
		errors:  make(map[models.AttributeID]string),
		canvas:  make(map[models.AttributeID]drawing.Canvas),
		timers:  make(map[models.AttributeID]*time.Timer),
		exportN: make(map[models.AttributeID]uint64),
	}
}

func (s *sessionAttachments) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// AttachmentService implements IAttachmentService on an in-memory TTL cache.
type AttachmentService struct {
	sessions *imcache.Cache[string, *sessionAttachments]
	debounce time.Duration
}

// NewAttachmentService creates the service with the configured TTL and
// debounce window.
func NewAttachmentService() IAttachmentService {
	cfg := configs.Get()
	return NewAttachmentServiceWith(cfg.AttachmentTTL, cfg.DrawingDebounce)
}

// NewAttachmentServiceWith creates the service with explicit timing, used by
// tests to shrink the debounce window.
func NewAttachmentServiceWith(ttl, debounce time.Duration) IAttachmentService {
	cache := imcache.New[string, *sessionAttachments](
		imcache.WithDefaultSlidingExpirationOption[string, *sessionAttachments](ttl),
		imcache.WithCleanerOption[string, *sessionAttachments](time.Minute),
		imcache.WithEvictionCallbackOption[string, *sessionAttachments](
			func(_ string, sess *sessionAttachments, _ imcache.EvictionReason) {
				if sess != nil {
					sess.stopTimers()
				}
			}),
	)
	return &AttachmentService{sessions: cache, debounce: debounce}
}

func (s *AttachmentService) session(sessionID string) *sessionAttachments {
	sess, _ := s.sessions.GetOrSet(sessionID, newSessionAttachments(), imcache.WithDefaultExpiration())
	return sess
}

// Put inserts or replaces the attachment for an attribute id.
func (s *AttachmentService) Put(sessionID string, attributeID models.AttributeID, contentType string, data []byte) {
	sess := s.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.byAttr[attributeID] = PendingAttachment{
		AttributeID: attributeID,
		FileName:    attributeID.String(),
		ContentType: contentType,
		Data:        data,
		SavedAt:     time.Now(),
	}
	delete(sess.errors, attributeID)
}

// Remove drops the pending attachment for an attribute id, if any.
func (s *AttachmentService) Remove(sessionID string, attributeID models.AttributeID) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	delete(sess.byAttr, attributeID)
	delete(sess.errors, attributeID)
}

// Get returns the pending attachment for an attribute id.
func (s *AttachmentService) Get(sessionID string, attributeID models.AttributeID) (PendingAttachment, bool) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return PendingAttachment{}, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	att, ok := sess.byAttr[attributeID]
	return att, ok
}

// List returns all pending attachments of a session, sorted by attribute id.
func (s *AttachmentService) List(sessionID string) []PendingAttachment {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]PendingAttachment, 0, len(sess.byAttr))
	for _, att := range sess.byAttr {
		out = append(out, att)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttributeID < out[j].AttributeID })
	return out
}

// Clear drops everything a session has pending. Called after a successful
// submission.
func (s *AttachmentService) Clear(sessionID string) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	sess.stopTimers()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.byAttr = make(map[models.AttributeID]PendingAttachment)
	sess.errors = make(map[models.AttributeID]string)
	sess.canvas = make(map[models.AttributeID]drawing.Canvas)
	// Stopping the timers only covers exports that have not fired yet; an
	// export already rasterizing holds its sequence number, so bump every
	// counter to make its commit check fail.
	for id := range sess.exportN {
		sess.exportN[id]++
	}
}

// UpdateDrawing stores the latest canvas state and re-arms the debounce.
// Consecutive stroke events within the window coalesce; only the last state
// is exported.
func (s *AttachmentService) UpdateDrawing(sessionID string, attributeID models.AttributeID, canvas drawing.Canvas) {
	sess := s.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.canvas[attributeID] = canvas
	sess.exportN[attributeID]++
	seq := sess.exportN[attributeID]

	if t, ok := sess.timers[attributeID]; ok {
		t.Stop()
	}
	sess.timers[attributeID] = time.AfterFunc(s.debounce, func() {
		s.exportDrawing(sessionID, attributeID, seq)
	})
}

// exportDrawing runs after the debounce window. The sequence check drops
// exports that were superseded while the rasterizer was running, so the
// attachment map always reflects the newest canvas state.
func (s *AttachmentService) exportDrawing(sessionID string, attributeID models.AttributeID, seq uint64) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		// Session aged out between the timer being armed and firing.
		return
	}

	sess.mu.Lock()
	if sess.exportN[attributeID] != seq {
		sess.mu.Unlock()
		return
	}
	canvas := sess.canvas[attributeID]
	sess.mu.Unlock()

	if canvas.Empty() {
		// An empty drawing is "no file": drop any previous export.
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if sess.exportN[attributeID] == seq {
			delete(sess.byAttr, attributeID)
			delete(sess.errors, attributeID)
		}
		return
	}

	data, err := drawing.Render(canvas)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.exportN[attributeID] != seq {
		return
	}
	if err != nil {
		configslog.Log.Warn("drawing export failed",
			zap.String("session", sessionID),
			zap.Int64("attribute", int64(attributeID)),
			zap.Error(err))
		sess.errors[attributeID] = MsgDrawingExportFailed
		return
	}
	sess.byAttr[attributeID] = PendingAttachment{
		AttributeID: attributeID,
		FileName:    attributeID.String(),
		ContentType: "image/png",
		Data:        data,
		SavedAt:     time.Now(),
	}
	delete(sess.errors, attributeID)
}

// FieldError returns the last drawing-export error for an attribute.
func (s *AttachmentService) FieldError(sessionID string, attributeID models.AttributeID) (string, bool) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return "", false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	msg, ok := sess.errors[attributeID]
	return msg, ok
}

// Close stops all debounce timers and the cache cleaner.
func (s *AttachmentService) Close() {
	for _, sess := range s.sessions.GetAll() {
		sess.stopTimers()
	}
	s.sessions.Close()
}

var _ IAttachmentService = (*AttachmentService)(nil)
