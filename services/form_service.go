package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/Solvro/web-eventownik-v2-sub001/configs/configslog"
	"github.com/Solvro/web-eventownik-v2-sub001/models"
	"github.com/Solvro/web-eventownik-v2-sub001/pkg/attrschema"
	"github.com/Solvro/web-eventownik-v2-sub001/pkg/widgets"
	"github.com/Solvro/web-eventownik-v2-sub001/repositories"

	"go.uber.org/zap"
)

// FormServiceError are the orchestrator's typed errors.
type FormServiceError string

func (e FormServiceError) Error() string { return string(e) }

const (
	ErrFormNotFound        FormServiceError = "formularz nie został znaleziony"
	ErrParticipantNotFound FormServiceError = "uczestnik nie został znaleziony"
	ErrSubmissionInFlight  FormServiceError = "formularz jest już wysyłany"
)

// User-facing submission messages.
const (
	MsgEmailTaken  = "Ten adres e-mail jest już zarejestrowany."
	MsgServerError = "Wystąpił błąd serwera. Spróbuj ponownie później."
)

// blockBuildTimeout bounds how long a page render waits for the first
// occupancy snapshot before falling back to the per-field failure
// placeholder.
const blockBuildTimeout = 3 * time.Second

// Capabilities selects which optional subsystems a form instance uses. The
// orchestrator is one parameterized implementation; there are no parallel
// code paths with and without attachments or live blocks.
type Capabilities struct {
	Attachments bool
	LiveBlocks  bool
}

// BuildInput is everything BuildForm needs to render one form page.
type BuildInput struct {
	SessionID       string
	EventSlug       string
	Form            *models.PublicForm
	ParticipantSlug string // empty means create mode

	// Values overrides defaults per attribute, used to re-render the form
	// with the user's input after a failed submit.
	Values map[models.AttributeID]any
	// FieldErrors / RootErrors carry a failed submission's outcome back into
	// the render.
	FieldErrors map[models.AttributeID]string
	RootErrors  []string
}

// RenderedField pairs an attribute with its rendered widget.
type RenderedField struct {
	Attribute models.FormAttribute
	HTML      template.HTML
}

// RenderedForm is a fully prepared form page: attributes in display order,
// widgets rendered, defaults and errors applied.
type RenderedForm struct {
	Form        *models.PublicForm
	Attributes  []models.FormAttribute
	Schema      *attrschema.Schema
	Participant *models.PublicParticipant
	Fields      []RenderedField
	RootErrors  []string
	EditMode    bool
}

// SubmissionOutcome is the result of one submit attempt. On success in edit
// mode Values holds the just-submitted values -- the new baseline subsequent
// edits are rendered from.
type SubmissionOutcome struct {
	Success     bool
	FieldErrors map[models.AttributeID]string
	RootErrors  []string
	Values      map[models.AttributeID]any
}

// IFormService is the form orchestrator: it composes the schema synthesizer,
// widget dispatcher, attachment manager and block service into a submittable
// form.
type IFormService interface {
	GetForm(ctx context.Context, eventSlug string, formID int64) (*models.PublicForm, error)
	BuildForm(ctx context.Context, in BuildInput) (*RenderedForm, error)
	Submit(ctx context.Context, in BuildInput) (*SubmissionOutcome, error)
}

// FormService implements IFormService.
type FormService struct {
	forms        repositories.IFormRepository
	participants repositories.IParticipantRepository
	submissions  repositories.ISubmissionRepository
	attachments  IAttachmentService
	blocks       IBlockService
	caps         Capabilities

	// inFlight holds one entry per form session with a submission on the
	// wire; a second submit for the same session is rejected, not queued.
	inFlight sync.Map
}

// NewFormService creates the orchestrator with default collaborators and all
// capabilities enabled.
func NewFormService(attachments IAttachmentService, blocks IBlockService) IFormService {
	return NewFormServiceWith(
		repositories.NewFormRepository(),
		repositories.NewParticipantRepository(),
		repositories.NewSubmissionRepository(),
		attachments,
		blocks,
		Capabilities{Attachments: true, LiveBlocks: true},
	)
}

// NewFormServiceWith wires explicit collaborators (tests use fakes here).
func NewFormServiceWith(
	forms repositories.IFormRepository,
	participants repositories.IParticipantRepository,
	submissions repositories.ISubmissionRepository,
	attachments IAttachmentService,
	blocks IBlockService,
	caps Capabilities,
) IFormService {
	return &FormService{
		forms:        forms,
		participants: participants,
		submissions:  submissions,
		attachments:  attachments,
		blocks:       blocks,
		caps:         caps,
	}
}

// GetForm fetches a form definition. The attribute list is re-fetched on
// every page load; nothing is cached across forms.
func (s *FormService) GetForm(ctx context.Context, eventSlug string, formID int64) (*models.PublicForm, error) {
	form, err := s.forms.GetForm(ctx, eventSlug, formID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	return form, nil
}

// BuildForm prepares a form page: attributes sorted once through the central
// comparator, schema synthesized fresh, defaults seeded from the existing
// participant in edit mode, widgets rendered with their errors.
func (s *FormService) BuildForm(ctx context.Context, in BuildInput) (*RenderedForm, error) {
	sorted := models.SortAttributes(in.Form.Attributes)
	schema := attrschema.Synthesize(sorted)

	participant := &models.PublicParticipant{}
	editMode := in.ParticipantSlug != ""
	if editMode {
		ids := make([]models.AttributeID, 0, len(sorted))
		for _, a := range sorted {
			ids = append(ids, a.ID)
		}
		p, err := s.participants.GetParticipant(ctx, in.EventSlug, in.ParticipantSlug, ids)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrParticipantNotFound
			}
			return nil, err
		}
		participant = p
	}

	widgetCtx := &widgets.Context{
		Participant: participant,
		Blocks:      s.resolveBlocks(ctx, in.EventSlug, in.Form),
	}

	rf := &RenderedForm{
		Form:        in.Form,
		Attributes:  sorted,
		Schema:      schema,
		Participant: participant,
		RootErrors:  in.RootErrors,
		EditMode:    editMode,
	}

	for _, attr := range sorted {
		field := widgets.Field{
			Value: s.fieldValue(attr, in.Values, participant),
			Error: s.fieldError(attr, in),
		}
		html, err := widgets.Render(attr, field, widgetCtx)
		if err != nil {
			configslog.Log.Error("widget render failed",
				zap.Int64("attribute", int64(attr.ID)),
				zap.String("type", string(attr.Type)),
				zap.Error(err))
			continue
		}
		rf.Fields = append(rf.Fields, RenderedField{Attribute: attr, HTML: html})
	}
	return rf, nil
}

// resolveBlocks fetches the first occupancy snapshot for every block
// attribute on the form. Attributes whose fetch does not settle in time stay
// absent from the map, which the widget renders as an explicit failure
// placeholder.
func (s *FormService) resolveBlocks(ctx context.Context, eventSlug string, form *models.PublicForm) map[models.AttributeID][]models.PublicBlock {
	blockAttrs := form.BlockAttributes()
	if len(blockAttrs) == 0 || !s.caps.LiveBlocks {
		return nil
	}
	resolved := make(map[models.AttributeID][]models.PublicBlock, len(blockAttrs))
	for _, attr := range blockAttrs {
		release := s.blocks.Acquire(eventSlug, attr.ID)
		waitCtx, cancel := context.WithTimeout(ctx, blockBuildTimeout)
		snap, err := s.blocks.Await(waitCtx, eventSlug, attr.ID, 0)
		cancel()
		release()
		if err != nil {
			configslog.Log.Warn("initial block fetch did not settle",
				zap.String("event", eventSlug),
				zap.Int64("attribute", int64(attr.ID)),
				zap.Error(err))
			continue
		}
		resolved[attr.ID] = snap.Blocks
	}
	return resolved
}

// fieldValue picks the value a widget renders with: explicit input first,
// then the participant's stored value. File-backed attributes never get a
// scalar default; their state lives in the attachment manager.
func (s *FormService) fieldValue(attr models.FormAttribute, values map[models.AttributeID]any, participant *models.PublicParticipant) any {
	if v, ok := values[attr.ID]; ok {
		return v
	}
	if attr.Type == models.AttributeFile {
		return nil
	}
	stored, ok := participant.ValueOf(attr.ID)
	if !ok {
		return ""
	}
	if attr.Type == models.AttributeMultiselect {
		return decodeMultiselect(stored)
	}
	return stored
}

func (s *FormService) fieldError(attr models.FormAttribute, in BuildInput) string {
	if msg, ok := in.FieldErrors[attr.ID]; ok {
		return msg
	}
	if s.caps.Attachments && attr.Type == models.AttributeFile {
		if msg, ok := s.attachments.FieldError(in.SessionID, attr.ID); ok {
			return msg
		}
	}
	return ""
}

// decodeMultiselect reads a stored pivot value back into a selection list.
// The wire format is a JSON array; older pivots used comma separation.
func decodeMultiselect(stored string) []string {
	if stored == "" {
		return nil
	}
	if strings.HasPrefix(stored, "[") {
		var list []string
		if err := json.Unmarshal([]byte(stored), &list); err == nil {
			return list
		}
	}
	return strings.Split(stored, ",")
}

// Submit validates locally, combines scalar values with the session's pending
// attachments into one multipart payload, posts it, and maps the backend's
// structured errors back onto fields. Local validation failures never reach
// the network.
func (s *FormService) Submit(ctx context.Context, in BuildInput) (*SubmissionOutcome, error) {
	guardKey := fmt.Sprintf("%s|%s|%d", in.SessionID, in.EventSlug, in.Form.ID)
	if _, busy := s.inFlight.LoadOrStore(guardKey, struct{}{}); busy {
		return nil, ErrSubmissionInFlight
	}
	defer s.inFlight.Delete(guardKey)

	sorted := models.SortAttributes(in.Form.Attributes)
	schema := attrschema.Synthesize(sorted)

	if issues := schema.Validate(in.Values); len(issues) > 0 {
		outcome := &SubmissionOutcome{
			Success:     false,
			FieldErrors: make(map[models.AttributeID]string, len(issues)),
			Values:      in.Values,
		}
		for _, issue := range issues {
			outcome.FieldErrors[issue.Attribute] = issue.Message
		}
		return outcome, nil
	}

	req := repositories.SubmitRequest{
		ParticipantSlug: in.ParticipantSlug,
		Fields:          make(map[string]string),
	}
	for _, attr := range sorted {
		if !attr.Type.HasScalarValue() {
			continue
		}
		if serialized, ok := attrschema.Serialize(in.Values[attr.ID]); ok {
			req.Fields[attr.ID.String()] = serialized
		}
	}
	if s.caps.Attachments {
		for _, att := range s.attachments.List(in.SessionID) {
			req.Files = append(req.Files, repositories.SubmitFile{
				Field:       att.AttributeID.String(),
				FileName:    att.FileName,
				ContentType: att.ContentType,
				Data:        att.Data,
			})
		}
	}

	result, err := s.submissions.Submit(ctx, in.EventSlug, in.Form.ID, req)
	if err != nil {
		configslog.Log.Error("submission failed",
			zap.String("event", in.EventSlug),
			zap.Int64("form", in.Form.ID),
			zap.Error(err))
		return &SubmissionOutcome{
			Success:    false,
			RootErrors: []string{MsgServerError},
			Values:     in.Values,
		}, nil
	}

	if result.Success {
		if s.caps.Attachments {
			s.attachments.Clear(in.SessionID)
		}
		configslog.SLog.Infof("submission accepted: event %s, form %d, participant %q",
			in.EventSlug, in.Form.ID, in.ParticipantSlug)
		return &SubmissionOutcome{Success: true, Values: in.Values}, nil
	}

	return s.mapServerErrors(in.Form, result, in.Values), nil
}

// mapServerErrors attributes each backend error to its schema key. Uniqueness
// violations on "email" get the dedicated taken-address message; errors whose
// field matches no attribute surface as root-level messages instead of being
// dropped.
func (s *FormService) mapServerErrors(form *models.PublicForm, result *models.SubmitResult, values map[models.AttributeID]any) *SubmissionOutcome {
	outcome := &SubmissionOutcome{
		Success:     false,
		FieldErrors: make(map[models.AttributeID]string),
		Values:      values,
	}

	attrByID := make(map[models.AttributeID]struct{}, len(form.Attributes))
	for _, a := range form.Attributes {
		attrByID[a.ID] = struct{}{}
	}

	for _, fieldErr := range result.Errors {
		if fieldErr.Field == "email" {
			if emailID, ok := form.EmailAttributeID(); ok {
				if strings.Contains(fieldErr.Rule, "unique") {
					outcome.FieldErrors[emailID] = MsgEmailTaken
				} else {
					outcome.FieldErrors[emailID] = fieldErr.Message
				}
				continue
			}
		}
		if id, ok := models.ParseAttributeID(fieldErr.Field); ok {
			if _, known := attrByID[id]; known {
				outcome.FieldErrors[id] = fieldErr.Message
				continue
			}
		}
		msg := fieldErr.Message
		if msg == "" {
			msg = result.Message
		}
		if msg == "" {
			msg = MsgServerError
		}
		outcome.RootErrors = append(outcome.RootErrors, msg)
	}

	if len(result.Errors) == 0 {
		msg := result.Message
		if msg == "" {
			msg = MsgServerError
		}
		outcome.RootErrors = append(outcome.RootErrors, msg)
	}
	return outcome
}

var _ IFormService = (*FormService)(nil)
