package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/Solvro/web-eventownik-v2-sub001/configs/configslog"
	"github.com/Solvro/web-eventownik-v2-sub001/models"

	"go.uber.org/zap"
)

// SubmitFile is one binary attachment of a submission. Field and FileName are
// both the stringified attribute id; the backend matches attachments to
// attributes by part name.
type SubmitFile struct {
	Field       string
	FileName    string
	ContentType string
	Data        []byte
}

// SubmitRequest is the full multipart payload of one form submission: one
// part per scalar field (keyed by stringified attribute id), one part per
// pending attachment, plus the participant slug.
type SubmitRequest struct {
	ParticipantSlug string
	Fields          map[string]string
	Files           []SubmitFile
}

// ISubmissionRepository posts form submissions to the backend.
type ISubmissionRepository interface {
	Submit(ctx context.Context, eventSlug string, formID int64, req SubmitRequest) (*models.SubmitResult, error)
}

// SubmissionRepository implements ISubmissionRepository against the backend
// API.
type SubmissionRepository struct {
	api *Client
}

// NewSubmissionRepository creates a SubmissionRepository with the default
// client.
func NewSubmissionRepository() ISubmissionRepository {
	return &SubmissionRepository{api: NewClient()}
}

// NewSubmissionRepositoryWith creates a SubmissionRepository over an explicit
// client.
func NewSubmissionRepositoryWith(api *Client) ISubmissionRepository {
	return &SubmissionRepository{api: api}
}

// Submit POSTs multipart data to /events/{eventSlug}/forms/{formId}/submit.
// A reachable backend always yields a SubmitResult: 2xx means success, other
// statuses carry the structured error list the orchestrator maps back onto
// fields. Only transport failures and undecodable bodies come back as errors.
func (r *SubmissionRepository) Submit(ctx context.Context, eventSlug string, formID int64, req SubmitRequest) (*models.SubmitResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("participantSlug", req.ParticipantSlug); err != nil {
		return nil, err
	}
	for field, value := range req.Fields {
		if err := writer.WriteField(field, value); err != nil {
			return nil, err
		}
	}
	for _, f := range req.Files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.FileName))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s/events/%s/forms/%d/submit", r.api.baseURL, url.PathEscape(eventSlug), formID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, path, &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	resp, err := r.api.http.Do(httpReq)
	if err != nil {
		configslog.Log.Error("submission request failed",
			zap.String("event", eventSlug), zap.Int64("form", formID), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return &models.SubmitResult{Success: true}, nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var errResp models.SubmissionErrorResponse
	if len(raw) > 0 && strings.Contains(resp.Header.Get("Content-Type"), "json") {
		if err := json.Unmarshal(raw, &errResp); err != nil {
			configslog.Log.Error("submission error body decode failed",
				zap.Int("status", resp.StatusCode), zap.Error(err))
			return nil, fmt.Errorf("backend: niepoprawna odpowiedź błędu (status %d): %w", resp.StatusCode, err)
		}
	}
	return &models.SubmitResult{
		Success: false,
		Errors:  errResp.Errors,
		Message: errResp.Message,
	}, nil
}

var _ ISubmissionRepository = (*SubmissionRepository)(nil)
