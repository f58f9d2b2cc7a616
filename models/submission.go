package models

// FieldError is one entry of the backend's structured validation error list.
// Field is the stringified attribute id, or "email" for the participant's
// identifying address.
type FieldError struct {
	Rule    string `json:"rule"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SubmissionErrorResponse is the non-2xx body of the submit endpoint.
type SubmissionErrorResponse struct {
	Errors  []FieldError `json:"errors"`
	Message string       `json:"message,omitempty"`
}

// SubmitResult is the typed outcome of a submission request. Network-level
// failures are returned as errors alongside it; a reachable server always
// produces a SubmitResult, successful or not.
type SubmitResult struct {
	Success bool
	Errors  []FieldError
	Message string
}
