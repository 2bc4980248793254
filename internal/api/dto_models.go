package api

// ErrorResponse is the standardized error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is a simple acknowledgement payload.
type SuccessResponse struct {
	Message string `json:"message"`
}
