package errors

// ErrorInfo contains detailed error information
type ErrorInfo struct {
	Code    string `json:"code"`              // Business error code, e.g., "INVALID_FILE_NAME"
	Details string `json:"details,omitempty"` // Detailed error information (optional)
}

// Response is the envelope the error middleware renders for failed requests
type Response struct {
	Success bool       `json:"success"`
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ToResponse converts an AppError into the error envelope
func ToResponse(err AppError) Response {
	return Response{
		Success: false,
		Code:    err.HTTPCode(),
		Message: err.Message(),
		Error: &ErrorInfo{
			Code:    err.ErrorCode(),
			Details: err.Details(),
		},
	}
}
