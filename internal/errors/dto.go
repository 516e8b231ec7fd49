package errors

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Display       string         `json:"message"`
	InternalError string         `json:"internal_error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

// ReportableDetails merges every structured detail attached with
// WithReportableDetails anywhere in the chain.
func ReportableDetails(err error) map[string]any {
	details := make(map[string]any)
	for _, safe := range errors.GetAllSafeDetails(err) {
		for _, payload := range safe.SafeDetails {
			if !strings.HasPrefix(payload, "__json__:") {
				continue
			}
			var m map[string]any
			if jsonErr := json.Unmarshal([]byte(strings.TrimPrefix(payload, "__json__:")), &m); jsonErr != nil {
				continue
			}
			for k, v := range m {
				details[k] = v
			}
		}
	}
	return details
}

// DisplayMessage returns the outermost non-empty hint in the chain.
func DisplayMessage(err error) string {
	// GetAllHints is a post-order traversal, the outermost hint comes last
	hints := errors.GetAllHints(err)
	for i := len(hints) - 1; i >= 0; i-- {
		if hint := strings.TrimSpace(hints[i]); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}

// NewErrorResponse renders err the way the API returns it.
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Display: DisplayMessage(err),
		},
	}
	if details := ReportableDetails(err); len(details) > 0 {
		resp.Error.Details = details
	}
	return resp
}
