package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error codes the client synthesizes when the server gives it nothing
// better to go on.
const (
	CodeUnknownError = "UNKNOWN_ERROR"
	CodeNetworkError = "NETWORK_ERROR"
)

// APIError is a structured failure from the persistence API. Status is the
// HTTP status, zero when the request never reached the server.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apiclient: %s (%s, status %d)", e.Message, e.Code, e.Status)
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Code:    CodeUnknownError,
		Message: http.StatusText(resp.StatusCode),
		Status:  resp.StatusCode,
	}
	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		if envelope.Code != "" {
			apiErr.Code = envelope.Code
		}
		if envelope.Message != "" {
			apiErr.Message = envelope.Message
		}
	}
	return apiErr
}
