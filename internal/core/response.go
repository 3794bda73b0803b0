package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"teltrip/internal/types"
)

// APIErrorResponse is the standard envelope for error responses. The "ok"
// discriminator matches the contract the dashboard's safeFetch helper
// expects.
type APIErrorResponse struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(APIErrorResponse{
			OK:        false,
			Error:     "failed to marshal response",
			Code:      string(types.ErrCodeInternalUnexpected),
			RequestID: types.GetRequestID(r.Context()),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes an error response. AppErrors map to their HTTP status and
// expose their code and message; generic errors become an opaque 500 so
// internal details never leak to the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	requestID := types.GetRequestID(r.Context())

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		JSON(w, r, appErr.HTTPStatus(), APIErrorResponse{
			OK:        false,
			Error:     appErr.Message,
			Code:      string(appErr.Code),
			RequestID: requestID,
		})
		return
	}

	JSON(w, r, http.StatusInternalServerError, APIErrorResponse{
		OK:        false,
		Error:     "an unexpected error occurred",
		Code:      string(types.ErrCodeInternalUnexpected),
		RequestID: requestID,
	})
}
