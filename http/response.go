package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/akavelink/akavelink"
)

// SuccessResponse wraps every successful JSON body.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorBody is the stable error shape of the API.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse wraps every failure JSON body.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// WriteJSON writes a success envelope.
func WriteJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(SuccessResponse{Success: true, Data: data}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a failure envelope from a classified error.
func WriteError(w http.ResponseWriter, cerr *akavelink.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(cerr.HTTPStatus)
	body := ErrorResponse{Error: ErrorBody{
		Code:    cerr.Code,
		Message: cerr.Message,
		Details: cerr.Details,
	}}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the appropriate error response. The service is
// expected to return classified errors; anything else is reported as
// an unknown error so no failure escapes without a status.
func HandleError(w http.ResponseWriter, reg *akavelink.Registry, err error) {
	slog.Error("request error", "error", err)

	var classified *akavelink.Error
	if errors.As(err, &classified) {
		WriteError(w, classified)
		return
	}

	WriteError(w, reg.NewError(akavelink.CodeUnknownError, err))
}
