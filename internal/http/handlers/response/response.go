package response

import (
	"encoding/json"
	"errors"
	"net/http"
	e "resetflow/internal/core/domain/errors"
)

type errorResponse struct {
	Error string `json:"error"`
}

type validationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type messageResponse struct {
	Msg string `json:"msg"`
}

func RenderInternalError(rw http.ResponseWriter) {
	RenderError(rw, "internal error", http.StatusInternalServerError)
}

func RenderInvalidRequestData(rw http.ResponseWriter) {
	RenderError(rw, "invalid request data", http.StatusBadRequest)
}

// RenderValidationError renders err as 400 with the offending fields and
// reports whether err was a validation error at all.
func RenderValidationError(rw http.ResponseWriter, err error) bool {
	var validationErr *e.ValidationError
	if !errors.As(err, &validationErr) {
		return false
	}
	Render(
		rw,
		validationErrorResponse{Error: "invalid request data", Fields: validationErr.Fields()},
		http.StatusBadRequest,
	)
	return true
}

func RenderError(rw http.ResponseWriter, msg string, status int) {
	Render(rw, errorResponse{Error: msg}, status)
}

func RenderMessage(rw http.ResponseWriter, msg string, status int) {
	Render(rw, messageResponse{Msg: msg}, status)
}

func Render(rw http.ResponseWriter, res interface{}, status int) {
	rw.Header().Set("Content-Type", "application/json")

	content, err := json.Marshal(res)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	rw.WriteHeader(status)
	rw.Write(content)
}
