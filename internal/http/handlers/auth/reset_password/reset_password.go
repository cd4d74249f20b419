package resetpassword

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	e "resetflow/internal/core/domain/errors"
	"resetflow/internal/core/domain/user"
	"resetflow/internal/core/services"
	resetpassword "resetflow/internal/core/services/reset_password"
	"resetflow/internal/http/handlers/response"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
)

const successMessage = "Password reset successful"

type Handler struct {
	service services.Service[resetpassword.Input, resetpassword.Result]
}

func New(
	service services.Service[resetpassword.Input, resetpassword.Result],
) *Handler {
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	return &Handler{service: service}
}

type Input struct {
	Password string `json:"password"`
}

func (i *Input) FromJSON(r io.Reader) error {
	e := json.NewDecoder(r)
	return e.Decode(i)
}

func (i Input) Validate() error {
	return e.NewValidationErrorFrom(validation.ValidateStruct(&i,
		validation.Field(&i.Password, validation.Required),
	))
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" || len(token) > 1024 {
		response.RenderError(rw, "invalid or expired token", http.StatusUnprocessableEntity)
		return
	}
	input := Input{}
	if err := input.FromJSON(r.Body); err != nil {
		response.RenderInvalidRequestData(rw)
		return
	}
	if err := input.Validate(); err != nil {
		response.RenderValidationError(rw, err)
		return
	}

	_, err := h.service.Run(
		r.Context(),
		resetpassword.Input{
			Token:    user.PasswordResetToken(token),
			Password: user.RawPassword(input.Password),
		},
	)
	if response.RenderValidationError(rw, err) {
		return
	}
	if errors.Is(err, user.ErrInvalidPasswordResetToken) {
		response.RenderError(rw, "invalid or expired token", http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		response.RenderInternalError(rw)
		return
	}

	response.RenderMessage(rw, successMessage, http.StatusOK)
}
