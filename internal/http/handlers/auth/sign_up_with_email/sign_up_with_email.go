package signupwithemail

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	c "resetflow/internal/core/domain/common"
	e "resetflow/internal/core/domain/errors"
	"resetflow/internal/core/domain/user"
	"resetflow/internal/core/services"
	signupwithemail "resetflow/internal/core/services/sign_up_with_email"
	"resetflow/internal/http/handlers/response"

	validation "github.com/go-ozzo/ozzo-validation"
)

const successMessage = "User registered successfully"

type Handler struct {
	service services.Service[signupwithemail.Input, signupwithemail.Result]
}

func New(service services.Service[signupwithemail.Input, signupwithemail.Result]) *Handler {
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	return &Handler{service: service}
}

type Input struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (i *Input) FromJSON(r io.Reader) error {
	e := json.NewDecoder(r)
	return e.Decode(i)
}

func (i Input) Validate() error {
	return e.NewValidationErrorFrom(validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Required),
		validation.Field(&i.Email, validation.Required),
		validation.Field(&i.Password, validation.Required),
	))
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
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
		signupwithemail.Input{
			Name:     input.Name,
			Email:    c.NewEmail(input.Email),
			Password: user.RawPassword(input.Password),
		},
	)
	if response.RenderValidationError(rw, err) {
		return
	}
	if errors.Is(err, user.ErrEmailAlreadyExists) {
		response.RenderError(rw, "user already exists", http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		response.RenderInternalError(rw)
		return
	}

	response.RenderMessage(rw, successMessage, http.StatusCreated)
}
