package sendpasswordresettoken

import (
	"encoding/json"
	"io"
	"net/http"
	c "resetflow/internal/core/domain/common"
	e "resetflow/internal/core/domain/errors"
	"resetflow/internal/core/services"
	sendpasswordresettoken "resetflow/internal/core/services/send_password_reset_token"
	"resetflow/internal/http/handlers/response"

	validation "github.com/go-ozzo/ozzo-validation"
)

const TestModeTokenHeader = "x-test-password-reset-token"

type Handler struct {
	service    services.Service[sendpasswordresettoken.Input, sendpasswordresettoken.Result]
	isTestMode bool
}

func New(
	service services.Service[sendpasswordresettoken.Input, sendpasswordresettoken.Result],
	isTestMode bool,
) *Handler {
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	return &Handler{service: service, isTestMode: isTestMode}
}

type Input struct {
	Email string `json:"email"`
}

func (i *Input) FromJSON(r io.Reader) error {
	e := json.NewDecoder(r)
	return e.Decode(i)
}

func (i Input) Validate() error {
	return e.NewValidationErrorFrom(validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.Required, validation.Length(0, 512)),
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

	result, err := h.service.Run(r.Context(), sendpasswordresettoken.Input{Email: c.NewEmail(input.Email)})
	if err != nil {
		response.RenderInternalError(rw)
		return
	}

	if h.isTestMode && result.Token.IsPresent {
		rw.Header().Set(TestModeTokenHeader, string(result.Token.Value))
	}
	response.RenderMessage(rw, sendpasswordresettoken.ConfirmationMessage, http.StatusOK)
}
