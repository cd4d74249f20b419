package resetpassword

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	e "resetflow/internal/core/domain/errors"
	"resetflow/internal/core/domain/user"
	service "resetflow/internal/core/services/reset_password"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	err   error
	input *service.Input
}

func (s *stubService) Run(ctx context.Context, input service.Input) (result service.Result, err error) {
	s.input = &input
	return result, s.err
}

func serve(stub *stubService, url string, body string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Method(http.MethodPost, "/reset-password/{token}", New(stub))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, url, strings.NewReader(body)))
	return rr
}

func TestResetPasswordHandler(t *testing.T) {
	cases := []struct {
		id             string
		body           string
		err            error
		expectedStatus int
		expectedBody   map[string]interface{}
	}{
		{
			id:             "success",
			body:           `{"password": "new-secret"}`,
			expectedStatus: http.StatusOK,
			expectedBody:   map[string]interface{}{"msg": "Password reset successful"},
		},
		{
			id:             "invalid token",
			body:           `{"password": "new-secret"}`,
			err:            user.ErrInvalidPasswordResetToken,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   map[string]interface{}{"error": "invalid or expired token"},
		},
		{
			id:             "short password",
			body:           `{"password": "123"}`,
			err:            e.NewValidationError("password", "the length must be between 6 and 256"),
			expectedStatus: http.StatusBadRequest,
			expectedBody: map[string]interface{}{
				"error":  "invalid request data",
				"fields": map[string]interface{}{"password": "the length must be between 6 and 256"},
			},
		},
	}

	for _, testcase := range cases {
		t.Run(testcase.id, func(t *testing.T) {
			// Setup ---
			stub := &stubService{err: testcase.err}

			// Exercise ---
			rr := serve(stub, "/reset-password/abc123", testcase.body)

			// Verify ---
			require.Equal(t, testcase.expectedStatus, rr.Code)
			body := map[string]interface{}{}
			require.Nil(t, json.Unmarshal(rr.Body.Bytes(), &body))
			require.Equal(t, testcase.expectedBody, body)
			require.NotNil(t, stub.input)
			require.Equal(t, user.PasswordResetToken("abc123"), stub.input.Token)
		})
	}
}

func TestResetPasswordHandlerRequiresPassword(t *testing.T) {
	stub := &stubService{}

	rr := serve(stub, "/reset-password/abc123", `{}`)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Nil(t, stub.input)
}
