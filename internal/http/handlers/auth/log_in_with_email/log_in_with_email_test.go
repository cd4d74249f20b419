package loginwithemail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resetflow/internal/core/domain/user"
	service "resetflow/internal/core/services/log_in_with_email"

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

func TestLogInWithEmailHandler(t *testing.T) {
	cases := []struct {
		id             string
		body           string
		err            error
		expectedStatus int
		expectedBody   map[string]interface{}
	}{
		{
			id:             "success",
			body:           `{"email": "ALICE@X.COM", "password": "secret1"}`,
			expectedStatus: http.StatusOK,
			expectedBody:   map[string]interface{}{"msg": "Login successful"},
		},
		{
			id:             "invalid credentials",
			body:           `{"email": "alice@x.com", "password": "wrong"}`,
			err:            user.ErrInvalidCredentials,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   map[string]interface{}{"error": "invalid email or password"},
		},
		{
			id:             "missing password",
			body:           `{"email": "alice@x.com"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody: map[string]interface{}{
				"error":  "invalid request data",
				"fields": map[string]interface{}{"password": "cannot be blank"},
			},
		},
	}

	for _, testcase := range cases {
		t.Run(testcase.id, func(t *testing.T) {
			// Setup ---
			stub := &stubService{err: testcase.err}
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(testcase.body))
			rr := httptest.NewRecorder()

			// Exercise ---
			New(stub).ServeHTTP(rr, req)

			// Verify ---
			require.Equal(t, testcase.expectedStatus, rr.Code)
			body := map[string]interface{}{}
			require.Nil(t, json.Unmarshal(rr.Body.Bytes(), &body))
			require.Equal(t, testcase.expectedBody, body)
		})
	}
}

func TestLogInWithEmailHandlerNormalizesEmail(t *testing.T) {
	stub := &stubService{}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email": "ALICE@X.COM", "password": "secret1"}`))

	New(stub).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, stub.input)
	require.Equal(t, "alice@x.com", string(stub.input.Email))
}
