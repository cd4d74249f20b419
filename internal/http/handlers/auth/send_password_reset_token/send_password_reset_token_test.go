package sendpasswordresettoken

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	c "resetflow/internal/core/domain/common"
	"resetflow/internal/core/domain/user"
	service "resetflow/internal/core/services/send_password_reset_token"

	"github.com/stretchr/testify/require"
)

type stubService struct {
	result service.Result
	err    error
}

func (s *stubService) Run(ctx context.Context, input service.Input) (service.Result, error) {
	return s.result, s.err
}

func issued() service.Result {
	return service.Result{Token: c.Some(user.PasswordResetToken("abc"))}
}

func TestSendPasswordResetTokenHandler(t *testing.T) {
	cases := []struct {
		id             string
		result         service.Result
		isTestMode     bool
		expectedHeader string
	}{
		{id: "known email", result: issued(), isTestMode: false, expectedHeader: ""},
		{id: "unknown email", result: service.Result{}, isTestMode: false, expectedHeader: ""},
		{id: "known email in test mode", result: issued(), isTestMode: true, expectedHeader: "abc"},
		{id: "unknown email in test mode", result: service.Result{}, isTestMode: true, expectedHeader: ""},
	}

	for _, testcase := range cases {
		t.Run(testcase.id, func(t *testing.T) {
			// Setup ---
			handler := New(&stubService{result: testcase.result}, testcase.isTestMode)
			req := httptest.NewRequest(http.MethodPost, "/forgot-password", strings.NewReader(`{"email": "alice@x.com"}`))
			rr := httptest.NewRecorder()

			// Exercise ---
			handler.ServeHTTP(rr, req)

			// Verify ---
			require.Equal(t, http.StatusOK, rr.Code)
			body := map[string]interface{}{}
			require.Nil(t, json.Unmarshal(rr.Body.Bytes(), &body))
			require.Equal(t, map[string]interface{}{"msg": service.ConfirmationMessage}, body)
			require.Equal(t, testcase.expectedHeader, rr.Header().Get(TestModeTokenHeader))
		})
	}
}

func TestSendPasswordResetTokenHandlerRequiresEmail(t *testing.T) {
	rr := httptest.NewRecorder()

	New(&stubService{}, false).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/forgot-password", strings.NewReader(`{}`)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
}
