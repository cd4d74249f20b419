package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"resetflow/internal/app/deps"
	"resetflow/internal/app/services"
	"resetflow/internal/config"
	"resetflow/internal/core/domain/dedup"
	"resetflow/internal/core/domain/logging"
	uow "resetflow/internal/core/domain/unit_of_work"
	"resetflow/internal/core/domain/user"
	sendpasswordresettoken "resetflow/internal/http/handlers/auth/send_password_reset_token"
	prometheusmetrics "resetflow/internal/implementations/metrics"
	passwordhasher "resetflow/internal/implementations/password_hasher"
	passwordresetter "resetflow/internal/implementations/password_resetter"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testApp struct {
	server    *httptest.Server
	services  *services.Services
	publisher *user.FakePasswordResetLinkSender
}

func newTestApp(t *testing.T, isTestMode bool) *testApp {
	repository := user.NewFakeUserRepository()
	publisher := user.NewFakePasswordResetLinkSender()
	registry := prometheus.NewRegistry()

	d := &deps.Deps{
		Config: &config.Config{
			IsTestMode:                 isTestMode,
			FrontendURL:                "https://app.example.com",
			AllowedOrigins:             []string{"https://app.example.com"},
			PasswordResetValidDuration: 15 * time.Minute,
			EmailDispatchTimeout:       time.Second,
		},
		Logger:                     logging.NewFakeLogger(),
		MetricsRegistry:            registry,
		Metrics:                    prometheusmetrics.NewPrometheus(registry),
		Now:                        func() time.Time { return time.Now().UTC() },
		UnitOfWork:                 uow.NewFakeUnitOfWorkWith(repository),
		UserRepository:             repository,
		Deduplicator:               dedup.NewFakeDeduplicator(),
		PasswordHasher:             passwordhasher.NewBcrypt("test-secret", bcrypt.MinCost),
		PasswordResetter:           passwordresetter.NewSHA256(),
		PasswordResetLinkPublisher: publisher,
		PasswordResetLinkMailer:    user.NewFakePasswordResetLinkSender(),
	}
	s := services.InitServices(d)
	server := httptest.NewServer(NewRouter(d, s))
	t.Cleanup(server.Close)

	return &testApp{server: server, services: s, publisher: publisher}
}

func (a *testApp) post(t *testing.T, path string, body string) (*http.Response, map[string]interface{}) {
	resp, err := http.Post(a.server.URL+path, "application/json", strings.NewReader(body))
	require.Nil(t, err)
	defer resp.Body.Close()

	decoded := map[string]interface{}{}
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestPasswordResetOverHTTP(t *testing.T) {
	app := newTestApp(t, true)

	resp, body := app.post(t, "/api/auth/register", `{"name": "Alice", "email": "alice@x.com", "password": "secret1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "User registered successfully", body["msg"])

	resp, _ = app.post(t, "/api/auth/login", `{"email": "ALICE@X.COM", "password": "secret1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = app.post(t, "/api/auth/forgot-password", `{"email": "alice@x.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := resp.Header.Get(sendpasswordresettoken.TestModeTokenHeader)
	require.NotEmpty(t, token)
	require.Equal(t, "If this email exists, a reset link has been sent", body["msg"])

	app.services.Wait()
	require.Equal(t, 1, app.publisher.SentCount())

	resp, body = app.post(t, "/api/auth/reset-password/"+token, `{"password": "new-secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Password reset successful", body["msg"])

	resp, body = app.post(t, "/api/auth/reset-password/"+token, `{"password": "new-secret"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, "invalid or expired token", body["error"])

	resp, _ = app.post(t, "/api/auth/login", `{"email": "alice@x.com", "password": "secret1"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = app.post(t, "/api/auth/login", `{"email": "alice@x.com", "password": "new-secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTokenHeaderIsHiddenOutsideTestMode(t *testing.T) {
	app := newTestApp(t, false)
	app.post(t, "/api/auth/register", `{"name": "Alice", "email": "alice@x.com", "password": "secret1"}`)

	resp, _ := app.post(t, "/api/auth/forgot-password", `{"email": "alice@x.com"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, resp.Header.Get(sendpasswordresettoken.TestModeTokenHeader))
	app.services.Wait()
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t, false)
	app.post(t, "/api/auth/login", `{"email": "alice@x.com", "password": "secret1"}`)

	resp, err := http.Get(app.server.URL + "/healthz")
	require.Nil(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(app.server.URL + "/metrics")
	require.Nil(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw := new(strings.Builder)
	_, err = io.Copy(raw, resp.Body)
	require.Nil(t, err)
	require.Contains(t, raw.String(), `resetflow_service_runs_total{outcome="error",service="log_in_with_email"} 1`)
}
