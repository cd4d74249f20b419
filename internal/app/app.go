package app

import (
	"fmt"
	"net/http"
	"resetflow/internal/app/deps"
	"resetflow/internal/app/services"
	loginwithemail "resetflow/internal/http/handlers/auth/log_in_with_email"
	resetpassword "resetflow/internal/http/handlers/auth/reset_password"
	sendpasswordresettoken "resetflow/internal/http/handlers/auth/send_password_reset_token"
	signupwithemail "resetflow/internal/http/handlers/auth/sign_up_with_email"
	"resetflow/internal/http/handlers/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func InitHttpServer(deps *deps.Deps, s *services.Services) *http.Server {
	return &http.Server{
		Handler: NewRouter(deps, s),
		Addr:    fmt.Sprintf("0.0.0.0:%d", deps.Config.Port),
	}
}

func NewRouter(deps *deps.Deps, s *services.Services) http.Handler {
	authRouter := chi.NewRouter()
	authRouter.Method(http.MethodPost, "/register", signupwithemail.New(s.SignUpWithEmail))
	authRouter.Method(http.MethodPost, "/login", loginwithemail.New(s.LogInWithEmail))
	authRouter.Method(
		http.MethodPost,
		"/forgot-password",
		sendpasswordresettoken.New(s.SendPasswordResetToken, deps.Config.IsTestMode),
	)
	authRouter.Method(http.MethodPost, "/reset-password/{token}", resetpassword.New(s.ResetPassword))

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{sendpasswordresettoken.TestModeTokenHeader},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	router.Mount("/api/auth", authRouter)
	router.Method(http.MethodGet, "/metrics", NewMetricsHandler(deps))
	router.Get("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		response.RenderMessage(rw, "ok", http.StatusOK)
	})

	return router
}

func NewMetricsHandler(deps *deps.Deps) http.Handler {
	return promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{})
}

// InitMetricsServer serves metrics for the background processes. It returns
// nil when no metrics port is configured.
func InitMetricsServer(deps *deps.Deps) *http.Server {
	if deps.Config.MetricsPort == 0 {
		return nil
	}
	router := chi.NewRouter()
	router.Method(http.MethodGet, "/metrics", NewMetricsHandler(deps))
	return &http.Server{
		Handler: router,
		Addr:    fmt.Sprintf("0.0.0.0:%d", deps.Config.MetricsPort),
	}
}
