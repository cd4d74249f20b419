package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"resetflow/internal/app"
	"resetflow/internal/app/deps"
	"resetflow/internal/app/services"
	"resetflow/internal/core/domain/logging"
	clearexpiredpasswordresets "resetflow/internal/core/services/clear_expired_password_resets"
	"syscall"
	"time"
)

func main() {
	deps, shutdownDeps := deps.InitDeps()
	log := deps.Logger
	defer shutdownDeps()

	services := services.InitServices(deps)

	metricsServer := app.InitMetricsServer(deps)
	if metricsServer != nil {
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(context.Background(), "Metrics server failed.", logging.Entry("err", err))
			}
		}()
		defer metricsServer.Close()
	}

	ticker := time.NewTicker(deps.Config.ExpiredPasswordResetsCleanupPeriod)
	defer ticker.Stop()

	stopCh, closeCh := createChannel()
	defer closeCh()

	log.Info(
		context.Background(),
		"Starting periodic cleanup of expired password resets.",
		logging.Entry("periodSeconds", deps.Config.ExpiredPasswordResetsCleanupPeriod.Seconds()),
	)

loop:
	for {
		select {
		case <-stopCh:
			log.Info(context.Background(), "Stopping periodic cleanup of expired password resets.")
			break loop
		case <-ticker.C:
			_, err := services.ClearExpiredPasswordResets.Run(
				context.Background(),
				clearexpiredpasswordresets.Input{},
			)
			if err != nil {
				log.Error(context.Background(), "Cleanup service returned an error.", logging.Entry("err", err))
			}
		}
	}
}

func createChannel() (chan os.Signal, func()) {
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	return stopCh, func() {
		close(stopCh)
	}
}
