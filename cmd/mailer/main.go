package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"resetflow/internal/app"
	"resetflow/internal/app/consumers"
	"resetflow/internal/app/deps"
	"resetflow/internal/app/services"
	"syscall"

	dl "resetflow/internal/core/domain/logging"
)

func main() {
	deps, shutdownDeps := deps.InitDeps()
	defer shutdownDeps()
	log := deps.Logger

	services := services.InitServices(deps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	metricsServer := app.InitMetricsServer(deps)
	if metricsServer != nil {
		go serveMetrics(metricsServer, deps)
		defer metricsServer.Close()
	}

	waitConsumers := consumers.InitConsumers(ctx, deps, services)
	log.Info(context.Background(), "Mailer has started.")

	<-ctx.Done()
	log.Info(context.Background(), "Mailer is stopping gracefully.")
	waitConsumers()
	log.Info(context.Background(), "Mailer has stopped.")
}

func serveMetrics(server *http.Server, deps *deps.Deps) {
	deps.Logger.Info(context.Background(), "Metrics server has started.", dl.Entry("address", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		deps.Logger.Error(context.Background(), "Metrics server failed.", dl.Entry("err", err))
	}
}
