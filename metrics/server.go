// Package metrics define telemetry primitives to use across components. it uses the prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 5 * time.Second

// StartServer serves prometheus metrics on addr under /metrics until ctx is cancelled.
// The returned channel is closed once the server has exited.
func StartServer(ctx context.Context, logger *zap.Logger, addr string) <-chan struct{} {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	var handler http.Handler = router
	if access, err := zap.NewStdLogAt(logger.Named("http"), zapcore.DebugLevel); err == nil {
		handler = handlers.LoggingHandler(access.Writer(), handler)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handlers.RecoveryHandler()(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("serving metrics", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
	return done
}
