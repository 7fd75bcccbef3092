package metrics

import (
	"context"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

const (
	pushRetries    = 3
	pushRetryDelay = 100 * time.Millisecond
)

// retryableHTTPLogger adapts zap.Logger to retryablehttp.LeveledLogger.
type retryableHTTPLogger struct {
	inner *zap.Logger
}

func (r retryableHTTPLogger) Error(msg string, args ...any) {
	r.inner.Sugar().Errorw(msg, args...)
}

func (r retryableHTTPLogger) Info(msg string, args ...any) {
	r.inner.Sugar().Infow(msg, args...)
}

func (r retryableHTTPLogger) Warn(msg string, args ...any) {
	r.inner.Sugar().Warnw(msg, args...)
}

func (r retryableHTTPLogger) Debug(msg string, args ...any) {
	r.inner.Sugar().Debugw(msg, args...)
}

// StartPushingMetrics pushes metrics from the default registry to a pushgateway
// at url every period until ctx is cancelled. Series are grouped by attendee identity.
// Failed pushes are retried a few times before the next period.
func StartPushingMetrics(
	ctx context.Context,
	logger *zap.Logger,
	clock clockwork.Clock,
	url string,
	period time.Duration,
	identity string,
) {
	client := retryablehttp.NewClient()
	client.RetryMax = pushRetries
	client.RetryWaitMin = pushRetryDelay
	client.RetryWaitMax = 2 * pushRetryDelay
	client.Logger = retryableHTTPLogger{logger}
	pusher := push.New(url, Namespace).
		Client(client.StandardClient()).
		Gatherer(prometheus.DefaultGatherer).
		Grouping("identity", identity)
	go func() {
		ticker := clock.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if err := pusher.PushContext(ctx); err != nil {
					logger.Warn("failed to push metrics", zap.String("url", url), zap.Error(err))
				}
			}
		}
	}()
}
