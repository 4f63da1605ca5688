package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/apparentlymart/go-pipework/internal/logging"
	"github.com/apparentlymart/go-pipework/resource"
)

// scenario holds what every subcommand needs once its flags are read.
type scenario struct {
	logger     *zap.Logger
	arena      *resource.Arena
	workers    int
	iterations int
	size       int
	seed       int64
}

// startScenario reads the shared settings, builds the logger and arena, and
// starts the metrics server if one was asked for. The returned context ends
// once the configured duration passes, and the returned function must be
// called to release everything.
func startScenario(ctx context.Context) (*scenario, context.Context, func(), error) {
	logger, err := logging.New(viper.GetString(logFormatFlag), viper.GetString(logLevelFlag))
	if err != nil {
		return nil, nil, nil, err
	}

	s := &scenario{
		logger:     logger,
		workers:    viper.GetInt(workersFlag),
		iterations: viper.GetInt(iterationsFlag),
		size:       viper.GetInt(sizeFlag),
		seed:       viper.GetInt64(seedFlag),
	}
	if s.workers < 1 || s.iterations < 1 || s.size < 2 {
		return nil, nil, nil, fmt.Errorf("--%s and --%s must be at least 1 and --%s at least 2", workersFlag, iterationsFlag, sizeFlag)
	}
	s.arena = resource.NewArena(
		resource.WithGatewayThreshold(viper.GetInt(thresholdFlag)),
		resource.WithLogger(logger),
	)

	cancel := func() {}
	if d := viper.GetDuration(durationFlag); d > 0 {
		ctx, cancel = context.WithTimeout(ctx, d)
	}

	var metricsServer *http.Server
	if addr := viper.GetString(metricsAddrFlag); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: addr, Handler: mux}

		go func() {
			logger.Info("starting prometheus metrics server", zap.String("addr", addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("prometheus metrics server failed", zap.Error(err))
			}
		}()
	}

	stop := func() {
		cancel()
		if metricsServer != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}
		_ = logger.Sync()
	}
	return s, ctx, stop, nil
}

// newPool returns a pool of the scenario's size where each task respects
// context cancellation and Wait reports the first error seen.
func (s *scenario) newPool(ctx context.Context) *pool.ContextPool {
	return pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(s.workers)
}

// randFor returns a source for one worker, so that a run is reproducible for a
// given seed.
func (s *scenario) randFor(worker int) *rand.Rand {
	return rand.New(rand.NewSource(s.seed + int64(worker)))
}
