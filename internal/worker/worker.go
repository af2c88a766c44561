// Package worker runs one event consumer process: broker consumer, optional
// dedupe store and optional metrics listener, all tied to one context.
package worker

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/config"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/dedupe"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/rabbitmq"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Worker describes a consumer process.
type Worker struct {
	Name    string
	Binding rabbitmq.Binding
	// NewHandler builds the event handler once the dedupe store is known.
	NewHandler func(store dedupe.Store) rabbitmq.Handler
}

// Run blocks until ctx is cancelled. A missing broker URL is reported before
// any connection attempt.
func Run(ctx context.Context, cfg *config.Config, w Worker, logger *zap.Logger, opts ...rabbitmq.ConsumerOption) error {
	if err := cfg.RequireBroker(); err != nil {
		return err
	}
	if err := w.Binding.Validate(); err != nil {
		return err
	}

	store := dedupeStore(ctx, cfg, logger)
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	opts = append([]rabbitmq.ConsumerOption{rabbitmq.WithLogger(logger)}, opts...)
	consumer := rabbitmq.NewConsumer(cfg.RabbitMQURL, rabbitmq.ConsumerConfig{
		Binding:      w.Binding,
		ConsumerName: w.Name,
	}, w.NewHandler(store), opts...)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("consumer running",
			zap.String("exchange", w.Binding.Exchange),
			zap.String("queue", w.Binding.Queue),
			zap.String("pattern", w.Binding.Pattern))
		return consumer.Run(gctx)
	})

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

// redisDedupe wraps a RedisStore with its client so Run can close it.
type redisDedupe struct {
	*dedupe.RedisStore
	close func() error
}

func (r redisDedupe) Close() error { return r.close() }

// dedupeStore connects to Redis when configured. An unreachable Redis
// degrades to no dedupe rather than stopping the consumer.
func dedupeStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) dedupe.Store {
	if cfg.RedisAddr == "" {
		return dedupe.Nop{}
	}

	rdb, err := dedupe.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, duplicate deliveries will be processed again",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
		return dedupe.Nop{}
	}

	logger.Info("dedupe enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.DedupeTTL))
	return redisDedupe{RedisStore: dedupe.NewRedisStore(rdb, cfg.DedupeTTL), close: rdb.Close}
}
