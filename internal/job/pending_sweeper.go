package job

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

type PendingExpirer interface {
	ExpirePendingOrders(ctx context.Context, maxAge time.Duration) (int64, error)
}

// 放置されたPENDING注文を定期的に消す
type PendingSweeper struct {
	orders   PendingExpirer
	interval time.Duration
	maxAge   time.Duration

	expired metric.Int64Counter
	failed  metric.Int64Counter
}

func NewPendingSweeper(orders PendingExpirer, interval, maxAge time.Duration, mp metric.MeterProvider) (*PendingSweeper, error) {
	if interval <= 0 {
		return nil, errors.New("sweep interval must be positive")
	}
	if maxAge <= 0 {
		return nil, errors.New("sweep max age must be positive")
	}

	meter := mp.Meter("oliveshop/job")
	expired, err := meter.Int64Counter("orders.pending_expired",
		metric.WithDescription("PENDING orders removed by the sweeper"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create expired counter")
	}
	failed, err := meter.Int64Counter("orders.pending_sweep_failures",
		metric.WithDescription("Sweeper runs that returned an error"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create failure counter")
	}

	return &PendingSweeper{
		orders:   orders,
		interval: interval,
		maxAge:   maxAge,
		expired:  expired,
		failed:   failed,
	}, nil
}

// ctxが終わるまで回す。失敗はログだけ出して次のtickで再実行
func (s *PendingSweeper) Run(ctx context.Context) error {
	lg := zctx.From(ctx)
	lg.Info("Pending sweeper started",
		zap.Duration("interval", s.interval),
		zap.Duration("max_age", s.maxAge),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			lg.Info("Pending sweeper stopped")
			return nil
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *PendingSweeper) SweepOnce(ctx context.Context) int64 {
	attrs := metric.WithAttributes(attribute.String("max_age", s.maxAge.String()))

	n, err := s.orders.ExpirePendingOrders(ctx, s.maxAge)
	if err != nil {
		s.failed.Add(ctx, 1, attrs)
		zctx.From(ctx).Error("Pending sweep failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		s.expired.Add(ctx, n, attrs)
		zctx.From(ctx).Info("Expired pending orders", zap.Int64("deleted", n))
	}
	return n
}
