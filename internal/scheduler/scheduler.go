// Package scheduler drives the periodic jobs: the contract sweep,
// overdue bill marking and the month-boundary occupancy snapshot.
package scheduler

import (
	"context"
	"time"

	billdomain "github.com/dormhub/dormhub/internal/bill/domain"
	"github.com/dormhub/dormhub/internal/clock"
	"github.com/dormhub/dormhub/internal/config"
	contractdomain "github.com/dormhub/dormhub/internal/contract/domain"
	snapshotdomain "github.com/dormhub/dormhub/internal/snapshot/domain"
	"github.com/dormhub/dormhub/pkg/billmonth"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	lockKeySweep    = "dormhub:job:contract_sweep"
	lockKeyOverdue  = "dormhub:job:bill_overdue"
	lockKeySnapshot = "dormhub:job:occupancy_snapshot"
)

type Params struct {
	fx.In

	Config      config.Config
	Log         *zap.Logger
	Clock       clock.Clock
	Locker      *Locker
	ContractSvc contractdomain.Service
	BillSvc     billdomain.Service
	SnapshotSvc snapshotdomain.Service
}

type Scheduler struct {
	cfg         config.SchedulerConfig
	log         *zap.Logger
	clock       clock.Clock
	locker      *Locker
	contractSvc contractdomain.Service
	billSvc     billdomain.Service
	snapshotSvc snapshotdomain.Service

	// lastSeenMonth detects the month rollover for the snapshot job.
	lastSeenMonth time.Month
	lastSeenYear  int

	cancel context.CancelFunc
	done   chan struct{}
}

func New(p Params) *Scheduler {
	return &Scheduler{
		cfg:         p.Config.Scheduler,
		log:         p.Log.Named("scheduler"),
		clock:       p.Clock,
		locker:      p.Locker,
		contractSvc: p.ContractSvc,
		billSvc:     p.BillSvc,
		snapshotSvc: p.SnapshotSvc,
	}
}

// Start launches the tick loop. It is a no-op when the scheduler is
// disabled in configuration.
func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		s.log.Info("scheduler disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	now := s.clock.Now()
	s.lastSeenYear, s.lastSeenMonth = now.Year(), now.Month()

	interval := time.Duration(s.cfg.SweepIntervalSeconds) * time.Second
	go s.run(ctx, interval)
	s.log.Info("scheduler started", zap.Duration("interval", interval))
}

func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Scheduler) run(ctx context.Context, interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs every due job once. Exported so tests and admin endpoints
// can drive the scheduler without waiting on the ticker.
func (s *Scheduler) Tick(ctx context.Context) {
	lockTTL := time.Duration(s.cfg.LockTTLSeconds) * time.Second

	s.withLock(ctx, lockKeySweep, lockTTL, s.sweepContracts)
	s.withLock(ctx, lockKeyOverdue, lockTTL, s.markOverdueBills)

	if s.monthRolledOver() {
		s.withLock(ctx, lockKeySnapshot, lockTTL, s.snapshotClosedMonth)
	}
}

func (s *Scheduler) withLock(ctx context.Context, key string, ttl time.Duration, job func(ctx context.Context)) {
	token, ok, err := s.locker.TryLock(ctx, key, ttl)
	if err != nil {
		s.log.Error("job lock failed", zap.String("key", key), zap.Error(err))
		return
	}
	if !ok {
		return
	}
	defer func() {
		if err := s.locker.Release(ctx, key, token); err != nil {
			s.log.Warn("job lock release failed", zap.String("key", key), zap.Error(err))
		}
	}()
	job(ctx)
}

func (s *Scheduler) sweepContracts(ctx context.Context) {
	result, err := s.contractSvc.Sweep(ctx)
	if err != nil {
		s.log.Error("contract sweep failed", zap.Error(err))
		return
	}
	if result.Activated > 0 || result.Expired > 0 || result.Skipped > 0 {
		s.log.Info("contract sweep",
			zap.Int("activated", result.Activated),
			zap.Int("expired", result.Expired),
			zap.Int("skipped", result.Skipped),
		)
	}
}

func (s *Scheduler) markOverdueBills(ctx context.Context) {
	// A bill for month M is overdue once the last day of M plus the
	// grace window has passed, which is exactly the months strictly
	// before Truncate(today - grace).
	cutoff := billmonth.Truncate(clock.Today(s.clock).AddDate(0, 0, -s.cfg.OverdueAfterDays))
	changed, err := s.billSvc.MarkOverdue(ctx, cutoff)
	if err != nil {
		s.log.Error("overdue marking failed", zap.Error(err))
		return
	}
	if changed > 0 {
		s.log.Info("bills marked overdue", zap.Int64("count", changed))
	}
}

// monthRolledOver reports whether the civil month changed since the
// previous tick and advances the marker.
func (s *Scheduler) monthRolledOver() bool {
	now := s.clock.Now()
	if now.Year() == s.lastSeenYear && now.Month() == s.lastSeenMonth {
		return false
	}
	s.lastSeenYear, s.lastSeenMonth = now.Year(), now.Month()
	return true
}

// snapshotClosedMonth materializes occupancy history for the month that
// just ended.
func (s *Scheduler) snapshotClosedMonth(ctx context.Context) {
	now := s.clock.Now()
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	if err := s.snapshotSvc.CaptureAll(ctx, prev.Year(), int(prev.Month())); err != nil {
		s.log.Error("month snapshot failed", zap.Error(err))
		return
	}
	s.log.Info("month snapshot captured",
		zap.Int("year", prev.Year()),
		zap.Int("month", int(prev.Month())),
	)
}
