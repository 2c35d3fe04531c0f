package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/dormhub/dormhub/internal/bill/domain"
	"github.com/dormhub/dormhub/internal/clock"
	"github.com/dormhub/dormhub/internal/config"
	contractdomain "github.com/dormhub/dormhub/internal/contract/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeContractSvc struct {
	contractdomain.Service
	sweeps int
}

func (f *fakeContractSvc) Sweep(ctx context.Context) (*contractdomain.SweepResult, error) {
	f.sweeps++
	return &contractdomain.SweepResult{}, nil
}

type fakeBillSvc struct {
	billdomain.Service
	cutoffs []time.Time
}

func (f *fakeBillSvc) MarkOverdue(ctx context.Context, before time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, before)
	return 0, nil
}

type fakeSnapshotSvc struct {
	captured [][2]int
}

func (f *fakeSnapshotSvc) Capture(ctx context.Context, roomID snowflake.ID, year, month int) error {
	return nil
}

func (f *fakeSnapshotSvc) CaptureAll(ctx context.Context, year, month int) error {
	f.captured = append(f.captured, [2]int{year, month})
	return nil
}

func newTestScheduler(fake *clock.FakeClock) (*Scheduler, *fakeContractSvc, *fakeBillSvc, *fakeSnapshotSvc) {
	contracts := &fakeContractSvc{}
	bills := &fakeBillSvc{}
	snapshots := &fakeSnapshotSvc{}

	now := fake.Now()
	s := &Scheduler{
		cfg: config.SchedulerConfig{
			Enabled:              true,
			SweepIntervalSeconds: 300,
			OverdueAfterDays:     30,
			LockTTLSeconds:       240,
		},
		log:           zap.NewNop(),
		clock:         fake,
		locker:        nil, // single-instance mode
		contractSvc:   contracts,
		billSvc:       bills,
		snapshotSvc:   snapshots,
		lastSeenYear:  now.Year(),
		lastSeenMonth: now.Month(),
	}
	return s, contracts, bills, snapshots
}

func TestTickRunsJobs(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	s, contracts, bills, snapshots := newTestScheduler(fake)
	ctx := context.Background()

	s.Tick(ctx)
	assert.Equal(t, 1, contracts.sweeps)
	assert.Len(t, bills.cutoffs, 1)
	// Today minus the 30-day grace lands on 2026-02-08, so February is
	// the first month still inside its due window.
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), bills.cutoffs[0])
	assert.Empty(t, snapshots.captured, "no month boundary crossed")
}

func TestMonthRolloverTriggersSnapshot(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC))
	s, _, _, snapshots := newTestScheduler(fake)
	ctx := context.Background()

	s.Tick(ctx)
	assert.Empty(t, snapshots.captured)

	fake.Set(time.Date(2026, 4, 1, 0, 5, 0, 0, time.UTC))
	s.Tick(ctx)
	assert.Equal(t, [][2]int{{2026, 3}}, snapshots.captured)

	// The rollover fires once per month boundary.
	fake.Advance(time.Hour)
	s.Tick(ctx)
	assert.Len(t, snapshots.captured, 1)
}
