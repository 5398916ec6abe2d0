package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverforge/statestream/pkg/scheduler"
)

func TestAddPeriodicRejectsSubMinimumInterval(t *testing.T) {
	s := scheduler.New(nil, nil)
	err := s.AddPeriodic(time.Millisecond, func(ctx context.Context) error { return nil })
	require.Error(t, err)
}

func TestAddPeriodicFiresRepeatedly(t *testing.T) {
	s := scheduler.New(nil, nil)
	defer s.Stop()

	var count int64
	err := s.AddPeriodic(scheduler.MinPeriodicInterval, func(ctx context.Context) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&count) >= 3
	}, time.Second, scheduler.MinPeriodicInterval)
}

func TestOnExecutedRunsAfterEveryInvocationEvenOnError(t *testing.T) {
	var executed int64
	s := scheduler.New(func() { atomic.AddInt64(&executed, 1) }, nil)
	defer s.Stop()

	err := s.AddPeriodic(scheduler.MinPeriodicInterval, func(ctx context.Context) error {
		return errors.New("boom")
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&executed) >= 2
	}, time.Second, scheduler.MinPeriodicInterval)
}

func TestCrontabFires(t *testing.T) {
	s := scheduler.New(nil, nil)
	defer s.Stop()

	fired := make(chan struct{}, 1)
	_, err := s.AddCrontab("* * * * * *", func(ctx context.Context) error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	})
	require.NoError(t, err)
	s.Start()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("crontab callback never fired")
	}
}

func TestStopWaitsForGoroutines(t *testing.T) {
	s := scheduler.New(nil, nil)
	var running int64
	err := s.AddPeriodic(scheduler.MinPeriodicInterval, func(ctx context.Context) error {
		atomic.AddInt64(&running, 1)
		return nil
	})
	require.NoError(t, err)

	s.Stop()
	assert.True(t, atomic.LoadInt64(&running) >= 0)
}
