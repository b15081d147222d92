package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeExecutor struct {
	mu       sync.Mutex
	executed []ReportType
	failN    int32 // fail the first N calls
	calls    atomic.Int32
}

func (f *fakeExecutor) Execute(ctx context.Context, job *Job) error {
	n := f.calls.Add(1)
	if n <= f.failN {
		return errors.New("synthetic failure")
	}
	f.mu.Lock()
	f.executed = append(f.executed, job.ReportType)
	f.mu.Unlock()
	return nil
}

func testConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 2,
		JobTimeout:        time.Second,
		RetryAttempts:     2,
		RetryDelay:        time.Millisecond,
	}
}

func TestScheduler_SubmitJobExecutes(t *testing.T) {
	exec := &fakeExecutor{}
	s := NewScheduler(testConfig(), exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	job := NewJob(nil, ReportTypeSalesSummary, time.Now(), time.Now(), 2)
	require.NoError(t, s.SubmitJob(job))

	require.Eventually(t, func() bool {
		exec.mu.Lock()
		defer exec.mu.Unlock()
		return len(exec.executed) == 1
	}, time.Second, time.Millisecond)
}

func TestScheduler_SubmitRefusedWhenNotRunning(t *testing.T) {
	exec := &fakeExecutor{}
	s := NewScheduler(testConfig(), exec, zap.NewNop())

	job := NewJob(nil, ReportTypeSalesSummary, time.Now(), time.Now(), 0)
	assert.ErrorIs(t, s.SubmitJob(job), ErrSchedulerNotRunning)
}

func TestScheduler_RetriesFailedJob(t *testing.T) {
	exec := &fakeExecutor{failN: 1}
	s := NewScheduler(testConfig(), exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	job := NewJob(nil, ReportTypeInventorySummary, time.Now(), time.Now(), 2)
	require.NoError(t, s.SubmitJob(job))

	require.Eventually(t, func() bool {
		return exec.calls.Load() >= 2
	}, time.Second, time.Millisecond)
}

func TestScheduler_ScheduleDailyReportsSubmitsEveryType(t *testing.T) {
	exec := &fakeExecutor{}
	s := NewScheduler(testConfig(), exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	require.NoError(t, s.ScheduleDailyReports(nil))

	require.Eventually(t, func() bool {
		exec.mu.Lock()
		defer exec.mu.Unlock()
		return len(exec.executed) == len(AllReportTypes())
	}, time.Second, time.Millisecond)
}

func TestScheduler_StatisticsZeroBeforeStart(t *testing.T) {
	s := NewScheduler(testConfig(), &fakeExecutor{}, zap.NewNop())
	assert.Equal(t, 0, s.Statistics().WorkingThreads+s.Statistics().WaitingThreads)
}

func TestJob_RetryLifecycle(t *testing.T) {
	job := NewJob(nil, ReportTypeProductRanking, time.Now(), time.Now(), 1)
	job.Start()
	job.Fail("boom")
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Millisecond)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, JobStatusPending, job.Status)

	job.Fail("boom again")
	assert.False(t, job.ShouldRetry(), "exhausted max retries")
}
