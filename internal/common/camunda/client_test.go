package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
)

func TestRetry_SucceedsAfterTransientErrors(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	calls := 0

	err := Retry(context.Background(), cfg, isRetryableZeebeError, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 5, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	calls := 0

	err := Retry(context.Background(), cfg, isRetryableZeebeError, func(context.Context) error {
		calls++
		return errors.New("permission denied")
	})

	assert.EqualError(t, err, "permission denied")
	assert.Equal(t, 1, calls)
}

func TestRetry_HonoursContext(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, cfg, isRetryableZeebeError, func(context.Context) error {
		return errors.New("deadline exceeded")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

type recorder struct {
	processed []string
	durations int
}

func (r *recorder) RecordJobProcessed(_ context.Context, taskType, status string) {
	r.processed = append(r.processed, taskType+":"+status)
}

func (r *recorder) RecordJobDuration(context.Context, string, time.Duration) {
	r.durations++
}

func TestInstrument(t *testing.T) {
	rec := &recorder{}
	called := false

	handler := Instrument("route-question", func(worker.JobClient, entities.Job) {
		called = true
	}, rec)
	handler(nil, entities.Job{})

	assert.True(t, called)
	assert.Equal(t, []string{"route-question:processed"}, rec.processed)
	assert.Equal(t, 1, rec.durations)
}
