package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/BrunoDobem/dowloadimg/pkg/errors"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesNetworkErrors(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return errs.New(errs.ErrorTypeNetwork, "connection reset")
		}
		return nil
	}, fastConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errs.New(errs.ErrorTypeDecode, "corrupt payload")
	}, fastConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, errs.ErrorTypeDecode, errs.TypeOf(err))
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errs.New(errs.ErrorTypeNetwork, "timeout")
	}, fastConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "max retry attempts")
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(0)
	cfg.Backoff = &ConstantBackoff{Delay: 50 * time.Millisecond}
	cfg.Context = ctx

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Do(func() error {
		return errs.New(errs.ErrorTypeNetwork, "timeout")
	}, cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry cancelled")
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(context.DeadlineExceeded))
	assert.True(t, DefaultRetryIf(errs.New(errs.ErrorTypeNetwork, "reset")))
	assert.False(t, DefaultRetryIf(errs.New(errs.ErrorTypeStorage, "mkdir")))
	assert.True(t, DefaultRetryIf(fmt.Errorf("untyped error")))
}

func TestExponentialBackoffGrows(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	assert.Equal(t, time.Duration(0), eb.NextDelay(0))
	assert.Equal(t, 10*time.Millisecond, eb.NextDelay(1))
	assert.Equal(t, 20*time.Millisecond, eb.NextDelay(2))
	assert.Equal(t, 40*time.Millisecond, eb.NextDelay(3))
	assert.Equal(t, time.Second, eb.NextDelay(20), "delay is capped at MaxDelay")
}
