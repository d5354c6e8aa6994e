package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/inventory-es/pkg/errors"
)

func testConfig(name string) Config {
	cfg := DefaultConfig(name)
	cfg.MinRequests = 2
	cfg.Timeout = 20 * time.Millisecond
	cfg.Interval = 0
	return cfg
}

func TestExecute_PassesThroughSuccess(t *testing.T) {
	b := New(testConfig(t.Name()), nil)

	result, err := b.Execute(context.Background(), func() (any, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestExecute_PropagatesUnderlyingError(t *testing.T) {
	b := New(testConfig(t.Name()), nil)
	wantErr := errors.New("boom")

	_, err := b.Execute(context.Background(), func() (any, error) {
		return nil, wantErr
	})

	assert.ErrorIs(t, err, wantErr)
}

func TestExecute_TripsOpenAfterFailureRatioExceeded(t *testing.T) {
	cfg := testConfig(t.Name())
	b := New(cfg, nil)

	for i := 0; i < int(cfg.MinRequests); i++ {
		_, _ = b.Execute(context.Background(), func() (any, error) {
			return nil, errors.New("fail")
		})
	}

	_, err := b.Execute(context.Background(), func() (any, error) {
		return "should not run", nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCircuitOpen)
}

func TestExecute_RecoversAfterTimeoutThroughHalfOpen(t *testing.T) {
	cfg := testConfig(t.Name())
	b := New(cfg, nil)

	for i := 0; i < int(cfg.MinRequests); i++ {
		_, _ = b.Execute(context.Background(), func() (any, error) {
			return nil, errors.New("fail")
		})
	}
	_, err := b.Execute(context.Background(), func() (any, error) { return nil, nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCircuitOpen)

	time.Sleep(cfg.Timeout + 10*time.Millisecond)

	result, err := b.Execute(context.Background(), func() (any, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
}
