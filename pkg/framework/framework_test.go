package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Aggregate())

	errs.Add(nil, errors.New("first"), nil, errors.New("second"))
	err := errs.Aggregate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "first")
	require.Contains(t, err.Error(), "second")
}

func TestRunnerWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunnerWith(ctx)

	runner.Go(RunnableFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	runner.Go(NamedRun("boom", RunnableFunc(func(ctx context.Context) error {
		return errors.New("boom")
	})))

	cancel()
	err := runner.Wait()
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
	require.NotContains(t, err.Error(), "context canceled")
}

type closeOnce struct {
	closed chan struct{}
}

func (c *closeOnce) Close() error {
	close(c.closed)
	return nil
}

func TestRunWithContextCloser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	closer := &closeOnce{closed: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		done <- RunWithContextCloser(ctx, closer, func() error {
			<-closer.closed
			return nil
		})
	}()

	cancel()
	select {
	case err := <-done:
		require.Equal(t, context.Canceled, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}
