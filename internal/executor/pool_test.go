package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoReturnsResult(t *testing.T) {
	p := New(context.Background(), 2)
	v, err := p.Do(context.Background(), func(context.Context) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = p.Do(context.Background(), func(context.Context) (any, error) {
		return nil, errors.New("boom")
	})
	require.EqualError(t, err, "boom")
}

func TestDoRecoversPanic(t *testing.T) {
	p := New(context.Background(), 1)
	_, err := p.Do(context.Background(), func(context.Context) (any, error) {
		panic("bad")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestCallerCancelDoesNotStopJob(t *testing.T) {
	p := New(context.Background(), 1)
	release := make(chan struct{})
	var finished atomic.Bool

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := p.Do(ctx, func(jobCtx context.Context) (any, error) {
		<-release
		finished.Store(jobCtx.Err() == nil)
		return nil, nil
	})
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	p.Wait()
	assert.True(t, finished.Load(), "job should complete under the pool context")
}

func TestLimitBoundsConcurrency(t *testing.T) {
	p := New(context.Background(), 2)
	var running, peak atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Do(context.Background(), func(context.Context) (any, error) {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil, nil
			})
		}()
	}
	wg.Wait()
	p.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestStartDoesNotWaitForBoundedJobs(t *testing.T) {
	p := New(context.Background(), 1)
	release := make(chan struct{})
	busy := make(chan struct{})
	go func() {
		_, _ = p.Do(context.Background(), func(context.Context) (any, error) {
			close(busy)
			<-release
			return nil, nil
		})
	}()
	<-busy

	started := make(chan struct{})
	returned := make(chan struct{})
	go func() {
		p.Start(func(context.Context) { close(started) })
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Start blocked behind a bounded job")
	}
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("started job did not run while the limit was taken")
	}

	close(release)
	p.Wait()
}

func TestWaitCoversStartedJobs(t *testing.T) {
	p := New(context.Background(), 1)
	var done atomic.Bool
	p.Start(func(context.Context) {
		time.Sleep(20 * time.Millisecond)
		done.Store(true)
	})
	p.Wait()
	assert.True(t, done.Load())
}

func TestStartRecoversPanic(t *testing.T) {
	p := New(context.Background(), 1)
	assert.NotPanics(t, func() {
		p.Start(func(context.Context) { panic("bad") })
		p.Wait()
	})
}
