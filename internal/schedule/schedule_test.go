// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/preprint-herald/internal/logger"
	"github.com/pdiddy/preprint-herald/internal/pipeline"
)

type countingRunner struct {
	calls   atomic.Int32
	release chan struct{}
	started chan struct{}
	once    sync.Once
	err     error
	panics  bool
}

func (r *countingRunner) Run(ctx context.Context) (pipeline.RunSummary, error) {
	r.calls.Add(1)
	if r.started != nil {
		r.once.Do(func() { close(r.started) })
	}
	if r.panics {
		panic("boom")
	}
	if r.release != nil {
		<-r.release
	}
	return pipeline.RunSummary{}, r.err
}

func TestNew_RejectsShortInterval(t *testing.T) {
	_, err := New(&countingRunner{}, 500*time.Millisecond, nil)
	assert.Error(t, err)

	s, err := New(&countingRunner{}, time.Hour, nil)
	require.NoError(t, err)
	assert.NotNil(t, s.log)
}

func TestRun_ImmediateFirstRun(t *testing.T) {
	r := &countingRunner{started: make(chan struct{})}
	s, err := New(r, time.Hour, logger.NewNop())
	require.NoError(t, err)
	s.RunImmediately = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-r.started:
	case <-time.After(2 * time.Second):
		t.Fatal("immediate run did not start")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestRun_WaitsForInFlightRun(t *testing.T) {
	r := &countingRunner{started: make(chan struct{}), release: make(chan struct{})}
	s, err := New(r, time.Hour, nil)
	require.NoError(t, err)
	s.RunImmediately = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Run(ctx) }()

	<-r.started
	cancel()

	select {
	case <-done:
		t.Fatal("scheduler returned while a run was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(r.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after the run finished")
	}
}

func TestJob_SkipsOverlappingRun(t *testing.T) {
	r := &countingRunner{started: make(chan struct{}), release: make(chan struct{})}
	s, err := New(r, time.Hour, nil)
	require.NoError(t, err)

	job := s.job(context.Background(), cronLogger{log: logger.NewNop()})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Run()
	}()
	<-r.started

	// The second invocation returns at once without calling the runner.
	job.Run()
	assert.Equal(t, int32(1), r.calls.Load())

	close(r.release)
	wg.Wait()

	r.release = nil
	job.Run()
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestJob_RecoversPanic(t *testing.T) {
	r := &countingRunner{panics: true}
	s, err := New(r, time.Hour, nil)
	require.NoError(t, err)

	job := s.job(context.Background(), cronLogger{log: logger.NewNop()})
	for range 5 {
		assert.NotPanics(t, job.Run)
	}
	assert.Equal(t, int32(5), r.calls.Load())

	// A panicking run must not leave the overlap guard held.
	r.panics = false
	job.Run()
	assert.Equal(t, int32(6), r.calls.Load())
}

func TestJob_SkipsAfterCancel(t *testing.T) {
	r := &countingRunner{err: errors.New("listing unavailable")}
	s, err := New(r, time.Hour, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	job := s.job(ctx, cronLogger{log: logger.NewNop()})
	job.Run()
	cancel()
	job.Run()
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestKVFields(t *testing.T) {
	fields := kvFields([]any{"entry", 1, "next", "soon", "dangling"})
	require.Len(t, fields, 2)
	assert.Equal(t, "entry", fields[0].Key)
	assert.Equal(t, "next", fields[1].Key)
}
