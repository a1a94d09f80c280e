package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	reporter "github.com/ethereum-optimism/infra/op-reporter"
	"github.com/ethereum-optimism/infra/op-reporter/exitcodes"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil", err: nil, expected: exitcodes.Success},
		{name: "runtime error", err: reporter.NewRuntimeError(errors.New("no input")), expected: exitcodes.RuntimeErr},
		{
			name:     "wrapped runtime error",
			err:      fmt.Errorf("generate: %w", reporter.NewRuntimeError(errors.New("bad config"))),
			expected: exitcodes.RuntimeErr,
		},
		{
			name:     "configuration error",
			err:      &reporter.ConfigurationError{Field: "config", Err: errors.New("unreadable")},
			expected: exitcodes.RuntimeErr,
		},
		{name: "other error", err: errors.New("boom"), expected: exitcodes.Failure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exitCode(tt.err))
		})
	}
}

func TestNewApp(t *testing.T) {
	app := newApp()
	assert.Equal(t, "op-reporter", app.Name)
	require.NotNil(t, app.Action)
	require.NotNil(t, app.Command("generate"))
	require.NotNil(t, app.Command("serve"))
}

type stubLifecycle struct {
	stopped bool
	stopErr error
}

func (s *stubLifecycle) Start(context.Context) error { return nil }

func (s *stubLifecycle) Stop(context.Context) error {
	s.stopped = true
	return s.stopErr
}

func (s *stubLifecycle) Stopped() bool { return s.stopped }

func TestTelemetryLifecycleStop(t *testing.T) {
	inner := &stubLifecycle{stopErr: errors.New("stop failed")}
	flushed := false
	lc := &telemetryLifecycle{Lifecycle: inner, shutdown: func() { flushed = true }}

	err := lc.Stop(context.Background())
	assert.EqualError(t, err, "stop failed")
	assert.True(t, inner.stopped)
	assert.True(t, flushed)
	assert.True(t, lc.Stopped())
}

func TestWithTelemetryDisabled(t *testing.T) {
	inner := &stubLifecycle{}
	action := withTelemetry(func(*cli.Context, context.CancelCauseFunc) (cliapp.Lifecycle, error) {
		return inner, nil
	})

	app := &cli.App{
		Flags: []cli.Flag{&cli.BoolFlag{Name: "telemetry"}},
		Action: func(ctx *cli.Context) error {
			lc, err := action(ctx, func(error) {})
			require.NoError(t, err)
			assert.Same(t, inner, lc)
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"op-reporter"}))
}
