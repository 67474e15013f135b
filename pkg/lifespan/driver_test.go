package lifespan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/appcommands/pkg/log"
	"github.com/bft-labs/appcommands/pkg/metrics"
)

// transcript records every message an application receives and sends.
type transcript struct {
	mu     sync.Mutex
	events []string
}

func (t *transcript) add(dir, typ string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, dir+" "+typ)
}

func (t *transcript) Events() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}

// scriptedApp answers each inbound message with the reply returned by respond.
// A non-nil error from respond ends the task with that error.
func scriptedApp(tr *transcript, respond func(in Message) ([]Message, error)) App {
	return func(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error {
		if scope.Type != ScopeType {
			return errors.New("unexpected scope " + scope.Type)
		}
		for {
			msg, err := receive(ctx)
			if err != nil {
				return err
			}
			tr.add("recv", msg.Type)

			replies, err := respond(msg)
			for _, r := range replies {
				tr.add("send", r.Type)
				_ = send(ctx, r)
			}
			if err != nil {
				return err
			}
			if msg.Type == TypeShutdown {
				return nil
			}
		}
	}
}

func wellBehaved(in Message) ([]Message, error) {
	switch in.Type {
	case TypeStartup:
		return []Message{{Type: TypeStartupComplete}}, nil
	case TypeShutdown:
		return []Message{{Type: TypeShutdownComplete}}, nil
	}
	return nil, nil
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAppLifespan_WellFormedHandshake(t *testing.T) {
	tr := &transcript{}
	l := New(scriptedApp(tr, wellBehaved))
	ctx := testCtx(t)

	require.NoError(t, l.Enter(ctx))
	require.NoError(t, l.Exit(ctx))

	require.Equal(t, []string{
		"recv " + TypeStartup,
		"send " + TypeStartupComplete,
		"recv " + TypeShutdown,
		"send " + TypeShutdownComplete,
	}, tr.Events())

	select {
	case <-l.Done():
	default:
		t.Fatal("application task still running after Exit")
	}
}

func TestAppLifespan_StartupFailureReturnsOriginalError(t *testing.T) {
	boom := errors.New("database unreachable")
	l := New(scriptedApp(&transcript{}, func(in Message) ([]Message, error) {
		return []Message{{Type: TypeStartupFailed, Message: boom.Error()}}, boom
	}))

	err := l.Enter(testCtx(t))
	require.Same(t, boom, err)
}

func TestAppLifespan_StartupFailedWithoutTaskError(t *testing.T) {
	app := scriptedApp(&transcript{}, func(in Message) ([]Message, error) {
		return []Message{{Type: TypeStartupFailed, Message: "no config"}}, errStop
	})
	l := New(returnNilOn(errStop, app))

	err := l.Enter(testCtx(t))
	var sf *StartupFailedError
	require.ErrorAs(t, err, &sf)
	require.Equal(t, "no config", sf.Message)
}

func TestAppLifespan_StartupFailedThenDiagnosticProceeds(t *testing.T) {
	l := New(scriptedApp(&transcript{}, func(in Message) ([]Message, error) {
		switch in.Type {
		case TypeStartup:
			return []Message{
				{Type: TypeStartupFailed, Message: "cache cold"},
				{Type: "app.diagnostic"},
			}, nil
		case TypeShutdown:
			return []Message{{Type: TypeShutdownComplete}}, nil
		}
		return nil, nil
	}))
	ctx := testCtx(t)

	require.NoError(t, l.Enter(ctx))
	require.NoError(t, l.Exit(ctx))
}

func TestAppLifespan_StartupProtocolViolation(t *testing.T) {
	l := New(scriptedApp(&transcript{}, func(in Message) ([]Message, error) {
		return []Message{{Type: TypeShutdownComplete}}, nil
	}))

	err := l.Enter(testCtx(t))
	require.ErrorIs(t, err, ErrProtocolViolation)

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "startup", pe.Phase)
	require.Equal(t, TypeShutdownComplete, pe.Got)
}

func TestAppLifespan_FailedEnterJoinsTask(t *testing.T) {
	l := New(func(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error {
		if _, err := receive(ctx); err != nil {
			return err
		}
		_ = send(ctx, Message{Type: TypeShutdownComplete})
		// Wait for a reply that never comes until Enter cancels the task.
		_, err := receive(ctx)
		return err
	})

	require.ErrorIs(t, l.Enter(testCtx(t)), ErrProtocolViolation)

	select {
	case <-l.Done():
	default:
		t.Fatal("application task still running after failed Enter returned")
	}
}

func TestAppLifespan_FailedEnterJoinIsBounded(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	rec := log.NewRecorder()

	l := New(func(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error {
		if _, err := receive(ctx); err != nil {
			return err
		}
		_ = send(ctx, Message{Type: TypeShutdownComplete})
		<-release
		return nil
	}, WithLogger(rec), WithJoinTimeout(20*time.Millisecond))

	require.ErrorIs(t, l.Enter(testCtx(t)), ErrProtocolViolation)
	require.Len(t, rec.ByLevel("WARN"), 1)
}

func TestAppLifespan_FailureBeforeShutdownAck(t *testing.T) {
	boom := errors.New("flush failed")
	l := New(scriptedApp(&transcript{}, func(in Message) ([]Message, error) {
		if in.Type == TypeShutdown {
			return nil, boom
		}
		return wellBehaved(in)
	}))
	ctx := testCtx(t)

	require.NoError(t, l.Enter(ctx))
	require.Same(t, boom, l.Exit(ctx))
}

func TestAppLifespan_ShutdownProtocolViolation(t *testing.T) {
	l := New(scriptedApp(&transcript{}, func(in Message) ([]Message, error) {
		if in.Type == TypeShutdown {
			return []Message{{Type: TypeStartupComplete}}, nil
		}
		return wellBehaved(in)
	}))
	ctx := testCtx(t)

	require.NoError(t, l.Enter(ctx))
	err := l.Exit(ctx)
	require.ErrorIs(t, err, ErrProtocolViolation)
}

func TestAppLifespan_ErrorAfterShutdownAck(t *testing.T) {
	late := errors.New("late failure")
	l := New(func(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error {
		for {
			msg, err := receive(ctx)
			if err != nil {
				return err
			}
			switch msg.Type {
			case TypeStartup:
				_ = send(ctx, Message{Type: TypeStartupComplete})
			case TypeShutdown:
				_ = send(ctx, Message{Type: TypeShutdownComplete})
				return late
			}
		}
	})
	ctx := testCtx(t)

	require.NoError(t, l.Enter(ctx))
	require.Same(t, late, l.Exit(ctx))
}

func TestAppLifespan_ApplicationExitsWithoutAck(t *testing.T) {
	l := New(func(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error {
		return nil
	})

	require.ErrorIs(t, l.Enter(testCtx(t)), ErrApplicationExited)
}

func TestAppLifespan_PanicIsCaptured(t *testing.T) {
	l := New(func(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error {
		panic("kaboom")
	})

	err := l.Enter(testCtx(t))
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "kaboom", pe.Value)
}

func TestAppLifespan_ExitBeforeEnter(t *testing.T) {
	l := New(scriptedApp(&transcript{}, wellBehaved))
	require.ErrorIs(t, l.Exit(context.Background()), ErrNotEntered)
}

func TestAppLifespan_EnterTwice(t *testing.T) {
	l := New(scriptedApp(&transcript{}, wellBehaved))
	ctx := testCtx(t)

	require.NoError(t, l.Enter(ctx))
	require.ErrorIs(t, l.Enter(ctx), ErrAlreadyEntered)
	require.NoError(t, l.Exit(ctx))
}

func TestAppLifespan_EnterHonorsContext(t *testing.T) {
	started := make(chan struct{})
	l := New(func(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Enter(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	<-started

	// Enter failure cancels the task context.
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("application task not canceled after failed Enter")
	}
}

func TestAppLifespan_TaskSurvivesCallerCancellation(t *testing.T) {
	tr := &transcript{}
	l := New(scriptedApp(tr, wellBehaved))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, l.Enter(ctx))
	cancel()

	teardown, stop := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer stop()
	require.NoError(t, l.Exit(teardown))
	require.Len(t, tr.Events(), 4)
}

func TestAppLifespan_RecordsHandshakeMetrics(t *testing.T) {
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	l := New(scriptedApp(&transcript{}, wellBehaved), WithMetrics(m))
	ctx := testCtx(t)
	require.NoError(t, l.Enter(ctx))
	require.NoError(t, l.Exit(ctx))

	require.Equal(t, 2, testutil.CollectAndCount(m.Handshakes))
}

func TestNoop(t *testing.T) {
	var d Driver = Noop{}
	require.NoError(t, d.Enter(context.Background()))
	require.NoError(t, d.Exit(context.Background()))
}

var errStop = errors.New("stop")

func returnNilOn(target error, app App) App {
	return func(ctx context.Context, scope Scope, receive ReceiveFunc, send SendFunc) error {
		if err := app(ctx, scope, receive, send); !errors.Is(err, target) {
			return err
		}
		return nil
	}
}
