package command

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bft-labs/appcommands/pkg/log"
)

type report struct {
	command string
	err     error
}

type recordingReporter struct {
	reports []report
}

func (r *recordingReporter) Report(ctx context.Context, command string, err error) {
	r.reports = append(r.reports, report{command, err})
}

func TestReportHandler(t *testing.T) {
	boom := errors.New("boom")
	exit := &ExitError{Code: 1}
	tests := []struct {
		name     string
		err      error
		reported error
	}{
		{"success", nil, nil},
		{"unexpected error", boom, boom},
		{"cancellation", context.Canceled, nil},
		{"wrapped cancellation", fmt.Errorf("interrupted: %w", context.Canceled), nil},
		{"exit request", exit, nil},
		{"exit request and interrupt", errors.Join(exit, context.Canceled), nil},
		{"exit request with shutdown failure", errors.Join(exit, boom), boom},
		{"interrupt with shutdown failure", errors.Join(context.Canceled, boom), boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &recordingReporter{}
			err := ReportHandler(rep).Handle(context.Background(), "migrate", func(context.Context) error {
				return tt.err
			})

			require.Equal(t, tt.err, err, "error must pass through unchanged")
			if tt.reported == nil {
				require.Empty(t, rep.reports)
				return
			}
			require.Len(t, rep.reports, 1)
			require.Equal(t, "migrate", rep.reports[0].command)
			require.Same(t, tt.reported, rep.reports[0].err)
		})
	}
}

func TestUnexpected(t *testing.T) {
	body := errors.New("body")
	flush := errors.New("flush")

	require.NoError(t, Unexpected(nil))
	require.NoError(t, Unexpected(&ExitError{Code: 2}))
	require.Same(t, body, Unexpected(body))

	both := errors.Join(body, flush)
	require.Same(t, both, Unexpected(both))

	rest := Unexpected(errors.Join(body, context.Canceled, flush))
	require.ErrorIs(t, rest, body)
	require.ErrorIs(t, rest, flush)
	require.NotErrorIs(t, rest, context.Canceled)

	require.True(t, IsCancellation(context.Canceled))
	require.False(t, IsCancellation(nil))
	require.False(t, IsCancellation(errors.Join(context.Canceled, flush)))
}

func TestReportHandler_Panic(t *testing.T) {
	rep := &recordingReporter{}

	require.PanicsWithValue(t, "kaboom", func() {
		_ = ReportHandler(rep).Handle(context.Background(), "migrate", func(context.Context) error {
			panic("kaboom")
		})
	})

	require.Len(t, rep.reports, 1)
	var pe *PanicError
	require.ErrorAs(t, rep.reports[0].err, &pe)
	require.Equal(t, "kaboom", pe.Value)
}

func TestChain_OrderAndPassthrough(t *testing.T) {
	var order []string
	link := func(name string) Handler {
		return HandlerFunc(func(ctx context.Context, cmd string, next func(context.Context) error) error {
			order = append(order, name+" before")
			err := next(ctx)
			order = append(order, name+" after")
			return err
		})
	}

	boom := errors.New("boom")
	err := Chain(link("outer"), link("inner")).Handle(context.Background(), "migrate", func(context.Context) error {
		order = append(order, "body")
		return boom
	})

	require.Same(t, boom, err)
	require.Equal(t, []string{"outer before", "inner before", "body", "inner after", "outer after"}, order)
}

func TestChain_EveryLinkObserves(t *testing.T) {
	first, second := &recordingReporter{}, &recordingReporter{}
	boom := errors.New("boom")

	err := Chain(ReportHandler(first), ReportHandler(second), Passthrough).Handle(context.Background(), "sync", func(context.Context) error {
		return boom
	})

	require.Same(t, boom, err)
	require.Len(t, first.reports, 1)
	require.Len(t, second.reports, 1)
}

func TestChain_Empty(t *testing.T) {
	called := false
	err := Chain().Handle(context.Background(), "noop", func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)
}

func TestLogHandler(t *testing.T) {
	rec := log.NewRecorder()
	boom := errors.New("boom")

	err := LogHandler(rec).Handle(context.Background(), "migrate", func(context.Context) error { return boom })
	require.Same(t, boom, err)

	errs := rec.ByLevel("ERROR")
	require.Len(t, errs, 1)
	require.Equal(t, "error while running command", errs[0].Msg)
	name, _ := errs[0].Field("command")
	require.Equal(t, "migrate", name)

	_ = LogHandler(rec).Handle(context.Background(), "migrate", func(context.Context) error { return context.Canceled })
	require.Len(t, rec.ByLevel("ERROR"), 1)
}

func TestUnexpectedFailureReportedAfterTeardown(t *testing.T) {
	s := &steps{}
	boom := errors.New("boom")
	r := NewRunner(DefaultConfig("migrate"))

	var shutdownsAtReport int
	rep := ReporterFunc(func(ctx context.Context, command string, err error) {
		shutdownsAtReport = s.count("shutdown")
		s.add("report " + command)
	})

	err := ReportHandler(rep).Handle(context.Background(), "migrate", func(ctx context.Context) error {
		return r.Run(ctx, recordingCommand(s, func(context.Context, *Env) error { return boom }), nil)
	})

	require.Same(t, boom, err)
	require.Equal(t, 1, shutdownsAtReport)
	require.Equal(t, 1, s.count("report migrate"))
}

func TestErrorf(t *testing.T) {
	cause := errors.New("not found")
	err := Errorf("load fixture: %w", cause)
	require.Equal(t, "load fixture: not found", err.Error())
	require.ErrorIs(t, err, cause)
}
