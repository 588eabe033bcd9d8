package slog_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbak-archive/sbak/internal/slog"
)

func TestNullSinkModule(t *testing.T) {
	l := slog.Module("mod1")(context.Background())

	// Must not panic in the absence of an installed sink.
	l.Debugf("A")
	l.Infof("B %d", 1)
	l.Warnf("C")
	l.Errorf("D")
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer

	ctx := slog.WithLogger(context.Background(), slog.ToWriter(&buf))
	l := slog.Module("mod1")(ctx)

	l.Infof("hello %s", "world")

	require.Equal(t, "[mod1] INFO: hello world\n", buf.String())
}

func TestWithAdditionalLogger(t *testing.T) {
	var buf1, buf2 bytes.Buffer

	ctx := slog.WithLogger(context.Background(), slog.ToWriter(&buf1))
	ctx = slog.WithAdditionalLogger(ctx, slog.ToWriter(&buf2))

	l := slog.Module("mod1")(ctx)
	l.Warnf("watch out")

	require.Equal(t, "[mod1] WARN: watch out\n", buf1.String())
	require.Equal(t, "[mod1] WARN: watch out\n", buf2.String())
}
