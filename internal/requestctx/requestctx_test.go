package requestctx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestValuesRoundTrip(t *testing.T) {
	ctx := WithActor(WithRequestID(context.Background(), "req-1"), "AM01")
	if GetRequestID(ctx) != "req-1" || GetActor(ctx) != "AM01" {
		t.Fatalf("unexpected values: %q %q", GetRequestID(ctx), GetActor(ctx))
	}
	if GetRequestID(context.Background()) != "" || GetActor(context.Background()) != "" {
		t.Fatal("expected empty values on bare context")
	}
}

func TestLoggerAnnotatesRequest(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	ctx := WithActor(WithRequestID(context.Background(), "req-2"), "BX02")
	Logger(ctx).Info("ledger touched")

	out := buf.String()
	if !strings.Contains(out, `"requestId":"req-2"`) || !strings.Contains(out, `"actor":"BX02"`) {
		t.Fatalf("expected request values in log line, got %s", out)
	}
}
