package observability

import (
	"context"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = abc , broken, =x, team=core ")
	if len(got) != 2 || got["api-key"] != "abc" || got["team"] != "core" {
		t.Fatalf("unexpected headers: %#v", got)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty input should yield nil")
	}
}

func TestInitOTelDisabledIsNoop(t *testing.T) {
	shutdown := InitOTel(context.Background(), nil, OtelConfig{})
	if shutdown == nil {
		t.Fatalf("shutdown func must never be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
	_, span := Tracer("test").Start(context.Background(), "noop")
	span.End()
}
