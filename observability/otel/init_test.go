package otel

import (
	"context"
	"strings"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = abc , broken, =skip,team=lend ")
	if len(got) != 2 || got["api-key"] != "abc" || got["team"] != "lend" {
		t.Fatalf("unexpected headers: %v", got)
	}
}

func TestSamplerDescription(t *testing.T) {
	if desc := Sampler(0).Description(); !strings.Contains(desc, "AlwaysOnSampler") {
		t.Fatalf("zero ratio should sample everything: %s", desc)
	}
	if desc := Sampler(0.25).Description(); !strings.Contains(desc, "TraceIDRatioBased{0.25}") {
		t.Fatalf("unexpected sampler: %s", desc)
	}
}

func TestInitRequiresServiceName(t *testing.T) {
	if _, err := Init(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without service name")
	}
}

func TestInitWithoutExporters(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "lendingd"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
