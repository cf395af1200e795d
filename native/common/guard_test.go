package common

import (
	"errors"
	"testing"
)

type pauses map[string]bool

func (p pauses) IsPaused(action string) bool { return p[action] }

func TestGuard(t *testing.T) {
	view := pauses{"borrow": true}
	if err := Guard(view, "borrow"); !errors.Is(err, ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
	if err := Guard(view, "deposit"); err != nil {
		t.Fatalf("deposit should pass, got %v", err)
	}
	if err := Guard(nil, "borrow"); err != nil {
		t.Fatalf("nil view should pass, got %v", err)
	}
	if err := Guard(view, ""); err != nil {
		t.Fatalf("empty action should pass, got %v", err)
	}
}
