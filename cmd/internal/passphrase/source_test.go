package passphrase

import (
	"errors"
	"strings"
	"testing"
)

func TestSourcePrefersEnvironment(t *testing.T) {
	t.Setenv("LEND_TEST_PASS", "hunter2")
	prompted := false
	src := NewSource("LEND_TEST_PASS", WithPrompt(func(string) (string, bool, error) {
		prompted = true
		return "", false, nil
	}))
	got, err := src.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "hunter2" || prompted {
		t.Fatalf("expected env passphrase without prompting, got %q (prompted=%v)", got, prompted)
	}
}

func TestSourceRejectsBlankEnvironment(t *testing.T) {
	t.Setenv("LEND_TEST_PASS", "   ")
	if _, err := NewSource("LEND_TEST_PASS").Get(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestSourcePromptsOnceWithLabel(t *testing.T) {
	calls := 0
	var seen string
	src := NewSource("LEND_TEST_UNSET_PASS",
		WithLabel("operator keystore passphrase"),
		WithPrompt(func(label string) (string, bool, error) {
			calls++
			seen = label
			return "s3cret", true, nil
		}))
	for i := 0; i < 2; i++ {
		got, err := src.Get()
		if err != nil || got != "s3cret" {
			t.Fatalf("unexpected result %q, %v", got, err)
		}
	}
	if calls != 1 || seen != "operator keystore passphrase" {
		t.Fatalf("prompt calls=%d label=%q", calls, seen)
	}
}

func TestSourceWithoutTerminal(t *testing.T) {
	src := NewSource("LEND_TEST_UNSET_PASS", WithPrompt(func(string) (string, bool, error) {
		return "", false, nil
	}))
	_, err := src.Get()
	if err == nil || !strings.Contains(err.Error(), "LEND_TEST_UNSET_PASS") {
		t.Fatalf("expected hint naming the env var, got %v", err)
	}
}

func TestStatic(t *testing.T) {
	got, err := Static("fixed").Get()
	if err != nil || got != "fixed" {
		t.Fatalf("unexpected result %q, %v", got, err)
	}
}
