// Package passphrase resolves keystore secrets for the lend binaries.
package passphrase

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrEmpty is returned for blank or whitespace-only passphrases.
var ErrEmpty = errors.New("passphrase cannot be empty")

// PromptFunc reads a secret after showing label. It reports false when no
// interactive input is available.
type PromptFunc func(label string) (string, bool, error)

// Source resolves a passphrase once, from an environment variable or a
// prompt, and caches the outcome.
type Source struct {
	envVar string
	label  string
	prompt PromptFunc

	once  sync.Once
	value string
	err   error
}

// Option adjusts a Source.
type Option func(*Source)

// WithLabel names the secret in prompts and errors.
func WithLabel(label string) Option {
	return func(s *Source) {
		if label = strings.TrimSpace(label); label != "" {
			s.label = label
		}
	}
}

// WithPrompt replaces the terminal prompt.
func WithPrompt(fn PromptFunc) Option {
	return func(s *Source) {
		if fn != nil {
			s.prompt = fn
		}
	}
}

// NewSource checks envVar before falling back to the prompt.
func NewSource(envVar string, opts ...Option) *Source {
	s := &Source{
		envVar: strings.TrimSpace(envVar),
		label:  "keystore passphrase",
		prompt: terminalPrompt,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Static always yields value.
func Static(value string) *Source {
	s := &Source{label: "keystore passphrase"}
	s.once.Do(func() { s.value = value })
	return s
}

// Get returns the cached passphrase, resolving it on first use.
func (s *Source) Get() (string, error) {
	s.once.Do(func() { s.value, s.err = s.resolve() })
	return s.value, s.err
}

func (s *Source) resolve() (string, error) {
	if s.envVar != "" {
		if value, ok := os.LookupEnv(s.envVar); ok {
			if strings.TrimSpace(value) == "" {
				return "", fmt.Errorf("%s: %w", s.envVar, ErrEmpty)
			}
			return value, nil
		}
	}
	value, ok, err := s.prompt(s.label)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.label, err)
	}
	if !ok {
		if s.envVar != "" {
			return "", fmt.Errorf("%s required; set %s or run interactively", s.label, s.envVar)
		}
		return "", fmt.Errorf("%s required and no terminal available", s.label)
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%s: %w", s.label, ErrEmpty)
	}
	return value, nil
}

func terminalPrompt(label string) (string, bool, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", false, nil
	}
	fmt.Fprintf(os.Stderr, "Enter %s: ", label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", true, err
	}
	return string(raw), true, nil
}
