// Package common holds helpers shared by native contracts.
package common

import "errors"

var ErrPaused = errors.New("action paused")

// PauseView reports whether an action is currently halted.
type PauseView interface {
	IsPaused(action string) bool
}

// Guard fails with ErrPaused when p reports action as paused. A nil view or
// an empty action never blocks.
func Guard(p PauseView, action string) error {
	if p == nil || action == "" {
		return nil
	}
	if p.IsPaused(action) {
		return ErrPaused
	}
	return nil
}
