package host

import (
	"context"

	"lendcore/crypto"
)

// Caller is anything that can invoke a contract method: an Env inside a
// running contract or a Session outside of one.
type Caller interface {
	Call(target crypto.Address, method string, input []byte) ([]byte, error)
}

// Session issues top-level calls on behalf of one account.
type Session struct {
	Host     *Host
	Ctx      context.Context
	From     crypto.Address
	ReadOnly bool
}

// NewSession binds from to h.
func NewSession(ctx context.Context, h *Host, from crypto.Address) Session {
	return Session{Host: h, Ctx: ctx, From: from}
}

// Reader returns a copy of the session whose calls never commit.
func (s Session) Reader() Session {
	s.ReadOnly = true
	return s
}

func (s Session) Call(target crypto.Address, method string, input []byte) ([]byte, error) {
	ctx := s.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if s.ReadOnly {
		return s.Host.Query(ctx, s.From, target, method, input)
	}
	return s.Host.Call(ctx, s.From, target, method, input)
}
