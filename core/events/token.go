package events

import (
	"lendcore/core/types"

	"github.com/holiman/uint256"
)

const (
	TypeTokenTransfer = "token.transfer"
	TypeTokenApproval = "token.approval"
	TypeTokenMint     = "token.mint"
)

type Transfer struct {
	Token  string
	From   string
	To     string
	Amount *uint256.Int
}

func (Transfer) EventType() string { return TypeTokenTransfer }

func (e Transfer) Event() *types.Event {
	return &types.Event{Type: TypeTokenTransfer, Attributes: map[string]string{
		"token":  normalizeSymbol(e.Token),
		"from":   e.From,
		"to":     e.To,
		"amount": formatAmount(e.Amount),
	}}
}

type Approval struct {
	Token   string
	Owner   string
	Spender string
	Amount  *uint256.Int
}

func (Approval) EventType() string { return TypeTokenApproval }

func (e Approval) Event() *types.Event {
	return &types.Event{Type: TypeTokenApproval, Attributes: map[string]string{
		"token":   normalizeSymbol(e.Token),
		"owner":   e.Owner,
		"spender": e.Spender,
		"amount":  formatAmount(e.Amount),
	}}
}

type Mint struct {
	Token  string
	To     string
	Amount *uint256.Int
}

func (Mint) EventType() string { return TypeTokenMint }

func (e Mint) Event() *types.Event {
	return &types.Event{Type: TypeTokenMint, Attributes: map[string]string{
		"token":  normalizeSymbol(e.Token),
		"to":     e.To,
		"amount": formatAmount(e.Amount),
	}}
}
