package events

import (
	"lendcore/core/types"

	"github.com/holiman/uint256"
)

const (
	TypeOracleTokenAdded   = "oracle.token_added"
	TypeOraclePriceUpdated = "oracle.price_updated"
	TypeOracleTokenMissing = "oracle.token_missing"
)

type OracleTokenAdded struct {
	Symbol  string
	Address string
	Price   *uint256.Int
}

func (OracleTokenAdded) EventType() string { return TypeOracleTokenAdded }

func (e OracleTokenAdded) Event() *types.Event {
	return &types.Event{Type: TypeOracleTokenAdded, Attributes: map[string]string{
		"symbol":  normalizeSymbol(e.Symbol),
		"address": e.Address,
		"price":   formatAmount(e.Price),
	}}
}

type OraclePriceUpdated struct {
	Symbol  string
	Address string
	Price   *uint256.Int
}

func (OraclePriceUpdated) EventType() string { return TypeOraclePriceUpdated }

func (e OraclePriceUpdated) Event() *types.Event {
	return &types.Event{Type: TypeOraclePriceUpdated, Attributes: map[string]string{
		"symbol":  normalizeSymbol(e.Symbol),
		"address": e.Address,
		"price":   formatAmount(e.Price),
	}}
}

type OracleTokenMissing struct {
	Symbol string
}

func (OracleTokenMissing) EventType() string { return TypeOracleTokenMissing }

func (e OracleTokenMissing) Event() *types.Event {
	return &types.Event{Type: TypeOracleTokenMissing, Attributes: map[string]string{
		"symbol": normalizeSymbol(e.Symbol),
	}}
}
