package rpc

import (
	"encoding/json"

	"lendcore/core/types"
)

const (
	jsonRPCVersion = "2.0"

	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeBadNonce       = -32010
	codeRateLimited    = -32020
	codeExecution      = -32050
	codeUnavailable    = -32060
)

// Method names served on the JSON-RPC endpoint.
const (
	MethodSendCall     = "lend_sendCall"
	MethodQuery        = "lend_query"
	MethodGetNonce     = "lend_getNonce"
	MethodSequence     = "lend_sequence"
	MethodContracts    = "lend_contracts"
	MethodPosition     = "lend_getPosition"
	MethodEvents       = "lend_getEvents"
	MethodLiquidations = "lend_getLiquidations"
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      json.RawMessage   `json:"id,omitempty"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

// CallParams is a signed state-changing invocation. Args is the hex RLP
// argument list; Signature is the hex 65-byte recoverable signature over
// CallDigest.
type CallParams struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Method    string `json:"method"`
	Args      string `json:"args,omitempty"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

// QueryParams is an unsigned read. From defaults to the zero account.
type QueryParams struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to"`
	Method string `json:"method"`
	Args   string `json:"args,omitempty"`
}

type CallResult struct {
	Output   string `json:"output"`
	Sequence uint64 `json:"sequence"`
}

type QueryResult struct {
	Output string `json:"output"`
}

type NonceResult struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
}

type PositionResult struct {
	User             string   `json:"user"`
	CollateralAssets []string `json:"collateralAssets"`
	DebtAssets       []string `json:"debtAssets"`
	CollateralValue  string   `json:"collateralValue"`
	DebtValue        string   `json:"debtValue"`
	Liquidatable     bool     `json:"liquidatable"`
}

type EventsParams struct {
	Type     string `json:"type,omitempty"`
	Contract string `json:"contract,omitempty"`
	FromSeq  uint64 `json:"fromSeq,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// StreamEvent is one message on the websocket event stream.
type StreamEvent struct {
	Sequence  uint64       `json:"sequence"`
	Index     int          `json:"index"`
	Contract  string       `json:"contract"`
	Method    string       `json:"method"`
	Timestamp uint64       `json:"timestamp"`
	Event     *types.Event `json:"event"`
}
