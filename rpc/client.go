package rpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"lendcore/crypto"
)

// Client speaks the JSON-RPC surface served by Server.
type Client struct {
	Endpoint string
	HTTP     *http.Client

	id atomic.Int64
}

func NewClient(endpoint string) *Client {
	return &Client{Endpoint: endpoint, HTTP: http.DefaultClient}
}

// Do invokes method with a single parameter and decodes the result into out.
// Errors returned by the node are *RPCError.
func (c *Client) Do(ctx context.Context, method string, param interface{}, out interface{}) error {
	req := map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      c.id.Add(1),
		"method":  method,
	}
	if param != nil {
		req["params"] = []interface{}{param}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("POST %s: %w", c.Endpoint, err)
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(rpcResp.Result, out)
}

func (c *Client) Nonce(ctx context.Context, addr crypto.Address) (uint64, error) {
	var res NonceResult
	if err := c.Do(ctx, MethodGetNonce, addr.String(), &res); err != nil {
		return 0, err
	}
	return res.Nonce, nil
}

// Send signs and submits one call using the account's next nonce.
func (c *Client) Send(ctx context.Context, key *crypto.PrivateKey, to crypto.Address, method string, input []byte) ([]byte, error) {
	nonce, err := c.Nonce(ctx, key.PubKey().Address())
	if err != nil {
		return nil, err
	}
	params, err := SignCall(key, to, method, nonce, input)
	if err != nil {
		return nil, err
	}
	var res CallResult
	if err := c.Do(ctx, MethodSendCall, params, &res); err != nil {
		return nil, err
	}
	return hex.DecodeString(res.Output)
}

func (c *Client) Query(ctx context.Context, from, to crypto.Address, method string, input []byte) ([]byte, error) {
	params := QueryParams{To: to.String(), Method: method, Args: hex.EncodeToString(input)}
	if !from.IsZero() {
		params.From = from.String()
	}
	var res QueryResult
	if err := c.Do(ctx, MethodQuery, params, &res); err != nil {
		return nil, err
	}
	return hex.DecodeString(res.Output)
}

func (c *Client) Position(ctx context.Context, user crypto.Address) (PositionResult, error) {
	var res PositionResult
	err := c.Do(ctx, MethodPosition, user.String(), &res)
	return res, err
}

// Remote adapts a Client to host.Caller so contract clients work over the
// wire. Without a key, or when ReadOnly is set, calls become queries.
type Remote struct {
	Client   *Client
	Ctx      context.Context
	Key      *crypto.PrivateKey
	ReadOnly bool
}

func (r Remote) Call(target crypto.Address, method string, input []byte) ([]byte, error) {
	ctx := r.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if r.Key == nil || r.ReadOnly {
		var from crypto.Address
		if r.Key != nil {
			from = r.Key.PubKey().Address()
		}
		return r.Client.Query(ctx, from, target, method, input)
	}
	return r.Client.Send(ctx, r.Key, target, method, input)
}

// Reader returns a copy whose calls never commit.
func (r Remote) Reader() Remote {
	r.ReadOnly = true
	return r
}
