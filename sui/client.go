// Package sui is a minimal Sui JSON-RPC client: build a Move call, sign it, execute it, read balances.
package sui

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

type Client struct {
	rpcURL     string
	httpClient *http.Client
	nextID     atomic.Uint64
}

type ClientConfig struct {
	RPCURL  string
	Timeout time.Duration
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		rpcURL:     cfg.RPCURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// =============================================================================
// Core RPC
// =============================================================================

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call performs one JSON-RPC request and decodes the result into out (if non-nil).
func (c *Client) Call(ctx context.Context, method string, params []any, out any) error {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %.256s", method, resp.StatusCode, respBody)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// =============================================================================
// Transactions
// =============================================================================

// MoveCall describes a single entry-function call. Arguments are SuiJson values:
// object ids and addresses as strings, integers as decimal strings.
type MoveCall struct {
	PackageID     string
	Module        string
	Function      string
	TypeArguments []string
	Arguments     []any
	GasBudget     uint64
}

type TransactionBlockBytes struct {
	TxBytes string `json:"txBytes"`
}

type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type TransactionEffects struct {
	Status ExecutionStatus `json:"status"`
}

type ObjectChange struct {
	Type       string `json:"type"`
	ObjectID   string `json:"objectId"`
	ObjectType string `json:"objectType"`
}

type TransactionResponse struct {
	Digest        string              `json:"digest"`
	Effects       *TransactionEffects `json:"effects,omitempty"`
	ObjectChanges []ObjectChange      `json:"objectChanges,omitempty"`
}

// CreatedObjectID returns the first created object id, or "" when none were created.
func (r *TransactionResponse) CreatedObjectID() string {
	for _, ch := range r.ObjectChanges {
		if ch.Type == "created" {
			return ch.ObjectID
		}
	}
	return ""
}

var ErrExecutionFailed = errors.New("transaction execution failed")

// BuildMoveCall asks the fullnode to assemble transaction bytes for the call.
func (c *Client) BuildMoveCall(ctx context.Context, sender string, call MoveCall) ([]byte, error) {
	typeArgs := call.TypeArguments
	if typeArgs == nil {
		typeArgs = []string{}
	}
	args := call.Arguments
	if args == nil {
		args = []any{}
	}
	var out TransactionBlockBytes
	err := c.Call(ctx, "unsafe_moveCall", []any{
		sender,
		call.PackageID,
		call.Module,
		call.Function,
		typeArgs,
		args,
		nil, // let the node pick a gas coin
		strconv.FormatUint(call.GasBudget, 10),
	}, &out)
	if err != nil {
		return nil, err
	}
	txBytes, err := base64.StdEncoding.DecodeString(out.TxBytes)
	if err != nil {
		return nil, fmt.Errorf("decode txBytes: %w", err)
	}
	return txBytes, nil
}

// ExecuteTransaction submits signed bytes and waits for local execution.
func (c *Client) ExecuteTransaction(ctx context.Context, txBytes []byte, signatures []string) (*TransactionResponse, error) {
	var out TransactionResponse
	err := c.Call(ctx, "sui_executeTransactionBlock", []any{
		base64.StdEncoding.EncodeToString(txBytes),
		signatures,
		map[string]bool{"showEffects": true, "showObjectChanges": true},
		"WaitForLocalExecution",
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Effects != nil && out.Effects.Status.Status != "success" {
		return &out, fmt.Errorf("%w: %s (digest %s)", ErrExecutionFailed, out.Effects.Status.Error, out.Digest)
	}
	return &out, nil
}

// SignAndExecute builds, signs and submits one Move call. There is no retry.
func (c *Client) SignAndExecute(ctx context.Context, signer *Signer, call MoveCall) (*TransactionResponse, error) {
	txBytes, err := c.BuildMoveCall(ctx, signer.Address(), call)
	if err != nil {
		return nil, fmt.Errorf("build move call %s::%s: %w", call.Module, call.Function, err)
	}
	return c.ExecuteTransaction(ctx, txBytes, []string{signer.SignTransaction(txBytes)})
}

// =============================================================================
// Queries
// =============================================================================

type Balance struct {
	CoinType        string `json:"coinType"`
	CoinObjectCount int    `json:"coinObjectCount"`
	TotalBalance    string `json:"totalBalance"`
}

func (c *Client) GetBalance(ctx context.Context, owner, coinType string) (*Balance, error) {
	var out Balance
	if err := c.Call(ctx, "suix_getBalance", []any{owner, coinType}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
