package sui

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	mu       sync.Mutex
	txBytes  []byte
	status   string
	calls    []string
	lastArgs map[string][]json.RawMessage
}

func newFakeNode() *fakeNode {
	return &fakeNode{txBytes: []byte("built-tx"), status: "success", lastArgs: map[string][]json.RawMessage{}}
}

func (f *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     uint64            `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req.Method)
	f.lastArgs[req.Method] = req.Params

	var result any
	switch req.Method {
	case "unsafe_moveCall":
		result = map[string]any{"txBytes": base64.StdEncoding.EncodeToString(f.txBytes)}
	case "sui_executeTransactionBlock":
		result = map[string]any{
			"digest":  "5xDigest",
			"effects": map[string]any{"status": map[string]any{"status": f.status, "error": "MoveAbort"}},
			"objectChanges": []map[string]any{
				{"type": "mutated", "objectId": "0xgas"},
				{"type": "created", "objectId": "0xnew", "objectType": "0x2::certificate::Certificate"},
			},
		}
	case "suix_getBalance":
		result = map[string]any{"coinType": "0x2::sui::SUI", "coinObjectCount": 2, "totalBalance": "1500"}
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "error": map[string]any{"code": -32601, "message": "method not found"}})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
}

func newTestClient(t *testing.T, node *fakeNode) *Client {
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)
	c, err := NewClient(ClientConfig{RPCURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestSignAndExecute(t *testing.T) {
	node := newFakeNode()
	c := newTestClient(t, node)
	signer, err := NewSigner(testSeed())
	require.NoError(t, err)

	resp, err := c.SignAndExecute(context.Background(), signer, MoveCall{
		PackageID: "0xpkg",
		Module:    "certificate",
		Function:  "mint",
		Arguments: []any{"0xcap", "0xrecipient"},
		GasBudget: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "5xDigest", resp.Digest)
	assert.Equal(t, "0xnew", resp.CreatedObjectID())
	assert.Equal(t, []string{"unsafe_moveCall", "sui_executeTransactionBlock"}, node.calls)

	var sender, budget string
	require.NoError(t, json.Unmarshal(node.lastArgs["unsafe_moveCall"][0], &sender))
	require.NoError(t, json.Unmarshal(node.lastArgs["unsafe_moveCall"][7], &budget))
	assert.Equal(t, signer.Address(), sender)
	assert.Equal(t, "1000", budget)

	var sigs []string
	require.NoError(t, json.Unmarshal(node.lastArgs["sui_executeTransactionBlock"][1], &sigs))
	require.Len(t, sigs, 1)
	raw, err := base64.StdEncoding.DecodeString(sigs[0])
	require.NoError(t, err)
	digest := TransactionSigningDigest(node.txBytes)
	assert.True(t, ed25519.Verify(signer.PublicKey(), digest[:], raw[1:1+ed25519.SignatureSize]))
}

func TestExecuteFailureStatus(t *testing.T) {
	node := newFakeNode()
	node.status = "failure"
	c := newTestClient(t, node)
	signer, err := NewSigner(testSeed())
	require.NoError(t, err)

	_, err = c.SignAndExecute(context.Background(), signer, MoveCall{PackageID: "0xpkg", Module: "token", Function: "mint"})
	require.ErrorIs(t, err, ErrExecutionFailed)
	assert.Contains(t, err.Error(), "MoveAbort")
}

func TestGetBalance(t *testing.T) {
	c := newTestClient(t, newFakeNode())

	bal, err := c.GetBalance(context.Background(), "0x1", "0x2::sui::SUI")
	require.NoError(t, err)
	assert.Equal(t, "1500", bal.TotalBalance)
	assert.Equal(t, 2, bal.CoinObjectCount)
}

func TestCallSurfacesRPCError(t *testing.T) {
	c := newTestClient(t, newFakeNode())

	err := c.Call(context.Background(), "sui_unknown", nil, nil)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	require.Error(t, err)
}
