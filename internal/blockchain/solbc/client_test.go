package solbc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/bonfida-bot/internal/blockchain"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

// newRPCServer answers JSON-RPC calls with the result returned by handle.
// A nil result is sent as JSON null.
func newRPCServer(t *testing.T, handle func(method string) interface{}) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handle(req.Method),
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func accountResult(data []byte) interface{} {
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": 1},
		"value": map[string]interface{}{
			"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
			"executable": false,
			"lamports":   1000,
			"owner":      solana.SystemProgramID.String(),
			"rentEpoch":  0,
		},
	}
}

func TestClientGetRecentBlockhash(t *testing.T) {
	hash := solana.Hash{1, 2, 3}
	srv, _ := newRPCServer(t, func(method string) interface{} {
		assert.Equal(t, "getLatestBlockhash", method)
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value":   map[string]interface{}{"blockhash": hash.String(), "lastValidBlockHeight": 100},
		}
	})

	c, err := NewClient([]string{srv.URL}, rpc.CommitmentConfirmed, zaptest.NewLogger(t))
	require.NoError(t, err)
	got, err := c.GetRecentBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, hash, got)
}

func TestClientGetAccountData(t *testing.T) {
	srv, _ := newRPCServer(t, func(string) interface{} {
		return accountResult([]byte{1, 2, 3})
	})
	missing, _ := newRPCServer(t, func(string) interface{} {
		return map[string]interface{}{"context": map[string]interface{}{"slot": 1}, "value": nil}
	})

	c, err := NewClient([]string{srv.URL}, rpc.CommitmentConfirmed, zaptest.NewLogger(t))
	require.NoError(t, err)
	data, err := c.GetAccountData(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	c, err = NewClient([]string{missing.URL}, rpc.CommitmentConfirmed, zaptest.NewLogger(t))
	require.NoError(t, err)
	_, err = c.GetAccountData(context.Background(), solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, blockchain.ErrAccountNotFound)
}

func TestClientFailover(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(down.Close)
	up, upCalls := newRPCServer(t, func(string) interface{} {
		return accountResult([]byte{42})
	})

	c, err := NewClient([]string{down.URL, up.URL}, rpc.CommitmentConfirmed, zaptest.NewLogger(t))
	require.NoError(t, err)
	recorder := &countingRecorder{}
	c.SetRecorder(recorder)

	for range 3 {
		data, err := c.GetAccountData(context.Background(), solana.NewWallet().PublicKey())
		require.NoError(t, err)
		assert.Equal(t, []byte{42}, data)
	}
	assert.Equal(t, int32(3), upCalls.Load())

	stats := c.Stats()
	require.Len(t, stats, 2)
	assert.False(t, stats[0].Active)
	assert.Equal(t, uint64(1), stats[0].Errors)
	assert.True(t, stats[1].Active)
	assert.Equal(t, uint64(3), stats[1].Success)

	assert.Equal(t, 1, recorder.rpc["getAccountInfo "+down.URL+" error"])
	assert.Equal(t, 3, recorder.rpc["getAccountInfo "+up.URL])
}

func TestClientGetMultipleAccountsData(t *testing.T) {
	srv, _ := newRPCServer(t, func(method string) interface{} {
		assert.Equal(t, "getMultipleAccounts", method)
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 1},
			"value": []interface{}{
				accountResult([]byte{7}).(map[string]interface{})["value"],
				nil,
			},
		}
	})

	c, err := NewClient([]string{srv.URL}, rpc.CommitmentConfirmed, zaptest.NewLogger(t))
	require.NoError(t, err)
	data, err := c.GetMultipleAccountsData(context.Background(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, []byte{7}, data[0])
	assert.Nil(t, data[1])
}

func TestNewClientNoNodes(t *testing.T) {
	_, err := NewClient(nil, rpc.CommitmentConfirmed, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrNoRPCNodes)
}
