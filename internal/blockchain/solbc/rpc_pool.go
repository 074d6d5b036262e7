// internal/blockchain/solbc/rpc_pool.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"
)

// ErrNoRPCNodes is returned when the pool is built from an empty list.
var ErrNoRPCNodes = errors.New("no rpc nodes configured")

// RPCError is a transport failure of one node.
type RPCError struct {
	Err     error
	NodeURL string
	Method  string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error [%s] at %s: %v", e.Method, e.NodeURL, e.Err)
}

func (e *RPCError) Unwrap() error {
	return e.Err
}

type node struct {
	client *rpc.Client
	url    string

	active       atomic.Bool
	successCount atomic.Uint64
	errorCount   atomic.Uint64

	mu      sync.Mutex
	latency time.Duration
}

func (n *node) record(success bool, latency time.Duration) {
	if success {
		n.successCount.Add(1)
	} else {
		n.errorCount.Add(1)
	}
	n.mu.Lock()
	n.latency = (n.latency + latency) / 2
	n.mu.Unlock()
}

// NodeStats is a snapshot of one node's counters.
type NodeStats struct {
	URL      string
	Active   bool
	Success  uint64
	Errors   uint64
	AvgDelay time.Duration
}

// rpcPool hands out nodes round robin, skipping nodes whose last call
// failed at the transport level.
type rpcPool struct {
	nodes    []*node
	logger   *zap.Logger
	recorder Recorder

	mu   sync.Mutex
	next int
}

func newRPCPool(urls []string, logger *zap.Logger) (*rpcPool, error) {
	if len(urls) == 0 {
		return nil, ErrNoRPCNodes
	}
	nodes := make([]*node, len(urls))
	for i, url := range urls {
		nodes[i] = &node{client: rpc.New(url), url: url}
		nodes[i].active.Store(true)
	}
	return &rpcPool{nodes: nodes, logger: logger, recorder: nopRecorder{}}, nil
}

// pick returns the next active node. When every node is marked down they
// are all reactivated, a node may have recovered since.
func (p *rpcPool) pick() *node {
	p.mu.Lock()
	defer p.mu.Unlock()

	for range 2 {
		for i := 0; i < len(p.nodes); i++ {
			n := p.nodes[p.next]
			p.next = (p.next + 1) % len(p.nodes)
			if n.active.Load() {
				return n
			}
		}
		p.logger.Warn("All RPC nodes are down, reactivating")
		for _, n := range p.nodes {
			n.active.Store(true)
		}
	}
	return p.nodes[0]
}

// execute runs op on one node and moves on to the next one on transport
// errors, trying each node at most once. Errors the node answered with are
// returned as is.
func (p *rpcPool) execute(ctx context.Context, method string, op func(*rpc.Client) error) error {
	var lastErr error
	for range len(p.nodes) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := p.pick()
		start := time.Now()
		err := op(n.client)
		elapsed := time.Since(start)
		transport := isTransportError(ctx, err)
		n.record(!transport, elapsed)
		p.recorder.RecordRPC(method, n.url, elapsed, transport)
		if !transport {
			return err
		}

		n.active.Store(false)
		lastErr = &RPCError{Err: err, NodeURL: n.url, Method: method}
		p.logger.Warn("RPC node failed",
			zap.String("node", n.url),
			zap.String("method", method),
			zap.Error(err))
	}
	return lastErr
}

func (p *rpcPool) stats() []NodeStats {
	out := make([]NodeStats, len(p.nodes))
	for i, n := range p.nodes {
		n.mu.Lock()
		latency := n.latency
		n.mu.Unlock()
		out[i] = NodeStats{
			URL:      n.url,
			Active:   n.active.Load(),
			Success:  n.successCount.Load(),
			Errors:   n.errorCount.Load(),
			AvgDelay: latency,
		}
	}
	return out
}

// isTransportError reports whether err came from reaching the node rather
// than from the node's answer.
func isTransportError(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, rpc.ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rpcErr *jsonrpc.RPCError
	return !errors.As(err, &rpcErr)
}
