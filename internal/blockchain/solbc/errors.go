// internal/blockchain/solbc/errors.go
package solbc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// Reason is the stage a submission failed at.
type Reason string

const (
	ReasonBuild    Reason = "build"    // the transaction could not be built or signed
	ReasonRejected Reason = "rejected" // the node refused it, usually a failed simulation
	ReasonSend     Reason = "send"     // retries ran out before the node accepted it
	ReasonFailed   Reason = "failed"   // executed and failed on chain
	ReasonTimeout  Reason = "timeout"  // not confirmed before the deadline
)

// SubmitError describes a failed submission. Signature is set once the
// transaction was accepted by a node.
type SubmitError struct {
	Signature solana.Signature
	Reason    Reason
	Logs      []string
	Err       error
}

func (e *SubmitError) Error() string {
	if e.Signature == (solana.Signature{}) {
		return fmt.Sprintf("submit %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("submit %s (%s): %v", e.Reason, e.Signature, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// ProgramErrorCode extracts the custom program error code from the logs or
// the error message.
func (e *SubmitError) ProgramErrorCode() (uint32, bool) {
	for _, line := range e.Logs {
		if code, ok := parseCustomError(line); ok {
			return code, true
		}
	}
	if e.Err != nil {
		return parseCustomError(e.Err.Error())
	}
	return 0, false
}

const customErrorMarker = "custom program error: 0x"

func parseCustomError(s string) (uint32, bool) {
	idx := strings.Index(s, customErrorMarker)
	if idx < 0 {
		return 0, false
	}
	hex := s[idx+len(customErrorMarker):]
	end := strings.IndexFunc(hex, func(r rune) bool {
		return !strings.ContainsRune("0123456789abcdefABCDEF", r)
	})
	if end >= 0 {
		hex = hex[:end]
	}
	code, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(code), true
}

// isBlockhashNotFound reports a stale blockhash, fixed by rebuilding.
func isBlockhashNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "BlockhashNotFound") || strings.Contains(msg, "Blockhash not found")
}

// simulationLogs returns the program logs the node attached to a rejected
// transaction.
func simulationLogs(err error) []string {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Data == nil {
		return nil
	}
	dataMap, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := dataMap["logs"].([]interface{})
	if !ok {
		return nil
	}
	logs := make([]string, 0, len(raw))
	for _, entry := range raw {
		if line, ok := entry.(string); ok {
			logs = append(logs, line)
		}
	}
	return logs
}
