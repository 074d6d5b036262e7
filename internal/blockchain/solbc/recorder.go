// internal/blockchain/solbc/recorder.go
package solbc

import "time"

// Recorder receives RPC and send attempt measurements. It is satisfied by
// *metrics.Collector.
type Recorder interface {
	RecordRPC(method, endpoint string, duration time.Duration, transportErr bool)
	RecordSubmitAttempt(result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordRPC(string, string, time.Duration, bool) {}
func (nopRecorder) RecordSubmitAttempt(string)                    {}
