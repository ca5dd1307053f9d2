package telemetry

import "fmt"

// A TransportError wraps a connection or stream failure. It is always
// recoverable; the ingestor reconnects with a fixed backoff instead of
// giving up.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("telemetry transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
