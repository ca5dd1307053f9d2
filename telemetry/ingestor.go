package telemetry

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sparklab/firefly/graph"
)

// A Sink receives decoded telemetry events. The engine implements it.
type Sink interface {
	Deliver(events []graph.Event)
}

const defaultBackoff = 2 * time.Second

// An Ingestor maintains the websocket connection to the trace stream,
// decodes frames, and hands the resulting events to its sink. Connection
// drops and parse failures are never fatal.
type Ingestor struct {
	url     string
	sink    Sink
	log     *zap.SugaredLogger
	backoff time.Duration
	dialer  *websocket.Dialer

	cancel context.CancelFunc
	done   chan struct{}

	framesDecoded   atomic.Uint64
	framesRejected  atomic.Uint64
	transportErrors atomic.Uint64
}

// NewIngestor creates an ingestor for the given stream URL.
func NewIngestor(url string, sink Sink, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ingestor{
		url:     url,
		sink:    sink,
		log:     logger.Sugar().With("stream", url),
		backoff: defaultBackoff,
		dialer:  websocket.DefaultDialer,
		done:    make(chan struct{}),
	}
}

// WithBackoff sets the fixed delay between reconnect attempts.
func (in *Ingestor) WithBackoff(d time.Duration) *Ingestor {
	in.backoff = d
	return in
}

// Start launches the connection loop. It returns immediately.
func (in *Ingestor) Start(ctx context.Context) {
	ctx, in.cancel = context.WithCancel(ctx)
	go in.run(ctx)
}

// Stop tears the connection down, cancels any pending reconnect wait, and
// blocks until the loop has exited.
func (in *Ingestor) Stop() {
	if in.cancel == nil {
		return
	}

	in.cancel()
	<-in.done
}

// FramesDecoded returns the number of frames successfully decoded.
func (in *Ingestor) FramesDecoded() uint64 {
	return in.framesDecoded.Load()
}

// TransportErrors returns the number of connection failures seen.
func (in *Ingestor) TransportErrors() uint64 {
	return in.transportErrors.Load()
}

func (in *Ingestor) run(ctx context.Context) {
	defer close(in.done)

	for {
		if ctx.Err() != nil {
			return
		}

		err := in.connectAndRead(ctx)
		if err != nil && ctx.Err() == nil {
			in.transportErrors.Add(1)
			in.log.Warnw("telemetry stream failed, will reconnect",
				"error", err, "backoff", in.backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(in.backoff):
		}
	}
}

func (in *Ingestor) connectAndRead(ctx context.Context) error {
	conn, _, err := in.dialer.DialContext(ctx, in.url, nil)
	if err != nil {
		return &TransportError{Op: "dial", Err: err}
	}

	in.log.Infow("telemetry stream connected")

	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
			conn.Close()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return &TransportError{Op: "read", Err: err}
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			in.framesRejected.Add(1)
			in.log.Debugw("dropping undecodable frame", "error", err)
			continue
		}

		in.framesDecoded.Add(1)

		if events := frame.Events(); len(events) > 0 {
			in.sink.Deliver(events)
		}
	}
}
