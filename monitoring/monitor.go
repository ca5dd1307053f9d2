// Package monitoring turns a running engine into a small web server that
// serves read-only frame snapshots and process health to external viewers.
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"

	// Enable profiling endpoints.
	_ "net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
	"go.uber.org/zap"

	"github.com/sparklab/firefly/engine"
)

// A Monitor exposes the engine over HTTP. The renderer polls /api/snapshot
// once per frame; everything it can reach is read-only.
type Monitor struct {
	engine *engine.Engine
	log    *zap.SugaredLogger

	addr        string
	openBrowser bool

	listener net.Listener
	server   *http.Server
}

// NewMonitor creates a monitor with no engine attached.
func NewMonitor() *Monitor {
	return &Monitor{
		addr: ":0",
		log:  zap.NewNop().Sugar(),
	}
}

// WithAddress sets the listen address.
func (m *Monitor) WithAddress(addr string) *Monitor {
	m.addr = addr
	return m
}

// WithLogger sets the logger.
func (m *Monitor) WithLogger(logger *zap.Logger) *Monitor {
	m.log = logger.Sugar()
	return m
}

// WithBrowserLaunch makes StartServer open the status page in the default
// browser.
func (m *Monitor) WithBrowserLaunch() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterEngine attaches the engine to be monitored.
func (m *Monitor) RegisterEngine(e *engine.Engine) {
	m.engine = e
}

// StartServer starts serving in a background goroutine. It returns once the
// listener is bound, so the port is known when it returns.
func (m *Monitor) StartServer() error {
	r := mux.NewRouter()

	r.HandleFunc("/api/snapshot", m.snapshot)
	r.HandleFunc("/api/stats", m.stats)
	r.HandleFunc("/api/particles/stats", m.particleStats)
	r.HandleFunc("/api/nodes", m.nodes)
	r.HandleFunc("/api/process", m.processStats)
	r.HandleFunc("/api/engine", m.engineState)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.HandleFunc("/", m.status)

	listener, err := net.Listen("tcp", m.addr)
	if err != nil {
		return err
	}
	m.listener = listener

	m.server = &http.Server{Handler: r}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.log.Infow("monitor listening", "url", url)

	go func() {
		err := m.server.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			m.log.Errorw("monitor server failed", "error", err)
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			m.log.Warnw("could not open browser", "error", err)
		}
	}

	return nil
}

// StopServer shuts the server down, waiting for in-flight requests.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

// Addr returns the bound listen address.
func (m *Monitor) Addr() net.Addr {
	if m.listener == nil {
		return nil
	}

	return m.listener.Addr()
}

func (m *Monitor) snapshot(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.engine.Snapshot())
}

func (m *Monitor) stats(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.engine.Stats())
}

type particleStatsRsp struct {
	Active           int    `json:"active"`
	Capacity         int    `json:"capacity"`
	DroppedNoEdge    uint64 `json:"dropped_no_edge"`
	DroppedDuplicate uint64 `json:"dropped_duplicate"`
}

func (m *Monitor) particleStats(w http.ResponseWriter, _ *http.Request) {
	stats := m.engine.Stats()

	m.writeJSON(w, particleStatsRsp{
		Active:           stats.ActiveParticles,
		Capacity:         stats.PoolCapacity,
		DroppedNoEdge:    stats.SpawnsNoEdge,
		DroppedDuplicate: stats.SpawnsDuplicate,
	})
}

func (m *Monitor) nodes(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.engine.Snapshot().Nodes)
}

type processRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) processStats(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		m.serverError(w, err)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		m.serverError(w, err)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		m.serverError(w, err)
		return
	}

	m.writeJSON(w, processRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) engineState(w http.ResponseWriter, _ *http.Request) {
	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.engine)
	serializer.SetMaxDepth(1)

	if err := serializer.Serialize(w); err != nil {
		m.serverError(w, err)
	}
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	stats := m.engine.Stats()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, statusPage,
		stats.Ticks, stats.Nodes, stats.Edges,
		stats.ActiveParticles, stats.PoolCapacity)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		m.log.Errorw("failed to encode response", "error", err)
	}
}

func (m *Monitor) serverError(w http.ResponseWriter, err error) {
	m.log.Errorw("monitor request failed", "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

const statusPage = `<!DOCTYPE html>
<html>
<head><title>firefly</title></head>
<body>
<h1>firefly</h1>
<p>ticks: %d, nodes: %d, edges: %d, particles: %d/%d</p>
<p>APIs: <a href="/api/snapshot">/api/snapshot</a>,
<a href="/api/stats">/api/stats</a>,
<a href="/api/nodes">/api/nodes</a>,
<a href="/api/process">/api/process</a></p>
</body>
</html>
`
