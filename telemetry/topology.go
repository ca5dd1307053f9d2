package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// A Topology is the static component graph fetched once at startup. It
// seeds the store before live events arrive.
type Topology struct {
	Nodes []TopologyNode `json:"nodes"`
	Edges []TopologyEdge `json:"edges"`
}

// A TopologyNode describes one known component.
type TopologyNode struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Subsystem string `json:"subsystem"`
}

// A TopologyEdge describes one known directed connection.
type TopologyEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// FetchTopology retrieves the static topology from the given URL. A nil
// client falls back to http.DefaultClient.
func FetchTopology(
	ctx context.Context,
	url string,
	client *http.Client,
) (*Topology, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	rsp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "topology fetch", Err: err}
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		return nil, &TransportError{
			Op:  "topology fetch",
			Err: fmt.Errorf("unexpected status %d", rsp.StatusCode),
		}
	}

	topo := &Topology{}
	if err := json.NewDecoder(rsp.Body).Decode(topo); err != nil {
		return nil, &TransportError{Op: "topology decode", Err: err}
	}

	return topo, nil
}
