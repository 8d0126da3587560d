package topology

import (
	"sync"

	"github.com/yaron8/netmonitor/telemetrics"
)

// Topology maps every local port to the neighbor reachable through it and keeps the
// ports of each node in the order they were discovered.
type Topology struct {
	mu        sync.RWMutex
	neighbors map[telemetrics.PortKey]telemetrics.NodeID
	ports     map[telemetrics.NodeID][]telemetrics.PortID
	nodes     []telemetrics.NodeID
}

func NewTopology() *Topology {
	return &Topology{
		neighbors: make(map[telemetrics.PortKey]telemetrics.NodeID),
		ports:     make(map[telemetrics.NodeID][]telemetrics.PortID),
	}
}

// RegisterLink records one discovered direction. Registering the same link again
// changes nothing.
//
// A probe sent by src out of srcPort arrives at dst tagged with srcPort, so dst
// resolves the sender through (dst, srcPort). The same holds the other way round.
func (t *Topology) RegisterLink(src telemetrics.NodeID, srcPort telemetrics.PortID, dst telemetrics.NodeID, dstPort telemetrics.PortID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.neighbors[telemetrics.PortKey{Node: src, Port: dstPort}] = dst
	t.neighbors[telemetrics.PortKey{Node: dst, Port: srcPort}] = src

	t.addPort(src, srcPort)
	t.addPort(dst, dstPort)
}

func (t *Topology) addPort(node telemetrics.NodeID, port telemetrics.PortID) {
	ports, known := t.ports[node]
	if !known {
		t.nodes = append(t.nodes, node)
	}
	for _, p := range ports {
		if p == port {
			return
		}
	}
	t.ports[node] = append(ports, port)
}

// OppositeNode returns 0 when nothing is known about (node, port).
func (t *Topology) OppositeNode(node telemetrics.NodeID, port telemetrics.PortID) telemetrics.NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.neighbors[telemetrics.PortKey{Node: node, Port: port}]
}

// Ports returns a copy of the node's ports; empty for unknown nodes.
func (t *Topology) Ports(node telemetrics.NodeID) []telemetrics.PortID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ports := t.ports[node]
	out := make([]telemetrics.PortID, len(ports))
	copy(out, ports)
	return out
}

// Nodes returns every node seen in a link, in discovery order.
func (t *Topology) Nodes() []telemetrics.NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]telemetrics.NodeID, len(t.nodes))
	copy(out, t.nodes)
	return out
}
