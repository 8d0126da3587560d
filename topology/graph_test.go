package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yaron8/netmonitor/telemetrics"
)

func TestTopology_OppositeNode_EmptyTopology(t *testing.T) {
	topo := NewTopology()

	assert.Equal(t, telemetrics.NodeID(0), topo.OppositeNode(1, 19))
}

func TestTopology_OppositeNode(t *testing.T) {
	topo := NewTopology()

	topo.RegisterLink(1, 24, 2, 19)

	assert.Equal(t, telemetrics.NodeID(2), topo.OppositeNode(1, 19))
	assert.Equal(t, telemetrics.NodeID(1), topo.OppositeNode(2, 24))
	assert.Equal(t, telemetrics.NodeID(0), topo.OppositeNode(1, 24))
}

func TestTopology_Ports(t *testing.T) {
	topo := NewTopology()

	assert.Empty(t, topo.Ports(1))

	topo.RegisterLink(1, 24, 2, 19)
	topo.RegisterLink(1, 21, 3, 10)

	assert.Equal(t, []telemetrics.PortID{24, 21}, topo.Ports(1))
	assert.Equal(t, []telemetrics.PortID{19}, topo.Ports(2))
	assert.Equal(t, []telemetrics.PortID{10}, topo.Ports(3))
	assert.Equal(t, []telemetrics.NodeID{1, 2, 3}, topo.Nodes())
}

func TestTopology_RegisterLinkMultipleTimes(t *testing.T) {
	topo := NewTopology()

	for i := 0; i < 10; i++ {
		topo.RegisterLink(1, 24, 2, 19)
	}

	assert.Equal(t, []telemetrics.PortID{24}, topo.Ports(1))
	assert.Equal(t, []telemetrics.PortID{19}, topo.Ports(2))
	assert.Equal(t, telemetrics.NodeID(2), topo.OppositeNode(1, 19))
	assert.Len(t, topo.Nodes(), 2)

	// lookups have no side effects
	assert.Empty(t, topo.Ports(10))
	assert.Equal(t, telemetrics.NodeID(0), topo.OppositeNode(15, 4))
	assert.Len(t, topo.Nodes(), 2)
}

func TestTopology_PortsReturnsCopy(t *testing.T) {
	topo := NewTopology()
	topo.RegisterLink(1, 24, 2, 19)

	ports := topo.Ports(1)
	ports[0] = 99

	assert.Equal(t, []telemetrics.PortID{24}, topo.Ports(1))
}
