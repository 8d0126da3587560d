package telemetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeID_String(t *testing.T) {
	assert.Equal(t, "00:00:00:00:00:00:00:01", NodeID(1).String())
	assert.Equal(t, "00:00:00:00:00:00:00:0a", NodeID(10).String())
	assert.Equal(t, "00:00:00:00:00:00:00:64", NodeID(100).String())
	assert.Equal(t, "00:00:00:05:64:1b:39:d1", NodeID(23154342353).String())
}

func TestParseNodeID(t *testing.T) {
	id, err := ParseNodeID("00:00:00:05:64:1b:39:d1")
	require.NoError(t, err)
	assert.Equal(t, NodeID(23154342353), id)

	id, err = ParseNodeID("42")
	require.NoError(t, err)
	assert.Equal(t, NodeID(42), id)

	_, err = ParseNodeID("sw1")
	assert.Error(t, err)
}

func TestParsePortID(t *testing.T) {
	p, err := ParsePortID("24")
	require.NoError(t, err)
	assert.Equal(t, PortID(24), p)

	_, err = ParsePortID("-1")
	assert.Error(t, err)
}

func TestDirectedLink(t *testing.T) {
	l1 := DirectedLink{Src: 1, SrcPort: 19, Dst: 2, DstPort: 24}
	l2 := DirectedLink{Src: 1, SrcPort: 19, Dst: 2, DstPort: 24}
	l3 := DirectedLink{Src: 2, SrcPort: 14, Dst: 3, DstPort: 11}

	assert.Equal(t, l1, l2)
	assert.NotEqual(t, l1, l3)

	set := map[DirectedLink]bool{l1: true}
	assert.True(t, set[l2])
	assert.False(t, set[l3])

	assert.Equal(t, DirectedLink{Src: 2, SrcPort: 24, Dst: 1, DstPort: 19}, l1.Reverse())
	assert.Equal(t, "src_dpid=1;src_port_no=19;dst_dpid=2;dst_port_no=24", l1.String())
}
