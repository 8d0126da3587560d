// Package fabric is the contract between the monitor and the controller layer that
// talks to the switches. The controller delivers replies and discovery notifications
// as Events; the monitor issues requests through the Fabric methods.
package fabric

import (
	"context"

	"github.com/yaron8/netmonitor/telemetrics"
)

// Fabric is implemented by a controller connection.
type Fabric interface {
	// Datapaths lists the switches currently connected.
	Datapaths() []telemetrics.NodeID
	// RequestPortStats asks node for the counters of all its ports.
	// The answer arrives later as a PortStatsReply event.
	RequestPortStats(ctx context.Context, node telemetrics.NodeID) error
	// SendFrame emits frame out of a port of node.
	SendFrame(ctx context.Context, node telemetrics.NodeID, port telemetrics.PortID, frame []byte) error
	// Events may be closed by a fabric that shuts down.
	Events() <-chan Event
}

// Event is one of PortStatsReply, FrameIn or LinkDiscovered.
type Event interface {
	isEvent()
}

// PortStats are the raw counters of one port.
type PortStats struct {
	Port         telemetrics.PortID
	DurationSec  uint32
	DurationNsec uint32
	RxBytes      uint64
	TxBytes      uint64
	RxPackets    uint64
	TxPackets    uint64
	RxErrors     uint64
	TxErrors     uint64
}

// PortStatsReply answers RequestPortStats.
type PortStatsReply struct {
	Node  telemetrics.NodeID
	Stats []PortStats
}

// FrameIn is a frame punted to the controller by Node. InPort is where it entered.
type FrameIn struct {
	Node   telemetrics.NodeID
	InPort telemetrics.PortID
	Frame  []byte
}

// LinkDiscovered reports one direction of a link.
type LinkDiscovered struct {
	Link telemetrics.DirectedLink
}

func (PortStatsReply) isEvent() {}
func (FrameIn) isEvent()        {}
func (LinkDiscovered) isEvent() {}
