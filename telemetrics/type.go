package telemetrics

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeID is a datapath id. Zero means "unknown node".
type NodeID uint64

// PortID is a switch-local port number
type PortID uint32

// String formats the id the way controllers print datapath ids: 00:00:00:00:00:00:00:0a
func (n NodeID) String() string {
	hex := fmt.Sprintf("%016x", uint64(n))

	var sb strings.Builder
	sb.Grow(23)
	for i := 0; i < len(hex); i += 2 {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(hex[i : i+2])
	}
	return sb.String()
}

// ParseNodeID accepts either the colon separated hex form or a plain decimal.
func ParseNodeID(s string) (NodeID, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		v, err := strconv.ParseUint(strings.ReplaceAll(s, ":", ""), 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid datapath id %q: %w", s, err)
		}
		return NodeID(v), nil
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid datapath id %q: %w", s, err)
	}
	return NodeID(v), nil
}

func ParsePortID(s string) (PortID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid port number %q: %w", s, err)
	}
	return PortID(v), nil
}

// PortKey addresses a single interface of a node
type PortKey struct {
	Node NodeID
	Port PortID
}

// NodePair is an ordered (src, dst) pair of nodes.
type NodePair struct {
	Src NodeID
	Dst NodeID
}

// DirectedLink is one observed direction of a physical link.
// It is comparable and used as a map key directly.
type DirectedLink struct {
	Src     NodeID
	SrcPort PortID
	Dst     NodeID
	DstPort PortID
}

// Reverse returns the mirror direction.
func (l DirectedLink) Reverse() DirectedLink {
	return DirectedLink{Src: l.Dst, SrcPort: l.DstPort, Dst: l.Src, DstPort: l.SrcPort}
}

func (l DirectedLink) String() string {
	return fmt.Sprintf("src_dpid=%d;src_port_no=%d;dst_dpid=%d;dst_port_no=%d",
		l.Src, l.SrcPort, l.Dst, l.DstPort)
}

// LinkView is the computed quality of one bidirectional link
type LinkView struct {
	SrcNode      string  `json:"src_node"`
	SrcPort      PortID  `json:"src_port"`
	DstNode      string  `json:"dst_node"`
	DstPort      PortID  `json:"dst_port"`
	DelayMs      float64 `json:"delay_ms"`
	BandwidthBps float64 `json:"bandwidth_bps"`
	LossPercent  float64 `json:"loss_percent"`
}
