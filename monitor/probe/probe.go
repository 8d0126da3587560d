// Package probe encodes the active latency probes exchanged between neighbor switches.
//
// A probe is an Ethernet frame from 00:00:00:00:00:00 to ff:ff:ff:ff:ff:ff with
// EtherType 0x0815 whose payload is "<send time>:<egress port>", for example
// "1586869012.1606:12". Short frames are zero padded on the wire.
package probe

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/yaron8/netmonitor/telemetrics"
	"github.com/yaron8/netmonitor/timeunits"
)

// EtherType marks probe frames.
const EtherType layers.EthernetType = 0x0815

const delimiter = ":"

var (
	SrcMAC = net.HardwareAddr{0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	DstMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

	// ErrNotProbe is returned by DecodeFrame for regular traffic.
	ErrNotProbe = errors.New("not a probe frame")
)

// Probe is what the sending switch stamps into the frame.
type Probe struct {
	SendTime timeunits.TimePoint
	SrcPort  telemetrics.PortID
}

func (p Probe) String() string {
	return p.SendTime.String() + delimiter + strconv.FormatUint(uint64(p.SrcPort), 10)
}

// ParsePayload reads "<send time>:<port>", ignoring NUL padding.
func ParsePayload(raw []byte) (Probe, error) {
	payload := strings.ReplaceAll(string(raw), "\x00", "")

	ts, port, ok := strings.Cut(payload, delimiter)
	if !ok {
		return Probe{}, fmt.Errorf("malformed probe payload %q", payload)
	}

	sendTime, err := timeunits.ParseTimePoint(ts)
	if err != nil {
		return Probe{}, fmt.Errorf("malformed probe send time: %w", err)
	}

	srcPort, err := telemetrics.ParsePortID(port)
	if err != nil {
		return Probe{}, fmt.Errorf("malformed probe port: %w", err)
	}

	return Probe{SendTime: sendTime, SrcPort: srcPort}, nil
}

// EncodeFrame serializes p into a complete Ethernet frame.
func EncodeFrame(p Probe) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       SrcMAC,
		DstMAC:       DstMAC,
		EthernetType: EtherType,
	}

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, eth, gopacket.Payload(p.String())); err != nil {
		return nil, fmt.Errorf("serialize probe: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeFrame returns ErrNotProbe for frames that do not carry a probe.
func DecodeFrame(frame []byte) (Probe, error) {
	var eth layers.Ethernet
	if err := eth.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); err != nil {
		return Probe{}, fmt.Errorf("decode ethernet: %w", err)
	}

	if eth.EthernetType != EtherType ||
		!bytes.Equal(eth.SrcMAC, SrcMAC) ||
		!bytes.Equal(eth.DstMAC, DstMAC) {
		return Probe{}, ErrNotProbe
	}

	return ParsePayload(eth.Payload)
}
