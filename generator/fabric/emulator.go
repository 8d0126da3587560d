// Package fabric emulates a chain of OpenFlow-like switches behind a controller so the
// monitor can run without real hardware. It implements the monitor's fabric.Fabric.
package fabric

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/yaron8/netmonitor/generator/config"
	monfabric "github.com/yaron8/netmonitor/monitor/fabric"
	"github.com/yaron8/netmonitor/telemetrics"
)

const (
	eventBufferSize = 1024
	bytesPerPacket  = 1000
)

type portCounters struct {
	rxBytes, txBytes     uint64
	rxPackets, txPackets uint64
	rxErrors, txErrors   uint64
}

type switchState struct {
	ports      map[telemetrics.PortID]*portCounters
	lastPolled time.Time
}

// Emulator is safe for concurrent use.
type Emulator struct {
	mu       sync.Mutex
	cfg      config.Config
	clock    clock.Clock
	rnd      *rand.Rand
	started  time.Time
	nodes    []telemetrics.NodeID
	switches map[telemetrics.NodeID]*switchState
	wiring   map[telemetrics.PortKey]telemetrics.PortKey
	links    []telemetrics.DirectedLink

	events chan monfabric.Event
	done   chan struct{}
	once   sync.Once
}

// NewEmulator wires switch i port 2 to switch i+1 port 1, for i in 1..Switches-1.
func NewEmulator(cfg config.Config, clk clock.Clock) *Emulator {
	seed := cfg.Seed
	if seed == 0 {
		seed = clk.Now().UnixNano()
	}

	e := &Emulator{
		cfg:      cfg,
		clock:    clk,
		rnd:      rand.New(rand.NewSource(seed)),
		started:  clk.Now(),
		switches: make(map[telemetrics.NodeID]*switchState),
		wiring:   make(map[telemetrics.PortKey]telemetrics.PortKey),
		events:   make(chan monfabric.Event, eventBufferSize),
		done:     make(chan struct{}),
	}

	for i := 1; i <= cfg.Switches; i++ {
		node := telemetrics.NodeID(i)
		e.nodes = append(e.nodes, node)
		e.switches[node] = &switchState{
			ports:      make(map[telemetrics.PortID]*portCounters),
			lastPolled: e.started,
		}
	}

	for i := 1; i < cfg.Switches; i++ {
		l := telemetrics.DirectedLink{
			Src:     telemetrics.NodeID(i),
			SrcPort: 2,
			Dst:     telemetrics.NodeID(i + 1),
			DstPort: 1,
		}
		e.wire(l)
		e.wire(l.Reverse())
		e.links = append(e.links, l, l.Reverse())
	}

	return e
}

func (e *Emulator) wire(l telemetrics.DirectedLink) {
	e.wiring[telemetrics.PortKey{Node: l.Src, Port: l.SrcPort}] = telemetrics.PortKey{Node: l.Dst, Port: l.DstPort}
	e.switches[l.Src].ports[l.SrcPort] = &portCounters{}
}

// Start announces every link direction, the way a discovery protocol would.
func (e *Emulator) Start() {
	links := make([]telemetrics.DirectedLink, len(e.links))
	copy(links, e.links)

	go func() {
		for _, l := range links {
			e.send(monfabric.LinkDiscovered{Link: l})
		}
	}()
}

// Close stops event delivery. Pending deliveries are dropped.
func (e *Emulator) Close() error {
	e.once.Do(func() { close(e.done) })
	return nil
}

func (e *Emulator) Datapaths() []telemetrics.NodeID {
	out := make([]telemetrics.NodeID, len(e.nodes))
	copy(out, e.nodes)
	return out
}

func (e *Emulator) Events() <-chan monfabric.Event {
	return e.events
}

// RequestPortStats advances the counters of node by the traffic of the elapsed time
// and answers after a controller round trip.
func (e *Emulator) RequestPortStats(ctx context.Context, node telemetrics.NodeID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	sw, ok := e.switches[node]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("unknown datapath %s", node)
	}

	now := e.clock.Now()
	elapsed := now.Sub(sw.lastPolled).Seconds()
	sw.lastPolled = now
	uptime := now.Sub(e.started)

	ports := make([]telemetrics.PortID, 0, len(sw.ports))
	for port := range sw.ports {
		ports = append(ports, port)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })

	reply := monfabric.PortStatsReply{Node: node}
	for _, port := range ports {
		c := sw.ports[port]
		e.generateTraffic(c, elapsed)
		reply.Stats = append(reply.Stats, monfabric.PortStats{
			Port:         port,
			DurationSec:  uint32(uptime / time.Second),
			DurationNsec: uint32(uptime % time.Second),
			RxBytes:      c.rxBytes,
			TxBytes:      c.txBytes,
			RxPackets:    c.rxPackets,
			TxPackets:    c.txPackets,
			RxErrors:     c.rxErrors,
			TxErrors:     c.txErrors,
		})
	}
	e.mu.Unlock()

	e.deliver(2*e.cfg.ControlDelay, reply)
	return nil
}

// generateTraffic must be called with e.mu held.
func (e *Emulator) generateTraffic(c *portCounters, elapsed float64) {
	if elapsed <= 0 {
		return
	}
	// +-20% around the configured mean
	jitter := 0.8 + 0.4*e.rnd.Float64()
	bytes := uint64(e.cfg.BandwidthMbps * 1e6 / 8 * elapsed * jitter)
	rx := bytes / 2
	tx := bytes - rx

	c.rxBytes += rx
	c.txBytes += tx
	c.rxPackets += rx / bytesPerPacket
	c.txPackets += tx / bytesPerPacket
	c.rxErrors += uint64(float64(rx/bytesPerPacket) * e.cfg.ErrorRate)
	c.txErrors += uint64(float64(tx/bytesPerPacket) * e.cfg.ErrorRate)
}

// SendFrame forwards frame to the neighbor wired to (node, port), which punts it back
// to the controller.
func (e *Emulator) SendFrame(ctx context.Context, node telemetrics.NodeID, port telemetrics.PortID, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	remote, ok := e.wiring[telemetrics.PortKey{Node: node, Port: port}]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("port %d of %s is not connected", port, node)
	}

	data := make([]byte, len(frame))
	copy(data, frame)

	e.deliver(2*e.cfg.ControlDelay+e.cfg.LinkDelay, monfabric.FrameIn{
		Node:   remote.Node,
		InPort: remote.Port,
		Frame:  data,
	})
	return nil
}

func (e *Emulator) deliver(after time.Duration, ev monfabric.Event) {
	if after <= 0 {
		go e.send(ev)
		return
	}
	e.clock.AfterFunc(after, func() { e.send(ev) })
}

func (e *Emulator) send(ev monfabric.Event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}
