package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/benbjohnson/clock"
	"github.com/yaron8/netmonitor/logi"
	"github.com/yaron8/netmonitor/measurement"
	"github.com/yaron8/netmonitor/monitor/aggregator"
	"github.com/yaron8/netmonitor/monitor/fabric"
	"github.com/yaron8/netmonitor/monitor/probe"
	"github.com/yaron8/netmonitor/telemetrics"
	"github.com/yaron8/netmonitor/timeunits"
)

// Dispatcher is the only consumer of the fabric events and feeds them into the
// repositories.
type Dispatcher struct {
	fabric fabric.Fabric
	repos  *aggregator.Repositories
	clock  clock.Clock
	logger *slog.Logger
}

func NewDispatcher(f fabric.Fabric, repos *aggregator.Repositories, clk clock.Clock) *Dispatcher {
	return &Dispatcher{
		fabric: f,
		repos:  repos,
		clock:  clk,
		logger: logi.GetLogger(),
	}
}

// Run handles events until ctx is done or the fabric closes its event channel.
// Errors of single events are logged and do not stop the loop.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Event dispatcher starting")

	events := d.fabric.Events()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Event dispatcher stopped")
			return nil
		case ev, ok := <-events:
			if !ok {
				d.logger.Info("Fabric closed its event stream")
				return nil
			}
			if err := d.Handle(ev); err != nil {
				d.logger.Error("Error handling fabric event", "event", fmt.Sprintf("%T", ev), "error", err)
			}
		}
	}
}

func (d *Dispatcher) Handle(ev fabric.Event) error {
	switch e := ev.(type) {
	case fabric.PortStatsReply:
		return d.handlePortStats(e)
	case fabric.FrameIn:
		return d.handleFrameIn(e)
	case fabric.LinkDiscovered:
		d.handleLinkDiscovered(e)
		return nil
	default:
		return fmt.Errorf("unsupported event type %T", ev)
	}
}

// handlePortStats closes the round trip timer first; a reply nobody asked for is
// rejected as a whole.
func (d *Dispatcher) handlePortStats(reply fabric.PortStatsReply) error {
	if err := d.repos.ResponseTimes.WriteReceiveTime(reply.Node); err != nil {
		return fmt.Errorf("port stats reply: %w", err)
	}
	d.logger.Debug("Datapath response time",
		"dpid", reply.Node.String(),
		"response_time_ms", d.repos.ResponseTimes.ResponseTime(reply.Node).Milliseconds())

	stats := make([]fabric.PortStats, len(reply.Stats))
	copy(stats, reply.Stats)
	sort.Slice(stats, func(i, j int) bool { return stats[i].Port < stats[j].Port })

	for _, st := range stats {
		key := telemetrics.PortKey{Node: reply.Node, Port: st.Port}
		d.repos.Bandwidth.AddSample(key,
			measurement.NewBandwidthSample(st.DurationSec, st.DurationNsec, st.RxBytes, st.TxBytes))
		d.repos.Loss.AddSample(key,
			measurement.NewPlrSample(st.RxPackets, st.TxPackets, st.RxErrors, st.TxErrors))
	}
	return nil
}

// handleFrameIn records the latency of a probe. The sender is the neighbor that
// reaches the receiving switch through the port stamped in the probe.
func (d *Dispatcher) handleFrameIn(in fabric.FrameIn) error {
	receiveTime := timeunits.TimePointFromTime(d.clock.Now())

	p, err := probe.DecodeFrame(in.Frame)
	if errors.Is(err, probe.ErrNotProbe) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("frame from %s: %w", in.Node, err)
	}

	src := d.repos.Topology.OppositeNode(in.Node, p.SrcPort)
	if src == 0 {
		d.logger.Debug("Probe from unknown neighbor", "dpid", in.Node.String(), "src_port", p.SrcPort)
		return nil
	}

	d.repos.Latencies.Record(src, in.Node, p.SendTime, receiveTime)
	return nil
}

func (d *Dispatcher) handleLinkDiscovered(ev fabric.LinkDiscovered) {
	l := ev.Link
	d.repos.Topology.RegisterLink(l.Src, l.SrcPort, l.Dst, l.DstPort)
	if d.repos.Links.Register(l) {
		d.logger.Info("Link discovered", "link", l.String())
	}
}
