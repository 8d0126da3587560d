package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/yaron8/netmonitor/logi"
	"github.com/yaron8/netmonitor/measurement"
	"github.com/yaron8/netmonitor/monitor/fabric"
	"github.com/yaron8/netmonitor/monitor/probe"
	"github.com/yaron8/netmonitor/timeunits"
	"github.com/yaron8/netmonitor/topology"
)

// Prober periodically sends a latency probe out of every known port of every switch.
type Prober struct {
	fabric    fabric.Fabric
	topology  *topology.Topology
	latencies *measurement.LatencyRepository
	clock     clock.Clock
	interval  time.Duration
	logger    *slog.Logger
}

func NewProber(f fabric.Fabric, topo *topology.Topology, latencies *measurement.LatencyRepository, clk clock.Clock, interval time.Duration) *Prober {
	return &Prober{
		fabric:    f,
		topology:  topo,
		latencies: latencies,
		clock:     clk,
		interval:  interval,
		logger:    logi.GetLogger(),
	}
}

func (p *Prober) Run(ctx context.Context) error {
	p.logger.Info("Latency prober starting", "interval", p.interval)

	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Latency prober stopped")
			return nil
		case <-ticker.C:
			p.ProbeOnce(ctx)
			p.logger.Debug("Link latencies", "table", p.latencies.String())
		}
	}
}

// ProbeOnce stamps each probe with the time it is handed to the fabric.
func (p *Prober) ProbeOnce(ctx context.Context) {
	for _, node := range p.fabric.Datapaths() {
		for _, port := range p.topology.Ports(node) {
			pr := probe.Probe{
				SendTime: timeunits.TimePointFromTime(p.clock.Now()),
				SrcPort:  port,
			}

			frame, err := probe.EncodeFrame(pr)
			if err != nil {
				p.logger.Error("Error encoding probe", "dpid", node.String(), "port", port, "error", err)
				continue
			}

			if err := p.fabric.SendFrame(ctx, node, port, frame); err != nil {
				p.logger.Error("Error sending probe", "dpid", node.String(), "port", port, "error", err)
			}
		}
	}
}
