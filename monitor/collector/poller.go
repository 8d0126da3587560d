package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/yaron8/netmonitor/logi"
	"github.com/yaron8/netmonitor/measurement"
	"github.com/yaron8/netmonitor/monitor/fabric"
)

// Poller periodically asks every switch for its port counters and starts the
// round trip timer of the switch right before each request.
type Poller struct {
	fabric        fabric.Fabric
	responseTimes *measurement.ResponseTimeRepository
	clock         clock.Clock
	interval      time.Duration
	logger        *slog.Logger
}

func NewPoller(f fabric.Fabric, responseTimes *measurement.ResponseTimeRepository, clk clock.Clock, interval time.Duration) *Poller {
	return &Poller{
		fabric:        f,
		responseTimes: responseTimes,
		clock:         clk,
		interval:      interval,
		logger:        logi.GetLogger(),
	}
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("Stats poller starting", "interval", p.interval)

	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Stats poller stopped")
			return nil
		case <-ticker.C:
			p.PollOnce(ctx)
			p.logger.Debug("Datapath response times", "table", p.responseTimes.String())
		}
	}
}

// PollOnce sends one stats request to every connected switch.
// A failed request is logged and retried on the next round only.
func (p *Poller) PollOnce(ctx context.Context) {
	for _, node := range p.fabric.Datapaths() {
		p.logger.Debug("Sending stats request", "dpid", node.String())

		p.responseTimes.WriteSendTime(node)
		if err := p.fabric.RequestPortStats(ctx, node); err != nil {
			p.logger.Error("Error requesting port stats", "dpid", node.String(), "error", err)
		}
	}
}
