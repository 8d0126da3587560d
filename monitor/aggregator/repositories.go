package aggregator

import (
	"github.com/benbjohnson/clock"
	"github.com/yaron8/netmonitor/measurement"
	"github.com/yaron8/netmonitor/topology"
)

// NewRepositories creates empty repositories. clk drives the round trip timers.
func NewRepositories(clk clock.Clock) *Repositories {
	return &Repositories{
		ResponseTimes: measurement.NewResponseTimeRepository(clk),
		Latencies:     measurement.NewLatencyRepository(),
		Bandwidth:     measurement.NewCounterRepository[measurement.BandwidthSample](),
		Loss:          measurement.NewCounterRepository[measurement.PlrSample](),
		Topology:      topology.NewTopology(),
		Links:         topology.NewLinkRegistry(),
	}
}
