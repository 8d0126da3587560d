package aggregator

import (
	"github.com/yaron8/netmonitor/measurement"
	"github.com/yaron8/netmonitor/telemetrics"
	"github.com/yaron8/netmonitor/timeunits"
	"github.com/yaron8/netmonitor/topology"
)

// Repositories groups the state shared between the collector tasks and the aggregator.
// It is built once at startup and handed to every task that needs it.
type Repositories struct {
	ResponseTimes *measurement.ResponseTimeRepository
	Latencies     *measurement.LatencyRepository
	Bandwidth     *measurement.CounterRepository[measurement.BandwidthSample]
	Loss          *measurement.CounterRepository[measurement.PlrSample]
	Topology      *topology.Topology
	Links         *topology.LinkRegistry
}

// Aggregator turns the raw repositories into per-link views.
// Repositories are read one after another without a global lock, so the two ends of
// a link may be one sample apart; the next pass catches up.
type Aggregator struct {
	repos *Repositories
}

func NewAggregator(repos *Repositories) *Aggregator {
	return &Aggregator{repos: repos}
}

// Links computes a view for every bidirectional link.
func (a *Aggregator) Links() []telemetrics.LinkView {
	links := a.repos.Links.BidirectionalLinks()
	views := make([]telemetrics.LinkView, 0, len(links))
	for _, link := range links {
		views = append(views, a.LinkView(link))
	}
	return views
}

func (a *Aggregator) LinkView(link telemetrics.DirectedLink) telemetrics.LinkView {
	return telemetrics.LinkView{
		SrcNode:      link.Src.String(),
		SrcPort:      link.SrcPort,
		DstNode:      link.Dst.String(),
		DstPort:      link.DstPort,
		DelayMs:      a.DelayMs(link),
		BandwidthBps: a.BandwidthBps(link),
		LossPercent:  a.LossPercent(link),
	}
}

// DelayMs is the mean one-way latency of both directions minus a quarter of the
// two switch response times, which approximates the control plane share of a probe.
func (a *Aggregator) DelayMs(link telemetrics.DirectedLink) float64 {
	forward := a.repos.Latencies.Latency(link.Src, link.Dst).Milliseconds()
	backward := a.repos.Latencies.Latency(link.Dst, link.Src).Milliseconds()
	srcRTT := a.repos.ResponseTimes.ResponseTime(link.Src).Milliseconds()
	dstRTT := a.repos.ResponseTimes.ResponseTime(link.Dst).Milliseconds()

	return (forward+backward)/2 - (srcRTT+dstRTT)/4
}

func (a *Aggregator) BandwidthBps(link telemetrics.DirectedLink) float64 {
	src := a.repos.Bandwidth.Metric(telemetrics.PortKey{Node: link.Src, Port: link.SrcPort})
	dst := a.repos.Bandwidth.Metric(telemetrics.PortKey{Node: link.Dst, Port: link.DstPort})
	return (src + dst) / 2
}

func (a *Aggregator) LossPercent(link telemetrics.DirectedLink) float64 {
	src := a.repos.Loss.Metric(telemetrics.PortKey{Node: link.Src, Port: link.SrcPort})
	dst := a.repos.Loss.Metric(telemetrics.PortKey{Node: link.Dst, Port: link.DstPort})
	return (src + dst) / 2
}

// ResponseTime returns the last round trip measured to node.
func (a *Aggregator) ResponseTime(node telemetrics.NodeID) timeunits.TimeSpan {
	return a.repos.ResponseTimes.ResponseTime(node)
}

// Latency returns the last one-way latency measured from src to dst.
func (a *Aggregator) Latency(src, dst telemetrics.NodeID) timeunits.TimeSpan {
	return a.repos.Latencies.Latency(src, dst)
}

func (a *Aggregator) Bandwidth(node telemetrics.NodeID, port telemetrics.PortID) float64 {
	return a.repos.Bandwidth.Metric(telemetrics.PortKey{Node: node, Port: port})
}

func (a *Aggregator) Loss(node telemetrics.NodeID, port telemetrics.PortID) float64 {
	return a.repos.Loss.Metric(telemetrics.PortKey{Node: node, Port: port})
}

// ResponseTimes exposes every measured node round trip.
func (a *Aggregator) ResponseTimes() map[telemetrics.NodeID]timeunits.TimeSpan {
	return a.repos.ResponseTimes.Snapshot()
}
