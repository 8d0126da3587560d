// Package metrics exports the computed link quality to Prometheus.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/yaron8/netmonitor/telemetrics"
	"github.com/yaron8/netmonitor/timeunits"
)

const namespace = "netmonitor"

// Source is what the collector reads on every scrape. The aggregator implements it.
type Source interface {
	Links() []telemetrics.LinkView
	ResponseTimes() map[telemetrics.NodeID]timeunits.TimeSpan
}

// LinkCollector computes the link views on scrape instead of mirroring them in gauges,
// so the exported values are never older than the repositories.
type LinkCollector struct {
	source Source

	delay     *prometheus.Desc
	bandwidth *prometheus.Desc
	loss      *prometheus.Desc
	rtt       *prometheus.Desc
}

func NewLinkCollector(source Source) *LinkCollector {
	linkLabels := []string{"src_node", "src_port", "dst_node", "dst_port"}

	return &LinkCollector{
		source: source,
		delay: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "link", "delay_ms"),
			"Estimated one-way link delay in milliseconds.",
			linkLabels, nil),
		bandwidth: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "link", "bandwidth_bits_per_second"),
			"Mean throughput of both link ends.",
			linkLabels, nil),
		loss: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "link", "loss_percent"),
			"Mean packet loss ratio of both link ends.",
			linkLabels, nil),
		rtt: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "datapath", "response_time_ms"),
			"Last controller to switch round trip time.",
			[]string{"node"}, nil),
	}
}

func (c *LinkCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.delay
	ch <- c.bandwidth
	ch <- c.loss
	ch <- c.rtt
}

func (c *LinkCollector) Collect(ch chan<- prometheus.Metric) {
	for _, view := range c.source.Links() {
		labels := []string{
			view.SrcNode,
			portLabel(view.SrcPort),
			view.DstNode,
			portLabel(view.DstPort),
		}
		ch <- prometheus.MustNewConstMetric(c.delay, prometheus.GaugeValue, view.DelayMs, labels...)
		ch <- prometheus.MustNewConstMetric(c.bandwidth, prometheus.GaugeValue, view.BandwidthBps, labels...)
		ch <- prometheus.MustNewConstMetric(c.loss, prometheus.GaugeValue, view.LossPercent, labels...)
	}

	for node, span := range c.source.ResponseTimes() {
		ch <- prometheus.MustNewConstMetric(c.rtt, prometheus.GaugeValue, span.Milliseconds(), node.String())
	}
}

// NewRegistry returns a registry with the link collector and the Go runtime collectors.
func NewRegistry(source Source) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewLinkCollector(source),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func portLabel(p telemetrics.PortID) string {
	return strconv.FormatUint(uint64(p), 10)
}
