package measurement

import (
	"sync"

	"github.com/yaron8/netmonitor/telemetrics"
	"github.com/yaron8/netmonitor/timeunits"
)

// Sample is a raw counter reading that knows how to turn the difference with the
// previous reading of the same port into a metric.
type Sample[S any] interface {
	DeltaFrom(previous S) float64
}

type counterEntry[S any] struct {
	last      S
	metric    float64
	hasMetric bool
}

// CounterRepository keeps the last sample and the last computed metric per port.
// A metric is undefined until the port has reported twice; Metric returns 0 then.
type CounterRepository[S Sample[S]] struct {
	mu      sync.RWMutex
	entries map[telemetrics.PortKey]*counterEntry[S]
}

func NewCounterRepository[S Sample[S]]() *CounterRepository[S] {
	return &CounterRepository[S]{
		entries: make(map[telemetrics.PortKey]*counterEntry[S]),
	}
}

// AddSample stores the first sample of a port as a baseline. Every later sample
// computes a new metric against the baseline and then replaces it.
func (r *CounterRepository[S]) AddSample(key telemetrics.PortKey, sample S) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok {
		r.entries[key] = &counterEntry[S]{last: sample}
		return
	}

	entry.metric = sample.DeltaFrom(entry.last)
	entry.hasMetric = true
	entry.last = sample
}

// Metric returns the last computed metric or 0.
func (r *CounterRepository[S]) Metric(key telemetrics.PortKey) float64 {
	m, _ := r.Lookup(key)
	return m
}

// Lookup reports whether a metric has been computed for key.
func (r *CounterRepository[S]) Lookup(key telemetrics.PortKey) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[key]
	if !ok || !entry.hasMetric {
		return 0, false
	}
	return entry.metric, true
}

// Snapshot copies every defined metric.
func (r *CounterRepository[S]) Snapshot() map[telemetrics.PortKey]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[telemetrics.PortKey]float64, len(r.entries))
	for key, entry := range r.entries {
		if entry.hasMetric {
			out[key] = entry.metric
		}
	}
	return out
}

// BandwidthSample is a port throughput reading stamped with the device uptime.
type BandwidthSample struct {
	DeviceTime  timeunits.TimePoint
	BitsThrough uint64
}

// NewBandwidthSample builds a sample from the raw port counters of a stats reply
func NewBandwidthSample(uptimeSec, uptimeNsec uint32, rxBytes, txBytes uint64) BandwidthSample {
	return BandwidthSample{
		DeviceTime:  timeunits.TimePointFromSeconds(float64(uptimeSec) + float64(uptimeNsec)*1e-9),
		BitsThrough: 8 * (rxBytes + txBytes),
	}
}

// DeltaFrom returns bits per second between previous and s.
// Elapsed time comes from the device clock, not from when the replies arrived.
func (s BandwidthSample) DeltaFrom(previous BandwidthSample) float64 {
	elapsed := s.DeviceTime.Sub(previous.DeviceTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	bits := int64(s.BitsThrough - previous.BitsThrough)
	return float64(bits) / elapsed
}

// PlrSample is a port packet/error counter reading.
type PlrSample struct {
	PacketsThrough uint64
	Errors         uint64
}

func NewPlrSample(rxPackets, txPackets, rxErrors, txErrors uint64) PlrSample {
	return PlrSample{
		PacketsThrough: rxPackets + txPackets,
		Errors:         rxErrors + txErrors,
	}
}

// DeltaFrom returns the packet loss ratio in percent.
// A zero packet delta or a zero error delta yields 0, even if the other one moved.
func (s PlrSample) DeltaFrom(previous PlrSample) float64 {
	packets := int64(s.PacketsThrough - previous.PacketsThrough)
	errs := int64(s.Errors - previous.Errors)
	if packets == 0 || errs == 0 {
		return 0
	}
	return 100 * float64(errs) / float64(packets)
}
