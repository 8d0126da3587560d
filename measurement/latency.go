package measurement

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yaron8/netmonitor/telemetrics"
	"github.com/yaron8/netmonitor/timeunits"
)

// LatencyRepository holds the last one-way latency measured per direction.
type LatencyRepository struct {
	mu        sync.RWMutex
	latencies map[telemetrics.NodePair]timeunits.TimeSpan
}

func NewLatencyRepository() *LatencyRepository {
	return &LatencyRepository{
		latencies: make(map[telemetrics.NodePair]timeunits.TimeSpan),
	}
}

// Record stores receiveTime - sendTime for src->dst, replacing any earlier value.
func (r *LatencyRepository) Record(src, dst telemetrics.NodeID, sendTime, receiveTime timeunits.TimePoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.latencies[telemetrics.NodePair{Src: src, Dst: dst}] = receiveTime.Sub(sendTime)
}

// Latency returns a zero span for pairs never measured.
func (r *LatencyRepository) Latency(src, dst telemetrics.NodeID) timeunits.TimeSpan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.latencies[telemetrics.NodePair{Src: src, Dst: dst}]
}

func (r *LatencyRepository) Snapshot() map[telemetrics.NodePair]timeunits.TimeSpan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[telemetrics.NodePair]timeunits.TimeSpan, len(r.latencies))
	for pair, span := range r.latencies {
		out[pair] = span
	}
	return out
}

func (r *LatencyRepository) String() string {
	snapshot := r.Snapshot()
	pairs := make([]telemetrics.NodePair, 0, len(snapshot))
	for pair := range snapshot {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Src != pairs[j].Src {
			return pairs[i].Src < pairs[j].Src
		}
		return pairs[i].Dst < pairs[j].Dst
	})

	var sb strings.Builder
	for _, pair := range pairs {
		fmt.Fprintf(&sb, "[%s][%s] -> %v\n", pair.Src, pair.Dst, snapshot[pair].Milliseconds())
	}
	return sb.String()
}
