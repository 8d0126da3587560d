package measurement

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/yaron8/netmonitor/telemetrics"
	"github.com/yaron8/netmonitor/timeunits"
)

// ErrUnmatchedReceive means a reply arrived for a node with no request in flight.
var ErrUnmatchedReceive = errors.New("receive time without matching send time")

type rttEntry struct {
	sendTime     timeunits.TimePoint
	open         bool
	responseTime timeunits.TimeSpan
}

// ResponseTimeRepository measures controller-to-switch round trip times.
// Only one request per node is tracked: a new send overwrites an unanswered one.
type ResponseTimeRepository struct {
	mu      sync.RWMutex
	clock   clock.Clock
	timings map[telemetrics.NodeID]*rttEntry
}

func NewResponseTimeRepository(clk clock.Clock) *ResponseTimeRepository {
	return &ResponseTimeRepository{
		clock:   clk,
		timings: make(map[telemetrics.NodeID]*rttEntry),
	}
}

func (r *ResponseTimeRepository) WriteSendTime(node telemetrics.NodeID) {
	now := timeunits.TimePointFromTime(r.clock.Now())

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.timings[node]
	if !ok {
		entry = &rttEntry{}
		r.timings[node] = entry
	}
	entry.sendTime = now
	entry.open = true
}

func (r *ResponseTimeRepository) WriteReceiveTime(node telemetrics.NodeID) error {
	now := timeunits.TimePointFromTime(r.clock.Now())

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.timings[node]
	if !ok || !entry.open {
		return fmt.Errorf("node %s: %w", node, ErrUnmatchedReceive)
	}
	entry.responseTime = now.Sub(entry.sendTime)
	entry.open = false
	return nil
}

// ResponseTime returns the last measured round trip, zero for unknown nodes.
func (r *ResponseTimeRepository) ResponseTime(node telemetrics.NodeID) timeunits.TimeSpan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.timings[node]; ok {
		return entry.responseTime
	}
	return timeunits.TimeSpan{}
}

func (r *ResponseTimeRepository) Snapshot() map[telemetrics.NodeID]timeunits.TimeSpan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[telemetrics.NodeID]timeunits.TimeSpan, len(r.timings))
	for node, entry := range r.timings {
		out[node] = entry.responseTime
	}
	return out
}

func (r *ResponseTimeRepository) String() string {
	snapshot := r.Snapshot()
	nodes := make([]telemetrics.NodeID, 0, len(snapshot))
	for node := range snapshot {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	var sb strings.Builder
	for _, node := range nodes {
		fmt.Fprintf(&sb, "[%s]\t%v ms\n", node, snapshot[node].Milliseconds())
	}
	return sb.String()
}
