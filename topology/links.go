package topology

import (
	"sync"

	"github.com/yaron8/netmonitor/telemetrics"
)

// LinkRegistry is the set of discovered directed links, in registration order.
type LinkRegistry struct {
	mu    sync.RWMutex
	seen  map[telemetrics.DirectedLink]struct{}
	links []telemetrics.DirectedLink
}

func NewLinkRegistry() *LinkRegistry {
	return &LinkRegistry{
		seen: make(map[telemetrics.DirectedLink]struct{}),
	}
}

// Register adds link unless an identical one is already known.
// It reports whether the link was new.
func (r *LinkRegistry) Register(link telemetrics.DirectedLink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[link]; ok {
		return false
	}
	r.seen[link] = struct{}{}
	r.links = append(r.links, link)
	return true
}

func (r *LinkRegistry) DirectedLinks() []telemetrics.DirectedLink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]telemetrics.DirectedLink, len(r.links))
	copy(out, r.links)
	return out
}

// BidirectionalLinks pairs the registered directions. See PairLinks.
func (r *LinkRegistry) BidirectionalLinks() []telemetrics.DirectedLink {
	return PairLinks(r.DirectedLinks())
}

// PairLinks folds directed links into physical links.
//
// A link is kept as provisional under (src, dst) until a link arrives whose (src, dst)
// or (dst, src) is provisional; that later link is emitted as the canonical direction
// and is not stored itself. Provisional entries are never removed, so links without a
// mirror are never emitted and the output follows the order of the closing links.
func PairLinks(links []telemetrics.DirectedLink) []telemetrics.DirectedLink {
	provisional := make(map[telemetrics.NodePair]telemetrics.DirectedLink, len(links))
	var paired []telemetrics.DirectedLink

	for _, link := range links {
		forward := telemetrics.NodePair{Src: link.Src, Dst: link.Dst}
		backward := telemetrics.NodePair{Src: link.Dst, Dst: link.Src}

		_, hasForward := provisional[forward]
		_, hasBackward := provisional[backward]
		if hasForward || hasBackward {
			paired = append(paired, link)
			continue
		}
		provisional[forward] = link
	}
	return paired
}
