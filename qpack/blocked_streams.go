package qpack

import "container/heap"

// BlockedStreams tracks header blocks that are waiting on dynamic table
// insertions they reference but haven't seen yet (spec.md §4.8). It's a
// min-heap keyed by requiredInsertCount so PopReady can cheaply pull out
// every block that the most recent insertion(s) have now unblocked.
//
// No pack example implements a QPACK blocked-stream heap directly, so
// this follows container/heap the way every priority queue in the
// ecosystem is built — there's no third-party min-heap in the pack to
// prefer over it.
type blockedEntry struct {
	streamID            uint64
	requiredInsertCount uint64
	index               int
}

type blockedHeap []*blockedEntry

func (h blockedHeap) Len() int { return len(h) }
func (h blockedHeap) Less(i, j int) bool {
	return h[i].requiredInsertCount < h[j].requiredInsertCount
}
func (h blockedHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *blockedHeap) Push(x any) {
	e := x.(*blockedEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *blockedHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// BlockedStreams is not safe for concurrent use; callers serialize
// access the same way the rest of this package does (spec.md §5).
type BlockedStreams struct {
	h        blockedHeap
	byStream map[uint64]*blockedEntry
	maxSize  uint64
}

// NewBlockedStreams creates a tracker bounded by maxRiskedStreams
// (spec.md §6 Config.MaxRiskedStreams); Insert fails once that many
// streams are simultaneously blocked.
func NewBlockedStreams(maxRiskedStreams uint64) *BlockedStreams {
	return &BlockedStreams{
		byStream: make(map[uint64]*blockedEntry),
		maxSize:  maxRiskedStreams,
	}
}

// Len returns the number of currently blocked streams.
func (b *BlockedStreams) Len() int { return len(b.h) }

// Insert records that streamID is blocked until the dynamic table's
// insert count reaches requiredInsertCount. Returns false if the
// configured maximum number of blocked streams would be exceeded.
func (b *BlockedStreams) Insert(streamID, requiredInsertCount uint64) bool {
	if _, already := b.byStream[streamID]; already {
		return true
	}
	if uint64(len(b.h)) >= b.maxSize {
		return false
	}
	e := &blockedEntry{streamID: streamID, requiredInsertCount: requiredInsertCount}
	heap.Push(&b.h, e)
	b.byStream[streamID] = e
	return true
}

// Remove drops streamID from tracking (e.g. on stream cancellation).
func (b *BlockedStreams) Remove(streamID uint64) {
	e, ok := b.byStream[streamID]
	if !ok {
		return
	}
	heap.Remove(&b.h, e.index)
	delete(b.byStream, streamID)
}

// PopReady removes and returns every stream whose requiredInsertCount
// is now satisfied by insCount, ordered smallest-requirement first.
func (b *BlockedStreams) PopReady(insCount uint64) []uint64 {
	var ready []uint64
	for b.h.Len() > 0 && b.h[0].requiredInsertCount <= insCount {
		e := heap.Pop(&b.h).(*blockedEntry)
		delete(b.byStream, e.streamID)
		ready = append(ready, e.streamID)
	}
	return ready
}
