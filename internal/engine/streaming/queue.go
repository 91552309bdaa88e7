package streaming

import (
	"container/heap"
	"sync"
)

// pendingQueue is a thread-safe priority queue of tile load requests:
// highest priority first, nearest-to-viewer first within a priority.
// Multiple producers (callers) and multiple consumers (workers).
type pendingQueue struct {
	mu    sync.Mutex
	items requestHeap
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{}
}

func (q *pendingQueue) push(r *Request) {
	q.mu.Lock()
	heap.Push(&q.items, r)
	q.mu.Unlock()
}

// pop returns the best pending request, or nil if the queue is empty.
// It never blocks; workers poll.
func (q *pendingQueue) pop() *Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	return heap.Pop(&q.items).(*Request)
}

func (q *pendingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type requestHeap []*Request

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].Distance < h[j].Distance
}

func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *requestHeap) Push(x any) { *h = append(*h, x.(*Request)) }

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// completedQueue carries worker results back to the main thread. Multiple
// producers (workers), single consumer (Update). pushFront re-inserts an
// item the consumer popped but could not afford to process this frame.
type completedQueue struct {
	mu    sync.Mutex
	items []*result
}

func newCompletedQueue() *completedQueue {
	return &completedQueue{}
}

func (q *completedQueue) push(r *result) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()
}

func (q *completedQueue) pushFront(r *result) {
	q.mu.Lock()
	q.items = append([]*result{r}, q.items...)
	q.mu.Unlock()
}

// pop returns the oldest result, or nil if the queue is empty.
func (q *completedQueue) pop() *result {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	r := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return r
}

func (q *completedQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
