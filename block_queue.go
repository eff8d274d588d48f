package rtevoked

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// defaultQueueCapacity is the default number of sample blocks the queue
// will hold before Push starts blocking the producer (§4.1).
const defaultQueueCapacity = 128

// BlockQueue is a fixed-capacity, single-producer/single-consumer FIFO of
// sample-block matrices (C1). It bounds the memory a fast producer can pile
// up ahead of a slower engine worker, applying backpressure by blocking
// Push once full.
//
// Unlike a buffered channel, BlockQueue is lazily shaped: the channel count
// of the queue is established from the first pushed block, and every
// subsequent Push is checked against it, the same way a source only learns
// its own channel count once it has actually sampled data.
type BlockQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []*mat.Dense
	capacity int
	channels int
	built    bool
	released bool
}

// NewBlockQueue creates a queue with the given capacity. A non-positive
// capacity falls back to defaultQueueCapacity.
func NewBlockQueue(capacity int) *BlockQueue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	q := &BlockQueue{capacity: capacity}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push copies block into the next free slot, blocking the caller if the
// queue is full. Pushing a block whose channel count disagrees with the
// shape established by the first Push returns ErrShapeMismatch and leaves
// the queue untouched. Push is a silent no-op once Release has been called,
// since there is no longer a consumer to deliver to.
func (q *BlockQueue) Push(block *mat.Dense) error {
	rows, _ := block.Dims()

	q.mu.Lock()
	if !q.built {
		q.channels = rows
		q.built = true
	} else if rows != q.channels {
		q.mu.Unlock()
		return fmt.Errorf("%w: block has %d channels, queue established with %d", ErrShapeMismatch, rows, q.channels)
	}

	for len(q.buf) >= q.capacity && !q.released {
		q.cond.Wait()
	}
	if q.released {
		q.mu.Unlock()
		return nil
	}
	q.buf = append(q.buf, cloneDense(block))
	q.cond.Broadcast()
	q.mu.Unlock()
	return nil
}

// Pop blocks until a block is available or the queue is released. It
// returns (block, true) on a normal delivery, or (nil, false) once the
// queue has been released and drained -- the sentinel the engine loop
// treats as a shutdown request.
func (q *BlockQueue) Pop() (*mat.Dense, bool) {
	q.mu.Lock()
	for len(q.buf) == 0 && !q.released {
		q.cond.Wait()
	}
	if len(q.buf) == 0 {
		q.mu.Unlock()
		return nil, false
	}
	item := q.buf[0]
	q.buf = q.buf[1:]
	q.cond.Broadcast()
	q.mu.Unlock()
	return item, true
}

// Release wakes any blocked Push or Pop and causes every subsequent Pop of
// an empty queue to return the shutdown sentinel. Release is idempotent.
func (q *BlockQueue) Release() {
	q.mu.Lock()
	q.released = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Reset clears the released flag and any buffered items, so the queue can
// be reused by a freshly started engine without reallocating.
func (q *BlockQueue) Reset() {
	q.mu.Lock()
	q.buf = nil
	q.released = false
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Clear drops all pending items without releasing the queue.
func (q *BlockQueue) Clear() {
	q.mu.Lock()
	q.buf = nil
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Len reports the number of blocks currently buffered. It is intended for
// diagnostics and tests, not for flow control.
func (q *BlockQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// cloneDense returns a deep copy of m, since BlockQueue must own its data
// independent of whatever the producer does with its buffer next.
func cloneDense(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Copy(m)
	return out
}
