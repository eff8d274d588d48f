package rtevoked

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// FrontBuffer is the rolling sequence of most-recently ingested blocks that
// always covers exactly preStimSamples samples, once that many have ever
// been observed (C3, §4.3). It never holds more than that: every Ingest
// drops or tail-trims the oldest block(s) to enforce the invariant, so
// concatenation into one matrix is deferred to epoch assembly and
// ingestion stays O(1) amortized.
type FrontBuffer struct {
	target   int // preStimSamples
	channels int
	blocks   []*mat.Dense
	total    int
}

// NewFrontBuffer creates a front buffer targeting target samples of
// history across channels channels.
func NewFrontBuffer(target, channels int) *FrontBuffer {
	return &FrontBuffer{target: target, channels: channels}
}

// Reset clears all buffered blocks and re-targets the buffer, used when the
// engine performs a full configuration reset (§4.7).
func (f *FrontBuffer) Reset(target, channels int) {
	f.target = target
	f.channels = channels
	f.blocks = nil
	f.total = 0
}

// TotalCols reports the current aggregate column count, which never
// exceeds target.
func (f *FrontBuffer) TotalCols() int {
	return f.total
}

// Ingest appends block to the buffer, then drops or tail-trims the oldest
// blocks until the aggregate column count is at most target (§4.3 step 2).
func (f *FrontBuffer) Ingest(block *mat.Dense) {
	_, cols := block.Dims()
	if cols == 0 {
		return
	}
	f.blocks = append(f.blocks, block)
	f.total += cols

	overflow := f.total - f.target
	for overflow > 0 && len(f.blocks) > 0 {
		head := f.blocks[0]
		_, headCols := head.Dims()
		if headCols <= overflow {
			f.blocks = f.blocks[1:]
			f.total -= headCols
			overflow -= headCols
		} else {
			f.blocks[0] = trimColsLeft(head, overflow)
			f.total -= overflow
			overflow = 0
		}
	}
}

// Tail returns the most recent k columns of the buffer, concatenated in
// chronological order, as a fresh matrix. It requires k <= TotalCols().
func (f *FrontBuffer) Tail(k int) *mat.Dense {
	if k == 0 {
		// mat.NewDense panics on a zero dimension, so the channels x 0
		// result is built directly from an empty raw matrix.
		out := &mat.Dense{}
		out.SetRawMatrix(blas64.General{Rows: f.channels, Cols: 0, Stride: 1})
		return out
	}
	out := mat.NewDense(f.channels, k, nil)

	type span struct {
		blk    *mat.Dense
		lo, hi int
	}
	var spans []span // gathered newest-block-first
	remaining := k
	for i := len(f.blocks) - 1; i >= 0 && remaining > 0; i-- {
		blk := f.blocks[i]
		_, blkCols := blk.Dims()
		take := remaining
		if take > blkCols {
			take = blkCols
		}
		spans = append(spans, span{blk, blkCols - take, blkCols})
		remaining -= take
	}

	destCol := 0
	for i := len(spans) - 1; i >= 0; i-- { // replay oldest-first
		s := spans[i]
		width := s.hi - s.lo
		copyColsInto(out, destCol, s.blk, s.lo, s.hi)
		destCol += width
	}
	return out
}
