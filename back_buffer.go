package rtevoked

import "gonum.org/v1/gonum/mat"

// BackBuffer is the append-only sequence of blocks accumulated while the
// engine is in the FillingBack state (C4, §4.4). It grows monotonically
// toward its target column count and, unlike FrontBuffer, never drops
// anything: once full, the engine drains it via Leading/Concat and resets
// it for the next capture. The engine sizes target to postStimSamples minus
// whatever the trigger block itself already supplied (§4.5 step 2), so a
// target of 0 is valid and means the back buffer contributes nothing.
type BackBuffer struct {
	target   int
	channels int
	blocks   []*mat.Dense
	total    int
}

// NewBackBuffer creates a back buffer targeting target samples across
// channels channels.
func NewBackBuffer(target, channels int) *BackBuffer {
	return &BackBuffer{target: target, channels: channels}
}

// Reset clears all buffered blocks and re-targets the buffer.
func (b *BackBuffer) Reset(target, channels int) {
	b.target = target
	b.channels = channels
	b.blocks = nil
	b.total = 0
}

// TotalCols reports the current aggregate column count, which never
// exceeds target.
func (b *BackBuffer) TotalCols() int {
	return b.total
}

// Full reports whether the buffer has accumulated exactly target columns.
func (b *BackBuffer) Full() bool {
	return b.total >= b.target
}

// Ingest appends block, truncating to the leading columns needed to reach
// exactly target if block would otherwise overshoot (§4.4).
func (b *BackBuffer) Ingest(block *mat.Dense) {
	if b.Full() {
		return
	}
	_, cols := block.Dims()
	room := b.target - b.total
	if cols <= room {
		b.blocks = append(b.blocks, block)
		b.total += cols
		return
	}
	b.blocks = append(b.blocks, trimColsRight(block, room))
	b.total = b.target
}

// Concat returns the full buffered span as one matrix, in ingestion order.
// It does not require the buffer to be Full, though the engine only calls
// it once it is.
func (b *BackBuffer) Concat() *mat.Dense {
	out := mat.NewDense(b.channels, b.total, nil)
	destCol := 0
	for _, blk := range b.blocks {
		_, cols := blk.Dims()
		copyColsInto(out, destCol, blk, 0, cols)
		destCol += cols
	}
	return out
}

// Leading returns the first n columns of the buffered span as one matrix.
// It requires n <= TotalCols().
func (b *BackBuffer) Leading(n int) *mat.Dense {
	if n == b.total {
		return b.Concat()
	}
	out := mat.NewDense(b.channels, n, nil)
	destCol := 0
	for _, blk := range b.blocks {
		if destCol >= n {
			break
		}
		_, cols := blk.Dims()
		take := cols
		if destCol+take > n {
			take = n - destCol
		}
		copyColsInto(out, destCol, blk, 0, take)
		destCol += take
	}
	return out
}
