package rtevoked

import "gonum.org/v1/gonum/mat"

// DetectRisingEdge scans block's triggerChannel row, left to right starting
// at startCol, for the first column c where the derivative
// block[triggerChannel,c] - block[triggerChannel,c-1] exceeds threshold
// (§4.2). Column 0 is compared against an assumed zero baseline rather than
// a nonexistent column -1.
//
// It returns (0, false) -- never panicking -- when triggerChannel is out of
// range, matching §4.9's requirement that an invalid trigger channel simply
// produces no triggers.
func DetectRisingEdge(block *mat.Dense, triggerChannel int, threshold float64, startCol int) (col int, found bool) {
	rows, cols := block.Dims()
	if triggerChannel < 0 || triggerChannel >= rows {
		return 0, false
	}
	if startCol < 0 {
		startCol = 0
	}
	var prev float64
	if startCol > 0 {
		prev = block.At(triggerChannel, startCol-1)
	}
	for c := startCol; c < cols; c++ {
		cur := block.At(triggerChannel, c)
		if cur-prev > threshold {
			return c, true
		}
		prev = cur
	}
	return 0, false
}
