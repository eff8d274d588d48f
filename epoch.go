package rtevoked

import "gonum.org/v1/gonum/mat"

// triggerBlockPostCols returns r, the number of post-trigger columns (§4.5
// step 2) the trigger block itself supplies toward postStim: the columns
// from triggerCol up to whichever comes first, the end of triggerBlock or
// postStim samples out. The back buffer only ever needs to supply the
// remaining postStim-r columns, and the engine uses the same r to size the
// back buffer's target the moment a trigger latches (engine.go).
func triggerBlockPostCols(triggerBlock *mat.Dense, triggerCol, postStim int) int {
	_, trigCols := triggerBlock.Dims()
	r := postStim
	if trigCols-triggerCol < r {
		r = trigCols - triggerCol
	}
	if r < 0 {
		r = 0
	}
	return r
}

// AssembleEpoch stitches the front buffer, the trigger block, and the back
// buffer into one channels x (preStim+postStim) matrix aligned so that
// column preStim is the trigger sample (C5, §4.5).
//
// front must have at least preStim-triggerCol columns buffered whenever
// that quantity is positive; back must hold at least postStim-r columns,
// where r is triggerBlockPostCols(triggerBlock, triggerCol, postStim), by
// the time this is called. The engine only invokes AssembleEpoch once both
// conditions hold.
func AssembleEpoch(front *FrontBuffer, back *BackBuffer, triggerBlock *mat.Dense, triggerCol, preStim, postStim, channels int) *mat.Dense {
	out := mat.NewDense(channels, preStim+postStim, nil)

	// Left region: front-buffer tail, then the trigger block's pre-trigger
	// columns.
	frontWidth := preStim - triggerCol
	if frontWidth < 0 {
		frontWidth = 0
	}
	k := triggerCol
	if k > preStim {
		k = preStim
	}
	if frontWidth > 0 {
		frontPart := front.Tail(frontWidth)
		copyColsInto(out, 0, frontPart, 0, frontWidth)
	}
	if k > 0 {
		copyColsInto(out, frontWidth, triggerBlock, triggerCol-k, triggerCol)
	}

	// Right region: the trigger block's post-trigger columns, then the back
	// buffer's leading columns.
	r := triggerBlockPostCols(triggerBlock, triggerCol, postStim)
	if r > 0 {
		copyColsInto(out, preStim, triggerBlock, triggerCol, triggerCol+r)
	}
	remainder := postStim - r
	if remainder > 0 {
		backPart := back.Leading(remainder)
		copyColsInto(out, preStim+r, backPart, 0, remainder)
	}

	return out
}
