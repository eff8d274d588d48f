package rtevoked

import "errors"

// Sentinel errors returned by the control surface and the block queue.
// Callers should compare with errors.Is, since wrapped variants may carry
// extra context via fmt.Errorf("...: %w", ...).
var (
	// ErrShapeMismatch is returned by Push when a block's channel count
	// disagrees with the shape already established by the queue.
	ErrShapeMismatch = errors.New("rtevoked: block shape mismatch")

	// ErrInvalidConfiguration is returned by control-surface setters when
	// the requested configuration would violate an invariant (postStim=0,
	// baselineFrom > baselineTo, numAverages=0 in RunningMean mode).
	ErrInvalidConfiguration = errors.New("rtevoked: invalid configuration")
)
