package rtevoked

import (
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

// engineState is the lifecycle state of §3: Idle -> Running -> StopRequested
// -> Idle.
type engineState int32

const (
	stateIdle engineState = iota
	stateRunning
	stateStopRequested
)

func (s engineState) String() string {
	switch s {
	case stateRunning:
		return "Running"
	case stateStopRequested:
		return "StopRequested"
	default:
		return "Idle"
	}
}

// captureState tracks whether the worker is still watching for a trigger,
// or has latched one and is filling the back buffer (§4.7).
type captureState int

const (
	notFillingBack captureState = iota
	fillingBack
)

// ControlEvent is a lightweight notification emitted by control-surface
// setters (§6), e.g. {"numAveragesChanged", 10}. It is distinct from
// EvokedResult emission: ControlEvents describe configuration intent, not
// processed data.
type ControlEvent struct {
	Name  string
	Value interface{}
}

// Engine drives C1 through C8: it owns the block queue, the front/back
// buffers, the averaging accumulator, and the configuration handshake
// between a control surface (called from any goroutine) and a single
// worker goroutine (C7) that owns all the per-capture state.
type Engine struct {
	meta StreamMetadata

	mu        sync.Mutex
	state     engineState
	requested EngineConfig
	active    EngineConfig

	queue *BlockQueue
	wg    sync.WaitGroup

	// Owned exclusively by the worker goroutine while Running.
	front        *FrontBuffer
	back         *BackBuffer
	acc          *AveragingAccumulator
	capture      captureState
	triggerBlock *mat.Dense
	triggerCol   int

	evoked atomic.Value // *EvokedResult

	subMu       sync.Mutex
	subscribers []chan *EvokedResult

	ctrlMu          sync.Mutex
	ctrlSubscribers []chan ControlEvent
}

// NewEngine constructs an idle engine against the given stream metadata and
// initial configuration. The configuration is validated up front per §7.
func NewEngine(meta StreamMetadata, cfg EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		meta:      meta,
		requested: cfg,
		active:    cfg,
		queue:     NewBlockQueue(defaultQueueCapacity),
	}
	e.resetLocked()
	return e, nil
}

// resetLocked rebuilds the front/back buffers, the averaging accumulator,
// and the capture state from e.active. Callers must hold e.mu, or call it
// only before the worker goroutine has started (construction).
func (e *Engine) resetLocked() {
	channels := e.meta.ChannelCount()
	e.front = NewFrontBuffer(e.active.PreStimSamples, channels)
	e.back = NewBackBuffer(e.active.PostStimSamples, channels)
	e.acc = NewAveragingAccumulator(e.active.AverageMode, e.active.NumAverages,
		e.active.PreStimSamples, e.active.PostStimSamples, channels, e.meta.SampleRate())
	e.capture = notFillingBack
	e.triggerBlock = nil
	e.triggerCol = 0
}

// structuralChangedLocked reports whether any of the five fields that
// require a full reset (§4.7) differ between requested and active.
// TriggerThreshold and the baseline fields are intentionally excluded:
// they are read fresh from requested on every iteration instead (below),
// since changing them cannot corrupt in-flight buffer state.
func (e *Engine) structuralChangedLocked() bool {
	return e.requested.PreStimSamples != e.active.PreStimSamples ||
		e.requested.PostStimSamples != e.active.PostStimSamples ||
		e.requested.TriggerChannel != e.active.TriggerChannel ||
		e.requested.AverageMode != e.active.AverageMode ||
		e.requested.NumAverages != e.active.NumAverages
}

// Start transitions the engine to Running and launches the worker
// goroutine. It is a no-op if already running; if a prior Stop is still
// winding down, Start joins it first (§4.8).
func (e *Engine) Start() (bool, error) {
	e.mu.Lock()
	if e.state == stateRunning {
		e.mu.Unlock()
		return true, nil
	}
	e.mu.Unlock()

	e.wg.Wait()

	e.mu.Lock()
	// Only a queue released by a prior Stop is reset; on the first Start,
	// blocks pushed beforehand stay queued for the worker.
	e.queue.mu.Lock()
	released := e.queue.released
	e.queue.mu.Unlock()
	if released {
		e.queue.Reset()
	}
	e.active.PreStimSamples = e.requested.PreStimSamples
	e.active.PostStimSamples = e.requested.PostStimSamples
	e.active.TriggerChannel = e.requested.TriggerChannel
	e.active.AverageMode = e.requested.AverageMode
	e.active.NumAverages = e.requested.NumAverages
	e.active.TriggerThreshold = e.requested.TriggerThreshold
	e.active.BaselineEnabled = e.requested.BaselineEnabled
	e.active.BaselineFrom = e.requested.BaselineFrom
	e.active.BaselineTo = e.requested.BaselineTo
	e.resetLocked()
	e.state = stateRunning
	e.mu.Unlock()

	e.wg.Add(1)
	go e.run()
	return true, nil
}

// Stop requests the worker to exit at its next pop and releases the block
// queue so a blocked Pop returns immediately. It is idempotent: calling
// Stop while a shutdown is already in progress (or once already idle) is
// not an error (§7).
func (e *Engine) Stop() (bool, error) {
	e.mu.Lock()
	if e.state != stateRunning {
		e.mu.Unlock()
		return true, nil
	}
	e.state = stateStopRequested
	e.mu.Unlock()
	e.queue.Release()
	return true, nil
}

// State reports the current lifecycle state.
func (e *Engine) State() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.String()
}

// Push is the producer interface (§6): copy block into the bounded queue,
// blocking if full. It is accepted even before the engine has ever
// started -- the queue is lazily constructed and simply buffers (§7: the
// NotRunning case is not an error).
func (e *Engine) Push(block *mat.Dense) error {
	return e.queue.Push(block)
}

// run is the C7 engine loop. It is the sole goroutine that touches front,
// back, acc, capture, triggerBlock, and triggerCol once started.
func (e *Engine) run() {
	defer func() {
		e.mu.Lock()
		e.state = stateIdle
		e.mu.Unlock()
		e.wg.Done()
	}()

	for {
		e.mu.Lock()
		if e.state != stateRunning {
			e.mu.Unlock()
			return
		}
		if e.structuralChangedLocked() {
			e.active.PreStimSamples = e.requested.PreStimSamples
			e.active.PostStimSamples = e.requested.PostStimSamples
			e.active.TriggerChannel = e.requested.TriggerChannel
			e.active.AverageMode = e.requested.AverageMode
			e.active.NumAverages = e.requested.NumAverages
			e.resetLocked()
		}
		e.active.TriggerThreshold = e.requested.TriggerThreshold
		e.active.BaselineEnabled = e.requested.BaselineEnabled
		e.active.BaselineFrom = e.requested.BaselineFrom
		e.active.BaselineTo = e.requested.BaselineTo
		active := e.active
		e.mu.Unlock()

		block, ok := e.queue.Pop()
		if !ok {
			return
		}

		switch e.capture {
		case notFillingBack:
			col, found := 0, false
			if IsStimChannel(e.meta, active.TriggerChannel) {
				col, found = DetectRisingEdge(block, active.TriggerChannel, active.TriggerThreshold, 0)
			}
			if found {
				// The trigger block itself supplies its pre-trigger columns
				// (via AssembleEpoch's direct slice of triggerBlock) and its
				// post-trigger columns (via r below), so it must not also be
				// folded into the front buffer -- doing so would duplicate
				// those columns in the assembled epoch (§4.5).
				e.triggerBlock = block
				e.triggerCol = col
				channels := e.meta.ChannelCount()
				r := triggerBlockPostCols(block, col, active.PostStimSamples)
				e.back.Reset(active.PostStimSamples-r, channels)
				e.capture = fillingBack
				if e.back.Full() {
					e.finishCapture(active)
				}
			} else {
				e.front.Ingest(block)
			}
		case fillingBack:
			e.back.Ingest(block)
			if e.back.Full() {
				e.finishCapture(active)
			}
		}
	}
}

// finishCapture assembles the epoch now that the back buffer holds
// everything AssembleEpoch still needs from it (possibly zero columns, when
// the trigger block alone already covered all of postStim), emits the
// result, and returns capture to notFillingBack. If the front buffer holds
// fewer than the preStim-triggerCol columns the epoch needs, the capture is
// logged and discarded without an emission.
func (e *Engine) finishCapture(active EngineConfig) {
	channels := e.meta.ChannelCount()
	if need := active.PreStimSamples - e.triggerCol; need > 0 && e.front.TotalCols() < need {
		log.Printf("rtevoked: front buffer holds %d of the %d pre-stim columns needed, discarding capture", e.front.TotalCols(), need)
	} else {
		epoch := AssembleEpoch(e.front, e.back, e.triggerBlock, e.triggerCol,
			active.PreStimSamples, active.PostStimSamples, channels)
		evoked := e.acc.AddEpoch(epoch, active.BaselineEnabled, active.BaselineFrom, active.BaselineTo)
		e.emit(evoked)
	}

	e.back.Reset(active.PostStimSamples, channels)
	e.triggerBlock = nil
	e.triggerCol = 0
	e.capture = notFillingBack
}

// emit stores the evoked snapshot for polling consumers and delivers it to
// every Subscribe channel, dropping a stale pending value rather than
// blocking (§4.6 emission policy: lossy, latest wins).
func (e *Engine) emit(ev *EvokedResult) {
	e.evoked.Store(ev)
	e.subMu.Lock()
	for _, ch := range e.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
	e.subMu.Unlock()
}

// Subscribe returns a channel that receives the latest EvokedResult after
// every accepted epoch. There is no replay of past emissions.
func (e *Engine) Subscribe() <-chan *EvokedResult {
	ch := make(chan *EvokedResult, 1)
	e.subMu.Lock()
	e.subscribers = append(e.subscribers, ch)
	e.subMu.Unlock()
	return ch
}

// LatestEvoked returns the most recently emitted evoked snapshot, or nil if
// none has been produced yet.
func (e *Engine) LatestEvoked() *EvokedResult {
	v := e.evoked.Load()
	if v == nil {
		return nil
	}
	return v.(*EvokedResult)
}

// SubscribeControlEvents returns a channel of configuration-change
// notifications, e.g. {"numAveragesChanged", 10} (§6).
func (e *Engine) SubscribeControlEvents() <-chan ControlEvent {
	ch := make(chan ControlEvent, 4)
	e.ctrlMu.Lock()
	e.ctrlSubscribers = append(e.ctrlSubscribers, ch)
	e.ctrlMu.Unlock()
	return ch
}

func (e *Engine) notifyControl(name string, value interface{}) {
	ev := ControlEvent{Name: name, Value: value}
	e.ctrlMu.Lock()
	for _, ch := range e.ctrlSubscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
	e.ctrlMu.Unlock()
}

// ---- Control surface (C8) ----------------------------------------------

// RequestedConfig returns a copy of the currently requested (not
// necessarily active) configuration.
func (e *Engine) RequestedConfig() EngineConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requested
}

// ActiveConfig returns a copy of the configuration actually in effect in
// the worker goroutine as of its last reset/read.
func (e *Engine) ActiveConfig() EngineConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// SetNumAverages sets the RunningMean history depth and emits
// numAveragesChanged.
func (e *Engine) SetNumAverages(n uint32) error {
	if n == 0 {
		e.mu.Lock()
		runningMean := e.requested.AverageMode == RunningMean
		e.mu.Unlock()
		if runningMean {
			return fmt.Errorf("%w: NumAverages must be > 0 in RunningMean mode", ErrInvalidConfiguration)
		}
	}
	e.mu.Lock()
	e.requested.NumAverages = int(n)
	e.mu.Unlock()
	e.notifyControl("numAveragesChanged", n)
	return nil
}

// SetAverageMode switches between RunningMean and CumulativeSum.
func (e *Engine) SetAverageMode(mode AverageMode) {
	e.mu.Lock()
	e.requested.AverageMode = mode
	e.mu.Unlock()
	e.notifyControl("averageModeChanged", mode)
}

// SetPreStim sets the pre-stimulus window. samples is authoritative;
// seconds is carried only for UI display (§6).
func (e *Engine) SetPreStim(samples uint32, seconds float32) error {
	e.mu.Lock()
	e.requested.PreStimSamples = int(samples)
	e.mu.Unlock()
	e.notifyControl("preStimChanged", struct {
		Samples uint32
		Seconds float32
	}{samples, seconds})
	return nil
}

// SetPostStim sets the post-stimulus window. samples is authoritative;
// seconds is carried only for UI display. A zero sample count is rejected
// synchronously per §4.9.
func (e *Engine) SetPostStim(samples uint32, seconds float32) error {
	if samples == 0 {
		return fmt.Errorf("%w: PostStimSamples must be > 0", ErrInvalidConfiguration)
	}
	e.mu.Lock()
	e.requested.PostStimSamples = int(samples)
	e.mu.Unlock()
	e.notifyControl("postStimChanged", struct {
		Samples uint32
		Seconds float32
	}{samples, seconds})
	return nil
}

// SetTriggerChannel sets the stim-channel index used for edge detection.
// An out-of-range or non-stim index is accepted here (§4.9: the detector
// simply never fires); validation against StreamMetadata is advisory and
// logged, not rejected, since the channel layout may change independently.
func (e *Engine) SetTriggerChannel(index int32) {
	if !IsStimChannel(e.meta, int(index)) {
		log.Printf("rtevoked: SetTriggerChannel(%d) is not a recognized stim channel; detector will not fire until corrected", index)
	}
	e.mu.Lock()
	e.requested.TriggerChannel = int(index)
	e.mu.Unlock()
	e.notifyControl("triggerChannelChanged", index)
}

// SetTriggerThreshold sets the rising-edge threshold used by the detector.
// It is a live field: it takes effect on the next loop iteration without a
// full reset.
func (e *Engine) SetTriggerThreshold(threshold float64) {
	e.mu.Lock()
	e.requested.TriggerThreshold = threshold
	e.mu.Unlock()
	e.notifyControl("triggerThresholdChanged", threshold)
}

// SetBaselineActive toggles baseline correction.
func (e *Engine) SetBaselineActive(enabled bool) {
	e.mu.Lock()
	e.requested.BaselineEnabled = enabled
	e.mu.Unlock()
	e.notifyControl("baselineActiveChanged", enabled)
}

// SetBaselineFrom sets the start of the baseline window. milliseconds is
// authoritative and is stored canonically as seconds = ms/1000; samples is
// informational (§6). A milliseconds value that cannot be represented
// (e.g. math.MinInt32, used by UIs to mean "unbounded") maps to the
// null-from sentinel (NaN), resolved to times[0] at correction time.
func (e *Engine) SetBaselineFrom(samples int32, milliseconds int32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	from := float64(milliseconds) / 1000.0
	if milliseconds == math.MinInt32 {
		from = math.NaN()
	}
	if !math.IsNaN(from) && from > e.requested.BaselineTo {
		return fmt.Errorf("%w: BaselineFrom (%v) must be <= BaselineTo (%v)", ErrInvalidConfiguration, from, e.requested.BaselineTo)
	}
	e.requested.BaselineFrom = from
	return nil
}

// SetBaselineTo sets the end of the baseline window, symmetric to
// SetBaselineFrom. A milliseconds value of math.MaxInt32 maps to the
// null-to sentinel (NaN), resolved to 0 at correction time.
func (e *Engine) SetBaselineTo(samples int32, milliseconds int32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	to := float64(milliseconds) / 1000.0
	if milliseconds == math.MaxInt32 {
		to = math.NaN()
	}
	if !math.IsNaN(to) && e.requested.BaselineFrom > to {
		return fmt.Errorf("%w: BaselineFrom (%v) must be <= BaselineTo (%v)", ErrInvalidConfiguration, e.requested.BaselineFrom, to)
	}
	e.requested.BaselineTo = to
	return nil
}
