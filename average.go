package rtevoked

import (
	"log"
	"math"

	"gonum.org/v1/gonum/mat"
)

// EvokedResult is the immutable snapshot the engine emits after every
// accepted epoch (§3, §9). Consumers must treat it as read-only: a new
// EvokedResult is built in place of the old one rather than mutating data
// in place, so a snapshot handed to a subscriber stays valid forever.
type EvokedResult struct {
	Data         *mat.Dense
	Times        []float64
	First        float64
	Last         float64
	Nave         int
	BaselineFrom float64
	BaselineTo   float64
}

// buildTimes constructs the times axis of §3: times[0] = -preStim/rate,
// constant step 1/rate, length preStim+postStim. A non-positive sample rate
// is defensively replaced by fallbackSampleRate, with a logged warning
// (§4.9) rather than a returned error, tolerating a malformed
// hardware-reported rate instead of failing the whole run.
func buildTimes(preStim, postStim int, sampleRate float64) []float64 {
	if sampleRate <= 0 {
		log.Printf("rtevoked: sample rate %v is not positive, using fallback %v Hz", sampleRate, fallbackSampleRate)
		sampleRate = fallbackSampleRate
	}
	n := preStim + postStim
	times := make([]float64, n)
	step := 1.0 / sampleRate
	start := -float64(preStim) / sampleRate
	for i := 0; i < n; i++ {
		times[i] = start + float64(i)*step
	}
	return times
}

// resolveBaselineWindow maps the "None"/null sentinels (represented here as
// NaN, since Go floats have no native null) onto concrete bounds: a NaN
// from means "from the start of the epoch," a NaN to means "up to the
// trigger sample" (§4.6).
func resolveBaselineWindow(from, to float64, times []float64) (float64, float64) {
	rf, rt := from, to
	if math.IsNaN(from) {
		rf = times[0]
	}
	if math.IsNaN(to) {
		rt = 0
	}
	return rf, rt
}

// baselineCorrect returns a copy of m with, for each row, the mean of the
// columns whose times fall within [from,to] (inclusive) subtracted from
// every column of that row.
func baselineCorrect(m *mat.Dense, times []float64, from, to float64) *mat.Dense {
	rows, cols := m.Dims()
	rf, rt := resolveBaselineWindow(from, to, times)
	out := cloneDense(m)
	for r := 0; r < rows; r++ {
		sum := 0.0
		count := 0
		for c := 0; c < cols; c++ {
			if times[c] >= rf && times[c] <= rt {
				sum += m.At(r, c)
				count++
			}
		}
		if count == 0 {
			continue
		}
		mean := sum / float64(count)
		for c := 0; c < cols; c++ {
			out.Set(r, c, out.At(r, c)-mean)
		}
	}
	return out
}

// AveragingAccumulator is the bounded-history mean / unbounded cumulative
// sum engine of C6 (§4.6). Baseline correction is intentionally not part of
// its constructed state: baselineEnabled/From/To are read fresh from the
// engine's active configuration on every AddEpoch call, since §4.7 does not
// list them among the fields that force a full reset.
type AveragingAccumulator struct {
	mode        AverageMode
	numAverages int
	channels    int
	preStim     int
	postStim    int
	times       []float64

	history []*mat.Dense // RunningMean mode only
	sum     *mat.Dense   // CumulativeSum mode only
	nave    int          // CumulativeSum mode only: epochs added so far
}

// NewAveragingAccumulator builds an accumulator for the given mode and
// window shape.
func NewAveragingAccumulator(mode AverageMode, numAverages, preStim, postStim, channels int, sampleRate float64) *AveragingAccumulator {
	return &AveragingAccumulator{
		mode:        mode,
		numAverages: numAverages,
		channels:    channels,
		preStim:     preStim,
		postStim:    postStim,
		times:       buildTimes(preStim, postStim, sampleRate),
		sum:         mat.NewDense(channels, preStim+postStim, nil),
	}
}

// Times returns the accumulator's time axis.
func (a *AveragingAccumulator) Times() []float64 { return a.times }

// HistoryLen reports the current RunningMean history depth (0 in
// CumulativeSum mode).
func (a *AveragingAccumulator) HistoryLen() int { return len(a.history) }

// AddEpoch folds epoch into the accumulator per the active mode and
// baseline settings, and returns the freshly emitted EvokedResult
// snapshot.
func (a *AveragingAccumulator) AddEpoch(epoch *mat.Dense, baselineEnabled bool, baselineFrom, baselineTo float64) *EvokedResult {
	switch a.mode {
	case CumulativeSum:
		return a.addCumulative(epoch, baselineEnabled, baselineFrom, baselineTo)
	default:
		return a.addRunningMean(epoch, baselineEnabled, baselineFrom, baselineTo)
	}
}

func (a *AveragingAccumulator) addRunningMean(epoch *mat.Dense, baselineEnabled bool, baselineFrom, baselineTo float64) *EvokedResult {
	a.history = append(a.history, epoch)
	for len(a.history) > a.numAverages {
		a.history = a.history[1:]
	}

	mean := mat.NewDense(a.channels, a.preStim+a.postStim, nil)
	n := float64(len(a.history))
	for _, e := range a.history {
		mean.Add(mean, e)
	}
	mean.Scale(1/n, mean)

	data := mean
	if baselineEnabled {
		data = baselineCorrect(mean, a.times, baselineFrom, baselineTo)
	}

	return a.snapshot(data, a.numAverages, baselineEnabled, baselineFrom, baselineTo)
}

func (a *AveragingAccumulator) addCumulative(epoch *mat.Dense, baselineEnabled bool, baselineFrom, baselineTo float64) *EvokedResult {
	e := epoch
	if baselineEnabled {
		e = baselineCorrect(epoch, a.times, baselineFrom, baselineTo)
	}
	a.sum.Add(a.sum, e)
	a.nave++

	return a.snapshot(cloneDense(a.sum), a.nave, baselineEnabled, baselineFrom, baselineTo)
}

func (a *AveragingAccumulator) snapshot(data *mat.Dense, nave int, baselineEnabled bool, from, to float64) *EvokedResult {
	times := make([]float64, len(a.times))
	copy(times, a.times)
	rf, rt := from, to
	if !baselineEnabled {
		rf, rt = 0, 0
	} else {
		rf, rt = resolveBaselineWindow(from, to, a.times)
	}
	return &EvokedResult{
		Data:         data,
		Times:        times,
		First:        times[0],
		Last:         times[len(times)-1],
		Nave:         nave,
		BaselineFrom: rf,
		BaselineTo:   rt,
	}
}
