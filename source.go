package rtevoked

import (
	"io"
	"log"
	"math"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Source is the producer side of the pipeline: anything that can supply a
// sequence of sample blocks, via a PrepareRun/StartRun/blockingRead/Stop/
// Running lifecycle generalized away from specific acquisition hardware
// toward "whatever can hand the engine mat.Dense blocks."
type Source interface {
	PrepareRun() error
	StartRun() error
	Running() bool
	Stop() error
	blockingRead() (*mat.Dense, error)
}

// RunSource drives src: PrepareRun/StartRun once, then loop blockingRead ->
// Push until io.EOF or a persistent error, logging and returning rather
// than panicking (§7).
func RunSource(e *Engine, src Source) error {
	if err := src.PrepareRun(); err != nil {
		return err
	}
	if err := src.StartRun(); err != nil {
		return err
	}
	go func() {
		for {
			block, err := src.blockingRead()
			if err == io.EOF {
				log.Println("rtevoked: source blockingRead returned io.EOF, source is stopping")
				return
			} else if err != nil {
				log.Printf("rtevoked: source blockingRead error, stopping source: %v", err)
				src.Stop()
				return
			}
			if src.Running() {
				if perr := e.Push(block); perr != nil {
					log.Printf("rtevoked: push rejected: %v", perr)
				}
			}
		}
	}()
	return nil
}

// SimulatedSource is a software signal generator: it produces a toy
// multichannel signal with a periodic rising-edge pulse on one stim
// channel, useful for demos, the cmd/ entrypoint, and integration tests
// that want a live producer goroutine rather than hand-assembled blocks.
type SimulatedSource struct {
	nchan       int
	sampleRate  float64
	blockCols   int
	stimChannel int
	pulseEvery  int // emit a high pulse once every pulseEvery samples; 0 disables

	running int32 // atomic bool
	frame   int
}

// NewSimulatedSource builds a simulated source. stimChannel must be < nchan.
func NewSimulatedSource(nchan int, sampleRate float64, blockCols, stimChannel, pulseEvery int) *SimulatedSource {
	return &SimulatedSource{
		nchan:       nchan,
		sampleRate:  sampleRate,
		blockCols:   blockCols,
		stimChannel: stimChannel,
		pulseEvery:  pulseEvery,
	}
}

// PrepareRun is a no-op: a simulated source needs no external setup.
func (s *SimulatedSource) PrepareRun() error { return nil }

// StartRun marks the source running.
func (s *SimulatedSource) StartRun() error {
	atomic.StoreInt32(&s.running, 1)
	return nil
}

// Running reports whether the source is still producing blocks.
func (s *SimulatedSource) Running() bool {
	return atomic.LoadInt32(&s.running) == 1
}

// Stop marks the source stopped; the next blockingRead call returns io.EOF.
func (s *SimulatedSource) Stop() error {
	atomic.StoreInt32(&s.running, 0)
	return nil
}

// blockingRead sleeps for the wall-clock duration one block represents at
// sampleRate, then returns a freshly generated block, pacing production the
// way a real acquisition device would.
func (s *SimulatedSource) blockingRead() (*mat.Dense, error) {
	if !s.Running() {
		return nil, io.EOF
	}
	time.Sleep(time.Duration(float64(s.blockCols) / s.sampleRate * float64(time.Second)))
	if !s.Running() {
		return nil, io.EOF
	}

	block := mat.NewDense(s.nchan, s.blockCols, nil)
	for c := 0; c < s.blockCols; c++ {
		frame := s.frame + c
		stimHigh := s.pulseEvery > 0 && (frame%s.pulseEvery) < s.pulseEvery/2
		for r := 0; r < s.nchan; r++ {
			switch {
			case r == s.stimChannel && stimHigh:
				block.Set(r, c, 5)
			case r == s.stimChannel:
				block.Set(r, c, 0)
			default:
				block.Set(r, c, math.Sin(2*math.Pi*10*float64(frame)/s.sampleRate))
			}
		}
	}
	s.frame += s.blockCols
	return block, nil
}
