package rtevoked

import (
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"
)

func testMeta() *StaticMetadata {
	return NewStaticMetadata(10.0, []ChannelInfo{
		{Kind: Ordinary, Name: "EEG1"},
		{Kind: Stim, Name: "STI101"},
	})
}

func testConfig() EngineConfig {
	cfg := DefaultEngineConfig()
	cfg.PreStimSamples = 0
	cfg.PostStimSamples = 2
	cfg.TriggerChannel = 1
	cfg.TriggerThreshold = 0.5
	cfg.NumAverages = 1
	cfg.AverageMode = RunningMean
	return cfg
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.PostStimSamples = 0
	if _, err := NewEngine(testMeta(), cfg); err == nil {
		t.Fatal("expected an error constructing an engine with PostStimSamples=0")
	}
}

func TestEngineStartStopIsIdempotent(t *testing.T) {
	e, err := NewEngine(testMeta(), testConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if ok, err := e.Start(); !ok || err != nil {
		t.Fatalf("Start: (%v, %v)", ok, err)
	}
	if ok, err := e.Start(); !ok || err != nil {
		t.Fatalf("second Start: (%v, %v)", ok, err)
	}
	if ok, err := e.Stop(); !ok || err != nil {
		t.Fatalf("Stop: (%v, %v)", ok, err)
	}
	if ok, err := e.Stop(); !ok || err != nil {
		t.Fatalf("second Stop: (%v, %v)", ok, err)
	}

	deadline := time.Now().Add(time.Second)
	for e.State() != "Idle" {
		if time.Now().After(deadline) {
			t.Fatalf("engine never returned to Idle, stuck at %s", e.State())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEngineDetectsTriggerAndEmitsEpoch(t *testing.T) {
	e, err := NewEngine(testMeta(), testConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	sub := e.Subscribe()
	if _, err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	blockA := mat.NewDense(2, 2, []float64{1, 2, 0, 0})
	blockB := mat.NewDense(2, 2, []float64{3, 4, 5, 6}) // rising edge at col 0

	if err := e.Push(blockA); err != nil {
		t.Fatalf("Push blockA: %v", err)
	}
	if err := e.Push(blockB); err != nil {
		t.Fatalf("Push blockB: %v", err)
	}

	// blockB's own two post-trigger columns already cover all of postStim
	// (=2), so the epoch must be emitted without waiting on any further
	// block.
	select {
	case ev := <-sub:
		want := []float64{3, 4}
		for c, v := range want {
			if ev.Data.At(0, c) != v {
				t.Fatalf("evoked data[%d] = %v, want %v", c, ev.Data.At(0, c), v)
			}
		}
		if ev.Nave != 1 {
			t.Fatalf("Nave = %d, want 1", ev.Nave)
		}
	case <-time.After(time.Second):
		t.Fatal("engine never emitted an evoked result after a valid trigger")
	}
}

func TestEngineSetPostStimRejectsZero(t *testing.T) {
	e, err := NewEngine(testMeta(), testConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := e.SetPostStim(0, 0); err == nil {
		t.Fatal("expected an error from SetPostStim(0, 0)")
	}
}

func TestEngineSetNumAveragesRejectsZeroInRunningMean(t *testing.T) {
	e, err := NewEngine(testMeta(), testConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := e.SetNumAverages(0); err == nil {
		t.Fatal("expected an error from SetNumAverages(0) while in RunningMean mode")
	}
}

func TestEngineBaselineFromMustNotExceedTo(t *testing.T) {
	e, err := NewEngine(testMeta(), testConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := e.SetBaselineTo(0, 100); err != nil {
		t.Fatalf("SetBaselineTo: %v", err)
	}
	if err := e.SetBaselineFrom(0, 500); err == nil {
		t.Fatal("expected an error setting BaselineFrom past the existing BaselineTo")
	}
}

func TestEngineReconfigurationDoesNotCorruptInFlightCapture(t *testing.T) {
	cfg := testConfig()
	cfg.PostStimSamples = 3 // wider than one block, so the capture genuinely spans blockC
	e, err := NewEngine(testMeta(), cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	sub := e.Subscribe()
	if _, err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	blockA := mat.NewDense(2, 2, []float64{1, 2, 0, 0})
	blockB := mat.NewDense(2, 2, []float64{3, 4, 5, 6}) // rising edge at col 0, supplies r=2 of postStim=3
	if err := e.Push(blockA); err != nil {
		t.Fatalf("Push blockA: %v", err)
	}
	if err := e.Push(blockB); err != nil {
		t.Fatalf("Push blockB: %v", err)
	}

	// A non-structural change mid-capture (threshold) must not reset the
	// in-flight capture: the engine should still emit once the back buffer
	// fills with the one remaining column, using the window established
	// when the trigger fired.
	e.SetTriggerThreshold(0.75)

	blockC := mat.NewDense(2, 2, []float64{7, 8, 0, 0})
	if err := e.Push(blockC); err != nil {
		t.Fatalf("Push blockC: %v", err)
	}

	select {
	case ev := <-sub:
		want := []float64{3, 4, 7}
		for c, v := range want {
			if ev.Data.At(0, c) != v {
				t.Fatalf("evoked data[%d] = %v, want %v", c, ev.Data.At(0, c), v)
			}
		}
	case <-time.After(time.Second):
		t.Fatal("engine never emitted after a live-field change mid-capture")
	}
}

func TestEngineAssemblesEpochWithPreStimHistory(t *testing.T) {
	cfg := testConfig()
	cfg.PreStimSamples = 2
	cfg.PostStimSamples = 2
	e, err := NewEngine(testMeta(), cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	sub := e.Subscribe()
	if _, err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	// blockA is pure pre-trigger history: it must land in the front buffer.
	blockA := mat.NewDense(2, 3, []float64{1, 2, 3, 0, 0, 0})
	// blockB triggers at its very first column, so it supplies all of
	// postStim itself and must not also be folded into the front buffer --
	// doing so would duplicate blockB's own samples into the pre-stim
	// region of the assembled epoch.
	blockB := mat.NewDense(2, 2, []float64{10, 11, 5, 5})

	if err := e.Push(blockA); err != nil {
		t.Fatalf("Push blockA: %v", err)
	}
	if err := e.Push(blockB); err != nil {
		t.Fatalf("Push blockB: %v", err)
	}

	select {
	case ev := <-sub:
		want := []float64{2, 3, 10, 11}
		for c, v := range want {
			if ev.Data.At(0, c) != v {
				t.Fatalf("evoked data[%d] = %v, want %v", c, ev.Data.At(0, c), v)
			}
		}
	case <-time.After(time.Second):
		t.Fatal("engine never emitted an evoked result after a pre-stim-history trigger")
	}
}
