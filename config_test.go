package rtevoked

import "testing"

func TestDefaultEngineConfigIsValid(t *testing.T) {
	if err := DefaultEngineConfig().Validate(); err != nil {
		t.Fatalf("DefaultEngineConfig should be valid, got %v", err)
	}
}

func TestValidateRejectsZeroPostStim(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.PostStimSamples = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for PostStimSamples=0")
	}
}

func TestValidateRejectsNegativePreStim(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.PreStimSamples = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for negative PreStimSamples")
	}
}

func TestValidateRejectsZeroNumAveragesInRunningMean(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.AverageMode = RunningMean
	cfg.NumAverages = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for NumAverages=0 in RunningMean mode")
	}
}

func TestValidateAllowsZeroNumAveragesInCumulativeSum(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.AverageMode = CumulativeSum
	cfg.NumAverages = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("NumAverages=0 should be fine in CumulativeSum mode, got %v", err)
	}
}

func TestValidateRejectsInvertedBaselineWindow(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.BaselineFrom = 1
	cfg.BaselineTo = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error when BaselineFrom > BaselineTo")
	}
}

func TestAverageModeString(t *testing.T) {
	if RunningMean.String() != "RunningMean" {
		t.Fatalf("RunningMean.String() = %q", RunningMean.String())
	}
	if CumulativeSum.String() != "CumulativeSum" {
		t.Fatalf("CumulativeSum.String() = %q", CumulativeSum.String())
	}
}
