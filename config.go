package rtevoked

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// AverageMode selects how the averaging accumulator (C6) combines epochs.
type AverageMode int

const (
	// RunningMean keeps a bounded history of the most recent NumAverages
	// epochs and reports their element-wise mean.
	RunningMean AverageMode = iota
	// CumulativeSum adds every epoch into an unbounded running total.
	CumulativeSum
)

func (m AverageMode) String() string {
	switch m {
	case CumulativeSum:
		return "CumulativeSum"
	default:
		return "RunningMean"
	}
}

// Default network ports for the control and evoked-broadcast services.
// Both are overridable via Viper keys "evoked.portrpc" and
// "evoked.portevoked".
const (
	PortRPC    = 5676
	PortEvoked = 5677
)

// fallbackSampleRate is substituted when a non-positive sample rate is
// observed while building the times vector (§4.9), tolerating a malformed
// hardware-reported value rather than failing the whole run.
const fallbackSampleRate = 600.0

// EngineConfig holds every reconfigurable field of the averaging engine.
// A zero value is not valid; use DefaultEngineConfig or LoadEngineConfig.
type EngineConfig struct {
	PreStimSamples   int
	PostStimSamples  int
	TriggerChannel   int
	NumAverages      int
	AverageMode      AverageMode
	BaselineEnabled  bool
	BaselineFrom     float64 // seconds
	BaselineTo       float64 // seconds
	TriggerThreshold float64
}

// DefaultEngineConfig returns a reasonable, inert-by-default configuration
// used whenever no saved state applies to a channel: a generous pre/post
// window and a modest threshold, with callers still expected to choose a
// TriggerChannel before Start produces any epochs.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		PreStimSamples:   100,
		PostStimSamples:  200,
		TriggerChannel:   0,
		NumAverages:      10,
		AverageMode:      RunningMean,
		BaselineEnabled:  false,
		BaselineFrom:     0,
		BaselineTo:       0,
		TriggerThreshold: 0.5,
	}
}

// Validate checks the invariants from §4.9 / §7 and returns
// ErrInvalidConfiguration (wrapped with detail) if any are violated.
func (c EngineConfig) Validate() error {
	if c.PostStimSamples <= 0 {
		return fmt.Errorf("%w: PostStimSamples must be > 0, got %d", ErrInvalidConfiguration, c.PostStimSamples)
	}
	if c.PreStimSamples < 0 {
		return fmt.Errorf("%w: PreStimSamples must be >= 0, got %d", ErrInvalidConfiguration, c.PreStimSamples)
	}
	if c.AverageMode == RunningMean && c.NumAverages <= 0 {
		return fmt.Errorf("%w: NumAverages must be > 0 in RunningMean mode, got %d", ErrInvalidConfiguration, c.NumAverages)
	}
	if c.BaselineFrom > c.BaselineTo {
		return fmt.Errorf("%w: BaselineFrom (%v) must be <= BaselineTo (%v)", ErrInvalidConfiguration, c.BaselineFrom, c.BaselineTo)
	}
	return nil
}

// LoadEngineConfig reads the "evoked" key out of Viper's currently
// configured sources (file, env, flags -- whatever the process wired up)
// and overlays it onto DefaultEngineConfig. A missing or unparsable key is
// not an error: it just means "use defaults," logged at an informational
// level.
func LoadEngineConfig() EngineConfig {
	cfg := DefaultEngineConfig()
	if !viper.IsSet("evoked") {
		return cfg
	}
	if err := viper.UnmarshalKey("evoked", &cfg); err != nil {
		log.Printf("rtevoked: could not parse \"evoked\" config key, using defaults: %v", err)
		return DefaultEngineConfig()
	}
	return cfg
}

// RPCPort returns the configured RPC port (Viper key "evoked.portrpc"), or
// PortRPC if unset.
func RPCPort() int {
	if viper.IsSet("evoked.portrpc") {
		return viper.GetInt("evoked.portrpc")
	}
	return PortRPC
}

// EvokedPort returns the configured ZMQ PUB port (Viper key
// "evoked.portevoked"), or PortEvoked if unset.
func EvokedPort() int {
	if viper.IsSet("evoked.portevoked") {
		return viper.GetInt("evoked.portevoked")
	}
	return PortEvoked
}
