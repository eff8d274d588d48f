package rtevoked

// ChannelKind distinguishes ordinary data channels from stimulus-coding
// channels. Only Stim channels are eligible trigger sources (§6).
type ChannelKind int

const (
	// Ordinary marks a regular data channel (EEG, MEG, etc).
	Ordinary ChannelKind = iota
	// Stim marks a channel that carries coded stimulus-onset pulses.
	Stim
)

func (k ChannelKind) String() string {
	if k == Stim {
		return "stim"
	}
	return "ordinary"
}

// compositeStimChannelName is excluded from the automatically populated
// stim-channel registry: by domain convention it carries a composite
// summary of several physical trigger lines, and is not itself a usable
// rising-edge trigger source.
const compositeStimChannelName = "STI 014"

// ChannelInfo describes one channel of the incoming stream.
type ChannelInfo struct {
	Kind ChannelKind
	Name string
}

// StreamMetadata is the read-only, consumed interface the engine relies on
// to know the sampling rate and which channels are eligible triggers. It is
// immutable for the lifetime of an engine instance.
type StreamMetadata interface {
	SampleRate() float64
	ChannelCount() int
	Channel(index int) ChannelInfo
}

// StaticMetadata is the simplest StreamMetadata implementation: a fixed
// sample rate and a fixed slice of per-channel descriptors, as would be
// parsed once from a recording's header.
type StaticMetadata struct {
	rate     float64
	channels []ChannelInfo
}

// NewStaticMetadata builds a StaticMetadata from a sample rate and a
// per-channel kind/name slice.
func NewStaticMetadata(sampleRate float64, channels []ChannelInfo) *StaticMetadata {
	cp := make([]ChannelInfo, len(channels))
	copy(cp, channels)
	return &StaticMetadata{rate: sampleRate, channels: cp}
}

// SampleRate returns the fixed sampling rate in Hz.
func (m *StaticMetadata) SampleRate() float64 { return m.rate }

// ChannelCount returns the number of channels described.
func (m *StaticMetadata) ChannelCount() int { return len(m.channels) }

// Channel returns the descriptor for the given channel index. It panics on
// an out-of-range index, matching slice-indexing semantics elsewhere in the
// package; callers at the control-surface boundary validate first.
func (m *StaticMetadata) Channel(index int) ChannelInfo {
	return m.channels[index]
}

// StimChannels returns the indices of all channels eligible to serve as a
// trigger channel: kind==Stim and name != "STI 014" (§6).
func StimChannels(meta StreamMetadata) []int {
	var result []int
	for i := 0; i < meta.ChannelCount(); i++ {
		ch := meta.Channel(i)
		if ch.Kind == Stim && ch.Name != compositeStimChannelName {
			result = append(result, i)
		}
	}
	return result
}

// IsStimChannel reports whether index is a valid, eligible trigger channel
// per StimChannels's rule. Out-of-range indices are never eligible.
func IsStimChannel(meta StreamMetadata, index int) bool {
	if index < 0 || index >= meta.ChannelCount() {
		return false
	}
	ch := meta.Channel(index)
	return ch.Kind == Stim && ch.Name != compositeStimChannelName
}
