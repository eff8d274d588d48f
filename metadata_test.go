package rtevoked

import "testing"

func TestStimChannelsExcludesCompositeChannel(t *testing.T) {
	meta := NewStaticMetadata(100, []ChannelInfo{
		{Kind: Ordinary, Name: "EEG1"},
		{Kind: Stim, Name: "STI101"},
		{Kind: Stim, Name: compositeStimChannelName},
	})
	got := StimChannels(meta)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("StimChannels = %v, want [1]", got)
	}
}

func TestIsStimChannelOutOfRange(t *testing.T) {
	meta := NewStaticMetadata(100, []ChannelInfo{{Kind: Stim, Name: "STI101"}})
	if IsStimChannel(meta, -1) || IsStimChannel(meta, 5) {
		t.Fatal("IsStimChannel should reject out-of-range indices")
	}
}

func TestIsStimChannelRecognizesOrdinaryAsIneligible(t *testing.T) {
	meta := NewStaticMetadata(100, []ChannelInfo{{Kind: Ordinary, Name: "EEG1"}})
	if IsStimChannel(meta, 0) {
		t.Fatal("an Ordinary channel must not be eligible as a trigger source")
	}
}

func TestChannelKindString(t *testing.T) {
	if Stim.String() != "stim" {
		t.Fatalf("Stim.String() = %q", Stim.String())
	}
	if Ordinary.String() != "ordinary" {
		t.Fatalf("Ordinary.String() = %q", Ordinary.String())
	}
}
